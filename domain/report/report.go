// Package report provides the report aggregate: a pest-control inspection
// report, certificate or quotation owning one or more named content trees.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned when building reports.
var (
	ErrInvalidKind     = errors.New("invalid report kind")
	ErrEmptyTitle      = errors.New("report title is required")
	ErrInvalidTree     = errors.New("invalid content tree")
	ErrInvalidDocument = errors.New("invalid report document")
)

// Kind classifies a report.
type Kind string

// Kind values.
const (
	KindInspection  Kind = "inspection"
	KindCertificate Kind = "certificate"
	KindQuotation   Kind = "quotation"
)

// Kinds returns every kind in display order.
func Kinds() []Kind {
	return []Kind{KindInspection, KindCertificate, KindQuotation}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindInspection, KindCertificate, KindQuotation:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Prefix returns the reference prefix for the kind, e.g. "INS".
func (k Kind) Prefix() string {
	switch k {
	case KindCertificate:
		return "CER"
	case KindQuotation:
		return "QUO"
	default:
		return "INS"
	}
}

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Report is a report's metadata plus, once loaded, its content trees.
type Report struct {
	id          int64
	reference   string
	kind        Kind
	title       string
	clientName  string
	siteAddress string
	serviceDate time.Time
	trees       []Tree
	createdAt   time.Time
	updatedAt   time.Time
}

// NewReport creates a new, unsaved Report.
func NewReport(kind Kind, title string) (Report, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Report{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Report{}, ErrEmptyTitle
	}
	now := time.Now().UTC()
	return Report{
		kind:      kind,
		title:     title,
		trees:     []Tree{},
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructReport recreates a Report from persistence.
func ReconstructReport(
	id int64,
	reference string,
	kind Kind,
	title string,
	clientName string,
	siteAddress string,
	serviceDate time.Time,
	trees []Tree,
	createdAt time.Time,
	updatedAt time.Time,
) Report {
	if trees == nil {
		trees = []Tree{}
	}
	return Report{
		id:          id,
		reference:   reference,
		kind:        kind,
		title:       title,
		clientName:  clientName,
		siteAddress: siteAddress,
		serviceDate: serviceDate,
		trees:       trees,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the report ID.
func (r Report) ID() int64 { return r.id }

// Reference returns the human-facing report number, e.g. INS-2026-0042.
func (r Report) Reference() string { return r.reference }

// Kind returns the report kind.
func (r Report) Kind() Kind { return r.kind }

// Title returns the report title.
func (r Report) Title() string { return r.title }

// ClientName returns the client the report was prepared for.
func (r Report) ClientName() string { return r.clientName }

// SiteAddress returns the inspected property's address.
func (r Report) SiteAddress() string { return r.siteAddress }

// ServiceDate returns the date of the visit; zero when not recorded.
func (r Report) ServiceDate() time.Time { return r.serviceDate }

// Trees returns the content trees in document order.
func (r Report) Trees() []Tree {
	out := make([]Tree, len(r.trees))
	copy(out, r.trees)
	return out
}

// Tree returns the tree with the given name.
func (r Report) Tree(name string) (Tree, bool) {
	for _, t := range r.trees {
		if t.name == name {
			return t, true
		}
	}
	return Tree{}, false
}

// CreatedAt returns the creation time.
func (r Report) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last modification time.
func (r Report) UpdatedAt() time.Time { return r.updatedAt }

// DefaultReference builds the reference assigned to a saved report that was
// created without one.
func (r Report) DefaultReference() string {
	return fmt.Sprintf("%s-%d-%04d", r.kind.Prefix(), r.createdAt.Year(), r.id)
}

// Details holds the editable metadata of a report. Nil fields are left
// unchanged by WithDetails.
type Details struct {
	Reference   *string
	Title       *string
	ClientName  *string
	SiteAddress *string
	ServiceDate *time.Time
}

// WithDetails returns a copy with the given details applied.
func (r Report) WithDetails(d Details) (Report, error) {
	if d.Title != nil {
		title := strings.TrimSpace(*d.Title)
		if title == "" {
			return Report{}, ErrEmptyTitle
		}
		r.title = title
	}
	if d.Reference != nil {
		r.reference = strings.TrimSpace(*d.Reference)
	}
	if d.ClientName != nil {
		r.clientName = strings.TrimSpace(*d.ClientName)
	}
	if d.SiteAddress != nil {
		r.siteAddress = strings.TrimSpace(*d.SiteAddress)
	}
	if d.ServiceDate != nil {
		r.serviceDate = d.ServiceDate.UTC()
	}
	r.updatedAt = time.Now().UTC()
	return r, nil
}

// WithReference returns a copy with the reference set.
func (r Report) WithReference(reference string) Report {
	r.reference = reference
	return r
}

// WithTrees returns a copy whose content is fully replaced by trees.
func (r Report) WithTrees(trees []Tree) Report {
	r.trees = make([]Tree, len(trees))
	copy(r.trees, trees)
	r.updatedAt = time.Now().UTC()
	return r
}

// WithUpdatedAt returns a copy with the modification time set.
func (r Report) WithUpdatedAt(t time.Time) Report {
	r.updatedAt = t
	return r
}
