package jsonapi

import (
	"fmt"
	"strconv"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
)

// Resource types.
const (
	TypeReport       = "report"
	TypeIssue        = "content_issue"
	TypeContent      = "report_content"
	TypeContentCheck = "content_check"
)

// ReportAttributes represents report attributes in JSON:API format.
type ReportAttributes struct {
	Reference   string   `json:"reference"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	ClientName  string   `json:"client_name"`
	SiteAddress string   `json:"site_address"`
	ServiceDate DateTime `json:"service_date"`
	Trees       []string `json:"trees,omitempty"`
	CreatedAt   DateTime `json:"created_at"`
	UpdatedAt   DateTime `json:"updated_at"`
}

// IssueAttributes represents an advisory validation issue.
type IssueAttributes struct {
	Tree     string `json:"tree,omitempty"`
	Path     string `json:"path"`
	Pointer  string `json:"pointer"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// TreeAttributes is one named tree in the canonical wire format.
type TreeAttributes struct {
	Name    string       `json:"name"`
	Content content.JSON `json:"content"`
}

// ContentAttributes holds a report's trees.
type ContentAttributes struct {
	Trees []TreeAttributes `json:"trees"`
}

// ContentCheckAttributes describes a decoded standalone tree.
type ContentCheckAttributes struct {
	Schema   string            `json:"schema"`
	Sections int               `json:"sections"`
	Texts    int               `json:"texts"`
	MaxDepth int               `json:"max_depth"`
	Issues   []IssueAttributes `json:"issues"`
}

// ReportResource converts a report to a JSON:API resource. Tree names are
// listed only when the report's content was loaded.
func ReportResource(r report.Report) *Resource {
	var names []string
	for _, t := range r.Trees() {
		names = append(names, t.Name())
	}
	id := strconv.FormatInt(r.ID(), 10)
	res := NewResource(TypeReport, id, ReportAttributes{
		Reference:   r.Reference(),
		Kind:        r.Kind().String(),
		Title:       r.Title(),
		ClientName:  r.ClientName(),
		SiteAddress: r.SiteAddress(),
		ServiceDate: DateTime(r.ServiceDate()),
		Trees:       names,
		CreatedAt:   DateTime(r.CreatedAt()),
		UpdatedAt:   DateTime(r.UpdatedAt()),
	})
	res.Links = &Links{Self: fmt.Sprintf("/api/v1/reports/%s", id)}
	return res
}

// ReportResources converts a list of reports.
func ReportResources(reports []report.Report) []*Resource {
	out := make([]*Resource, 0, len(reports))
	for _, r := range reports {
		out = append(out, ReportResource(r))
	}
	return out
}

// IssueResources converts advisory issues. IDs are positional.
func IssueResources(issues []report.Issue) []*Resource {
	out := make([]*Resource, 0, len(issues))
	for i, is := range issues {
		out = append(out, NewResource(TypeIssue, strconv.Itoa(i+1), issueAttributes(is.Tree, is.ValidationIssue)))
	}
	return out
}

// ContentResource converts a report's trees. The resource shares the
// report's ID.
func ContentResource(r report.Report) *Resource {
	trees := make([]TreeAttributes, 0, len(r.Trees()))
	for _, t := range r.Trees() {
		trees = append(trees, TreeAttributes{Name: t.Name(), Content: content.JSON{Node: t.Root()}})
	}
	id := strconv.FormatInt(r.ID(), 10)
	res := NewResource(TypeContent, id, ContentAttributes{Trees: trees})
	res.Links = &Links{Self: fmt.Sprintf("/api/v1/reports/%s/content", id)}
	return res
}

// ContentCheckResource describes the outcome of a stateless content check.
func ContentCheckResource(schema content.Schema, stats content.Stats, issues []content.ValidationIssue) *Resource {
	attrs := ContentCheckAttributes{
		Schema:   schema.String(),
		Sections: stats.Sections,
		Texts:    stats.Texts,
		MaxDepth: stats.MaxDepth,
		Issues:   make([]IssueAttributes, 0, len(issues)),
	}
	for _, is := range issues {
		attrs.Issues = append(attrs.Issues, issueAttributes("", is))
	}
	return NewResource(TypeContentCheck, "", attrs)
}

func issueAttributes(tree string, is content.ValidationIssue) IssueAttributes {
	return IssueAttributes{
		Tree:     tree,
		Path:     is.Path.String(),
		Pointer:  is.Path.Pointer(),
		Code:     is.Code,
		Severity: string(is.Severity),
		Message:  is.Message,
	}
}
