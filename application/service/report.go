package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/domain/repository"
)

// Transactor runs a function inside a unit of work. Stores joined to the
// same database take part through the context fn receives.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReportCreateParams configures a new report.
type ReportCreateParams struct {
	Kind        report.Kind
	Title       string
	Reference   string
	ClientName  string
	SiteAddress string
	ServiceDate *time.Time
	Trees       []report.Tree
}

// ReportListParams filters and paginates report listings.
type ReportListParams struct {
	Kind     report.Kind
	Client   string
	Page     int
	PageSize int
}

func (p *ReportListParams) filters() []repository.Option {
	var opts []repository.Option
	if p == nil {
		return opts
	}
	if p.Kind != "" {
		opts = append(opts, report.WithKind(p.Kind))
	}
	if p.Client != "" {
		opts = append(opts, report.WithClientName(p.Client))
	}
	return opts
}

// Rendered is a report rendered in one format.
type Rendered struct {
	Format      report.Format
	ContentType string
	Filename    string
	Body        []byte
}

// CheckResult is the outcome of decoding and validating a standalone tree.
type CheckResult struct {
	Schema content.Schema
	Root   content.Node
	Issues []content.ValidationIssue
	Stats  content.Stats
}

// ReportsOption configures a Reports service.
type ReportsOption func(*Reports)

// WithRenderers registers renderers, replacing any with the same format.
func WithRenderers(renderers ...Renderer) ReportsOption {
	return func(s *Reports) {
		for _, r := range renderers {
			s.renderers[r.Format()] = r
		}
	}
}

// WithMaxDepth sets the nesting limit applied when decoding content.
func WithMaxDepth(n int) ReportsOption {
	return func(s *Reports) {
		if n > 0 {
			s.decodeOpts = []content.DecodeOption{content.WithMaxDepth(n)}
		}
	}
}

// WithDecodeFailureHook registers a callback invoked for every content
// decode failure, with the source of the content ("request" or "stored")
// and the kind of the innermost failure.
func WithDecodeFailureHook(fn func(source string, kind content.Kind)) ReportsOption {
	return func(s *Reports) {
		s.onDecodeFailure = fn
	}
}

// WithRenderHook registers a callback invoked after every successful render.
func WithRenderHook(fn func(format report.Format)) ReportsOption {
	return func(s *Reports) {
		s.onRender = fn
	}
}

// Reports manages reports and their content trees.
// Embeds Collection for Find/Get/Count; bespoke methods handle writes,
// content and rendering.
type Reports struct {
	repository.Collection[report.Report]
	store           report.Store
	documents       report.DocumentStore
	tx              Transactor
	renderers       map[report.Format]Renderer
	decodeOpts      []content.DecodeOption
	onDecodeFailure func(source string, kind content.Kind)
	onRender        func(format report.Format)
	logger          *slog.Logger
}

// NewReports creates a new Reports service.
func NewReports(
	store report.Store,
	documents report.DocumentStore,
	tx Transactor,
	logger *slog.Logger,
	opts ...ReportsOption,
) *Reports {
	s := &Reports{
		Collection: repository.NewCollection[report.Report](store),
		store:      store,
		documents:  documents,
		tx:         tx,
		renderers:  map[report.Format]Renderer{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create saves a new report and, when given, its initial trees. Reports
// created without a reference get one derived from kind, year and ID.
func (s *Reports) Create(ctx context.Context, params *ReportCreateParams) (report.Report, error) {
	r, err := report.NewReport(params.Kind, params.Title)
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	r, err = r.WithDetails(report.Details{
		Reference:   &params.Reference,
		ClientName:  &params.ClientName,
		SiteAddress: &params.SiteAddress,
		ServiceDate: params.ServiceDate,
	})
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	trees, err := report.NewTrees(params.Trees...)
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	doc, err := report.EncodeDocument(trees)
	if err != nil {
		return report.Report{}, fmt.Errorf("encode content: %w", err)
	}

	var saved report.Report
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		if saved, err = s.store.Save(ctx, r); err != nil {
			return err
		}
		if saved.Reference() == "" {
			if saved, err = s.store.Save(ctx, saved.WithReference(saved.DefaultReference())); err != nil {
				return err
			}
		}
		return s.documents.Save(ctx, saved.ID(), doc)
	})
	if err != nil {
		return report.Report{}, fmt.Errorf("create report: %w", err)
	}

	s.logger.Info("report created",
		slog.Int64("report_id", saved.ID()),
		slog.String("reference", saved.Reference()),
		slog.String("kind", saved.Kind().String()),
	)
	return saved.WithTrees(trees).WithUpdatedAt(saved.UpdatedAt()), nil
}

// Update applies metadata changes. Content is untouched.
func (s *Reports) Update(ctx context.Context, id int64, details report.Details) (report.Report, error) {
	existing, err := s.store.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return report.Report{}, fmt.Errorf("get report: %w", err)
	}
	updated, err := existing.WithDetails(details)
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return report.Report{}, fmt.Errorf("update report: %w", err)
	}
	return saved, nil
}

// ReplaceContent replaces all trees of a report. There are no partial
// updates: the stored document is rewritten as a whole.
func (s *Reports) ReplaceContent(ctx context.Context, id int64, trees []report.Tree) (report.Report, error) {
	validated, err := report.NewTrees(trees...)
	if err != nil {
		return report.Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	doc, err := report.EncodeDocument(validated)
	if err != nil {
		return report.Report{}, fmt.Errorf("encode content: %w", err)
	}

	var saved report.Report
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindOne(ctx, repository.WithID(id))
		if err != nil {
			return fmt.Errorf("get report: %w", err)
		}
		if err := s.documents.Save(ctx, id, doc); err != nil {
			return err
		}
		saved, err = s.store.Save(ctx, existing.WithTrees(validated))
		return err
	})
	if err != nil {
		return report.Report{}, fmt.Errorf("replace content: %w", err)
	}

	s.logger.Info("report content replaced",
		slog.Int64("report_id", id),
		slog.Int("trees", len(validated)),
		slog.Int("bytes", len(doc.Data())),
	)
	return saved, nil
}

// Content returns the report with its trees loaded.
func (s *Reports) Content(ctx context.Context, id int64) (report.Report, error) {
	r, err := s.store.FindOne(ctx, repository.WithID(id))
	if err != nil {
		return report.Report{}, fmt.Errorf("get report: %w", err)
	}
	doc, err := s.documents.Load(ctx, id)
	if err != nil {
		return report.Report{}, fmt.Errorf("load content: %w", err)
	}
	trees, err := report.DecodeDocument(doc, s.decodeOpts...)
	if err != nil {
		s.decodeFailed("stored", err)
		s.logger.Error("stored report content does not decode",
			slog.Int64("report_id", id),
			slog.String("error", err.Error()),
		)
		return report.Report{}, fmt.Errorf("decode content of report %d: %w", id, err)
	}
	return r.WithTrees(trees).WithUpdatedAt(r.UpdatedAt()), nil
}

// Issues returns advisory validation issues across all trees of a report.
func (s *Reports) Issues(ctx context.Context, id int64) ([]report.Issue, error) {
	r, err := s.Content(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.Validate(r.Trees()), nil
}

// List returns reports matching params, newest first.
func (s *Reports) List(ctx context.Context, params *ReportListParams) ([]report.Report, error) {
	opts := params.filters()
	page, size := 1, 0
	if params != nil {
		page, size = params.Page, params.PageSize
	}
	opts = append(opts, repository.WithPage(page, size)...)
	opts = append(opts, repository.WithNewestFirst()...)
	return s.store.Find(ctx, opts...)
}

// Count returns the number of reports matching params, ignoring pagination.
func (s *Reports) Count(ctx context.Context, params *ReportListParams) (int64, error) {
	return s.store.Count(ctx, params.filters()...)
}

// Delete removes a report and its content.
func (s *Reports) Delete(ctx context.Context, id int64) error {
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindOne(ctx, repository.WithID(id))
		if err != nil {
			return fmt.Errorf("get report: %w", err)
		}
		if err := s.documents.Delete(ctx, id); err != nil {
			return err
		}
		return s.store.Delete(ctx, existing)
	})
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	s.logger.Info("report deleted", slog.Int64("report_id", id))
	return nil
}

// Formats returns the registered render formats.
func (s *Reports) Formats() []report.Format {
	out := make([]report.Format, 0, len(s.renderers))
	for _, f := range report.Formats() {
		if _, ok := s.renderers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Render renders a report with its content in the given format.
func (s *Reports) Render(ctx context.Context, id int64, format report.Format) (Rendered, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	r, err := s.Content(ctx, id)
	if err != nil {
		return Rendered{}, err
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, r); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", format, err)
	}
	if s.onRender != nil {
		s.onRender(format)
	}
	return Rendered{
		Format:      format,
		ContentType: renderer.ContentType(),
		Filename:    filename(r, format),
		Body:        buf.Bytes(),
	}, nil
}

// DecodeTree decodes a single tree received from a client, applying the
// configured depth limit.
func (s *Reports) DecodeTree(data []byte) (content.Node, error) {
	root, err := content.Decode(data, s.decodeOpts...)
	if err != nil {
		s.decodeFailed("request", err)
		return nil, err
	}
	return root, nil
}

// Check decodes a standalone tree, sniffing its schema, and validates it.
// Nothing is stored.
func (s *Reports) Check(data []byte) (CheckResult, error) {
	schema := content.Sniff(data)
	root, err := content.DecodeSchema(data, schema, s.decodeOpts...)
	if err != nil {
		s.decodeFailed("request", err)
		return CheckResult{}, err
	}
	return CheckResult{
		Schema: schema,
		Root:   root,
		Issues: content.Validate(root),
		Stats:  content.Measure(root),
	}, nil
}

func (s *Reports) decodeFailed(source string, err error) {
	if s.onDecodeFailure == nil {
		return
	}
	if root := content.Root(err); root != nil {
		s.onDecodeFailure(source, root.Kind)
	}
}

func filename(r report.Report, format report.Format) string {
	name := r.Reference()
	if name == "" {
		name = fmt.Sprintf("report-%d", r.ID())
	}
	return name + "." + format.Extension()
}
