package pestline_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pestline/pestline"
	"github.com/pestline/pestline/application/service"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, opts ...pestline.Option) *pestline.Client {
	t.Helper()
	dir := t.TempDir()
	base := []pestline.Option{
		pestline.WithSQLite(filepath.Join(dir, "test.db")),
		pestline.WithDataDir(dir),
		pestline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	client, err := pestline.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNew_DefaultDatabaseInDataDir(t *testing.T) {
	dir := t.TempDir()
	client, err := pestline.New(
		pestline.WithDataDir(dir),
		pestline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	assert.FileExists(t, filepath.Join(dir, "pestline.db"))
	assert.Equal(t, dir, client.DataDir())
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNew_UnsupportedDatabase(t *testing.T) {
	_, err := pestline.New(
		pestline.WithDataDir(t.TempDir()),
		pestline.WithDBURL("mysql://localhost/pestline"),
	)
	assert.Error(t, err)
}

func TestClient_CreateAndRender(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	root := content.NewSection("Findings", "1", 1,
		content.NewText("Termite activity in the **sub-floor**."),
	)
	r, err := client.Reports.Create(ctx, &service.ReportCreateParams{
		Kind:  report.KindInspection,
		Title: "Termite inspection",
		Trees: []report.Tree{report.NewTree("findings", root)},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]report.Format{report.FormatHTML, report.FormatDOCX, report.FormatMarkdown},
		client.Reports.Formats(),
	)

	html, err := client.Reports.Render(ctx, r.ID(), report.FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(html.Body), "<strong>sub-floor</strong>")

	md, err := client.Reports.Render(ctx, r.ID(), report.FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md.Body), "# Termite inspection"))

	docx, err := client.Reports.Render(ctx, r.ID(), report.FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(docx.Body[:2]))
}

func TestClient_MetricsCountDecodeFailuresAndRenders(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	client := newClient(t, pestline.WithMetrics(m))
	assert.Same(t, m, client.Metrics())

	_, err := client.Reports.DecodeTree([]byte(`{"$type":"chart"}`))
	require.ErrorIs(t, err, content.ErrUnknownVariant)

	r, err := client.Reports.Create(ctx, &service.ReportCreateParams{Kind: report.KindQuotation, Title: "Quote"})
	require.NoError(t, err)
	_, err = client.Reports.Render(ctx, r.ID(), report.FormatMarkdown)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `content_decode_failures_total{kind="unknown_variant",source="request"} 1`)
	assert.Contains(t, body, `report_renders_total{format="markdown"} 1`)
}

func TestClient_MaxDepth(t *testing.T) {
	client := newClient(t, pestline.WithMaxDepth(10))
	assert.Equal(t, content.MinMaxDepth, client.MaxDepth())

	client = newClient(t, pestline.WithMaxDepth(300))
	assert.Equal(t, 300, client.MaxDepth())
	assert.Len(t, client.DecodeOptions(), 1)
}

func TestClient_APIKeysCopy(t *testing.T) {
	client := newClient(t, pestline.WithAPIKeys("a", "b"))
	keys := client.APIKeys()
	keys[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, client.APIKeys())
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestClient_CloseTwice(t *testing.T) {
	dir := t.TempDir()
	closed := 0
	client, err := pestline.New(
		pestline.WithDataDir(dir),
		pestline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		pestline.WithCloser(closerFunc(func() error { closed++; return nil })),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.Equal(t, 1, closed)
	assert.ErrorIs(t, client.Close(), pestline.ErrClientClosed)
	assert.ErrorIs(t, client.Ping(context.Background()), pestline.ErrClientClosed)
}
