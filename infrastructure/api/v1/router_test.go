package v1_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pestline/pestline"
	v1 "github.com/pestline/pestline/infrastructure/api/v1"
	"github.com/pestline/pestline/infrastructure/api/v1/dto"
)

const findingsTree = `{"$type":"textBlock","title":"Findings","numbering":"1","level":1,"sections":[{"$type":"textArea","content":"Termite activity in the **sub-floor**."}]}`

func newTestClient(t *testing.T) *pestline.Client {
	t.Helper()
	tmpDir := t.TempDir()
	client, err := pestline.New(
		pestline.WithSQLite(filepath.Join(tmpDir, "test.db")),
		pestline.WithDataDir(tmpDir),
		pestline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createReport(t *testing.T, h http.Handler, trees string) dto.ReportData {
	t.Helper()
	body := fmt.Sprintf(`{"data":{"type":"report","attributes":{"kind":"inspection","title":"Termite inspection","client_name":"J. Smith","trees":%s}}}`, trees)
	w := serve(t, h, http.MethodPost, "/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func decodeErrors(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(resp.Errors))
	}
	return resp
}

func TestReportsRouter_CreateAndGet(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	created := createReport(t, routes, `[{"name":"findings","content":`+findingsTree+`}]`)
	if created.Type != "report" {
		t.Errorf("expected type report, got %q", created.Type)
	}
	if created.Attributes.Reference == "" {
		t.Error("expected a generated reference")
	}

	w := serve(t, routes, http.MethodGet, "/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Attributes.ClientName != "J. Smith" {
		t.Errorf("expected client J. Smith, got %q", resp.Data.Attributes.ClientName)
	}
}

func TestReportsRouter_Create_SetsLocation(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	w := serve(t, routes, http.MethodPost, "/", `{"data":{"type":"report","attributes":{"kind":"quotation","title":"Quote"}}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/api/v1/reports/") {
		t.Errorf("unexpected Location %q", loc)
	}
}

func TestReportsRouter_Create_UnknownVariant(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	tree := `{"$type":"textBlock","title":"R","numbering":"","level":0,"sections":[{"$type":"chart"}]}`
	body := `{"data":{"type":"report","attributes":{"kind":"inspection","title":"T","trees":[{"name":"main","content":` + tree + `}]}}}`
	w := serve(t, routes, http.MethodPost, "/", body)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	e := decodeErrors(t, w).Errors[0]
	if e.Code != "malformed_children" {
		t.Errorf("expected code malformed_children, got %q", e.Code)
	}
	if e.Source == nil || e.Source.Pointer == nil || *e.Source.Pointer != "/sections/0" {
		t.Errorf("expected pointer /sections/0, got %+v", e.Source)
	}
	if e.Meta == nil || (*e.Meta)["tree"] != "main" || (*e.Meta)["cause_code"] != "unknown_variant" {
		t.Errorf("expected meta.tree main and cause_code unknown_variant, got %+v", e.Meta)
	}
}

func TestReportsRouter_Create_Invalid(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"data":`},
		{"unknown kind", `{"data":{"type":"report","attributes":{"kind":"invoice","title":"T"}}}`},
		{"empty title", `{"data":{"type":"report","attributes":{"kind":"inspection","title":"  "}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, routes, http.MethodPost, "/", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestReportsRouter_List(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewReportsRouter(client).Routes()

	for range 3 {
		createReport(t, routes, `[]`)
	}
	w := serve(t, routes, http.MethodPost, "/", `{"data":{"type":"report","attributes":{"kind":"certificate","title":"Treatment certificate"}}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create certificate: %d", w.Code)
	}

	w = serve(t, routes, http.MethodGet, "/?kind=inspection&page_size=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ReportListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 reports on the page, got %d", len(resp.Data))
	}
	if resp.Meta == nil || (*resp.Meta)["total_count"] != float64(3) {
		t.Errorf("expected total_count 3, got %+v", resp.Meta)
	}
	if resp.Links == nil || resp.Links.Next == "" {
		t.Errorf("expected a next link, got %+v", resp.Links)
	}
	for _, r := range resp.Data {
		if r.Attributes.Kind != "inspection" {
			t.Errorf("expected only inspections, got %q", r.Attributes.Kind)
		}
	}
}

func TestReportsRouter_List_InvalidKind(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	w := serve(t, routes, http.MethodGet, "/?kind=invoice", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReportsRouter_Update(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[]`)

	body := fmt.Sprintf(`{"data":{"type":"report","id":%q,"attributes":{"site_address":"12 Gum St"}}}`, created.ID)
	w := serve(t, routes, http.MethodPatch, "/"+created.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Attributes.SiteAddress != "12 Gum St" {
		t.Errorf("expected site address to change, got %q", resp.Data.Attributes.SiteAddress)
	}
	if resp.Data.Attributes.Title != "Termite inspection" {
		t.Errorf("expected title to be kept, got %q", resp.Data.Attributes.Title)
	}
}

func TestReportsRouter_Update_IDMismatch(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[]`)

	w := serve(t, routes, http.MethodPatch, "/"+created.ID, `{"data":{"type":"report","id":"999","attributes":{}}}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestReportsRouter_Content(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[{"name":"findings","content":`+findingsTree+`}]`)

	w := serve(t, routes, http.MethodGet, "/"+created.ID+"/content", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ContentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	trees := resp.Data.Attributes.Trees
	if len(trees) != 1 || trees[0].Name != "findings" {
		t.Fatalf("expected the findings tree, got %+v", trees)
	}
	if string(trees[0].Content) != findingsTree {
		t.Errorf("content did not round-trip:\n got %s\nwant %s", trees[0].Content, findingsTree)
	}
}

func TestReportsRouter_ReplaceContent(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[{"name":"findings","content":`+findingsTree+`}]`)

	replacement := `{"$type":"textArea","content":"No activity."}`
	body := `{"data":{"type":"report_content","attributes":{"trees":[{"name":"summary","content":` + replacement + `}]}}}`
	w := serve(t, routes, http.MethodPut, "/"+created.ID+"/content", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ContentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	trees := resp.Data.Attributes.Trees
	if len(trees) != 1 || trees[0].Name != "summary" || string(trees[0].Content) != replacement {
		t.Errorf("unexpected trees after replace: %+v", trees)
	}
}

func TestReportsRouter_Issues(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	tree := `{"$type":"textBlock","title":"A","numbering":"1","level":2,"sections":[{"$type":"textBlock","title":"B","numbering":"1.1","level":2,"sections":[]}]}`
	created := createReport(t, routes, `[{"name":"main","content":`+tree+`}]`)

	w := serve(t, routes, http.MethodGet, "/"+created.ID+"/issues", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.IssueListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(resp.Data))
	}
	issue := resp.Data[0].Attributes
	if issue.Code != "level_not_deeper" || issue.Tree != "main" || issue.Pointer != "/sections/0" {
		t.Errorf("unexpected issue %+v", issue)
	}
}

func TestReportsRouter_Render(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[{"name":"findings","content":`+findingsTree+`}]`)

	tests := []struct {
		query       string
		contentType string
		disposition string
		contains    string
	}{
		{"", "text/html", "inline", "<strong>sub-floor</strong>"},
		{"?format=md", "text/markdown", "inline", "**sub-floor**"},
		{"?format=docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "attachment", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(t, routes, http.MethodGet, "/"+created.ID+"/render"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("expected content type %s, got %s", tt.contentType, ct)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, tt.disposition) {
				t.Errorf("expected %s disposition, got %s", tt.disposition, cd)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q", tt.contains)
			}
		})
	}
}

func TestReportsRouter_Render_UnknownFormat(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[]`)

	w := serve(t, routes, http.MethodGet, "/"+created.ID+"/render?format=pdf", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReportsRouter_Delete(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()
	created := createReport(t, routes, `[{"name":"findings","content":`+findingsTree+`}]`)

	w := serve(t, routes, http.MethodDelete, "/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	w = serve(t, routes, http.MethodGet, "/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestReportsRouter_NotFound(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	for _, target := range []string{"/99999", "/99999/content", "/99999/issues", "/99999/render"} {
		w := serve(t, routes, http.MethodGet, target, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, w.Code)
		}
	}
}

func TestReportsRouter_InvalidID(t *testing.T) {
	routes := v1.NewReportsRouter(newTestClient(t)).Routes()

	w := serve(t, routes, http.MethodGet, "/abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestContentRouter_Validate(t *testing.T) {
	routes := v1.NewContentRouter(newTestClient(t)).Routes()

	w := serve(t, routes, http.MethodPost, "/validate", findingsTree)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ContentCheckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	attrs := resp.Data.Attributes
	if attrs.Schema != "tagged" || attrs.Sections != 1 || attrs.Texts != 1 {
		t.Errorf("unexpected check result %+v", attrs)
	}
	if len(attrs.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", attrs.Issues)
	}
}

func TestContentRouter_Validate_Legacy(t *testing.T) {
	routes := v1.NewContentRouter(newTestClient(t)).Routes()

	legacy := `{"Title":"Findings","Numbering":"1","Level":1,"Sections":[{"Content":"Old text"}]}`
	w := serve(t, routes, http.MethodPost, "/validate", legacy)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp dto.ContentCheckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Attributes.Schema != "legacy" {
		t.Errorf("expected legacy schema, got %q", resp.Data.Attributes.Schema)
	}
}

func TestContentRouter_Validate_Errors(t *testing.T) {
	routes := v1.NewContentRouter(newTestClient(t)).Routes()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty", "", http.StatusBadRequest, ""},
		{"missing field", `{"$type":"textBlock","title":"t","level":0}`, http.StatusUnprocessableEntity, "missing_field"},
		{"malformed children", `{"$type":"textBlock","title":"t","numbering":"","level":0,"sections":{}}`, http.StatusUnprocessableEntity, "malformed_children"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, routes, http.MethodPost, "/validate", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.code == "" {
				return
			}
			if e := decodeErrors(t, w).Errors[0]; e.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, e.Code)
			}
		})
	}
}
