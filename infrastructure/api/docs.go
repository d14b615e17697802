// Package api provides HTTP server and API documentation.
package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openapiJSON []byte

//go:embed docs.html
var docsFS embed.FS

var docsPage = template.Must(template.ParseFS(docsFS, "docs.html"))

// DocsRouter serves Swagger UI and the OpenAPI document it reads.
type DocsRouter struct {
	specURL string
	version string
}

// NewDocsRouter creates a documentation router. The served document
// reports version as the API version; empty keeps the embedded value.
func NewDocsRouter(specURL, version string) *DocsRouter {
	return &DocsRouter{specURL: specURL, version: version}
}

// Routes returns the chi router for documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.page)
	router.Get("/openapi.json", d.spec)
	return router
}

func (d *DocsRouter) page(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsPage.Execute(w, struct{ SpecURL string }{d.specURL})
}

// spec serves the OpenAPI document with its server URL pointed at the host
// the request came in on, so "Try it out" works behind proxies.
func (d *DocsRouter) spec(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.Unmarshal(openapiJSON, &doc); err != nil {
		http.Error(w, "invalid embedded OpenAPI document", http.StatusInternalServerError)
		return
	}

	doc["servers"] = []map[string]string{{"url": requestBaseURL(r) + "/api/v1"}}
	if info, ok := doc["info"].(map[string]any); ok && d.version != "" {
		info["version"] = d.version
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}

func requestBaseURL(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}
