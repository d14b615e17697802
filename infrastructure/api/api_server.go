package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pestline/pestline"
	apimiddleware "github.com/pestline/pestline/infrastructure/api/middleware"
	v1 "github.com/pestline/pestline/infrastructure/api/v1"
	"github.com/pestline/pestline/internal/config"
	mcpinternal "github.com/pestline/pestline/internal/mcp"
)

// APIServer provides an HTTP API backed by a pestline Client.
type APIServer struct {
	client       *pestline.Client
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger

	version      string
	commit       string
	corsOrigins  []string
	maxBodyBytes int64
}

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithVersion sets the version reported by /health, MCP and build_info.
func WithVersion(version string) APIServerOption {
	return func(a *APIServer) { a.version = version }
}

// WithCommit sets the commit reported by build_info.
func WithCommit(commit string) APIServerOption {
	return func(a *APIServer) { a.commit = commit }
}

// WithCORSAllowedOrigins enables CORS for the given origins.
func WithCORSAllowedOrigins(origins []string) APIServerOption {
	return func(a *APIServer) { a.corsOrigins = origins }
}

// WithMaxBodyBytes limits request bodies on /api/v1.
func WithMaxBodyBytes(n int64) APIServerOption {
	return func(a *APIServer) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// NewAPIServer creates a new APIServer wired to the given Client.
// The client's API keys write-protect /api/v1/reports: POST, PUT, PATCH and
// DELETE require a valid key. Reads, content validation, MCP and docs stay
// open.
func NewAPIServer(client *pestline.Client, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:       client,
		logger:       client.Logger(),
		version:      "dev",
		maxBodyBytes: config.DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client
	m := c.Metrics()
	m.SetBuildInfo(a.version, a.commit)

	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-KEY", "Authorization", "X-Correlation-ID"},
			ExposedHeaders:   []string{"Location", "X-Correlation-ID", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	router.Use(m.Middleware)
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(a.logger))

	router.Get("/health", a.health)
	router.Handle("/metrics", m.Handler())
	router.Mount("/docs", NewDocsRouter("/docs/openapi.json", a.version).Routes())

	reportsRouter := v1.NewReportsRouter(c)
	contentRouter := v1.NewContentRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(apimiddleware.MaxBytes(a.maxBodyBytes))

		r.Mount("/content", contentRouter.Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(c.APIKeys(), a.logger))
			r.Mount("/reports", reportsRouter.Routes())
		})
	})

	// MCP streams responses and manages session headers itself, so it is
	// mounted outside the Timeout group.
	mcpSrv := mcpinternal.NewServer(c.Reports, c.Reports, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

func (a *APIServer) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.client.Ping(ctx); err != nil {
		a.logger.Warn("health check failed", slog.Any("error", err))
		apimiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": a.version,
	})
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
