// Package pestline stores and renders pest-control service reports whose
// body is a tree of titled sections and text.
//
// Basic usage:
//
//	client, err := pestline.New(
//	    pestline.WithSQLite("reports.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	r, err := client.Reports.Create(ctx, &service.ReportCreateParams{
//	    Kind:  report.KindInspection,
//	    Title: "Termite inspection, 12 Hill St",
//	    Trees: []report.Tree{report.NewTree("findings", root)},
//	})
//
//	out, err := client.Reports.Render(ctx, r.ID(), report.FormatHTML)
package pestline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pestline/pestline/application/service"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/pestline/pestline/infrastructure/persistence"
	"github.com/pestline/pestline/infrastructure/render"
	"github.com/pestline/pestline/internal/config"
	"github.com/pestline/pestline/internal/database"
	"github.com/pestline/pestline/internal/metrics"
)

// ErrClientClosed is returned by Close on a closed client.
var ErrClientClosed = service.ErrClientClosed

// Client is the main entry point for the pestline library.
//
// Access reports via the Reports field:
//
//	client.Reports.Get(ctx, repository.WithID(id))
//	client.Reports.Render(ctx, id, report.FormatDOCX)
type Client struct {
	Reports *service.Reports

	db       database.Database
	metrics  *metrics.ServerMetrics
	closers  []io.Closer
	logger   *slog.Logger
	dataDir  string
	apiKeys  []string
	maxDepth int
	closed   atomic.Bool
	mu       sync.Mutex
}

// New creates a new Client with the given options. Without a database
// option it opens the sqlite file in the data directory.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	dbURL := cfg.dbURL
	if dbURL == "" {
		dbURL = config.DefaultDBURL(dataDir)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), db.Close())
	}
	if err := persistence.ValidateSchema(db); err != nil {
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), db.Close())
	}
	if !cfg.skipUpgrade {
		if _, err := persistence.UpgradeDocuments(ctx, db, logger); err != nil {
			return nil, errors.Join(fmt.Errorf("upgrade documents: %w", err), db.Close())
		}
	}

	m := cfg.metrics
	if m == nil {
		m = metrics.New()
	}

	renderers := []service.Renderer{render.NewHTML(), render.NewDOCX(), render.NewMarkdown()}
	renderers = append(renderers, cfg.renderers...)

	reports := service.NewReports(
		persistence.NewReportStore(db),
		persistence.NewDocumentStore(db),
		db,
		logger,
		service.WithRenderers(renderers...),
		service.WithMaxDepth(cfg.maxDepth),
		service.WithDecodeFailureHook(m.IncDecodeFailure),
		service.WithRenderHook(func(f report.Format) { m.IncRender(string(f)) }),
	)

	logger.Debug("pestline client ready",
		slog.String("data_dir", dataDir),
		slog.Bool("postgres", db.IsPostgres()),
		slog.Int("max_depth", cfg.maxDepth),
	)

	return &Client{
		Reports:  reports,
		db:       db,
		metrics:  m,
		closers:  cfg.closers,
		logger:   logger,
		dataDir:  dataDir,
		apiKeys:  cfg.apiKeys,
		maxDepth: cfg.maxDepth,
	}, nil
}

// Close releases the client's resources. Calling it twice returns
// ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Debug("pestline client closed")
	return nil
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.db.Ping(ctx)
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the client's Prometheus metrics.
func (c *Client) Metrics() *metrics.ServerMetrics {
	return c.metrics
}

// APIKeys returns a copy of the keys that guard write endpoints.
func (c *Client) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// DataDir returns the prepared data directory.
func (c *Client) DataDir() string {
	return c.dataDir
}

// MaxDepth returns the content nesting limit applied when decoding.
func (c *Client) MaxDepth() int {
	return c.maxDepth
}

// DecodeOptions returns the decoder options matching the client's limits,
// for callers that decode content outside the Reports service.
func (c *Client) DecodeOptions() []content.DecodeOption {
	return []content.DecodeOption{content.WithMaxDepth(c.maxDepth)}
}
