package pestline

import (
	"io"
	"log/slog"

	"github.com/pestline/pestline/application/service"
	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/internal/config"
	"github.com/pestline/pestline/internal/metrics"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL       string
	dataDir     string
	logger      *slog.Logger
	apiKeys     []string
	maxDepth    int
	metrics     *metrics.ServerMetrics
	renderers   []service.Renderer
	skipUpgrade bool
	closers     []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:  config.DefaultDataDir(),
		maxDepth: config.DefaultMaxDepth,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores reports in the sqlite file at path.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres stores reports in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDBURL sets the database URL directly, as read from DB_URL.
func WithDBURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithDataDir sets the data directory holding the default database.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithMaxDepth sets the content nesting limit. Values below
// content.MinMaxDepth are raised to it; zero keeps the default.
func WithMaxDepth(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxDepth = max(n, content.MinMaxDepth)
		}
	}
}

// WithMetrics shares a metrics registry with the client, so decode
// failures and renders show up next to HTTP metrics.
func WithMetrics(m *metrics.ServerMetrics) Option {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

// WithRenderer registers an extra renderer, replacing the built-in one for
// the same format.
func WithRenderer(r service.Renderer) Option {
	return func(c *clientConfig) {
		c.renderers = append(c.renderers, r)
	}
}

// WithoutDocumentUpgrade skips rewriting legacy documents at startup.
func WithoutDocumentUpgrade() Option {
	return func(c *clientConfig) {
		c.skipUpgrade = true
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(c io.Closer) Option {
	return func(cfg *clientConfig) {
		cfg.closers = append(cfg.closers, c)
	}
}
