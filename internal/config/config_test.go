package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/pestline/pestline/domain/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, DefaultHost, cfg.Host())
	assert.Equal(t, DefaultPort, cfg.Port())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DefaultDataDir(), cfg.DataDir())
	assert.Equal(t, DefaultDBURL(cfg.DataDir()), cfg.DBURL())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
	assert.Empty(t, cfg.APIKeys())
	assert.Empty(t, cfg.CORSAllowedOrigins())
	assert.Equal(t, content.DefaultMaxDepth, cfg.MaxDepth())
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.MaxBodyBytes())
}

func TestAppConfig_WithOptions(t *testing.T) {
	cfg := NewAppConfigWithOptions(
		WithHost("127.0.0.1"),
		WithPort(9090),
		WithDBURL("postgres://u:p@db/pestline"),
		WithLogLevel("DEBUG"),
		WithLogFormat(LogFormatJSON),
		WithAPIKeys([]string{"a", "b"}),
		WithCORSAllowedOrigins([]string{"https://app.example.com"}),
		WithMaxDepth(512),
		WithMaxBodyBytes(1024),
	)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "postgres://u:p@db/pestline", cfg.DBURL())
	assert.Equal(t, "DEBUG", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, []string{"a", "b"}, cfg.APIKeys())
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins())
	assert.Equal(t, 512, cfg.MaxDepth())
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes())
}

func TestAppConfig_MaxDepthFloor(t *testing.T) {
	cfg := NewAppConfigWithOptions(WithMaxDepth(8))
	assert.Equal(t, content.MinMaxDepth, cfg.MaxDepth())

	cfg = cfg.Apply(WithMaxDepth(0))
	assert.Equal(t, content.MinMaxDepth, cfg.MaxDepth(), "zero keeps the current value")
}

func TestAppConfig_APIKeys_Copy(t *testing.T) {
	keys := []string{"one"}
	cfg := NewAppConfigWithOptions(WithAPIKeys(keys))
	keys[0] = "mutated"

	got := cfg.APIKeys()
	assert.Equal(t, []string{"one"}, got)
	got[0] = "mutated"
	assert.Equal(t, []string{"one"}, cfg.APIKeys())
}

func TestAppConfig_DataDirUpdatesDBURL(t *testing.T) {
	dir := t.TempDir()
	cfg := NewAppConfigWithOptions(WithDataDir(dir))
	assert.Equal(t, "sqlite:///"+filepath.Join(dir, "pestline.db"), cfg.DBURL())

	custom := NewAppConfigWithOptions(WithDBURL("postgres://db/pestline"), WithDataDir(dir))
	assert.Equal(t, "postgres://db/pestline", custom.DBURL())
}

func TestAppConfig_Apply(t *testing.T) {
	base := NewAppConfig()
	changed := base.Apply(WithPort(1234))

	assert.Equal(t, DefaultPort, base.Port())
	assert.Equal(t, 1234, changed.Port())
}

func TestAppConfig_EnsureDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := NewAppConfigWithOptions(WithDataDir(dir))
	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, dir)
}

func TestAppConfig_LogAttrs(t *testing.T) {
	cfg := NewAppConfigWithOptions(
		WithDBURL("postgres://user:secret@db/pestline"),
		WithAPIKeys([]string{"k1", "k2"}),
	)

	attrs := map[string]slog.Value{}
	for _, a := range cfg.LogAttrs() {
		attrs[a.Key] = a.Value
	}
	assert.Equal(t, "postgres://***@***", attrs["db_url"].String())
	assert.Equal(t, int64(2), attrs["api_keys_count"].Int64())
	for _, v := range attrs {
		assert.NotContains(t, v.String(), "secret")
	}
}

func TestParseAPIKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"single", "key1", []string{"key1"}},
		{"multiple", "key1,key2,key3", []string{"key1", "key2", "key3"}},
		{"spaces", " key1 , key2 ", []string{"key1", "key2"}},
		{"blank entries", "key1,,key2,", []string{"key1", "key2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAPIKeys(tt.input))
		})
	}
}
