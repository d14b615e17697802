package middleware

import (
	"log/slog"
	"net/http"
)

// AuthConfig holds the accepted API keys. With no keys, auth is disabled.
type AuthConfig struct {
	apiKeys map[string]struct{}
	enabled bool
}

// NewAuthConfigWithKeys creates an AuthConfig. Empty keys are ignored.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	keys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return AuthConfig{enabled: false}
	}
	return AuthConfig{apiKeys: keys, enabled: true}
}

// Enabled returns true if authentication is enabled.
func (c AuthConfig) Enabled() bool { return c.enabled }

func (c AuthConfig) check(r *http.Request) error {
	key := r.Header.Get("X-API-KEY")
	if key == "" {
		return NewAuthenticationError("X-API-KEY header is required")
	}
	if _, ok := c.apiKeys[key]; !ok {
		return NewAuthenticationError("invalid API key")
	}
	return nil
}

// APIKey requires a valid X-API-KEY header on every request.
func APIKey(config AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.enabled {
				if err := config.check(r); err != nil {
					WriteError(w, r, err, logger)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtect requires a valid X-API-KEY header on mutating methods only.
// GET, HEAD and OPTIONS pass through.
func WriteProtect(config AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if config.enabled {
				if err := config.check(r); err != nil {
					WriteError(w, r, err, logger)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtectAuth builds WriteProtect from a list of keys.
func WriteProtectAuth(apiKeys []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(apiKeys), logger)
}
