package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/personagen/personagen/internal/auth"
	"github.com/personagen/personagen/internal/model"
	"github.com/personagen/personagen/internal/repository"
)

// ActiveKeyLookup resolves an API key token to its active record.
type ActiveKeyLookup interface {
	GetActiveAPIKey(ctx context.Context, key string) (*model.APIKey, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Keys   ActiveKeyLookup
}

// Auth returns a middleware that authenticates API requests.
//
// It reads the X-API-Key header and looks the token up directly in the
// store: a revoked key stops working on the very next request. On success
// the caller's Identity is injected into the request context; the gate
// itself never hands user data to handlers directly.
//
// A missing header and an unknown/revoked key produce distinct messages;
// both are 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(auth.HeaderAPIKey)
			if key == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, "API Key missing")
				return
			}

			// Garbage-shaped tokens skip the store lookup.
			if !auth.ValidKeyFormat(key) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_format"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, "Invalid API Key")
				return
			}

			record, err := cfg.Keys.GetActiveAPIKey(r.Context(), key)
			if err != nil {
				if !errors.Is(err, repository.ErrAPIKeyNotFound) {
					cfg.Logger.Error("database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				} else {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", "invalid_key"),
						slog.String("ip", r.RemoteAddr),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				writeAuthError(w, "Invalid API Key")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), &model.Identity{
				UserID: record.UserID,
				Key:    record.Key,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
