package middleware

import (
	"net/http"
	"time"

	"github.com/personagen/personagen/internal/apilog"
	"github.com/personagen/personagen/internal/auth"
)

// LogPublisher accepts request log events without blocking.
type LogPublisher interface {
	PublishAsync(event apilog.Event)
}

// RequestLog returns middleware that records one log event per request,
// fire-and-forget. Applied inside the auth group, so events carry the
// caller's user ID and feed the /stats aggregate.
func RequestLog(pub LogPublisher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			pub.PublishAsync(apilog.Event{
				Endpoint:  r.URL.Path,
				Method:    r.Method,
				Status:    wrapped.status,
				UserID:    auth.UserIDFromContext(r.Context()),
				RequestID: GetRequestID(r.Context()),
				At:        time.Now().UnixMilli(),
			})
		})
	}
}
