package middleware

import "net/http"

// MaxBodySize returns a middleware that limits request body size.
//
// Requests declaring a larger Content-Length are rejected up front; all
// other bodies are wrapped with MaxBytesReader so chunked uploads hit the
// same cap mid-read.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				writeBodyTooLarge(w)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// writeBodyTooLarge writes a 413 Request Entity Too Large response.
func writeBodyTooLarge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	_, _ = w.Write([]byte(`{"error":{"code":"PAYLOAD_TOO_LARGE","message":"Request body too large"}}`))
}
