package api

import (
	"bytes"
	"net/http"
)

// responseRecorder captures response status and body for idempotency caching.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// idempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key so a retried submission never registers a second report.
// Keys are scoped to the authenticated user.
func (h *Handler) idempotencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if r.Method != http.MethodPost || key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if userID, ok := r.Context().Value(userIDKey).(string); ok {
			key = userID + ":" + key
		}

		unlock := h.mw.Idempotent.Lock(key)
		defer unlock()

		if status, body, ok := h.mw.Idempotent.Check(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(status)
			w.Write(body)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)
		// Only successful creations are replayed; a 400 may be fixed and resent.
		if rec.statusCode == http.StatusCreated {
			h.mw.Idempotent.Store(key, rec.statusCode, rec.body.Bytes())
		}
	})
}
