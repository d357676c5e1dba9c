// Package api exposes the in-memory reporting service over HTTP so that
// non-Go consumers can drive the same scenarios as the BDD suite.
package api

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/back-sos/sos-bdd/internal/denuncia"
	"github.com/back-sos/sos-bdd/pkg/store"
	"github.com/back-sos/sos-bdd/pkg/twincore"
)

type ctxKey int

const userIDKey ctxKey = iota

// Handler holds all API handler state. The denuncia client is not safe for
// concurrent use, so every access goes through mu.
type Handler struct {
	mu      sync.Mutex
	client  *denuncia.Client
	mw      *twincore.Middleware
	tokens  *TokenIssuer
	created *prometheus.CounterVec
}

// NewHandler creates a new API handler around client.
func NewHandler(client *denuncia.Client, mw *twincore.Middleware, tokens *TokenIssuer) *Handler {
	return &Handler{
		client: client,
		mw:     mw,
		tokens: tokens,
		created: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_denuncias_created_total",
				Help: "Reports registered through the twin, by tipo.",
			},
			[]string{"tipo"},
		),
	}
}

// Collector returns the domain metrics for registration on the twin registry.
func (h *Handler) Collector() prometheus.Collector {
	return h.created
}

// Clock returns the simulated clock shared with the admin plane.
func (h *Handler) Clock() *store.Clock {
	return h.client.Clock()
}

// Routes mounts the reporting API routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.mw.FaultInjection)

			r.Post("/sessions", h.CreateSession)

			r.With(h.authMiddleware, h.idempotencyMiddleware).Post("/denuncias", h.CreateDenuncia)
			r.Get("/denuncias", h.ListDenuncias)
			r.Get("/denuncias/{id}", h.GetDenuncia)
			r.Get("/protocolos/{protocol}", h.GetDenunciaByProtocol)
		})
	})
}

// authMiddleware requires a valid bearer token and answers with the
// service's authentication-required result otherwise.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || token == auth || token == "" {
			writeResult(w, denuncia.AuthenticationRequired(denuncia.LoginRedirect))
			return
		}
		userID, err := h.tokens.Verify(token)
		if err != nil {
			writeResult(w, denuncia.AuthenticationRequired(denuncia.LoginRedirect))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// --- admin.StateStore ---

// Snapshot returns the client's state under the handler lock.
func (h *Handler) Snapshot() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client.Snapshot()
}

// LoadState replaces the client's reports under the handler lock.
func (h *Handler) LoadState(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client.LoadState(data)
}

// Reset clears the client under the handler lock.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.client.Reset()
}
