package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/logger"
)

// NewRouter wires the public endpoints with request logging, panic recovery
// and a hard per-request timeout so no handler blocks indefinitely.
func NewRouter(h *Handler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(logger.NewHTTPRequests(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/api/enrollments", h.handleEnroll)
	r.Post("/api/verification/callback", h.handleCallback)
	r.Post("/api/exports/run", h.handleExportRun)
	r.Get("/healthz", h.handleHealthz)

	return r
}
