package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/edata"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/verification"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError emits the JSON error envelope. The short message goes to the
// client; the underlying error is logged, never echoed.
func writeError(w http.ResponseWriter, ctx context.Context, status int, msg string, err error) {
	event := zerolog.Ctx(ctx).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(ctx).Error()
	}
	event.Err(err).Int("status", status).Msg(msg)

	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors to the HTTP error taxonomy:
// validation 400, unknown submission 404, terminal-state conflict 409,
// everything else (crypto, dependency failures) 500.
func writeDomainError(w http.ResponseWriter, ctx context.Context, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, ctx, http.StatusBadRequest, validationErr.Msg, err)
	case errors.Is(err, verification.ErrMissingReference):
		writeError(w, ctx, http.StatusBadRequest, "missing correlation token", err)
	case errors.Is(err, store.ErrSubmissionNotFound):
		writeError(w, ctx, http.StatusNotFound, "unknown submission", err)
	case errors.Is(err, verification.ErrOutcomeConflict):
		writeError(w, ctx, http.StatusConflict, "submission already finalized with a different outcome", err)
	case errors.Is(err, edata.ErrEmptySecret):
		writeError(w, ctx, http.StatusInternalServerError, "encryption failure", err)
	default:
		writeError(w, ctx, http.StatusInternalServerError, "internal error", err)
	}
}
