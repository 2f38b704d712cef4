// Package httpapi is the thin HTTP layer over the handoff builder, the
// verification receiver and the export runner. Handlers translate transport
// concerns and error taxonomy; business logic stays in the domain packages.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/export"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/handoff"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/telemetry"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/verification"
)

// maxBodyBytes bounds inbound request bodies; both the enrollment form and
// the verification callback are small.
const maxBodyBytes = 64 * 1024

// Handler serves the public API endpoints.
type Handler struct {
	handoff  *handoff.Builder
	receiver *verification.Receiver
	exporter *export.Runner
	metrics  *telemetry.Metrics
}

func NewHandler(hb *handoff.Builder, vr *verification.Receiver, er *export.Runner) *Handler {
	return &Handler{
		handoff:  hb,
		receiver: vr,
		exporter: er,
		metrics:  telemetry.GetMetrics(),
	}
}

type enrollmentRequest struct {
	CustomerNumber string `json:"customerNumber"`
	Postcode       string `json:"postcode"`
	Email          string `json:"email"`
	Organization   string `json:"organization"`
	FormVariant    string `json:"formVariant"`
}

// handleEnroll accepts an enrollment request as JSON, a form-encoded body,
// or query parameters, and returns the encrypted redirect.
func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req enrollmentRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, ctx, http.StatusBadRequest, "invalid request body", err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, ctx, http.StatusBadRequest, "invalid request body", err)
			return
		}
		req = enrollmentRequest{
			CustomerNumber: r.Form.Get("customerNumber"),
			Postcode:       r.Form.Get("postcode"),
			Email:          r.Form.Get("email"),
			Organization:   r.Form.Get("organization"),
			FormVariant:    r.Form.Get("formVariant"),
		}
	}

	result, err := h.handoff.Build(ctx, handoff.Request{
		CustomerNumber: req.CustomerNumber,
		Postcode:       req.Postcode,
		Email:          req.Email,
		Organization:   req.Organization,
		FormVariant:    req.FormVariant,
	})
	if err != nil {
		h.metrics.SubmissionsRejectedTotal.Add(ctx, 1)
		writeDomainError(w, ctx, err)
		return
	}

	h.metrics.SubmissionsCreatedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("organization", string(result.Organization))))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"submissionId":  result.SubmissionID,
		"redirectUrl":   result.RedirectURL,
		"encryptedData": result.EncryptedData,
		"formVariant":   result.FormVariant,
		"organization":  result.Organization,
	})
}

// handleCallback records an asynchronous verification result. The body is
// passed through raw; the receiver owns the JSON-then-form parsing.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, ctx, http.StatusBadRequest, "could not read request body", err)
		return
	}

	outcome, err := h.receiver.Receive(ctx, raw)
	if err != nil {
		writeDomainError(w, ctx, err)
		return
	}

	h.metrics.CallbacksTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", string(outcome.Status))))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"submissionId": outcome.SubmissionID,
		"status":       outcome.Status,
	})
}

// handleExportRun triggers one export cycle. The scheduler posts here with
// no payload.
func (h *Handler) handleExportRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.exporter.Run(ctx)
	if err != nil {
		h.metrics.ExportErrorsTotal.Add(ctx, 1)
		writeDomainError(w, ctx, err)
		return
	}

	h.metrics.ExportRunsTotal.Add(ctx, 1)
	h.metrics.ExportRecordsTotal.Add(ctx, int64(result.Count))
	h.metrics.ExportBytesTotal.Add(ctx, int64(result.ByteSize))
	h.metrics.ExportRunDuration.Record(ctx, float64(result.Duration.Milliseconds()))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"recordsExported": result.Count,
		"fileName":        result.FileKey,
		"fileSize":        result.ByteSize,
		"duration":        result.Duration.String(),
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
