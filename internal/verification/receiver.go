// Package verification processes asynchronous results posted back by the
// external verification service and advances submissions to their terminal
// state.
package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

const (
	// referenceField carries the correlation token (the submission ID the
	// handoff injected into the outbound payload).
	referenceField = "reference"
	// verifiedField is the external service's result flag.
	verifiedField = "verified"
)

var (
	// ErrMissingReference indicates the callback had no correlation token;
	// nothing in the store is touched.
	ErrMissingReference = errors.New("missing correlation token")
	// ErrOutcomeConflict indicates a callback tried to re-transition an
	// already terminal submission to a different outcome.
	ErrOutcomeConflict = errors.New("conflicting verification outcome for finalized submission")
)

// Outcome is the acknowledged result of processing a callback.
type Outcome struct {
	SubmissionID string
	Status       models.SubmissionStatus
}

// Receiver applies verification callbacks to the submission store.
type Receiver struct {
	store store.SubmissionStore
	now   func() time.Time
}

func NewReceiver(st store.SubmissionStore) *Receiver {
	return &Receiver{store: st, now: time.Now}
}

// Receive parses a raw callback body and finalizes the referenced
// submission. Duplicate deliveries with the same outcome are no-ops that
// return the existing status; a different outcome for a terminal submission
// is rejected with ErrOutcomeConflict.
func (r *Receiver) Receive(ctx context.Context, rawPayload []byte) (*Outcome, error) {
	fields, err := parseCallback(rawPayload)
	if err != nil {
		return nil, err
	}

	reference, ok := fields[referenceField].(string)
	if !ok || reference == "" {
		return nil, ErrMissingReference
	}

	status := outcomeStatus(fields[verifiedField])
	now := r.now().UTC()

	err = r.store.SetOutcome(ctx, reference, status, rawPayload, now)
	switch {
	case err == nil:
		zerolog.Ctx(ctx).Info().
			Str("submission_id", reference).
			Str("status", string(status)).
			Msg("Verification outcome recorded")
		return &Outcome{SubmissionID: reference, Status: status}, nil

	case errors.Is(err, store.ErrNotPending):
		// At-least-once delivery makes duplicate callbacks normal. Re-read
		// to distinguish a repeat of the same outcome from a conflicting one.
		existing, getErr := r.store.Get(ctx, reference)
		if getErr != nil {
			return nil, fmt.Errorf("failed to re-read finalized submission: %w", getErr)
		}
		if existing.Status == status {
			zerolog.Ctx(ctx).Debug().
				Str("submission_id", reference).
				Str("status", string(status)).
				Msg("Duplicate verification callback ignored")
			return &Outcome{SubmissionID: reference, Status: existing.Status}, nil
		}
		return nil, fmt.Errorf("%w: recorded %s, callback says %s", ErrOutcomeConflict, existing.Status, status)

	default:
		return nil, err
	}
}

// parseCallback tries JSON first, then a flat key=value form body. The
// external service does not guarantee which encoding it uses, so both must
// be attempted in that order.
func parseCallback(raw []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err == nil {
		return fields, nil
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("%w: callback body is neither JSON nor form encoded", ErrMissingReference)
	}

	fields = make(map[string]any, len(values))
	for key := range values {
		fields[key] = values.Get(key)
	}
	return fields, nil
}

// outcomeStatus collapses the external result vocabulary to the two terminal
// states: a true-ish verified flag approves, anything else fails.
func outcomeStatus(verified any) models.SubmissionStatus {
	switch v := verified.(type) {
	case bool:
		if v {
			return models.StatusApproved
		}
	case string:
		if strings.EqualFold(v, "true") {
			return models.StatusApproved
		}
	}
	return models.StatusFailed
}
