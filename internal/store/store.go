package store

import (
	"context"
	"errors"
	"time"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("submission already exists")
	// ErrNotPending indicates a conditional outcome write hit a submission
	// that is already in a terminal state.
	ErrNotPending = errors.New("submission already finalized")
	// ErrNotExportable indicates a conditional export write hit a submission
	// that is not approved or was already exported.
	ErrNotExportable = errors.New("submission not exportable")
	ErrThrottled     = errors.New("store request throttled")
)

// SubmissionStore is the single source of truth for the submission state
// machine. Implementations must make SetOutcome and MarkExported atomic
// conditional updates so concurrent callbacks and export runs cannot
// double-apply a transition.
type SubmissionStore interface {
	// Create persists a new submission. The submission must already be in
	// StatusPending with Exported=false.
	Create(ctx context.Context, sub *models.Submission) error

	// Get returns the submission with the given ID or ErrSubmissionNotFound.
	Get(ctx context.Context, id string) (*models.Submission, error)

	// SetOutcome records the verification outcome and raw callback payload,
	// but only while the submission is still pending. Returns ErrNotPending
	// if the submission is already terminal and ErrSubmissionNotFound if it
	// does not exist.
	SetOutcome(ctx context.Context, id string, status models.SubmissionStatus, payload []byte, now time.Time) error

	// ListUnexported returns a snapshot of submissions with
	// status=approved and exported=false, the export selection predicate.
	ListUnexported(ctx context.Context) ([]*models.Submission, error)

	// MarkExported flips the exported flag, but only while the submission is
	// approved and not yet exported. Returns ErrNotExportable otherwise.
	MarkExported(ctx context.Context, id string, at time.Time) error
}
