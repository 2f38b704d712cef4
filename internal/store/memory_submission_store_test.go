package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

func newSubmission(id string) *models.Submission {
	now := time.Now().UTC()
	return &models.Submission{
		ID:             id,
		CustomerNumber: "10001234567",
		Postcode:       "AB1 2CD",
		Email:          "a@b.com",
		FormVariant:    models.FormVariantAdvisor,
		Organization:   models.OrganizationCouncilA,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissionStore()

	sub := newSubmission("sub-1")
	require.NoError(t, s.Create(ctx, sub))

	got, err := s.Get(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, sub.CustomerNumber, got.CustomerNumber)
	require.Equal(t, models.StatusPending, got.Status)
	require.False(t, got.Exported)

	// The store must hand out copies, not aliases.
	got.Status = models.StatusApproved
	again, err := s.Get(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, again.Status)

	require.ErrorIs(t, s.Create(ctx, sub), ErrDuplicateSubmission)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestMemoryStoreSetOutcomeIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissionStore()
	require.NoError(t, s.Create(ctx, newSubmission("sub-1")))

	now := time.Now().UTC()
	require.NoError(t, s.SetOutcome(ctx, "sub-1", models.StatusApproved, []byte(`{"verified":"True"}`), now))

	got, err := s.Get(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, got.Status)
	require.Equal(t, []byte(`{"verified":"True"}`), got.VerificationPayload)
	require.Equal(t, now, got.UpdatedAt)

	// A second write hits the terminal guard regardless of outcome.
	err = s.SetOutcome(ctx, "sub-1", models.StatusFailed, nil, now)
	require.ErrorIs(t, err, ErrNotPending)
	err = s.SetOutcome(ctx, "sub-1", models.StatusApproved, nil, now)
	require.ErrorIs(t, err, ErrNotPending)

	got, err = s.Get(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, got.Status)

	err = s.SetOutcome(ctx, "missing", models.StatusApproved, nil, now)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestMemoryStoreExportSelection(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissionStore()
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, newSubmission("pending")))

	require.NoError(t, s.Create(ctx, newSubmission("approved")))
	require.NoError(t, s.SetOutcome(ctx, "approved", models.StatusApproved, nil, now))

	require.NoError(t, s.Create(ctx, newSubmission("failed")))
	require.NoError(t, s.SetOutcome(ctx, "failed", models.StatusFailed, nil, now))

	require.NoError(t, s.Create(ctx, newSubmission("exported")))
	require.NoError(t, s.SetOutcome(ctx, "exported", models.StatusApproved, nil, now))
	require.NoError(t, s.MarkExported(ctx, "exported", now))

	unexported, err := s.ListUnexported(ctx)
	require.NoError(t, err)
	require.Len(t, unexported, 1)
	require.Equal(t, "approved", unexported[0].ID)
}

func TestMemoryStoreMarkExportedIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySubmissionStore()
	now := time.Now().UTC()

	require.NoError(t, s.Create(ctx, newSubmission("sub-1")))

	// Not approved yet.
	require.ErrorIs(t, s.MarkExported(ctx, "sub-1", now), ErrNotExportable)

	require.NoError(t, s.SetOutcome(ctx, "sub-1", models.StatusApproved, nil, now))
	require.NoError(t, s.MarkExported(ctx, "sub-1", now))

	got, err := s.Get(ctx, "sub-1")
	require.NoError(t, err)
	require.True(t, got.Exported)
	require.NotNil(t, got.ExportedAt)

	// Re-export attempts are rejected by the conditional guard.
	require.ErrorIs(t, s.MarkExported(ctx, "sub-1", now), ErrNotExportable)

	require.ErrorIs(t, s.MarkExported(ctx, "missing", now), ErrSubmissionNotFound)
}
