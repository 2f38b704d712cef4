package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

func newPendingSubmission(t *testing.T, st store.SubmissionStore) *models.Submission {
	t.Helper()

	now := time.Now().UTC()
	sub := &models.Submission{
		ID:             uuid.New().String(),
		CustomerNumber: "10001234567",
		Postcode:       "AB1 2CD",
		Email:          "customer@example.com",
		FormVariant:    models.FormVariantAdvisor,
		Organization:   models.OrganizationCouncilA,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, st.Create(context.Background(), sub))
	return sub
}

func TestReceiveJSONApproved(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)
	ctx := context.Background()

	sub := newPendingSubmission(t, st)
	payload := []byte(`{"reference":"` + sub.ID + `","verified":"true"}`)

	outcome, err := r.Receive(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, sub.ID, outcome.SubmissionID)
	require.Equal(t, models.StatusApproved, outcome.Status)

	stored, err := st.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, stored.Status)
	require.Equal(t, payload, stored.VerificationPayload)
}

func TestReceiveJSONBooleanVerified(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)

	sub := newPendingSubmission(t, st)

	outcome, err := r.Receive(context.Background(), []byte(`{"reference":"`+sub.ID+`","verified":true}`))
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, outcome.Status)
}

func TestReceiveFormEncoded(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)

	sub := newPendingSubmission(t, st)

	outcome, err := r.Receive(context.Background(), []byte("reference="+sub.ID+"&verified=TRUE"))
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, outcome.Status)
}

func TestReceiveFailedOutcome(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)

	tests := []struct {
		name    string
		payload func(id string) []byte
	}{
		{name: "verified false string", payload: func(id string) []byte {
			return []byte(`{"reference":"` + id + `","verified":"false"}`)
		}},
		{name: "verified false bool", payload: func(id string) []byte {
			return []byte(`{"reference":"` + id + `","verified":false}`)
		}},
		{name: "verified missing", payload: func(id string) []byte {
			return []byte(`{"reference":"` + id + `"}`)
		}},
		{name: "verified junk", payload: func(id string) []byte {
			return []byte(`{"reference":"` + id + `","verified":"maybe"}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newPendingSubmission(t, st)

			outcome, err := r.Receive(context.Background(), tt.payload(sub.ID))
			require.NoError(t, err)
			require.Equal(t, models.StatusFailed, outcome.Status)
		})
	}
}

func TestReceiveMissingReference(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "json without reference", payload: []byte(`{"verified":"true"}`)},
		{name: "empty reference", payload: []byte(`{"reference":"","verified":"true"}`)},
		{name: "garbage body", payload: []byte("\x00\x01not parseable at all")},
		{name: "empty body", payload: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Receive(ctx, tt.payload)
			require.ErrorIs(t, err, ErrMissingReference)
		})
	}
}

func TestReceiveUnknownSubmission(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)

	_, err := r.Receive(context.Background(), []byte(`{"reference":"`+uuid.New().String()+`","verified":"true"}`))
	require.ErrorIs(t, err, store.ErrSubmissionNotFound)
}

func TestReceiveDuplicateSameOutcome(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)
	ctx := context.Background()

	sub := newPendingSubmission(t, st)
	payload := []byte(`{"reference":"` + sub.ID + `","verified":"true"}`)

	first, err := r.Receive(ctx, payload)
	require.NoError(t, err)

	// Redelivery of the same outcome acknowledges without another write.
	second, err := r.Receive(ctx, payload)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)

	stored, err := st.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, stored.Status)
}

func TestReceiveConflictingOutcome(t *testing.T) {
	st := store.NewMemorySubmissionStore()
	r := NewReceiver(st)
	ctx := context.Background()

	sub := newPendingSubmission(t, st)

	_, err := r.Receive(ctx, []byte(`{"reference":"`+sub.ID+`","verified":"true"}`))
	require.NoError(t, err)

	_, err = r.Receive(ctx, []byte(`{"reference":"`+sub.ID+`","verified":"false"}`))
	require.ErrorIs(t, err, ErrOutcomeConflict)

	// The recorded outcome is untouched.
	stored, err := st.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, stored.Status)
}
