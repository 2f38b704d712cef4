//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*SubmissionStore, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &Config{
		Pool:        PoolConfig{ConnString: connString},
		AutoMigrate: true,
	}

	st, err := NewSubmissionStore(ctx, cfg)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = container.Terminate(ctx)
	}

	return st, cleanup
}

func newTestSubmission(org models.Organization, number string) *models.Submission {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Submission{
		ID:             uuid.New().String(),
		CustomerNumber: number,
		Postcode:       "AB12 3CD",
		Email:          "customer@example.com",
		FormVariant:    models.FormVariantAdvisor,
		Organization:   org,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestIntegration_SubmissionLifecycle(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("create and get", func(t *testing.T) {
		sub := newTestSubmission(models.OrganizationCouncilA, "10001234567")
		require.NoError(t, st.Create(ctx, sub))

		got, err := st.Get(ctx, sub.ID)
		require.NoError(t, err)
		require.Equal(t, sub.ID, got.ID)
		require.Equal(t, models.StatusPending, got.Status)
		require.False(t, got.Exported)
	})

	t.Run("duplicate create", func(t *testing.T) {
		sub := newTestSubmission(models.OrganizationCouncilA, "10001234567")
		require.NoError(t, st.Create(ctx, sub))

		err := st.Create(ctx, sub)
		require.ErrorIs(t, err, store.ErrDuplicateSubmission)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := st.Get(ctx, uuid.New().String())
		require.ErrorIs(t, err, store.ErrSubmissionNotFound)
	})

	t.Run("set outcome", func(t *testing.T) {
		sub := newTestSubmission(models.OrganizationCouncilB, "20009876543")
		require.NoError(t, st.Create(ctx, sub))

		payload := []byte(`{"reference":"` + sub.ID + `","verified":"true"}`)
		require.NoError(t, st.SetOutcome(ctx, sub.ID, models.StatusApproved, payload, time.Now()))

		got, err := st.Get(ctx, sub.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, got.Status)
		require.Equal(t, payload, got.VerificationPayload)

		// Second outcome hits the pending guard
		err = st.SetOutcome(ctx, sub.ID, models.StatusFailed, nil, time.Now())
		require.ErrorIs(t, err, store.ErrNotPending)
	})

	t.Run("set outcome on missing submission", func(t *testing.T) {
		err := st.SetOutcome(ctx, uuid.New().String(), models.StatusApproved, nil, time.Now())
		require.ErrorIs(t, err, store.ErrSubmissionNotFound)
	})

	t.Run("export selection and marking", func(t *testing.T) {
		approved := newTestSubmission(models.OrganizationCouncilA, "10001111111")
		require.NoError(t, st.Create(ctx, approved))
		require.NoError(t, st.SetOutcome(ctx, approved.ID, models.StatusApproved, nil, time.Now()))

		failed := newTestSubmission(models.OrganizationCouncilA, "10002222222")
		require.NoError(t, st.Create(ctx, failed))
		require.NoError(t, st.SetOutcome(ctx, failed.ID, models.StatusFailed, nil, time.Now()))

		pending := newTestSubmission(models.OrganizationCouncilA, "10003333333")
		require.NoError(t, st.Create(ctx, pending))

		unexported, err := st.ListUnexported(ctx)
		require.NoError(t, err)

		ids := make(map[string]bool, len(unexported))
		for _, s := range unexported {
			ids[s.ID] = true
		}
		require.True(t, ids[approved.ID])
		require.False(t, ids[failed.ID])
		require.False(t, ids[pending.ID])

		// Mark and verify it drops out of the selection
		require.NoError(t, st.MarkExported(ctx, approved.ID, time.Now()))

		got, err := st.Get(ctx, approved.ID)
		require.NoError(t, err)
		require.True(t, got.Exported)
		require.NotNil(t, got.ExportedAt)

		// Second mark hits the exported guard
		err = st.MarkExported(ctx, approved.ID, time.Now())
		require.ErrorIs(t, err, store.ErrNotExportable)

		// Pending submissions are never exportable
		err = st.MarkExported(ctx, pending.ID, time.Now())
		require.ErrorIs(t, err, store.ErrNotExportable)
	})
}
