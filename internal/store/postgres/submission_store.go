// Package postgres implements the submission store on PostgreSQL. Lifecycle
// transitions are enforced with conditional UPDATEs so concurrent callbacks
// and export runs cannot double-apply a transition.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

// SubmissionStore implements store.SubmissionStore using PostgreSQL as the
// backend.
type SubmissionStore struct {
	pool *pgxpool.Pool
	cfg  *Config
}

// NewSubmissionStore creates a new PostgreSQL-backed submission store.
// It establishes a connection pool, optionally runs migrations, and
// initializes the store.
func NewSubmissionStore(ctx context.Context, cfg *Config) (*SubmissionStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("max_conns", cfg.Pool.MaxConns).
		Msg("Connected to PostgreSQL")

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed")
	}

	return &SubmissionStore{
		pool: pool,
		cfg:  cfg,
	}, nil
}

// Pool exposes the underlying connection pool so sibling components, like the
// customer validator, can share it.
func (s *SubmissionStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Close releases the connection pool.
func (s *SubmissionStore) Close() {
	s.pool.Close()
}

// Create persists a new submission.
func (s *SubmissionStore) Create(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions (
			id, customer_number, postcode, email, form_variant, organization,
			status, exported, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := s.pool.Exec(ctx, query,
		sub.ID,
		sub.CustomerNumber,
		sub.Postcode,
		sub.Email,
		sub.FormVariant,
		sub.Organization,
		sub.Status,
		sub.Exported,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Info().
		Str("submission_id", sub.ID).
		Str("organization", string(sub.Organization)).
		Msg("Created submission")

	return nil
}

// Get returns the submission with the given ID or store.ErrSubmissionNotFound.
func (s *SubmissionStore) Get(ctx context.Context, id string) (*models.Submission, error) {
	query := `
		SELECT id, customer_number, postcode, email, form_variant, organization,
		       status, exported, verification_payload,
		       created_at, updated_at, exported_at
		FROM submissions
		WHERE id = $1
	`

	var sub models.Submission
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&sub.ID,
		&sub.CustomerNumber,
		&sub.Postcode,
		&sub.Email,
		&sub.FormVariant,
		&sub.Organization,
		&sub.Status,
		&sub.Exported,
		&sub.VerificationPayload,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&sub.ExportedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSubmissionNotFound
		}
		return nil, mapPostgresError(err)
	}

	return &sub, nil
}

// SetOutcome records the verification outcome, but only while the submission
// is still pending. The WHERE clause is the guard: zero rows affected means
// the row is missing or already terminal, and a follow-up read distinguishes
// the two.
func (s *SubmissionStore) SetOutcome(ctx context.Context, id string, status models.SubmissionStatus, payload []byte, now time.Time) error {
	query := `
		UPDATE submissions
		SET
			status = $1,
			verification_payload = $2,
			updated_at = $3
		WHERE id = $4
		  AND status = 'pending'
	`

	result, err := s.pool.Exec(ctx, query, status, payload, now, id)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return store.ErrNotPending
	}

	log.Info().
		Str("submission_id", id).
		Str("status", string(status)).
		Msg("Recorded verification outcome")

	return nil
}

// ListUnexported returns submissions with status=approved and exported=false,
// oldest first.
func (s *SubmissionStore) ListUnexported(ctx context.Context) ([]*models.Submission, error) {
	query := `
		SELECT id, customer_number, postcode, email, form_variant, organization,
		       status, exported, verification_payload,
		       created_at, updated_at, exported_at
		FROM submissions
		WHERE status = 'approved'
		  AND exported = FALSE
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var results []*models.Submission
	for rows.Next() {
		var sub models.Submission
		err := rows.Scan(
			&sub.ID,
			&sub.CustomerNumber,
			&sub.Postcode,
			&sub.Email,
			&sub.FormVariant,
			&sub.Organization,
			&sub.Status,
			&sub.Exported,
			&sub.VerificationPayload,
			&sub.CreatedAt,
			&sub.UpdatedAt,
			&sub.ExportedAt,
		)
		if err != nil {
			return nil, mapPostgresError(err)
		}
		results = append(results, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, mapPostgresError(err)
	}

	log.Debug().Int("count", len(results)).Msg("Listed unexported submissions")

	return results, nil
}

// MarkExported flips the exported flag, but only while the submission is
// approved and not yet exported.
func (s *SubmissionStore) MarkExported(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE submissions
		SET
			exported = TRUE,
			exported_at = $1,
			updated_at = $1
		WHERE id = $2
		  AND status = 'approved'
		  AND exported = FALSE
	`

	result, err := s.pool.Exec(ctx, query, at, id)
	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return store.ErrNotExportable
	}

	log.Debug().
		Str("submission_id", id).
		Msg("Marked submission exported")

	return nil
}
