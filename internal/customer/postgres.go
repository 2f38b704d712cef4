package customer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresValidator validates customers against the customers table.
type PostgresValidator struct {
	pool *pgxpool.Pool
}

func NewPostgresValidator(pool *pgxpool.Pool) *PostgresValidator {
	return &PostgresValidator{pool: pool}
}

func (v *PostgresValidator) Validate(ctx context.Context, customerNumber, postcode string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM customers
			WHERE customer_number = $1
			  AND UPPER(REPLACE(postcode, ' ', '')) = UPPER(REPLACE($2, ' ', ''))
		)
	`

	var exists bool
	if err := v.pool.QueryRow(ctx, query, customerNumber, postcode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to validate customer: %w", err)
	}
	return exists, nil
}

// ReplaceAll swaps the full customer reference data set in one transaction.
// The extract is a complete snapshot, so ingestion is truncate-and-load.
func (v *PostgresValidator) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := v.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin customer load: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE customers`); err != nil {
		return fmt.Errorf("failed to truncate customers: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{rec.CustomerNumber, rec.Postcode})
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"customers"},
		[]string{"customer_number", "postcode"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit customer load: %w", err)
	}

	log.Info().Int64("rows", copied).Msg("Customer reference data replaced")
	return nil
}
