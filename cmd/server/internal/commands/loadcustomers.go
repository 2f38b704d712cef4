package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/customer"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/logger"
	postgresstore "github.com/DianaSill/Direct-Debit-Processing-System/internal/store/postgres"
)

// LoadCustomersCmd replaces the customer reference dataset with the contents
// of a CSV extract. Only the PostgreSQL backend carries the dataset.
type LoadCustomersCmd struct {
	File string `arg:"" help:"path to the customer CSV extract" type:"existingfile"`

	Backends BackendFlags `embed:""`
}

func (c *LoadCustomersCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	if c.Backends.StoreType != "postgres" {
		return errors.New("load-customers requires the postgres store (--store-type=postgres)")
	}

	submissionStore, closeStore, err := c.Backends.buildStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	pgStore := submissionStore.(*postgresstore.SubmissionStore)

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open customer CSV: %w", err)
	}
	defer f.Close()

	records, err := customer.ParseCSV(f)
	if err != nil {
		return err
	}

	validator := customer.NewPostgresValidator(pgStore.Pool())
	if err := validator.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("failed to load customer dataset: %w", err)
	}

	log.Info().
		Int("records", len(records)).
		Str("file", c.File).
		Msg("Customer dataset loaded")

	return nil
}
