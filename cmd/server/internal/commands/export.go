package commands

import (
	"context"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/export"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/logger"
)

// ExportCmd runs one export cycle from the command line, for scheduled jobs
// that prefer a process exit code over an HTTP call.
type ExportCmd struct {
	ExportParallelism int `help:"number of concurrent export marking workers" default:"8" env:"DDPS_EXPORT_PARALLELISM"`

	Backends BackendFlags `embed:""`
}

func (c *ExportCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	submissionStore, closeStore, err := c.Backends.buildStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	blobStore, err := c.Backends.buildBlob(ctx)
	if err != nil {
		return err
	}

	runner := export.NewRunner(submissionStore, blobStore, c.ExportParallelism)

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("records", result.Count).
		Str("file", result.FileKey).
		Int("bytes", result.ByteSize).
		Dur("duration", result.Duration).
		Msg("Export complete")

	return nil
}
