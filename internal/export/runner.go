package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/minio/crc64nvme"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/blob"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

const (
	defaultMarkParallelism = 8
	uploadMaxTries         = 3
)

// Result summarizes one export run. A run over an empty eligible set is a
// success with Count=0 and no file written.
type Result struct {
	Count    int
	FileKey  string
	ByteSize int
	Checksum uint64
	Duration time.Duration
}

// Runner scans for approved, unexported submissions, emits one fixed-width
// batch file, and marks the batch exported. Marking only happens after the
// upload durably succeeded, so a failed run leaves the whole batch eligible
// for the next run.
type Runner struct {
	store       store.SubmissionStore
	blob        blob.Store
	parallelism int
	now         func() time.Time
}

func NewRunner(st store.SubmissionStore, bs blob.Store, parallelism int) *Runner {
	if parallelism <= 0 {
		parallelism = defaultMarkParallelism
	}
	return &Runner{
		store:       st,
		blob:        bs,
		parallelism: parallelism,
		now:         time.Now,
	}
}

// Run executes one export cycle.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()
	runDate := started.UTC()
	logger := zerolog.Ctx(ctx)

	submissions, err := r.store.ListUnexported(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for exportable submissions: %w", err)
	}

	if len(submissions) == 0 {
		logger.Info().Msg("No submissions eligible for export")
		return &Result{Count: 0, Duration: r.now().Sub(started)}, nil
	}

	records := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		records = append(records, EncodeRecord(sub, runDate))
	}
	body := []byte(strings.Join(records, "\n"))
	key := FileKey(runDate)

	// Retry the upload in place; nothing has been marked yet so retrying is
	// free of side effects.
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, r.blob.Put(ctx, key, body)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(uploadMaxTries))
	if err != nil {
		return nil, fmt.Errorf("failed to upload export file %s: %w", key, err)
	}

	checksum := crc64nvme.Checksum(body)
	logger.Info().
		Str("file_key", key).
		Int("records", len(records)).
		Int("bytes", len(body)).
		Uint64("crc64nvme", checksum).
		Msg("Export file uploaded")

	// The per-record flips are independent conditional updates; bounded
	// parallelism keeps large batches quick without flooding the store.
	exportedAt := r.now().UTC()
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.parallelism)

	for _, sub := range submissions {
		group.Go(func() error {
			err := r.store.MarkExported(groupCtx, sub.ID, exportedAt)
			if errors.Is(err, store.ErrNotExportable) {
				// Another run already claimed it; the file may contain a
				// duplicate record, which downstream dedup handles.
				logger.Warn().Str("submission_id", sub.ID).Msg("Submission already marked exported")
				return nil
			}
			return err
		})
	}

	if err := group.Wait(); err != nil {
		// The file is uploaded; unmarked records will be re-exported on the
		// next run and deduplicated downstream.
		return nil, fmt.Errorf("failed to mark submissions exported (file %s already uploaded): %w", key, err)
	}

	result := &Result{
		Count:    len(records),
		FileKey:  key,
		ByteSize: len(body),
		Checksum: checksum,
		Duration: r.now().Sub(started),
	}

	logger.Info().
		Int("records", result.Count).
		Str("file_key", result.FileKey).
		Dur("duration", result.Duration).
		Msg("Export run complete")

	return result, nil
}
