// Package bootstrap creates the AWS resources the DynamoDB store and the S3
// export destination need, for local development against LocalStack.
package bootstrap

import (
	"context"
	"fmt"
)

// Bootstrap creates all required infrastructure (DynamoDB table + S3 bucket)
// If CleanResources is true, deletes the existing table first to ensure clean state
// If CleanResources is false, creates resources only if they don't exist (preserves data)
func Bootstrap(ctx context.Context, cfg Config) (*Resources, error) {
	if cfg.DynamoClient == nil {
		return nil, fmt.Errorf("DynamoClient is required")
	}
	if cfg.S3Client == nil {
		return nil, fmt.Errorf("S3Client is required")
	}
	if cfg.SubmissionsTable == "" {
		return nil, fmt.Errorf("submissions table name is required")
	}
	if cfg.ExportBucket == "" {
		return nil, fmt.Errorf("export bucket name is required")
	}

	if err := createSubmissionsTable(ctx, cfg.DynamoClient, cfg.SubmissionsTable, cfg.CleanResources); err != nil {
		return nil, fmt.Errorf("failed to create submissions table: %w", err)
	}

	if err := createExportBucket(ctx, cfg.S3Client, cfg.ExportBucket); err != nil {
		return nil, fmt.Errorf("failed to create export bucket: %w", err)
	}

	return &Resources{
		SubmissionsTable: cfg.SubmissionsTable,
		ExportBucket:     cfg.ExportBucket,
	}, nil
}
