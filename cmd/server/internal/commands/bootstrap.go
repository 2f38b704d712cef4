package commands

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/bootstrap"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/logger"
)

// BootstrapCmd creates the DynamoDB table and S3 bucket the AWS backends
// expect, for development against LocalStack.
type BootstrapCmd struct {
	Clean bool `help:"delete and recreate the submissions table" default:"false"`

	Backends BackendFlags `embed:""`
}

func (c *BootstrapCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	if c.Backends.S3Bucket == "" {
		return errors.New("S3 bucket is required (--s3-bucket or DDPS_S3_BUCKET)")
	}

	awsConfig, err := c.Backends.awsConfig(ctx)
	if err != nil {
		return err
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if c.Backends.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(c.Backends.AWSEndpoint)
			o.UsePathStyle = true
		}
	})

	resources, err := bootstrap.Bootstrap(ctx, bootstrap.Config{
		DynamoClient:     newDynamoClient(awsConfig, &c.Backends),
		S3Client:         s3Client,
		SubmissionsTable: c.Backends.DynamoDB.Table,
		ExportBucket:     c.Backends.S3Bucket,
		CleanResources:   c.Clean,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("table", resources.SubmissionsTable).
		Str("bucket", resources.ExportBucket).
		Msg("Infrastructure ready")

	return nil
}
