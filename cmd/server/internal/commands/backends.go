package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/blob"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/customer"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/secrets"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
	awsstore "github.com/DianaSill/Direct-Debit-Processing-System/internal/store/aws"
	postgresstore "github.com/DianaSill/Direct-Debit-Processing-System/internal/store/postgres"
)

// BackendFlags selects the pluggable backends shared by all commands: the
// submission store, the secret provider and the export file destination.
type BackendFlags struct {
	StoreType string             `help:"submission store backend (memory, postgres or dynamodb)" default:"memory" env:"DDPS_STORE_TYPE" enum:"memory,postgres,dynamodb"`
	Postgres  PostgresStoreFlags `embed:"" prefix:"postgres-"`
	DynamoDB  DynamoDBStoreFlags `embed:"" prefix:"dynamodb-"`

	SecretsBackend string `help:"shared secret backend (env or ssm)" default:"env" env:"DDPS_SECRETS_BACKEND" enum:"env,ssm"`
	SecretsPrefix  string `help:"environment variable prefix for env secrets" default:"DDPS_SECRET_" env:"DDPS_SECRETS_PREFIX"`
	SSMPathPrefix  string `help:"SSM parameter path prefix for ssm secrets" default:"/ddps" env:"DDPS_SSM_PATH_PREFIX"`

	BlobType  string `help:"export file destination (file or s3)" default:"file" env:"DDPS_BLOB_TYPE" enum:"file,s3"`
	ExportDir string `help:"local directory for export files" default:"exports" env:"DDPS_EXPORT_DIR"`
	S3Bucket  string `help:"S3 bucket for export files" env:"DDPS_S3_BUCKET"`
	S3Prefix  string `help:"S3 key prefix for export files" default:"exports" env:"DDPS_S3_PREFIX"`

	AWSRegion   string `help:"AWS region" default:"" env:"AWS_REGION"`
	AWSEndpoint string `help:"AWS endpoint override for local development (LocalStack)" default:"" env:"DDPS_AWS_ENDPOINT"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"DDPS_POSTGRES_AUTO_MIGRATE"`
}

type DynamoDBStoreFlags struct {
	Table string `help:"DynamoDB table for submissions" default:"ddps-submissions" env:"DDPS_DYNAMODB_TABLE"`
}

// buildStore constructs the configured submission store. The returned cleanup
// releases any held connections and is safe to call once.
func (b *BackendFlags) buildStore(ctx context.Context) (store.SubmissionStore, func(), error) {
	switch b.StoreType {
	case "postgres":
		if b.Postgres.ConnString == "" {
			return nil, nil, errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}

		pgStore, err := postgresstore.NewSubmissionStore(ctx, &postgresstore.Config{
			Pool: postgresstore.PoolConfig{
				ConnString:      b.Postgres.ConnString,
				MaxConns:        b.Postgres.MaxConns,
				MinConns:        b.Postgres.MinConns,
				MaxConnLifetime: b.Postgres.MaxConnLifetime,
				MaxConnIdleTime: b.Postgres.MaxConnIdleTime,
			},
			AutoMigrate: b.Postgres.AutoMigrate,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgres store: %w", err)
		}

		log.Info().Msg("Using PostgreSQL submission store")
		return pgStore, pgStore.Close, nil

	case "dynamodb":
		awsConfig, err := b.awsConfig(ctx)
		if err != nil {
			return nil, nil, err
		}

		client := newDynamoClient(awsConfig, b)

		log.Info().Str("table", b.DynamoDB.Table).Msg("Using DynamoDB submission store")
		return awsstore.NewSubmissionStore(client, b.DynamoDB.Table), func() {}, nil

	default:
		log.Info().Msg("Using in-memory submission store")
		return store.NewMemorySubmissionStore(), func() {}, nil
	}
}

// buildCustomerValidator returns the customer dataset check. Only the
// PostgreSQL backend carries the reference dataset; the other backends accept
// any customer and rely on the number format and prefix checks alone.
func (b *BackendFlags) buildCustomerValidator(st store.SubmissionStore) customer.Validator {
	if pgStore, ok := st.(*postgresstore.SubmissionStore); ok {
		return customer.NewPostgresValidator(pgStore.Pool())
	}

	log.Warn().Str("store", b.StoreType).Msg("No customer reference dataset for this store type, accepting all customers")
	return customer.AllowAll{}
}

func (b *BackendFlags) buildSecrets(ctx context.Context) (secrets.Provider, error) {
	switch b.SecretsBackend {
	case "ssm":
		awsConfig, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}

		client := ssm.NewFromConfig(awsConfig, func(o *ssm.Options) {
			if b.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(b.AWSEndpoint)
			}
		})

		log.Info().Str("path_prefix", b.SSMPathPrefix).Msg("Using SSM secret provider")
		return secrets.NewSSMProvider(client, b.SSMPathPrefix), nil

	default:
		log.Info().Str("prefix", b.SecretsPrefix).Msg("Using environment secret provider")
		return secrets.Env{Prefix: b.SecretsPrefix}, nil
	}
}

func (b *BackendFlags) buildBlob(ctx context.Context) (blob.Store, error) {
	switch b.BlobType {
	case "s3":
		if b.S3Bucket == "" {
			return nil, errors.New("S3 bucket is required (--s3-bucket or DDPS_S3_BUCKET)")
		}

		awsConfig, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}

		client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			if b.AWSEndpoint != "" {
				o.BaseEndpoint = aws.String(b.AWSEndpoint)
				o.UsePathStyle = true
			}
		})

		log.Info().Str("bucket", b.S3Bucket).Str("prefix", b.S3Prefix).Msg("Exporting to S3")
		return blob.NewS3Store(client, b.S3Bucket, b.S3Prefix), nil

	default:
		log.Info().Str("dir", b.ExportDir).Msg("Exporting to local directory")
		return blob.NewFileStore(b.ExportDir), nil
	}
}

// awsConfig loads the shared AWS configuration. An endpoint override switches
// to static test credentials for LocalStack.
func (b *BackendFlags) awsConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}

	if b.AWSRegion != "" {
		opts = append(opts, config.WithRegion(b.AWSRegion))
	}

	if b.AWSEndpoint != "" {
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
		)
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsConfig, nil
}

func newDynamoClient(awsConfig aws.Config, b *BackendFlags) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsConfig, func(o *dynamodb.Options) {
		if b.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(b.AWSEndpoint)
		}
	})
}
