package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMProvider loads secrets from AWS SSM Parameter Store. Parameters are
// stored as SecureString under <pathPrefix>/<name>.
type SSMProvider struct {
	client     *ssm.Client
	pathPrefix string
}

// NewSSMProvider creates a provider rooted at pathPrefix, e.g.
// "/direct-debit/prod".
func NewSSMProvider(client *ssm.Client, pathPrefix string) *SSMProvider {
	return &SSMProvider{
		client:     client,
		pathPrefix: strings.TrimSuffix(pathPrefix, "/"),
	}
}

func (p *SSMProvider) Get(ctx context.Context, name string) (string, error) {
	path := p.pathPrefix + "/" + strings.TrimPrefix(name, "/")

	result, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		return "", fmt.Errorf("failed to load secret from SSM: %w", err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("%w: %s (empty parameter)", ErrSecretNotFound, path)
	}

	return *result.Parameter.Value, nil
}
