// Package secrets retrieves the per-organization shared secrets used to
// encrypt handoff payloads. Production reads from AWS SSM Parameter Store;
// development and tests use environment variables or a static map.
package secrets

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrSecretNotFound indicates the named secret is not configured.
var ErrSecretNotFound = errors.New("secret not found")

// Provider retrieves a secret by name, e.g. "councilA/shared-secret".
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// Static is a fixed name-to-secret map, used in tests.
type Static map[string]string

func (s Static) Get(_ context.Context, name string) (string, error) {
	secret, ok := s[name]
	if !ok || secret == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return secret, nil
}

// Env resolves secrets from environment variables. A name like
// "councilA/shared-secret" becomes <prefix>COUNCILA_SHARED_SECRET.
type Env struct {
	Prefix string
}

func (e Env) Get(_ context.Context, name string) (string, error) {
	key := e.Prefix + envKey(name)
	secret := os.Getenv(key)
	if secret == "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrSecretNotFound, name, key)
	}
	return secret, nil
}

func envKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Fingerprint returns a base58-encoded SHA-256 digest of a secret, safe to
// log for correlating which secret version was in use.
func Fingerprint(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return base58.Encode(hash[:])
}
