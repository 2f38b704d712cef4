// Package handoff validates enrollment requests and builds the encrypted
// redirect that hands a submission to the external verification service.
package handoff

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/customer"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/edata"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/secrets"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/store"
)

const (
	// EncryptedDataParam is the query parameter carrying the envelope on the
	// redirect URL. The name is fixed by the external service.
	EncryptedDataParam = "eData"

	// secretTimeout bounds the secret store read so a handoff request can
	// never hang on an external dependency.
	secretTimeout = 5 * time.Second
)

var (
	emailPattern       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	postcodeCharFilter = regexp.MustCompile(`[^A-Za-z0-9 ]`)
)

// Request is an inbound enrollment request before validation.
type Request struct {
	CustomerNumber string
	Postcode       string
	Email          string
	Organization   string
	FormVariant    string
}

// Result is the successful outcome of a handoff build.
type Result struct {
	SubmissionID  string
	RedirectURL   string
	EncryptedData string
	FormVariant   models.FormVariant
	Organization  models.Organization
}

// Builder creates submissions and their encrypted redirects. Dependencies
// are injected so the state machine can be exercised without any live
// network collaborator.
type Builder struct {
	store       store.SubmissionStore
	secrets     secrets.Provider
	customers   customer.Validator
	variants    *VariantTable
	callbackURL string
	now         func() time.Time
}

// NewBuilder wires a Builder. callbackURL is the address the external
// service posts verification results back to.
func NewBuilder(st store.SubmissionStore, sp secrets.Provider, cv customer.Validator, variants *VariantTable, callbackURL string) *Builder {
	return &Builder{
		store:       st,
		secrets:     sp,
		customers:   cv,
		variants:    variants,
		callbackURL: callbackURL,
		now:         time.Now,
	}
}

// Build validates the request, persists a pending submission, and returns
// the redirect target with the encrypted payload attached. On any error no
// redirect is produced; a persisted pending submission that never reaches
// the external service is harmless and simply never finalizes.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	customerNumber, err := models.NormalizeCustomerNumber(req.CustomerNumber)
	if err != nil {
		return nil, err
	}

	org, err := models.OrganizationForCustomerNumber(customerNumber)
	if err != nil {
		return nil, err
	}

	if req.Organization != "" && req.Organization != string(org) {
		return nil, &models.ValidationError{Msg: "organization mismatch"}
	}

	postcode, err := normalizePostcode(req.Postcode)
	if err != nil {
		return nil, err
	}

	if !emailPattern.MatchString(req.Email) {
		return nil, &models.ValidationError{Msg: "invalid email"}
	}

	variant, ok := models.ParseFormVariant(req.FormVariant)
	if !ok {
		return nil, &models.ValidationError{Msg: fmt.Sprintf("unknown form variant %q", req.FormVariant)}
	}

	known, err := b.customers.Validate(ctx, customerNumber, postcode)
	if err != nil {
		return nil, fmt.Errorf("customer validation failed: %w", err)
	}
	if !known {
		return nil, &models.ValidationError{Msg: "customer not found"}
	}

	variantCfg, err := b.variants.Lookup(org, variant)
	if err != nil {
		return nil, err
	}

	now := b.now().UTC()
	sub := &models.Submission{
		ID:             uuid.New().String(),
		CustomerNumber: customerNumber,
		Postcode:       postcode,
		Email:          req.Email,
		FormVariant:    variant,
		Organization:   org,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := b.store.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	secretCtx, cancel := context.WithTimeout(ctx, secretTimeout)
	defer cancel()

	secret, err := b.secrets.Get(secretCtx, string(org)+"/shared-secret")
	if err != nil {
		return nil, fmt.Errorf("failed to load shared secret for %s: %w", org, err)
	}

	payload := buildPayload(sub, b.callbackURL, variantCfg)
	envelope, err := edata.Encrypt([]byte(payload), []byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt handoff payload: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("submission_id", sub.ID).
		Str("organization", string(org)).
		Str("form_variant", string(variant)).
		Str("secret_fingerprint", secrets.Fingerprint(secret)).
		Msg("Handoff built")

	return &Result{
		SubmissionID:  sub.ID,
		RedirectURL:   variantCfg.BaseURL + "?" + EncryptedDataParam + "=" + url.QueryEscape(envelope),
		EncryptedData: envelope,
		FormVariant:   variant,
		Organization:  org,
	}, nil
}

// buildPayload assembles the flat key=value plaintext the external form
// expects. The submission ID travels as "reference" and is echoed back in
// the verification callback as the correlation token.
func buildPayload(sub *models.Submission, callbackURL string, cfg VariantConfig) string {
	values := url.Values{}
	values.Set("reference", sub.ID)
	values.Set("customerNumber", sub.CustomerNumber)
	values.Set("postcode", sub.Postcode)
	values.Set("email", sub.Email)
	values.Set("callbackUrl", callbackURL)
	values.Set("hideBackButton", strconv.FormatBool(cfg.HideBackButton))
	values.Set("showHeader", strconv.FormatBool(cfg.ShowHeader))
	values.Set("theme", cfg.Theme)
	return values.Encode()
}

// normalizePostcode strips the postcode to alphanumerics and spaces,
// truncates to 10 characters, and requires at least 5 significant
// characters.
func normalizePostcode(raw string) (string, error) {
	cleaned := postcodeCharFilter.ReplaceAllString(raw, "")
	if len(cleaned) > 10 {
		cleaned = cleaned[:10]
	}
	if len(strings.ReplaceAll(cleaned, " ", "")) < 5 {
		return "", &models.ValidationError{Msg: "invalid postcode"}
	}
	return cleaned, nil
}
