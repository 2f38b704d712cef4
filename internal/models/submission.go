package models

import (
	"time"
)

// SubmissionStatus is the lifecycle state of a direct debit enrollment
// submission. Transitions are monotonic: pending moves to approved or failed
// exactly once, and terminal states never change again.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusFailed   SubmissionStatus = "failed"
)

// Terminal reports whether the status is a final verification outcome.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusFailed
}

// FormVariant selects which external form a customer is handed off to.
type FormVariant string

const (
	FormVariantUser    FormVariant = "user"
	FormVariantAdvisor FormVariant = "advisor"
)

// ParseFormVariant maps a raw request value to a FormVariant. An empty value
// defaults to the advisor form, matching the behaviour of the hosted journey.
func ParseFormVariant(raw string) (FormVariant, bool) {
	switch raw {
	case "":
		return FormVariantAdvisor, true
	case string(FormVariantUser):
		return FormVariantUser, true
	case string(FormVariantAdvisor):
		return FormVariantAdvisor, true
	}
	return "", false
}

// Submission is one customer's direct debit enrollment attempt. It is the
// unit of work tracked by the submission store; the ID doubles as the
// correlation token echoed back by the external verification service.
type Submission struct {
	ID             string       `dynamodbav:"id" json:"id"`
	CustomerNumber string       `dynamodbav:"customer_number" json:"customerNumber"`
	Postcode       string       `dynamodbav:"postcode" json:"postcode"`
	Email          string       `dynamodbav:"email" json:"email"`
	FormVariant    FormVariant  `dynamodbav:"form_variant" json:"formVariant"`
	Organization   Organization `dynamodbav:"organization" json:"organization"`

	Status   SubmissionStatus `dynamodbav:"status" json:"status"`
	Exported bool             `dynamodbav:"exported" json:"exported"`

	// VerificationPayload is the external service's callback body, stored
	// verbatim for audit.
	VerificationPayload []byte `dynamodbav:"verification_payload,omitempty" json:"verificationPayload,omitempty"`

	CreatedAt  time.Time  `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `dynamodbav:"updated_at" json:"updatedAt"`
	ExportedAt *time.Time `dynamodbav:"exported_at,omitempty" json:"exportedAt,omitempty"`
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (s *Submission) Clone() *Submission {
	out := *s
	if s.VerificationPayload != nil {
		out.VerificationPayload = append([]byte(nil), s.VerificationPayload...)
	}
	if s.ExportedAt != nil {
		t := *s.ExportedAt
		out.ExportedAt = &t
	}
	return &out
}
