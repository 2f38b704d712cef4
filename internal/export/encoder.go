// Package export serializes approved submissions into the fixed-width batch
// file consumed by the downstream ERP system and marks them exported.
package export

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

// RecordLength is the exact column count of every emitted record. Total
// length is a hard invariant of the ERP ingest; individual fields may be
// truncated to preserve it.
const RecordLength = 606

const (
	recordTypeCode = "01"
	// transactionCode is the AUDDIS code for a new direct debit instruction.
	transactionCode = "0N"
	statusFlag      = "A"
	// bankDetailsPlaceholder fills the financial account span until a real
	// data source is integrated; the span and placeholder are part of the
	// ERP schema contract.
	bankDetailsPlaceholder = "00000000000000"
)

// fieldSpec is one column range of the output record. A nil value function
// emits filler spaces.
type fieldSpec struct {
	name       string
	width      int
	rightAlign bool
	value      func(sub *models.Submission, runDate time.Time) string
}

// recordLayout is the ERP record, in column order. Widths must sum to
// RecordLength; the layout test enforces it.
var recordLayout = []fieldSpec{
	{name: "record_type", width: 2, value: func(*models.Submission, time.Time) string {
		return recordTypeCode
	}},
	{name: "customer_number", width: 18, rightAlign: true, value: func(sub *models.Submission, _ time.Time) string {
		return sub.CustomerNumber
	}},
	{name: "filler_1", width: 20},
	{name: "bank_details", width: 14, value: func(*models.Submission, time.Time) string {
		return bankDetailsPlaceholder
	}},
	{name: "filler_2", width: 46},
	{name: "reference_email", width: 120, value: func(sub *models.Submission, runDate time.Time) string {
		return "DDREF_" + runDate.Format("20060102") + " ##" + sub.Email + "## "
	}},
	{name: "filler_3", width: 300},
	{name: "transaction_code", width: 2, value: func(*models.Submission, time.Time) string {
		return transactionCode
	}},
	{name: "filler_4", width: 50},
	{name: "status_flag", width: 1, value: func(*models.Submission, time.Time) string {
		return statusFlag
	}},
	{name: "filler_5", width: 33},
}

// EncodeRecord serializes one approved submission to a fixed-width record of
// exactly RecordLength columns.
func EncodeRecord(sub *models.Submission, runDate time.Time) string {
	var b strings.Builder
	b.Grow(RecordLength)

	for _, field := range recordLayout {
		raw := ""
		if field.value != nil {
			raw = field.value(sub, runDate)
		}
		b.WriteString(fit(raw, field, sub.ID))
	}

	return b.String()
}

// fit pads a value to its column span, truncating on overrun. Truncation is
// lossy but accepted; total record length is not negotiable.
func fit(raw string, field fieldSpec, submissionID string) string {
	if len(raw) > field.width {
		log.Warn().
			Str("submission_id", submissionID).
			Str("field", field.name).
			Int("width", field.width).
			Int("length", len(raw)).
			Msg("Export field overruns its span, truncating")
		raw = raw[:field.width]
	}

	pad := strings.Repeat(" ", field.width-len(raw))
	if field.rightAlign {
		return pad + raw
	}
	return raw + pad
}

// FileKey returns the deterministic export object key for a run date.
func FileKey(runDate time.Time) string {
	return "DD_EXPORT_" + runDate.Format("20060102") + ".txt"
}
