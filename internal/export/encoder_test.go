package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

func testSubmission(email string) *models.Submission {
	return &models.Submission{
		ID:             "5a0f9b3e-0000-0000-0000-000000000000",
		CustomerNumber: "10001234567",
		Postcode:       "AB1 2CD",
		Email:          email,
		FormVariant:    models.FormVariantAdvisor,
		Organization:   models.OrganizationCouncilA,
		Status:         models.StatusApproved,
	}
}

func TestRecordLayoutWidths(t *testing.T) {
	total := 0
	for _, field := range recordLayout {
		require.Positive(t, field.width, "field %s", field.name)
		total += field.width
	}
	require.Equal(t, RecordLength, total)
}

func TestEncodeRecord(t *testing.T) {
	runDate := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	record := EncodeRecord(testSubmission("customer@example.com"), runDate)

	require.Len(t, record, RecordLength)

	// Record type, columns 1-2.
	require.Equal(t, "01", record[0:2])

	// Customer number, columns 3-20, right aligned.
	require.Equal(t, "       10001234567", record[2:20])

	// Filler, columns 21-40.
	require.Equal(t, strings.Repeat(" ", 20), record[20:40])

	// Bank details placeholder, columns 41-54.
	require.Equal(t, "00000000000000", record[40:54])

	// Composite reference, columns 101-220, left aligned.
	composite := record[100:220]
	require.True(t, strings.HasPrefix(composite, "DDREF_20260828 ##customer@example.com## "))
	require.Equal(t, strings.Repeat(" ", 120-len("DDREF_20260828 ##customer@example.com## ")), composite[len("DDREF_20260828 ##customer@example.com## "):])

	// Transaction code, columns 521-522.
	require.Equal(t, "0N", record[520:522])

	// Status flag, column 573.
	require.Equal(t, "A", string(record[572]))

	// Trailing filler, columns 574-606.
	require.Equal(t, strings.Repeat(" ", 33), record[573:])
}

func TestEncodeRecordDeterministic(t *testing.T) {
	runDate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	sub := testSubmission("customer@example.com")

	require.Equal(t, EncodeRecord(sub, runDate), EncodeRecord(sub, runDate))
}

func TestEncodeRecordTruncatesOverrun(t *testing.T) {
	longEmail := strings.Repeat("x", 150) + "@example.com"
	runDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	record := EncodeRecord(testSubmission(longEmail), runDate)

	// The overlong composite is truncated; total length holds.
	require.Len(t, record, RecordLength)
	require.Equal(t, "0N", record[520:522])
}

func TestFileKey(t *testing.T) {
	runDate := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "DD_EXPORT_20260828.txt", FileKey(runDate))
}
