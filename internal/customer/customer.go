// Package customer validates enrollment requests against the customer
// reference data loaded from the councils' CSV extracts.
package customer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Validator answers whether a customer number and postcode pair identifies a
// known customer.
type Validator interface {
	Validate(ctx context.Context, customerNumber, postcode string) (bool, error)
}

// AllowAll accepts every customer. Used in development when no reference
// data has been loaded.
type AllowAll struct{}

func (AllowAll) Validate(context.Context, string, string) (bool, error) {
	return true, nil
}

// Static validates against a fixed customer number to postcode map, used in
// tests.
type Static map[string]string

func (s Static) Validate(_ context.Context, customerNumber, postcode string) (bool, error) {
	want, ok := s[customerNumber]
	if !ok {
		return false, nil
	}
	return postcodesEqual(want, postcode), nil
}

// postcodesEqual compares postcodes ignoring case and internal spacing, so
// "AB1 2CD" matches "ab12cd".
func postcodesEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	}
	return norm(a) == norm(b)
}

// Record is one row of the customer reference extract.
type Record struct {
	CustomerNumber string
	Postcode       string
}

// ParseCSV reads a customer extract. The expected layout is two columns,
// customer_number and postcode, with an optional header row.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var records []Record
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse customer CSV: %w", err)
		}
		line++

		if len(row) < 2 {
			return nil, fmt.Errorf("customer CSV line %d: expected 2 columns, got %d", line, len(row))
		}

		number := strings.TrimSpace(row[0])
		postcode := strings.TrimSpace(row[1])

		// Skip a header row if present.
		if line == 1 && strings.EqualFold(number, "customer_number") {
			continue
		}
		if number == "" {
			continue
		}

		records = append(records, Record{CustomerNumber: number, Postcode: postcode})
	}

	return records, nil
}
