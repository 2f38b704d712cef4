package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Organization identifies which council a customer belongs to. The mapping
// from customer number prefix to organization is a closed table; adding a
// council means adding a row, not a branch.
type Organization string

const (
	OrganizationCouncilA Organization = "councilA"
	OrganizationCouncilB Organization = "councilB"
)

// OrganizationSpec binds a customer number prefix to its organization.
// Prefixes are disjoint: no two organizations share a prefix space.
type OrganizationSpec struct {
	Prefix       string
	Organization Organization
}

var organizationTable = []OrganizationSpec{
	{Prefix: "1000", Organization: OrganizationCouncilA},
	{Prefix: "2000", Organization: OrganizationCouncilB},
}

// Organizations returns the prefix table in declaration order.
func Organizations() []OrganizationSpec {
	return organizationTable
}

// customer numbers are exactly 11 digits: a 4 digit service prefix followed
// by a 7 digit account number.
var customerNumberPattern = regexp.MustCompile(`^\d{11}$`)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeCustomerNumber strips formatting characters from a raw customer
// number and validates its shape. It does not check the prefix; use
// OrganizationForCustomerNumber for that.
func NormalizeCustomerNumber(raw string) (string, error) {
	num := nonDigits.ReplaceAllString(raw, "")
	if !customerNumberPattern.MatchString(num) {
		return "", &ValidationError{Msg: "invalid customer number"}
	}
	return num, nil
}

// OrganizationForCustomerNumber derives the organization from a normalized
// customer number's prefix. The derivation is pure: same input, same answer.
func OrganizationForCustomerNumber(customerNumber string) (Organization, error) {
	for _, spec := range organizationTable {
		if strings.HasPrefix(customerNumber, spec.Prefix) {
			return spec.Organization, nil
		}
	}
	return "", &ValidationError{Msg: "unrecognized customer number prefix"}
}

// ParseOrganization validates a caller supplied organization value.
func ParseOrganization(raw string) (Organization, error) {
	for _, spec := range organizationTable {
		if raw == string(spec.Organization) {
			return spec.Organization, nil
		}
	}
	return "", &ValidationError{Msg: fmt.Sprintf("unknown organization %q", raw)}
}
