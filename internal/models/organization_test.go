package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCustomerNumber(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "10001234567", want: "10001234567"},
		{name: "spaces and dashes stripped", raw: "1000-123 45.67", want: "10001234567"},
		{name: "letters stripped", raw: "1000ABC1234567", want: "10001234567"},
		{name: "too short", raw: "1000123456", wantErr: true},
		{name: "too long", raw: "100012345678", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "only formatting", raw: "---", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCustomerNumber(tt.raw)
			if tt.wantErr {
				require.Error(t, err)

				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOrganizationForCustomerNumber(t *testing.T) {
	tests := []struct {
		number  string
		want    Organization
		wantErr bool
	}{
		{number: "10001234567", want: OrganizationCouncilA},
		{number: "20001234567", want: OrganizationCouncilB},
		{number: "30001234567", wantErr: true},
		{number: "00001234567", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			got, err := OrganizationForCustomerNumber(tt.number)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOrganizationPrefixesAreDisjoint(t *testing.T) {
	specs := Organizations()
	for i, a := range specs {
		for j, b := range specs {
			if i == j {
				continue
			}
			require.NotEqual(t, a.Prefix, b.Prefix)
		}
	}
}

func TestParseOrganization(t *testing.T) {
	org, err := ParseOrganization("councilA")
	require.NoError(t, err)
	require.Equal(t, OrganizationCouncilA, org)

	_, err = ParseOrganization("councilC")
	require.Error(t, err)
}

func TestParseFormVariant(t *testing.T) {
	variant, ok := ParseFormVariant("")
	require.True(t, ok)
	require.Equal(t, FormVariantAdvisor, variant)

	variant, ok = ParseFormVariant("user")
	require.True(t, ok)
	require.Equal(t, FormVariantUser, variant)

	variant, ok = ParseFormVariant("advisor")
	require.True(t, ok)
	require.Equal(t, FormVariantAdvisor, variant)

	_, ok = ParseFormVariant("admin")
	require.False(t, ok)
}

func TestSubmissionStatusTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.True(t, StatusApproved.Terminal())
	require.True(t, StatusFailed.Terminal())
}
