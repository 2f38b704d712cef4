package handoff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

func TestDefaultVariantTableComplete(t *testing.T) {
	table := DefaultVariantTable()

	for _, spec := range models.Organizations() {
		for _, variant := range []models.FormVariant{models.FormVariantUser, models.FormVariantAdvisor} {
			cfg, err := table.Lookup(spec.Organization, variant)
			require.NoError(t, err)
			require.NotEmpty(t, cfg.BaseURL)
			require.NotEmpty(t, cfg.Theme)
		}
	}
}

func TestDefaultVariantDisplayFlags(t *testing.T) {
	table := DefaultVariantTable()

	advisor, err := table.Lookup(models.OrganizationCouncilA, models.FormVariantAdvisor)
	require.NoError(t, err)
	require.True(t, advisor.HideBackButton)
	require.False(t, advisor.ShowHeader)

	user, err := table.Lookup(models.OrganizationCouncilA, models.FormVariantUser)
	require.NoError(t, err)
	require.False(t, user.HideBackButton)
	require.True(t, user.ShowHeader)
}

func TestLoadVariantTable(t *testing.T) {
	content := `
- organization: councilA
  variant: advisor
  baseURL: https://other.example/a/agent
  hideBackButton: true
  theme: alt
- organization: councilA
  variant: user
  baseURL: https://other.example/a/user
  showHeader: true
  theme: alt
- organization: councilB
  variant: advisor
  baseURL: https://other.example/b/agent
  hideBackButton: true
  theme: alt
- organization: councilB
  variant: user
  baseURL: https://other.example/b/user
  showHeader: true
  theme: alt
`
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadVariantTable(path)
	require.NoError(t, err)

	cfg, err := table.Lookup(models.OrganizationCouncilA, models.FormVariantAdvisor)
	require.NoError(t, err)
	require.Equal(t, "https://other.example/a/agent", cfg.BaseURL)
	require.Equal(t, "alt", cfg.Theme)
}

func TestLoadVariantTableIncomplete(t *testing.T) {
	content := `
- organization: councilA
  variant: advisor
  baseURL: https://other.example/a/agent
`
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadVariantTable(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing entry")
}

func TestNewVariantTableRejectsDuplicates(t *testing.T) {
	configs := append([]VariantConfig{}, defaultVariantTable...)
	configs = append(configs, defaultVariantTable[0])

	_, err := newVariantTable(configs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}
