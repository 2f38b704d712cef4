package handoff

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/models"
)

// VariantConfig fixes the external endpoint and display-flag defaults for one
// (organization, form variant) combination. The display flags are hints for
// the hosted form, not business logic, but the external service expects them
// verbatim per combination.
type VariantConfig struct {
	Organization   models.Organization `yaml:"organization"`
	Variant        models.FormVariant  `yaml:"variant"`
	BaseURL        string              `yaml:"baseURL"`
	HideBackButton bool                `yaml:"hideBackButton"`
	ShowHeader     bool                `yaml:"showHeader"`
	Theme          string              `yaml:"theme"`
}

// defaultVariantTable covers both councils. The advisor journey uses the
// hosted "agent" endpoint, the self-service journey the "user" endpoint.
var defaultVariantTable = []VariantConfig{
	{
		Organization:   models.OrganizationCouncilA,
		Variant:        models.FormVariantAdvisor,
		BaseURL:        "https://verify.ddpayments.example/councila/agent",
		HideBackButton: true,
		ShowHeader:     false,
		Theme:          "councila",
	},
	{
		Organization:   models.OrganizationCouncilA,
		Variant:        models.FormVariantUser,
		BaseURL:        "https://verify.ddpayments.example/councila/user",
		HideBackButton: false,
		ShowHeader:     true,
		Theme:          "councila",
	},
	{
		Organization:   models.OrganizationCouncilB,
		Variant:        models.FormVariantAdvisor,
		BaseURL:        "https://verify.ddpayments.example/councilb/agent",
		HideBackButton: true,
		ShowHeader:     false,
		Theme:          "councilb",
	},
	{
		Organization:   models.OrganizationCouncilB,
		Variant:        models.FormVariantUser,
		BaseURL:        "https://verify.ddpayments.example/councilb/user",
		HideBackButton: false,
		ShowHeader:     true,
		Theme:          "councilb",
	},
}

// VariantTable resolves (organization, variant) pairs to their endpoint
// configuration.
type VariantTable struct {
	configs map[models.Organization]map[models.FormVariant]VariantConfig
}

// DefaultVariantTable returns the built-in table.
func DefaultVariantTable() *VariantTable {
	table, err := newVariantTable(defaultVariantTable)
	if err != nil {
		// The built-in table is validated by tests; reaching this is a bug.
		panic(err)
	}
	return table
}

// LoadVariantTable reads a replacement table from a YAML file.
func LoadVariantTable(path string) (*VariantTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variants file: %w", err)
	}

	var configs []VariantConfig
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse variants file: %w", err)
	}

	return newVariantTable(configs)
}

func newVariantTable(configs []VariantConfig) (*VariantTable, error) {
	table := &VariantTable{
		configs: make(map[models.Organization]map[models.FormVariant]VariantConfig),
	}

	for _, cfg := range configs {
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("variant table entry %s/%s has no baseURL", cfg.Organization, cfg.Variant)
		}
		if _, ok := table.configs[cfg.Organization]; !ok {
			table.configs[cfg.Organization] = make(map[models.FormVariant]VariantConfig)
		}
		if _, dup := table.configs[cfg.Organization][cfg.Variant]; dup {
			return nil, fmt.Errorf("duplicate variant table entry %s/%s", cfg.Organization, cfg.Variant)
		}
		table.configs[cfg.Organization][cfg.Variant] = cfg
	}

	// Every organization must cover both journeys.
	for _, spec := range models.Organizations() {
		for _, variant := range []models.FormVariant{models.FormVariantUser, models.FormVariantAdvisor} {
			if _, ok := table.configs[spec.Organization][variant]; !ok {
				return nil, fmt.Errorf("variant table missing entry %s/%s", spec.Organization, variant)
			}
		}
	}

	return table, nil
}

// Lookup returns the configuration for an (organization, variant) pair.
func (t *VariantTable) Lookup(org models.Organization, variant models.FormVariant) (VariantConfig, error) {
	cfg, ok := t.configs[org][variant]
	if !ok {
		return VariantConfig{}, fmt.Errorf("no variant configuration for %s/%s", org, variant)
	}
	return cfg, nil
}
