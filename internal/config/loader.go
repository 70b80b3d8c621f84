package config

import (
	"fmt"
	"os"

	"github.com/autolytiq/vehicletax/internal/domain"
	"gopkg.in/yaml.v3"
)

// RulesBundle is the authored wire shape: one file carrying every
// jurisdiction ruleset (possibly several versions of each).
type RulesBundle struct {
	Metadata      BundleMetadata           `yaml:"metadata" json:"metadata"`
	Jurisdictions []*domain.TaxRulesConfig `yaml:"jurisdictions" json:"jurisdictions"`
}

// BundleMetadata describes the authored rule data.
type BundleMetadata struct {
	DataYear    int    `yaml:"data_year" json:"data_year"`
	LastUpdated string `yaml:"last_updated" json:"last_updated"`
	Description string `yaml:"description" json:"description"`
}

// RulesParser handles parsing of rules bundle files.
type RulesParser struct{}

// NewRulesParser creates a new rules parser.
func NewRulesParser() *RulesParser {
	return &RulesParser{}
}

// LoadFromFile loads a YAML rules bundle, validates every jurisdiction plus
// the cross-jurisdiction checks, and returns a ready store. Any validation
// failure aborts the load; an invalid configuration must never be served.
func (rp *RulesParser) LoadFromFile(filename string) (*Store, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return rp.Load(data)
}

// Load parses and validates a YAML rules bundle from memory.
func (rp *RulesParser) Load(data []byte) (*Store, error) {
	var bundle RulesBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", domain.ErrConfigurationInvalid, err)
	}
	if len(bundle.Jurisdictions) == 0 {
		return nil, fmt.Errorf("%w: bundle contains no jurisdictions", domain.ErrConfigurationInvalid)
	}

	if errs := ValidateBundle(bundle.Jurisdictions); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %d validation failure(s), first: %s",
			domain.ErrConfigurationInvalid, len(errs), errs[0].Error())
	}
	return NewStore(bundle.Jurisdictions), nil
}
