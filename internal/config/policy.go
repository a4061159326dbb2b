package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/gatekeeper/internal/modules/classification"
	"github.com/aristath/gatekeeper/internal/modules/gates"
	"github.com/aristath/gatekeeper/internal/modules/intent"
)

// Policy holds the tunable parameters of the gate engine. Every field has a
// built-in default; a policy file only needs to name what it changes.
type Policy struct {
	Gates          gates.Thresholds              `yaml:"gates"`
	Intent         intent.Limits                 `yaml:"intent"`
	RiskIntents    []intent.SpecEntry            `yaml:"risk_intents"`
	SoftClassifier classification.SoftPolicy     `yaml:"soft_classifier"`
	TypeThresholds classification.ThresholdTable `yaml:"type_thresholds"`
	Taxonomy       []classification.AssetProfile `yaml:"taxonomy"` // added to the built-in taxonomy
}

// DefaultPolicy returns the built-in policy
func DefaultPolicy() Policy {
	return Policy{
		Gates:          gates.DefaultThresholds(),
		Intent:         intent.DefaultLimits(),
		RiskIntents:    intent.DefaultEntries(),
		SoftClassifier: classification.DefaultSoftPolicy(),
		TypeThresholds: classification.DefaultThresholdTable(),
	}
}

// LoadPolicy reads a YAML policy file over the defaults. An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}
	p.Gates.CausalKeywords = normalizeKeywords(p.Gates.CausalKeywords)
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the policy for values the gates cannot work with
func (p Policy) Validate() error {
	if _, err := p.Catalog(); err != nil {
		return err
	}
	if p.Intent.MinWindowYears <= 0 || p.Intent.MinObservations <= 0 {
		return fmt.Errorf("intent limits must be positive")
	}
	if p.Gates.MinOverlappingDays <= 0 {
		return fmt.Errorf("gates.min_overlapping_days must be positive")
	}
	if p.Gates.SingleDriverMax <= 0 || p.Gates.SingleDriverMax > 1 {
		return fmt.Errorf("gates.single_driver_max must be in (0, 1]")
	}
	if p.Gates.CCRWarningLeverage >= p.Gates.CCRCriticalLeverage {
		return fmt.Errorf("gates.ccr_warning_leverage must be below ccr_critical_leverage")
	}
	for _, kw := range p.Gates.CausalKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("gates.causal_keywords must not contain blank entries")
		}
	}
	if p.Gates.WarnPenalty < 0 {
		return fmt.Errorf("gates.warn_penalty must not be negative")
	}
	for st := range p.TypeThresholds {
		if !st.Valid() {
			return fmt.Errorf("type_thresholds: unknown structure type %q", st)
		}
	}
	for _, a := range p.Taxonomy {
		if a.Ticker == "" {
			return fmt.Errorf("taxonomy entry without ticker")
		}
	}
	return nil
}

// normalizeKeywords lowercases and trims keywords; issue text is lowercased
// before matching. Blank entries are kept for Validate to reject.
func normalizeKeywords(in []string) []string {
	out := make([]string, len(in))
	for i, kw := range in {
		out[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return out
}

// Catalog builds the risk intent catalog
func (p Policy) Catalog() (*intent.Catalog, error) {
	return intent.NewCatalogFromEntries(p.RiskIntents)
}

// BuildTaxonomy returns the built-in taxonomy extended by the policy's entries
func (p Policy) BuildTaxonomy() *classification.Taxonomy {
	base := classification.DefaultTaxonomy()
	if len(p.Taxonomy) == 0 {
		return base
	}
	return base.Extend(p.Taxonomy)
}
