// Package intent maps a declared risk intent to its expected beta envelope
// and judges whether the realized portfolio beta honours it.
package intent

import (
	"fmt"
	"math"

	"github.com/aristath/gatekeeper/internal/domain"
)

// SpecEntry is the policy-file form of a RiskIntentSpec
type SpecEntry struct {
	Level             string       `yaml:"level"`
	BetaRange         domain.Range `yaml:"beta_range"`
	MinBetaAcceptable float64      `yaml:"min_beta_acceptable"`
	BetaFailThreshold float64      `yaml:"beta_fail_threshold"`
	MaxDrawdown       float64      `yaml:"max_drawdown"`
	Benchmark         string       `yaml:"benchmark"`
	VolExpected       domain.Range `yaml:"vol_expected"`
}

// Spec validates the entry and converts it
func (e SpecEntry) Spec() (domain.RiskIntentSpec, error) {
	level, err := domain.ParseRiskIntentLevel(e.Level)
	if err != nil {
		return domain.RiskIntentSpec{}, err
	}
	return domain.NewRiskIntentSpec(level, e.BetaRange, e.MinBetaAcceptable, e.BetaFailThreshold, e.MaxDrawdown, e.Benchmark, e.VolExpected)
}

// Catalog is the immutable set of risk intent specs
type Catalog struct {
	specs map[domain.RiskIntentLevel]domain.RiskIntentSpec
}

// NewCatalog builds a catalog. Every level must be present exactly once.
func NewCatalog(specs []domain.RiskIntentSpec) (*Catalog, error) {
	c := &Catalog{specs: make(map[domain.RiskIntentLevel]domain.RiskIntentSpec, len(specs))}
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.specs[s.Level]; dup {
			return nil, fmt.Errorf("%w: %s defined twice", domain.ErrInvalidRecord, s.Level)
		}
		c.specs[s.Level] = s
	}
	for _, level := range domain.RiskIntentLevels {
		if _, ok := c.specs[level]; !ok {
			return nil, fmt.Errorf("%w: catalog is missing %s", domain.ErrInvalidRecord, level)
		}
	}
	return c, nil
}

// NewCatalogFromEntries builds a catalog from policy-file entries
func NewCatalogFromEntries(entries []SpecEntry) (*Catalog, error) {
	specs := make([]domain.RiskIntentSpec, 0, len(entries))
	for _, e := range entries {
		s, err := e.Spec()
		if err != nil {
			return nil, fmt.Errorf("intent catalog: %w", err)
		}
		specs = append(specs, s)
	}
	return NewCatalog(specs)
}

// DefaultEntries returns the built-in catalog in policy-file form
func DefaultEntries() []SpecEntry {
	return []SpecEntry{
		{"CONSERVATIVE", domain.Range{Lo: 0.3, Hi: 0.5}, 0.1, 0.0, -0.15, "40/60", domain.Range{Lo: 0.05, Hi: 0.08}},
		{"MODERATE", domain.Range{Lo: 0.5, Hi: 0.8}, 0.3, 0.2, -0.25, "60/40", domain.Range{Lo: 0.08, Hi: 0.12}},
		{"GROWTH", domain.Range{Lo: 0.8, Hi: 1.2}, 0.6, 0.4, -0.35, "VT", domain.Range{Lo: 0.14, Hi: 0.18}},
		{"AGGRESSIVE", domain.Range{Lo: 1.0, Hi: 1.3}, 0.9, 0.6, -0.45, "VT", domain.Range{Lo: 0.18, Hi: 0.22}},
	}
}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalogFromEntries(DefaultEntries())
	if err != nil {
		panic(fmt.Sprintf("default intent catalog is invalid: %v", err))
	}
	return c
}

// Lookup returns the spec of a level
func (c *Catalog) Lookup(level domain.RiskIntentLevel) (domain.RiskIntentSpec, error) {
	s, ok := c.specs[level]
	if !ok {
		return domain.RiskIntentSpec{}, fmt.Errorf("%w: %q", domain.ErrUnknownRiskIntent, level)
	}
	return s, nil
}

// Specs returns every spec from least to most aggressive
func (c *Catalog) Specs() []domain.RiskIntentSpec {
	out := make([]domain.RiskIntentSpec, 0, len(c.specs))
	for _, level := range domain.RiskIntentLevels {
		out = append(out, c.specs[level])
	}
	return out
}

// Recommend returns the level whose beta range best fits the observed beta.
// Overlapping ranges resolve to the less aggressive level.
func (c *Catalog) Recommend(beta float64) domain.RiskIntentLevel {
	best := domain.RiskIntentConservative
	bestDist := math.Inf(1)
	for _, s := range c.Specs() {
		var dist float64
		switch {
		case beta < s.BetaRange.Lo:
			dist = s.BetaRange.Lo - beta
		case beta > s.BetaRange.Hi:
			dist = beta - s.BetaRange.Hi
		}
		if dist < bestDist {
			best, bestDist = s.Level, dist
		}
	}
	return best
}

// Next returns the next more aggressive level, or the level itself when it is the last
func Next(level domain.RiskIntentLevel) domain.RiskIntentLevel {
	for i, l := range domain.RiskIntentLevels {
		if l == level && i+1 < len(domain.RiskIntentLevels) {
			return domain.RiskIntentLevels[i+1]
		}
	}
	return level
}
