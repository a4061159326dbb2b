package classification

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aristath/gatekeeper/internal/domain"
)

// TypeThresholds are the concentration limits a structure type is judged against
type TypeThresholds struct {
	MaxSinglePosition  float64 `yaml:"max_single_position" json:"max_single_position"`
	MaxTop3            float64 `yaml:"max_top3" json:"max_top3"`
	MaxSatelliteSingle float64 `yaml:"max_satellite_single" json:"max_satellite_single"`
	MaxSatelliteTotal  float64 `yaml:"max_satellite_total" json:"max_satellite_total"`
	MaxDrawdown        float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxCoreRiskRatio   float64 `yaml:"core_risk_contrib_ratio_max" json:"core_risk_contrib_ratio_max"`
}

// DefaultTypeThresholds is used for types without a specific entry
var DefaultTypeThresholds = TypeThresholds{
	MaxSinglePosition:  0.40,
	MaxTop3:            0.70,
	MaxSatelliteSingle: 0.08,
	MaxSatelliteTotal:  0.20,
	MaxDrawdown:        -0.25,
	MaxCoreRiskRatio:   1.5,
}

// ThresholdTable maps structure types to their limits
type ThresholdTable map[domain.PortfolioStructureType]TypeThresholds

// DefaultThresholdTable returns the per-type limits
func DefaultThresholdTable() ThresholdTable {
	return ThresholdTable{
		domain.StructureEquityGrowthCore:        {0.60, 0.80, 0.15, 0.35, -0.45, 2.0},
		domain.StructureEquityGrowthDiversified: {0.45, 0.70, 0.15, 0.40, -0.40, 1.8},
		domain.StructureEquityCoreDriven:        {0.85, 0.95, 0.10, 0.25, -0.35, 1.3},
		domain.StructureEquityMultiBlock:        {0.25, 0.60, 0.15, 0.30, -0.40, 1.5},
		domain.StructureBalanced:                {0.45, 0.65, 0.05, 0.10, -0.18, 1.3},
		domain.StructureDefensive:               {0.50, 0.70, 0.03, 0.05, -0.12, 1.2},
		domain.StructureIncomeYield:             {0.40, 0.70, 0.05, 0.10, -0.20, 1.4},
		domain.StructureBarbellThematic:         {0.65, 0.85, 0.15, 0.35, -0.30, 1.5},
		domain.StructureRiskParity:              {0.30, 0.60, 0.10, 0.20, -0.15, 1.15},
	}
}

// UnmarshalYAML merges each entry field by field onto the table's current
// value for that type, or onto DefaultTypeThresholds for a type it lacks, so a
// policy file can change one limit without restating the rest.
func (t *ThresholdTable) UnmarshalYAML(node *yaml.Node) error {
	var raw map[domain.PortfolioStructureType]yaml.Node
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if *t == nil {
		*t = ThresholdTable{}
	}
	for st, entry := range raw {
		th, ok := (*t)[st]
		if !ok {
			th = DefaultTypeThresholds
		}
		if err := entry.Decode(&th); err != nil {
			return fmt.Errorf("type_thresholds %s: %w", st, err)
		}
		(*t)[st] = th
	}
	return nil
}

// For returns the limits for a type, falling back to the defaults
func (t ThresholdTable) For(st domain.PortfolioStructureType) TypeThresholds {
	if th, ok := t[st]; ok {
		return th
	}
	return DefaultTypeThresholds
}

// Breaches lists the limits the composition exceeds for the given type
func (t ThresholdTable) Breaches(st domain.PortfolioStructureType, comp Composition) []string {
	th := t.For(st)
	var out []string
	if comp.MaxPosition > th.MaxSinglePosition {
		out = append(out, formatBreach("max single position", comp.MaxPosition, th.MaxSinglePosition))
	}
	if comp.Top3 > th.MaxTop3 {
		out = append(out, formatBreach("top-3 concentration", comp.Top3, th.MaxTop3))
	}
	if comp.Satellite > th.MaxSatelliteTotal {
		out = append(out, formatBreach("satellite total", comp.Satellite, th.MaxSatelliteTotal))
	}
	for _, h := range comp.Holdings {
		if (h.Profile.Has(CategoryThematic) || h.Profile.Has(CategorySector)) && h.Weight > th.MaxSatelliteSingle {
			out = append(out, formatBreach("satellite "+h.Ticker, h.Weight, th.MaxSatelliteSingle))
		}
	}
	return out
}

func formatBreach(what string, value, limit float64) string {
	return fmt.Sprintf("%s %.2f exceeds %.2f", what, value, limit)
}
