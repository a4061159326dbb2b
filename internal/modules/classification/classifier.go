package classification

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
)

// Rule thresholds of the hard classifier
const (
	incomeMinWeight       = 0.40
	defensiveMaxEquity    = 0.40
	defensiveMinBondGold  = 0.40
	balancedBondMin       = 0.20
	balancedBondMax       = 0.50
	balancedEquityMin     = 0.50
	balancedEquityMax     = 0.80
	riskParityMaxMultiple = 2.0
	riskParityMinAssets   = 3
	multiBlockMaxBlock    = 0.45
	multiBlockMinBlocks   = 2
	coreDrivenMinWorld    = 0.50
	coreDrivenMaxBond     = 0.15
	barbellMinCore        = 0.40
	barbellMinSatellite   = 0.20
	singlePositionLimit   = 0.45
	diversifiedMinCore    = 2
)

// Input is everything the hard classifier looks at
type Input struct {
	Composition Composition
	RiskContrib []domain.ComponentRisk
}

// Rule is one entry of the ordered classification table
type Rule struct {
	Name  string
	Type  domain.PortfolioStructureType
	Match func(in Input) (bool, string)
}

// Rules is the fixed, ordered rule table. The first matching rule wins and
// TACTICAL is returned when nothing matches.
var Rules = []Rule{
	{
		Name: "income_yield",
		Type: domain.StructureIncomeYield,
		Match: func(in Input) (bool, string) {
			d := in.Composition.Weight(CategoryDividend)
			return d > incomeMinWeight, fmt.Sprintf("dividend %.2f > %.2f", d, incomeMinWeight)
		},
	},
	{
		Name: "defensive",
		Type: domain.StructureDefensive,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			return c.Equity < defensiveMaxEquity && c.Defensive() > defensiveMinBondGold,
				fmt.Sprintf("equity %.2f < %.2f and bond+gold %.2f > %.2f", c.Equity, defensiveMaxEquity, c.Defensive(), defensiveMinBondGold)
		},
	},
	{
		Name: "balanced",
		Type: domain.StructureBalanced,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			ok := c.Bond >= balancedBondMin && c.Bond <= balancedBondMax &&
				c.Equity >= balancedEquityMin && c.Equity <= balancedEquityMax
			return ok, fmt.Sprintf("bond %.2f in [%.2f, %.2f] and equity %.2f in [%.2f, %.2f]",
				c.Bond, balancedBondMin, balancedBondMax, c.Equity, balancedEquityMin, balancedEquityMax)
		},
	},
	{
		Name:  "risk_parity",
		Type:  domain.StructureRiskParity,
		Match: matchRiskParity,
	},
	{
		Name: "equity_multi_block",
		Type: domain.StructureEquityMultiBlock,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			ok := c.IsAllEquity() && c.EquityBlocks() >= multiBlockMinBlocks && c.MaxBlock() < multiBlockMaxBlock
			return ok, fmt.Sprintf("all equity %t, %d blocks, max block %.2f < %.2f",
				c.IsAllEquity(), c.EquityBlocks(), c.MaxBlock(), multiBlockMaxBlock)
		},
	},
	{
		Name: "equity_core_driven",
		Type: domain.StructureEquityCoreDriven,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			w := c.Weight(CategoryWorld)
			return w > coreDrivenMinWorld && c.Bond < coreDrivenMaxBond,
				fmt.Sprintf("world %.2f > %.2f and bond %.2f < %.2f", w, coreDrivenMinWorld, c.Bond, coreDrivenMaxBond)
		},
	},
	{
		Name: "barbell_thematic",
		Type: domain.StructureBarbellThematic,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			return c.Core > barbellMinCore && c.Satellite > barbellMinSatellite,
				fmt.Sprintf("core %.2f > %.2f and satellite %.2f > %.2f", c.Core, barbellMinCore, c.Satellite, barbellMinSatellite)
		},
	},
	{
		Name: "equity_growth_core",
		Type: domain.StructureEquityGrowthCore,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			return c.IsAllEquity() && c.MaxPosition > singlePositionLimit,
				fmt.Sprintf("all equity %t and max position %.2f > %.2f", c.IsAllEquity(), c.MaxPosition, singlePositionLimit)
		},
	},
	{
		Name: "equity_growth_diversified",
		Type: domain.StructureEquityGrowthDiversified,
		Match: func(in Input) (bool, string) {
			c := in.Composition
			ok := c.IsAllEquity() && c.CorePositions >= diversifiedMinCore && c.MaxPosition <= singlePositionLimit
			return ok, fmt.Sprintf("all equity %t, %d core positions, max position %.2f <= %.2f",
				c.IsAllEquity(), c.CorePositions, c.MaxPosition, singlePositionLimit)
		},
	},
}

func matchRiskParity(in Input) (bool, string) {
	c := in.Composition
	if c.Bond <= 0 || c.Equity <= 0 || len(c.Holdings) < riskParityMinAssets {
		return false, fmt.Sprintf("not multi-asset (bond %.2f, equity %.2f, %d holdings)", c.Bond, c.Equity, len(c.Holdings))
	}
	if len(in.RiskContrib) == 0 {
		return false, "no risk contributions supplied"
	}
	equalShare := 1.0 / float64(len(in.RiskContrib))
	limit := riskParityMaxMultiple * equalShare
	maxPct := 0.0
	for _, rc := range in.RiskContrib {
		if rc.ComponentContributionPct > maxPct {
			maxPct = rc.ComponentContributionPct
		}
	}
	return maxPct <= limit, fmt.Sprintf("max risk contribution %.2f <= %.2f (2x equal share)", maxPct, limit)
}

// Classifier is the deterministic, priority-ordered structural classifier
type Classifier struct {
	taxonomy *Taxonomy
	rules    []Rule
	log      zerolog.Logger
}

// NewClassifier creates a classifier bound to a taxonomy
func NewClassifier(taxonomy *Taxonomy, log zerolog.Logger) *Classifier {
	return &Classifier{
		taxonomy: taxonomy,
		rules:    Rules,
		log:      log.With().Str("component", "classifier").Logger(),
	}
}

// Classify validates weights and returns exactly one structure type with its decision path
func (c *Classifier) Classify(weights map[string]float64, risk []domain.ComponentRisk) (domain.Classification, Composition, error) {
	comp, err := NewComposition(weights, c.taxonomy)
	if err != nil {
		return domain.Classification{}, Composition{}, err
	}
	return c.ClassifyComposition(comp, risk), comp, nil
}

// ClassifyComposition evaluates the rule table against an already validated composition
func (c *Classifier) ClassifyComposition(comp Composition, risk []domain.ComponentRisk) domain.Classification {
	in := Input{Composition: comp, RiskContrib: risk}
	path := make([]domain.RuleTrace, 0, len(c.rules)+1)

	for _, rule := range c.rules {
		matched, detail := rule.Match(in)
		path = append(path, domain.RuleTrace{Rule: rule.Name, Type: rule.Type, Matched: matched, Detail: detail})
		if matched {
			c.log.Debug().Str("rule", rule.Name).Str("type", string(rule.Type)).Msg("Structure classified")
			return domain.Classification{Type: rule.Type, DecisionPath: path}
		}
	}

	path = append(path, domain.RuleTrace{
		Rule:    "tactical_default",
		Type:    domain.StructureTactical,
		Matched: true,
		Detail:  "no rule matched",
	})
	c.log.Debug().Str("type", string(domain.StructureTactical)).Msg("Structure classified by default")
	return domain.Classification{Type: domain.StructureTactical, DecisionPath: path}
}
