package classification

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/gatekeeper/internal/domain"
)

// SoftPolicy holds the calibrated heuristics of the soft classifier.
// They are policy parameters and can be overridden from the policy file.
type SoftPolicy struct {
	DiversificationWeight float64 `yaml:"diversification_weight"`
	CoreETFWeight         float64 `yaml:"core_etf_weight"`
	LowBetaWeight         float64 `yaml:"low_beta_weight"`
	DefensiveWeight       float64 `yaml:"defensive_weight"`

	ConcentrationWeight float64 `yaml:"concentration_weight"`
	ThematicWeight      float64 `yaml:"thematic_weight"`
	EMSingleWeight      float64 `yaml:"em_single_weight"`
	HighBetaWeight      float64 `yaml:"high_beta_weight"`

	FullDiversificationPositions float64 `yaml:"full_diversification_positions"`
	MinPositionWeight            float64 `yaml:"min_position_weight"`
	DominanceMargin              float64 `yaml:"dominance_margin"`
	ConvictionBase               float64 `yaml:"conviction_base"`
	ConvictionBoost              float64 `yaml:"conviction_boost"`
	SurfaceBelowConviction       float64 `yaml:"surface_below_conviction"`
}

// DefaultSoftPolicy returns the calibrated defaults
func DefaultSoftPolicy() SoftPolicy {
	return SoftPolicy{
		DiversificationWeight:        0.30,
		CoreETFWeight:                0.25,
		LowBetaWeight:                0.20,
		DefensiveWeight:              0.25,
		ConcentrationWeight:          0.25,
		ThematicWeight:               0.30,
		EMSingleWeight:               0.25,
		HighBetaWeight:               0.20,
		FullDiversificationPositions: 15,
		MinPositionWeight:            0.01,
		DominanceMargin:              20,
		ConvictionBase:               30,
		ConvictionBoost:              20,
		SurfaceBelowConviction:       70,
	}
}

// SoftClassifier scores how core-like versus tactical a portfolio is.
// It is advisory and never changes the hard classification.
type SoftClassifier struct {
	policy SoftPolicy
	log    zerolog.Logger
}

// NewSoftClassifier creates a soft classifier
func NewSoftClassifier(policy SoftPolicy, log zerolog.Logger) *SoftClassifier {
	return &SoftClassifier{
		policy: policy,
		log:    log.With().Str("component", "soft_classifier").Logger(),
	}
}

// Classify scores the composition given the portfolio beta
func (s *SoftClassifier) Classify(comp Composition, beta float64) domain.SoftClassification {
	p := s.policy

	positions := 0
	for _, h := range comp.Holdings {
		if h.Weight > p.MinPositionWeight {
			positions++
		}
	}
	maxWeight := comp.MaxPosition
	coreETF := comp.Core
	defensive := comp.Defensive()
	thematic := comp.Satellite
	emSingle := comp.Weight(CategorySingleCountry)

	diversification := math.Min(100, float64(positions)/p.FullDiversificationPositions*50+(1-maxWeight)*50)
	lowBeta := clamp((1.2-beta)*100, 0, 100)
	core := diversification*p.DiversificationWeight +
		coreETF*100*p.CoreETFWeight +
		lowBeta*p.LowBetaWeight +
		defensive*100*p.DefensiveWeight
	core = clamp(core, 0, 100)

	concentration := maxWeight * 100
	highBeta := clamp((beta-0.8)*200, 0, 100)
	tactical := concentration*p.ConcentrationWeight +
		thematic*100*p.ThematicWeight +
		emSingle*100*p.EMSingleWeight +
		highBeta*p.HighBetaWeight
	tactical = clamp(tactical, 0, 100)

	conviction := math.Min(100, math.Abs(core-tactical)+p.ConvictionBase)
	if coreETF > 0.50 {
		conviction = math.Min(100, conviction+p.ConvictionBoost)
	}
	if thematic > 0.30 {
		conviction = math.Min(100, conviction+p.ConvictionBoost)
	}

	var primary domain.PortfolioStructureType
	switch {
	case core > tactical+p.DominanceMargin:
		switch {
		case defensive > 0.20:
			primary = domain.StructureBalanced
		case coreETF > 0.50:
			primary = domain.StructureEquityCoreDriven
		default:
			primary = domain.StructureEquityMultiBlock
		}
	case tactical > core+p.DominanceMargin:
		switch {
		case thematic > 0.30:
			primary = domain.StructureBarbellThematic
		case concentration > 50:
			primary = domain.StructureEquityGrowthCore
		default:
			primary = domain.StructureTactical
		}
	case core >= tactical:
		primary = domain.StructureEquityMultiBlock
	default:
		primary = domain.StructureTactical
	}

	candidates := []domain.TypeCandidate{
		{Type: domain.StructureEquityMultiBlock, Score: core, Confidence: core / 100},
		{Type: domain.StructureTactical, Score: tactical, Confidence: tactical / 100},
		{Type: domain.StructureBalanced, Score: (core + defensive*100) / 2, Confidence: (core + defensive*100) / 200},
	}
	alternatives := make([]domain.TypeCandidate, 0, 2)
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	for _, c := range candidates {
		if c.Type == primary {
			continue
		}
		alternatives = append(alternatives, c)
		if len(alternatives) == 2 {
			break
		}
	}

	result := domain.SoftClassification{
		CoreScore:        core,
		TacticalScore:    tactical,
		ConvictionScore:  conviction,
		PrimaryType:      primary,
		Confidence:       conviction / 100,
		AlternativeTypes: alternatives,
	}

	s.log.Debug().
		Float64("core_score", core).
		Float64("tactical_score", tactical).
		Float64("conviction", conviction).
		Str("primary_type", string(primary)).
		Msg("Soft classification computed")

	return result
}

// ShouldSurface reports whether the soft result must be shown next to the hard type
func (s *SoftClassifier) ShouldSurface(soft domain.SoftClassification, hard domain.PortfolioStructureType) bool {
	return soft.ConvictionScore < s.policy.SurfaceBelowConviction || soft.PrimaryType != hard
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
