package classification

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/aristath/gatekeeper/internal/domain"
)

// WeightTolerance is the allowed deviation of the weight sum from 1
const WeightTolerance = 1e-4

// Equity blocks used by the multi-block rule
const (
	BlockCoreGlobal    = "core_global"
	BlockCoreRegional  = "core_regional"
	BlockEmerging      = "emerging"
	BlockSmallCap      = "small_cap"
	BlockFactor        = "factor"
	BlockSatellite     = "satellite"
	BlockRealEstate    = "real_estate"
	BlockIncome        = "income"
	BlockSingleCountry = "single_country"
	BlockSingleStock   = "single_stock"
)

// Holding is one position of the portfolio
type Holding struct {
	Ticker  string       `json:"ticker"`
	Weight  float64      `json:"weight"`
	Profile AssetProfile `json:"-"`
	Known   bool         `json:"-"`
}

// Composition is the validated, taxonomy-resolved view of a portfolio's weights
type Composition struct {
	Holdings       []Holding
	CategoryWeight map[Category]float64
	BlockWeight    map[string]float64

	Equity       float64
	Bond         float64
	Gold         float64
	Core         float64
	Satellite    float64
	Unclassified float64

	MaxPosition   float64
	Top3          float64
	HHI           float64
	CorePositions int
}

// NewComposition validates weights and resolves every ticker through the taxonomy.
// Weights must be finite, non-negative and sum to 1 within WeightTolerance.
// Zero-weight rows are not holdings and are dropped.
func NewComposition(weights map[string]float64, taxonomy *Taxonomy) (Composition, error) {
	if len(weights) == 0 {
		return Composition{}, fmt.Errorf("%w: portfolio has no holdings", domain.ErrInvalidWeights)
	}
	if taxonomy == nil {
		taxonomy = NewTaxonomy(nil)
	}

	holdings := make([]Holding, 0, len(weights))
	values := make([]float64, 0, len(weights))
	for ticker, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return Composition{}, fmt.Errorf("%w: %s has weight %v", domain.ErrInvalidWeights, ticker, w)
		}
		if w == 0 {
			continue
		}
		profile, known := taxonomy.Lookup(ticker)
		holdings = append(holdings, Holding{Ticker: profile.Ticker, Weight: w, Profile: profile, Known: known})
		values = append(values, w)
	}

	sum := floats.Sum(values)
	if math.Abs(sum-1) > WeightTolerance {
		return Composition{}, fmt.Errorf("%w: weights sum to %.6f, expected 1 ± %g", domain.ErrInvalidWeights, sum, WeightTolerance)
	}

	// Deterministic order regardless of map iteration: heaviest first, ticker as tie-break
	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].Weight != holdings[j].Weight {
			return holdings[i].Weight > holdings[j].Weight
		}
		return holdings[i].Ticker < holdings[j].Ticker
	})

	c := Composition{
		Holdings:       holdings,
		CategoryWeight: make(map[Category]float64),
		BlockWeight:    make(map[string]float64),
	}

	for _, h := range holdings {
		for _, cat := range h.Profile.Categories {
			c.CategoryWeight[cat] += h.Weight
		}
		switch {
		case h.Profile.Has(CategoryBond):
			c.Bond += h.Weight
		case h.Profile.Has(CategoryGold):
			c.Gold += h.Weight
		default:
			c.Equity += h.Weight
			c.BlockWeight[equityBlock(h.Profile)] += h.Weight
		}
		if h.Profile.Has(CategoryWorld) || h.Profile.Has(CategoryRegional) {
			c.CorePositions++
		}
		if !h.Known {
			c.Unclassified += h.Weight
		}
	}

	c.Core = c.CategoryWeight[CategoryWorld] + c.CategoryWeight[CategoryRegional]
	c.Satellite = c.CategoryWeight[CategoryThematic] + c.CategoryWeight[CategorySector]

	ws := c.weights()
	c.MaxPosition = floats.Max(ws)
	c.HHI = floats.Dot(ws, ws)
	for i := 0; i < len(ws) && i < 3; i++ {
		c.Top3 += ws[i]
	}

	return c, nil
}

// Weight returns the total weight of a category
func (c Composition) Weight(cat Category) float64 {
	return c.CategoryWeight[cat]
}

// Defensive is the combined bond and gold weight
func (c Composition) Defensive() float64 {
	return c.Bond + c.Gold
}

// IsAllEquity reports whether the portfolio holds no bond or gold
func (c Composition) IsAllEquity() bool {
	return c.Equity >= 1-WeightTolerance
}

// EquityBlocks returns the number of equity blocks with non-zero weight
func (c Composition) EquityBlocks() int {
	n := 0
	for _, w := range c.BlockWeight {
		if w > 0 {
			n++
		}
	}
	return n
}

// MaxBlock returns the weight of the heaviest equity block
func (c Composition) MaxBlock() float64 {
	max := 0.0
	for _, w := range c.BlockWeight {
		if w > max {
			max = w
		}
	}
	return max
}

// EffectivePositions is 1/HHI
func (c Composition) EffectivePositions() float64 {
	if c.HHI == 0 {
		return 0
	}
	return 1 / c.HHI
}

func (c Composition) weights() []float64 {
	ws := make([]float64, len(c.Holdings))
	for i, h := range c.Holdings {
		ws[i] = h.Weight
	}
	return ws
}

func equityBlock(p AssetProfile) string {
	switch {
	case p.Has(CategoryDividend):
		return BlockIncome
	case p.Has(CategoryWorld):
		return BlockCoreGlobal
	case p.Has(CategoryRegional):
		return BlockCoreRegional
	case p.Has(CategorySingleCountry):
		return BlockSingleCountry
	case p.Has(CategoryEM):
		return BlockEmerging
	case p.Has(CategorySmallCap):
		return BlockSmallCap
	case p.Has(CategoryFactor):
		return BlockFactor
	case p.Has(CategoryThematic), p.Has(CategorySector):
		return BlockSatellite
	case p.Has(CategoryREIT):
		return BlockRealEstate
	default:
		return BlockSingleStock
	}
}
