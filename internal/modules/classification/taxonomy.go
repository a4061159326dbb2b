// Package classification maps portfolio compositions to structural types.
package classification

import (
	"sort"
	"strings"
)

// Category is an asset-class membership used by the classifier rules
type Category string

const (
	CategoryBond          Category = "bond"
	CategoryGold          Category = "gold"
	CategoryDividend      Category = "dividend"
	CategoryWorld         Category = "world"
	CategoryRegional      Category = "regional"
	CategoryEM            Category = "em"
	CategorySmallCap      Category = "small_cap"
	CategoryREIT          Category = "reit"
	CategoryFactor        Category = "factor"
	CategorySector        Category = "sector"
	CategoryThematic      Category = "thematic"
	CategorySingleCountry Category = "single_country"
	CategorySingleStock   Category = "single_stock"
)

// AssetProfile is the taxonomy entry of one ticker
type AssetProfile struct {
	Ticker     string     `json:"ticker" yaml:"ticker"`
	Name       string     `json:"name" yaml:"name"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// Has reports whether the profile belongs to the category
func (p AssetProfile) Has(c Category) bool {
	for _, own := range p.Categories {
		if own == c {
			return true
		}
	}
	return false
}

// IsDefensive reports whether the asset is a bond or gold holding
func (p AssetProfile) IsDefensive() bool {
	return p.Has(CategoryBond) || p.Has(CategoryGold)
}

// Taxonomy resolves tickers to their category memberships.
// It is built explicitly and passed to the classifiers; there is no shared instance.
type Taxonomy struct {
	profiles map[string]AssetProfile
}

// NewTaxonomy builds a taxonomy from the given profiles. Later entries win on duplicates.
func NewTaxonomy(profiles []AssetProfile) *Taxonomy {
	t := &Taxonomy{profiles: make(map[string]AssetProfile, len(profiles))}
	for _, p := range profiles {
		key := normalizeTicker(p.Ticker)
		if key == "" {
			continue
		}
		p.Ticker = key
		t.profiles[key] = p
	}
	return t
}

// Lookup returns the profile for a ticker. Exchange suffixes ("VWCE.DE") are ignored.
func (t *Taxonomy) Lookup(ticker string) (AssetProfile, bool) {
	key := normalizeTicker(ticker)
	if p, ok := t.profiles[key]; ok {
		return p, true
	}
	if i := strings.IndexByte(key, '.'); i > 0 {
		if p, ok := t.profiles[key[:i]]; ok {
			return p, true
		}
	}
	return AssetProfile{Ticker: key}, false
}

// Tickers lists known tickers in sorted order
func (t *Taxonomy) Tickers() []string {
	out := make([]string, 0, len(t.profiles))
	for k := range t.profiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Extend returns a new taxonomy with the extra profiles added. Extra entries
// replace existing ones with the same ticker.
func (t *Taxonomy) Extend(extra []AssetProfile) *Taxonomy {
	profiles := make([]AssetProfile, 0, len(t.profiles)+len(extra))
	for _, k := range t.Tickers() {
		profiles = append(profiles, t.profiles[k])
	}
	return NewTaxonomy(append(profiles, extra...))
}

// Len returns the number of known tickers
func (t *Taxonomy) Len() int {
	return len(t.profiles)
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// DefaultTaxonomy returns the built-in ETF taxonomy
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy(defaultProfiles())
}

func defaultProfiles() []AssetProfile {
	p := func(ticker, name string, cats ...Category) AssetProfile {
		return AssetProfile{Ticker: ticker, Name: name, Categories: cats}
	}
	return []AssetProfile{
		// Global core
		p("VT", "Vanguard Total World Stock", CategoryWorld),
		p("VWCE", "Vanguard FTSE All-World Acc", CategoryWorld),
		p("VWRL", "Vanguard FTSE All-World Dist", CategoryWorld),
		p("SWDA", "iShares Core MSCI World", CategoryWorld),
		p("IWDA", "iShares Core MSCI World", CategoryWorld),
		p("ACWI", "iShares MSCI ACWI", CategoryWorld),
		p("SSAC", "iShares MSCI ACWI Acc", CategoryWorld),
		p("URTH", "iShares MSCI World", CategoryWorld),

		// Regional core
		p("VTI", "Vanguard Total Stock Market", CategoryRegional),
		p("VOO", "Vanguard S&P 500", CategoryRegional),
		p("SPY", "SPDR S&P 500", CategoryRegional),
		p("CSPX", "iShares Core S&P 500", CategoryRegional),
		p("VUAA", "Vanguard S&P 500 Acc", CategoryRegional),
		p("MEUD", "Amundi Stoxx Europe 600", CategoryRegional),
		p("VGK", "Vanguard FTSE Europe", CategoryRegional),
		p("EXSA", "iShares Stoxx Europe 600", CategoryRegional),

		// Emerging markets
		p("EIMI", "iShares Core MSCI EM IMI", CategoryEM),
		p("VWO", "Vanguard FTSE Emerging Markets", CategoryEM),
		p("IEMG", "iShares Core MSCI EM", CategoryEM),
		p("VFEM", "Vanguard FTSE Emerging Markets", CategoryEM),

		// Small cap
		p("IUSN", "iShares MSCI World Small Cap", CategorySmallCap),
		p("ZPRV", "SPDR USA Small Cap Value", CategorySmallCap, CategoryFactor),
		p("ZPRX", "SPDR Europe Small Cap Value", CategorySmallCap, CategoryFactor),
		p("AVUV", "Avantis US Small Cap Value", CategorySmallCap, CategoryFactor),

		// Factor
		p("IWMO", "iShares MSCI World Momentum", CategoryFactor),
		p("IWVL", "iShares MSCI World Value", CategoryFactor),
		p("IWQU", "iShares MSCI World Quality", CategoryFactor),
		p("MVOL", "iShares MSCI World Min Vol", CategoryFactor),
		p("USMV", "iShares MSCI USA Min Vol", CategoryFactor),

		// Sector
		p("XLK", "Technology Select Sector", CategorySector),
		p("VGT", "Vanguard Information Technology", CategorySector),
		p("QQQ", "Invesco QQQ", CategorySector),
		p("XLE", "Energy Select Sector", CategorySector),
		p("IXJ", "iShares Global Healthcare", CategorySector),
		p("XLU", "Utilities Select Sector", CategorySector),

		// Thematic
		p("ICLN", "iShares Global Clean Energy", CategoryThematic),
		p("BOTZ", "Global X Robotics & AI", CategoryThematic),
		p("ARKK", "ARK Innovation", CategoryThematic),
		p("LIT", "Global X Lithium & Battery", CategoryThematic),
		p("URA", "Global X Uranium", CategoryThematic),
		p("SMH", "VanEck Semiconductor", CategoryThematic, CategorySector),

		// Single country
		p("EWJ", "iShares MSCI Japan", CategorySingleCountry),
		p("INDA", "iShares MSCI India", CategorySingleCountry, CategoryEM),
		p("EWZ", "iShares MSCI Brazil", CategorySingleCountry, CategoryEM),
		p("MCHI", "iShares MSCI China", CategorySingleCountry, CategoryEM),

		// Real estate
		p("VNQ", "Vanguard Real Estate", CategoryREIT),
		p("IWDP", "iShares Developed Markets Property", CategoryREIT),

		// Dividend / income
		p("VHYL", "Vanguard FTSE All-World High Dividend", CategoryDividend, CategoryWorld),
		p("SCHD", "Schwab US Dividend Equity", CategoryDividend, CategoryRegional),
		p("VIG", "Vanguard Dividend Appreciation", CategoryDividend, CategoryRegional),
		p("TDIV", "VanEck Morningstar Developed Dividend", CategoryDividend),
		p("FGQI", "Fidelity Global Quality Income", CategoryDividend, CategoryFactor),

		// Bonds
		p("AGGH", "iShares Core Global Aggregate Bond", CategoryBond),
		p("BND", "Vanguard Total Bond Market", CategoryBond),
		p("AGG", "iShares Core US Aggregate Bond", CategoryBond),
		p("TLT", "iShares 20+ Year Treasury", CategoryBond),
		p("IEF", "iShares 7-10 Year Treasury", CategoryBond),
		p("VGEA", "Vanguard EUR Government Bond", CategoryBond),
		p("IBGS", "iShares EUR Govt Bond 1-3yr", CategoryBond),

		// Gold
		p("SGLD", "Invesco Physical Gold", CategoryGold),
		p("GLD", "SPDR Gold Shares", CategoryGold),
		p("IAU", "iShares Gold Trust", CategoryGold),
		p("PHAU", "WisdomTree Physical Gold", CategoryGold),
	}
}
