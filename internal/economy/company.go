// Package economy owns the corporate ledger: every company in the world, its
// monthly market simulation and the sector aggregates the engine reads.
package economy

// Sector growth rates applied to demand-adjusted base revenue each month.
var sectorGrowthRates = map[string]float64{
	"technology":      0.05,
	"manufacturing":   0.03,
	"finance":         0.04,
	"pharmaceuticals": 0.06,
	"retail":          0.02,
	"energy":          0.03,
	"aerospace":       0.04,
	"telecoms":        0.05,
	"agriculture":     0.02,
	"services":        0.03,
}

const defaultSectorGrowth = 0.03

// SectorGrowthRate returns the fixed growth rate for a sector.
func SectorGrowthRate(sector string) float64 {
	if r, ok := sectorGrowthRates[sector]; ok {
		return r
	}
	return defaultSectorGrowth
}

// Company is one corporate entity. Money amounts are in pounds per month.
type Company struct {
	Name       string `json:"name"`
	Country    string `json:"country"`
	Sector     string `json:"sector"`
	StateOwned bool   `json:"state_owned"`

	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Profit       float64 `json:"profit"`
	Investment   float64 `json:"investment"`
	Employees    float64 `json:"employees"`
	AvgSalary    float64 `json:"avg_salary"`
	Assets       float64 `json:"assets"`
	MarketShare  float64 `json:"market_share"`
	MarketCap    float64 `json:"market_cap"`
	Subsidies    float64 `json:"subsidies"`
	BaseRevenue  float64 `json:"base_revenue"`
	BaseExpenses float64 `json:"base_expenses"`

	Strategy *CompetitiveAction `json:"strategy,omitempty"` // Last applied competitive move
}

// CompetitiveAction is a company's response to its competitors. Fractions
// apply to the company's base figures.
type CompetitiveAction struct {
	PriceAdjustment   float64 `json:"price_adjustment"` // Negative is a price cut
	QualityInvestment float64 `json:"quality_investment"`
	MarketingBoost    float64 `json:"marketing_boost"`
	RDFocus           float64 `json:"rd_focus"`
}

// MarketConfig carries the macro conditions for one market simulation pass.
// Inflation and InterestRate are percents; ConsumerDemand is a percent
// boost to demand.
type MarketConfig struct {
	Inflation       float64
	InterestRate    float64
	ConsumerDemand  float64
	SectorSubsidies map[string]float64
}

// SectorMetrics aggregates all companies of one sector.
type SectorMetrics struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalProfit     float64 `json:"total_profit"`
	TotalInvestment float64 `json:"total_investment"`
	TotalEmployees  float64 `json:"total_employees"`
	MarketShare     float64 `json:"market_share"` // Share of total market revenue
}

func (c *Company) simulateRevenue(demandFactor, inflationFactor float64) float64 {
	base := c.BaseRevenue * demandFactor
	return base*inflationFactor + base*SectorGrowthRate(c.Sector)
}

func (c *Company) simulateExpenses(inflationFactor float64) float64 {
	labor := c.Employees * c.AvgSalary * inflationFactor
	maintenance := c.Assets * 0.05
	return c.BaseExpenses*inflationFactor + labor + maintenance
}

// applyStrategy folds a competitive action into the company's base figures.
// Price cuts and marketing lift volume; quality and marketing cost money; R&D
// raises investment.
func (c *Company) applyStrategy(a CompetitiveAction) {
	c.BaseRevenue *= 1 - a.PriceAdjustment*0.5 + a.MarketingBoost*0.2 + a.QualityInvestment*0.2
	c.BaseExpenses *= 1 + a.MarketingBoost*0.1 + a.QualityInvestment*0.1
	c.Investment *= 1 + a.RDFocus
	applied := a
	c.Strategy = &applied
}
