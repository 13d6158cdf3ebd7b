// Package strategy holds the economic decision rules AI countries follow:
// tariff setting, macro policy, needs assessment, crisis programmes and
// corporate competition. The rules are pure; Model only caches recent
// decisions per country for inspection.
package strategy

import (
	"math"
	"sort"

	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

const decisionCacheLen = 12

// EconomicState is the macro view a decision is made from. GDP figures are
// £bn, growth and inflation are fractions, debt-to-GDP is a percent.
type EconomicState struct {
	GDP          float64 `json:"gdp"`
	PotentialGDP float64 `json:"potential_gdp"`
	GDPGrowth    float64 `json:"gdp_growth"`
	Inflation    float64 `json:"inflation"`
	DebtToGDP    float64 `json:"debt_to_gdp"`
	TradeBalance float64 `json:"trade_balance"`
}

// StateOf reads a country's own economic state.
func StateOf(c *world.Country) EconomicState {
	return EconomicState{
		GDP:          c.GDP,
		PotentialGDP: c.Conditions.PotentialGDP,
		GDPGrowth:    c.Conditions.GDPGrowth,
		Inflation:    c.Conditions.Inflation,
		DebtToGDP:    c.Conditions.DebtToGDP,
		TradeBalance: c.Conditions.TradeBalance,
	}
}

// SectorTariff is a tariff rate (fraction) on one sector.
type SectorTariff struct {
	Sector string  `json:"sector"`
	Rate   float64 `json:"rate"`
}

// PolicyChanges is a macro policy decision. InterestRate is the new policy
// rate in percent; GovernmentSpending is a stimulus in £bn.
type PolicyChanges struct {
	TaxRate            float64 `json:"tax_rate"`
	InterestRate       float64 `json:"interest_rate"`
	GovernmentSpending float64 `json:"government_spending"`
	MoneySupply        float64 `json:"money_supply"`
}

// Needs is how urgently a country needs progress in each goal area, 0–1.
type Needs struct {
	Economic   float64 `json:"economic"`
	Military   float64 `json:"military"`
	Diplomatic float64 `json:"diplomatic"`
}

// Model evaluates the decision rules.
type Model struct {
	baseCompetitiveness float64
	decisions           map[string][]PolicyChanges
}

// NewModel creates a model with an empty decision cache.
func NewModel() *Model {
	return &Model{
		baseCompetitiveness: 0.5,
		decisions:           make(map[string][]PolicyChanges),
	}
}

var sectorElasticities = map[string]float64{
	"technology":      1.2,
	"manufacturing":   0.8,
	"energy":          0.6,
	"pharmaceuticals": 1.0,
}

// SectorElasticity is how strongly a sector reacts to foreign tariffs.
func SectorElasticity(sector string) float64 {
	if e, ok := sectorElasticities[sector]; ok {
		return e
	}
	return 1.0
}

// Protectionism is a country's inclination to shield its industry.
func Protectionism(t world.Traits) float64 {
	return t.Aggression*0.8 + (1-t.Innovation)*0.2
}

// StrategicSectors are the sectors holding at least a tenth of a country's
// economy, or all of them if none do.
func StrategicSectors(c *world.Country) []string {
	var out []string
	for _, s := range world.SortedKeys(c.Sectors) {
		if c.Sectors[s] >= 0.1 {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = world.SortedKeys(c.Sectors)
	}
	return out
}

// CalculateTariffs sets a tariff on each strategic sector from the country's
// protectionism, exposure to the player's tariffs and its trade balance.
func (m *Model) CalculateTariffs(c *world.Country, state EconomicState, playerTariffs map[string]float64) []SectorTariff {
	protectionism := Protectionism(c.Traits)
	// Balance is in £bn; the rule is written for pounds over 1e9.
	tradeBalanceImpact := 1 - math.Tanh(state.TradeBalance)

	sectors := StrategicSectors(c)
	out := make([]SectorTariff, 0, len(sectors))
	for _, sector := range sectors {
		vulnerability := playerTariffs[sector] * c.Sectors[sector] * SectorElasticity(sector)
		rate := (protectionism*0.4 + vulnerability*0.3 + tradeBalanceImpact*0.3) * 0.25
		out = append(out, SectorTariff{Sector: sector, Rate: gamemath.Clamp(rate, 0, 0.4)})
	}
	return out
}

// DeterminePolicyChanges applies a modified Taylor rule, stimulus in a
// recessionary gap and austerity above 90% debt-to-GDP.
func (m *Model) DeterminePolicyChanges(c *world.Country, state EconomicState) PolicyChanges {
	var ch PolicyChanges
	inflationGap := state.Inflation - c.InflationTarget
	outputGap := gamemath.SafeDiv(state.GDP-state.PotentialGDP, state.PotentialGDP)

	ch.InterestRate = 1.5*inflationGap + 0.5*outputGap + 1.0

	if outputGap < -0.02 {
		ch.GovernmentSpending = math.Min(0.05*state.GDP, c.FiscalSpace*0.8)
		ch.TaxRate = -0.02 * c.Traits.RiskAppetite
	}
	if state.DebtToGDP > 90 {
		ch.GovernmentSpending *= 0.5
		ch.TaxRate += 0.01 * (state.DebtToGDP / 90)
	}

	m.remember(c.Name, ch)
	return ch
}

// MilitaryPressure is the mean amount by which stronger neighbours exceed
// the country's own strength.
func MilitaryPressure(c *world.Country, neighbors []*world.Country) float64 {
	if len(neighbors) == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range neighbors {
		ratio := gamemath.SafeDiv(n.MilitaryStrength, c.MilitaryStrength)
		if ratio > 1 {
			sum += ratio - 1
		}
	}
	return sum / float64(len(neighbors))
}

// AnalyzeNeeds blends growth shortfall, inflation deviation, neighbour
// pressure and alliance deficit into a need vector. allianceStrength is the
// sum of strength×trust over the country's alliances. Needs carry no
// personality; PrioritizeGoals applies the traits.
func (m *Model) AnalyzeNeeds(c *world.Country, neighbors []*world.Country, allianceStrength float64) Needs {
	shortfall := math.Max(0, c.GrowthTarget-c.Conditions.GDPGrowth)
	inflationRisk := math.Abs(c.Conditions.Inflation - c.InflationTarget)

	return Needs{
		// A ten-point miss saturates the need.
		Economic:   gamemath.Clamp01((shortfall*0.7 + inflationRisk*0.3) * 10),
		Military:   gamemath.Clamp01(MilitaryPressure(c, neighbors)),
		Diplomatic: gamemath.Clamp01(1 - allianceStrength),
	}
}

// PrioritizeGoals weights each need by personality and keeps the top two.
func PrioritizeGoals(n Needs, t world.Traits) []world.Goal {
	type weighted struct {
		goal   world.Goal
		weight float64
	}
	ws := []weighted{
		{world.GoalEconomic, t.EconomicFocus * n.Economic},
		{world.GoalMilitary, t.Aggression * n.Military},
		{world.GoalDiplomatic, (1 - t.Aggression) * n.Diplomatic},
	}
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].weight > ws[j].weight })
	return []world.Goal{ws[0].goal, ws[1].goal}
}

// DetermineCompetitiveAction picks a leader or challenger strategy for an AI
// company facing the player's companies in its sector.
func (m *Model) DetermineCompetitiveAction(company economy.Company, competitors []economy.Company, t world.Traits) economy.CompetitiveAction {
	total := company.MarketShare
	for _, c := range competitors {
		total += c.MarketShare
	}
	share := gamemath.SafeDiv(company.MarketShare, total)

	var a economy.CompetitiveAction
	if share > 0.4 {
		a.PriceAdjustment = -0.02 * t.Aggression
		a.QualityInvestment = 0.1 * t.Innovation
	} else {
		a.PriceAdjustment = -0.05 * t.RiskAppetite
		a.MarketingBoost = 0.15 * (1 - t.Innovation)
	}
	a.RDFocus = math.Min(t.Innovation*0.2+(1-m.baseCompetitiveness)*0.1, 0.3)
	return a
}

// Decisions returns the cached recent policy decisions for a country.
func (m *Model) Decisions(country string) []PolicyChanges {
	return append([]PolicyChanges(nil), m.decisions[country]...)
}

func (m *Model) remember(country string, ch PolicyChanges) {
	d := append(m.decisions[country], ch)
	if len(d) > decisionCacheLen {
		d = d[len(d)-decisionCacheLen:]
	}
	m.decisions[country] = d
}
