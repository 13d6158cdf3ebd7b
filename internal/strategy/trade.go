package strategy

import (
	"math"

	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// MeasureKind is a retaliatory economic measure.
type MeasureKind string

const (
	MeasureTariff   MeasureKind = "tariff"
	MeasureSanction MeasureKind = "sanction"
	MeasureQuota    MeasureKind = "quota"
)

// Measure is one retaliatory step against Target.
type Measure struct {
	Kind   MeasureKind `json:"kind"`
	Target string      `json:"target"`
	Sector string      `json:"sector"`
	Value  float64     `json:"value"`
}

// GenerateRetaliatoryMeasures answers a tariff of rate on sector imposed by
// target. Aggressive countries escalate to sanctions, protectionist ones add
// import quotas.
func (m *Model) GenerateRetaliatoryMeasures(c *world.Country, target, sector string, rate float64) []Measure {
	t := c.Traits
	out := []Measure{{
		Kind:   MeasureTariff,
		Target: target,
		Sector: sector,
		Value:  gamemath.Clamp(rate*(0.5+t.Aggression), 0, 0.4),
	}}
	if t.Aggression > 0.6 {
		out = append(out, Measure{Kind: MeasureSanction, Target: target, Value: t.Aggression})
	}
	if Protectionism(t) > 0.6 {
		out = append(out, Measure{Kind: MeasureQuota, Target: target, Sector: sector, Value: 1 - Protectionism(t)})
	}
	return out
}

// TradeResult is the player's trade this year, £bn.
type TradeResult struct {
	Exports float64 `json:"exports"`
	Imports float64 `json:"imports"`
	Balance float64 `json:"balance"`
}

// TradeInputs is everything the global trade calculation reads.
type TradeInputs struct {
	Player          *world.Country
	Partners        []*world.Country
	PlayerTariffs   map[string]float64 // Player's import tariffs by sector
	CurrencyValue   float64            // Player currency, 1 = baseline
	Competitiveness map[string]float64 // Player sector profit margins
	MarketShares    map[string]float64 // Country share of global company revenue
	ExportFactor    float64            // Engine export multiplier
	ImportFactor    float64            // Engine import multiplier (negative)
}

// CalculateGlobalTrade derives the player's exports and imports from the
// tariffs each side charges, currency strength and company competitiveness.
func (m *Model) CalculateGlobalTrade(in TradeInputs) TradeResult {
	p := in.Player
	if p == nil {
		return TradeResult{}
	}
	currency := in.CurrencyValue
	if currency <= 0 {
		currency = 1
	}

	// Average tariff partners charge on the player's export sectors.
	barrier := 0.0
	for _, partner := range in.Partners {
		sum, n := 0.0, 0
		for sector := range p.Sectors {
			if rate, ok := partner.Tariffs[sector]; ok {
				sum += rate * SectorElasticity(sector)
				n++
			}
		}
		barrier += gamemath.SafeDiv(sum, float64(n))
	}
	barrier = gamemath.SafeDiv(barrier, float64(len(in.Partners)))

	margin, n := 0.0, 0
	for _, v := range in.Competitiveness {
		margin += v
		n++
	}
	margin = gamemath.SafeDiv(margin, float64(n))

	playerTariff, n := 0.0, 0
	for _, rate := range in.PlayerTariffs {
		playerTariff += rate
		n++
	}
	playerTariff = gamemath.SafeDiv(playerTariff, float64(n))

	share := in.MarketShares[p.Name]
	exportFactor := 1 + in.ExportFactor*(share+margin)
	importFactor := 1 + in.ImportFactor*playerTariff*2

	exports := p.Exports * (1 - barrier) * exportFactor / math.Sqrt(currency)
	imports := p.Imports * importFactor * math.Sqrt(currency)
	exports = math.Max(exports, 0)
	imports = math.Max(imports, 0)

	return TradeResult{Exports: exports, Imports: imports, Balance: exports - imports}
}
