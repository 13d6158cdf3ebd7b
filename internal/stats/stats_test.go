package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatesAreZeroOnZeroDivisors(t *testing.T) {
	m := NewManager()
	m.UpdateEconomic(Economic{Unemployed: 10, LaborForce: 0, CPI: 105, PreviousCPI: 0})
	m.UpdateSocial(Social{BelowPovertyLine: 5, TotalPopulation: 0})
	m.UpdateEducation(Education{LiteratePopulation: 7, TotalPopulation: 0})

	s := m.Summary()
	for name, v := range map[string]float64{
		"unemployment": s.UnemploymentRate,
		"inflation":    s.InflationRate,
		"poverty":      s.PovertyRate,
		"literacy":     s.LiteracyRate,
	} {
		assert.False(t, math.IsNaN(v), name)
		assert.Equal(t, 0.0, v, name)
	}
}

func TestDerivedRates(t *testing.T) {
	m := NewManager()
	m.UpdateEconomic(Economic{
		Consumption: 60, Investment: 20, GovernmentSpending: 25, NetExports: -5,
		Unemployed: 2, LaborForce: 40, CPI: 103, PreviousCPI: 100,
	})
	m.UpdateEducation(Education{LiteratePopulation: 99, TotalPopulation: 100})

	assert.InDelta(t, 100, m.GDP(), 1e-9)
	assert.InDelta(t, 5, m.UnemploymentRate(), 1e-9)
	assert.InDelta(t, 3, m.InflationRate(), 1e-9)
	assert.InDelta(t, 99, m.LiteracyRate(), 1e-9)
	assert.Equal(t, []float64{100}, m.History(SeriesGDP))
}

func TestSimulatePolicyImpact(t *testing.T) {
	m := NewManager()
	m.UpdateEconomic(Economic{Consumption: 100, GovernmentSpending: 50})
	m.UpdateSocial(Social{BelowPovertyLine: 10000, TotalPopulation: 100000})
	m.UpdateEnvironmental(Environmental{TotalEmissions: 400})

	m.SimulatePolicyImpact(Policy{Kind: PolicyTaxIncrease, Amount: 10})
	assert.InDelta(t, 95, m.Economic().Consumption, 1e-9)
	assert.InDelta(t, 60, m.Economic().GovernmentSpending, 1e-9)

	m.SimulatePolicyImpact(Policy{Kind: PolicySocialSpending, Amount: 4})
	assert.InDelta(t, 6, m.PovertyRate(), 1e-9)

	m.SimulatePolicyImpact(Policy{Kind: PolicyCarbonTax, Amount: 1})
	assert.Equal(t, 0.0, m.CarbonFootprint())

	before := m.Snapshot()
	m.SimulatePolicyImpact(Policy{Kind: "printMoney", Amount: 1000})
	assert.Equal(t, before, m.Snapshot())

	_, ok := ParsePolicyKind("printMoney")
	assert.False(t, ok)
}

func TestCPITracker(t *testing.T) {
	c := NewCPITracker(100)
	c.Simulate(2)
	assert.InDelta(t, 102, c.Current(), 1e-9)
	assert.InDelta(t, 2, c.Rate(), 1e-9)

	z := NewCPITracker(0)
	z.Update(50)
	assert.Equal(t, 0.0, z.Rate())
}

func TestTradeTracker(t *testing.T) {
	m := NewManager()
	m.RecordTrade(30, 45)
	assert.InDelta(t, -15, m.Trade().Balance(), 1e-9)
	assert.InDelta(t, -15, m.Economic().NetExports, 1e-9)

	m.Trade().Simulate(10, -20)
	assert.InDelta(t, 33-36, m.Trade().Balance(), 1e-9)
}

func TestSnapshotRestore(t *testing.T) {
	m := NewManager()
	m.UpdateEconomic(Economic{Consumption: 10, LaborForce: 10, Unemployed: 1})
	m.RecordPriceChange(4)
	snap := m.Snapshot()

	other := NewManager()
	require.NoError(t, other.Restore(snap))
	assert.Equal(t, m.Summary(), other.Summary())
	assert.Equal(t, m.History(SeriesUnemployment), other.History(SeriesUnemployment))

	snap.History["nonsense"] = []float64{1}
	assert.Error(t, other.Restore(snap))
}
