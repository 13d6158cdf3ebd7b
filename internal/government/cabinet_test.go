package government

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomeTaxIsProgressive(t *testing.T) {
	s := DefaultTaxSchedule()

	assert.Equal(t, 0.0, s.IncomeTax(10000))
	assert.InDelta(t, (30000-12570)*0.2, s.IncomeTax(30000), 1e-9)
	want := (60000-50270)*0.4 + (50270-12570)*0.2
	assert.InDelta(t, want, s.IncomeTax(60000), 1e-9)
	assert.Equal(t, 0.0, s.EffectiveIncomeRate(0))
}

func TestTaxRevenue(t *testing.T) {
	s := TaxSchedule{Corporate: 20, Sales: 5, Property: 1, CapitalGains: 15}
	got := s.Revenue(TaxBase{Profits: 100, Sales: 200, Property: 1000, CapitalGains: 10})
	assert.InDelta(t, 20+10+10+1.5, got, 1e-9)

	// Losses are not taxed.
	assert.InDelta(t, 0, s.Revenue(TaxBase{Profits: -500}), 1e-9)
}

func TestCabinetRevenueAtBaselineEfficiency(t *testing.T) {
	c := NewCabinet(nil)
	base := TaxBase{Earners: 1, AvgIncome: 30000}
	assert.InDelta(t, c.Tax.Revenue(base), c.TaxRevenue(base), 1e-9)
}

func TestCabinetFinances(t *testing.T) {
	c := NewCabinet(nil)
	assert.Equal(t, 0.0, c.TariffRevenue(1000))

	c.Foreign.Tariffs["steel"] = 0.1
	c.Foreign.Tariffs["cars"] = 0.3
	assert.InDelta(t, 200, c.TariffRevenue(1000), 1e-9)
	assert.InDelta(t, 0.2, c.AverageTariff(), 1e-9)

	c.Monetary.InterestRate = 6
	assert.InDelta(t, 50, c.DebtInterest(10000), 1e-9)
	assert.Equal(t, 0.0, c.DebtInterest(-5))

	sum := 0.0
	for _, d := range c.Departments() {
		sum += d.MonthlyCost()
	}
	assert.InDelta(t, sum, c.TotalSpending(), 1e-6)
}

func TestPoliciesRoundTrip(t *testing.T) {
	c := NewCabinet(nil)
	c.Monetary.InterestRate = 3
	c.Subsidies["energy"] = 1e6
	c.Department(KindDefense).SetMetric("soldiers", 170000)
	c.SimulateMonth()

	raw, err := c.MarshalPolicies()
	require.NoError(t, err)

	other := NewCabinet(nil)
	p, err := DecodePolicies(raw, nil)
	require.NoError(t, err)
	other.Apply(p)

	assert.Equal(t, c.Monetary, other.Monetary)
	assert.Equal(t, c.Subsidies, other.Subsidies)
	assert.InDelta(t, c.TotalSpending(), other.TotalSpending(), 1e-6)
	assert.Equal(t, c.Department(KindDefense).Performance, other.Department(KindDefense).Performance)
	assert.Len(t, other.Department(KindHealthcare).History, 1)

	_, err = DecodePolicies([]byte(`{"departments":{}}`), nil)
	assert.Error(t, err)
}

func TestDepartmentByName(t *testing.T) {
	c := NewCabinet(nil)
	d, err := c.DepartmentByName("welfare")
	require.NoError(t, err)
	assert.Equal(t, KindWelfare, d.Kind)

	_, err = c.DepartmentByName("magic")
	assert.ErrorIs(t, err, ErrUnknownDepartment)
}
