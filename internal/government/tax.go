package government

import (
	"sort"

	"github.com/talgya/statecraft/internal/gamemath"
)

// Bracket is one income-tax band: income above Threshold pays Rate percent.
type Bracket struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

// TaxSchedule holds every tax rate. Rates are percents.
type TaxSchedule struct {
	IncomeBrackets []Bracket `json:"income_brackets"`
	Corporate      float64   `json:"corporate"`
	Sales          float64   `json:"sales"`
	Property       float64   `json:"property"`
	CapitalGains   float64   `json:"capital_gains"`
}

// DefaultTaxSchedule returns the UK-like starting schedule.
func DefaultTaxSchedule() TaxSchedule {
	return TaxSchedule{
		IncomeBrackets: []Bracket{
			{Threshold: 12570, Rate: 20},
			{Threshold: 50270, Rate: 40},
			{Threshold: 125140, Rate: 45},
		},
		Corporate:    20,
		Sales:        5,
		Property:     1,
		CapitalGains: 15,
	}
}

// IncomeTax applies the brackets progressively: each slice of income above a
// threshold is taxed at that bracket's rate.
func (t TaxSchedule) IncomeTax(income float64) float64 {
	brackets := append([]Bracket(nil), t.IncomeBrackets...)
	sort.Slice(brackets, func(i, j int) bool { return brackets[i].Threshold > brackets[j].Threshold })

	tax := 0.0
	for _, b := range brackets {
		if income > b.Threshold {
			tax += (income - b.Threshold) * b.Rate / 100
			income = b.Threshold
		}
	}
	return tax
}

// EffectiveIncomeRate is the average income-tax rate at income.
func (t TaxSchedule) EffectiveIncomeRate(income float64) float64 {
	return gamemath.SafeDiv(t.IncomeTax(income), income)
}

func (t TaxSchedule) CorporateTax(profit float64) float64  { return profit * t.Corporate / 100 }
func (t TaxSchedule) SalesTax(amount float64) float64      { return amount * t.Sales / 100 }
func (t TaxSchedule) PropertyTax(value float64) float64    { return value * t.Property / 100 }
func (t TaxSchedule) CapitalGainsTax(gain float64) float64 { return gain * t.CapitalGains / 100 }

// TaxBase is the aggregate economy the schedule is applied to.
type TaxBase struct {
	Earners      float64 // Number of people in work
	AvgIncome    float64 // Annual income per earner
	Profits      float64 // Taxable corporate profit; losses are not taxed
	Sales        float64
	Property     float64
	CapitalGains float64
}

// Revenue returns the total tax raised from base.
func (t TaxSchedule) Revenue(base TaxBase) float64 {
	total := t.IncomeTax(base.AvgIncome) * base.Earners
	if base.Profits > 0 {
		total += t.CorporateTax(base.Profits)
	}
	total += t.SalesTax(base.Sales)
	total += t.PropertyTax(base.Property)
	total += t.CapitalGainsTax(base.CapitalGains)
	return total
}
