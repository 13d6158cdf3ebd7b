package strategy

import "github.com/talgya/statecraft/internal/world"

// CrisisKind is a macro-financial crisis with a known programme.
type CrisisKind string

const (
	CrisisNone           CrisisKind = ""
	CrisisHyperinflation CrisisKind = "hyperinflation"
	CrisisDebtDefault    CrisisKind = "debt_default"
	CrisisCurrency       CrisisKind = "currency_crisis"
)

// Structural measures.
const (
	MeasurePensionReform         = "pension_reform"
	MeasurePrivatization         = "privatization"
	MeasureLaborFlex             = "labor_market_flexibility"
	MeasureDigitalTransformation = "digital_transformation"
)

// MonetaryMeasures are changes to the policy rate (points), money supply and
// reserves (fractions).
type MonetaryMeasures struct {
	InterestRate    float64 `json:"interest_rate"`
	MoneySupply     float64 `json:"money_supply"`
	ForeignReserves float64 `json:"foreign_reserves"`
}

// FiscalMeasures are fractional spending cuts and tax rises.
type FiscalMeasures struct {
	SpendingCut float64 `json:"spending_cut"`
	TaxIncrease float64 `json:"tax_increase"`
}

// CrisisResponse is a crisis programme.
type CrisisResponse struct {
	Kind            CrisisKind       `json:"kind"`
	Monetary        MonetaryMeasures `json:"monetary"`
	Fiscal          FiscalMeasures   `json:"fiscal"`
	Structural      []string         `json:"structural"`
	CapitalControls bool             `json:"capital_controls"`
}

// IdentifyCrisis classifies a country's macro-financial crisis, if any.
func IdentifyCrisis(c *world.Country) CrisisKind {
	cond := c.Conditions
	switch {
	case cond.Inflation > 0.25:
		return CrisisHyperinflation
	case cond.DebtToGDP > 120:
		return CrisisDebtDefault
	case c.GDP > 0 && cond.TradeBalance < -0.05*c.GDP:
		return CrisisCurrency
	}
	return CrisisNone
}

// GenerateCrisisResponse builds the programme for kind and adjusts it to the
// country's personality. CrisisNone yields an empty programme.
func (m *Model) GenerateCrisisResponse(t world.Traits, kind CrisisKind) CrisisResponse {
	r := CrisisResponse{Kind: kind}
	switch kind {
	case CrisisHyperinflation:
		r.Monetary = MonetaryMeasures{InterestRate: 5.0, MoneySupply: -0.3}
		r.Fiscal = FiscalMeasures{SpendingCut: 0.15, TaxIncrease: 0.03}
	case CrisisDebtDefault:
		r.Structural = append(r.Structural, MeasurePensionReform, MeasurePrivatization, MeasureLaborFlex)
		r.Monetary.InterestRate = 3.0
	case CrisisCurrency:
		r.Monetary = MonetaryMeasures{InterestRate: 7.0, ForeignReserves: -0.4}
		r.CapitalControls = true
	default:
		return r
	}

	if t.RiskAppetite < 0.3 {
		r.Monetary.InterestRate *= 1.2
		r.Fiscal.SpendingCut *= 0.8
	}
	if t.Innovation > 0.7 {
		r.Structural = append(r.Structural, MeasureDigitalTransformation)
	}
	return r
}
