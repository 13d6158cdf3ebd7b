package crisis

import (
	"math"

	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// Economic crisis subtypes.
const (
	SubtypeHyperinflation = "hyperinflation"
	SubtypeDebtCrisis     = "debt_crisis"
	SubtypeBankingCrisis  = "banking_crisis"
)

// Response is the set of measures a country takes against a crisis.
type Response struct {
	Kind                     Kind     `json:"kind"`
	Subtype                  string   `json:"subtype,omitempty"`
	Measures                 []string `json:"measures"`
	EffectivenessCoefficient float64  `json:"effectiveness_coefficient"`
	EconomicImpact           float64  `json:"economic_impact"`
}

type responseRow struct {
	measures    []string
	coefficient float64
	impact      float64
}

var economicResponses = map[string]responseRow{
	SubtypeHyperinflation: {[]string{"monetary_stabilization", "fiscal_austerity", "currency_peg"}, 0.65, -0.15},
	SubtypeDebtCrisis:     {[]string{"debt_restructuring", "imf_bailout", "privatization"}, 0.55, -0.25},
	SubtypeBankingCrisis:  {[]string{"bank_recapitalization", "deposit_insurance", "liquidity_injection"}, 0.75, -0.1},
}

var (
	severeThreat   = responseRow{[]string{"mobilization", "alliance_activation", "strategic_defense_preparation"}, 0.9, -0.3}
	moderateThreat = responseRow{[]string{"diplomatic_engagement", "border_fortification", "intelligence_surge"}, 0.9, -0.3}

	politicalCollapse = responseRow{[]string{"emergency_powers", "coalition_building", "security_deployment"}, 0.6, -0.1}
	politicalUnrest   = responseRow{[]string{"cabinet_reshuffle", "public_consultation", "reform_package"}, 0.7, -0.05}

	environmentalDisaster = responseRow{[]string{"emergency_cleanup", "emission_caps", "disaster_relief"}, 0.6, -0.2}
	environmentalDecline  = responseRow{[]string{"environmental_regulation", "green_investment", "monitoring_expansion"}, 0.7, -0.08}
)

func (r responseRow) response(k Kind) Response {
	return Response{
		Kind:                     k,
		Measures:                 append([]string(nil), r.measures...),
		EffectivenessCoefficient: r.coefficient,
		EconomicImpact:           r.impact,
	}
}

// EconomicSubtype picks the worst of inflation, debt relative to GDP and
// bank weakness, each measured against its detection threshold so 1 means
// "at the line". Ties go to the earlier of the three.
func EconomicSubtype(c *world.Country) string {
	inflation := c.Conditions.Inflation / HyperInflation
	debt := gamemath.SafeDiv(c.GovernmentDebt, c.GDP) * 100 / DebtToGDPLimit
	banking := (1 - bankHealth(c.Conditions)) / (1 - BankHealthFloor)

	subtype, worst := SubtypeHyperinflation, inflation
	if debt > worst {
		subtype, worst = SubtypeDebtCrisis, debt
	}
	if banking > worst {
		subtype = SubtypeBankingCrisis
	}
	return subtype
}

// GenerateResponse builds the response to cr from the kind's table and the
// country's traits. Unknown kinds get an empty response.
func GenerateResponse(c *world.Country, cr Crisis) Response {
	t := c.Traits
	switch cr.Kind {
	case Economic:
		subtype := EconomicSubtype(c)
		r := economicResponses[subtype].response(Economic)
		r.Subtype = subtype
		if t.RiskAppetite < 0.4 {
			r.Measures = append(r.Measures, "foreign_aid_request")
			r.EconomicImpact *= 0.8
		}
		return r

	case Military:
		row := moderateThreat
		if cr.Severity > MilitaryThreat {
			row = severeThreat
		}
		r := row.response(Military)
		if cr.Severity > MilitaryThreat && c.Nuclear {
			r.Measures = append(r.Measures, "deterrence_posturing")
		}
		if t.Aggression > 0.6 {
			r.Measures = append(r.Measures, "preemptive_strike")
			r.EffectivenessCoefficient *= 1.2
			r.EconomicImpact *= 1.5
		}
		return r

	case Political:
		row := politicalUnrest
		if c.Conditions.PoliticalStability < 30 {
			row = politicalCollapse
		}
		r := row.response(Political)
		if t.DiplomaticBias > 0.5 {
			r.Measures = append(r.Measures, "international_mediation")
			r.EffectivenessCoefficient *= 1.1
		}
		return r

	case Environmental:
		row := environmentalDecline
		if cr.Severity > 0.5 {
			row = environmentalDisaster
		}
		r := row.response(Environmental)
		if t.Innovation > 0.6 {
			r.Measures = append(r.Measures, "clean_tech_program")
			r.EffectivenessCoefficient *= 1.15
		}
		return r
	}
	return Response{Kind: cr.Kind}
}

// Effectiveness scores how well c can carry out resp.
func Effectiveness(resp Response, c *world.Country) float64 {
	e := 1.0
	switch resp.Kind {
	case Economic:
		e *= c.Traits.EconomicFocus * 1.2
	case Military:
		e *= c.Traits.Aggression * 0.9
	}
	e *= c.Conditions.PoliticalStability / 100
	return gamemath.Clamp(e, 0.1, 1.0)
}

// Problems a response can create.
const SecondaryRecession = "secondary_recession"

// Outcome is the simulated result of a response.
type Outcome struct {
	Contained         bool     `json:"contained"`
	SeverityReduction float64  `json:"severity_reduction"`
	NewProblems       []string `json:"new_problems"`
}

// SimulateOutcome applies resp to c. A contained crisis lifts economic
// stability to 1.1× its original value, capped at 1; otherwise stability
// falls by a fifth. A costly response from a country that neglects its
// economy tips it into a secondary recession.
func SimulateOutcome(resp Response, c *world.Country, original world.Conditions) Outcome {
	var out Outcome
	out.SeverityReduction = gamemath.Clamp(Effectiveness(resp, c)*resp.EffectivenessCoefficient, 0, 0.95)
	out.Contained = out.SeverityReduction > 0.7

	if math.Abs(resp.EconomicImpact)*(1-c.Traits.EconomicFocus) > 0.3 {
		out.NewProblems = append(out.NewProblems, SecondaryRecession)
	}

	if out.Contained {
		c.Conditions.EconomicStability = math.Min(original.EconomicStability*1.1, 1)
	} else {
		c.Conditions.EconomicStability *= 0.8
	}
	for _, p := range out.NewProblems {
		if p == SecondaryRecession {
			c.Conditions.GDPGrowth -= 0.03
			c.Conditions.Unemployment += 0.05
		}
	}
	return out
}
