package stats

import "math"

// PolicyKind is a policy whose first-order statistical impact is modeled.
type PolicyKind string

const (
	PolicyTaxIncrease            PolicyKind = "taxIncrease"
	PolicyTaxDecrease            PolicyKind = "taxDecrease"
	PolicyInfrastructureSpending PolicyKind = "infrastructureSpending"
	PolicySocialSpending         PolicyKind = "socialSpending"
	PolicyEducationFunding       PolicyKind = "educationFunding"
	PolicyHealthcareFunding      PolicyKind = "healthcareFunding"
	PolicyHousingSubsidies       PolicyKind = "housingSubsidies"
	PolicyCarbonTax              PolicyKind = "carbonTax"
	PolicyRenewableFunding       PolicyKind = "renewableEnergyFunding"
)

var policyKinds = map[PolicyKind]bool{
	PolicyTaxIncrease: true, PolicyTaxDecrease: true, PolicyInfrastructureSpending: true,
	PolicySocialSpending: true, PolicyEducationFunding: true, PolicyHealthcareFunding: true,
	PolicyHousingSubsidies: true, PolicyCarbonTax: true, PolicyRenewableFunding: true,
}

// ParsePolicyKind reports whether s names a modeled policy.
func ParsePolicyKind(s string) (PolicyKind, bool) {
	k := PolicyKind(s)
	return k, policyKinds[k]
}

// Policy is a spending or tax change of Amount (£bn).
type Policy struct {
	Kind   PolicyKind `json:"kind"`
	Amount float64    `json:"amount"`
}

// SimulatePolicyImpact applies a policy's economic, social and environmental
// effects. Unknown kinds change nothing.
func (m *Manager) SimulatePolicyImpact(p Policy) {
	e, s := &m.economic, &m.social
	switch p.Kind {
	case PolicyTaxIncrease:
		e.GovernmentSpending += p.Amount
		e.Consumption -= p.Amount * 0.5
	case PolicyTaxDecrease:
		e.GovernmentSpending -= p.Amount
		e.Consumption += p.Amount * 0.5
	case PolicyInfrastructureSpending:
		e.GovernmentSpending += p.Amount
		e.Investment += p.Amount * 0.3
	case PolicySocialSpending:
		e.GovernmentSpending += p.Amount
		s.BelowPovertyLine = math.Max(s.BelowPovertyLine-p.Amount*1000, 0)
	case PolicyEducationFunding:
		m.education.LiteratePopulation = math.Min(
			m.education.LiteratePopulation+p.Amount*1000, m.education.TotalPopulation)
	case PolicyHealthcareFunding:
		m.health.LifeExpectancyAtBirth += p.Amount * 0.1
	case PolicyHousingSubsidies:
		s.BelowPovertyLine = math.Max(s.BelowPovertyLine-p.Amount*500, 0)
	case PolicyCarbonTax:
		m.environmental.TotalEmissions = math.Max(m.environmental.TotalEmissions-p.Amount*100000, 0)
	case PolicyRenewableFunding:
		m.environmental.TotalEmissions = math.Max(m.environmental.TotalEmissions-p.Amount*50000, 0)
	}
}
