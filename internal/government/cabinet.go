package government

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
)

// ErrUnknownDepartment is returned for a department name the cabinet lacks.
var ErrUnknownDepartment = errors.New("government: unknown department")

// MonetaryPolicy is set by the central bank. InterestRate is a percent,
// InflationTarget a fraction.
type MonetaryPolicy struct {
	InterestRate    float64 `json:"interest_rate"`
	InflationTarget float64 `json:"inflation_target"`
}

// FinancePolicy controls household credit. 1 is normal availability.
type FinancePolicy struct {
	CreditAvailability float64 `json:"credit_availability"`
}

// LaborPolicy holds the statutory minimum wage (annual, pounds).
type LaborPolicy struct {
	MinimumWage float64 `json:"minimum_wage"`
}

// ForeignPolicy holds the player's import tariffs by sector, as fractions.
type ForeignPolicy struct {
	Tariffs map[string]float64 `json:"tariffs"`
}

// Policies is the serializable policy state of a cabinet.
type Policies struct {
	Monetary    MonetaryPolicy         `json:"monetary"`
	Finance     FinancePolicy          `json:"finance"`
	Labor       LaborPolicy            `json:"labor"`
	Foreign     ForeignPolicy          `json:"foreign"`
	Tax         TaxSchedule            `json:"tax"`
	Subsidies   map[string]float64     `json:"subsidies"` // Industry subsidies by sector, pounds per month
	Departments map[string]*Department `json:"departments"`
}

// Cabinet owns the six departments and the fiscal and monetary levers.
type Cabinet struct {
	Monetary  MonetaryPolicy
	Finance   FinancePolicy
	Labor     LaborPolicy
	Foreign   ForeignPolicy
	Tax       TaxSchedule
	Subsidies map[string]float64

	departments map[Kind]*Department
	bus         *events.Dispatcher
}

// NewCabinet creates a cabinet with every department at its defaults.
func NewCabinet(bus *events.Dispatcher) *Cabinet {
	c := &Cabinet{
		Monetary:    MonetaryPolicy{InterestRate: 5.25, InflationTarget: 0.02},
		Finance:     FinancePolicy{CreditAvailability: 1},
		Labor:       LaborPolicy{MinimumWage: 21000},
		Foreign:     ForeignPolicy{Tariffs: make(map[string]float64)},
		Tax:         DefaultTaxSchedule(),
		Subsidies:   make(map[string]float64),
		departments: make(map[Kind]*Department, len(Kinds)),
		bus:         bus,
	}
	for _, k := range Kinds {
		d, _ := NewDepartment(k, bus)
		c.departments[k] = d
	}
	return c
}

// Department returns the department of kind k.
func (c *Cabinet) Department(k Kind) *Department {
	return c.departments[k]
}

// DepartmentByName looks a department up by its kind name.
func (c *Cabinet) DepartmentByName(name string) (*Department, error) {
	k, ok := ParseKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDepartment, name)
	}
	return c.departments[k], nil
}

// Departments returns all departments in cabinet order.
func (c *Cabinet) Departments() []*Department {
	out := make([]*Department, 0, len(Kinds))
	for _, k := range Kinds {
		out = append(out, c.departments[k])
	}
	return out
}

// TotalSpending is the monthly cost of all departments, in pounds.
func (c *Cabinet) TotalSpending() float64 {
	total := 0.0
	for _, d := range c.Departments() {
		total += d.MonthlyCost()
	}
	return total
}

// TotalSubsidies is the monthly industry subsidy bill, in pounds.
func (c *Cabinet) TotalSubsidies() float64 {
	total := 0.0
	for _, v := range c.Subsidies {
		total += v
	}
	return total
}

// TaxRevenue returns annual tax raised from base, scaled by how efficiently
// the taxation department collects it.
func (c *Cabinet) TaxRevenue(base TaxBase) float64 {
	tax := c.departments[KindTaxation]
	efficiency := tax.Performance["collectionEfficiency"] * tax.Performance["complianceRate"]
	baseline := configs[KindTaxation].Performance
	return c.Tax.Revenue(base) * gamemath.SafeDiv(efficiency, baseline["collectionEfficiency"]*baseline["complianceRate"])
}

// TariffRevenue is the duty collected on imports split evenly across the
// tariffed sectors.
func (c *Cabinet) TariffRevenue(imports float64) float64 {
	if len(c.Foreign.Tariffs) == 0 {
		return 0
	}
	sum := 0.0
	for _, rate := range c.Foreign.Tariffs {
		sum += rate
	}
	return imports * sum / float64(len(c.Foreign.Tariffs))
}

// AverageTariff returns the mean tariff rate across sectors.
func (c *Cabinet) AverageTariff() float64 {
	sum := 0.0
	for _, rate := range c.Foreign.Tariffs {
		sum += rate
	}
	return gamemath.SafeDiv(sum, float64(len(c.Foreign.Tariffs)))
}

// DebtInterest is one month of interest on debt at the policy rate.
func (c *Cabinet) DebtInterest(debt float64) float64 {
	if debt <= 0 {
		return 0
	}
	return debt * c.Monetary.InterestRate / 100 / 12
}

// SimulateMonth advances every department by one month.
func (c *Cabinet) SimulateMonth() {
	for _, d := range c.Departments() {
		d.SimulateMonth()
	}
}

// Policies returns a deep copy of the cabinet's state.
func (c *Cabinet) Policies() Policies {
	p := Policies{
		Monetary:    c.Monetary,
		Finance:     c.Finance,
		Labor:       c.Labor,
		Foreign:     ForeignPolicy{Tariffs: copyValues(c.Foreign.Tariffs)},
		Tax:         c.Tax,
		Subsidies:   copyValues(c.Subsidies),
		Departments: make(map[string]*Department, len(Kinds)),
	}
	p.Tax.IncomeBrackets = append([]Bracket(nil), c.Tax.IncomeBrackets...)
	for _, d := range c.Departments() {
		p.Departments[d.Kind.String()] = d.Clone()
	}
	return p
}

// MarshalPolicies encodes the cabinet state as JSON.
func (c *Cabinet) MarshalPolicies() (json.RawMessage, error) {
	return json.Marshal(c.Policies())
}

// DecodePolicies parses and validates a cabinet state without applying it.
func DecodePolicies(raw []byte, bus *events.Dispatcher) (Policies, error) {
	var p Policies
	if err := json.Unmarshal(raw, &p); err != nil {
		return Policies{}, fmt.Errorf("decoding policies: %w", err)
	}
	for _, k := range Kinds {
		d, ok := p.Departments[k.String()]
		if !ok || d == nil {
			return Policies{}, fmt.Errorf("policies missing department %s", k)
		}
		d.Kind = k
		if err := d.bind(bus); err != nil {
			return Policies{}, err
		}
	}
	if p.Foreign.Tariffs == nil {
		p.Foreign.Tariffs = make(map[string]float64)
	}
	if p.Subsidies == nil {
		p.Subsidies = make(map[string]float64)
	}
	return p, nil
}

// Apply replaces the cabinet's state with p, which must come from
// DecodePolicies or Policies.
func (c *Cabinet) Apply(p Policies) {
	c.Monetary = p.Monetary
	c.Finance = p.Finance
	c.Labor = p.Labor
	c.Foreign = ForeignPolicy{Tariffs: copyValues(p.Foreign.Tariffs)}
	c.Tax = p.Tax
	c.Subsidies = copyValues(p.Subsidies)
	for _, k := range Kinds {
		d := p.Departments[k.String()].Clone()
		d.bus = c.bus
		c.departments[k] = d
	}
}
