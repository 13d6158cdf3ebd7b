// Package world defines countries: identity, economy, military posture,
// AI personality and memory. Countries are created once at load and mutated
// every simulated month by the systems that own each part of their state.
package world

import (
	"sort"

	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/gamemath"
)

// GovernmentType is a coarse political-system classification.
type GovernmentType uint8

const (
	GovDemocracy GovernmentType = iota
	GovFederalRepublic
	GovConstitutionalMonarchy
	GovOneParty
	GovAutocracy
)

var governmentNames = map[GovernmentType]string{
	GovDemocracy:              "democracy",
	GovFederalRepublic:        "federal_republic",
	GovConstitutionalMonarchy: "constitutional_monarchy",
	GovOneParty:               "one_party",
	GovAutocracy:              "autocracy",
}

// Alignment maps a government type onto [0,1] for similarity scoring.
func (g GovernmentType) Alignment() float64 {
	return float64(g) / float64(GovAutocracy)
}

func (g GovernmentType) String() string {
	if n, ok := governmentNames[g]; ok {
		return n
	}
	return "unknown"
}

// ParseGovernment maps a name such as "federal_republic" to its type.
func ParseGovernment(name string) (GovernmentType, bool) {
	for g, n := range governmentNames {
		if n == name {
			return g, true
		}
	}
	return GovDemocracy, false
}

// Traits are an AI country's persistent personality, drawn once at creation.
type Traits struct {
	Aggression     float64 `json:"aggression" yaml:"aggression"`
	EconomicFocus  float64 `json:"economic_focus" yaml:"economic_focus"`
	DiplomaticBias float64 `json:"diplomatic_bias" yaml:"diplomatic_bias"` // -1 to 1
	RiskAppetite   float64 `json:"risk_appetite" yaml:"risk_appetite"`
	Innovation     float64 `json:"innovation" yaml:"innovation"`
}

// DrawTraits draws a fresh personality from src.
func DrawTraits(src entropy.Source) Traits {
	return Traits{
		Aggression:     src.Float64(),
		EconomicFocus:  src.Float64(),
		DiplomaticBias: src.Float64()*2 - 1,
		RiskAppetite:   src.Float64(),
		Innovation:     src.Float64(),
	}
}

// Goal is a strategic priority an AI country pursues this month.
type Goal string

const (
	GoalEconomic   Goal = "economic"
	GoalMilitary   Goal = "military"
	GoalDiplomatic Goal = "diplomatic"
)

// Conditions are the per-country indicators the AI and crisis systems read.
// Growth, inflation and unemployment are fractions; debt-to-GDP is a percent;
// stability and environment indices are 0–100.
type Conditions struct {
	GDPGrowth          float64 `json:"gdp_growth" yaml:"gdp_growth"`
	Inflation          float64 `json:"inflation" yaml:"inflation"`
	Unemployment       float64 `json:"unemployment" yaml:"unemployment"`
	DebtToGDP          float64 `json:"debt_to_gdp" yaml:"debt_to_gdp"`
	BankHealthIndex    float64 `json:"bank_health_index" yaml:"bank_health_index"`
	PoliticalStability float64 `json:"political_stability" yaml:"political_stability"`
	EnvironmentalIndex float64 `json:"environmental_index" yaml:"environmental_index"`
	EconomicStability  float64 `json:"economic_stability" yaml:"economic_stability"`
	PotentialGDP       float64 `json:"potential_gdp" yaml:"potential_gdp"`
	TradeBalance       float64 `json:"trade_balance" yaml:"trade_balance"`
	InterestRate       float64 `json:"interest_rate" yaml:"interest_rate"`
}

// Memory is a country's append-only log of what has happened to it.
type Memory struct {
	PastConflicts []string `json:"past_conflicts"`
	TradeHistory  []string `json:"trade_history"`
	Agreements    []string `json:"agreements"`
	Actions       []string `json:"actions"`
}

// Country is an AI-controlled or player country.
type Country struct {
	Name           string         `json:"name"`
	Government     GovernmentType `json:"government"`
	LandMass       float64        `json:"land_mass"`       // share of world land, 0–1
	AccessibleArea float64        `json:"accessible_area"` // 0–1
	Infrastructure float64        `json:"infrastructure"`  // 0–1
	Terrain        Terrain        `json:"terrain"`
	Borders        []string       `json:"borders"`

	GDP               float64            `json:"gdp"`
	Population        float64            `json:"population"`
	Sectors           map[string]float64 `json:"sectors"`
	GovernmentDebt    float64            `json:"government_debt"`
	InflationTarget   float64            `json:"inflation_target"`
	GrowthTarget      float64            `json:"growth_target"`
	FiscalSpace       float64            `json:"fiscal_space"`
	ForeignInvestment float64            `json:"foreign_investment"`
	ExportGoods       []string           `json:"export_goods"`
	ImportGoods       []string           `json:"import_goods"`
	Exports           float64            `json:"exports"`
	Imports           float64            `json:"imports"`
	Tariffs           map[string]float64 `json:"tariffs"`

	MilitaryStrength   float64 `json:"military_strength"`
	MilitaryBudget     float64 `json:"military_budget"` // share of GDP
	ResearchInvestment float64 `json:"research_investment"`
	Nuclear            bool    `json:"nuclear"`

	Conditions Conditions `json:"conditions"`

	Player         bool               `json:"player"`
	Traits         Traits             `json:"traits"`
	Relationships  map[string]float64 `json:"relationships"`
	StrategicGoals []Goal             `json:"strategic_goals"`
	Memory         Memory             `json:"memory"`
}

// GDPPerCapita returns GDP per head, 0 when population is unknown.
func (c *Country) GDPPerCapita() float64 {
	return gamemath.SafeDiv(c.GDP, c.Population)
}

// BordersWith reports whether c shares a border with other.
func (c *Country) BordersWith(other string) bool {
	for _, b := range c.Borders {
		if b == other {
			return true
		}
	}
	return false
}

// Relation returns c's relation toward other, 0 if none is recorded.
func (c *Country) Relation(other string) float64 {
	return c.Relationships[other]
}

// SetRelation stores a clamped relation value toward other.
func (c *Country) SetRelation(other string, v float64) {
	if c.Relationships == nil {
		c.Relationships = make(map[string]float64)
	}
	c.Relationships[other] = gamemath.Clamp01(v)
}

// Remember appends an action to the country's memory log.
func (c *Country) Remember(action string) {
	c.Memory.Actions = append(c.Memory.Actions, action)
}

// Clone returns a deep copy of the country.
func (c *Country) Clone() *Country {
	cp := *c
	cp.Borders = append([]string(nil), c.Borders...)
	cp.ExportGoods = append([]string(nil), c.ExportGoods...)
	cp.ImportGoods = append([]string(nil), c.ImportGoods...)
	cp.StrategicGoals = append([]Goal(nil), c.StrategicGoals...)
	cp.Sectors = cloneMap(c.Sectors)
	cp.Tariffs = cloneMap(c.Tariffs)
	cp.Relationships = cloneMap(c.Relationships)
	cp.Memory = Memory{
		PastConflicts: append([]string(nil), c.Memory.PastConflicts...),
		TradeHistory:  append([]string(nil), c.Memory.TradeHistory...),
		Agreements:    append([]string(nil), c.Memory.Agreements...),
		Actions:       append([]string(nil), c.Memory.Actions...),
	}
	return &cp
}

// SortedNames returns the names of countries in ascending order. Every system
// that iterates countries uses this order so runs are reproducible.
func SortedNames(countries map[string]*Country) []string {
	names := make([]string, 0, len(countries))
	for name := range countries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedKeys returns the keys of a float map in ascending order.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
