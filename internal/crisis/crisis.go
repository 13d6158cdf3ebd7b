// Package crisis detects economic, political, military and environmental
// crises per country and simulates how a country's response plays out.
package crisis

import (
	"fmt"
	"sort"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// Kind classifies a crisis.
type Kind string

const (
	Economic      Kind = "economic"
	Political     Kind = "political"
	Military      Kind = "military"
	Environmental Kind = "environmental"
)

// Kinds lists every crisis kind.
var Kinds = []Kind{Economic, Political, Military, Environmental}

// ParseKind maps a name to a crisis kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Detection thresholds.
const (
	RecessionGrowth      = -0.02
	HyperInflation       = 0.25
	DebtToGDPLimit       = 120.0
	BankHealthFloor      = 0.3
	StabilityThreshold   = 0.6
	MilitaryThreat       = 0.8
	EnvironmentThreshold = 40.0
)

// Crisis is a detected crisis and how severe it is.
type Crisis struct {
	Kind     Kind    `json:"kind"`
	Severity float64 `json:"severity"`
}

// bankHealth reads an unset index as middling health.
func bankHealth(c world.Conditions) float64 {
	if c.BankHealthIndex == 0 {
		return 0.5
	}
	return c.BankHealthIndex
}

// economicSeverity adds 0.25 for every breached economic condition plus how
// far past its threshold the indicator has gone.
func economicSeverity(c world.Conditions) (float64, bool) {
	var sev float64
	hit := false
	if c.GDPGrowth < RecessionGrowth {
		hit = true
		sev += 0.25 + (RecessionGrowth-c.GDPGrowth)/-RecessionGrowth
	}
	if c.Inflation > HyperInflation {
		hit = true
		sev += 0.25 + (c.Inflation-HyperInflation)/HyperInflation
	}
	if c.DebtToGDP > DebtToGDPLimit {
		hit = true
		sev += 0.25 + (c.DebtToGDP-DebtToGDPLimit)/DebtToGDPLimit
	}
	if bh := bankHealth(c); bh < BankHealthFloor {
		hit = true
		sev += 0.25 + (BankHealthFloor-bh)/BankHealthFloor
	}
	return gamemath.Clamp01(sev), hit
}

// Detect returns the crises c is in, most severe first. threat is the
// country's military threat level.
func Detect(c *world.Country, threat float64) []Crisis {
	var out []Crisis
	cond := c.Conditions

	if sev, ok := economicSeverity(cond); ok {
		out = append(out, Crisis{Kind: Economic, Severity: sev})
	}
	if stability := cond.PoliticalStability / 100; stability < StabilityThreshold {
		out = append(out, Crisis{Kind: Political, Severity: gamemath.Clamp01(1 - stability)})
	}
	if threat > MilitaryThreat {
		out = append(out, Crisis{Kind: Military, Severity: gamemath.Clamp01(threat)})
	}
	if cond.EnvironmentalIndex < EnvironmentThreshold {
		out = append(out, Crisis{Kind: Environmental, Severity: gamemath.Clamp01((EnvironmentThreshold - cond.EnvironmentalIndex) / EnvironmentThreshold)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out
}

// Record is one handled crisis.
type Record struct {
	Month     int     `json:"month"`
	Severity  float64 `json:"severity"`
	Reduction float64 `json:"reduction"`
	Contained bool    `json:"contained"`
}

// Model tracks crisis history and the set of active crises.
type Model struct {
	history map[string]map[Kind][]Record
	active  map[string]Active
	bus     *events.Dispatcher
	month   int
}

// New creates a crisis model. bus may be nil.
func New(bus *events.Dispatcher) *Model {
	return &Model{
		history: make(map[string]map[Kind][]Record),
		active:  make(map[string]Active),
		bus:     bus,
	}
}

// Initialize creates empty history for every country.
func (m *Model) Initialize(countries []*world.Country) {
	m.history = make(map[string]map[Kind][]Record, len(countries))
	m.active = make(map[string]Active)
	for _, c := range countries {
		m.history[c.Name] = make(map[Kind][]Record, len(Kinds))
	}
}

// SetMonth sets the month stamped on records and events.
func (m *Model) SetMonth(month int) { m.month = month }

// Assess detects c's crises and marks them active. Newly active crises are
// published.
func (m *Model) Assess(c *world.Country, threat float64) []Crisis {
	found := Detect(c, threat)
	for _, cr := range found {
		key := activeKey(c.Name, cr.Kind)
		_, already := m.active[key]
		m.active[key] = Active{Country: c.Name, Crisis: cr}
		if !already && m.bus != nil {
			m.bus.Publish(events.CrisisFound, m.month, map[string]any{
				"country": c.Name, "kind": string(cr.Kind), "severity": cr.Severity,
			})
		}
	}
	return found
}

// Handle generates and simulates c's response to cr and records the result.
// A contained crisis leaves the active set.
func (m *Model) Handle(c *world.Country, cr Crisis) (Response, Outcome) {
	original := c.Conditions
	resp := GenerateResponse(c, cr)
	out := SimulateOutcome(resp, c, original)

	if m.history[c.Name] == nil {
		m.history[c.Name] = make(map[Kind][]Record, len(Kinds))
	}
	m.history[c.Name][cr.Kind] = append(m.history[c.Name][cr.Kind], Record{
		Month:     m.month,
		Severity:  cr.Severity,
		Reduction: out.SeverityReduction,
		Contained: out.Contained,
	})
	if out.Contained {
		delete(m.active, activeKey(c.Name, cr.Kind))
	}
	c.Remember(fmt.Sprintf("crisis_response:%s", cr.Kind))

	if m.bus != nil {
		m.bus.Publish(events.CrisisHandled, m.month, map[string]any{
			"country":   c.Name,
			"kind":      string(cr.Kind),
			"measures":  resp.Measures,
			"contained": out.Contained,
			"reduction": out.SeverityReduction,
		})
	}
	return resp, out
}

// Active is an active crisis with its country.
type Active struct {
	Country string `json:"country"`
	Crisis
}

// Active lists active crises by country, then kind.
func (m *Model) Active() []Active {
	out := make([]Active, 0, len(m.active))
	for _, a := range m.active {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// IsActive reports whether country has an active crisis of kind.
func (m *Model) IsActive(country string, kind Kind) bool {
	_, ok := m.active[activeKey(country, kind)]
	return ok
}

// History returns the handled crises of one kind for a country.
func (m *Model) History(country string, kind Kind) []Record {
	return append([]Record(nil), m.history[country][kind]...)
}

func activeKey(country string, kind Kind) string {
	return country + "/" + string(kind)
}

// State is the serializable crisis state.
type State struct {
	History map[string]map[Kind][]Record `json:"history"`
	Active  []Active                     `json:"active"`
}

// Snapshot copies the crisis state.
func (m *Model) Snapshot() State {
	s := State{History: make(map[string]map[Kind][]Record, len(m.history)), Active: m.Active()}
	for country, byKind := range m.history {
		out := make(map[Kind][]Record, len(byKind))
		for k, recs := range byKind {
			out[k] = append([]Record(nil), recs...)
		}
		s.History[country] = out
	}
	return s
}

// Restore replaces the crisis state.
func (m *Model) Restore(s State) {
	m.history = make(map[string]map[Kind][]Record, len(s.History))
	for country, byKind := range s.History {
		out := make(map[Kind][]Record, len(byKind))
		for k, recs := range byKind {
			out[k] = append([]Record(nil), recs...)
		}
		m.history[country] = out
	}
	m.active = make(map[string]Active, len(s.Active))
	for _, a := range s.Active {
		m.active[activeKey(a.Country, a.Kind)] = a
	}
}
