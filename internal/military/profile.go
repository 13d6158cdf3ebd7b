// Package military holds each country's tech, doctrine and supply state and
// uses it to pick targets, plan invasions and resolve battles.
package military

import (
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// Doctrine is a country's fighting posture.
type Doctrine string

const (
	DoctrineOffensive     Doctrine = "offensive"
	DoctrineDefensive     Doctrine = "defensive"
	DoctrineModernization Doctrine = "modernization"
	DoctrineBalanced      Doctrine = "balanced"
)

var doctrineMultipliers = map[Doctrine]float64{
	DoctrineOffensive:     1.3,
	DoctrineDefensive:     0.8,
	DoctrineModernization: 1.1,
	DoctrineBalanced:      1.0,
}

// Multiplier scales combat power. Unknown doctrines fight as balanced.
func (d Doctrine) Multiplier() float64 {
	if m, ok := doctrineMultipliers[d]; ok {
		return m
	}
	return 1
}

// Profile is a country's military state, fixed at initialization.
type Profile struct {
	TechLevel        float64  `json:"tech_level"`
	Doctrine         Doctrine `json:"doctrine"`
	SupplyEfficiency float64  `json:"supply_efficiency"`
	Nuclear          bool     `json:"nuclear"`
}

const maxBattles = 200

// Engine is the military strategy engine for one session.
type Engine struct {
	profiles map[string]*Profile
	battles  []BattleResult
	src      entropy.Source
	bus      *events.Dispatcher
	month    int
}

// New creates an engine drawing jitter and attack gates from src. bus may
// be nil.
func New(src entropy.Source, bus *events.Dispatcher) *Engine {
	return &Engine{profiles: make(map[string]*Profile), src: src, bus: bus}
}

// Initialize builds a profile for every country.
func (e *Engine) Initialize(countries []*world.Country) {
	e.profiles = make(map[string]*Profile, len(countries))
	for _, c := range countries {
		e.profiles[c.Name] = &Profile{
			TechLevel:        TechLevel(c, e.src),
			Doctrine:         DetermineDoctrine(c),
			SupplyEfficiency: SupplyEfficiency(c),
			Nuclear:          c.Nuclear,
		}
	}
}

// SetMonth sets the month stamped on battles.
func (e *Engine) SetMonth(m int) { e.month = m }

// Profile returns a copy of a country's profile.
func (e *Engine) Profile(name string) (Profile, bool) {
	p, ok := e.profiles[name]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// TechLevel blends research, wealth and military spending with ±0.1 jitter.
// GDP per head is scored against £100k.
func TechLevel(c *world.Country, src entropy.Source) float64 {
	wealth := gamemath.Clamp01(c.GDPPerCapita() * 1e9 / 1e5)
	base := c.ResearchInvestment*0.3 + wealth*0.2 + c.MilitaryBudget*0.5
	return gamemath.Clamp(base+(src.Float64()*0.2-0.1), 0.1, 1.0)
}

// DetermineDoctrine picks a doctrine from traits, then geography.
func DetermineDoctrine(c *world.Country) Doctrine {
	switch {
	case c.Traits.Aggression > 0.7:
		return DoctrineOffensive
	case c.Traits.Innovation > 0.6:
		return DoctrineModernization
	case c.LandMass > 0.3:
		return DoctrineDefensive
	default:
		return DoctrineBalanced
	}
}

// SupplyEfficiency weighs infrastructure against how much terrain is
// reachable.
func SupplyEfficiency(c *world.Country) float64 {
	complexity := 1 - c.AccessibleArea
	return c.Infrastructure*0.7 + (1-complexity)*0.3
}

// CombatPower is strength scaled by tech, doctrine and a nuclear premium.
// Countries without a profile have no combat power.
func (e *Engine) CombatPower(c *world.Country) float64 {
	p, ok := e.profiles[c.Name]
	if !ok {
		return 0
	}
	power := c.MilitaryStrength * p.TechLevel * p.Doctrine.Multiplier()
	if p.Nuclear {
		power *= 1.5
	}
	return power
}

// DeterrenceProbability is the chance an attack goes ahead at all.
func (e *Engine) DeterrenceProbability(attacker, defender string) float64 {
	return Deterrence(e.nuclear(attacker), e.nuclear(defender))
}

// Deterrence gates attacks on nuclear status: a lone nuclear defender
// leaves a 1% chance, mutual deterrence 0.1%, otherwise no constraint.
func Deterrence(attackerNuclear, defenderNuclear bool) float64 {
	switch {
	case defenderNuclear && !attackerNuclear:
		return 0.01
	case attackerNuclear && defenderNuclear:
		return 0.001
	default:
		return 1
	}
}

// ShouldConsiderAttack draws against the deterrence gate.
func (e *Engine) ShouldConsiderAttack(attacker, defender string) bool {
	return e.src.Float64() < e.DeterrenceProbability(attacker, defender)
}

func (e *Engine) nuclear(name string) bool {
	p, ok := e.profiles[name]
	return ok && p.Nuclear
}

func (e *Engine) tech(name string) float64 {
	if p, ok := e.profiles[name]; ok {
		return p.TechLevel
	}
	return 0
}

func (e *Engine) supply(name string) float64 {
	if p, ok := e.profiles[name]; ok {
		return p.SupplyEfficiency
	}
	return 0
}
