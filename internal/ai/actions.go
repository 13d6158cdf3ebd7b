package ai

import (
	"fmt"
	"math"

	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/military"
	"github.com/talgya/statecraft/internal/strategy"
)

// ActionKind is a player action the AI reacts to.
type ActionKind string

const (
	ActionTariffChange   ActionKind = "tariff_change"
	ActionTradeAgreement ActionKind = "trade_agreement"
	ActionMilitaryMove   ActionKind = "military_move"
)

// PlayerAction is a player move as the AI sees it.
type PlayerAction struct {
	Kind                 ActionKind
	Target               string
	Sector               string
	Rate                 float64
	TariffReduction      float64
	MarketAccess         float64
	IntellectualProperty float64
	Strength             float64
}

// Reaction reports what the AI did in response to a player action.
type Reaction struct {
	Retaliators []string                  `json:"retaliators,omitempty"`
	Measures    []strategy.Measure        `json:"measures,omitempty"`
	Agreement   *diplomacy.TradeAgreement `json:"agreement,omitempty"`
}

// HandlePlayerAction applies the AI's response to a player action. Unknown
// kinds are ignored.
func (m *Manager) HandlePlayerAction(a PlayerAction) (Reaction, error) {
	if !m.Initialized() {
		return Reaction{}, ErrNotInitialized
	}
	switch a.Kind {
	case ActionTariffChange:
		return m.reactToTariff(a)
	case ActionTradeAgreement:
		return m.respondToTradeProposal(a)
	case ActionMilitaryMove:
		return m.counterMilitaryMove(a)
	}
	return Reaction{}, nil
}

// reactToTariff records the player's new rate. The targeted country and any
// AI country that distrusts the player answer with measures of their own.
func (m *Manager) reactToTariff(a PlayerAction) (Reaction, error) {
	if a.Target != "" {
		if _, ok := m.countries[a.Target]; !ok {
			return Reaction{}, fmt.Errorf("%w: %s", ErrUnknownCountry, a.Target)
		}
	}
	m.playerTariffs[a.Sector] = gamemath.Clamp(a.Rate, 0, 1)

	var r Reaction
	for _, name := range m.names() {
		c := m.countries[name]
		if name != a.Target && c.Relation(m.player.Name) >= 0.4 {
			continue
		}
		measures := m.model.GenerateRetaliatoryMeasures(c, m.player.Name, a.Sector, a.Rate)
		for _, ms := range measures {
			m.implementMeasure(c.Name, ms)
		}
		r.Retaliators = append(r.Retaliators, name)
		r.Measures = append(r.Measures, measures...)
	}
	if a.Target != "" {
		m.diplomacy.ApplyModifiers(a.Target, m.player.Name, diplomacy.Modifiers{Tension: a.Rate * 0.5})
	}
	return r, nil
}

func (m *Manager) implementMeasure(country string, ms strategy.Measure) {
	c := m.countries[country]
	switch ms.Kind {
	case strategy.MeasureTariff:
		if c.Tariffs == nil {
			c.Tariffs = make(map[string]float64)
		}
		c.Tariffs[ms.Sector] = math.Max(c.Tariffs[ms.Sector], ms.Value)
	case strategy.MeasureSanction:
		m.diplomacy.RecordInteraction(country, ms.Target, diplomacy.Sanction, ms.Value)
	case strategy.MeasureQuota:
		c.Imports *= 0.9 + 0.1*ms.Value
	}
	c.Remember(fmt.Sprintf("retaliation:%s:%s", ms.Kind, ms.Target))
}

// respondToTradeProposal negotiates the player's proposed terms with the
// partner and implements them if it signs.
func (m *Manager) respondToTradeProposal(a PlayerAction) (Reaction, error) {
	partner, ok := m.countries[a.Target]
	if !ok {
		return Reaction{}, fmt.Errorf("%w: %s", ErrUnknownCountry, a.Target)
	}
	ag := m.diplomacy.ProposeTerms(m.player, partner, diplomacy.Terms{
		TariffReduction:      a.TariffReduction,
		MarketAccess:         a.MarketAccess,
		IntellectualProperty: a.IntellectualProperty,
	})
	state, err := m.diplomacy.Negotiate(ag.ID, m.needs(partner).Economic)
	if err != nil {
		return Reaction{}, err
	}
	final, _ := m.diplomacy.Agreement(ag.ID)
	if state == diplomacy.StateFinalized {
		implementAgreement(m.player, partner, final.CurrentTerms)
	}
	partner.Remember(fmt.Sprintf("player_proposal:%s", state))
	return Reaction{Agreement: &final}, nil
}

// counterMilitaryMove: the threatened country loses trust in the player,
// grows tense and rearms; its allies grow wary too.
func (m *Manager) counterMilitaryMove(a PlayerAction) (Reaction, error) {
	target, ok := m.countries[a.Target]
	if !ok {
		return Reaction{}, fmt.Errorf("%w: %s", ErrUnknownCountry, a.Target)
	}
	pressure := gamemath.Clamp01(gamemath.SafeDiv(a.Strength, target.MilitaryStrength))
	if target.MilitaryStrength <= 0 && a.Strength > 0 {
		pressure = 1
	}
	player := m.player.Name

	m.diplomacy.ApplyModifiers(target.Name, player, diplomacy.Modifiers{Trust: -0.1 * pressure, Tension: 0.2 * pressure})
	target.SetRelation(player, target.Relation(player)-0.1*pressure)
	target.MilitaryBudget = military.UpdateMilitaryBudget(target, pressure, target.Conditions.GDPGrowth)
	target.Memory.PastConflicts = append(target.Memory.PastConflicts, player)
	target.Remember("counter_military_move")

	for _, al := range m.diplomacy.Alliances(target.Name) {
		for _, member := range al.Members {
			if member == target.Name || member == player {
				continue
			}
			m.diplomacy.ApplyModifiers(member, player, diplomacy.Modifiers{Tension: 0.1 * pressure})
		}
	}
	return Reaction{}, nil
}
