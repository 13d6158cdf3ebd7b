package diplomacy

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// ErrUnknownNegotiation is returned for an id with no open negotiation.
var ErrUnknownNegotiation = errors.New("diplomacy: unknown negotiation")

// NegotiationState is a trade agreement's position in the negotiation.
type NegotiationState string

const (
	StateProposed   NegotiationState = "proposed"
	StateCountering NegotiationState = "countering"
	StateFinalized  NegotiationState = "finalized"
	StateFailed     NegotiationState = "failed"
)

// Done reports whether the negotiation has ended.
func (s NegotiationState) Done() bool {
	return s == StateFinalized || s == StateFailed
}

// Terms of a trade agreement, each a fraction.
type Terms struct {
	TariffReduction      float64 `json:"tariff_reduction"`
	MarketAccess         float64 `json:"market_access"`
	IntellectualProperty float64 `json:"intellectual_property"`
}

// RedLines bound the terms the target will entertain.
type RedLines struct {
	MaxMarketAccess    float64 `json:"max_market_access"`
	MinTariffReduction float64 `json:"min_tariff_reduction"`
}

// TradeAgreement is a negotiation between Proposer and Target.
type TradeAgreement struct {
	ID              string           `json:"id"`
	Proposer        string           `json:"proposer"`
	Target          string           `json:"target"`
	State           NegotiationState `json:"state"`
	RoundsRemaining int              `json:"rounds_remaining"`
	Complexity      float64          `json:"complexity"`
	CurrentTerms    Terms            `json:"current_terms"`
	History         []Terms          `json:"history"`
	RedLines        RedLines         `json:"red_lines"`
}

// DealComplexity grows with the share of overlapping sectors and the share
// of those sectors either side protects with a tariff.
func DealComplexity(a, b *world.Country) float64 {
	overlap, conflicts := 0, 0
	for sector := range a.Sectors {
		if _, ok := b.Sectors[sector]; !ok {
			continue
		}
		overlap++
		if a.Tariffs[sector] > 0.15 || b.Tariffs[sector] > 0.15 {
			conflicts++
		}
	}
	sectorOverlap := gamemath.SafeDiv(float64(overlap), float64(len(a.Sectors)))
	conflictShare := gamemath.SafeDiv(float64(conflicts), float64(overlap))
	return sectorOverlap*0.4 + conflictShare*0.6
}

// Utility is the target's valuation of terms, in [-1,1].
func Utility(terms Terms, t world.Traits) float64 {
	protectionism := t.Aggression*0.8 + (1-t.Innovation)*0.2
	u := terms.TariffReduction*t.EconomicFocus -
		terms.MarketAccess*protectionism +
		terms.IntellectualProperty*t.Innovation
	return gamemath.Clamp(u, -1, 1)
}

// AcceptanceThreshold is the utility the target needs before it signs.
func AcceptanceThreshold(t world.Traits, economicNeed float64) float64 {
	return (1-t.RiskAppetite)*0.3 + economicNeed*0.7
}

// ShouldPropose reports whether a would open trade talks with b.
func (d *AI) ShouldPropose(a, b string) bool {
	r, ok := d.relations[a][b]
	if !ok || r.Trust <= 0.4 || r.Tension >= 0.5 {
		return false
	}
	for _, ag := range d.negotiations {
		if !ag.State.Done() && pairMatches(ag.Proposer, ag.Target, a, b) {
			return false
		}
	}
	return true
}

// Propose opens a trade negotiation from proposer to target.
func (d *AI) Propose(proposer, target *world.Country) *TradeAgreement {
	complexity := DealComplexity(proposer, target)
	trust := 0.0
	if r, ok := d.relations[proposer.Name][target.Name]; ok {
		trust = r.Trust
	}
	targetProtection := target.Traits.Aggression*0.8 + (1-target.Traits.Innovation)*0.2

	ag := &TradeAgreement{
		ID:              gamemath.NewUUID(),
		Proposer:        proposer.Name,
		Target:          target.Name,
		State:           StateProposed,
		RoundsRemaining: 3 + int(math.Floor(complexity*2)),
		Complexity:      complexity,
		CurrentTerms: Terms{
			TariffReduction:      0.1 + 0.1*trust,
			MarketAccess:         0.3 + 0.2*proposer.Traits.Aggression,
			IntellectualProperty: 0.2 * proposer.Traits.Innovation,
		},
		RedLines: RedLines{
			MaxMarketAccess:    1 - targetProtection*0.5,
			MinTariffReduction: 0.05,
		},
	}
	d.negotiations[ag.ID] = ag
	return ag
}

// ProposeTerms opens a negotiation with terms chosen by the proposer,
// trimmed to the target's red lines.
func (d *AI) ProposeTerms(proposer, target *world.Country, terms Terms) *TradeAgreement {
	ag := d.Propose(proposer, target)
	ag.CurrentTerms = Terms{
		TariffReduction:      gamemath.Clamp(terms.TariffReduction, ag.RedLines.MinTariffReduction, 1),
		MarketAccess:         gamemath.Clamp(terms.MarketAccess, 0, ag.RedLines.MaxMarketAccess),
		IntellectualProperty: gamemath.Clamp01(terms.IntellectualProperty),
	}
	return ag
}

// adjustTerms concedes ground each round, faster as rounds run out, and
// keeps the terms inside the target's red lines.
func adjustTerms(t Terms, rounds int, rl RedLines) Terms {
	step := 0.05 * (1 + 1/float64(rounds+1))
	t.TariffReduction = gamemath.Clamp(t.TariffReduction+step, rl.MinTariffReduction, 1)
	t.MarketAccess = gamemath.Clamp(t.MarketAccess-step, 0, rl.MaxMarketAccess)
	t.IntellectualProperty = math.Max(t.IntellectualProperty-step*0.4, 0)
	return t
}

// NegotiateRound runs one round. The target accepts when its utility beats
// its threshold; otherwise a round is spent, and an agreement with no
// rounds left fails.
func (d *AI) NegotiateRound(id string, economicNeed float64) (NegotiationState, error) {
	ag, ok := d.negotiations[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNegotiation, id)
	}
	if ag.State.Done() {
		return ag.State, nil
	}
	if ag.RoundsRemaining <= 0 {
		d.fail(ag)
		return ag.State, nil
	}
	target, ok := d.countries[ag.Target]
	if !ok {
		d.fail(ag)
		return ag.State, nil
	}

	terms := adjustTerms(ag.CurrentTerms, ag.RoundsRemaining, ag.RedLines)
	ag.History = append(ag.History, terms)
	ag.CurrentTerms = terms

	utility := Utility(terms, target.Traits)
	if utility > AcceptanceThreshold(target.Traits, economicNeed) {
		d.finalize(ag, utility)
		return ag.State, nil
	}

	ag.RoundsRemaining--
	ag.State = StateCountering
	if ag.RoundsRemaining == 0 {
		d.fail(ag)
	}
	return ag.State, nil
}

// Negotiate runs rounds until the agreement is finalized or fails.
func (d *AI) Negotiate(id string, economicNeed float64) (NegotiationState, error) {
	for {
		state, err := d.NegotiateRound(id, economicNeed)
		if err != nil || state.Done() {
			return state, err
		}
	}
}

// Agreement returns a copy of a negotiation.
func (d *AI) Agreement(id string) (TradeAgreement, bool) {
	ag, ok := d.negotiations[id]
	if !ok {
		return TradeAgreement{}, false
	}
	return *ag, true
}

// ActiveNegotiations lists open negotiations involving name.
func (d *AI) ActiveNegotiations(name string) []TradeAgreement {
	var out []TradeAgreement
	for _, id := range sortedAgreementIDs(d.negotiations) {
		ag := d.negotiations[id]
		if !ag.State.Done() && (ag.Proposer == name || ag.Target == name) {
			out = append(out, *ag)
		}
	}
	return out
}

// Agreements lists finalized agreements involving name.
func (d *AI) Agreements(name string) []TradeAgreement {
	var out []TradeAgreement
	for _, id := range sortedAgreementIDs(d.negotiations) {
		ag := d.negotiations[id]
		if ag.State == StateFinalized && (ag.Proposer == name || ag.Target == name) {
			out = append(out, *ag)
		}
	}
	return out
}

func (d *AI) finalize(ag *TradeAgreement, utility float64) {
	ag.State = StateFinalized
	d.RecordInteraction(ag.Proposer, ag.Target, TradeDeal, math.Max(utility, 0.1))
	for _, pair := range [][2]string{{ag.Proposer, ag.Target}, {ag.Target, ag.Proposer}} {
		if c, ok := d.countries[pair[0]]; ok {
			c.Memory.Agreements = append(c.Memory.Agreements, pair[1])
			c.Memory.TradeHistory = append(c.Memory.TradeHistory, ag.ID)
		}
	}
	d.record("trade_agreement", ag.Proposer, ag.Target)
	d.publish(events.AgreementSigned, map[string]any{
		"id": ag.ID, "proposer": ag.Proposer, "target": ag.Target,
		"tariff_reduction": ag.CurrentTerms.TariffReduction,
	})
}

func (d *AI) fail(ag *TradeAgreement) {
	ag.State = StateFailed
	ag.RoundsRemaining = 0
	d.publish(events.AgreementFailed, map[string]any{
		"id": ag.ID, "proposer": ag.Proposer, "target": ag.Target,
	})
}

func pairMatches(x, y, a, b string) bool {
	return (x == a && y == b) || (x == b && y == a)
}

func sortedAgreementIDs(m map[string]*TradeAgreement) []string {
	keys := make(map[string]float64, len(m))
	for k := range m {
		keys[k] = 0
	}
	return world.SortedKeys(keys)
}
