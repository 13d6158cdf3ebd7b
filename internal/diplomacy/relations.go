// Package diplomacy maintains the fine-grained relationship matrix between
// all countries and runs treaty negotiation, alliances and border mediation.
package diplomacy

import (
	"math"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// DecayRate is applied to trust and tension once per month.
const DecayRate = 0.98

// InteractionKind is a diplomatic event between two countries.
type InteractionKind string

const (
	TradeDeal     InteractionKind = "trade_deal"
	Sanction      InteractionKind = "sanction"
	AllianceMade  InteractionKind = "alliance"
	BorderDispute InteractionKind = "border_dispute"
)

// Modifiers are additive changes to a relation.
type Modifiers struct {
	Trust       float64
	Tension     float64
	Cooperation float64
}

var interactionModifiers = map[InteractionKind]Modifiers{
	TradeDeal:     {Trust: 0.1, Tension: -0.05, Cooperation: 0.1},
	Sanction:      {Trust: -0.3, Tension: 0.2, Cooperation: -0.1},
	AllianceMade:  {Trust: 0.2, Tension: -0.1, Cooperation: 0.15},
	BorderDispute: {Trust: -0.4, Tension: 0.3, Cooperation: -0.2},
}

// ParseInteraction maps a name to an interaction kind.
func ParseInteraction(s string) (InteractionKind, bool) {
	k := InteractionKind(s)
	_, ok := interactionModifiers[k]
	return k, ok
}

// Interaction is a pending event, scaled by Outcome when applied.
type Interaction struct {
	Kind    InteractionKind `json:"kind"`
	Outcome float64         `json:"outcome"`
	Month   int             `json:"month"`
}

// Relation is one country's directed view of another.
type Relation struct {
	Trust           float64      `json:"trust"`
	Tension         float64      `json:"tension"`
	Cooperation     float64      `json:"cooperation"`
	LastInteraction *Interaction `json:"last_interaction,omitempty"`
}

func (r *Relation) clamp() {
	r.Trust = gamemath.Clamp01(r.Trust)
	r.Tension = gamemath.Clamp01(r.Tension)
	r.Cooperation = gamemath.Clamp01(r.Cooperation)
}

// AI is the diplomatic engine for one session.
type AI struct {
	countries    map[string]*world.Country
	relations    map[string]map[string]*Relation
	alliances    map[string]*Alliance
	negotiations map[string]*TradeAgreement
	history      map[string][]HistoryEntry
	bus          *events.Dispatcher
	month        int
}

// HistoryEntry records a diplomatic event a country took part in.
type HistoryEntry struct {
	Event        string   `json:"event"`
	Month        int      `json:"month"`
	Participants []string `json:"participants"`
}

// New creates an empty diplomatic engine. bus may be nil.
func New(bus *events.Dispatcher) *AI {
	return &AI{
		countries:    make(map[string]*world.Country),
		relations:    make(map[string]map[string]*Relation),
		alliances:    make(map[string]*Alliance),
		negotiations: make(map[string]*TradeAgreement),
		history:      make(map[string][]HistoryEntry),
		bus:          bus,
	}
}

// Initialize builds the matrix for every ordered pair of countries.
func (d *AI) Initialize(countries []*world.Country) {
	d.countries = make(map[string]*world.Country, len(countries))
	for _, c := range countries {
		d.countries[c.Name] = c
	}
	d.relations = make(map[string]map[string]*Relation, len(countries))
	for _, a := range countries {
		row := make(map[string]*Relation, len(countries)-1)
		for _, b := range countries {
			if a.Name == b.Name {
				continue
			}
			row[b.Name] = &Relation{Trust: InitialTrust(a, b)}
		}
		d.relations[a.Name] = row
	}
}

// SetMonth sets the month stamped on events and history.
func (d *AI) SetMonth(m int) { d.month = m }

// InitialTrust blends political, economic and historical alignment.
func InitialTrust(a, b *world.Country) float64 {
	political := 1 - math.Abs(a.Government.Alignment()-b.Government.Alignment())
	economic := EconomicAlignment(a, b)
	historical := historicalModifier(a, b)
	return gamemath.Clamp01((political*0.4+economic*0.3+historical*0.3)*0.8 + 0.1)
}

// EconomicAlignment scores how well a's imports match b's exports and how
// much each invests in the other's economy.
func EconomicAlignment(a, b *world.Country) float64 {
	exports := make(map[string]bool, len(b.ExportGoods))
	for _, g := range b.ExportGoods {
		exports[g] = true
	}
	matched := 0
	for _, g := range a.ImportGoods {
		if exports[g] {
			matched++
		}
	}
	complementarity := gamemath.SafeDiv(float64(matched), float64(len(a.ImportGoods)))
	overlap := gamemath.Clamp01(math.Min(
		gamemath.SafeDiv(a.ForeignInvestment, b.GDP),
		gamemath.SafeDiv(b.ForeignInvestment, a.GDP),
	))
	return complementarity*0.6 + overlap*0.4
}

// historicalModifier starts neutral and moves with shared agreements and
// past conflicts recorded in a's memory.
func historicalModifier(a, b *world.Country) float64 {
	h := 0.5
	for _, name := range a.Memory.Agreements {
		if name == b.Name {
			h += 0.1
		}
	}
	for _, name := range a.Memory.PastConflicts {
		if name == b.Name {
			h -= 0.2
		}
	}
	return gamemath.Clamp01(h)
}

// Relation returns a copy of a's relation toward b.
func (d *AI) Relation(a, b string) (Relation, bool) {
	r, ok := d.relations[a][b]
	if !ok {
		return Relation{}, false
	}
	return *r, true
}

// RecordInteraction queues an interaction on both directions of a pair. It is
// applied at the next UpdateRelationships; a later interaction replaces an
// earlier one. Unknown kinds are ignored.
func (d *AI) RecordInteraction(a, b string, kind InteractionKind, outcome float64) {
	if _, ok := interactionModifiers[kind]; !ok {
		return
	}
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if r, ok := d.relations[pair[0]][pair[1]]; ok {
			r.LastInteraction = &Interaction{Kind: kind, Outcome: outcome, Month: d.month}
		}
	}
}

// UpdateRelationships decays trust and tension, applies pending interactions
// and clears them. Every value ends in [0,1].
func (d *AI) UpdateRelationships() {
	for _, a := range d.names() {
		row := d.relations[a]
		for _, b := range sortedRelationKeys(row) {
			r := row[b]
			r.Trust *= DecayRate
			r.Tension *= DecayRate
			if li := r.LastInteraction; li != nil {
				m := interactionModifiers[li.Kind]
				r.Trust += m.Trust * li.Outcome
				r.Tension += m.Tension * li.Outcome
				r.Cooperation += m.Cooperation * li.Outcome
				r.LastInteraction = nil
			}
			r.clamp()
		}
	}
}

// ApplyModifiers changes a's view of b by m and b's view of a by 0.8×m.
func (d *AI) ApplyModifiers(a, b string, m Modifiers) {
	if r, ok := d.relations[a][b]; ok {
		r.Trust += m.Trust
		r.Tension += m.Tension
		r.Cooperation += m.Cooperation
		r.clamp()
	}
	if r, ok := d.relations[b][a]; ok {
		r.Trust += m.Trust * 0.8
		r.Tension += m.Tension * 0.8
		r.Cooperation += m.Cooperation * 0.8
		r.clamp()
	}
}

// Tensions returns a's tension toward every country above 0.3.
func (d *AI) Tensions(a string) map[string]float64 {
	out := make(map[string]float64)
	for b, r := range d.relations[a] {
		if r.Tension > 0.3 {
			out[b] = r.Tension
		}
	}
	return out
}

// History returns the diplomatic events a country took part in.
func (d *AI) History(name string) []HistoryEntry {
	return append([]HistoryEntry(nil), d.history[name]...)
}

func (d *AI) record(event string, participants ...string) {
	for _, p := range participants {
		var others []string
		for _, o := range participants {
			if o != p {
				others = append(others, o)
			}
		}
		d.history[p] = append(d.history[p], HistoryEntry{Event: event, Month: d.month, Participants: others})
	}
}

func (d *AI) publish(typ events.Type, data map[string]any) {
	if d.bus != nil {
		d.bus.Publish(typ, d.month, data)
	}
}

func (d *AI) names() []string {
	return world.SortedNames(d.countries)
}

func sortedRelationKeys(row map[string]*Relation) []string {
	keys := make(map[string]float64, len(row))
	for k := range row {
		keys[k] = 0
	}
	return world.SortedKeys(keys)
}
