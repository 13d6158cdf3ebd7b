package diplomacy

import (
	"github.com/talgya/statecraft/internal/gamemath"
)

// MilitaryBalance is each party's share of the combined strength.
type MilitaryBalance struct {
	Total  float64            `json:"total"`
	Shares map[string]float64 `json:"shares"`
}

// CalculateMilitaryBalance compares the strength of the named parties.
// Unknown names contribute nothing.
func (d *AI) CalculateMilitaryBalance(parties []string) MilitaryBalance {
	b := MilitaryBalance{Shares: make(map[string]float64, len(parties))}
	for _, p := range parties {
		if c, ok := d.countries[p]; ok {
			b.Total += c.MilitaryStrength
		}
	}
	for _, p := range parties {
		var s float64
		if c, ok := d.countries[p]; ok {
			s = c.MilitaryStrength
		}
		b.Shares[p] = gamemath.SafeDiv(s, b.Total)
	}
	return b
}

// Settlement splits a disputed zone between the parties.
type Settlement struct {
	Zone  string             `json:"zone"`
	Split map[string]float64 `json:"split"`
}

// Resolution is the outcome of a mediated border conflict.
type Resolution struct {
	Mediator   string     `json:"mediator"`
	Settlement Settlement `json:"settlement"`
	Accepted   []string   `json:"accepted"`
	Rejected   []string   `json:"rejected"`
	Resolved   bool       `json:"resolved"`
}

// ResolveBorderConflict picks the outside country most trusted by the
// parties as mediator and proposes a split weighted by military share and
// pulled toward equal shares. Parties that accept warm to the mediator;
// a rejection raises tension between the parties.
func (d *AI) ResolveBorderConflict(parties []string, zone string) Resolution {
	res := Resolution{Mediator: d.findMediator(parties)}
	balance := d.CalculateMilitaryBalance(parties)
	equal := gamemath.SafeDiv(1, float64(len(parties)))

	res.Settlement = Settlement{Zone: zone, Split: make(map[string]float64, len(parties))}
	for _, p := range parties {
		res.Settlement.Split[p] = balance.Shares[p]*0.7 + equal*0.3
	}

	for _, p := range parties {
		if d.acceptsSettlement(p, res.Settlement.Split[p], balance.Shares[p]) {
			res.Accepted = append(res.Accepted, p)
			if res.Mediator != "" {
				d.ApplyModifiers(p, res.Mediator, Modifiers{Trust: 0.05})
			}
		} else {
			res.Rejected = append(res.Rejected, p)
		}
	}

	res.Resolved = len(res.Rejected) == 0 && len(parties) > 0
	for i, a := range parties {
		for _, b := range parties[i+1:] {
			if res.Resolved {
				d.RecordInteraction(a, b, BorderDispute, 0.25)
			} else {
				d.RecordInteraction(a, b, BorderDispute, 1)
			}
		}
	}
	d.record("border_conflict", parties...)
	return res
}

// acceptsSettlement: aggressive, risk-seeking parties hold out for more
// than their military share would warrant.
func (d *AI) acceptsSettlement(name string, offered, militaryShare float64) bool {
	c, ok := d.countries[name]
	if !ok {
		return false
	}
	demand := militaryShare * (0.8 + c.Traits.Aggression*0.2 + c.Traits.RiskAppetite*0.2)
	return offered >= demand
}

func (d *AI) findMediator(parties []string) string {
	involved := make(map[string]bool, len(parties))
	for _, p := range parties {
		involved[p] = true
	}
	best, bestTrust := "", -1.0
	for _, name := range d.names() {
		if involved[name] {
			continue
		}
		var trust float64
		for _, p := range parties {
			if r, ok := d.relations[p][name]; ok {
				trust += r.Trust
			}
		}
		trust = gamemath.SafeDiv(trust, float64(len(parties)))
		if trust > bestTrust {
			best, bestTrust = name, trust
		}
	}
	return best
}
