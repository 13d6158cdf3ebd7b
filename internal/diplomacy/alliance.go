package diplomacy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
)

// ErrUnknownAlliance is returned when breaking an alliance that does not exist.
var ErrUnknownAlliance = errors.New("diplomacy: unknown alliance")

// AllianceCompatibility is the score a pair must exceed to ally.
const AllianceCompatibility = 0.6

const (
	AllianceDefensive = "defensive"
	AllianceCounter   = "counter"
)

// Alliance is a standing pact between members.
type Alliance struct {
	ID       string   `json:"id"`
	Members  []string `json:"members"`
	Type     string   `json:"type"`
	Strength float64  `json:"strength"`
	Cohesion float64  `json:"cohesion"`
	Formed   int      `json:"formed"`
}

// Has reports whether name is a member.
func (a *Alliance) Has(name string) bool {
	for _, m := range a.Members {
		if m == name {
			return true
		}
	}
	return false
}

func (a *Alliance) copy() Alliance {
	cp := *a
	cp.Members = append([]string(nil), a.Members...)
	return cp
}

// Compatibility scores how well a and b would work as allies.
func (d *AI) Compatibility(a, b string) float64 {
	ca, okA := d.countries[a]
	cb, okB := d.countries[b]
	r, okR := d.relations[a][b]
	if !okA || !okB || !okR {
		return 0
	}
	bias := 1 - math.Abs(ca.Traits.DiplomaticBias-cb.Traits.DiplomaticBias)/2
	political := 1 - math.Abs(ca.Government.Alignment()-cb.Government.Alignment())
	return gamemath.Clamp01(r.Trust*0.4 + bias*0.3 + political*0.3)
}

// Allied reports whether a and b already share an alliance.
func (d *AI) Allied(a, b string) bool {
	for _, al := range d.alliances {
		if al.Has(a) && al.Has(b) {
			return true
		}
	}
	return false
}

// FormAlliance allies a and b when their compatibility is strictly above
// the threshold. Both directions gain 0.2 trust.
func (d *AI) FormAlliance(a, b string) (*Alliance, bool) {
	if a == b || d.Allied(a, b) {
		return nil, false
	}
	compat := d.Compatibility(a, b)
	if compat <= AllianceCompatibility {
		return nil, false
	}
	al := &Alliance{
		ID:       gamemath.NewUUID(),
		Members:  []string{a, b},
		Type:     AllianceDefensive,
		Strength: compat,
		Cohesion: 0.8,
		Formed:   d.month,
	}
	d.alliances[al.ID] = al
	d.boostTrust(a, b, 0.2)
	d.record("alliance_formed", a, b)
	d.publish(events.AllianceFormed, map[string]any{"id": al.ID, "members": al.Members, "type": al.Type})
	return al, true
}

// FormCounterAlliance binds members against a dominant power. Every
// member's tension toward the target rises.
func (d *AI) FormCounterAlliance(members []string, against string) (*Alliance, bool) {
	if len(members) < 2 {
		return nil, false
	}
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	for _, al := range d.alliances {
		if al.Type == AllianceCounter && sameMembers(al.Members, sorted) {
			return nil, false
		}
	}

	var trust float64
	pairs := 0
	for i, a := range sorted {
		for _, b := range sorted[i+1:] {
			if r, ok := d.relations[a][b]; ok {
				trust += r.Trust
				pairs++
			}
		}
	}
	al := &Alliance{
		ID:       gamemath.NewUUID(),
		Members:  sorted,
		Type:     AllianceCounter,
		Strength: gamemath.SafeDiv(trust, float64(pairs)),
		Cohesion: 0.6,
		Formed:   d.month,
	}
	d.alliances[al.ID] = al
	for _, m := range sorted {
		if r, ok := d.relations[m][against]; ok {
			r.Tension = gamemath.Clamp01(r.Tension + 0.1)
		}
	}
	d.record("counter_alliance", sorted...)
	d.publish(events.AllianceFormed, map[string]any{"id": al.ID, "members": al.Members, "type": al.Type, "against": against})
	return al, true
}

// BreakAlliance dissolves an alliance. Every remaining member loses 0.4
// trust and gains 0.3 tension with the instigator.
func (d *AI) BreakAlliance(id, instigator string) error {
	al, ok := d.alliances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAlliance, id)
	}
	delete(d.alliances, id)
	for _, m := range al.Members {
		if m == instigator {
			continue
		}
		d.ApplyModifiers(instigator, m, Modifiers{Trust: -0.4, Tension: 0.3})
		if c, ok := d.countries[m]; ok {
			c.Memory.PastConflicts = append(c.Memory.PastConflicts, instigator)
		}
	}
	d.record("alliance_broken", al.Members...)
	d.publish(events.AllianceBroken, map[string]any{"id": id, "instigator": instigator, "members": al.Members})
	return nil
}

// Alliances returns the alliances name belongs to, oldest first.
func (d *AI) Alliances(name string) []Alliance {
	var out []Alliance
	for _, al := range d.alliances {
		if al.Has(name) {
			out = append(out, al.copy())
		}
	}
	sortAlliances(out)
	return out
}

// AllAlliances returns every standing alliance.
func (d *AI) AllAlliances() []Alliance {
	out := make([]Alliance, 0, len(d.alliances))
	for _, al := range d.alliances {
		out = append(out, al.copy())
	}
	sortAlliances(out)
	return out
}

// AllianceStrength sums strength×cohesion over name's alliances.
func (d *AI) AllianceStrength(name string) float64 {
	var s float64
	for _, al := range d.Alliances(name) {
		s += al.Strength * al.Cohesion
	}
	return s
}

func (d *AI) boostTrust(a, b string, v float64) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		if r, ok := d.relations[pair[0]][pair[1]]; ok {
			r.Trust = gamemath.Clamp01(r.Trust + v)
		}
	}
}

func sortAlliances(as []Alliance) {
	sort.Slice(as, func(i, j int) bool {
		if as[i].Formed != as[j].Formed {
			return as[i].Formed < as[j].Formed
		}
		if mi, mj := strings.Join(as[i].Members, ","), strings.Join(as[j].Members, ","); mi != mj {
			return mi < mj
		}
		if as[i].Type != as[j].Type {
			return as[i].Type < as[j].Type
		}
		return as[i].ID < as[j].ID
	})
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
