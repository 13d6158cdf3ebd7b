package military

import (
	"math"
	"sort"

	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/world"
)

// Target is a country the attacker could move against.
type Target struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Risk  float64 `json:"risk"`
}

// StrategicValue scores target for attacker: resources the attacker
// imports and the target exports, a shared border, and political distance.
func StrategicValue(attacker, target *world.Country) float64 {
	exports := make(map[string]bool, len(target.ExportGoods))
	for _, g := range target.ExportGoods {
		exports[g] = true
	}
	matched := 0
	for _, g := range attacker.ImportGoods {
		if exports[g] {
			matched++
		}
	}
	resource := gamemath.SafeDiv(float64(matched), float64(len(attacker.ImportGoods)))

	geographic := 0.2
	if attacker.BordersWith(target.Name) {
		geographic = 0.8
	}
	political := 1 - attacker.Relation(target.Name)
	return resource*0.5 + geographic*0.3 + political*0.2
}

// InvasionRisk is the defender's share of terrain-adjusted power. Nuclear
// deterrence is not part of it; ShouldConsiderAttack gates on that.
func (e *Engine) InvasionRisk(attacker, defender *world.Country) float64 {
	att := e.CombatPower(attacker)
	if att == 0 {
		return 1
	}
	def := e.CombatPower(defender) * defender.Terrain.Modifiers().DefenseBonus
	return gamemath.Clamp01(gamemath.SafeDiv(def, att+def))
}

// IdentifyTargets lists every other country whose risk is below the
// attacker's risk appetite, most valuable first.
func (e *Engine) IdentifyTargets(attacker *world.Country, countries []*world.Country) []Target {
	var out []Target
	for _, c := range countries {
		if c.Name == attacker.Name {
			continue
		}
		risk := e.InvasionRisk(attacker, c)
		if risk >= attacker.Traits.RiskAppetite {
			continue
		}
		out = append(out, Target{Name: c.Name, Value: StrategicValue(attacker, c), Risk: risk})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Phase is one stage of an invasion.
type Phase struct {
	Type      string `json:"type"`
	Days      int    `json:"days"`
	Objective string `json:"objective"`
}

// InvasionPlan is a costed three-phase campaign.
type InvasionPlan struct {
	Target             string  `json:"target"`
	RequiredForces     float64 `json:"required_forces"`
	EstimatedCost      float64 `json:"estimated_cost"`
	SuccessProbability float64 `json:"success_probability"`
	StrategicValue     float64 `json:"strategic_value"`
	Phases             []Phase `json:"phases"`
}

// GenerateInvasionPlan plans an air campaign, a ground campaign and an
// occupation. Required forces are 1.5× the defender's dug-in power; cost
// is force-days in £bn.
func (e *Engine) GenerateInvasionPlan(attacker, defender *world.Country) InvasionPlan {
	mods := defender.Terrain.Modifiers()
	att := e.CombatPower(attacker)
	def := e.CombatPower(defender) * mods.DefenseBonus

	aerial := int(math.Ceil(7 * (1 + e.tech(defender.Name))))
	ground := int(math.Ceil(float64(BattleDuration(att, def)) / mods.MovementPenalty))
	occupation := 30 + int(defender.Population/1e6)

	plan := InvasionPlan{
		Target:         defender.Name,
		RequiredForces: def * 1.5,
		StrategicValue: StrategicValue(attacker, defender),
		Phases: []Phase{
			{Type: "aerial", Days: aerial, Objective: "air_superiority"},
			{Type: "ground", Days: ground, Objective: "territory_capture"},
			{Type: "occupation", Days: occupation, Objective: "pacification"},
		},
	}
	var days int
	for _, p := range plan.Phases {
		days += p.Days
	}
	plan.EstimatedCost = float64(days) * plan.RequiredForces * 0.01
	ratio := gamemath.SafeDiv(att, def)
	plan.SuccessProbability = gamemath.Clamp01(ratio / (1 + ratio) * e.supply(attacker.Name))
	return plan
}

// AssessThreatLevel is the worst threat from any other country: its share
// of combined power, doubled, scaled by how little c trusts it. Only
// neighbours and countries c is hostile toward count.
func (e *Engine) AssessThreatLevel(c *world.Country, countries []*world.Country) float64 {
	mine := e.CombatPower(c)
	var worst float64
	for _, o := range countries {
		if o.Name == c.Name {
			continue
		}
		relation := c.Relation(o.Name)
		if !c.BordersWith(o.Name) && relation >= 0.3 {
			continue
		}
		theirs := e.CombatPower(o)
		share := gamemath.SafeDiv(theirs, mine+theirs)
		worst = math.Max(worst, gamemath.Clamp01(share*2*(1-relation)))
	}
	return worst
}

// UpdateMilitaryBudget nudges the budget share toward what threat, aggression
// and growth call for.
func UpdateMilitaryBudget(c *world.Country, threat, gdpGrowth float64) float64 {
	want := threat*0.4 + c.Traits.Aggression*0.3 + gdpGrowth*0.3
	return gamemath.Clamp(gamemath.Lerp(c.MilitaryBudget, want, 0.01), 0.01, 0.5)
}

// Action kinds.
const (
	ActionInvasion       = "invasion"
	ActionFortify        = "fortify_borders"
	ActionReadiness      = "increase_readiness"
	ActionJointExercises = "joint_exercises"
)

// Action is a military option under consideration.
type Action struct {
	Kind   string        `json:"kind"`
	Target string        `json:"target,omitempty"`
	Value  float64       `json:"value"`
	Plan   *InvasionPlan `json:"plan,omitempty"`
}

// ConsiderActions gathers invasion options that pass the deterrence gate,
// defensive measures when threatened and exercises with allies, then keeps
// the best three.
func (e *Engine) ConsiderActions(c *world.Country, countries []*world.Country, allies []string) []Action {
	byName := make(map[string]*world.Country, len(countries))
	for _, o := range countries {
		byName[o.Name] = o
	}

	var actions []Action
	for _, t := range e.IdentifyTargets(c, countries) {
		if !e.ShouldConsiderAttack(c.Name, t.Name) {
			continue
		}
		plan := e.GenerateInvasionPlan(c, byName[t.Name])
		actions = append(actions, Action{Kind: ActionInvasion, Target: t.Name, Value: plan.StrategicValue, Plan: &plan})
	}

	if threat := e.AssessThreatLevel(c, countries); threat > 0.6 {
		actions = append(actions,
			Action{Kind: ActionFortify, Value: threat},
			Action{Kind: ActionReadiness, Value: threat * 0.8},
		)
	}
	for _, ally := range allies {
		actions = append(actions, Action{Kind: ActionJointExercises, Target: ally, Value: 0.3})
	}
	return PrioritizeActions(actions, c.Traits)
}

// PrioritizeActions keeps the top three actions. Invasions are weighed by
// aggression, everything else by caution.
func PrioritizeActions(actions []Action, t world.Traits) []Action {
	score := func(a Action) float64 {
		if a.Kind == ActionInvasion {
			return a.Value * t.Aggression
		}
		return a.Value * (1 - t.Aggression*0.5)
	}
	sorted := append([]Action(nil), actions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i]) > score(sorted[j])
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	return sorted
}

// State is the serializable military state.
type State struct {
	Profiles map[string]Profile `json:"profiles"`
	Battles  []BattleResult     `json:"battles"`
}

// Snapshot copies the military state.
func (e *Engine) Snapshot() State {
	s := State{Profiles: make(map[string]Profile, len(e.profiles)), Battles: e.Battles()}
	for k, p := range e.profiles {
		s.Profiles[k] = *p
	}
	return s
}

// Restore replaces the military state.
func (e *Engine) Restore(s State) {
	e.profiles = make(map[string]*Profile, len(s.Profiles))
	for k, p := range s.Profiles {
		cp := p
		e.profiles[k] = &cp
	}
	e.battles = append([]BattleResult(nil), s.Battles...)
}
