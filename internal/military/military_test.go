package military

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/world"
)

func country(name string, strength float64, nuclear bool) *world.Country {
	return &world.Country{
		Name:             name,
		GDP:              100,
		Population:       10e6,
		MilitaryStrength: strength,
		Nuclear:          nuclear,
		Infrastructure:   1,
		AccessibleArea:   1,
		Relationships:    map[string]float64{},
	}
}

func TestResolveBattleLanchester(t *testing.T) {
	out := ResolveBattle(BattleInput{
		AttackerPower:  100,
		DefenderPower:  50,
		AttackerSupply: 1,
		DefenderSupply: 1,
		Terrain:        world.TerrainPlains,
	})
	assert.True(t, out.AttackerWins)
	assert.InDelta(t, 1.0, out.DefenderLosses, 1e-12)
	assert.InDelta(t, math.Sqrt(50)*0.1, out.AttackerLosses, 1e-12)
	assert.InDelta(t, 0.707, out.AttackerLosses, 1e-3)
	assert.Equal(t, 14, out.DurationDays)
}

func TestTerrainFavoursDefender(t *testing.T) {
	out := ResolveBattle(BattleInput{
		AttackerPower:  100,
		DefenderPower:  50,
		AttackerSupply: 1,
		DefenderSupply: 1,
		Terrain:        world.TerrainMountain,
	})
	assert.False(t, out.AttackerWins)
	assert.InDelta(t, 150, out.DefenderEffective, 1e-12)
	assert.Equal(t, 60, out.DurationDays)
}

func TestBattleDurationBands(t *testing.T) {
	tests := []struct {
		att, def float64
		want     int
	}{
		{400, 100, 7},
		{200, 100, 14},
		{120, 100, 30},
		{100, 100, 60},
		{10, 0, 7},
		{0, 0, 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BattleDuration(tt.att, tt.def), "%v vs %v", tt.att, tt.def)
	}
}

func TestDeterrence(t *testing.T) {
	assert.Equal(t, 0.01, Deterrence(false, true))
	assert.Equal(t, 0.001, Deterrence(true, true))
	assert.Equal(t, 1.0, Deterrence(true, false))
	assert.Equal(t, 1.0, Deterrence(false, false))
}

func TestNuclearDefenderGatesInvasions(t *testing.T) {
	e := New(entropy.NewSeeded(42), nil)
	e.Initialize([]*world.Country{country("A", 100, false), country("B", 50, true)})

	require.Equal(t, 0.01, e.DeterrenceProbability("A", "B"))
	attacks := 0
	for i := 0; i < 10000; i++ {
		if e.ShouldConsiderAttack("A", "B") {
			attacks++
		}
	}
	assert.InDelta(t, 100, attacks, 40)
}

func TestDoctrine(t *testing.T) {
	c := &world.Country{}
	c.Traits.Aggression = 0.8
	assert.Equal(t, DoctrineOffensive, DetermineDoctrine(c))
	c.Traits.Aggression, c.Traits.Innovation = 0.2, 0.7
	assert.Equal(t, DoctrineModernization, DetermineDoctrine(c))
	c.Traits.Innovation, c.LandMass = 0.2, 0.4
	assert.Equal(t, DoctrineDefensive, DetermineDoctrine(c))
	c.LandMass = 0.1
	assert.Equal(t, DoctrineBalanced, DetermineDoctrine(c))
	assert.Equal(t, 1.0, Doctrine("guerrilla").Multiplier())
}

func TestTechLevelBoundsAndJitter(t *testing.T) {
	c := country("A", 10, false)
	c.GDP = 1e4
	c.ResearchInvestment, c.MilitaryBudget = 1, 1
	assert.Equal(t, 1.0, TechLevel(c, &entropy.Fixed{Values: []float64{0.99}}))

	poor := country("P", 10, false)
	poor.GDP = 0
	assert.Equal(t, 0.1, TechLevel(poor, &entropy.Fixed{Values: []float64{0}}))

	// GDP per head of £10k scores 0.1; jitter at 0.5 is zero.
	mid := country("M", 1, false)
	mid.ResearchInvestment, mid.MilitaryBudget = 0.5, 0.2
	assert.InDelta(t, 0.15+0.02+0.1, TechLevel(mid, &entropy.Fixed{Values: []float64{0.5}}), 1e-12)
}

func TestSupplyEfficiency(t *testing.T) {
	c := &world.Country{Infrastructure: 0.5, AccessibleArea: 0.5}
	assert.InDelta(t, 0.35+0.15, SupplyEfficiency(c), 1e-12)
}

func TestCombatPowerAndSimulateBattle(t *testing.T) {
	bus := events.NewDispatcher()
	e := New(entropy.NewSeeded(1), bus)
	att, def := country("A", 100, false), country("D", 50, false)
	e.Initialize([]*world.Country{att, def})
	e.profiles["A"].TechLevel, e.profiles["D"].TechLevel = 1, 1
	e.profiles["A"].Doctrine, e.profiles["D"].Doctrine = DoctrineBalanced, DoctrineBalanced

	assert.InDelta(t, 100, e.CombatPower(att), 1e-12)
	e.profiles["D"].Nuclear = true
	assert.InDelta(t, 75, e.CombatPower(def), 1e-12)
	e.profiles["D"].Nuclear = false

	res := e.SimulateBattle(att, def, world.TerrainPlains)
	assert.Equal(t, "A", res.Victor)
	assert.Equal(t, 14, res.DurationDays)
	assert.InDelta(t, 1.0, res.DefenderLosses, 1e-12)
	assert.Equal(t, "plains", res.Terrain)
	assert.Len(t, e.Battles(), 1)
	assert.Contains(t, def.Memory.PastConflicts, "A")
	assert.Len(t, bus.History(string(events.Battle)), 1)

	assert.Zero(t, e.CombatPower(country("ghost", 100, false)))
}

func TestIdentifyTargetsFiltersAndSorts(t *testing.T) {
	e := New(entropy.NewSeeded(1), nil)
	att := country("A", 100, false)
	att.Traits.RiskAppetite = 0.5
	att.Borders = []string{"Near"}
	near, far, strong, nuke := country("Near", 10, false), country("Far", 10, false), country("Strong", 1000, false), country("Nuke", 1, true)
	all := []*world.Country{att, near, far, strong, nuke}
	e.Initialize(all)
	for _, p := range e.profiles {
		p.TechLevel, p.Doctrine = 1, DoctrineBalanced
	}

	// Nuclear status feeds combat power, not risk: 1.5 against 100.
	assert.InDelta(t, 1.5/101.5, e.InvasionRisk(att, nuke), 1e-12)

	targets := e.IdentifyTargets(att, all)
	require.Len(t, targets, 3)
	assert.Equal(t, "Near", targets[0].Name)
	assert.Equal(t, "Far", targets[1].Name)
	assert.Equal(t, "Nuke", targets[2].Name)
	assert.Greater(t, targets[0].Value, targets[1].Value)
}

func countInvasions(t *testing.T, attackerNuclear bool) int {
	t.Helper()
	e := New(entropy.NewSeeded(42), nil)
	att, def := country("A", 100, attackerNuclear), country("B", 5, true)
	att.Traits.RiskAppetite, att.Traits.Aggression = 0.9, 0.9
	all := []*world.Country{att, def}
	e.Initialize(all)
	for _, p := range e.profiles {
		p.TechLevel, p.Doctrine = 1, DoctrineBalanced
	}
	require.Less(t, e.InvasionRisk(att, def), att.Traits.RiskAppetite)

	n := 0
	for i := 0; i < 10000; i++ {
		for _, a := range e.ConsiderActions(att, all, nil) {
			if a.Kind == ActionInvasion && a.Target == "B" {
				n++
			}
		}
	}
	return n
}

func TestConsiderActionsNuclearDefender(t *testing.T) {
	assert.InDelta(t, 100, countInvasions(t, false), 40)
}

func TestConsiderActionsMutualDeterrence(t *testing.T) {
	assert.InDelta(t, 10, countInvasions(t, true), 10)
}

func TestStrategicValue(t *testing.T) {
	a := country("A", 1, false)
	a.ImportGoods = []string{"oil", "grain"}
	a.Borders = []string{"B"}
	a.Relationships["B"] = 0.5
	b := country("B", 1, false)
	b.ExportGoods = []string{"oil"}
	assert.InDelta(t, 0.5*0.5+0.8*0.3+0.5*0.2, StrategicValue(a, b), 1e-12)
}

func TestGenerateInvasionPlan(t *testing.T) {
	e := New(entropy.NewSeeded(1), nil)
	att, def := country("A", 100, false), country("D", 50, false)
	def.Terrain = world.TerrainForest
	e.Initialize([]*world.Country{att, def})
	for _, p := range e.profiles {
		p.TechLevel, p.Doctrine = 1, DoctrineBalanced
	}

	plan := e.GenerateInvasionPlan(att, def)
	require.Len(t, plan.Phases, 3)
	assert.Equal(t, []string{"aerial", "ground", "occupation"},
		[]string{plan.Phases[0].Type, plan.Phases[1].Type, plan.Phases[2].Type})
	assert.Equal(t, 14, plan.Phases[0].Days)
	// 100 vs 90 falls in the 30-day band, slowed by forest movement.
	assert.Equal(t, int(math.Ceil(30/0.7)), plan.Phases[1].Days)
	assert.Equal(t, 40, plan.Phases[2].Days)
	assert.InDelta(t, 135, plan.RequiredForces, 1e-9)
	assert.Greater(t, plan.SuccessProbability, 0.5)
	assert.Less(t, plan.SuccessProbability, 1.0)
}

func TestAssessThreatAndBudget(t *testing.T) {
	e := New(entropy.NewSeeded(1), nil)
	c, rival, friend := country("C", 50, false), country("R", 50, false), country("F", 500, false)
	c.Borders = []string{"R"}
	c.Relationships["F"] = 0.9
	all := []*world.Country{c, rival, friend}
	e.Initialize(all)
	for _, p := range e.profiles {
		p.TechLevel, p.Doctrine = 1, DoctrineBalanced
	}

	assert.InDelta(t, 1.0, e.AssessThreatLevel(c, all), 1e-12)

	c.MilitaryBudget = 0.02
	c.Traits.Aggression = 1
	assert.InDelta(t, 0.02+(0.4+0.3+0.0-0.02)*0.01, UpdateMilitaryBudget(c, 1, 0), 1e-12)
	c.MilitaryBudget = 0.9
	assert.Equal(t, 0.5, UpdateMilitaryBudget(c, 0, 0))
}

func TestPrioritizeKeepsTopThree(t *testing.T) {
	actions := []Action{
		{Kind: ActionInvasion, Target: "a", Value: 0.9},
		{Kind: ActionInvasion, Target: "b", Value: 0.1},
		{Kind: ActionFortify, Value: 0.8},
		{Kind: ActionJointExercises, Target: "c", Value: 0.3},
	}
	got := PrioritizeActions(actions, world.Traits{Aggression: 1})
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Target)
	assert.Equal(t, ActionFortify, got[1].Kind)
	assert.Equal(t, ActionJointExercises, got[2].Kind)
}

func TestSnapshotRestore(t *testing.T) {
	e := New(entropy.NewSeeded(3), nil)
	a, b := country("A", 10, false), country("B", 10, true)
	e.Initialize([]*world.Country{a, b})
	e.SimulateBattle(a, b, world.TerrainUrban)
	snap := e.Snapshot()

	e.SimulateBattle(b, a, world.TerrainPlains)
	e.profiles["A"].TechLevel = 0.5

	e.Restore(snap)
	assert.Equal(t, snap, e.Snapshot())
	assert.Len(t, e.Battles(), 1)
}
