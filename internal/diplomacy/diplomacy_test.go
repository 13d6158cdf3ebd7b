package diplomacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/world"
)

func newCountry(name string, gov world.GovernmentType, traits world.Traits) *world.Country {
	return &world.Country{
		Name:        name,
		Government:  gov,
		GDP:         1000,
		Sectors:     map[string]float64{name + "-sector": 1},
		Tariffs:     map[string]float64{},
		ExportGoods: []string{"oil"},
		ImportGoods: []string{"oil"},
		Traits:      traits,
	}
}

func setup(t *testing.T, countries ...*world.Country) (*AI, *events.Dispatcher) {
	t.Helper()
	bus := events.NewDispatcher()
	d := New(bus)
	d.Initialize(countries)
	return d, bus
}

func TestInitialTrust(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{})
	// political 1, economic 0.6, historical 0.5
	assert.InDelta(t, (0.4+0.18+0.15)*0.8+0.1, InitialTrust(a, b), 1e-12)

	b.Government = world.GovAutocracy
	a.Memory.PastConflicts = []string{"B", "B", "B"}
	assert.InDelta(t, (0.18)*0.8+0.1, InitialTrust(a, b), 1e-12)
}

func TestInitializeBuildsEveryOrderedPair(t *testing.T) {
	d, _ := setup(t,
		newCountry("A", world.GovDemocracy, world.Traits{}),
		newCountry("B", world.GovDemocracy, world.Traits{}),
		newCountry("C", world.GovDemocracy, world.Traits{}),
	)
	for _, a := range []string{"A", "B", "C"} {
		for _, b := range []string{"A", "B", "C"} {
			_, ok := d.Relation(a, b)
			assert.Equal(t, a != b, ok, "%s->%s", a, b)
		}
	}
}

func TestUpdateRelationshipsDecaysThenApplies(t *testing.T) {
	d, _ := setup(t,
		newCountry("A", world.GovDemocracy, world.Traits{}),
		newCountry("B", world.GovDemocracy, world.Traits{}),
	)
	d.relations["A"]["B"].Trust = 0.5
	d.relations["A"]["B"].Tension = 0.5
	d.UpdateRelationships()

	r, _ := d.Relation("A", "B")
	assert.InDelta(t, 0.49, r.Trust, 1e-12)
	assert.InDelta(t, 0.49, r.Tension, 1e-12)

	d.relations["A"]["B"].Trust = 0.5
	d.relations["A"]["B"].Tension = 0
	d.RecordInteraction("A", "B", Sanction, 1)
	d.UpdateRelationships()

	r, _ = d.Relation("A", "B")
	assert.InDelta(t, 0.49-0.3, r.Trust, 1e-12)
	assert.InDelta(t, 0.2, r.Tension, 1e-12)
	assert.Nil(t, r.LastInteraction)

	rev, _ := d.Relation("B", "A")
	assert.Nil(t, rev.LastInteraction)
}

func TestUnknownInteractionIsIgnored(t *testing.T) {
	d, _ := setup(t,
		newCountry("A", world.GovDemocracy, world.Traits{}),
		newCountry("B", world.GovDemocracy, world.Traits{}),
	)
	d.RecordInteraction("A", "B", InteractionKind("embargo"), 1)
	r, _ := d.Relation("A", "B")
	assert.Nil(t, r.LastInteraction)

	_, ok := ParseInteraction("embargo")
	assert.False(t, ok)
	k, ok := ParseInteraction("border_dispute")
	assert.True(t, ok)
	assert.Equal(t, BorderDispute, k)
}

func TestRelationsStayInUnitInterval(t *testing.T) {
	d, _ := setup(t,
		newCountry("A", world.GovDemocracy, world.Traits{}),
		newCountry("B", world.GovOneParty, world.Traits{}),
		newCountry("C", world.GovAutocracy, world.Traits{}),
	)
	kinds := []InteractionKind{TradeDeal, Sanction, AllianceMade, BorderDispute}
	names := []string{"A", "B", "C"}
	src := entropy.NewSeeded(7)

	for i := 0; i < 500; i++ {
		a := names[src.Intn(3)]
		b := names[(src.Intn(2)+1+indexOf(names, a))%3]
		d.RecordInteraction(a, b, kinds[src.Intn(len(kinds))], src.Float64()*6-3)
		if i%3 == 0 {
			d.ApplyModifiers(a, b, Modifiers{Trust: src.Float64()*2 - 1, Tension: src.Float64()*2 - 1})
		}
		d.UpdateRelationships()

		for _, x := range names {
			for _, y := range names {
				r, ok := d.Relation(x, y)
				if !ok {
					continue
				}
				require.GreaterOrEqual(t, r.Trust, 0.0)
				require.LessOrEqual(t, r.Trust, 1.0)
				require.GreaterOrEqual(t, r.Tension, 0.0)
				require.LessOrEqual(t, r.Tension, 1.0)
				require.GreaterOrEqual(t, r.Cooperation, 0.0)
				require.LessOrEqual(t, r.Cooperation, 1.0)
			}
		}
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestNegotiationWithNoRoundsFails(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{EconomicFocus: 1, Innovation: 1, RiskAppetite: 1})
	d, bus := setup(t, a, b)

	ag := d.Propose(a, b)
	d.negotiations[ag.ID].RoundsRemaining = 0

	state, err := d.NegotiateRound(ag.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, state)
	assert.Len(t, bus.History(string(events.AgreementFailed)), 1)
}

func TestNegotiationAccepted(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{Innovation: 0.5})
	b := newCountry("B", world.GovDemocracy, world.Traits{EconomicFocus: 1, Innovation: 1, RiskAppetite: 1})
	d, bus := setup(t, a, b)

	ag := d.Propose(a, b)
	assert.Equal(t, StateProposed, ag.State)
	assert.Equal(t, 3, ag.RoundsRemaining)

	state, err := d.Negotiate(ag.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, state)

	got, ok := d.Agreement(ag.ID)
	require.True(t, ok)
	assert.Len(t, got.History, 1)
	assert.Contains(t, a.Memory.Agreements, "B")
	assert.Contains(t, b.Memory.Agreements, "A")
	assert.Len(t, bus.History(string(events.AgreementSigned)), 1)
	assert.Len(t, d.Agreements("A"), 1)
	assert.Empty(t, d.ActiveNegotiations("A"))
}

func TestNegotiationExhaustsRounds(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{Aggression: 1})
	d, _ := setup(t, a, b)

	ag := d.Propose(a, b)
	require.Equal(t, 3, ag.RoundsRemaining)

	state, err := d.NegotiateRound(ag.ID, 0.5)
	require.NoError(t, err)
	assert.Equal(t, StateCountering, state)
	assert.Len(t, d.ActiveNegotiations("B"), 1)
	assert.False(t, d.ShouldPropose("A", "B"))

	state, err = d.Negotiate(ag.ID, 0.5)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, state)

	got, _ := d.Agreement(ag.ID)
	assert.Len(t, got.History, 3)
	assert.Zero(t, got.RoundsRemaining)
	assert.LessOrEqual(t, got.CurrentTerms.MarketAccess, got.RedLines.MaxMarketAccess)
}

func TestNegotiateUnknownID(t *testing.T) {
	d, _ := setup(t)
	_, err := d.Negotiate("missing", 0)
	assert.ErrorIs(t, err, ErrUnknownNegotiation)
}

func TestDealComplexityAddsRounds(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{})
	a.Sectors = map[string]float64{"steel": 0.5, "tech": 0.5}
	b.Sectors = map[string]float64{"steel": 0.5, "tech": 0.5}
	b.Tariffs = map[string]float64{"steel": 0.3, "tech": 0.3}

	assert.InDelta(t, 1.0, DealComplexity(a, b), 1e-12)

	d, _ := setup(t, a, b)
	assert.Equal(t, 5, d.Propose(a, b).RoundsRemaining)
}

func TestAcceptanceThreshold(t *testing.T) {
	assert.InDelta(t, 0.3, AcceptanceThreshold(world.Traits{}, 0), 1e-12)
	assert.InDelta(t, 0.7, AcceptanceThreshold(world.Traits{RiskAppetite: 1}, 1), 1e-12)
	assert.Equal(t, 1.0, Utility(Terms{TariffReduction: 5}, world.Traits{EconomicFocus: 1}))
}

func TestFormAllianceRequiresCompatibility(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{})
	d, bus := setup(t, a, b)

	d.relations["A"]["B"].Trust = 0
	_, ok := d.FormAlliance("A", "B")
	assert.False(t, ok, "compatibility exactly at the threshold does not ally")

	d.relations["A"]["B"].Trust = 1
	before, _ := d.Relation("B", "A")
	al, ok := d.FormAlliance("A", "B")
	require.True(t, ok)
	assert.Equal(t, AllianceDefensive, al.Type)
	assert.InDelta(t, 1.0, al.Strength, 1e-12)
	assert.True(t, d.Allied("A", "B"))

	after, _ := d.Relation("B", "A")
	assert.InDelta(t, before.Trust+0.2, after.Trust, 1e-12)
	ab, _ := d.Relation("A", "B")
	assert.Equal(t, 1.0, ab.Trust)
	assert.Len(t, bus.History(string(events.AllianceFormed)), 1)

	_, ok = d.FormAlliance("B", "A")
	assert.False(t, ok, "already allied")
}

func TestIncompatibleCountriesDoNotAlly(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{DiplomaticBias: -1})
	b := newCountry("B", world.GovAutocracy, world.Traits{DiplomaticBias: 1})
	d, _ := setup(t, a, b)

	assert.InDelta(t, d.relations["A"]["B"].Trust*0.4, d.Compatibility("A", "B"), 1e-12)
	_, ok := d.FormAlliance("A", "B")
	assert.False(t, ok)
}

func TestBreakAlliancePenalisesInstigator(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{})
	d, bus := setup(t, a, b)
	d.relations["A"]["B"].Trust = 1
	al, ok := d.FormAlliance("A", "B")
	require.True(t, ok)

	ab, _ := d.Relation("A", "B")
	ba, _ := d.Relation("B", "A")

	require.NoError(t, d.BreakAlliance(al.ID, "A"))
	assert.False(t, d.Allied("A", "B"))

	ab2, _ := d.Relation("A", "B")
	ba2, _ := d.Relation("B", "A")
	assert.InDelta(t, ab.Trust-0.4, ab2.Trust, 1e-12)
	assert.InDelta(t, ba.Trust-0.32, ba2.Trust, 1e-12)
	assert.InDelta(t, ab.Tension+0.3, ab2.Tension, 1e-12)
	assert.InDelta(t, ba.Tension+0.24, ba2.Tension, 1e-12)
	assert.Contains(t, b.Memory.PastConflicts, "A")
	assert.Len(t, bus.History(string(events.AllianceBroken)), 1)

	assert.ErrorIs(t, d.BreakAlliance(al.ID, "A"), ErrUnknownAlliance)
}

func TestCounterAlliance(t *testing.T) {
	d, _ := setup(t,
		newCountry("A", world.GovDemocracy, world.Traits{}),
		newCountry("B", world.GovDemocracy, world.Traits{}),
		newCountry("Big", world.GovAutocracy, world.Traits{}),
	)
	al, ok := d.FormCounterAlliance([]string{"B", "A"}, "Big")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, al.Members)
	assert.Equal(t, AllianceCounter, al.Type)

	_, ok = d.FormCounterAlliance([]string{"A", "B"}, "Big")
	assert.False(t, ok, "duplicate coalition")

	r, _ := d.Relation("A", "Big")
	assert.InDelta(t, 0.1, r.Tension, 1e-12)
	assert.Greater(t, d.AllianceStrength("A"), 0.0)
	assert.Zero(t, d.AllianceStrength("Big"))
}

func TestMilitaryBalanceAndBorderResolution(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{})
	m := newCountry("M", world.GovDemocracy, world.Traits{})
	a.MilitaryStrength, b.MilitaryStrength = 80, 20
	d, _ := setup(t, a, b, m)

	bal := d.CalculateMilitaryBalance([]string{"A", "B", "nobody"})
	assert.InDelta(t, 100, bal.Total, 1e-12)
	assert.InDelta(t, 0.8, bal.Shares["A"], 1e-12)
	assert.Zero(t, bal.Shares["nobody"])

	res := d.ResolveBorderConflict([]string{"A", "B"}, "river delta")
	assert.Equal(t, "M", res.Mediator)
	assert.True(t, res.Resolved)
	assert.InDelta(t, 0.71, res.Settlement.Split["A"], 1e-12)
	assert.InDelta(t, 0.29, res.Settlement.Split["B"], 1e-12)
	assert.ElementsMatch(t, []string{"A", "B"}, res.Accepted)

	r, _ := d.Relation("A", "B")
	require.NotNil(t, r.LastInteraction)
	assert.Equal(t, BorderDispute, r.LastInteraction.Kind)
}

func TestBalanceWithNoStrength(t *testing.T) {
	d, _ := setup(t, newCountry("A", world.GovDemocracy, world.Traits{}))
	bal := d.CalculateMilitaryBalance([]string{"A"})
	assert.Zero(t, bal.Shares["A"])
}

func TestSnapshotRestore(t *testing.T) {
	a := newCountry("A", world.GovDemocracy, world.Traits{})
	b := newCountry("B", world.GovDemocracy, world.Traits{})
	d, _ := setup(t, a, b)
	d.relations["A"]["B"].Trust = 1
	_, ok := d.FormAlliance("A", "B")
	require.True(t, ok)
	snap := d.Snapshot()

	require.NoError(t, d.BreakAlliance(d.AllAlliances()[0].ID, "A"))
	d.UpdateRelationships()

	d.Restore(snap)
	assert.True(t, d.Allied("A", "B"))
	assert.Equal(t, snap, d.Snapshot())
}
