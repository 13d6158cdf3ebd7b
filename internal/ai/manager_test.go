package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/world"
)

func testCountry(name string, strength float64) *world.Country {
	return &world.Country{
		Name:               name,
		GDP:                500,
		Population:         50e6,
		Sectors:            map[string]float64{"technology": 0.3, "manufacturing": 0.3, "energy": 0.4},
		Tariffs:            map[string]float64{},
		Exports:            100,
		Imports:            90,
		GovernmentDebt:     250,
		InflationTarget:    0.02,
		GrowthTarget:       0.02,
		FiscalSpace:        20,
		MilitaryStrength:   strength,
		MilitaryBudget:     0.02,
		ResearchInvestment: 0.5,
		Infrastructure:     0.7,
		AccessibleArea:     0.8,
		Conditions: world.Conditions{
			GDPGrowth:          0.02,
			Inflation:          0.02,
			Unemployment:       0.05,
			DebtToGDP:          50,
			BankHealthIndex:    0.8,
			PoliticalStability: 75,
			EnvironmentalIndex: 70,
			EconomicStability:  0.7,
			PotentialGDP:       500,
			InterestRate:       3,
		},
		Traits: world.Traits{Aggression: 0.2, EconomicFocus: 0.6, RiskAppetite: 0.5, Innovation: 0.5},
	}
}

func setup(t *testing.T, seed int64) (*Manager, *events.Dispatcher, []*world.Country, *world.Country) {
	t.Helper()
	bus := events.NewDispatcher()
	m := NewManager(bus)
	countries := []*world.Country{testCountry("Cedonia", 100), testCountry("Arvale", 120), testCountry("Brisk", 80)}
	player := testCountry("United Kingdom", 110)
	player.Player = true
	require.NoError(t, m.Initialize(countries, player, economy.NewManager(), entropy.NewSeeded(seed)))
	return m, bus, countries, player
}

func TestInitialRelationForIdenticalProfiles(t *testing.T) {
	a, b := testCountry("A", 1), testCountry("B", 1)
	a.Traits.DiplomaticBias, b.Traits.DiplomaticBias = 0, 0
	assert.InDelta(t, 0.9, InitialRelation(a, b), 1e-12)

	b.Sectors = map[string]float64{"agriculture": 1}
	b.Traits.DiplomaticBias = 1
	assert.InDelta(t, (0*0.6+0*0.4)*0.8+0.1, InitialRelation(a, b), 1e-12)
}

func TestSectorSimilarity(t *testing.T) {
	assert.InDelta(t, 0.5, SectorSimilarity(map[string]float64{"a": 1}, map[string]float64{"a": 0.5, "b": 0.5}), 1e-12)
	assert.Equal(t, 1.0, SectorSimilarity(nil, nil))
}

func TestInitializeRequiresPlayer(t *testing.T) {
	m := NewManager(nil)
	err := m.Initialize([]*world.Country{testCountry("A", 1)}, nil, nil, entropy.NewSeeded(1))
	assert.ErrorIs(t, err, ErrPlayerMissing)
	assert.False(t, m.Initialized())
	assert.ErrorIs(t, m.Step(1), ErrNotInitialized)

	_, err = m.CountryState("A")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitializeRelationsAndTraits(t *testing.T) {
	bare := testCountry("Bare", 10)
	bare.Traits = world.Traits{}
	player := testCountry("United Kingdom", 10)
	m := NewManager(nil)
	require.NoError(t, m.Initialize([]*world.Country{bare, testCountry("Other", 10), player}, player, nil, entropy.NewSeeded(3)))

	assert.NotEqual(t, world.Traits{}, bare.Traits, "missing traits are drawn")
	assert.Equal(t, PlayerRelation, bare.Relation("United Kingdom"))
	assert.Equal(t, PlayerRelation, player.Relation("Bare"))
	assert.Equal(t, []string{"Bare", "Other"}, m.Names())
	_, ok := bare.Relationships["Bare"]
	assert.False(t, ok)
}

func TestStepUpdatesEveryCountry(t *testing.T) {
	m, _, countries, _ := setup(t, 11)
	require.NoError(t, m.Step(1))

	for _, c := range countries {
		assert.Len(t, c.StrategicGoals, 2, c.Name)
		assert.NotEmpty(t, c.Memory.Actions, c.Name)
		assert.NotEmpty(t, c.Tariffs, c.Name)
	}
	assert.Len(t, m.TradeStates(), 3)
	assert.Zero(t, m.Failures())
	assert.Equal(t, 1, m.Month())
}

func TestStepIsDeterministic(t *testing.T) {
	m1, _, c1, p1 := setup(t, 21)
	m2, _, c2, p2 := setup(t, 21)
	for month := 1; month <= 4; month++ {
		require.NoError(t, m1.Step(month))
		require.NoError(t, m2.Step(month))
	}
	for i := range c1 {
		assert.Equal(t, c1[i].GDP, c2[i].GDP, c1[i].Name)
		assert.Equal(t, c1[i].Conditions, c2[i].Conditions, c1[i].Name)
		assert.Equal(t, c1[i].Relationships, c2[i].Relationships, c1[i].Name)
		assert.Equal(t, c1[i].StrategicGoals, c2[i].StrategicGoals, c1[i].Name)
		assert.Equal(t, c1[i].Tariffs, c2[i].Tariffs, c1[i].Name)
	}
	assert.Equal(t, p1.Relationships, p2.Relationships)
}

func TestFailingCountryIsIsolated(t *testing.T) {
	m, bus, countries, _ := setup(t, 5)
	var failed [][2]string
	m.OnFailure = func(country, subsystem string) {
		failed = append(failed, [2]string{country, subsystem})
	}
	broken := countries[0]
	broken.GDP = 0

	require.NoError(t, m.Step(1))
	assert.Equal(t, 1, m.Failures())
	assert.Equal(t, [][2]string{{"Cedonia", SubsystemEconomy}}, failed)
	assert.Len(t, bus.History(string(events.SubsystemFailure)), 1)

	_, ok := m.TradeStates()["Cedonia"]
	assert.False(t, ok)
	_, ok = m.TradeStates()["Arvale"]
	assert.True(t, ok)
}

func TestGuardRecoversPanics(t *testing.T) {
	m, _, _, _ := setup(t, 5)
	m.guard("Arvale", SubsystemMilitary, func() error { panic("boom") })
	assert.Equal(t, 1, m.Failures())
}

func TestCounterAllianceAgainstDominantPower(t *testing.T) {
	bus := events.NewDispatcher()
	m := NewManager(bus)
	giant := testCountry("Giant", 100000)
	countries := []*world.Country{giant, testCountry("Small", 10), testCountry("Tiny", 10)}
	player := testCountry("United Kingdom", 10)
	require.NoError(t, m.Initialize(countries, player, nil, entropy.NewSeeded(8)))

	require.Greater(t, m.PowerShares()["Giant"], DominanceShare)
	require.NoError(t, m.Step(1))

	var counter *diplomacy.Alliance
	for _, al := range m.Diplomacy().AllAlliances() {
		if al.Type == diplomacy.AllianceCounter {
			al := al
			counter = &al
		}
	}
	require.NotNil(t, counter)
	assert.Equal(t, []string{"Small", "Tiny"}, counter.Members)
	assert.Contains(t, countries[1].Memory.Actions, "counter_alliance:Giant")
}

func TestTariffRetaliation(t *testing.T) {
	m, _, countries, player := setup(t, 9)
	cedonia, arvale, brisk := countries[0], countries[1], countries[2]
	brisk.SetRelation(player.Name, 0.2)

	r, err := m.HandlePlayerAction(PlayerAction{Kind: ActionTariffChange, Target: "Cedonia", Sector: "technology", Rate: 0.2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Brisk", "Cedonia"}, r.Retaliators)
	assert.NotEmpty(t, r.Measures)
	assert.GreaterOrEqual(t, cedonia.Tariffs["technology"], 0.2*(0.5+cedonia.Traits.Aggression)-1e-12)
	assert.Empty(t, arvale.Tariffs)

	rel, _ := m.Diplomacy().Relation("Cedonia", player.Name)
	assert.Greater(t, rel.Tension, 0.0)
}

func TestPlayerActionErrors(t *testing.T) {
	m, _, _, _ := setup(t, 9)
	_, err := m.HandlePlayerAction(PlayerAction{Kind: ActionMilitaryMove, Target: "Atlantis"})
	assert.ErrorIs(t, err, ErrUnknownCountry)

	r, err := m.HandlePlayerAction(PlayerAction{Kind: ActionKind("cyber_attack")})
	assert.NoError(t, err)
	assert.Equal(t, Reaction{}, r)
}

func TestTradeProposalRunsNegotiation(t *testing.T) {
	m, _, _, player := setup(t, 9)
	r, err := m.HandlePlayerAction(PlayerAction{Kind: ActionTradeAgreement, Target: "Arvale", TariffReduction: 0.3, MarketAccess: 0.1, IntellectualProperty: 0.1})
	require.NoError(t, err)
	require.NotNil(t, r.Agreement)
	assert.Equal(t, player.Name, r.Agreement.Proposer)
	assert.True(t, r.Agreement.State.Done())
}

func TestMilitaryMoveRaisesTension(t *testing.T) {
	m, _, countries, player := setup(t, 9)
	before, _ := m.Diplomacy().Relation("Arvale", player.Name)
	_, err := m.HandlePlayerAction(PlayerAction{Kind: ActionMilitaryMove, Target: "Arvale", Strength: 240})
	require.NoError(t, err)

	after, _ := m.Diplomacy().Relation("Arvale", player.Name)
	assert.InDelta(t, before.Tension+0.2, after.Tension, 1e-12)
	assert.Contains(t, countries[1].Memory.PastConflicts, player.Name)
}

func TestDecisionLogKeepsLastTen(t *testing.T) {
	m, _, countries, _ := setup(t, 2)
	for i := 0; i < 15; i++ {
		countries[0].Remember("noop")
	}
	countries[0].Remember("latest")
	log, err := m.DecisionLog("Cedonia")
	require.NoError(t, err)
	assert.Len(t, log.RecentActions, 10)
	assert.Equal(t, "latest", log.RecentActions[9])

	_, err = m.DecisionLog("United Kingdom")
	assert.ErrorIs(t, err, ErrUnknownCountry)
}

func TestStatusAccessors(t *testing.T) {
	m, _, _, player := setup(t, 2)
	st, err := m.CountryState(player.Name)
	require.NoError(t, err)
	assert.Equal(t, player.Name, st.Country.Name)
	assert.Greater(t, st.Power, 0.0)

	_, err = m.DiplomaticStatus("Nowhere")
	assert.ErrorIs(t, err, ErrUnknownCountry)
	ds, err := m.DiplomaticStatus("Arvale")
	require.NoError(t, err)
	assert.NotNil(t, ds.Tensions)

	trade, err := m.CalculateGlobalTrade(GlobalTradeInputs{CurrencyValue: 1})
	require.NoError(t, err)
	assert.InDelta(t, trade.Exports-trade.Imports, trade.Balance, 1e-9)
}

func TestSnapshotRestore(t *testing.T) {
	m, _, countries, _ := setup(t, 4)
	require.NoError(t, m.Step(1))
	snap, err := m.Snapshot()
	require.NoError(t, err)

	require.NoError(t, m.Step(2))
	require.NoError(t, m.Step(3))
	require.NoError(t, m.Restore(snap))

	again, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, again)
	assert.Equal(t, snap.Countries["Cedonia"].GDP, countries[0].GDP)

	bad := snap
	bad.Countries = map[string]world.Country{"Cedonia": snap.Countries["Cedonia"]}
	assert.ErrorIs(t, m.Restore(bad), ErrInvalidState)
}
