package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/ai"
	"github.com/talgya/statecraft/internal/data"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/government"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := New(events.NewDispatcher(), entropy.NewSeeded(7), opts)
	require.NoError(t, e.Initialize(data.Default()))
	return e
}

func run(t *testing.T, e *Engine, months int) {
	t.Helper()
	for i := 0; i < months; i++ {
		require.NoError(t, e.SimulateMonth())
	}
}

func ptr(v float64) *float64 { return &v }

func TestInitializeNeedsData(t *testing.T) {
	e := New(nil, entropy.NewSeeded(1), Options{})
	assert.ErrorIs(t, e.Initialize(nil), ErrNoData)
	assert.ErrorIs(t, e.SimulateMonth(), ErrNotInitialized)
	_, err := e.Snapshot()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, e.ApplyPlayerAction(Action{Kind: ActionMilitaryMove}), ErrNotInitialized)
	assert.False(t, e.ApplyPolicyImpact(PolicyTaxation, PolicyImpact{ConsumerImpact: 1.1}))
	assert.Empty(t, e.pending)
}

func TestInitializeLeavesDatasetAlone(t *testing.T) {
	ds := data.Default()
	want := ds.Player
	e := New(nil, entropy.NewSeeded(1), Options{Player: "France"})
	require.NoError(t, e.Initialize(ds))
	assert.Equal(t, "France", e.Player())
	assert.Equal(t, want, ds.Player)

	ds.Player = ""
	require.NoError(t, New(nil, entropy.NewSeeded(1), Options{}).Initialize(ds))
	assert.Empty(t, ds.Player)
}

func TestInitializeMissingPlayerLeavesNoState(t *testing.T) {
	e := New(nil, entropy.NewSeeded(1), Options{Player: "Atlantis"})
	err := e.Initialize(data.Default())
	require.ErrorIs(t, err, ErrPlayerMissing)
	assert.ErrorIs(t, e.SimulateMonth(), ErrNotInitialized)
	assert.Empty(t, e.Countries())
}

func TestInitializeRejectsInvalidDataset(t *testing.T) {
	e := New(nil, entropy.NewSeeded(1), Options{})
	var le *data.LoadError
	require.ErrorAs(t, e.Initialize(&data.Dataset{}), &le)
	assert.ErrorIs(t, e.SimulateMonth(), ErrNotInitialized)
}

func TestInitializeCalibratesToDatasetGDP(t *testing.T) {
	e := newEngine(t, Options{})
	assert.Equal(t, data.DefaultPlayer, e.Player())
	assert.Equal(t, 2500.0, e.Indicators().GDP)

	st, err := e.EconomicState()
	require.NoError(t, err)
	sum := st.Consumption + st.Investment + st.Government + st.Trade.Balance
	assert.InDelta(t, 2500.0, sum, 1e-6)
	assert.Equal(t, "Jan Year 1", st.Date)
	assert.Len(t, e.Countries(), 8)
}

func TestSimulateMonthAdvances(t *testing.T) {
	e := newEngine(t, Options{})
	run(t, e, 3)

	assert.Equal(t, 3, e.Month())
	h := e.History()
	require.Len(t, h, 3)
	for i, r := range h {
		assert.Equal(t, i+1, r.Month)
	}

	ind := e.Indicators()
	for name, v := range map[string]float64{
		"gdp": ind.GDP, "growth": ind.GDPGrowth, "inflation": ind.Inflation,
		"currency": ind.CurrencyValue, "debt": ind.DebtToGDP,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), name)
	}
	assert.Greater(t, ind.GDP, 0.0)
	assert.GreaterOrEqual(t, ind.Unemployment, 0.01)
	assert.LessOrEqual(t, ind.Unemployment, 0.4)
	assert.GreaterOrEqual(t, ind.ConsumerConfidence, 0.0)
	assert.LessOrEqual(t, ind.ConsumerConfidence, 100.0)

	assert.Len(t, e.Bus().History(string(events.SimulationComplete)), 3)
	assert.Greater(t, e.Statistics().GDP, 0.0)
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	e := newEngine(t, Options{HistoryCap: 5})
	run(t, e, 8)

	h := e.History()
	require.Len(t, h, 5)
	months := make([]int, len(h))
	for i, r := range h {
		months[i] = r.Month
	}
	assert.Equal(t, []int{4, 5, 6, 7, 8}, months)
}

func TestSameSeedSameOutcome(t *testing.T) {
	a := newEngine(t, Options{})
	b := newEngine(t, Options{})
	run(t, a, 4)
	run(t, b, 4)

	ia, ib := a.Indicators(), b.Indicators()
	assert.InDelta(t, ia.GDP, ib.GDP, 1e-6)
	assert.InDelta(t, ia.Inflation, ib.Inflation, 1e-9)
	assert.InDelta(t, ia.TradeBalance, ib.TradeBalance, 1e-6)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := newEngine(t, Options{})
	run(t, e, 2)

	snap, err := e.Snapshot()
	require.NoError(t, err)
	ind := e.Indicators()
	companies := e.Companies()
	policies, err := e.Policies()
	require.NoError(t, err)

	run(t, e, 2)
	require.NotEqual(t, ind, e.Indicators())

	require.NoError(t, e.Restore(snap))
	assert.Equal(t, 2, e.Month())
	assert.Equal(t, ind, e.Indicators())
	assert.Equal(t, companies, e.Companies())
	assert.Len(t, e.History(), 2)

	restored, err := e.Policies()
	require.NoError(t, err)
	assert.Equal(t, policies.Monetary, restored.Monetary)
	for name, d := range policies.Departments {
		got := restored.Departments[name]
		require.NotNil(t, got, name)
		assert.Equal(t, d.Metrics, got.Metrics, name)
		assert.Equal(t, d.Performance, got.Performance, name)
		assert.Equal(t, d.Policies, got.Policies, name)
		assert.Len(t, got.History, len(d.History), name)
	}

	// The restored session carries on.
	require.NoError(t, e.SimulateMonth())
	assert.Equal(t, 3, e.Month())
}

func TestRestoreRejectsIncompleteSnapshots(t *testing.T) {
	e := newEngine(t, Options{})
	run(t, e, 1)
	snap, err := e.Snapshot()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(snap, &doc))

	run(t, e, 1)
	before := e.Indicators()

	for _, key := range requiredKeys {
		broken := make(map[string]json.RawMessage, len(doc))
		for k, v := range doc {
			if k != key {
				broken[k] = v
			}
		}
		raw, err := json.Marshal(broken)
		require.NoError(t, err)
		assert.ErrorIs(t, e.Restore(raw), ErrInvalidSnapshot, key)
	}
	assert.ErrorIs(t, e.Restore([]byte("not json")), ErrInvalidSnapshot)

	var econ economyState
	require.NoError(t, json.Unmarshal(doc[keyEconomy], &econ))
	econ.Player.Name = "Atlantis"
	renamed := make(map[string]json.RawMessage, len(doc))
	for k, v := range doc {
		renamed[k] = v
	}
	renamed[keyEconomy], err = json.Marshal(econ)
	require.NoError(t, err)
	raw, err := json.Marshal(renamed)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Restore(raw), ErrInvalidSnapshot)

	assert.Equal(t, 2, e.Month())
	assert.Equal(t, before, e.Indicators())
}

func TestPanicRollsBackTheMonth(t *testing.T) {
	e := newEngine(t, Options{})
	run(t, e, 1)
	before := e.Indicators()
	companies := e.Companies()

	beforeRecord = func(*Engine) { panic("boom") }
	t.Cleanup(func() { beforeRecord = func(*Engine) {} })
	err := e.SimulateMonth()
	require.ErrorIs(t, err, ErrStepFailed)
	assert.Contains(t, err.Error(), "boom")

	assert.Equal(t, 1, e.Month())
	assert.Equal(t, before, e.Indicators())
	assert.Equal(t, companies, e.Companies())
	assert.Len(t, e.History(), 1)
	assert.Len(t, e.Bus().History(string(events.StepRolledBack)), 1)
	assert.Len(t, e.Bus().History(string(events.SimulationComplete)), 1)

	beforeRecord = func(*Engine) {}
	require.NoError(t, e.SimulateMonth())
	assert.Equal(t, 2, e.Month())
}

func TestRollbackWithdrawsStepEvents(t *testing.T) {
	e := newEngine(t, Options{})
	require.NoError(t, e.ApplyPlayerAction(Action{Kind: ActionMilitaryMove, Target: "France", Strength: 50}))
	before := len(e.Bus().History(""))

	beforeRecord = func(*Engine) { panic("boom") }
	t.Cleanup(func() { beforeRecord = func(*Engine) {} })
	require.ErrorIs(t, e.SimulateMonth(), ErrStepFailed)

	bus := e.Bus()
	assert.Empty(t, bus.History(string(events.PlayerAction)))
	assert.Empty(t, bus.History(string(events.Battle)))
	assert.Empty(t, bus.History("diplomacy"))
	assert.Empty(t, bus.History("crisis"))
	assert.Len(t, bus.History(""), before+1)
	assert.Len(t, bus.History(string(events.StepRolledBack)), 1)

	// The restored queue replays the action on the next good month.
	beforeRecord = func(*Engine) {}
	require.NoError(t, e.SimulateMonth())
	assert.Len(t, bus.History(string(events.PlayerAction)), 1)
}

func TestThresholdEvents(t *testing.T) {
	e := newEngine(t, Options{})
	e.ind.Inflation = 0.2
	e.ind.GDP = 1e6
	e.player.GovernmentDebt = 1e5

	require.NoError(t, e.SimulateMonth())
	bus := e.Bus()
	assert.Len(t, bus.History(string(events.HighInflation)), 1)
	assert.Len(t, bus.History(string(events.RecessionStart)), 1)
	assert.Len(t, bus.History(string(events.DebtCrisisWarning)), 1)
	assert.Greater(t, e.Indicators().DebtToGDP, 100.0)
	assert.Greater(t, e.Indicators().BudgetDeficit, 0.0)
}

func TestPlayerActionValidation(t *testing.T) {
	e := newEngine(t, Options{})

	require.NoError(t, e.ApplyPlayerAction(Action{Kind: "annex_moon"}))
	assert.Empty(t, e.queue)

	tests := []struct {
		name string
		a    Action
		is   error
	}{
		{"rate", Action{Kind: ActionTariffChange, Sector: "energy", Rate: 1.5}, ErrInvalidAction},
		{"sector", Action{Kind: ActionTariffChange, Rate: 0.1}, ErrInvalidAction},
		{"unknown target", Action{Kind: ActionTariffChange, Target: "Atlantis", Sector: "energy", Rate: 0.1}, ai.ErrUnknownCountry},
		{"self", Action{Kind: ActionTradeAgreement, Target: data.DefaultPlayer}, ErrInvalidAction},
		{"military", Action{Kind: ActionMilitaryMove}, ErrInvalidAction},
		{"policy", Action{Kind: ActionPolicyChange}, ErrInvalidAction},
		{"negative", Action{Kind: ActionPolicyChange, Policy: &PolicyChange{InterestRate: ptr(-1)}}, ErrInvalidAction},
		{"department", Action{Kind: ActionDepartmentReform, Department: "magic"}, government.ErrUnknownDepartment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, e.ApplyPlayerAction(tt.a), tt.is)
		})
	}
	assert.Empty(t, e.queue)
}

func TestPlayerActionsApplyNextMonth(t *testing.T) {
	e := newEngine(t, Options{})
	require.NoError(t, e.ApplyPlayerAction(Action{Kind: ActionTariffChange, Target: "China", Sector: "manufacturing", Rate: 0.3}))
	require.NoError(t, e.ApplyPlayerAction(Action{
		Kind:   ActionPolicyChange,
		Policy: &PolicyChange{InterestRate: ptr(3), Subsidies: map[string]float64{"energy": 1e6}},
	}))
	require.NoError(t, e.ApplyPlayerAction(Action{
		Kind: ActionDepartmentReform, Department: "education", Reform: string(government.ReformIncreaseLiteracy),
	}))
	require.NoError(t, e.ApplyPlayerAction(Action{Kind: ActionMilitaryMove, Target: "France", Strength: 50}))

	p, err := e.Policies()
	require.NoError(t, err)
	assert.Equal(t, 5.25, p.Monetary.InterestRate)

	require.NoError(t, e.SimulateMonth())
	p, err = e.Policies()
	require.NoError(t, err)
	assert.Equal(t, 0.3, p.Foreign.Tariffs["manufacturing"])
	assert.Equal(t, 3.0, p.Monetary.InterestRate)
	assert.Equal(t, 1e6, p.Subsidies["energy"])
	assert.Empty(t, e.queue)

	acts := e.Bus().History(string(events.PlayerAction))
	require.Len(t, acts, 4)
	assert.Equal(t, "tariff_change", acts[0].Data["kind"])
	assert.Equal(t, "China", acts[0].Data["target"])
	assert.Contains(t, acts[0].Data["retaliators"], "China")
	assert.Equal(t, true, acts[2].Data["applied"])
	assert.Equal(t, "military_move", acts[3].Data["kind"])

	rel := e.Relations()
	assert.Greater(t, rel["France"][data.DefaultPlayer].Tension, 0.0)
}

func TestPolicyImpactsScaleMultipliers(t *testing.T) {
	e := newEngine(t, Options{})
	assert.False(t, e.ApplyPolicyImpact("housing", PolicyImpact{ConsumerImpact: 2}))
	assert.True(t, e.ApplyPolicyImpact(PolicyTaxation, PolicyImpact{ConsumerImpact: 1.1}))
	assert.True(t, e.ApplyPolicyImpact(PolicyTrade, PolicyImpact{ExportImpact: 2, ImportImpact: 0.5}))

	assert.Equal(t, DefaultMultipliers(), e.Multipliers())
	require.NoError(t, e.SimulateMonth())

	m := e.Multipliers()
	assert.InDelta(t, 0.66, m.Consumption, 1e-12)
	assert.InDelta(t, 0.3, m.Investment, 1e-12)
	assert.InDelta(t, 0.8, m.Export, 1e-12)
	assert.InDelta(t, -0.15, m.Import, 1e-12)
}

func TestFailureHookSeesIsolatedFailures(t *testing.T) {
	e := New(nil, entropy.NewSeeded(3), Options{})
	var failed [][2]string
	e.SetFailureHook(func(country, subsystem string) {
		failed = append(failed, [2]string{country, subsystem})
	})
	require.NoError(t, e.Initialize(data.Default()))
	e.countries["France"].GDP = 0

	require.NoError(t, e.SimulateMonth())
	assert.Contains(t, failed, [2]string{"France", ai.SubsystemEconomy})
	assert.GreaterOrEqual(t, e.AIFailures(), 1)
}

func TestCountryStateCoversPlayer(t *testing.T) {
	e := newEngine(t, Options{})
	cs, err := e.CountryState(data.DefaultPlayer)
	require.NoError(t, err)
	assert.True(t, cs.Country.Player)
	assert.Greater(t, cs.Power, 0.0)

	cs, err = e.CountryState("Japan")
	require.NoError(t, err)
	assert.Equal(t, "Japan", cs.Country.Name)

	_, err = e.CountryState("Atlantis")
	assert.ErrorIs(t, err, ai.ErrUnknownCountry)
}
