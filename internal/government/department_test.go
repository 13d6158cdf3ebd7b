package government

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/events"
)

func newDept(t *testing.T, k Kind, bus *events.Dispatcher) *Department {
	t.Helper()
	d, err := NewDepartment(k, bus)
	require.NoError(t, err)
	return d
}

func TestDefenseBudgetTracksSoldiers(t *testing.T) {
	d := newDept(t, KindDefense, nil)

	// 150000×30000 + 20e9 + 5e9
	assert.InDelta(t, 29.5e9, d.CalculateBudget(), 1e-3)
	before := d.MonthlyCost()

	d.SetMetric("soldiers", 180000)
	after := d.MonthlyCost()
	assert.InDelta(t, 30000.0*30000/12, after-before, 1e-3)
	assert.InDelta(t, (180000*30000.0+25e9)/12, after, 1e-3)
}

func TestBudgetIsPureFunctionOfMetrics(t *testing.T) {
	for _, k := range Kinds {
		d := newDept(t, k, nil)
		first := d.CalculateBudget()
		d.SimulateMonth()
		d.Performance["defenseReadiness"] = 0.1
		d.Policies["foreignAid"] = 0.4
		assert.Equal(t, first, d.CalculateBudget(), k.String())
		assert.Greater(t, first, 0.0, k.String())
	}
}

func TestAdjustSalaries(t *testing.T) {
	d := newDept(t, KindEducation, nil)
	before := d.CalculateBudget()
	d.AdjustSalaries(0.1)
	assert.InDelta(t, 38500, d.Metrics["teacherSalary"], 1e-9)
	assert.InDelta(t, 500000*3500.0, d.CalculateBudget()-before, 1e-3)
}

func TestHealthcareMonthlyRules(t *testing.T) {
	d := newDept(t, KindHealthcare, nil)
	d.SetMetric("doctors", 200000)
	d.SetMetric("subsidyPercentage", 0.9)
	d.SimulateMonth()

	// 80 + (0.9−0.8)×2 + 50000/50000
	assert.InDelta(t, 81.2, d.Performance["lifeExpectancy"], 1e-9)
	// demand 0.83, capacity 4/3 → 4×0.6225
	assert.InDelta(t, 2.49, d.Performance["waitingTimes"], 1e-9)
	// waiting factor from the previous 4 weeks: (0.5×0.6 + 0.9×0.4)×0.9
	assert.InDelta(t, 0.594, d.Performance["patientSatisfaction"], 1e-9)
	require.Len(t, d.History, 1)
	assert.Equal(t, 1, d.History[0].Month)
}

func TestHealthcareDoctorBoundsAndEvents(t *testing.T) {
	bus := events.NewDispatcher()
	var got []events.Event
	bus.Subscribe("healthcare", func(e events.Event) { got = append(got, e) }, 0)

	d := newDept(t, KindHealthcare, bus)
	assert.Equal(t, 300000.0, d.SetMetric("doctors", 400000))
	assert.Equal(t, 100000.0, d.SetMetric("doctors", 1))
	d.SetMetric("subsidyPercentage", 0.7)
	assert.Equal(t, 0.0, d.Policies["freeAtPointOfUse"])

	require.Equal(t, 3, bus.Flush(events.PhaseMain))
	require.Len(t, got, 3)
	assert.Equal(t, events.HealthcareStaffing, got[0].Type)
	assert.Equal(t, events.HealthcareFunding, got[2].Type)
}

func TestReforms(t *testing.T) {
	d := newDept(t, KindDefense, nil)
	assert.True(t, d.ImplementReform(ReformIncreaseReadiness))
	assert.InDelta(t, 0.9, d.Performance["defenseReadiness"], 1e-9)
	d.ImplementReform(ReformIncreaseReadiness)
	d.ImplementReform(ReformIncreaseReadiness)
	assert.Equal(t, 1.0, d.Performance["defenseReadiness"])

	assert.False(t, d.ImplementReform(ReformPrivatization))
	assert.False(t, d.ImplementReform(Reform("abolishArmy")))

	h := newDept(t, KindHealthcare, nil)
	h.ImplementReform(ReformPrivatization)
	h.ImplementReform(ReformPrivatization)
	h.ImplementReform(ReformPrivatization)
	assert.InDelta(t, 0.6, h.Metrics["subsidyPercentage"], 1e-9)

	e := newDept(t, KindEducation, nil)
	for i := 0; i < 10; i++ {
		e.ImplementReform(ReformVocational)
	}
	assert.InDelta(t, 0.5, e.Policies["vocationalTraining"], 1e-9)
}

func TestRatesStayInUnitInterval(t *testing.T) {
	for _, k := range Kinds {
		d := newDept(t, k, nil)
		for i := 0; i < 600; i++ {
			d.SimulateMonth()
		}
		for key, v := range d.Performance {
			if ConfigFor(k).Absolute[key] {
				continue
			}
			assert.GreaterOrEqual(t, v, 0.0, "%s.%s", k, key)
			assert.LessOrEqual(t, v, 1.0, "%s.%s", k, key)
		}
	}
}

func TestConscriptionCapsSoldiers(t *testing.T) {
	d := newDept(t, KindDefense, nil)
	d.SetPolicy("conscription", 1)
	for i := 0; i < 10; i++ {
		d.SimulateMonth()
	}
	assert.Equal(t, 200000.0, d.Metrics["soldiers"])
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("foreign_affairs")
	require.True(t, ok)
	assert.Equal(t, KindForeignAffairs, k)
	_, ok = ParseKind("treasury")
	assert.False(t, ok)
}
