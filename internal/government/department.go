package government

import (
	"fmt"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
)

// Record is one monthly snapshot in a department's history.
type Record struct {
	Month       int                `json:"month"`
	Metrics     map[string]float64 `json:"metrics"`
	Performance map[string]float64 `json:"performance"`
}

// Department is a policy domain parameterized by its Config table. Flags are
// stored as 0/1 in Policies.
type Department struct {
	Kind        Kind               `json:"kind"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Metrics     map[string]float64 `json:"metrics"`
	Performance map[string]float64 `json:"performance"`
	Policies    map[string]float64 `json:"policies"`
	History     []Record           `json:"history"`
	Month       int                `json:"month"`

	cfg *Config
	bus *events.Dispatcher
}

// NewDepartment creates a department with its default table values. bus may
// be nil.
func NewDepartment(kind Kind, bus *events.Dispatcher) (*Department, error) {
	cfg := ConfigFor(kind)
	if cfg == nil {
		return nil, fmt.Errorf("government: unknown department kind %d", kind)
	}
	return &Department{
		Kind:        kind,
		Name:        cfg.Name,
		Description: cfg.Description,
		Metrics:     copyValues(cfg.Metrics),
		Performance: copyValues(cfg.Performance),
		Policies:    copyValues(cfg.Policies),
		cfg:         cfg,
		bus:         bus,
	}, nil
}

// CalculateBudget returns the annual budget implied by the current metrics.
func (d *Department) CalculateBudget() float64 {
	return d.cfg.Budget(d.Metrics)
}

// MonthlyCost is the annual budget spread over twelve months.
func (d *Department) MonthlyCost() float64 {
	return d.CalculateBudget() / 12
}

// AdjustSalaries scales the department's salary metric by 1+pct.
func (d *Department) AdjustSalaries(pct float64) {
	if d.cfg.SalaryMetric == "" {
		return
	}
	d.Metrics[d.cfg.SalaryMetric] *= 1 + pct
}

// SetMetric sets a metric, applying its bounds, dependent performance and
// change event. It returns the stored value.
func (d *Department) SetMetric(name string, v float64) float64 {
	if b, ok := d.cfg.MetricBounds[name]; ok {
		v = gamemath.Clamp(v, b.Min, b.Max)
	}
	d.Metrics[name] = v
	if fn, ok := d.cfg.OnMetric[name]; ok {
		fn(d)
		d.clampRates()
	}
	if typ, ok := d.cfg.MetricEvents[name]; ok && d.bus != nil {
		d.bus.Queue(typ, d.Month, map[string]any{name: v}, events.PhaseMain)
	}
	return v
}

// SetPolicy sets a policy lever.
func (d *Department) SetPolicy(name string, v float64) {
	d.Policies[name] = v
}

// ImplementReform applies a reform from the department's table. Reforms the
// department does not know are a no-op and return false.
func (d *Department) ImplementReform(r Reform) bool {
	effects, ok := d.cfg.Reforms[r]
	if !ok {
		return false
	}
	for _, e := range effects {
		target := d.section(e.Section)
		v := target[e.Key] + e.Delta
		if e.Set {
			v = e.Delta
		}
		target[e.Key] = gamemath.Clamp(v, e.Min, e.Max)
	}
	if d.bus != nil {
		d.bus.Queue(events.DepartmentReform, d.Month, map[string]any{
			"department": d.Kind.String(),
			"reform":     string(r),
		}, events.PhaseMain)
	}
	return true
}

// SimulateMonth applies the monthly performance rules and records a snapshot.
func (d *Department) SimulateMonth() {
	if d.cfg.Monthly != nil {
		d.cfg.Monthly(d)
	}
	d.clampRates()
	d.Month++
	d.History = append(d.History, Record{
		Month:       d.Month,
		Metrics:     copyValues(d.Metrics),
		Performance: copyValues(d.Performance),
	})
}

// Clone returns a deep copy bound to the same table and dispatcher.
func (d *Department) Clone() *Department {
	cp := *d
	cp.Metrics = copyValues(d.Metrics)
	cp.Performance = copyValues(d.Performance)
	cp.Policies = copyValues(d.Policies)
	cp.History = make([]Record, len(d.History))
	for i, r := range d.History {
		cp.History[i] = Record{Month: r.Month, Metrics: copyValues(r.Metrics), Performance: copyValues(r.Performance)}
	}
	return &cp
}

func (d *Department) section(s Section) map[string]float64 {
	switch s {
	case SectionMetrics:
		return d.Metrics
	case SectionPolicies:
		return d.Policies
	default:
		return d.Performance
	}
}

// clampRates keeps every non-absolute performance value in [0,1].
func (d *Department) clampRates() {
	for k, v := range d.Performance {
		if d.cfg.Absolute[k] {
			continue
		}
		d.Performance[k] = gamemath.Clamp01(v)
	}
}

// bind reattaches the table and dispatcher after decoding.
func (d *Department) bind(bus *events.Dispatcher) error {
	cfg := ConfigFor(d.Kind)
	if cfg == nil {
		return fmt.Errorf("government: unknown department kind %d", d.Kind)
	}
	d.cfg = cfg
	d.bus = bus
	if d.Metrics == nil || d.Performance == nil || d.Policies == nil {
		return fmt.Errorf("government: department %s is missing fields", d.Kind)
	}
	return nil
}

func copyValues(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
