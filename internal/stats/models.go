package stats

import "github.com/talgya/statecraft/internal/gamemath"

// CPITracker follows the consumer price index between readings.
type CPITracker struct {
	CurrentCPI  float64 `json:"current_cpi"`
	PreviousCPI float64 `json:"previous_cpi"`
	Inflation   float64 `json:"inflation_rate"` // Percent
}

// NewCPITracker starts the index at initial.
func NewCPITracker(initial float64) *CPITracker {
	return &CPITracker{CurrentCPI: initial, PreviousCPI: initial}
}

// Update records a new CPI reading. A zero previous reading yields zero
// inflation.
func (c *CPITracker) Update(cpi float64) {
	c.PreviousCPI = c.CurrentCPI
	c.CurrentCPI = cpi
	c.Inflation = gamemath.SafeDiv(c.CurrentCPI-c.PreviousCPI, c.PreviousCPI) * 100
}

// Simulate raises prices by pct percent.
func (c *CPITracker) Simulate(pct float64) {
	c.Update(c.CurrentCPI * (1 + pct/100))
}

func (c *CPITracker) Current() float64  { return c.CurrentCPI }
func (c *CPITracker) Previous() float64 { return c.PreviousCPI }
func (c *CPITracker) Rate() float64     { return c.Inflation }

// TradeTracker holds the latest exports and imports.
type TradeTracker struct {
	Exports float64 `json:"exports"`
	Imports float64 `json:"imports"`
}

func (t *TradeTracker) UpdateExports(v float64) { t.Exports = v }
func (t *TradeTracker) UpdateImports(v float64) { t.Imports = v }

// Balance is exports minus imports.
func (t *TradeTracker) Balance() float64 { return t.Exports - t.Imports }

// Simulate changes exports and imports by the given percents.
func (t *TradeTracker) Simulate(exportChange, importChange float64) {
	t.Exports *= 1 + exportChange/100
	t.Imports *= 1 + importChange/100
}
