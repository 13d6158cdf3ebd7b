package stats

import "fmt"

// Snapshot is the serializable state of a Manager.
type Snapshot struct {
	Economic      Economic             `json:"economic_indicators"`
	Social        Social               `json:"social_indicators"`
	Health        Health               `json:"health_indicators"`
	Education     Education            `json:"education_indicators"`
	Environmental Environmental        `json:"environmental_indicators"`
	History       map[Series][]float64 `json:"history"`
	CPI           CPITracker           `json:"cpi"`
	Trade         TradeTracker         `json:"trade"`
}

// Snapshot returns a deep copy of the manager's state.
func (m *Manager) Snapshot() Snapshot {
	h := make(map[Series][]float64, len(m.history))
	for k, v := range m.history {
		h[k] = append([]float64(nil), v...)
	}
	return Snapshot{
		Economic:      m.economic,
		Social:        m.social,
		Health:        m.health,
		Education:     m.education,
		Environmental: m.environmental,
		History:       h,
		CPI:           *m.cpi,
		Trade:         *m.trade,
	}
}

// Restore replaces the manager's state. Unknown series are rejected.
func (m *Manager) Restore(s Snapshot) error {
	known := make(map[Series]bool, len(AllSeries))
	for _, k := range AllSeries {
		known[k] = true
	}
	h := make(map[Series][]float64, len(s.History))
	for k, v := range s.History {
		if !known[k] {
			return fmt.Errorf("stats: unknown series %q", k)
		}
		h[k] = append([]float64(nil), v...)
	}
	cpi, trade := s.CPI, s.Trade
	m.economic = s.Economic
	m.social = s.Social
	m.health = s.Health
	m.education = s.Education
	m.environmental = s.Environmental
	m.history = h
	m.cpi = &cpi
	m.trade = &trade
	return nil
}
