package ai

import (
	"errors"
	"fmt"

	"github.com/talgya/statecraft/internal/crisis"
	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/military"
	"github.com/talgya/statecraft/internal/strategy"
	"github.com/talgya/statecraft/internal/world"
)

// ErrInvalidState is returned when a state does not match the session.
var ErrInvalidState = errors.New("ai: invalid state")

// State is everything the AI owns, for save and rollback.
type State struct {
	Month         int                             `json:"month"`
	Countries     map[string]world.Country        `json:"countries"`
	Diplomacy     diplomacy.State                 `json:"diplomacy"`
	Military      military.State                  `json:"military"`
	Crisis        crisis.State                    `json:"crisis"`
	PlayerTariffs map[string]float64              `json:"player_tariffs"`
	Trade         map[string]strategy.TradeResult `json:"trade"`
	Threat        map[string]float64              `json:"threat"`
}

// Snapshot copies the AI state.
func (m *Manager) Snapshot() (State, error) {
	if !m.Initialized() {
		return State{}, ErrNotInitialized
	}
	s := State{
		Month:         m.month,
		Countries:     make(map[string]world.Country, len(m.countries)),
		Diplomacy:     m.diplomacy.Snapshot(),
		Military:      m.military.Snapshot(),
		Crisis:        m.crises.Snapshot(),
		PlayerTariffs: make(map[string]float64, len(m.playerTariffs)),
		Trade:         m.TradeStates(),
		Threat:        make(map[string]float64, len(m.threat)),
	}
	for name, c := range m.countries {
		s.Countries[name] = *c.Clone()
	}
	for k, v := range m.playerTariffs {
		s.PlayerTariffs[k] = v
	}
	for k, v := range m.threat {
		s.Threat[k] = v
	}
	return s, nil
}

// Restore replaces the AI state. The state must name exactly the session's
// AI countries; otherwise nothing changes. Country pointers held elsewhere
// stay valid.
func (m *Manager) Restore(s State) error {
	if !m.Initialized() {
		return ErrNotInitialized
	}
	if len(s.Countries) != len(m.countries) {
		return fmt.Errorf("%w: %d countries, want %d", ErrInvalidState, len(s.Countries), len(m.countries))
	}
	for name := range m.countries {
		if _, ok := s.Countries[name]; !ok {
			return fmt.Errorf("%w: missing country %q", ErrInvalidState, name)
		}
	}

	for name, c := range s.Countries {
		cp := c
		*m.countries[name] = *cp.Clone()
	}
	m.month = s.Month
	m.diplomacy.Restore(s.Diplomacy)
	m.military.Restore(s.Military)
	m.crises.Restore(s.Crisis)
	m.playerTariffs = make(map[string]float64, len(s.PlayerTariffs))
	for k, v := range s.PlayerTariffs {
		m.playerTariffs[k] = v
	}
	m.trade = make(map[string]strategy.TradeResult, len(s.Trade))
	for k, v := range s.Trade {
		m.trade[k] = v
	}
	m.threat = make(map[string]float64, len(s.Threat))
	for k, v := range s.Threat {
		m.threat[k] = v
	}
	return nil
}
