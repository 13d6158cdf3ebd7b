package engine

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/statecraft/internal/ai"
	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/government"
	"github.com/talgya/statecraft/internal/stats"
	"github.com/talgya/statecraft/internal/strategy"
	"github.com/talgya/statecraft/internal/world"
)

// Top-level snapshot keys. The first four are required.
const (
	keyEconomy    = "economy"
	keyCompanies  = "companies"
	keyPolicies   = "policies"
	keyHistory    = "history"
	keyStatistics = "statistics"
	keyAI         = "ai"
)

var requiredKeys = []string{keyEconomy, keyCompanies, keyPolicies, keyHistory}

// economyState is the engine's own part of a snapshot.
type economyState struct {
	Month       int                  `json:"month"`
	Indicators  Indicators           `json:"indicators"`
	Multipliers Multipliers          `json:"multipliers"`
	Scale       float64              `json:"scale"`
	AvgIncome   float64              `json:"avg_income"`
	Trade       strategy.TradeResult `json:"trade"`
	Components  components           `json:"components"`
	Player      world.Country        `json:"player"`
	Pending     []pendingImpact      `json:"pending_impacts"`
	Queue       []Action             `json:"queued_actions"`
}

// Snapshot serializes the whole session as JSON. It does not change state.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() ([]byte, error) {
	aiState, err := e.ai.Snapshot()
	if err != nil {
		return nil, err
	}
	doc := map[string]any{
		keyEconomy: economyState{
			Month:       e.month,
			Indicators:  e.ind,
			Multipliers: e.mult,
			Scale:       e.scale,
			AvgIncome:   e.avgIncome,
			Trade:       e.trade,
			Components:  e.components,
			Player:      *e.player.Clone(),
			Pending:     e.pending,
			Queue:       e.queue,
		},
		keyCompanies:  e.companies.Snapshot(),
		keyPolicies:   e.cabinet.Policies(),
		keyHistory:    append([]Record{}, e.history...),
		keyStatistics: e.stats.Snapshot(),
		keyAI:         aiState,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return raw, nil
}

// Restore replaces the session with a snapshot taken from a session over
// the same countries. On any error the session is left untouched.
func (e *Engine) Restore(raw []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	return e.restoreLocked(raw)
}

func (e *Engine) restoreLocked(raw []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	for _, k := range requiredKeys {
		if v, ok := doc[k]; !ok || string(v) == "null" {
			return fmt.Errorf("%w: missing %q", ErrInvalidSnapshot, k)
		}
	}

	var econ economyState
	if err := json.Unmarshal(doc[keyEconomy], &econ); err != nil {
		return fmt.Errorf("%w: economy: %v", ErrInvalidSnapshot, err)
	}
	if econ.Player.Name != e.player.Name {
		return fmt.Errorf("%w: player %q does not match session player %q", ErrInvalidSnapshot, econ.Player.Name, e.player.Name)
	}

	var companies []economy.Company
	if err := json.Unmarshal(doc[keyCompanies], &companies); err != nil {
		return fmt.Errorf("%w: companies: %v", ErrInvalidSnapshot, err)
	}
	if err := economy.NewManager().Initialize(companies); err != nil {
		return fmt.Errorf("%w: companies: %v", ErrInvalidSnapshot, err)
	}

	policies, err := government.DecodePolicies(doc[keyPolicies], e.bus)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var history []Record
	if err := json.Unmarshal(doc[keyHistory], &history); err != nil {
		return fmt.Errorf("%w: history: %v", ErrInvalidSnapshot, err)
	}
	if over := len(history) - e.opts.HistoryCap; over > 0 {
		history = history[over:]
	}

	statistics := stats.NewManager()
	if v, ok := doc[keyStatistics]; ok && string(v) != "null" {
		var s stats.Snapshot
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("%w: statistics: %v", ErrInvalidSnapshot, err)
		}
		if err := statistics.Restore(s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}

	var aiState *ai.State
	if v, ok := doc[keyAI]; ok && string(v) != "null" {
		aiState = new(ai.State)
		if err := json.Unmarshal(v, aiState); err != nil {
			return fmt.Errorf("%w: ai: %v", ErrInvalidSnapshot, err)
		}
	}

	// Everything decoded. The AI restore is the only step left that can
	// reject the snapshot, and it changes nothing when it does.
	if aiState != nil {
		if err := e.ai.Restore(*aiState); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}
	if err := e.companies.Restore(companies); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	e.cabinet.Apply(policies)
	e.stats = statistics
	*e.player = econ.Player

	e.month = econ.Month
	e.ind = econ.Indicators
	e.mult = econ.Multipliers
	e.scale = econ.Scale
	e.avgIncome = econ.AvgIncome
	e.trade = econ.Trade
	e.components = econ.Components
	e.pending = econ.Pending
	e.queue = econ.Queue
	e.history = history
	return nil
}
