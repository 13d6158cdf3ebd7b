// Package ai runs every AI-controlled country each month. It owns the
// economic rules, diplomacy, military and crisis subsystems and is the only
// part of the simulation that mutates AI countries.
package ai

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/statecraft/internal/crisis"
	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/military"
	"github.com/talgya/statecraft/internal/strategy"
	"github.com/talgya/statecraft/internal/world"
)

var (
	ErrNotInitialized = errors.New("ai: manager not initialized")
	ErrPlayerMissing  = errors.New("ai: player country missing")
	ErrUnknownCountry = errors.New("ai: unknown country")
)

const (
	// PlayerRelation is where every AI country starts with the player.
	PlayerRelation = 0.5

	maxActions = 100
)

// Manager orchestrates the AI subsystems across all AI countries.
type Manager struct {
	countries map[string]*world.Country
	player    *world.Country
	companies *economy.Manager

	model     *strategy.Model
	diplomacy *diplomacy.AI
	military  *military.Engine
	crises    *crisis.Model
	drift     *Drift

	src   entropy.Source
	bus   *events.Dispatcher
	month int

	playerTariffs map[string]float64
	trade         map[string]strategy.TradeResult
	threat        map[string]float64
	failures      int

	// OnFailure is called for every isolated subsystem failure.
	OnFailure func(country, subsystem string)
}

// NewManager creates an uninitialized manager. bus may be nil.
func NewManager(bus *events.Dispatcher) *Manager {
	return &Manager{
		bus:           bus,
		model:         strategy.NewModel(),
		countries:     make(map[string]*world.Country),
		playerTariffs: make(map[string]float64),
		trade:         make(map[string]strategy.TradeResult),
		threat:        make(map[string]float64),
	}
}

// Initialize takes ownership of the AI countries. Countries without traits
// get a fresh draw from src. Relations start from economic and political
// similarity; every AI country starts neutral toward the player.
func (m *Manager) Initialize(countries []*world.Country, player *world.Country, companies *economy.Manager, src entropy.Source) error {
	if player == nil {
		return ErrPlayerMissing
	}
	if companies == nil {
		companies = economy.NewManager()
	}

	byName := make(map[string]*world.Country, len(countries))
	for _, c := range countries {
		if c.Name == player.Name {
			continue
		}
		if _, dup := byName[c.Name]; dup {
			return fmt.Errorf("ai: duplicate country %q", c.Name)
		}
		byName[c.Name] = c
	}

	m.countries = byName
	m.player = player
	m.companies = companies
	m.src = src
	m.month = 0
	m.drift = NewDrift(int64(src.Intn(math.MaxInt32)))
	m.trade = make(map[string]strategy.TradeResult, len(byName))
	m.threat = make(map[string]float64, len(byName))

	names := m.names()
	for _, name := range names {
		c := m.countries[name]
		if c.Traits == (world.Traits{}) {
			c.Traits = world.DrawTraits(src)
		}
		c.Player = false
	}
	for _, name := range names {
		c := m.countries[name]
		c.Relationships = make(map[string]float64, len(names))
		for _, other := range names {
			if other != name {
				c.SetRelation(other, InitialRelation(c, m.countries[other]))
			}
		}
		c.SetRelation(player.Name, PlayerRelation)
		if _, ok := player.Relationships[name]; !ok {
			player.SetRelation(name, PlayerRelation)
		}
	}

	all := m.all()
	m.diplomacy = diplomacy.New(m.bus)
	m.diplomacy.Initialize(all)
	m.military = military.New(src, m.bus)
	m.military.Initialize(all)
	m.crises = crisis.New(m.bus)
	m.crises.Initialize(m.aiCountries())

	m.generateInitialAlliances()
	slog.Info("ai initialized", "countries", len(names), "alliances", len(m.diplomacy.AllAlliances()))
	return nil
}

// InitialRelation is the coarse starting relation between two AI countries:
// economic similarity from sector profiles, political alignment from
// diplomatic bias.
func InitialRelation(a, b *world.Country) float64 {
	economic := SectorSimilarity(a.Sectors, b.Sectors)
	political := gamemath.Clamp01(1 - math.Abs(a.Traits.DiplomaticBias-b.Traits.DiplomaticBias))
	return gamemath.Clamp01((economic*0.6+political*0.4)*0.8 + 0.1)
}

// SectorSimilarity is one minus the total variation distance between two
// sector profiles.
func SectorSimilarity(a, b map[string]float64) float64 {
	var diff float64
	for s, v := range a {
		diff += math.Abs(v - b[s])
	}
	for s, v := range b {
		if _, ok := a[s]; !ok {
			diff += math.Abs(v)
		}
	}
	return gamemath.Clamp01(1 - diff/2)
}

func (m *Manager) generateInitialAlliances() {
	names := m.names()
	for i, a := range names {
		for _, b := range names[i+1:] {
			if al, ok := m.diplomacy.FormAlliance(a, b); ok {
				m.countries[a].Remember("alliance:" + b)
				m.countries[b].Remember("alliance:" + a)
				slog.Debug("initial alliance", "members", al.Members, "strength", fmt.Sprintf("%.3f", al.Strength))
			}
		}
	}
}

// Initialized reports whether Initialize has succeeded.
func (m *Manager) Initialized() bool { return m.player != nil }

// Month is the last month the manager stepped.
func (m *Manager) Month() int { return m.month }

// Failures is the number of isolated subsystem failures so far.
func (m *Manager) Failures() int { return m.failures }

// Diplomacy exposes the diplomatic engine for read access.
func (m *Manager) Diplomacy() *diplomacy.AI { return m.diplomacy }

// Military exposes the military engine for read access.
func (m *Manager) Military() *military.Engine { return m.military }

// Crises exposes the crisis model for read access.
func (m *Manager) Crises() *crisis.Model { return m.crises }

// SetPlayerTariffs records the player's tariffs the AI reacts to.
func (m *Manager) SetPlayerTariffs(t map[string]float64) {
	m.playerTariffs = make(map[string]float64, len(t))
	for k, v := range t {
		m.playerTariffs[k] = v
	}
}

// Names returns the AI country names in processing order.
func (m *Manager) Names() []string { return m.names() }

func (m *Manager) names() []string { return world.SortedNames(m.countries) }

func (m *Manager) aiCountries() []*world.Country {
	names := m.names()
	out := make([]*world.Country, 0, len(names))
	for _, n := range names {
		out = append(out, m.countries[n])
	}
	return out
}

// all returns the AI countries plus the player.
func (m *Manager) all() []*world.Country {
	out := m.aiCountries()
	if m.player != nil {
		out = append(out, m.player)
	}
	return out
}

func (m *Manager) lookup(name string) (*world.Country, bool) {
	if m.player != nil && name == m.player.Name {
		return m.player, true
	}
	c, ok := m.countries[name]
	return c, ok
}

func (m *Manager) neighbors(c *world.Country) []*world.Country {
	var out []*world.Country
	for _, b := range c.Borders {
		if n, ok := m.lookup(b); ok {
			out = append(out, n)
		}
	}
	return out
}

func (m *Manager) needs(c *world.Country) strategy.Needs {
	return m.model.AnalyzeNeeds(c, m.neighbors(c), m.diplomacy.AllianceStrength(c.Name))
}

// CountryState is a read-only view of one country.
type CountryState struct {
	Country  world.Country          `json:"country"`
	Economy  strategy.EconomicState `json:"economy"`
	Military military.Profile       `json:"military"`
	Power    float64                `json:"power"`
	Threat   float64                `json:"threat"`
	Trade    strategy.TradeResult   `json:"trade"`
}

// CountryState returns a copy of a country's state.
func (m *Manager) CountryState(name string) (CountryState, error) {
	if !m.Initialized() {
		return CountryState{}, ErrNotInitialized
	}
	c, ok := m.lookup(name)
	if !ok {
		return CountryState{}, fmt.Errorf("%w: %s", ErrUnknownCountry, name)
	}
	profile, _ := m.military.Profile(name)
	return CountryState{
		Country:  *c.Clone(),
		Economy:  strategy.StateOf(c),
		Military: profile,
		Power:    m.military.CombatPower(c),
		Threat:   m.threat[name],
		Trade:    m.trade[name],
	}, nil
}

// Countries returns copies of the AI countries in name order.
func (m *Manager) Countries() []world.Country {
	out := make([]world.Country, 0, len(m.countries))
	for _, c := range m.aiCountries() {
		out = append(out, *c.Clone())
	}
	return out
}

// DiplomaticStatus summarises a country's alliances, tensions and talks.
type DiplomaticStatus struct {
	Alliances    []diplomacy.Alliance       `json:"alliances"`
	Tensions     map[string]float64         `json:"tensions"`
	Negotiations []diplomacy.TradeAgreement `json:"negotiations"`
	Agreements   []diplomacy.TradeAgreement `json:"agreements"`
}

// DiplomaticStatus returns name's diplomatic position.
func (m *Manager) DiplomaticStatus(name string) (DiplomaticStatus, error) {
	if !m.Initialized() {
		return DiplomaticStatus{}, ErrNotInitialized
	}
	if _, ok := m.lookup(name); !ok {
		return DiplomaticStatus{}, fmt.Errorf("%w: %s", ErrUnknownCountry, name)
	}
	return DiplomaticStatus{
		Alliances:    m.diplomacy.Alliances(name),
		Tensions:     m.diplomacy.Tensions(name),
		Negotiations: m.diplomacy.ActiveNegotiations(name),
		Agreements:   m.diplomacy.Agreements(name),
	}, nil
}

// DecisionLog is what an AI country is pursuing and has recently done.
type DecisionLog struct {
	Goals         []world.Goal             `json:"goals"`
	RecentActions []string                 `json:"recent_actions"`
	Relationships map[string]float64       `json:"relationships"`
	Policies      []strategy.PolicyChanges `json:"policies"`
}

// DecisionLog returns the last ten actions of an AI country.
func (m *Manager) DecisionLog(name string) (DecisionLog, error) {
	c, ok := m.countries[name]
	if !ok {
		return DecisionLog{}, fmt.Errorf("%w: %s", ErrUnknownCountry, name)
	}
	actions := c.Memory.Actions
	if len(actions) > 10 {
		actions = actions[len(actions)-10:]
	}
	rel := make(map[string]float64, len(c.Relationships))
	for k, v := range c.Relationships {
		rel[k] = v
	}
	return DecisionLog{
		Goals:         append([]world.Goal(nil), c.StrategicGoals...),
		RecentActions: append([]string(nil), actions...),
		Relationships: rel,
		Policies:      m.model.Decisions(name),
	}, nil
}

// TradeStates returns each AI country's trade last month.
func (m *Manager) TradeStates() map[string]strategy.TradeResult {
	out := make(map[string]strategy.TradeResult, len(m.trade))
	for k, v := range m.trade {
		out[k] = v
	}
	return out
}

// GlobalTradeInputs are the player-side terms of the trade calculation.
type GlobalTradeInputs struct {
	CurrencyValue   float64
	Competitiveness map[string]float64
	ExportFactor    float64
	ImportFactor    float64
}

// CalculateGlobalTrade computes the player's exports and imports against
// every AI country.
func (m *Manager) CalculateGlobalTrade(in GlobalTradeInputs) (strategy.TradeResult, error) {
	if !m.Initialized() {
		return strategy.TradeResult{}, ErrNotInitialized
	}
	return m.model.CalculateGlobalTrade(strategy.TradeInputs{
		Player:          m.player,
		Partners:        m.aiCountries(),
		PlayerTariffs:   m.playerTariffs,
		CurrencyValue:   in.CurrencyValue,
		Competitiveness: in.Competitiveness,
		MarketShares:    m.companies.GlobalMarketShares(),
		ExportFactor:    in.ExportFactor,
		ImportFactor:    in.ImportFactor,
	}), nil
}

// PowerShares returns every country's share of total combat power.
func (m *Manager) PowerShares() map[string]float64 {
	all := m.all()
	powers := make(map[string]float64, len(all))
	var total float64
	for _, c := range all {
		p := m.military.CombatPower(c)
		powers[c.Name] = p
		total += p
	}
	for k, p := range powers {
		powers[k] = gamemath.SafeDiv(p, total)
	}
	return powers
}
