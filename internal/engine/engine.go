// Package engine drives the player's economy one month at a time and ties
// together the company ledger, the cabinet, national statistics and the AI
// countries.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/talgya/statecraft/internal/ai"
	"github.com/talgya/statecraft/internal/data"
	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/entropy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/government"
	"github.com/talgya/statecraft/internal/stats"
	"github.com/talgya/statecraft/internal/strategy"
	"github.com/talgya/statecraft/internal/world"
)

var (
	ErrNotInitialized  = errors.New("engine: not initialized")
	ErrNoData          = errors.New("engine: no dataset")
	ErrPlayerMissing   = errors.New("engine: player country missing")
	ErrInvalidSnapshot = errors.New("engine: invalid snapshot")
	ErrInvalidAction   = errors.New("engine: invalid action")
	ErrStepFailed      = errors.New("engine: step failed")
)

// DefaultHistoryCap keeps five years of monthly records.
const DefaultHistoryCap = 60

const (
	participationRate = 0.5   // Share of the population in the labour force
	laborShare        = 0.55  // Share of GDP paid as wages
	naturalRate       = 0.045 // Unemployment with no inflation pressure
	emissionsPerGDP   = 0.15  // Mt CO2e per £bn of output
	recessionGrowth   = -0.02
	highInflation     = 0.05
	debtWarningRatio  = 100.0
)

// Indicators are the player's headline figures. GDP is annualised £bn,
// GDPGrowth month-on-month. BudgetDeficit is £bn for the month.
type Indicators struct {
	GDP                float64 `json:"gdp"`
	GDPGrowth          float64 `json:"gdp_growth"`
	Inflation          float64 `json:"inflation"`
	Unemployment       float64 `json:"unemployment"`
	DebtToGDP          float64 `json:"debt_to_gdp"`
	BudgetDeficit      float64 `json:"budget_deficit"`
	TradeBalance       float64 `json:"trade_balance"`
	CurrencyValue      float64 `json:"currency_value"`
	Productivity       float64 `json:"productivity"` // £k of output per worker
	ConsumerConfidence float64 `json:"consumer_confidence"`
	BusinessConfidence float64 `json:"business_confidence"`
}

// Multipliers scale the expenditure components. Policy impacts change them.
type Multipliers struct {
	Consumption float64 `json:"consumption"`
	Investment  float64 `json:"investment"`
	Government  float64 `json:"government"`
	Export      float64 `json:"export"`
	Import      float64 `json:"import"`
}

// DefaultMultipliers returns the starting multipliers.
func DefaultMultipliers() Multipliers {
	return Multipliers{Consumption: 0.6, Investment: 0.3, Government: 0.2, Export: 0.4, Import: -0.3}
}

// Record is one month in the indicator history.
type Record struct {
	Month      int        `json:"month"`
	Indicators Indicators `json:"indicators"`
	Debt       float64    `json:"debt"`
}

// Options configure a new engine.
type Options struct {
	HistoryCap int
	Player     string // Overrides the dataset's player when set
}

// Engine owns one simulation session.
type Engine struct {
	mu sync.Mutex

	opts Options
	bus  *events.Dispatcher
	src  entropy.Source

	month       int
	ind         Indicators
	mult        Multipliers
	history     []Record
	player      *world.Country
	countries   map[string]*world.Country
	scale       float64 // Calibrates domestic demand to the dataset's GDP
	avgIncome   float64 // Annual pounds per worker
	trade       strategy.TradeResult
	components  components
	pending     []pendingImpact
	queue       []Action
	initialized bool

	ai        *ai.Manager
	companies *economy.Manager
	cabinet   *government.Cabinet
	stats     *stats.Manager

	onFailure func(country, subsystem string)
}

// beforeRecord runs after every phase of a step, just before history is
// written. Tests replace it to fail a step.
var beforeRecord = func(*Engine) {}

// components is last month's expenditure breakdown, £bn annualised.
type components struct {
	Consumption float64 `json:"consumption"`
	Investment  float64 `json:"investment"`
	Government  float64 `json:"government"`
}

// New creates an engine that publishes to bus and draws randomness from src.
func New(bus *events.Dispatcher, src entropy.Source, opts Options) *Engine {
	if opts.HistoryCap <= 0 {
		opts.HistoryCap = DefaultHistoryCap
	}
	if bus == nil {
		bus = events.NewDispatcher()
	}
	return &Engine{opts: opts, bus: bus, src: src, mult: DefaultMultipliers()}
}

// Initialize builds the session from a dataset. Nothing changes unless every
// part of the session could be built. The caller's dataset is left as it was.
func (e *Engine) Initialize(in *data.Dataset) error {
	if in == nil {
		return ErrNoData
	}
	ds := *in
	if e.opts.Player != "" {
		ds.Player = e.opts.Player
	}
	if err := ds.Validate("dataset"); err != nil {
		return err
	}
	playerName := ds.Player

	countries := ds.BuildCountries()
	byName := make(map[string]*world.Country, len(countries))
	var player *world.Country
	for _, c := range countries {
		byName[c.Name] = c
		if c.Name == playerName {
			player = c
		}
	}
	if player == nil {
		return fmt.Errorf("%w: %s", ErrPlayerMissing, playerName)
	}

	companies := economy.NewManager()
	if err := companies.Initialize(ds.BuildCompanies()); err != nil {
		return fmt.Errorf("initializing companies: %w", err)
	}
	manager := ai.NewManager(e.bus)
	if err := manager.Initialize(countries, player, companies, e.src); err != nil {
		return fmt.Errorf("initializing ai: %w", err)
	}
	cabinet := government.NewCabinet(e.bus)
	if player.Conditions.InterestRate > 0 {
		cabinet.Monetary.InterestRate = player.Conditions.InterestRate
	}
	cabinet.Monetary.InflationTarget = player.InflationTarget

	e.mu.Lock()
	defer e.mu.Unlock()
	e.player = player
	e.countries = byName
	e.companies = companies
	e.ai = manager
	e.ai.OnFailure = e.onFailure
	e.cabinet = cabinet
	e.stats = stats.NewManager()
	e.month = 0
	e.mult = DefaultMultipliers()
	e.history = nil
	e.pending = nil
	e.queue = nil
	e.ind = Indicators{
		GDP:                player.GDP,
		Inflation:          player.Conditions.Inflation,
		Unemployment:       player.Conditions.Unemployment,
		DebtToGDP:          player.Conditions.DebtToGDP,
		CurrencyValue:      1,
		ConsumerConfidence: 50,
		BusinessConfidence: 50,
	}
	e.trade, _ = manager.CalculateGlobalTrade(e.tradeInputs())
	e.ind.TradeBalance = e.trade.Balance
	employed := e.employed()
	e.avgIncome = 30000
	if employed > 0 && player.GDP > 0 {
		e.avgIncome = laborShare * player.GDP * 1e9 / employed
	}
	e.ind.Productivity = productivity(player.GDP, employed)
	e.calibrate()
	e.initialized = true
	return nil
}

// calibrate sets the scale so the first month's domestic demand reproduces
// the dataset's GDP.
func (e *Engine) calibrate() {
	e.scale = 1
	raw := e.rawDemand()
	domestic := e.player.GDP - e.trade.Balance
	if total := raw.Consumption + raw.Investment + raw.Government; total > 0 && domestic > 0 {
		e.scale = domestic / total
	}
	e.components = components{
		Consumption: raw.Consumption * e.scale,
		Investment:  raw.Investment * e.scale,
		Government:  raw.Government * e.scale,
	}
}

// SetFailureHook registers fn for isolated AI subsystem failures.
func (e *Engine) SetFailureHook(fn func(country, subsystem string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFailure = fn
	if e.ai != nil {
		e.ai.OnFailure = fn
	}
}

// Bus returns the session's event dispatcher.
func (e *Engine) Bus() *events.Dispatcher { return e.bus }

// Player returns the player country's name.
func (e *Engine) Player() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.player == nil {
		return ""
	}
	return e.player.Name
}

// Month returns the number of completed months.
func (e *Engine) Month() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.month
}

// Indicators returns the current headline figures.
func (e *Engine) Indicators() Indicators {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ind
}

// History returns the recorded months, oldest first.
func (e *Engine) History() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Record(nil), e.history...)
}

// EconomicState is the player's economy in one view.
type EconomicState struct {
	Month       int                             `json:"month"`
	Date        string                          `json:"date"`
	Indicators  Indicators                      `json:"indicators"`
	Multipliers Multipliers                     `json:"multipliers"`
	Debt        float64                         `json:"debt"`
	Consumption float64                         `json:"consumption"`
	Investment  float64                         `json:"investment"`
	Government  float64                         `json:"government_spending"`
	Sectors     map[string]float64              `json:"sectors"`
	Trade       strategy.TradeResult            `json:"trade"`
	Partners    map[string]strategy.TradeResult `json:"partners"`
	Statistics  stats.Summary                   `json:"statistics"`
}

// EconomicState returns a copy of the player's economy.
func (e *Engine) EconomicState() (EconomicState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return EconomicState{}, ErrNotInitialized
	}
	sectors := make(map[string]float64, len(e.player.Sectors))
	for k, v := range e.player.Sectors {
		sectors[k] = v
	}
	return EconomicState{
		Month:       e.month,
		Date:        SimDate(e.month),
		Indicators:  e.ind,
		Multipliers: e.mult,
		Debt:        e.player.GovernmentDebt,
		Consumption: e.components.Consumption,
		Investment:  e.components.Investment,
		Government:  e.components.Government,
		Sectors:     sectors,
		Trade:       e.trade,
		Partners:    e.ai.TradeStates(),
		Statistics:  e.stats.Summary(),
	}, nil
}

// CountryState returns the AI view of any country, the player's included.
func (e *Engine) CountryState(name string) (ai.CountryState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ai.CountryState{}, ErrNotInitialized
	}
	if name == e.player.Name {
		return ai.CountryState{
			Country: *e.player.Clone(),
			Economy: strategy.StateOf(e.player),
			Power:   e.ai.Military().CombatPower(e.player),
			Trade:   e.trade,
		}, nil
	}
	return e.ai.CountryState(name)
}

// Countries returns copies of every country in name order.
func (e *Engine) Countries() []world.Country {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]world.Country, 0, len(e.countries))
	for _, name := range world.SortedNames(e.countries) {
		out = append(out, *e.countries[name].Clone())
	}
	return out
}

// Relations returns every directed diplomatic relation.
func (e *Engine) Relations() map[string]map[string]diplomacy.Relation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]map[string]diplomacy.Relation, len(e.countries))
	if !e.initialized {
		return out
	}
	names := world.SortedNames(e.countries)
	for _, a := range names {
		row := make(map[string]diplomacy.Relation, len(names)-1)
		for _, b := range names {
			if r, ok := e.ai.Diplomacy().Relation(a, b); ok {
				row[b] = r
			}
		}
		out[a] = row
	}
	return out
}

// DiplomaticStatus returns an AI country's alliances, tensions and talks.
func (e *Engine) DiplomaticStatus(name string) (ai.DiplomaticStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ai.DiplomaticStatus{}, ErrNotInitialized
	}
	return e.ai.DiplomaticStatus(name)
}

// DecisionLog returns what an AI country has recently done.
func (e *Engine) DecisionLog(name string) (ai.DecisionLog, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ai.DecisionLog{}, ErrNotInitialized
	}
	return e.ai.DecisionLog(name)
}

// Companies returns the company ledger sorted by name.
func (e *Engine) Companies() []economy.Company {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	return e.companies.Companies()
}

// SectorMetrics returns the ledger aggregated by sector.
func (e *Engine) SectorMetrics() map[string]economy.SectorMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	return e.companies.CalculateSectorMetrics()
}

// Policies returns a copy of the cabinet's levers and departments.
func (e *Engine) Policies() (government.Policies, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return government.Policies{}, ErrNotInitialized
	}
	return e.cabinet.Policies(), nil
}

// Statistics returns the national statistics summary.
func (e *Engine) Statistics() stats.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return stats.Summary{}
	}
	return e.stats.Summary()
}

// AIFailures returns the number of isolated AI subsystem failures so far.
func (e *Engine) AIFailures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return 0
	}
	return e.ai.Failures()
}

// PowerShares returns each country's share of world combat power.
func (e *Engine) PowerShares() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil
	}
	return e.ai.PowerShares()
}

func (e *Engine) laborForce() float64 {
	return e.player.Population * participationRate
}

func (e *Engine) employed() float64 {
	return e.laborForce() * (1 - e.ind.Unemployment)
}

func productivity(gdp, employed float64) float64 {
	if employed <= 0 {
		return 0
	}
	return gdp * 1e9 / employed / 1000
}

// playerSectors returns the revenue share of each sector among the player's
// companies, or nil when the player owns none.
func (e *Engine) playerSectors() map[string]float64 {
	revenue := make(map[string]float64)
	total := 0.0
	for _, c := range e.companies.Companies() {
		if c.Country != e.player.Name || c.Revenue <= 0 {
			continue
		}
		revenue[c.Sector] += c.Revenue
		total += c.Revenue
	}
	if total == 0 {
		return nil
	}
	for k, v := range revenue {
		revenue[k] = v / total
	}
	return revenue
}
