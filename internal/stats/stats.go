// Package stats keeps the player country's national statistics: grouped
// indicators, derived rates and their monthly series.
package stats

import (
	"github.com/talgya/statecraft/internal/gamemath"
)

// Series names a tracked history series.
type Series string

const (
	SeriesGDP             Series = "GDP"
	SeriesUnemployment    Series = "unemploymentRate"
	SeriesInflation       Series = "inflationRate"
	SeriesLiteracy        Series = "literacyRate"
	SeriesLifeExpectancy  Series = "lifeExpectancy"
	SeriesPoverty         Series = "povertyRate"
	SeriesCarbonFootprint Series = "carbonFootprint"
)

// AllSeries lists every tracked series.
var AllSeries = []Series{
	SeriesGDP, SeriesUnemployment, SeriesInflation, SeriesLiteracy,
	SeriesLifeExpectancy, SeriesPoverty, SeriesCarbonFootprint,
}

const maxSeriesLen = 1200

// Economic indicators. Money is in £bn.
type Economic struct {
	Consumption        float64 `json:"consumption"`
	Investment         float64 `json:"investment"`
	GovernmentSpending float64 `json:"government_spending"`
	NetExports         float64 `json:"net_exports"`
	Unemployed         float64 `json:"unemployed"`
	LaborForce         float64 `json:"labor_force"`
	CPI                float64 `json:"consumer_price_index"`
	PreviousCPI        float64 `json:"previous_consumer_price_index"`
}

type Social struct {
	BelowPovertyLine float64 `json:"population_below_poverty_line"`
	TotalPopulation  float64 `json:"total_population"`
}

type Health struct {
	LifeExpectancyAtBirth float64 `json:"life_expectancy_at_birth"`
}

type Education struct {
	LiteratePopulation float64 `json:"literate_population"`
	TotalPopulation    float64 `json:"total_population"`
}

type Environmental struct {
	TotalEmissions float64 `json:"total_emissions"` // Mt CO2e per year
}

// Summary is every derived statistic at one point in time. Rates are percents.
type Summary struct {
	GDP              float64 `json:"gdp"`
	UnemploymentRate float64 `json:"unemployment_rate"`
	InflationRate    float64 `json:"inflation_rate"`
	LiteracyRate     float64 `json:"literacy_rate"`
	LifeExpectancy   float64 `json:"life_expectancy"`
	PovertyRate      float64 `json:"poverty_rate"`
	CarbonFootprint  float64 `json:"carbon_footprint"`
}

// Manager holds the indicator groups and their history.
type Manager struct {
	economic      Economic
	social        Social
	health        Health
	education     Education
	environmental Environmental

	history map[Series][]float64
	cpi     *CPITracker
	trade   *TradeTracker
}

// NewManager creates a manager with zeroed indicators and a CPI of 100.
func NewManager() *Manager {
	m := &Manager{
		history: make(map[Series][]float64, len(AllSeries)),
		cpi:     NewCPITracker(100),
		trade:   &TradeTracker{},
	}
	m.economic.CPI = 100
	m.economic.PreviousCPI = 100
	return m
}

func (m *Manager) record(s Series, v float64) {
	h := append(m.history[s], v)
	if len(h) > maxSeriesLen {
		h = h[len(h)-maxSeriesLen:]
	}
	m.history[s] = h
}

// UpdateEconomic replaces the economic group and records GDP, unemployment
// and inflation.
func (m *Manager) UpdateEconomic(e Economic) {
	m.economic = e
	m.record(SeriesGDP, m.GDP())
	m.record(SeriesUnemployment, m.UnemploymentRate())
	m.record(SeriesInflation, m.InflationRate())
}

func (m *Manager) UpdateSocial(s Social) {
	m.social = s
	m.record(SeriesPoverty, m.PovertyRate())
}

func (m *Manager) UpdateHealth(h Health) {
	m.health = h
	m.record(SeriesLifeExpectancy, m.LifeExpectancy())
}

func (m *Manager) UpdateEducation(e Education) {
	m.education = e
	m.record(SeriesLiteracy, m.LiteracyRate())
}

func (m *Manager) UpdateEnvironmental(e Environmental) {
	m.environmental = e
	m.record(SeriesCarbonFootprint, m.CarbonFootprint())
}

// GDP by the expenditure approach.
func (m *Manager) GDP() float64 {
	e := m.economic
	return e.Consumption + e.Investment + e.GovernmentSpending + e.NetExports
}

// UnemploymentRate is unemployed over labor force, as a percent.
func (m *Manager) UnemploymentRate() float64 {
	return gamemath.SafeDiv(m.economic.Unemployed, m.economic.LaborForce) * 100
}

// InflationRate is the percent change in CPI since the previous reading.
func (m *Manager) InflationRate() float64 {
	e := m.economic
	return gamemath.SafeDiv(e.CPI-e.PreviousCPI, e.PreviousCPI) * 100
}

func (m *Manager) LiteracyRate() float64 {
	return gamemath.SafeDiv(m.education.LiteratePopulation, m.education.TotalPopulation) * 100
}

func (m *Manager) PovertyRate() float64 {
	return gamemath.SafeDiv(m.social.BelowPovertyLine, m.social.TotalPopulation) * 100
}

func (m *Manager) LifeExpectancy() float64  { return m.health.LifeExpectancyAtBirth }
func (m *Manager) CarbonFootprint() float64 { return m.environmental.TotalEmissions }

// Summary returns every derived statistic.
func (m *Manager) Summary() Summary {
	return Summary{
		GDP:              m.GDP(),
		UnemploymentRate: m.UnemploymentRate(),
		InflationRate:    m.InflationRate(),
		LiteracyRate:     m.LiteracyRate(),
		LifeExpectancy:   m.LifeExpectancy(),
		PovertyRate:      m.PovertyRate(),
		CarbonFootprint:  m.CarbonFootprint(),
	}
}

// Economic returns the current economic group.
func (m *Manager) Economic() Economic { return m.economic }

// History returns a copy of one series, oldest first.
func (m *Manager) History(s Series) []float64 {
	return append([]float64(nil), m.history[s]...)
}

// CPI returns the price-level tracker.
func (m *Manager) CPI() *CPITracker { return m.cpi }

// Trade returns the trade tracker.
func (m *Manager) Trade() *TradeTracker { return m.trade }

// RecordPriceChange moves the CPI by pct percent and mirrors it into the
// economic group.
func (m *Manager) RecordPriceChange(pct float64) {
	m.cpi.Simulate(pct)
	m.economic.PreviousCPI = m.cpi.Previous()
	m.economic.CPI = m.cpi.Current()
}

// RecordTrade stores this month's exports and imports.
func (m *Manager) RecordTrade(exports, imports float64) {
	m.trade.UpdateExports(exports)
	m.trade.UpdateImports(imports)
	m.economic.NetExports = m.trade.Balance()
}
