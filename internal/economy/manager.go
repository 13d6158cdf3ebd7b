package economy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/statecraft/internal/gamemath"
)

// ErrNoCompanies is returned when the manager is initialized with nothing.
var ErrNoCompanies = errors.New("economy: no companies")

// Manager owns the company ledger. Companies are only mutated through its
// methods; readers get copies.
type Manager struct {
	companies map[string]*Company
	order     []string // Names in ascending order

	sectorEmploymentRates map[string]float64
	totalInvestment       float64
	stateOwnedProfits     float64
	totalSubsidies        float64
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		companies:             make(map[string]*Company),
		sectorEmploymentRates: make(map[string]float64),
	}
}

// Initialize loads companies, indexed by unique name, and computes aggregates.
// On error the manager is left unchanged.
func (m *Manager) Initialize(companies []Company) error {
	if len(companies) == 0 {
		return ErrNoCompanies
	}
	index := make(map[string]*Company, len(companies))
	for i := range companies {
		c := companies[i]
		if c.Name == "" {
			return fmt.Errorf("economy: company %d has no name", i)
		}
		if _, dup := index[c.Name]; dup {
			return fmt.Errorf("economy: duplicate company %q", c.Name)
		}
		index[c.Name] = &c
	}
	m.companies = index
	m.reindex()
	m.recalculate()
	return nil
}

func (m *Manager) reindex() {
	m.order = m.order[:0]
	for name := range m.companies {
		m.order = append(m.order, name)
	}
	sort.Strings(m.order)
}

func (m *Manager) recalculate() {
	sectorEmployment := make(map[string]float64)
	totalEmployment := 0.0
	m.totalInvestment = 0
	m.stateOwnedProfits = 0
	m.totalSubsidies = 0

	for _, name := range m.order {
		c := m.companies[name]
		sectorEmployment[c.Sector] += c.Employees
		totalEmployment += c.Employees
		m.totalInvestment += c.Investment
		m.totalSubsidies += c.Subsidies
		if c.StateOwned {
			m.stateOwnedProfits += c.Profit
		}
	}

	m.sectorEmploymentRates = make(map[string]float64, len(sectorEmployment))
	for sector, employed := range sectorEmployment {
		m.sectorEmploymentRates[sector] = gamemath.SafeDiv(employed, totalEmployment)
	}
}

// RunMarketSimulations advances every company by one month under cfg, then
// recomputes sector and global aggregates. Market share never decreases:
// negative demand shrinks revenue but leaves share where it is.
func (m *Manager) RunMarketSimulations(cfg MarketConfig) {
	demandFactor := 1 + cfg.ConsumerDemand/100
	inflationFactor := 1 + cfg.Inflation/100
	interestFactor := 1 + cfg.InterestRate/100

	for _, name := range m.order {
		c := m.companies[name]
		c.Revenue = c.simulateRevenue(demandFactor, inflationFactor)
		c.Expenses = c.simulateExpenses(inflationFactor)
		c.Profit = c.Revenue - (c.Expenses + c.Investment*interestFactor) + cfg.SectorSubsidies[c.Sector]

		c.Investment *= interestFactor
		c.Employees *= inflationFactor
		c.MarketShare = min(c.MarketShare+max(cfg.ConsumerDemand, 0)/100, 1)
	}

	m.recalculate()
}

// CalculateSectorMetrics aggregates revenue, profit, investment and employment
// per sector. With no revenue anywhere every market share is 0.
func (m *Manager) CalculateSectorMetrics() map[string]SectorMetrics {
	metrics := make(map[string]SectorMetrics)
	total := 0.0
	for _, name := range m.order {
		c := m.companies[name]
		s := metrics[c.Sector]
		s.TotalRevenue += c.Revenue
		s.TotalProfit += c.Profit
		s.TotalInvestment += c.Investment
		s.TotalEmployees += c.Employees
		metrics[c.Sector] = s
		total += c.Revenue
	}
	for sector, s := range metrics {
		s.MarketShare = gamemath.SafeDiv(s.TotalRevenue, total)
		metrics[sector] = s
	}
	return metrics
}

// SectorCompetitiveness returns each sector's aggregate profit margin.
func (m *Manager) SectorCompetitiveness() map[string]float64 {
	out := make(map[string]float64)
	for sector, s := range m.CalculateSectorMetrics() {
		out[sector] = gamemath.SafeDiv(s.TotalProfit, s.TotalRevenue)
	}
	return out
}

// GlobalMarketShares returns each country's share of total company revenue.
func (m *Manager) GlobalMarketShares() map[string]float64 {
	byCountry := make(map[string]float64)
	total := 0.0
	for _, name := range m.order {
		c := m.companies[name]
		byCountry[c.Country] += c.Revenue
		total += c.Revenue
	}
	for country, rev := range byCountry {
		byCountry[country] = gamemath.SafeDiv(rev, total)
	}
	return byCountry
}

// SectorCompanies returns copies of the companies in sector owned by country,
// sorted by name.
func (m *Manager) SectorCompanies(sector, country string) []Company {
	var out []Company
	for _, name := range m.order {
		c := m.companies[name]
		if c.Sector == sector && c.Country == country {
			out = append(out, *c)
		}
	}
	return out
}

// CountrySectors returns the set of sectors a country has companies in.
func (m *Manager) CountrySectors(country string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range m.order {
		c := m.companies[name]
		if c.Country == country && !seen[c.Sector] {
			seen[c.Sector] = true
			out = append(out, c.Sector)
		}
	}
	sort.Strings(out)
	return out
}

// ApplyStrategy applies a competitive action to the named company.
func (m *Manager) ApplyStrategy(name string, a CompetitiveAction) error {
	c, ok := m.companies[name]
	if !ok {
		return fmt.Errorf("economy: unknown company %q", name)
	}
	c.applyStrategy(a)
	m.recalculate()
	return nil
}

// Company returns a copy of the named company.
func (m *Manager) Company(name string) (Company, bool) {
	c, ok := m.companies[name]
	if !ok {
		return Company{}, false
	}
	return *c, true
}

// Companies returns copies of all companies sorted by name.
func (m *Manager) Companies() []Company {
	out := make([]Company, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.companies[name])
	}
	return out
}

// Len returns the number of companies.
func (m *Manager) Len() int { return len(m.companies) }

// SectorEmploymentRates returns each sector's share of total employment.
func (m *Manager) SectorEmploymentRates() map[string]float64 {
	out := make(map[string]float64, len(m.sectorEmploymentRates))
	for k, v := range m.sectorEmploymentRates {
		out[k] = v
	}
	return out
}

func (m *Manager) TotalInvestment() float64   { return m.totalInvestment }
func (m *Manager) StateOwnedProfits() float64 { return m.stateOwnedProfits }
func (m *Manager) TotalSubsidies() float64    { return m.totalSubsidies }

// Snapshot returns a copy of the ledger suitable for serialization.
func (m *Manager) Snapshot() []Company {
	return m.Companies()
}

// Restore replaces the ledger with companies. An empty slice is rejected.
func (m *Manager) Restore(companies []Company) error {
	return m.Initialize(companies)
}
