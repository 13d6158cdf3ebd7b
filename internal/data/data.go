// Package data loads the static scenario a session starts from: countries,
// companies and the name of the player's country. Files are JSON or YAML.
// Every malformed record is reported; nothing is returned unless the whole
// dataset is valid.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/world"
)

// DefaultPlayer is the country the player governs unless a dataset says
// otherwise.
const DefaultPlayer = "United Kingdom"

// Format is the encoding of a dataset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// LoadError lists every problem found while loading a dataset.
type LoadError struct {
	Source   string
	Problems []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("data: %d problem(s) in %s: %s", len(e.Problems), e.Source, strings.Join(e.Problems, "; "))
}

func (e *LoadError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// CountryRecord is a country as written in a dataset. Name, gdp and
// sectors are required.
type CountryRecord struct {
	Name               string             `json:"name" yaml:"name"`
	GDP                *float64           `json:"gdp" yaml:"gdp"` // £bn
	Sectors            map[string]float64 `json:"sectors" yaml:"sectors"`
	Population         float64            `json:"population" yaml:"population"`
	Government         string             `json:"government,omitempty" yaml:"government,omitempty"`
	Terrain            string             `json:"terrain,omitempty" yaml:"terrain,omitempty"`
	Borders            []string           `json:"borders,omitempty" yaml:"borders,omitempty"`
	LandMass           float64            `json:"land_mass" yaml:"land_mass"`
	AccessibleArea     float64            `json:"accessible_area" yaml:"accessible_area"`
	Infrastructure     float64            `json:"infrastructure" yaml:"infrastructure"`
	GovernmentDebt     float64            `json:"government_debt" yaml:"government_debt"`
	InflationTarget    float64            `json:"inflation_target" yaml:"inflation_target"`
	GrowthTarget       float64            `json:"growth_target" yaml:"growth_target"`
	FiscalSpace        float64            `json:"fiscal_space" yaml:"fiscal_space"`
	ForeignInvestment  float64            `json:"foreign_investment" yaml:"foreign_investment"`
	Exports            float64            `json:"exports" yaml:"exports"`
	Imports            float64            `json:"imports" yaml:"imports"`
	ExportGoods        []string           `json:"export_goods,omitempty" yaml:"export_goods,omitempty"`
	ImportGoods        []string           `json:"import_goods,omitempty" yaml:"import_goods,omitempty"`
	MilitaryStrength   float64            `json:"military_strength" yaml:"military_strength"`
	MilitaryBudget     float64            `json:"military_budget" yaml:"military_budget"`
	ResearchInvestment float64            `json:"research_investment" yaml:"research_investment"`
	Nuclear            bool               `json:"nuclear" yaml:"nuclear"`
	Conditions         world.Conditions   `json:"conditions" yaml:"conditions"`
	Traits             *world.Traits      `json:"traits,omitempty" yaml:"traits,omitempty"`
}

// CompanyRecord is a company as written in a dataset. Money is pounds per
// month.
type CompanyRecord struct {
	Name         string   `json:"name" yaml:"name"`
	Country      string   `json:"country" yaml:"country"`
	Sector       string   `json:"sector" yaml:"sector"`
	StateOwned   bool     `json:"state_owned" yaml:"state_owned"`
	Revenue      *float64 `json:"revenue" yaml:"revenue"`
	Profit       *float64 `json:"profit" yaml:"profit"`
	Employees    *float64 `json:"employees" yaml:"employees"`
	MarketCap    *float64 `json:"market_cap" yaml:"market_cap"`
	Subsidies    *float64 `json:"subsidies" yaml:"subsidies"`
	MarketShare  *float64 `json:"market_share" yaml:"market_share"`
	Investment   float64  `json:"investment" yaml:"investment"`
	AvgSalary    float64  `json:"avg_salary" yaml:"avg_salary"` // Monthly
	Assets       float64  `json:"assets" yaml:"assets"`
	BaseRevenue  float64  `json:"base_revenue" yaml:"base_revenue"`
	BaseExpenses float64  `json:"base_expenses" yaml:"base_expenses"`
}

// Dataset is a complete scenario.
type Dataset struct {
	Player    string          `json:"player" yaml:"player"`
	Countries []CountryRecord `json:"countries" yaml:"countries"`
	Companies []CompanyRecord `json:"companies" yaml:"companies"`
}

const defaultAvgSalary = 2900

// Load reads a dataset file, picking the format from its extension.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return Parse(raw, format, path)
}

// Parse decodes and validates a dataset. source names it in errors.
func Parse(raw []byte, format Format, source string) (*Dataset, error) {
	var ds Dataset
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &ds)
	default:
		err = json.Unmarshal(raw, &ds)
	}
	if err != nil {
		return nil, &LoadError{Source: source, Problems: []string{fmt.Sprintf("decoding %s: %v", format, err)}}
	}
	if err := ds.Validate(source); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks every record and returns a *LoadError listing all
// problems, or nil.
func (ds *Dataset) Validate(source string) error {
	le := &LoadError{Source: source}
	if ds.Player == "" {
		ds.Player = DefaultPlayer
	}
	if len(ds.Countries) == 0 {
		le.add("no countries")
	}
	if len(ds.Companies) == 0 {
		le.add("no companies")
	}

	names := make(map[string]bool, len(ds.Countries))
	for i, c := range ds.Countries {
		label := fmt.Sprintf("country %d", i)
		if c.Name == "" {
			le.add("%s: missing name", label)
		} else {
			label = fmt.Sprintf("country %q", c.Name)
			if names[c.Name] {
				le.add("%s: duplicate name", label)
			}
			names[c.Name] = true
		}
		if c.GDP == nil {
			le.add("%s: missing gdp", label)
		} else if *c.GDP < 0 {
			le.add("%s: negative gdp", label)
		}
		if c.Sectors == nil {
			le.add("%s: missing sectors", label)
		}
		for s, v := range c.Sectors {
			if v < 0 {
				le.add("%s: negative share for sector %s", label, s)
			}
		}
		if c.Government != "" {
			if _, ok := world.ParseGovernment(c.Government); !ok {
				le.add("%s: unknown government %q", label, c.Government)
			}
		}
		if c.Terrain != "" {
			if _, ok := world.ParseTerrain(c.Terrain); !ok {
				le.add("%s: unknown terrain %q", label, c.Terrain)
			}
		}
	}

	companies := make(map[string]bool, len(ds.Companies))
	for i, c := range ds.Companies {
		label := fmt.Sprintf("company %d", i)
		if c.Name == "" {
			le.add("%s: missing name", label)
		} else {
			label = fmt.Sprintf("company %q", c.Name)
			if companies[c.Name] {
				le.add("%s: duplicate name", label)
			}
			companies[c.Name] = true
		}
		if c.Sector == "" {
			le.add("%s: missing sector", label)
		}
		if c.Country != "" && !names[c.Country] {
			le.add("%s: unknown country %q", label, c.Country)
		}
		for field, v := range map[string]*float64{
			"revenue":      c.Revenue,
			"profit":       c.Profit,
			"employees":    c.Employees,
			"market_cap":   c.MarketCap,
			"subsidies":    c.Subsidies,
			"market_share": c.MarketShare,
		} {
			if v == nil {
				le.add("%s: missing %s", label, field)
			}
		}
		if c.MarketShare != nil && (*c.MarketShare < 0 || *c.MarketShare > 1) {
			le.add("%s: market_share outside [0,1]", label)
		}
	}

	if len(le.Problems) > 0 {
		sort.Strings(le.Problems)
		return le
	}
	return nil
}

// BuildCountries converts the country records. The dataset must be valid.
func (ds *Dataset) BuildCountries() []*world.Country {
	out := make([]*world.Country, 0, len(ds.Countries))
	for _, r := range ds.Countries {
		gov, _ := world.ParseGovernment(r.Government)
		terrain, _ := world.ParseTerrain(r.Terrain)
		c := &world.Country{
			Name:               r.Name,
			Government:         gov,
			LandMass:           r.LandMass,
			AccessibleArea:     r.AccessibleArea,
			Infrastructure:     r.Infrastructure,
			Terrain:            terrain,
			Borders:            append([]string(nil), r.Borders...),
			GDP:                *r.GDP,
			Population:         r.Population,
			Sectors:            make(map[string]float64, len(r.Sectors)),
			GovernmentDebt:     r.GovernmentDebt,
			InflationTarget:    r.InflationTarget,
			GrowthTarget:       r.GrowthTarget,
			FiscalSpace:        r.FiscalSpace,
			ForeignInvestment:  r.ForeignInvestment,
			ExportGoods:        append([]string(nil), r.ExportGoods...),
			ImportGoods:        append([]string(nil), r.ImportGoods...),
			Exports:            r.Exports,
			Imports:            r.Imports,
			Tariffs:            make(map[string]float64),
			MilitaryStrength:   r.MilitaryStrength,
			MilitaryBudget:     r.MilitaryBudget,
			ResearchInvestment: r.ResearchInvestment,
			Nuclear:            r.Nuclear,
			Conditions:         r.Conditions,
			Player:             r.Name == ds.Player,
		}
		for s, v := range r.Sectors {
			c.Sectors[s] = v
		}
		if r.Traits != nil {
			c.Traits = *r.Traits
		}
		if c.InflationTarget == 0 {
			c.InflationTarget = 0.02
		}
		if c.Conditions.PotentialGDP == 0 {
			c.Conditions.PotentialGDP = c.GDP
		}
		if c.Conditions.DebtToGDP == 0 && c.GDP > 0 {
			c.Conditions.DebtToGDP = c.GovernmentDebt / c.GDP * 100
		}
		out = append(out, c)
	}
	return out
}

// BuildCompanies converts the company records. Base figures default to
// the loaded revenue and cost.
func (ds *Dataset) BuildCompanies() []economy.Company {
	out := make([]economy.Company, 0, len(ds.Companies))
	for _, r := range ds.Companies {
		c := economy.Company{
			Name:         r.Name,
			Country:      r.Country,
			Sector:       r.Sector,
			StateOwned:   r.StateOwned,
			Revenue:      *r.Revenue,
			Profit:       *r.Profit,
			Expenses:     *r.Revenue - *r.Profit,
			Employees:    *r.Employees,
			MarketCap:    *r.MarketCap,
			Subsidies:    *r.Subsidies,
			MarketShare:  *r.MarketShare,
			Investment:   r.Investment,
			AvgSalary:    r.AvgSalary,
			Assets:       r.Assets,
			BaseRevenue:  r.BaseRevenue,
			BaseExpenses: r.BaseExpenses,
		}
		if c.Country == "" {
			c.Country = ds.Player
		}
		if c.AvgSalary == 0 {
			c.AvgSalary = defaultAvgSalary
		}
		if c.BaseRevenue == 0 {
			c.BaseRevenue = c.Revenue
		}
		if c.BaseExpenses == 0 {
			c.BaseExpenses = max(c.Expenses-c.Employees*c.AvgSalary, 0)
		}
		out = append(out, c)
	}
	return out
}
