package data

import "github.com/talgya/statecraft/internal/world"

func num(v float64) *float64 { return &v }

func conditions(growth, inflation, unemployment, stability, environment, rate float64) world.Conditions {
	return world.Conditions{
		GDPGrowth:          growth,
		Inflation:          inflation,
		Unemployment:       unemployment,
		BankHealthIndex:    0.8,
		PoliticalStability: stability,
		EnvironmentalIndex: environment,
		EconomicStability:  0.7,
		InterestRate:       rate,
	}
}

func company(name, country, sector string, revenue, margin, employees float64, stateOwned bool) CompanyRecord {
	return CompanyRecord{
		Name:        name,
		Country:     country,
		Sector:      sector,
		StateOwned:  stateOwned,
		Revenue:     num(revenue),
		Profit:      num(revenue * margin),
		Employees:   num(employees),
		MarketCap:   num(revenue * 30),
		Subsidies:   num(0),
		MarketShare: num(0.05),
		Investment:  revenue * 0.05,
		Assets:      revenue * 0.4,
	}
}

// Default returns the built-in scenario: the United Kingdom against seven
// major economies.
func Default() *Dataset {
	return &Dataset{
		Player: DefaultPlayer,
		Countries: []CountryRecord{
			{
				Name: "United Kingdom", GDP: num(2500), Population: 67e6,
				Government: "constitutional_monarchy", Terrain: "coast",
				Sectors: map[string]float64{
					"finance": 0.25, "services": 0.3, "technology": 0.12, "manufacturing": 0.1,
					"pharmaceuticals": 0.08, "energy": 0.05, "aerospace": 0.05, "retail": 0.05,
				},
				LandMass: 0.002, AccessibleArea: 0.9, Infrastructure: 0.8,
				GovernmentDebt: 2500, InflationTarget: 0.02, GrowthTarget: 0.015, FiscalSpace: 40,
				Exports: 850, Imports: 880, MilitaryStrength: 180, MilitaryBudget: 0.022,
				ResearchInvestment: 0.6, Nuclear: true,
				Conditions: conditions(0.01, 0.04, 0.042, 70, 65, 5.25),
			},
			{
				Name: "United States", GDP: num(21000), Population: 333e6,
				Government: "federal_republic", Terrain: "plains",
				Sectors: map[string]float64{
					"technology": 0.25, "finance": 0.2, "services": 0.25, "manufacturing": 0.12,
					"energy": 0.08, "aerospace": 0.05, "agriculture": 0.05,
				},
				LandMass: 0.066, AccessibleArea: 0.85, Infrastructure: 0.8,
				GovernmentDebt: 25000, InflationTarget: 0.02, GrowthTarget: 0.02, FiscalSpace: 600,
				Exports: 2400, Imports: 3100, MilitaryStrength: 1000, MilitaryBudget: 0.035,
				ResearchInvestment: 0.9, Nuclear: true,
				Conditions: conditions(0.022, 0.035, 0.038, 62, 55, 5.25),
			},
			{
				Name: "Germany", GDP: num(3500), Population: 84e6,
				Government: "federal_republic", Terrain: "forest", Borders: []string{"France"},
				Sectors: map[string]float64{
					"manufacturing": 0.3, "services": 0.25, "technology": 0.12, "finance": 0.1,
					"pharmaceuticals": 0.08, "energy": 0.08, "retail": 0.07,
				},
				LandMass: 0.0024, AccessibleArea: 0.9, Infrastructure: 0.85,
				GovernmentDebt: 2200, InflationTarget: 0.02, GrowthTarget: 0.012, FiscalSpace: 120,
				Exports: 1400, Imports: 1250, MilitaryStrength: 150, MilitaryBudget: 0.015,
				ResearchInvestment: 0.75,
				Conditions: conditions(0.002, 0.03, 0.055, 72, 75, 4),
			},
			{
				Name: "France", GDP: num(2400), Population: 68e6,
				Government: "democracy", Terrain: "plains", Borders: []string{"Germany"},
				Sectors: map[string]float64{
					"services": 0.3, "manufacturing": 0.15, "aerospace": 0.1, "finance": 0.12,
					"agriculture": 0.08, "energy": 0.1, "retail": 0.08, "pharmaceuticals": 0.07,
				},
				LandMass: 0.0043, AccessibleArea: 0.88, Infrastructure: 0.8,
				GovernmentDebt: 2700, InflationTarget: 0.02, GrowthTarget: 0.013, FiscalSpace: 60,
				Exports: 700, Imports: 780, MilitaryStrength: 200, MilitaryBudget: 0.02,
				ResearchInvestment: 0.6, Nuclear: true,
				Conditions: conditions(0.009, 0.035, 0.073, 58, 70, 4),
			},
			{
				Name: "China", GDP: num(14000), Population: 1410e6,
				Government: "one_party", Terrain: "mountain", Borders: []string{"India", "Russia"},
				Sectors: map[string]float64{
					"manufacturing": 0.35, "technology": 0.15, "services": 0.2, "telecoms": 0.08,
					"energy": 0.08, "agriculture": 0.08, "finance": 0.06,
				},
				LandMass: 0.064, AccessibleArea: 0.6, Infrastructure: 0.7,
				GovernmentDebt: 10000, InflationTarget: 0.03, GrowthTarget: 0.05, FiscalSpace: 400,
				Exports: 2800, Imports: 2100, MilitaryStrength: 700, MilitaryBudget: 0.017,
				ResearchInvestment: 0.7, Nuclear: true,
				Conditions: conditions(0.05, 0.01, 0.05, 68, 40, 3.5),
			},
			{
				Name: "Japan", GDP: num(3300), Population: 125e6,
				Government: "constitutional_monarchy", Terrain: "coast",
				Sectors: map[string]float64{
					"technology": 0.22, "manufacturing": 0.25, "services": 0.25, "finance": 0.1,
					"pharmaceuticals": 0.06, "retail": 0.07, "energy": 0.05,
				},
				LandMass: 0.0025, AccessibleArea: 0.3, Infrastructure: 0.9,
				GovernmentDebt: 8500, InflationTarget: 0.02, GrowthTarget: 0.01, FiscalSpace: 50,
				Exports: 750, Imports: 800, MilitaryStrength: 200, MilitaryBudget: 0.012,
				ResearchInvestment: 0.8,
				Conditions: conditions(0.01, 0.025, 0.026, 75, 72, 0.1),
			},
			{
				Name: "India", GDP: num(2900), Population: 1420e6,
				Government: "federal_republic", Terrain: "plains", Borders: []string{"China"},
				Sectors: map[string]float64{
					"services": 0.35, "agriculture": 0.18, "technology": 0.12, "manufacturing": 0.15,
					"pharmaceuticals": 0.08, "telecoms": 0.06, "energy": 0.06,
				},
				LandMass: 0.022, AccessibleArea: 0.75, Infrastructure: 0.5,
				GovernmentDebt: 2400, InflationTarget: 0.04, GrowthTarget: 0.06, FiscalSpace: 80,
				Exports: 620, Imports: 730, MilitaryStrength: 400, MilitaryBudget: 0.024,
				ResearchInvestment: 0.4, Nuclear: true,
				Conditions: conditions(0.065, 0.055, 0.08, 60, 45, 6.5),
			},
			{
				Name: "Russia", GDP: num(1600), Population: 144e6,
				Government: "autocracy", Terrain: "forest", Borders: []string{"China"},
				Sectors: map[string]float64{
					"energy": 0.35, "manufacturing": 0.15, "services": 0.2, "agriculture": 0.08,
					"finance": 0.07, "aerospace": 0.07, "telecoms": 0.08,
				},
				LandMass: 0.11, AccessibleArea: 0.5, Infrastructure: 0.55,
				GovernmentDebt: 320, InflationTarget: 0.04, GrowthTarget: 0.015, FiscalSpace: 30,
				Exports: 420, Imports: 300, MilitaryStrength: 600, MilitaryBudget: 0.06,
				ResearchInvestment: 0.45, Nuclear: true,
				Conditions: conditions(0.015, 0.07, 0.035, 45, 50, 16),
			},
		},
		Companies: []CompanyRecord{
			company("Albion Financial", "United Kingdom", "finance", 3.2e9, 0.18, 60000, false),
			company("Thames Pharmaceuticals", "United Kingdom", "pharmaceuticals", 2.4e9, 0.2, 45000, false),
			company("Northern Aerospace", "United Kingdom", "aerospace", 1.8e9, 0.08, 38000, false),
			company("Britannia Energy", "United Kingdom", "energy", 2.9e9, 0.12, 30000, true),
			company("Mersey Digital", "United Kingdom", "technology", 1.1e9, 0.15, 18000, false),
			company("Clyde Engineering", "United Kingdom", "manufacturing", 1.5e9, 0.06, 42000, false),
			company("Crown Postal Services", "United Kingdom", "services", 1.0e9, 0.03, 140000, true),
			company("Liberty Systems", "United States", "technology", 9.5e9, 0.25, 150000, false),
			company("Rheinwerk Industries", "Germany", "manufacturing", 6.8e9, 0.07, 210000, false),
			company("Seine Aeronautique", "France", "aerospace", 4.2e9, 0.09, 120000, false),
			company("Dragon Telecom", "China", "telecoms", 5.5e9, 0.11, 300000, true),
			company("Sakura Electronics", "Japan", "technology", 5.9e9, 0.06, 230000, false),
			company("Ganges Life Sciences", "India", "pharmaceuticals", 1.2e9, 0.14, 80000, false),
			company("Volga Petroleum", "Russia", "energy", 4.7e9, 0.2, 90000, true),
		},
	}
}
