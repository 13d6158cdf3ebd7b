package government

import (
	"math"

	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
)

// Section of a department a reform effect targets.
type Section uint8

const (
	SectionMetrics Section = iota
	SectionPerformance
	SectionPolicies
)

// Effect is one numeric bump applied by a reform. Set, when true, assigns
// Delta instead of adding it. The result is clamped to [Min, Max].
type Effect struct {
	Section Section
	Key     string
	Delta   float64
	Set     bool
	Min     float64
	Max     float64
}

// Bounds constrain a metric when it is set.
type Bounds struct{ Min, Max float64 }

// Config is the domain table for one department kind.
type Config struct {
	Name        string
	Description string

	Metrics     map[string]float64
	Performance map[string]float64
	Policies    map[string]float64

	SalaryMetric string
	Budget       func(m map[string]float64) float64

	// Absolute lists performance keys that are not rates and are never
	// clamped to [0,1].
	Absolute map[string]bool

	MetricBounds map[string]Bounds
	MetricEvents map[string]events.Type
	// OnMetric recomputes dependent performance after a metric is set.
	OnMetric map[string]func(d *Department)

	Monthly func(d *Department)
	Reforms map[Reform][]Effect
}

var configs = map[Kind]*Config{
	KindTaxation: {
		Name:        "Department of Taxation",
		Description: "Handles all tax-related policies and revenue generation",
		Metrics: map[string]float64{
			"inspectors":      60000,
			"inspectorSalary": 32000,
			"systemsBudget":   1e9,
		},
		Performance: map[string]float64{
			"collectionEfficiency": 0.9,
			"complianceRate":       0.85,
		},
		Policies: map[string]float64{
			"selfAssessment": 1,
			"auditIntensity": 0.1,
		},
		SalaryMetric: "inspectorSalary",
		Budget: func(m map[string]float64) float64 {
			return m["inspectors"]*m["inspectorSalary"] + m["systemsBudget"]
		},
		Monthly: func(d *Department) {
			d.Performance["collectionEfficiency"] -= 0.002 * (1 - d.Metrics["inspectors"]/70000)
			d.Performance["complianceRate"] -= 0.001 * (1 - d.Policies["auditIntensity"]/0.1)
		},
		Reforms: map[Reform][]Effect{
			ReformDigitalFiling:    {{Section: SectionPerformance, Key: "collectionEfficiency", Delta: 0.05, Max: 1}},
			ReformEvasionCrackdown: {{Section: SectionPerformance, Key: "complianceRate", Delta: 0.05, Max: 1}},
		},
	},

	KindDefense: {
		Name:        "Department of Defense",
		Description: "Handles national defense and military expenditure",
		Metrics: map[string]float64{
			"soldiers":               150000,
			"soldierSalary":          30000,
			"equipmentBudget":        20e9,
			"researchAndDevelopment": 5e9,
			"bases":                  50,
			"internationalMissions":  5,
		},
		Performance: map[string]float64{
			"defenseReadiness":         0.8,
			"internationalInfluence":   0.7,
			"technologicalAdvancement": 0.6,
		},
		Policies: map[string]float64{
			"conscription":     0,
			"internationalAid": 0.1,
			"defenseContracts": 0.2,
		},
		SalaryMetric: "soldierSalary",
		Budget: func(m map[string]float64) float64 {
			return m["soldiers"]*m["soldierSalary"] + m["equipmentBudget"] + m["researchAndDevelopment"]
		},
		MetricEvents: map[string]events.Type{"soldiers": events.DefenseStaffing},
		OnMetric: map[string]func(d *Department){
			"soldiers": func(d *Department) {
				d.Performance["defenseReadiness"] = d.Metrics["soldiers"] / 200000
			},
		},
		Monthly: func(d *Department) {
			m, p := d.Metrics, d.Performance
			p["defenseReadiness"] -= 0.01 * (1 - m["soldiers"]/200000)
			p["internationalInfluence"] -= 0.005 * m["internationalMissions"]
			p["technologicalAdvancement"] -= 0.005 * m["researchAndDevelopment"] / 1e10
			if d.Policies["conscription"] > 0 {
				m["soldiers"] = math.Min(m["soldiers"]+10000, 200000)
			}
		},
		Reforms: map[Reform][]Effect{
			ReformIncreaseReadiness: {{Section: SectionPerformance, Key: "defenseReadiness", Delta: 0.1, Max: 1}},
			ReformBoostTech:         {{Section: SectionPerformance, Key: "technologicalAdvancement", Delta: 0.1, Max: 1}},
		},
	},

	KindEducation: {
		Name:        "Department of Education",
		Description: "Handles national education policies and expenditure",
		Metrics: map[string]float64{
			"teachers":        500000,
			"teacherSalary":   35000,
			"schoolBudget":    30e9,
			"researchFunding": 5e9,
			"schools":         20000,
			"universities":    150,
		},
		Performance: map[string]float64{
			"literacyRate":         0.99,
			"graduationRate":       0.85,
			"internationalRanking": 0.8,
			"researchOutput":       0.7,
		},
		Policies: map[string]float64{
			"freeEducation":       1,
			"scholarshipPrograms": 0.15,
			"vocationalTraining":  0.2,
		},
		SalaryMetric: "teacherSalary",
		Budget: func(m map[string]float64) float64 {
			return m["teachers"]*m["teacherSalary"] + m["schoolBudget"] + m["researchFunding"]
		},
		MetricEvents: map[string]events.Type{"teachers": events.EducationStaffing},
		OnMetric: map[string]func(d *Department){
			"teachers": func(d *Department) {
				d.Performance["literacyRate"] = d.Metrics["teachers"] / 600000
			},
		},
		Monthly: func(d *Department) {
			m, p := d.Metrics, d.Performance
			p["literacyRate"] -= 0.001 * (1 - m["teachers"]/600000)
			p["graduationRate"] -= 0.002 * (1 - m["schools"]/25000)
			p["internationalRanking"] -= 0.003 * (1 - m["universities"]/200)
			p["researchOutput"] -= 0.005 * m["researchFunding"] / 1e10
			if d.Policies["freeEducation"] > 0 {
				p["literacyRate"] = math.Min(p["literacyRate"]+0.01, 1)
			}
		},
		Reforms: map[Reform][]Effect{
			ReformIncreaseLiteracy: {{Section: SectionPerformance, Key: "literacyRate", Delta: 0.05, Max: 1}},
			ReformBoostResearch:    {{Section: SectionPerformance, Key: "researchOutput", Delta: 0.1, Max: 1}},
			ReformVocational:       {{Section: SectionPolicies, Key: "vocationalTraining", Delta: 0.05, Max: 0.5}},
		},
	},

	KindHealthcare: {
		Name:        "National Health Service",
		Description: "Public healthcare system management",
		Metrics: map[string]float64{
			"doctors":               150000,
			"doctorSalary":          45000,
			"subsidyPercentage":     1,
			"facilities":            1200,
			"medicalSchools":        33,
			"pharmaceuticalSubsidy": 0.2,
		},
		Performance: map[string]float64{
			"lifeExpectancy":      81.3,
			"patientSatisfaction": 0.76,
			"waitingTimes":        4,
			"emergencyResponse":   8.2,
			"preventableDeaths":   12.3,
		},
		Policies: map[string]float64{
			"freeAtPointOfUse":       1,
			"dentalCoverage":         0.3,
			"mentalHealthFunding":    0.15,
			"privatePracticeAllowed": 1,
		},
		SalaryMetric: "doctorSalary",
		Budget: func(m map[string]float64) float64 {
			base := m["doctors"]*m["doctorSalary"] + m["facilities"]*2.5e6
			return base * 1.12 * m["subsidyPercentage"]
		},
		Absolute: map[string]bool{
			"lifeExpectancy":    true,
			"waitingTimes":      true,
			"emergencyResponse": true,
			"preventableDeaths": true,
		},
		MetricBounds: map[string]Bounds{
			"doctors":           {Min: 100000, Max: 300000},
			"subsidyPercentage": {Min: 0, Max: 1},
		},
		MetricEvents: map[string]events.Type{
			"doctors":           events.HealthcareStaffing,
			"subsidyPercentage": events.HealthcareFunding,
		},
		OnMetric: map[string]func(d *Department){
			"doctors": func(d *Department) {
				perCapita := d.Metrics["doctors"] / 67e6 * 1000 // per thousand residents
				d.Performance["emergencyResponse"] = math.Max(4, 10-perCapita*0.8)
			},
			"subsidyPercentage": func(d *Department) {
				if d.Metrics["subsidyPercentage"] == 1 {
					d.Policies["freeAtPointOfUse"] = 1
				} else {
					d.Policies["freeAtPointOfUse"] = 0
				}
			},
		},
		Monthly: func(d *Department) {
			m, p := d.Metrics, d.Performance
			subsidy, doctors := m["subsidyPercentage"], m["doctors"]

			p["lifeExpectancy"] = 80 + (subsidy-0.8)*2 + (doctors-150000)/50000

			waitFactor := (8 - p["waitingTimes"]) / 8
			p["patientSatisfaction"] = gamemath.Clamp((waitFactor*0.6+subsidy*0.4)*0.9, 0.5, 0.95)

			demand := 0.8 + (1-subsidy)*0.3
			capacity := doctors / 150000
			p["waitingTimes"] = gamemath.Clamp(4*gamemath.SafeDiv(demand, capacity), 2, 26)
		},
		Reforms: map[Reform][]Effect{
			ReformPrivatization: {
				{Section: SectionPolicies, Key: "privatePracticeAllowed", Delta: 1, Set: true, Max: 1},
				{Section: SectionMetrics, Key: "subsidyPercentage", Delta: -0.2, Min: 0.6, Max: 1},
			},
			ReformMentalHealth: {{Section: SectionPolicies, Key: "mentalHealthFunding", Delta: 0.05, Max: 0.5}},
		},
	},

	KindWelfare: {
		Name:        "Department of Welfare",
		Description: "Handles social security and welfare programs",
		Metrics: map[string]float64{
			"unemploymentBenefits": 10e9,
			"disabilityBenefits":   5e9,
			"pensionFund":          20e9,
			"housingAssistance":    8e9,
			"socialWorkers":        100000,
			"socialWorkerSalary":   30000,
		},
		Performance: map[string]float64{
			"povertyRate":      0.15,
			"unemploymentRate": 0.06,
			"satisfactionRate": 0.7,
			"homelessnessRate": 0.02,
		},
		Policies: map[string]float64{
			"universalBasicIncome":  0,
			"unemploymentInsurance": 0.5,
			"disabilitySupport":     0.3,
			"housingSubsidies":      0.2,
		},
		SalaryMetric: "socialWorkerSalary",
		Budget: func(m map[string]float64) float64 {
			benefits := m["unemploymentBenefits"] + m["disabilityBenefits"] + m["pensionFund"] + m["housingAssistance"]
			return benefits + m["socialWorkers"]*m["socialWorkerSalary"]
		},
		MetricEvents: map[string]events.Type{"socialWorkers": events.WelfareStaffing},
		OnMetric: map[string]func(d *Department){
			"socialWorkers": func(d *Department) {
				d.Performance["povertyRate"] = 1 - d.Metrics["socialWorkers"]/120000
			},
		},
		Monthly: func(d *Department) {
			m, p := d.Metrics, d.Performance
			p["povertyRate"] += 0.001 * (1 - m["unemploymentBenefits"]/12e9)
			p["unemploymentRate"] += 0.002 * (1 - m["socialWorkers"]/120000)
			p["homelessnessRate"] += 0.003 * (1 - m["housingAssistance"]/10e9)
			p["satisfactionRate"] -= 0.002 * (1 - p["povertyRate"])
			if d.Policies["universalBasicIncome"] > 0 {
				p["povertyRate"] = math.Max(p["povertyRate"]-0.03, 0)
			}
		},
		Reforms: map[Reform][]Effect{
			ReformPovertyReduction:  {{Section: SectionPerformance, Key: "povertyRate", Delta: -0.02, Max: 1}},
			ReformEmploymentSupport: {{Section: SectionPerformance, Key: "unemploymentRate", Delta: -0.01, Max: 1}},
			ReformHousing:           {{Section: SectionPolicies, Key: "housingSubsidies", Delta: 0.05, Max: 0.5}},
		},
	},

	KindForeignAffairs: {
		Name:        "Department of Foreign Affairs",
		Description: "Handles international relations and foreign policy",
		Metrics: map[string]float64{
			"diplomats":             3000,
			"diplomatSalary":        80000,
			"embassies":             100,
			"foreignAidBudget":      10e9,
			"tradeAgreements":       5,
			"internationalProjects": 20,
		},
		Performance: map[string]float64{
			"diplomaticRelations":    0.8,
			"internationalInfluence": 0.75,
			"tradeBalance":           0.6,
			"conflictResolution":     0.7,
		},
		Policies: map[string]float64{
			"foreignAid":       0.1,
			"tradePolicy":      0.2,
			"culturalExchange": 0.15,
		},
		SalaryMetric: "diplomatSalary",
		Budget: func(m map[string]float64) float64 {
			return m["foreignAidBudget"] + m["embassies"]*5e6 + m["diplomats"]*m["diplomatSalary"]
		},
		MetricEvents: map[string]events.Type{"diplomats": events.DiplomatStaffing},
		OnMetric: map[string]func(d *Department){
			"diplomats": func(d *Department) {
				d.Performance["diplomaticRelations"] = d.Metrics["diplomats"] / 4000
			},
		},
		Monthly: func(d *Department) {
			m, p := d.Metrics, d.Performance
			p["diplomaticRelations"] -= 0.002 * (1 - m["diplomats"]/4000)
			p["internationalInfluence"] -= 0.003 * (1 - m["embassies"]/120)
			p["tradeBalance"] -= 0.005 * (1 - m["tradeAgreements"]/10)
			p["conflictResolution"] -= 0.004 * (1 - m["internationalProjects"]/30)
			if d.Policies["foreignAid"] > 0.1 {
				p["internationalInfluence"] = math.Min(p["internationalInfluence"]+0.02, 1)
			}
		},
		Reforms: map[Reform][]Effect{
			ReformDiplomaticRelation: {{Section: SectionPerformance, Key: "diplomaticRelations", Delta: 0.05, Max: 1}},
			ReformTradeAgreements:    {{Section: SectionMetrics, Key: "tradeAgreements", Delta: 1, Max: 10}},
			ReformCulturalExchange:   {{Section: SectionPolicies, Key: "culturalExchange", Delta: 0.05, Max: 0.5}},
		},
	},
}

// ConfigFor returns the table for kind, or nil for an unknown kind.
func ConfigFor(kind Kind) *Config {
	return configs[kind]
}
