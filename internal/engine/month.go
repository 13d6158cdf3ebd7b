package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/talgya/statecraft/internal/ai"
	"github.com/talgya/statecraft/internal/economy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/government"
	"github.com/talgya/statecraft/internal/stats"
)

// SimulateMonth advances the session by one month. If any phase fails or
// panics the session is put back exactly as it was and an error returned.
func (e *Engine) SimulateMonth() (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}

	// Phase 1: keep the pre-step state for rollback.
	pre, err := e.snapshotLocked()
	if err != nil {
		return fmt.Errorf("%w: snapshot: %v", ErrStepFailed, err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = e.rollback(pre, fmt.Errorf("%w: %v", ErrStepFailed, r))
		}
	}()
	if err := e.step(); err != nil {
		return e.rollback(pre, fmt.Errorf("%w: %v", ErrStepFailed, err))
	}
	return nil
}

func (e *Engine) rollback(pre []byte, cause error) error {
	month := e.month + 1
	e.bus.Release()
	e.bus.Drop(events.PhaseMain)
	e.bus.Drop(events.PhasePostSimulation)
	if err := e.restoreLocked(pre); err != nil {
		slog.Error("rollback failed", "month", month, "error", err)
	}
	slog.Error("month rolled back", "month", month, "error", cause)
	e.bus.Publish(events.StepRolledBack, month, map[string]any{"reason": cause.Error()})
	return cause
}

func (e *Engine) step() error {
	month := e.month + 1
	prev := e.ind

	// Everything published until the step commits is held in the main
	// phase, so a rollback takes it back.
	e.bus.Hold(events.PhaseMain)

	// Phase 2: policy impacts, player actions, confidence.
	e.applyPending()
	e.applyActions(month)
	e.updateConfidence(prev)

	// Phase 3: domestic economy.
	e.domesticEconomy(prev)

	// Phase 4: the AI countries move, then trade settles.
	if err := e.internationalTrade(month); err != nil {
		return err
	}

	// Phase 5: companies.
	e.companies.RunMarketSimulations(economy.MarketConfig{
		Inflation:       e.ind.Inflation * 100,
		InterestRate:    e.cabinet.Monetary.InterestRate,
		ConsumerDemand:  e.ind.ConsumerConfidence / 10,
		SectorSubsidies: e.cabinet.Subsidies,
	})
	if s := e.playerSectors(); s != nil {
		e.player.Sectors = s
	}

	// Phase 6: public finances, departments, statistics.
	e.governmentFinances(month)
	e.cabinet.SimulateMonth()
	e.updateStatistics()
	e.syncPlayer()

	beforeRecord(e)

	// Phase 7: history and events.
	e.month = month
	e.history = append(e.history, Record{Month: month, Indicators: e.ind, Debt: e.player.GovernmentDebt})
	if over := len(e.history) - e.opts.HistoryCap; over > 0 {
		e.history = append([]Record(nil), e.history[over:]...)
	}
	if e.ind.GDPGrowth < recessionGrowth {
		e.bus.Queue(events.RecessionStart, month, map[string]any{"gdp_growth": e.ind.GDPGrowth}, events.PhasePostSimulation)
	}
	if e.ind.Inflation > highInflation {
		e.bus.Queue(events.HighInflation, month, map[string]any{"inflation": e.ind.Inflation}, events.PhasePostSimulation)
	}
	e.bus.Queue(events.SimulationComplete, month, map[string]any{"gdp": e.ind.GDP, "date": SimDate(month)}, events.PhasePostSimulation)
	e.bus.Release()
	e.bus.Flush(events.PhaseMain)
	e.bus.Flush(events.PhasePostSimulation)

	e.report()
	return nil
}

// rawDemand is consumption, investment and government spending before
// calibration, £bn annualised.
func (e *Engine) rawDemand() components {
	employed := e.employed()
	gross := employed * e.avgIncome / 1e9
	tax := e.cabinet.Tax.IncomeTax(e.avgIncome) * employed / 1e9
	disposable := math.Max(gross-tax, 0)

	consumption := disposable * e.ind.ConsumerConfidence / 100 *
		e.cabinet.Finance.CreditAvailability * e.mult.Consumption

	investment := e.companies.TotalInvestment() * 12 / 1e9 * e.ind.BusinessConfidence / 100
	investment /= 1 + e.cabinet.Monetary.InterestRate/100 + e.cabinet.Tax.Corporate/100
	investment *= e.mult.Investment

	government := e.cabinet.TotalSpending() * 12 / 1e9 * (1 + e.mult.Government)
	return components{Consumption: consumption, Investment: investment, Government: government}
}

// updateConfidence moves both confidence indices a fifth of the way toward
// levels implied by last month's outcome.
func (e *Engine) updateConfidence(prev Indicators) {
	target := e.cabinet.Monetary.InflationTarget
	rate := e.cabinet.Monetary.InterestRate / 100
	annualGrowth := prev.GDPGrowth * 12

	consumer := 60 + annualGrowth*20 -
		(prev.Unemployment-naturalRate)*400 -
		math.Max(0, prev.Inflation-target)*300
	business := 60 + annualGrowth*20 -
		(rate-0.03)*300 -
		math.Max(0, prev.DebtToGDP-debtWarningRatio)*0.1

	e.ind.ConsumerConfidence = gamemath.Clamp(prev.ConsumerConfidence+0.2*(consumer-prev.ConsumerConfidence), 0, 100)
	e.ind.BusinessConfidence = gamemath.Clamp(prev.BusinessConfidence+0.2*(business-prev.BusinessConfidence), 0, 100)
}

// domesticEconomy computes GDP by expenditure, then inflation from the
// Phillips curve and unemployment from Okun's law.
func (e *Engine) domesticEconomy(prev Indicators) {
	raw := e.rawDemand()
	e.components = components{
		Consumption: raw.Consumption * e.scale,
		Investment:  raw.Investment * e.scale,
		Government:  raw.Government * e.scale,
	}
	gdp := e.components.Consumption + e.components.Investment + e.components.Government + e.trade.Balance
	gdp = math.Max(gdp, 0)
	e.ind.GDP = gdp
	e.ind.GDPGrowth = gamemath.SafeDiv(gdp-prev.GDP, prev.GDP)

	target := e.cabinet.Monetary.InflationTarget
	rate := e.cabinet.Monetary.InterestRate / 100
	expected := target + 0.5*(naturalRate-prev.Unemployment)
	inflation := prev.Inflation + 0.15*(expected-prev.Inflation) - 0.01*(rate-target-0.01)
	e.ind.Inflation = gamemath.Clamp(inflation, -0.05, 1)

	trend := e.player.GrowthTarget / 12
	u := prev.Unemployment +
		0.1*(e.structuralUnemployment()-prev.Unemployment) -
		0.5*(e.ind.GDPGrowth-trend)
	e.ind.Unemployment = gamemath.Clamp(u, 0.01, 0.4)

	e.ind.Productivity = productivity(gdp, e.employed())
	e.avgIncome *= 1 + e.ind.Inflation/12
}

// structuralUnemployment rises with a binding minimum wage and with
// employment concentrated in few sectors.
func (e *Engine) structuralUnemployment() float64 {
	hhi := 0.0
	for _, share := range e.companies.SectorEmploymentRates() {
		hhi += share * share
	}
	wageRatio := gamemath.SafeDiv(e.cabinet.Labor.MinimumWage, e.avgIncome)
	return 0.035 + 0.02*hhi + 0.03*math.Max(0, wageRatio-0.5)
}

func (e *Engine) internationalTrade(month int) error {
	e.ai.SetPlayerTariffs(e.cabinet.Foreign.Tariffs)
	if err := e.ai.Step(month); err != nil {
		return err
	}
	trade, err := e.ai.CalculateGlobalTrade(e.tradeInputs())
	if err != nil {
		return err
	}
	e.trade = trade
	e.ind.TradeBalance = trade.Balance
	e.ind.CurrencyValue = math.Max(e.ind.CurrencyValue*(1+trade.Balance*1e-4-e.ind.Inflation*0.01), 0.01)
	return nil
}

func (e *Engine) tradeInputs() ai.GlobalTradeInputs {
	return ai.GlobalTradeInputs{
		CurrencyValue:   e.ind.CurrencyValue,
		Competitiveness: e.companies.SectorCompetitiveness(),
		ExportFactor:    e.mult.Export,
		ImportFactor:    e.mult.Import,
	}
}

// ledger sums the player's own companies, pounds per month.
type ledger struct {
	profits    float64
	soeProfits float64
	subsidies  float64
}

func (e *Engine) playerLedger() ledger {
	var l ledger
	for _, c := range e.companies.Companies() {
		if c.Country != e.player.Name {
			continue
		}
		l.profits += c.Profit
		l.subsidies += c.Subsidies
		if c.StateOwned {
			l.soeProfits += c.Profit
		}
	}
	return l
}

func (e *Engine) governmentFinances(month int) {
	l := e.playerLedger()
	base := government.TaxBase{
		Earners:   e.employed(),
		AvgIncome: e.avgIncome,
		Profits:   l.profits * 12,
		Sales:     e.components.Consumption * 1e9,
	}
	revenue := e.cabinet.TaxRevenue(base)/12/1e9 +
		l.soeProfits/1e9 +
		e.cabinet.TariffRevenue(e.trade.Imports)/12
	expenses := e.cabinet.TotalSpending()/1e9 +
		(l.subsidies+e.cabinet.TotalSubsidies())/1e9 +
		e.cabinet.DebtInterest(e.player.GovernmentDebt)

	deficit := expenses - revenue
	e.player.GovernmentDebt += deficit
	e.ind.BudgetDeficit = deficit
	e.ind.DebtToGDP = gamemath.SafeDiv(e.player.GovernmentDebt, e.ind.GDP) * 100
	if e.ind.DebtToGDP > debtWarningRatio && deficit > 0 {
		e.bus.Queue(events.DebtCrisisWarning, month, map[string]any{
			"debt_to_gdp": e.ind.DebtToGDP,
			"deficit":     deficit,
		}, events.PhasePostSimulation)
	}
}

func (e *Engine) updateStatistics() {
	population := e.player.Population
	lf := e.laborForce()
	e.stats.RecordPriceChange(e.ind.Inflation * 100 / 12)
	cpi := e.stats.CPI()
	e.stats.UpdateEconomic(stats.Economic{
		Consumption:        e.components.Consumption,
		Investment:         e.components.Investment,
		GovernmentSpending: e.components.Government,
		NetExports:         e.trade.Balance,
		Unemployed:         lf * e.ind.Unemployment,
		LaborForce:         lf,
		CPI:                cpi.Current(),
		PreviousCPI:        cpi.Previous(),
	})
	e.stats.RecordTrade(e.trade.Exports, e.trade.Imports)

	health := e.cabinet.Department(government.KindHealthcare).Performance
	education := e.cabinet.Department(government.KindEducation).Performance
	welfare := e.cabinet.Department(government.KindWelfare).Performance
	e.stats.UpdateHealth(stats.Health{LifeExpectancyAtBirth: health["lifeExpectancy"]})
	e.stats.UpdateEducation(stats.Education{
		LiteratePopulation: education["literacyRate"] * population,
		TotalPopulation:    population,
	})
	e.stats.UpdateSocial(stats.Social{
		BelowPovertyLine: welfare["povertyRate"] * population,
		TotalPopulation:  population,
	})
	e.stats.UpdateEnvironmental(stats.Environmental{TotalEmissions: e.ind.GDP * emissionsPerGDP})
}

// syncPlayer mirrors the indicators into the player country the AI reads.
func (e *Engine) syncPlayer() {
	p := e.player
	p.GDP = e.ind.GDP
	p.Conditions.GDPGrowth = e.ind.GDPGrowth * 12
	p.Conditions.Inflation = e.ind.Inflation
	p.Conditions.Unemployment = e.ind.Unemployment
	p.Conditions.DebtToGDP = e.ind.DebtToGDP
	p.Conditions.TradeBalance = e.ind.TradeBalance
	p.Conditions.InterestRate = e.cabinet.Monetary.InterestRate
	p.Tariffs = make(map[string]float64, len(e.cabinet.Foreign.Tariffs))
	for k, v := range e.cabinet.Foreign.Tariffs {
		p.Tariffs[k] = v
	}
}

func (e *Engine) report() {
	slog.Info("monthly report",
		"month", e.month,
		"date", SimDate(e.month),
		"gdp", "£"+humanize.Commaf(gamemath.Round(e.ind.GDP, 1))+"bn",
		"growth", fmt.Sprintf("%.3f", e.ind.GDPGrowth),
		"inflation", fmt.Sprintf("%.3f", e.ind.Inflation),
		"unemployment", fmt.Sprintf("%.3f", e.ind.Unemployment),
		"debt_to_gdp", fmt.Sprintf("%.1f", e.ind.DebtToGDP),
		"deficit", humanize.SIWithDigits(e.ind.BudgetDeficit*1e9, 2, "£"),
		"trade_balance", fmt.Sprintf("%.1f", e.ind.TradeBalance),
		"currency", fmt.Sprintf("%.3f", e.ind.CurrencyValue),
		"confidence", fmt.Sprintf("%.1f/%.1f", e.ind.ConsumerConfidence, e.ind.BusinessConfidence),
	)
}
