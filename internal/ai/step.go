package ai

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/statecraft/internal/diplomacy"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/gamemath"
	"github.com/talgya/statecraft/internal/military"
	"github.com/talgya/statecraft/internal/strategy"
	"github.com/talgya/statecraft/internal/world"
)

// Subsystem names used in failure reports.
const (
	SubsystemDrift     = "drift"
	SubsystemGoals     = "goals"
	SubsystemEconomy   = "economy"
	SubsystemDiplomacy = "diplomacy"
	SubsystemMilitary  = "military"
	SubsystemRelations = "relations"
	SubsystemCrisis    = "crisis"
)

// DominanceShare is the power share that triggers a counter-alliance.
const DominanceShare = 0.7

// Step runs one month for every AI country in name order, then balances
// global power and handles crises. A failing subsystem only loses that
// country's contribution for the month.
func (m *Manager) Step(month int) error {
	if !m.Initialized() {
		return ErrNotInitialized
	}
	m.month = month
	m.diplomacy.SetMonth(month)
	m.military.SetMonth(month)
	m.crises.SetMonth(month)

	for idx, name := range m.names() {
		c := m.countries[name]
		m.guard(name, SubsystemDrift, func() error {
			m.drift.Apply(c, idx, month)
			return nil
		})
		m.guard(name, SubsystemGoals, func() error { return m.updateGoals(c) })
		m.guard(name, SubsystemEconomy, func() error { return m.economicDecisions(c) })
		m.guard(name, SubsystemDiplomacy, func() error { return m.processDiplomacy(c) })
		if c.Traits.Aggression > 0.7 {
			m.guard(name, SubsystemMilitary, func() error { return m.militaryActions(c) })
		}
		m.guard(name, SubsystemRelations, func() error { return m.updateRelationships(c) })
	}

	m.diplomacy.UpdateRelationships()
	m.balancePower()
	for _, name := range m.names() {
		c := m.countries[name]
		m.guard(name, SubsystemCrisis, func() error { return m.handleCrises(c) })
		if len(c.Memory.Actions) > maxActions {
			c.Memory.Actions = c.Memory.Actions[len(c.Memory.Actions)-maxActions:]
		}
	}
	return nil
}

// guard runs fn and isolates any error or panic it produces.
func (m *Manager) guard(country, subsystem string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()
	if err == nil {
		return
	}

	m.failures++
	slog.Warn("ai subsystem failed", "country", country, "subsystem", subsystem, "error", err)
	if m.bus != nil {
		m.bus.Publish(events.SubsystemFailure, m.month, map[string]any{
			"country": country, "subsystem": subsystem, "error": err.Error(),
		})
	}
	if m.OnFailure != nil {
		m.OnFailure(country, subsystem)
	}
}

func (m *Manager) updateGoals(c *world.Country) error {
	c.StrategicGoals = strategy.PrioritizeGoals(m.needs(c), c.Traits)
	return nil
}

// economicDecisions sets tariffs, applies the macro policy rule, advances
// the country's economy by a month and has its companies compete with the
// player's.
func (m *Manager) economicDecisions(c *world.Country) error {
	if c.GDP <= 0 {
		return fmt.Errorf("non-positive gdp %v", c.GDP)
	}
	state := strategy.StateOf(c)

	if c.Tariffs == nil {
		c.Tariffs = make(map[string]float64)
	}
	for _, t := range m.model.CalculateTariffs(c, state, m.playerTariffs) {
		c.Tariffs[t.Sector] = t.Rate
	}

	ch := m.model.DeterminePolicyChanges(c, state)
	applyPolicy(c, ch)
	advanceEconomy(c)

	m.trade[c.Name] = strategy.TradeResult{
		Exports: c.Exports,
		Imports: c.Imports,
		Balance: c.Exports - c.Imports,
	}
	c.Remember(fmt.Sprintf("policy:rate=%.2f,stimulus=%.1f", ch.InterestRate, ch.GovernmentSpending))

	m.competeWithPlayer(c)
	return nil
}

// applyPolicy turns a policy decision into monthly effects. Stimulus is
// debt-financed and draws down fiscal space.
func applyPolicy(c *world.Country, ch strategy.PolicyChanges) {
	cond := &c.Conditions
	rateShift := ch.InterestRate - cond.InterestRate
	cond.InterestRate = ch.InterestRate

	monthly := ch.GovernmentSpending / 12
	c.GovernmentDebt += monthly
	c.FiscalSpace = math.Max(0, c.FiscalSpace-monthly)

	cond.GDPGrowth += gamemath.SafeDiv(ch.GovernmentSpending, c.GDP)*0.3 - ch.TaxRate*0.2 - rateShift*0.001
	cond.GDPGrowth = gamemath.Clamp(cond.GDPGrowth, -0.15, 0.15)
	cond.Inflation += (c.InflationTarget-cond.Inflation)*0.1 - rateShift*0.002
	cond.Inflation = gamemath.Clamp(cond.Inflation, -0.05, 2)
}

// advanceEconomy compounds a month of growth into output, trade and debt
// ratios.
func advanceEconomy(c *world.Country) {
	cond := &c.Conditions
	g := cond.GDPGrowth / 12
	c.GDP *= 1 + g
	c.Exports *= 1 + g
	c.Imports *= 1 + g*0.8
	if cond.PotentialGDP <= 0 {
		cond.PotentialGDP = c.GDP
	}
	cond.PotentialGDP *= 1 + c.GrowthTarget/12
	cond.TradeBalance = c.Exports - c.Imports
	cond.DebtToGDP = gamemath.SafeDiv(c.GovernmentDebt, c.GDP) * 100
	cond.Unemployment = gamemath.Clamp(cond.Unemployment-(cond.GDPGrowth-c.GrowthTarget)*0.05, 0.01, 0.5)
}

// competeWithPlayer sets a strategy for every company c runs in a sector
// the player also competes in.
func (m *Manager) competeWithPlayer(c *world.Country) {
	playerSectors := make(map[string]bool)
	for _, s := range m.companies.CountrySectors(m.player.Name) {
		playerSectors[s] = true
	}
	for _, sector := range m.companies.CountrySectors(c.Name) {
		if !playerSectors[sector] {
			continue
		}
		rivals := m.companies.SectorCompanies(sector, m.player.Name)
		for _, co := range m.companies.SectorCompanies(sector, c.Name) {
			action := m.model.DetermineCompetitiveAction(co, rivals, c.Traits)
			if err := m.companies.ApplyStrategy(co.Name, action); err != nil {
				slog.Debug("competitive action skipped", "company", co.Name, "error", err)
			}
		}
	}
}

// processDiplomacy opens at most one trade negotiation a month with the
// most trusted eligible partner, and seeks an alliance when diplomacy is a
// goal.
func (m *Manager) processDiplomacy(c *world.Country) error {
	if partner := m.bestPartner(c, m.diplomacy.ShouldPropose); partner != nil {
		ag := m.diplomacy.Propose(c, partner)
		state, err := m.diplomacy.Negotiate(ag.ID, m.needs(partner).Economic)
		if err != nil {
			return err
		}
		c.Remember(fmt.Sprintf("trade_agreement:%s:%s", partner.Name, state))
		if state == diplomacy.StateFinalized {
			final, _ := m.diplomacy.Agreement(ag.ID)
			implementAgreement(c, partner, final.CurrentTerms)
		}
	}

	if hasGoal(c, world.GoalDiplomatic) {
		canAlly := func(a, b string) bool { return !m.diplomacy.Allied(a, b) }
		if partner := m.bestPartner(c, canAlly); partner != nil {
			if _, ok := m.diplomacy.FormAlliance(c.Name, partner.Name); ok {
				c.Remember("alliance:" + partner.Name)
			}
		}
	}
	return nil
}

// bestPartner returns the most trusted country that passes ok.
func (m *Manager) bestPartner(c *world.Country, ok func(a, b string) bool) *world.Country {
	var best *world.Country
	bestTrust := -1.0
	for _, other := range m.all() {
		if other.Name == c.Name || !ok(c.Name, other.Name) {
			continue
		}
		r, _ := m.diplomacy.Relation(c.Name, other.Name)
		if r.Trust > bestTrust {
			best, bestTrust = other, r.Trust
		}
	}
	return best
}

// implementAgreement cuts tariffs between the parties on sectors both run
// and lifts their exports.
func implementAgreement(a, b *world.Country, t diplomacy.Terms) {
	for sector := range a.Sectors {
		if _, shared := b.Sectors[sector]; !shared {
			continue
		}
		if a.Tariffs != nil {
			a.Tariffs[sector] *= 1 - t.TariffReduction
		}
		if b.Tariffs != nil {
			b.Tariffs[sector] *= 1 - t.TariffReduction
		}
	}
	a.Exports *= 1 + t.TariffReduction*0.1
	b.Exports *= 1 + t.TariffReduction*0.1 + t.MarketAccess*0.05
}

func hasGoal(c *world.Country, g world.Goal) bool {
	for _, x := range c.StrategicGoals {
		if x == g {
			return true
		}
	}
	return false
}

// militaryActions lets an aggressive country act on its best options. An
// invasion is launched only when the plan is more likely than not to work.
func (m *Manager) militaryActions(c *world.Country) error {
	all := m.all()
	var allies []string
	for _, al := range m.diplomacy.Alliances(c.Name) {
		for _, member := range al.Members {
			if member != c.Name {
				allies = append(allies, member)
			}
		}
	}

	threat := m.military.AssessThreatLevel(c, all)
	c.MilitaryBudget = military.UpdateMilitaryBudget(c, threat, c.Conditions.GDPGrowth)

	for _, a := range m.military.ConsiderActions(c, all, allies) {
		switch a.Kind {
		case military.ActionInvasion:
			target, ok := m.lookup(a.Target)
			if !ok || a.Plan == nil || a.Plan.SuccessProbability <= 0.5 {
				continue
			}
			res := m.military.SimulateBattle(c, target, target.Terrain)
			c.MilitaryStrength = math.Max(0, c.MilitaryStrength-res.AttackerLosses)
			target.MilitaryStrength = math.Max(0, target.MilitaryStrength-res.DefenderLosses)
			m.diplomacy.RecordInteraction(c.Name, target.Name, diplomacy.BorderDispute, 1)
			c.SetRelation(target.Name, c.Relation(target.Name)-0.2)
			target.SetRelation(c.Name, target.Relation(c.Name)-0.3)
			c.Remember(fmt.Sprintf("invasion:%s:%s", target.Name, res.Victor))
		case military.ActionFortify, military.ActionReadiness:
			c.MilitaryStrength *= 1.01
			c.Remember(a.Kind)
		case military.ActionJointExercises:
			m.diplomacy.ApplyModifiers(c.Name, a.Target, diplomacy.Modifiers{Cooperation: 0.02})
			c.Remember(a.Kind + ":" + a.Target)
		}
	}
	return nil
}

// updateRelationships pulls the coarse relation toward the diplomatic
// matrix: trust discounted by tension.
func (m *Manager) updateRelationships(c *world.Country) error {
	for _, other := range m.all() {
		if other.Name == c.Name {
			continue
		}
		r, ok := m.diplomacy.Relation(c.Name, other.Name)
		if !ok {
			continue
		}
		target := r.Trust * (1 - r.Tension)
		c.SetRelation(other.Name, c.Relation(other.Name)*0.9+target*0.1)
	}
	return nil
}

// balancePower forms a counter-alliance of every other AI country against
// a country holding more than 70% of world combat power.
func (m *Manager) balancePower() {
	shares := m.PowerShares()
	dominant, top := "", 0.0
	for _, name := range world.SortedKeys(shares) {
		if shares[name] > top {
			dominant, top = name, shares[name]
		}
	}
	if top <= DominanceShare {
		return
	}
	var members []string
	for _, name := range m.names() {
		if name != dominant {
			members = append(members, name)
		}
	}
	if al, ok := m.diplomacy.FormCounterAlliance(members, dominant); ok {
		slog.Info("counter-alliance formed", "against", dominant, "share", fmt.Sprintf("%.3f", top), "members", al.Members)
		for _, name := range al.Members {
			m.countries[name].Remember("counter_alliance:" + dominant)
		}
	}
}

// handleCrises detects and answers c's crises, then runs a macro-financial
// programme if one is called for.
func (m *Manager) handleCrises(c *world.Country) error {
	threat := m.military.AssessThreatLevel(c, m.all())
	m.threat[c.Name] = threat

	for _, cr := range m.crises.Assess(c, threat) {
		resp, out := m.crises.Handle(c, cr)
		slog.Debug("crisis handled", "country", c.Name, "kind", cr.Kind, "measures", len(resp.Measures), "contained", out.Contained)
	}

	kind := strategy.IdentifyCrisis(c)
	if kind == strategy.CrisisNone {
		return nil
	}
	applyCrisisProgramme(c, m.model.GenerateCrisisResponse(c.Traits, kind))
	c.Remember("crisis_programme:" + string(kind))
	return nil
}

// applyCrisisProgramme feeds a programme's measures into conditions.
func applyCrisisProgramme(c *world.Country, r strategy.CrisisResponse) {
	cond := &c.Conditions
	cond.InterestRate += r.Monetary.InterestRate
	cond.Inflation *= 1 + r.Monetary.MoneySupply
	cond.GDPGrowth -= r.Fiscal.SpendingCut*0.1 + r.Fiscal.TaxIncrease*0.1
	c.GovernmentDebt *= 1 - r.Fiscal.SpendingCut*0.1
	if r.CapitalControls {
		c.Imports *= 0.95
	}
	cond.DebtToGDP = gamemath.SafeDiv(c.GovernmentDebt, c.GDP) * 100
	for _, s := range r.Structural {
		c.Remember("structural:" + s)
	}
}
