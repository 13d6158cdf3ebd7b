package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/statecraft/internal/ai"
	"github.com/talgya/statecraft/internal/events"
	"github.com/talgya/statecraft/internal/government"
)

// ActionKind names a player action.
type ActionKind string

const (
	ActionTariffChange     ActionKind = "tariff_change"
	ActionTradeAgreement   ActionKind = "trade_agreement"
	ActionMilitaryMove     ActionKind = "military_move"
	ActionPolicyChange     ActionKind = "policy_change"
	ActionDepartmentReform ActionKind = "department_reform"
)

// PolicyChange sets cabinet levers. Nil fields are left alone. Rates are
// percents except InflationTarget, which is a fraction.
type PolicyChange struct {
	InterestRate       *float64           `json:"interest_rate,omitempty"`
	InflationTarget    *float64           `json:"inflation_target,omitempty"`
	CreditAvailability *float64           `json:"credit_availability,omitempty"`
	MinimumWage        *float64           `json:"minimum_wage,omitempty"`
	CorporateTax       *float64           `json:"corporate_tax,omitempty"`
	SalesTax           *float64           `json:"sales_tax,omitempty"`
	Subsidies          map[string]float64 `json:"subsidies,omitempty"` // Pounds per month by sector
}

// Action is one player move. Target names the other country; for a trade
// agreement it is the partner.
type Action struct {
	Kind                 ActionKind    `json:"kind"`
	Target               string        `json:"target,omitempty"`
	Sector               string        `json:"sector,omitempty"`
	Rate                 float64       `json:"rate,omitempty"`
	TariffReduction      float64       `json:"tariff_reduction,omitempty"`
	MarketAccess         float64       `json:"market_access,omitempty"`
	IntellectualProperty float64       `json:"intellectual_property,omitempty"`
	Strength             float64       `json:"strength,omitempty"`
	Policy               *PolicyChange `json:"policy,omitempty"`
	Department           string        `json:"department,omitempty"`
	Reform               string        `json:"reform,omitempty"`
}

// ApplyPlayerAction validates a and queues it for the start of the next
// month. Unknown kinds are ignored.
func (e *Engine) ApplyPlayerAction(a Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	switch a.Kind {
	case ActionTariffChange:
		if a.Sector == "" {
			return fmt.Errorf("%w: tariff change needs a sector", ErrInvalidAction)
		}
		if a.Rate < 0 || a.Rate > 1 {
			return fmt.Errorf("%w: tariff rate %.3f outside [0,1]", ErrInvalidAction, a.Rate)
		}
		if a.Target != "" {
			if err := e.checkForeign(a.Target); err != nil {
				return err
			}
		}
	case ActionTradeAgreement, ActionMilitaryMove:
		if err := e.checkForeign(a.Target); err != nil {
			return err
		}
	case ActionPolicyChange:
		if err := checkPolicy(a.Policy); err != nil {
			return err
		}
	case ActionDepartmentReform:
		if _, err := e.cabinet.DepartmentByName(a.Department); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAction, err)
		}
	default:
		slog.Debug("ignoring unknown player action", "kind", a.Kind)
		return nil
	}
	e.queue = append(e.queue, a)
	return nil
}

func (e *Engine) checkForeign(name string) error {
	if _, ok := e.countries[name]; !ok || name == e.player.Name {
		return fmt.Errorf("%w: %w: %q", ErrInvalidAction, ai.ErrUnknownCountry, name)
	}
	return nil
}

func checkPolicy(p *PolicyChange) error {
	if p == nil {
		return fmt.Errorf("%w: policy change is empty", ErrInvalidAction)
	}
	for name, v := range map[string]*float64{
		"interest rate":       p.InterestRate,
		"inflation target":    p.InflationTarget,
		"credit availability": p.CreditAvailability,
		"minimum wage":        p.MinimumWage,
		"corporate tax":       p.CorporateTax,
		"sales tax":           p.SalesTax,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: negative %s", ErrInvalidAction, name)
		}
	}
	for _, v := range []*float64{p.CorporateTax, p.SalesTax} {
		if v != nil && *v > 100 {
			return fmt.Errorf("%w: tax rate above 100%%", ErrInvalidAction)
		}
	}
	for sector, v := range p.Subsidies {
		if v < 0 {
			return fmt.Errorf("%w: negative subsidy for %s", ErrInvalidAction, sector)
		}
	}
	return nil
}

// applyActions runs the queued actions in arrival order. AI errors are
// logged and do not stop the month.
func (e *Engine) applyActions(month int) {
	queue := e.queue
	e.queue = nil
	for _, a := range queue {
		data := map[string]any{"kind": string(a.Kind)}
		if a.Target != "" {
			data["target"] = a.Target
		}
		var err error
		switch a.Kind {
		case ActionTariffChange:
			e.cabinet.Foreign.Tariffs[a.Sector] = a.Rate
			var r ai.Reaction
			r, err = e.ai.HandlePlayerAction(ai.PlayerAction{
				Kind: ai.ActionTariffChange, Target: a.Target, Sector: a.Sector, Rate: a.Rate,
			})
			data["retaliators"] = r.Retaliators
		case ActionTradeAgreement:
			e.syncPlayer()
			var r ai.Reaction
			r, err = e.ai.HandlePlayerAction(ai.PlayerAction{
				Kind:                 ai.ActionTradeAgreement,
				Target:               a.Target,
				TariffReduction:      a.TariffReduction,
				MarketAccess:         a.MarketAccess,
				IntellectualProperty: a.IntellectualProperty,
			})
			for k, v := range e.player.Tariffs {
				e.cabinet.Foreign.Tariffs[k] = v
			}
			if r.Agreement != nil {
				data["state"] = string(r.Agreement.State)
			}
		case ActionMilitaryMove:
			_, err = e.ai.HandlePlayerAction(ai.PlayerAction{
				Kind: ai.ActionMilitaryMove, Target: a.Target, Strength: a.Strength,
			})
		case ActionPolicyChange:
			e.applyPolicy(a.Policy)
		case ActionDepartmentReform:
			d, derr := e.cabinet.DepartmentByName(a.Department)
			if derr != nil {
				err = derr
				break
			}
			data["applied"] = d.ImplementReform(government.Reform(a.Reform))
		}
		if err != nil {
			slog.Warn("player action failed", "kind", a.Kind, "target", a.Target, "error", err)
			data["error"] = err.Error()
		}
		e.bus.Publish(events.PlayerAction, month, data)
	}
}

func (e *Engine) applyPolicy(p *PolicyChange) {
	c := e.cabinet
	if p.InterestRate != nil {
		c.Monetary.InterestRate = *p.InterestRate
	}
	if p.InflationTarget != nil {
		c.Monetary.InflationTarget = *p.InflationTarget
	}
	if p.CreditAvailability != nil {
		c.Finance.CreditAvailability = *p.CreditAvailability
	}
	if p.MinimumWage != nil {
		c.Labor.MinimumWage = *p.MinimumWage
	}
	if p.CorporateTax != nil {
		c.Tax.Corporate = *p.CorporateTax
	}
	if p.SalesTax != nil {
		c.Tax.Sales = *p.SalesTax
	}
	for sector, v := range p.Subsidies {
		c.Subsidies[sector] = v
	}
}

// PolicyKind is a policy whose effect on the expenditure multipliers is
// modelled.
type PolicyKind string

const (
	PolicyTaxation PolicyKind = "taxation"
	PolicyTrade    PolicyKind = "trade"
)

// ParsePolicyKind reports whether s names a modelled policy.
func ParsePolicyKind(s string) (PolicyKind, bool) {
	switch k := PolicyKind(s); k {
	case PolicyTaxation, PolicyTrade:
		return k, true
	}
	return "", false
}

// PolicyImpact scales multipliers. Each field is a factor; zero leaves its
// multiplier unchanged.
type PolicyImpact struct {
	ConsumerImpact   float64 `json:"consumer_impact,omitempty"`
	InvestmentImpact float64 `json:"investment_impact,omitempty"`
	ExportImpact     float64 `json:"export_impact,omitempty"`
	ImportImpact     float64 `json:"import_impact,omitempty"`
}

type pendingImpact struct {
	Kind   PolicyKind   `json:"kind"`
	Impact PolicyImpact `json:"impact"`
}

// ApplyPolicyImpact queues a multiplier change for the next month. It
// reports false, and does nothing, for an unknown kind or before Initialize.
func (e *Engine) ApplyPolicyImpact(kind PolicyKind, impact PolicyImpact) bool {
	if _, ok := ParsePolicyKind(string(kind)); !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return false
	}
	e.pending = append(e.pending, pendingImpact{Kind: kind, Impact: impact})
	return true
}

// Multipliers returns the current expenditure multipliers.
func (e *Engine) Multipliers() Multipliers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mult
}

func (e *Engine) applyPending() {
	for _, p := range e.pending {
		switch p.Kind {
		case PolicyTaxation:
			e.mult.Consumption *= factor(p.Impact.ConsumerImpact)
			e.mult.Investment *= factor(p.Impact.InvestmentImpact)
		case PolicyTrade:
			e.mult.Export *= factor(p.Impact.ExportImpact)
			e.mult.Import *= factor(p.Impact.ImportImpact)
		}
	}
	e.pending = nil
}

func factor(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
