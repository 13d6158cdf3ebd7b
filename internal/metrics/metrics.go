// Package metrics exposes Prometheus collectors for a running session.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/events"
)

const namespace = "statecraft"

// Metrics holds the session collectors.
type Metrics struct {
	reg *prometheus.Registry

	indicators   *prometheus.GaugeVec
	powerShare   *prometheus.GaugeVec
	month        prometheus.Gauge
	months       *prometheus.CounterVec
	aiFailures   *prometheus.CounterVec
	events       *prometheus.CounterVec
	stepDuration prometheus.Histogram
}

// New creates collectors registered on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		indicators: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indicator",
			Help:      "Player economic indicators after the last month.",
		}, []string{"name"}),
		powerShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_share",
			Help:      "Share of world combat power by country.",
		}, []string{"country"}),
		month: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "month",
			Help:      "Completed simulation months.",
		}),
		months: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "months_total",
			Help:      "Monthly steps attempted, by outcome.",
		}, []string{"status"}),
		aiFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "failures_total",
			Help:      "Isolated AI subsystem failures.",
		}, []string{"country", "subsystem"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Published events by type.",
		}, []string{"type"}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time spent simulating one month.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}

	collectors := []prometheus.Collector{
		m.indicators, m.powerShare, m.month, m.months, m.aiFailures, m.events, m.stepDuration,
	}
	for _, c := range collectors {
		if err := m.reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Attach counts every event published on bus. It returns the subscription
// so callers can detach.
func (m *Metrics) Attach(bus *events.Dispatcher) events.SubscriptionID {
	return bus.Subscribe(events.Wildcard, func(e events.Event) {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}, -100)
}

// AIFailure records one isolated subsystem failure. It matches the engine's
// failure hook signature.
func (m *Metrics) AIFailure(country, subsystem string) {
	m.aiFailures.WithLabelValues(country, subsystem).Inc()
}

// Source is the part of the engine the gauges read.
type Source interface {
	Month() int
	Indicators() engine.Indicators
	PowerShares() map[string]float64
}

// Observe refreshes the gauges from src.
func (m *Metrics) Observe(src Source) {
	ind := src.Indicators()
	for name, v := range map[string]float64{
		"gdp":                 ind.GDP,
		"gdp_growth":          ind.GDPGrowth,
		"inflation":           ind.Inflation,
		"unemployment":        ind.Unemployment,
		"debt_to_gdp":         ind.DebtToGDP,
		"budget_deficit":      ind.BudgetDeficit,
		"trade_balance":       ind.TradeBalance,
		"currency_value":      ind.CurrencyValue,
		"productivity":        ind.Productivity,
		"consumer_confidence": ind.ConsumerConfidence,
		"business_confidence": ind.BusinessConfidence,
	} {
		m.indicators.WithLabelValues(name).Set(v)
	}
	for country, share := range src.PowerShares() {
		m.powerShare.WithLabelValues(country).Set(share)
	}
	m.month.Set(float64(src.Month()))
}

// Timed is the stepping surface Instrument wraps.
type Timed interface {
	engine.Stepper
	Source
}

// Instrument wraps sim so every month is timed and counted, and the gauges
// refresh after each successful month.
func (m *Metrics) Instrument(sim Timed) engine.Stepper {
	return &instrumented{sim: sim, m: m}
}

type instrumented struct {
	sim Timed
	m   *Metrics
}

func (s *instrumented) SimulateMonth() error {
	start := time.Now()
	err := s.sim.SimulateMonth()
	s.m.stepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.m.months.WithLabelValues("failed").Inc()
		return err
	}
	s.m.months.WithLabelValues("ok").Inc()
	s.m.Observe(s.sim)
	return nil
}

func (s *instrumented) Month() int { return s.sim.Month() }
