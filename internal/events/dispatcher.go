// Package events provides the session-scoped event dispatcher that simulation
// components publish to and observers (API, logging, metrics) subscribe to.
package events

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/talgya/statecraft/internal/gamemath"
)

// Type is a dotted event name, e.g. "healthcare.staffing_change".
type Type string

// Core event types emitted by the simulation.
const (
	DebtCrisisWarning  Type = "economy.debt_crisis_warning"
	RecessionStart     Type = "economy.recession_start"
	HighInflation      Type = "economy.high_inflation"
	SimulationComplete Type = "economy.simulation_complete"
	StepRolledBack     Type = "economy.step_rolled_back"

	HealthcareStaffing Type = "healthcare.staffing_change"
	HealthcareFunding  Type = "healthcare.funding_change"
	DefenseStaffing    Type = "defense.staffing_change"
	EducationStaffing  Type = "education.staffing_change"
	WelfareStaffing    Type = "welfare.staffing_change"
	DiplomatStaffing   Type = "foreign_affairs.staffing_change"
	DepartmentReform   Type = "government.reform"

	AllianceFormed  Type = "diplomacy.alliance_formed"
	AllianceBroken  Type = "diplomacy.alliance_broken"
	AgreementSigned Type = "diplomacy.agreement_signed"
	AgreementFailed Type = "diplomacy.agreement_failed"

	Battle        Type = "military.battle"
	CrisisFound   Type = "crisis.detected"
	CrisisHandled Type = "crisis.handled"

	SubsystemFailure Type = "ai.subsystem_failure"
	PlayerAction     Type = "player.action"
)

// Wildcard subscribers receive every event.
const Wildcard = "*"

// Phase orders queued events relative to the monthly step.
type Phase uint8

const (
	PhasePreSimulation Phase = iota
	PhaseMain
	PhasePostSimulation
)

const maxHistory = 1000

// Event is a notable occurrence published by a simulation component.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Month     int            `json:"month"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Handler reacts to an event. Its outcome never feeds back into the publisher.
type Handler func(Event)

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id       SubscriptionID
	handler  Handler
	priority int
}

// Dispatcher routes events to subscribers. One Dispatcher lives for one
// simulation session and is handed to every component that publishes.
type Dispatcher struct {
	mu      sync.RWMutex
	subs    map[string][]subscription
	nextID  SubscriptionID
	queued  map[Phase][]Event
	history []Event
	holding bool
	holdTo  Phase
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subs:   make(map[string][]subscription),
		queued: make(map[Phase][]Event),
	}
}

// Subscribe registers handler for pattern. Patterns match hierarchically: a
// subscriber to "healthcare" receives "healthcare.staffing_change". Higher
// priority handlers run first.
func (d *Dispatcher) Subscribe(pattern string, handler Handler, priority int) SubscriptionID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	list := append(d.subs[pattern], subscription{id: id, handler: handler, priority: priority})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
	d.subs[pattern] = list
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (d *Dispatcher) Unsubscribe(id SubscriptionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for pattern, list := range d.subs {
		for i, s := range list {
			if s.id == id {
				d.subs[pattern] = append(list[:i:i], list[i+1:]...)
				if len(d.subs[pattern]) == 0 {
					delete(d.subs, pattern)
				}
				return
			}
		}
	}
}

// Publish delivers an event synchronously to every matching subscriber.
// While a hold is active the event is queued for the held phase instead.
func (d *Dispatcher) Publish(typ Type, month int, data map[string]any) Event {
	e := newEvent(typ, month, data)
	d.mu.Lock()
	if d.holding {
		d.queued[d.holdTo] = append(d.queued[d.holdTo], e)
		d.mu.Unlock()
		return e
	}
	d.mu.Unlock()
	d.dispatch(e)
	return e
}

// Hold diverts every Publish into phase's queue until Release. The engine
// holds for the length of a step so a failed step can drop what it said.
func (d *Dispatcher) Hold(phase Phase) {
	d.mu.Lock()
	d.holding, d.holdTo = true, phase
	d.mu.Unlock()
}

// Release ends a hold. Events already diverted stay queued.
func (d *Dispatcher) Release() {
	d.mu.Lock()
	d.holding = false
	d.mu.Unlock()
}

// Queue defers an event until Flush is called for its phase.
func (d *Dispatcher) Queue(typ Type, month int, data map[string]any, phase Phase) Event {
	e := newEvent(typ, month, data)
	d.mu.Lock()
	d.queued[phase] = append(d.queued[phase], e)
	d.mu.Unlock()
	return e
}

// Flush dispatches all events queued for phase, in queue order.
func (d *Dispatcher) Flush(phase Phase) int {
	d.mu.Lock()
	pending := d.queued[phase]
	delete(d.queued, phase)
	d.mu.Unlock()

	for _, e := range pending {
		d.dispatch(e)
	}
	return len(pending)
}

// Drop discards the events queued for phase without dispatching them.
func (d *Dispatcher) Drop(phase Phase) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.queued[phase])
	delete(d.queued, phase)
	return n
}

// History returns recorded events, oldest first. A non-empty prefix filters by
// type hierarchy the same way subscriptions match.
func (d *Dispatcher) History(prefix string) []Event {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Event
	for _, e := range d.history {
		if prefix == "" || matches(prefix, e.Type) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to n most recent events.
func (d *Dispatcher) Recent(n int) []Event {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := len(d.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(d.history)-start)
	copy(out, d.history[start:])
	return out
}

func newEvent(typ Type, month int, data map[string]any) Event {
	return Event{
		ID:        gamemath.NewUUID(),
		Type:      typ,
		Month:     month,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func (d *Dispatcher) dispatch(e Event) {
	d.mu.Lock()
	d.history = append(d.history, e)
	if len(d.history) > maxHistory {
		d.history = d.history[len(d.history)-maxHistory:]
	}
	handlers := d.handlersFor(e.Type)
	d.mu.Unlock()

	for _, h := range handlers {
		safeCall(h, e)
	}
}

// handlersFor collects handlers from the most specific pattern up to the
// wildcard. Caller holds the lock.
func (d *Dispatcher) handlersFor(typ Type) []Handler {
	var out []Handler
	parts := strings.Split(string(typ), ".")
	for len(parts) > 0 {
		for _, s := range d.subs[strings.Join(parts, ".")] {
			out = append(out, s.handler)
		}
		parts = parts[:len(parts)-1]
	}
	for _, s := range d.subs[Wildcard] {
		out = append(out, s.handler)
	}
	return out
}

func matches(prefix string, typ Type) bool {
	t := string(typ)
	return t == prefix || strings.HasPrefix(t, prefix+".")
}

func safeCall(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("event handler panicked", "type", e.Type, "panic", fmt.Sprint(r))
		}
	}()
	h(e)
}
