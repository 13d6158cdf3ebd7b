package diplomacy

// State is the serializable diplomatic state.
type State struct {
	Relations  map[string]map[string]Relation `json:"relations"`
	Alliances  []Alliance                     `json:"alliances"`
	Agreements []TradeAgreement               `json:"agreements"`
	History    map[string][]HistoryEntry      `json:"history"`
}

// Snapshot copies the diplomatic state.
func (d *AI) Snapshot() State {
	s := State{
		Relations: make(map[string]map[string]Relation, len(d.relations)),
		Alliances: d.AllAlliances(),
		History:   make(map[string][]HistoryEntry, len(d.history)),
	}
	for a, row := range d.relations {
		out := make(map[string]Relation, len(row))
		for b, r := range row {
			cp := *r
			if r.LastInteraction != nil {
				li := *r.LastInteraction
				cp.LastInteraction = &li
			}
			out[b] = cp
		}
		s.Relations[a] = out
	}
	for _, id := range sortedAgreementIDs(d.negotiations) {
		ag := *d.negotiations[id]
		ag.History = append([]Terms(nil), ag.History...)
		s.Agreements = append(s.Agreements, ag)
	}
	for k, v := range d.history {
		s.History[k] = append([]HistoryEntry(nil), v...)
	}
	return s
}

// Restore replaces the diplomatic state. Countries are kept.
func (d *AI) Restore(s State) {
	d.relations = make(map[string]map[string]*Relation, len(s.Relations))
	for a, row := range s.Relations {
		out := make(map[string]*Relation, len(row))
		for b, r := range row {
			cp := r
			if r.LastInteraction != nil {
				li := *r.LastInteraction
				cp.LastInteraction = &li
			}
			out[b] = &cp
		}
		d.relations[a] = out
	}
	d.alliances = make(map[string]*Alliance, len(s.Alliances))
	for _, al := range s.Alliances {
		cp := al
		cp.Members = append([]string(nil), al.Members...)
		d.alliances[cp.ID] = &cp
	}
	d.negotiations = make(map[string]*TradeAgreement, len(s.Agreements))
	for _, ag := range s.Agreements {
		cp := ag
		cp.History = append([]Terms(nil), ag.History...)
		d.negotiations[cp.ID] = &cp
	}
	d.history = make(map[string][]HistoryEntry, len(s.History))
	for k, v := range s.History {
		d.history[k] = append([]HistoryEntry(nil), v...)
	}
}
