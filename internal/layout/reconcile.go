package layout

// Defaults builds the arrangement implied by the definitions alone: caller
// order, everything visible except panels marked DefaultHidden.
func Defaults(defs []PanelDefinition) State {
	s := State{
		Order:      make([]string, 0, len(defs)),
		Visibility: make(map[string]bool, len(defs)),
	}
	for _, d := range defs {
		s.Order = append(s.Order, d.ID)
		s.Visibility[d.ID] = !d.DefaultHidden
	}
	return s
}

// Reconcile merges a persisted state with the current definitions.
//
// Persisted ids that no longer have a definition are dropped from the order
// (as are repeats), ids without a persisted position are appended in default
// order, and persisted visibility entries win over defaults. A nil persisted
// state yields Defaults. The result always contains every current id exactly
// once, and Reconcile(defs, Reconcile(defs, p)) == Reconcile(defs, p).
func Reconcile(defs []PanelDefinition, persisted *State) State {
	defaults := Defaults(defs)
	if persisted == nil {
		return defaults
	}

	known := make(map[string]bool, len(defs))
	for _, d := range defs {
		known[d.ID] = true
	}

	order := make([]string, 0, len(defs))
	placed := make(map[string]bool, len(defs))
	for _, id := range persisted.Order {
		if !known[id] || placed[id] {
			continue
		}
		placed[id] = true
		order = append(order, id)
	}
	for _, id := range defaults.Order {
		if !placed[id] {
			placed[id] = true
			order = append(order, id)
		}
	}

	visibility := make(map[string]bool, len(defaults.Visibility)+len(persisted.Visibility))
	for k, v := range defaults.Visibility {
		visibility[k] = v
	}
	for k, v := range persisted.Visibility {
		visibility[k] = v
	}

	return State{Order: order, Visibility: visibility}
}

// Complete returns s with repeated ids removed and every defined id that s
// does not mention appended in default order. Unlike Reconcile it keeps
// unknown ids and takes visibility verbatim.
func Complete(defs []PanelDefinition, s State) State {
	out := State{
		Order:      make([]string, 0, len(s.Order)+len(defs)),
		Visibility: make(map[string]bool, len(s.Visibility)),
	}
	seen := make(map[string]bool, len(s.Order))
	for _, id := range s.Order {
		if !seen[id] {
			seen[id] = true
			out.Order = append(out.Order, id)
		}
	}
	for _, d := range defs {
		if !seen[d.ID] {
			seen[d.ID] = true
			out.Order = append(out.Order, d.ID)
		}
	}
	for k, v := range s.Visibility {
		out.Visibility[k] = v
	}
	return out
}

// Reorder moves source to target's index: source is spliced out, then
// spliced back in at the index target held before removal. It reports false
// (and returns s unchanged) when source == target or either id is absent.
//
//	Reorder([a b c d], a, c) == [b c a d]
func Reorder(s State, source, target string) (State, bool) {
	if source == target {
		return s, false
	}
	from, to := indexOf(s.Order, source), indexOf(s.Order, target)
	if from < 0 || to < 0 {
		return s, false
	}
	next := s.Clone()
	order := append(next.Order[:from:from], next.Order[from+1:]...)
	order = append(order[:to], append([]string{source}, order[to:]...)...)
	next.Order = order
	return next, true
}

// ToggleVisibility flips id's visibility. Missing entries count as visible,
// so the first toggle of an unknown id hides it.
func ToggleVisibility(s State, id string) State {
	next := s.Clone()
	next.Visibility[id] = !s.IsVisible(id)
	return next
}

// Visible returns, in order, the ids that have a definition and resolve to
// visible. This is the render list of a layout.
func Visible(s State, defs []PanelDefinition) []string {
	known := make(map[string]bool, len(defs))
	for _, d := range defs {
		known[d.ID] = true
	}
	out := make([]string, 0, len(s.Order))
	for _, id := range s.Order {
		if known[id] && s.IsVisible(id) {
			out = append(out, id)
		}
	}
	return out
}

// Move swaps the entry at index with its neighbour delta positions away.
// Out-of-range moves are ignored.
func Move(s State, index, delta int) (State, bool) {
	to := index + delta
	if index < 0 || index >= len(s.Order) || to < 0 || to >= len(s.Order) {
		return s, false
	}
	next := s.Clone()
	item := next.Order[index]
	order := append(next.Order[:index:index], next.Order[index+1:]...)
	order = append(order[:to], append([]string{item}, order[to:]...)...)
	next.Order = order
	return next, true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
