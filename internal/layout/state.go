// Package layout holds the ordering/visibility model for customizable panel
// layouts and the per-key Store that reconciles it against the panels a
// screen currently defines.
package layout

import (
	"encoding/json"
	"fmt"
)

// PanelDefinition describes one panel a screen can show. Definitions are
// supplied by the caller on every render pass and are never persisted.
type PanelDefinition struct {
	ID            string
	Title         string
	Render        func(width int) string
	DefaultHidden bool // panels are visible unless marked hidden
}

// State is the persisted arrangement of a layout: panel order plus a
// visibility map. A panel absent from Visibility is visible.
type State struct {
	Order      []string        `json:"order"`
	Visibility map[string]bool `json:"visibility"`
}

// IsVisible resolves visibility for id; missing entries are visible.
func (s State) IsVisible(id string) bool {
	v, ok := s.Visibility[id]
	return !ok || v
}

// Clone returns a deep copy so callers can mutate freely.
func (s State) Clone() State {
	out := State{
		Order:      append([]string(nil), s.Order...),
		Visibility: make(map[string]bool, len(s.Visibility)),
	}
	for k, v := range s.Visibility {
		out.Visibility[k] = v
	}
	return out
}

// Equal reports whether two states have the same order and visibility.
func (s State) Equal(o State) bool {
	if len(s.Order) != len(o.Order) || len(s.Visibility) != len(o.Visibility) {
		return false
	}
	for i := range s.Order {
		if s.Order[i] != o.Order[i] {
			return false
		}
	}
	for k, v := range s.Visibility {
		ov, ok := o.Visibility[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Encode serializes a state in its stored JSON form.
func Encode(s State) (string, error) {
	if s.Visibility == nil {
		s.Visibility = map[string]bool{}
	}
	if s.Order == nil {
		s.Order = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored state. A JSON null or non-object is an error.
func Decode(raw string) (State, error) {
	var s *State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{}, fmt.Errorf("decode layout: %w", err)
	}
	if s == nil {
		return State{}, fmt.Errorf("decode layout: empty value")
	}
	if s.Visibility == nil {
		s.Visibility = map[string]bool{}
	}
	return *s, nil
}
