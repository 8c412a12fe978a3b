package api

import (
	"encoding/json"
	"fmt"

	"stockdash/internal/jsonutil"
	"stockdash/internal/layout"
)

// EncodeLayouts converts layout states to the free-form config map.
func EncodeLayouts(layouts map[string]layout.State) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(layouts))
	for key, s := range layouts {
		raw, err := layout.Encode(s)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = json.RawMessage(raw)
	}
	return out, nil
}

// DecodeLayouts extracts the layout states from a config map. Entries that
// are not layout-shaped (other settings stored in the same blob) are
// returned in skipped rather than failing the whole document.
func DecodeLayouts(config map[string]json.RawMessage) (layouts map[string]layout.State, skipped []string) {
	layouts = make(map[string]layout.State, len(config))
	for key, raw := range config {
		var shape struct {
			Order      *[]string        `json:"order"`
			Visibility *map[string]bool `json:"visibility"`
		}
		if err := jsonutil.UnmarshalWithContext(raw, &shape, key); err != nil || shape.Order == nil {
			skipped = append(skipped, key)
			continue
		}
		s := layout.State{Order: *shape.Order, Visibility: map[string]bool{}}
		if shape.Visibility != nil && *shape.Visibility != nil {
			s.Visibility = *shape.Visibility
		}
		layouts[key] = s
	}
	return layouts, skipped
}
