// Package screens is the fixed catalog of customizable screens: their
// storage keys, tab names and panels. The TUI builds its panel definitions
// from it and the admin tool uses it as the set of known layout keys.
package screens

import "stockdash/internal/layout"

// Storage keys of the built-in screens.
const (
	DashboardKey = "dashboard_layout_v1"
	PortfolioKey = "portfolio_layout_v1"
	BrowseKey    = "browse_layout_v1"
)

// Panel is one panel of a screen.
type Panel struct {
	ID    string
	Title string // header shown above the panel
	Label string // name in the admin component list
}

// Screen is one customizable page.
type Screen struct {
	Key    string
	Tab    string
	Panels []Panel
}

var catalog = []Screen{
	{
		Key: DashboardKey,
		Tab: "Dashboard",
		Panels: []Panel{
			{ID: "stats", Title: "Quick Stats", Label: "Quick Stats"},
			{ID: "quick-actions", Title: "Quick Actions", Label: "Quick Actions"},
			{ID: "market-leaders", Title: "Market Leaders", Label: "Market Leaders"},
			{ID: "featured-stocks", Title: "Featured Stocks", Label: "Featured Stocks"},
			{ID: "top-holdings", Title: "Top Holdings", Label: "Top Holdings"},
			{ID: "market-info", Title: "Market Info", Label: "Market Info"},
		},
	},
	{
		Key: PortfolioKey,
		Tab: "Portfolio",
		Panels: []Panel{
			{ID: "summary-cards", Title: "Summary", Label: "Summary Cards"},
			{ID: "allocation", Title: "Allocation", Label: "Portfolio Allocation"},
			{ID: "holdings", Title: "Holdings", Label: "Holdings Table"},
		},
	},
	{
		Key: BrowseKey,
		Tab: "Browse Stocks",
		Panels: []Panel{
			{ID: "market-stats", Title: "Market Statistics", Label: "Market Statistics"},
			{ID: "search-filters", Title: "Search & Filters", Label: "Search & Filters"},
			{ID: "stocks-display", Title: "Stocks", Label: "Stocks Display"},
		},
	},
}

// All returns the screens in tab order.
func All() []Screen {
	out := make([]Screen, len(catalog))
	for i, s := range catalog {
		out[i] = s
		out[i].Panels = append([]Panel(nil), s.Panels...)
	}
	return out
}

// Keys returns the storage keys in tab order.
func Keys() []string {
	keys := make([]string, len(catalog))
	for i, s := range catalog {
		keys[i] = s.Key
	}
	return keys
}

// Lookup returns the screen stored under key.
func Lookup(key string) (Screen, bool) {
	for _, s := range All() {
		if s.Key == key {
			return s, true
		}
	}
	return Screen{}, false
}

// Defaults returns the hard default layout for key: catalog order, every
// panel visible. Unknown keys yield an empty state.
func Defaults(key string) layout.State {
	s, ok := Lookup(key)
	if !ok {
		return layout.State{Order: []string{}, Visibility: map[string]bool{}}
	}
	st := layout.State{
		Order:      make([]string, 0, len(s.Panels)),
		Visibility: make(map[string]bool, len(s.Panels)),
	}
	for _, p := range s.Panels {
		st.Order = append(st.Order, p.ID)
		st.Visibility[p.ID] = true
	}
	return st
}

// Label returns the admin label for a panel id, or the id itself.
func Label(key, id string) string {
	s, ok := Lookup(key)
	if !ok {
		return id
	}
	for _, p := range s.Panels {
		if p.ID == id {
			return p.Label
		}
	}
	return id
}

// Definitions builds layout definitions for key, rendering each panel with
// render. A nil render draws nothing.
func Definitions(key string, render func(panelID string, width int) string) []layout.PanelDefinition {
	s, ok := Lookup(key)
	if !ok {
		return nil
	}
	defs := make([]layout.PanelDefinition, 0, len(s.Panels))
	for _, p := range s.Panels {
		id := p.ID
		def := layout.PanelDefinition{ID: id, Title: p.Title}
		if render != nil {
			def.Render = func(width int) string { return render(id, width) }
		}
		defs = append(defs, def)
	}
	return defs
}
