package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SettingsOverlay lists every known panel of a layout with a visibility
// checkbox. space/x toggles the panel under the cursor, r resets the layout,
// s or esc closes.
type SettingsOverlay struct {
	view   *DynamicLayoutView
	cursor int
}

var _ View = (*SettingsOverlay)(nil)

// NewSettingsOverlay opens settings for view's layout.
func NewSettingsOverlay(view *DynamicLayoutView) *SettingsOverlay {
	return &SettingsOverlay{view: view}
}

// Cursor returns the highlighted row.
func (s *SettingsOverlay) Cursor() int { return s.cursor }

// Init implements View.
func (s *SettingsOverlay) Init() tea.Cmd { return nil }

// Update implements View.
func (s *SettingsOverlay) Update(msg tea.Msg) (View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	defs := s.view.store.Definitions()
	switch km.String() {
	case "j", "down":
		if s.cursor < len(defs)-1 {
			s.cursor++
		}
	case "k", "up":
		if s.cursor > 0 {
			s.cursor--
		}
	case " ", "x", "enter":
		if s.cursor < len(defs) {
			return s, s.view.ToggleVisibility(defs[s.cursor].ID)
		}
	case "r":
		return s, s.view.Reset()
	case "s", "esc":
		key := s.view.Key()
		return s, func() tea.Msg { return closeSettingsMsg{Key: key} }
	}
	return s, nil
}

// View implements View.
func (s *SettingsOverlay) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Panels") + "\n\n")
	for i, d := range s.view.store.Definitions() {
		box, eye := "[ ]", "◌"
		if s.view.store.IsVisible(d.ID) {
			box, eye = "[x]", "👁"
		}
		title := d.Title
		if title == "" {
			title = d.ID
		}
		line := box + " " + eye + " " + title
		if i == s.cursor {
			line = Styles.Selected.Render("> " + line)
		} else {
			line = "  " + Styles.Normal.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + Styles.Hint.Render("space: show/hide  r: reset layout  s/esc: close"))
	return Styles.Box.Render(b.String())
}
