package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/admin"
	"stockdash/internal/screens"
)

// AdminView edits the layouts of every screen and pushes them to all users.
type AdminView struct {
	tool    *admin.Tool
	keyIdx  int
	cursor  int
	grabbed string // panel picked up for a reorder
	pushing bool
}

var _ View = (*AdminView)(nil)

// NewAdminView creates the admin screen over tool.
func NewAdminView(tool *admin.Tool) *AdminView {
	return &AdminView{tool: tool}
}

// Key returns the layout key being edited.
func (a *AdminView) Key() string {
	return a.tool.Keys()[a.keyIdx]
}

// Cursor returns the highlighted row.
func (a *AdminView) Cursor() int { return a.cursor }

// Grabbed returns the panel picked up for a reorder, if any.
func (a *AdminView) Grabbed() string { return a.grabbed }

// Pushing reports whether a push is in flight.
func (a *AdminView) Pushing() bool { return a.pushing }

// SetPushing marks a push as started or finished.
func (a *AdminView) SetPushing(p bool) { a.pushing = p }

// Init implements View.
func (a *AdminView) Init() tea.Cmd { return nil }

// Update implements View.
func (a *AdminView) Update(msg tea.Msg) (View, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	key := a.Key()
	order := a.tool.Layout(key).Order

	switch km.String() {
	case "]", "tab":
		a.switchKey(1)
	case "[", "shift+tab":
		a.switchKey(-1)
	case "j", "down":
		if a.cursor < len(order)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "K", "shift+up":
		if a.tool.MoveUp(key, a.cursor) {
			a.cursor--
		}
	case "J", "shift+down":
		if a.tool.MoveDown(key, a.cursor) {
			a.cursor++
		}
	case "x":
		if a.cursor < len(order) {
			a.tool.Toggle(key, order[a.cursor])
		}
	case "enter":
		if a.cursor >= len(order) {
			return a, nil
		}
		if a.grabbed == "" {
			a.grabbed = order[a.cursor]
			return a, nil
		}
		source := a.grabbed
		a.grabbed = ""
		if a.tool.Reorder(key, source, order[a.cursor]) {
			a.cursor = indexOf(a.tool.Layout(key).Order, source)
		}
	case "esc":
		if a.grabbed != "" {
			a.grabbed = ""
			return a, nil
		}
		return a, func() tea.Msg { return CloseAdminMsg{} }
	case "L":
		a.tool.Load()
		a.clampCursor()
	case "P":
		if !a.pushing {
			return a, func() tea.Msg { return ShowPushConfirmMsg{} }
		}
	}
	return a, nil
}

func (a *AdminView) switchKey(delta int) {
	n := len(a.tool.Keys())
	a.keyIdx = (a.keyIdx + delta + n) % n
	a.grabbed = ""
	a.clampCursor()
}

func (a *AdminView) clampCursor() {
	n := len(a.tool.Layout(a.Key()).Order)
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// View implements View.
func (a *AdminView) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Layout Admin") + "  " + Styles.Hint.Render("edits apply to your screens now and to everyone on push") + "\n\n")

	tabs := make([]string, 0, len(a.tool.Keys()))
	for i, k := range a.tool.Keys() {
		name := k
		if s, ok := screens.Lookup(k); ok {
			name = s.Tab
		}
		if i == a.keyIdx {
			tabs = append(tabs, Styles.TabActive.Render(name))
		} else {
			tabs = append(tabs, Styles.Tab.Render(name))
		}
	}
	b.WriteString(strings.Join(tabs, " ") + "\n")
	b.WriteString(Styles.Muted.Render(a.Key()) + "\n\n")

	st := a.tool.Layout(a.Key())
	for i, id := range st.Order {
		box := "[ ]"
		if st.IsVisible(id) {
			box = "[x]"
		}
		line := fmt.Sprintf("%d. %s %s %s", i+1, box, a.tool.Label(a.Key(), id), Styles.Muted.Render("("+id+")"))
		switch {
		case id == a.grabbed:
			line = Styles.Selected.Render("✥ " + line)
		case i == a.cursor:
			line = Styles.Selected.Render("> ") + line
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	status, errMsg := a.tool.Status()
	switch {
	case a.pushing:
		b.WriteString(Styles.Status.Render("Pushing…") + "\n")
	case errMsg != "":
		b.WriteString(Styles.Error.Render(errMsg) + "\n")
	case status != "":
		b.WriteString(Styles.Status.Render(status) + "\n")
	}
	b.WriteString(Styles.Hint.Render("[/]: screen  j/k: select  J/K: move  enter: grab/drop  x: show/hide  L: reload  P: push  esc: back"))
	return b.String()
}

func indexOf(order []string, id string) int {
	for i, o := range order {
		if o == id {
			return i
		}
	}
	return 0
}
