package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"stockdash/internal/flip"
	"stockdash/internal/layout"
	"stockdash/internal/ui/textutil"
)

const (
	panelHeight    = 9
	minPanelWidth  = 36
	maxColumns     = 3
	frameInterval  = time.Second / 60
	viewHeaderRows = 1
)

// DragSession is the in-progress drag: the grabbed panel and the panel
// currently under the pointer (or keyboard cursor).
type DragSession struct {
	DraggingID string
	HoverID    string
}

// Active reports whether a panel is grabbed.
func (d DragSession) Active() bool { return d.DraggingID != "" }

// animateMsg asks the view for key to play the FLIP move after the layout
// it captured has been replaced.
type animateMsg struct{ Key string }

// frameMsg advances running panel motions.
type frameMsg struct {
	Key string
	At  time.Time
}

// closeSettingsMsg closes the settings overlay of the view for Key.
type closeSettingsMsg struct{ Key string }

// DynamicLayoutView renders one storage key's panels in a grid and lets the
// user reorder them by dragging (mouse or keyboard) with a FLIP animation.
type DynamicLayoutView struct {
	store    *layout.Store
	animator *flip.Animator
	targets  map[string]*panelTarget
	duration time.Duration
	now      func() time.Time

	focus     FocusManager
	drag      DragSession
	settings  *SettingsOverlay
	animating bool

	width, height int
	originY       int // screen row of the view's first line
}

var _ View = (*DynamicLayoutView)(nil)

// LayoutViewOption configures a DynamicLayoutView.
type LayoutViewOption func(*DynamicLayoutView)

// WithAnimationDuration sets the FLIP move duration.
func WithAnimationDuration(d time.Duration) LayoutViewOption {
	return func(v *DynamicLayoutView) {
		if d > 0 {
			v.duration = d
		}
	}
}

// withClock replaces time.Now for motion start times.
func withClock(now func() time.Time) LayoutViewOption {
	return func(v *DynamicLayoutView) { v.now = now }
}

// NewDynamicLayoutView creates a view over store.
func NewDynamicLayoutView(store *layout.Store, opts ...LayoutViewOption) *DynamicLayoutView {
	v := &DynamicLayoutView{
		store:    store,
		animator: flip.New(),
		targets:  make(map[string]*panelTarget),
		duration: flip.DefaultDuration,
		now:      time.Now,
		width:    80,
		height:   24,
	}
	for _, opt := range opts {
		opt(v)
	}
	for _, d := range store.Definitions() {
		v.target(d.ID)
	}
	v.relayout()
	return v
}

// Key returns the storage key the view renders.
func (v *DynamicLayoutView) Key() string { return v.store.Key() }

// Store returns the underlying layout store.
func (v *DynamicLayoutView) Store() *layout.Store { return v.store }

// Session returns the current drag session.
func (v *DynamicLayoutView) Session() DragSession { return v.drag }

// Focused returns the id of the focused panel.
func (v *DynamicLayoutView) Focused() string { return v.focus.Current }

// Animating reports whether panel motions are running.
func (v *DynamicLayoutView) Animating() bool { return v.animating }

// SettingsOpen reports whether the settings overlay is shown.
func (v *DynamicLayoutView) SettingsOpen() bool { return v.settings != nil }

// SetSize sets the area available to the view.
func (v *DynamicLayoutView) SetSize(width, height int) {
	v.width, v.height = width, height
	v.relayout()
}

// SetOrigin tells the view which screen row it starts on, for mouse hits.
func (v *DynamicLayoutView) SetOrigin(row int) { v.originY = row }

// OpenSettings shows the panel settings overlay, cancelling any drag.
func (v *DynamicLayoutView) OpenSettings() {
	v.DragEnd()
	v.settings = NewSettingsOverlay(v)
}

// DragStart grabs id. Hidden or unknown panels cannot be grabbed.
func (v *DynamicLayoutView) DragStart(id string) bool {
	if !v.isRendered(id) {
		return false
	}
	v.drag = DragSession{DraggingID: id}
	return true
}

// DragOver records the panel under the pointer.
func (v *DynamicLayoutView) DragOver(id string) {
	if !v.drag.Active() {
		return
	}
	if id != "" && !v.isRendered(id) {
		id = ""
	}
	v.drag.HoverID = id
}

// Drop moves the grabbed panel to targetID's slot and returns the command
// that plays the animation. Dropping nothing, or onto itself, only ends the
// drag.
func (v *DynamicLayoutView) Drop(targetID string) tea.Cmd {
	source := v.drag.DraggingID
	if source == "" || source == targetID || !v.isRendered(targetID) {
		v.DragEnd()
		return nil
	}
	cmd := v.mutate(func() bool {
		changed := v.store.Reorder(source, targetID)
		v.drag = DragSession{}
		return changed
	})
	v.focus.SetFocus(source)
	return cmd
}

// DragEnd cancels the drag without changes.
func (v *DynamicLayoutView) DragEnd() {
	v.drag = DragSession{}
}

// ToggleVisibility shows or hides id, animating the panels that shift.
func (v *DynamicLayoutView) ToggleVisibility(id string) tea.Cmd {
	return v.mutate(func() bool {
		v.store.ToggleVisibility(id)
		return true
	})
}

// Reset restores the default layout.
func (v *DynamicLayoutView) Reset() tea.Cmd {
	return v.mutate(func() bool {
		v.store.Reset()
		return true
	})
}

// mutate runs fn between Capture and a scheduled Animate.
func (v *DynamicLayoutView) mutate(fn func() bool) tea.Cmd {
	v.animator.Capture()
	if !fn() {
		return nil
	}
	v.relayout()
	key := v.Key()
	return func() tea.Msg { return animateMsg{Key: key} }
}

// Init implements View.
func (v *DynamicLayoutView) Init() tea.Cmd { return nil }

// Update implements View.
func (v *DynamicLayoutView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetSize(msg.Width, msg.Height)
		return v, nil
	case animateMsg:
		return v, v.animate()
	case frameMsg:
		return v, v.advance(msg.At)
	case closeSettingsMsg:
		v.settings = nil
		return v, nil
	case tea.MouseMsg:
		if v.settings != nil {
			return v, nil
		}
		return v, v.handleMouse(msg)
	case tea.KeyMsg:
		if v.settings != nil {
			_, cmd := v.settings.Update(msg)
			return v, cmd
		}
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *DynamicLayoutView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "j", "down", "l", "right":
		v.focus.Next()
		v.DragOver(v.focus.Current)
	case "k", "up", "h", "left":
		v.focus.Prev()
		v.DragOver(v.focus.Current)
	case "enter":
		if v.drag.Active() {
			return v.Drop(v.focus.Current)
		}
		v.DragStart(v.focus.Current)
	case "esc":
		v.DragEnd()
	case "s":
		v.OpenSettings()
	}
	return nil
}

func (v *DynamicLayoutView) handleMouse(msg tea.MouseMsg) tea.Cmd {
	id := v.panelAt(msg.X, msg.Y-v.originY-viewHeaderRows)
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if id != "" {
			v.focus.SetFocus(id)
			v.DragStart(id)
		}
	case msg.Action == tea.MouseActionMotion:
		v.DragOver(id)
	case msg.Action == tea.MouseActionRelease:
		if !v.drag.Active() {
			return nil
		}
		if id == "" {
			v.DragEnd()
			return nil
		}
		return v.Drop(id)
	}
	return nil
}

func (v *DynamicLayoutView) animate() tea.Cmd {
	v.relayout()
	moved := v.animator.Animate(v.duration)
	if len(moved) == 0 || v.animating {
		return nil
	}
	v.animating = true
	return v.frame()
}

func (v *DynamicLayoutView) advance(at time.Time) tea.Cmd {
	running := false
	for _, t := range v.targets {
		if t.advance(at) {
			running = true
		}
	}
	if !running {
		v.animating = false
		return nil
	}
	return v.frame()
}

func (v *DynamicLayoutView) frame() tea.Cmd {
	key := v.Key()
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg{Key: key, At: t}
	})
}

// target returns the animation target for id, registering it on first use.
func (v *DynamicLayoutView) target(id string) *panelTarget {
	t, ok := v.targets[id]
	if !ok {
		t = newPanelTarget(v.now)
		v.targets[id] = t
		v.animator.Register(id, t)
	}
	return t
}

func columnsFor(width int) int {
	cols := width / minPanelWidth
	if cols < 1 {
		return 1
	}
	if cols > maxColumns {
		return maxColumns
	}
	return cols
}

// relayout places every visible panel on the grid and unplaces the rest.
func (v *DynamicLayoutView) relayout() {
	visible := v.store.Visible()
	cols := columnsFor(v.width)
	cellW := v.width / cols

	placed := make(map[string]bool, len(visible))
	for i, id := range visible {
		v.target(id).place(flip.Rect{
			Left:   float64((i % cols) * cellW),
			Top:    float64((i / cols) * panelHeight),
			Width:  float64(cellW),
			Height: panelHeight,
		})
		placed[id] = true
	}
	for id, t := range v.targets {
		if !placed[id] {
			t.unplace()
		}
	}
	v.focus.SetOrder(visible)
	if v.drag.Active() && !placed[v.drag.DraggingID] {
		v.DragEnd()
	}
}

func (v *DynamicLayoutView) isRendered(id string) bool {
	t, ok := v.targets[id]
	return ok && t.placed
}

// panelAt returns the panel drawn at cell (x, y) of the grid, topmost first.
func (v *DynamicLayoutView) panelAt(x, y int) string {
	ids := v.drawOrder()
	for i := len(ids) - 1; i >= 0; i-- {
		t := v.targets[ids[i]]
		px, py := t.position()
		if x >= px && x < px+int(t.rect.Width) && y >= py && y < py+int(t.rect.Height) {
			return ids[i]
		}
	}
	return ""
}

// drawOrder lists visible panels bottom to top: resting panels, then
// moving ones, then the grabbed one.
func (v *DynamicLayoutView) drawOrder() []string {
	visible := v.store.Visible()
	out := make([]string, 0, len(visible))
	var moving []string
	for _, id := range visible {
		switch {
		case id == v.drag.DraggingID:
		case v.targets[id] != nil && v.targets[id].moving():
			moving = append(moving, id)
		default:
			out = append(out, id)
		}
	}
	out = append(out, moving...)
	if v.drag.Active() {
		out = append(out, v.drag.DraggingID)
	}
	return out
}

// View implements View.
func (v *DynamicLayoutView) View() string {
	v.relayout()
	visible := v.store.Visible()

	rows := (len(visible) + columnsFor(v.width) - 1) / columnsFor(v.width)
	height := rows * panelHeight
	if h := v.height - viewHeaderRows; h > height {
		height = h
	}
	canvas := textutil.NewCanvas(v.width, height)

	if len(visible) == 0 {
		canvas.Center(Styles.Muted.Italic(true).Render("All panels are hidden. Press s to choose panels."))
	}
	for _, id := range v.drawOrder() {
		t := v.targets[id]
		x, y := t.position()
		canvas.Draw(v.renderPanel(id, int(t.rect.Width)), x, y)
	}
	if v.settings != nil {
		canvas.Center(v.settings.View())
	}
	return v.header() + "\n" + canvas.String()
}

func (v *DynamicLayoutView) header() string {
	if v.drag.Active() {
		title := v.title(v.drag.DraggingID)
		line := "Moving " + title
		if v.drag.HoverID != "" && v.drag.HoverID != v.drag.DraggingID {
			line += " → " + v.title(v.drag.HoverID)
		}
		return Styles.Selected.Render(line) + Styles.Hint.Render("  enter: drop  esc: cancel")
	}
	return Styles.Hint.Render("enter: grab panel  j/k: focus  s: panels  mouse: drag to reorder")
}

func (v *DynamicLayoutView) title(id string) string {
	if d, ok := v.store.Definition(id); ok && d.Title != "" {
		return d.Title
	}
	return id
}

func (v *DynamicLayoutView) panelStyle(id string) lipgloss.Style {
	switch {
	case id == v.drag.DraggingID:
		return Styles.PanelDragged
	case v.drag.Active() && id == v.drag.HoverID:
		return Styles.PanelHover
	case id == v.focus.Current:
		return Styles.PanelFocused
	default:
		return Styles.Panel
	}
}

// renderPanel draws one panel box exactly width cells wide and panelHeight
// lines tall.
func (v *DynamicLayoutView) renderPanel(id string, width int) string {
	inner := width - 4
	if inner < 1 {
		inner = 1
	}
	def, _ := v.store.Definition(id)

	lines := []string{Styles.PanelTitle.Render(textutil.Truncate(v.title(id), inner))}
	if def.Render != nil {
		for _, l := range strings.Split(def.Render(inner), "\n") {
			if len(lines) >= panelHeight-2 {
				break
			}
			lines = append(lines, ansi.Truncate(l, inner, textutil.TruncateEllipsis))
		}
	}
	return v.panelStyle(id).
		Width(width - 2).
		Height(panelHeight - 2).
		Render(strings.Join(lines, "\n"))
}
