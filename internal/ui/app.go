package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"stockdash/internal/admin"
	"stockdash/internal/api"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
	"stockdash/internal/ui/textutil"
	"stockdash/internal/uisync"
)

const (
	tabBarRows = 1
	footerRows = 1
)

// Deps wires the application to its collaborators. Client and Sync are nil
// when running offline; layouts then live only in the local cache.
type Deps struct {
	Registry  *registry.Registry
	Cache     layout.Cache
	Client    *api.Client
	Sync      *uisync.Coordinator
	Logger    zerolog.Logger
	Animation time.Duration
	Login     string
	Password  string
}

// AppModel is the root model: one layout tab per screen plus the admin
// tool, a leader-key command system and the background sync loop.
type AppModel struct {
	Mode       AppMode
	Tabs       []*DynamicLayoutView
	Active     int
	Admin      *AdminView
	KeyHandler *KeyHandler
	Overlays   OverlayStack

	deps      Deps
	log       zerolog.Logger
	adminTool *admin.Tool
	user      api.User
	lms       *api.LMSConfig
	status    string
	statusErr bool

	changes chan string
	unsub   func()
	width   int
	height  int
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root application model with one tab per screen.
func NewAppModel(deps Deps) *AppModel {
	if deps.Registry == nil {
		deps.Registry = registry.New()
	}
	a := &AppModel{
		Mode:    ModeLayouts,
		deps:    deps,
		log:     deps.Logger.With().Str("component", "ui").Logger(),
		changes: make(chan string, 64),
	}
	for _, s := range screens.All() {
		store := layout.Open(s.Key, screens.Definitions(s.Key, RenderDemoPanel), deps.Registry, deps.Cache,
			layout.WithLogger(deps.Logger))
		v := NewDynamicLayoutView(store, WithAnimationDuration(deps.Animation))
		v.SetOrigin(tabBarRows)
		a.Tabs = append(a.Tabs, v)
	}
	a.unsub = deps.Registry.Subscribe(func(key string, _ layout.State) {
		select {
		case a.changes <- key:
		default:
		}
	})
	a.KeyHandler = NewKeyHandler(a.keymap())
	return a
}

func (a *AppModel) keymap() *KeybindRegistry {
	send := func(msg tea.Msg) tea.Cmd { return func() tea.Msg { return msg } }
	layouts := []AppMode{ModeLayouts}

	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit, "Quit")
	reg.Bind("ctrl+c", tea.Quit, "Quit")
	reg.Bind("SPC q", tea.Quit, "Quit")
	reg.BindForMode("tab", send(NextTabMsg{}), "Next screen", layouts)
	reg.BindForMode("shift+tab", send(PrevTabMsg{}), "Previous screen", layouts)
	for i, s := range screens.All() {
		reg.Bind(fmt.Sprintf("SPC %d", i+1), send(SwitchTabMsg{Index: i}), s.Tab)
	}
	reg.Bind("SPC a", send(ShowAdminMsg{}), "Layout admin")
	reg.BindForMode("SPC l s", send(OpenSettingsMsg{}), "Panel settings", layouts)
	reg.BindForMode("SPC l r", send(ResetLayoutMsg{}), "Reset layout", layouts)
	reg.Bind("SPC y f", send(FlushNowMsg{}), "Save now")
	reg.Bind("SPC y h", send(HydrateMsg{}), "Reload from server")
	return reg
}

// Close stops listening to the registry.
func (a *AppModel) Close() {
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	for _, t := range a.Tabs {
		t.Store().Close()
	}
}

// User returns the signed-in user; zero when offline or signed out.
func (a *AppModel) User() api.User { return a.user }

// Status returns the last status line message.
func (a *AppModel) Status() string { return a.status }

// EnableAdmin attaches the admin tool. Only admin sessions get one.
func (a *AppModel) EnableAdmin(tool *admin.Tool) {
	a.adminTool = tool
	a.Admin = NewAdminView(tool)
}

// ActiveTab returns the layout view currently shown.
func (a *AppModel) ActiveTab() *DynamicLayoutView { return a.Tabs[a.Active] }

func (a *AppModel) tabFor(key string) *DynamicLayoutView {
	for _, t := range a.Tabs {
		if t.Key() == key {
			return t
		}
	}
	return nil
}

func (a *AppModel) setStatus(msg string, isErr bool) {
	a.status, a.statusErr = msg, isErr
}

func (a *AppModel) switchTab(i int) {
	n := len(a.Tabs)
	i = (i%n + n) % n
	if i != a.Active {
		a.ActiveTab().DragEnd()
	}
	a.Active = i
	a.Mode = ModeLayouts
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(a.changes)}
	if a.deps.Sync != nil {
		cmds = append(cmds, syncTickCmd(a.deps.Sync.Interval()))
	}
	switch c := a.deps.Client; {
	case c == nil:
	case c.Authenticated():
		a.user = c.User()
		cmds = append(cmds, a.afterLogin()...)
	case a.deps.Login != "":
		a.setStatus("Signing in as "+a.deps.Login+"…", false)
		cmds = append(cmds, loginCmd(c, a.deps.Login, a.deps.Password))
	}
	return tea.Batch(cmds...)
}

// afterLogin hydrates the layouts, fetches the global config and enables
// the admin tool for admin users.
func (a *AppModel) afterLogin() []tea.Cmd {
	if a.user.IsAdmin && a.adminTool == nil {
		a.EnableAdmin(admin.New(a.deps.Registry, a.deps.Cache, a.deps.Client, admin.WithLogger(a.deps.Logger)))
	}
	var cmds []tea.Cmd
	if a.deps.Sync != nil {
		cmds = append(cmds, hydrateCmd(a.deps.Sync))
	}
	return append(cmds, lmsConfigCmd(a.deps.Client, a.deps.Cache))
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		for _, t := range a.Tabs {
			t.SetSize(msg.Width, a.bodyHeight())
		}
		return a, nil

	case LayoutChangedMsg:
		return a, waitForChange(a.changes)

	case LoginResultMsg:
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Msg("login")
			a.setStatus("Login failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.user = msg.User
		a.setStatus("Signed in as "+msg.User.Login, false)
		return a, tea.Batch(a.afterLogin()...)

	case HydratedMsg:
		if msg.Err != nil {
			a.setStatus("Could not load saved layouts", true)
			return a, nil
		}
		if a.adminTool != nil {
			a.adminTool.Load()
		}
		a.setStatus("Layouts loaded", false)
		return a, nil

	case LMSConfigMsg:
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Msg("fetch lms config")
			return a, nil
		}
		cfg := msg.Config
		a.lms = &cfg
		return a, nil

	case SyncTickMsg:
		if a.deps.Sync == nil {
			return a, nil
		}
		return a, tea.Batch(flushCmd(a.deps.Sync, false), syncTickCmd(a.deps.Sync.Interval()))

	case FlushNowMsg:
		if a.deps.Sync == nil {
			a.setStatus("Offline: layouts are kept locally", true)
			return a, nil
		}
		return a, flushCmd(a.deps.Sync, true)

	case FlushedMsg:
		switch {
		case errors.Is(msg.Err, uisync.ErrNotAuthenticated):
			a.setStatus("Sign in to save layouts", true)
		case msg.Err != nil:
			a.setStatus("Save failed", true)
		case msg.Saved:
			a.setStatus("", false)
		}
		return a, nil

	case HydrateMsg:
		if a.deps.Sync == nil || !a.deps.Sync.Authenticated() {
			a.setStatus("Sign in to load saved layouts", true)
			return a, nil
		}
		return a, rehydrateCmd(a.deps.Sync)

	case SwitchTabMsg:
		a.switchTab(msg.Index)
		return a, nil
	case NextTabMsg:
		a.switchTab(a.Active + 1)
		return a, nil
	case PrevTabMsg:
		a.switchTab(a.Active - 1)
		return a, nil

	case OpenSettingsMsg:
		a.ActiveTab().OpenSettings()
		return a, nil
	case ResetLayoutMsg:
		return a, a.ActiveTab().Reset()

	case ShowAdminMsg:
		if a.Admin == nil {
			a.setStatus("Layout admin requires an admin account", true)
			return a, nil
		}
		a.ActiveTab().DragEnd()
		a.adminTool.Load()
		a.Mode = ModeAdmin
		return a, nil
	case CloseAdminMsg:
		a.Mode = ModeLayouts
		return a, nil

	case ShowPushConfirmMsg:
		a.Overlays.Push(Overlay{View: NewPushConfirmModal(), Dismiss: "esc"})
		return a, nil
	case DismissModalMsg:
		a.Overlays.Pop()
		return a, nil
	case PushLayoutsMsg:
		a.Overlays.Pop()
		if a.adminTool == nil {
			return a, nil
		}
		a.Admin.SetPushing(true)
		return a, pushCmd(a.adminTool)
	case PushResultMsg:
		if a.Admin != nil {
			a.Admin.SetPushing(false)
		}
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Msg("push layouts")
		} else {
			a.log.Info().Int("users", msg.Users).Msg("pushed layouts")
		}
		return a, nil

	case animateMsg:
		return a, a.routeToTab(msg.Key, msg)
	case frameMsg:
		return a, a.routeToTab(msg.Key, msg)
	case closeSettingsMsg:
		return a, a.routeToTab(msg.Key, msg)

	case tea.MouseMsg:
		if a.Mode != ModeLayouts || a.Overlays.Len() > 0 {
			return a, nil
		}
		_, cmd := a.ActiveTab().Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *AppModel) routeToTab(key string, msg tea.Msg) tea.Cmd {
	t := a.tabFor(key)
	if t == nil {
		return nil
	}
	_, cmd := t.Update(msg)
	return cmd
}

// handleKey gives open modals first pick, then the leader keymap, then the
// current screen. Modal screens bypass the keymap so space and q reach them.
func (a *AppModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if a.Overlays.Len() > 0 {
		cmd, _ := a.Overlays.HandleKey(msg)
		return cmd
	}
	if a.Mode == ModeLayouts && a.ActiveTab().SettingsOpen() {
		_, cmd := a.ActiveTab().Update(msg)
		return cmd
	}
	if consumed, cmd := a.KeyHandler.Handle(msg, a.Mode); consumed {
		return cmd
	}
	switch a.Mode {
	case ModeAdmin:
		if a.Admin != nil {
			_, cmd := a.Admin.Update(msg)
			return cmd
		}
	default:
		_, cmd := a.ActiveTab().Update(msg)
		return cmd
	}
	return nil
}

func (a *AppModel) bodyHeight() int {
	h := a.height - tabBarRows - footerRows
	if h < panelHeight {
		h = panelHeight
	}
	return h
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	body := a.body()
	if top, ok := a.Overlays.Peek(); ok {
		canvas := textutil.NewCanvas(a.width, max(a.bodyHeight(), strings.Count(body, "\n")+1))
		canvas.Draw(body, 0, 0)
		canvas.Center(top.View.View())
		body = canvas.String()
	}
	out := a.tabBar() + "\n" + body + "\n" + a.footer()
	if help := RenderKeybindHelp(a.KeyHandler, a.Mode); help != "" {
		out += "\n" + help
	}
	return out
}

func (a *AppModel) body() string {
	if a.Mode == ModeAdmin && a.Admin != nil {
		return a.Admin.View()
	}
	return a.ActiveTab().View()
}

func (a *AppModel) tabBar() string {
	tabs := make([]string, 0, len(a.Tabs)+1)
	for i, s := range screens.All() {
		label := fmt.Sprintf("%d %s", i+1, s.Tab)
		if a.Mode == ModeLayouts && i == a.Active {
			tabs = append(tabs, Styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, Styles.Tab.Render(label))
		}
	}
	if a.Admin != nil {
		if a.Mode == ModeAdmin {
			tabs = append(tabs, Styles.TabActive.Render("Admin"))
		} else {
			tabs = append(tabs, Styles.Tab.Render("Admin"))
		}
	}
	line := strings.Join(tabs, " ")
	if a.width > 0 {
		line = ansi.Truncate(line, a.width, "…")
	}
	return line
}

func (a *AppModel) footer() string {
	var parts []string
	switch {
	case a.deps.Client == nil:
		parts = append(parts, Styles.Muted.Render("offline"))
	case a.user.Login != "":
		who := a.user.Login
		if a.user.IsAdmin {
			who += " (admin)"
		}
		parts = append(parts, Styles.Normal.Render(who))
	default:
		parts = append(parts, Styles.Muted.Render("signed out"))
	}

	if a.deps.Sync != nil && a.deps.Sync.Phase() != uisync.PhaseIdle {
		parts = append(parts, Styles.Status.Render(a.deps.Sync.Phase().String()+"…"))
	}
	st := a.deps.Registry.Status()
	switch {
	case st.Error != "":
		parts = append(parts, Styles.Error.Render("sync: "+st.Error))
	case st.Dirty:
		parts = append(parts, Styles.Dirty.Render("● unsaved changes"))
	case st.Synced():
		parts = append(parts, Styles.Gain.Render("✓ saved "+st.LastSyncedAt.Format("15:04:05")))
	}
	if a.lms != nil && a.lms.Version != "" {
		parts = append(parts, Styles.Muted.Render("config v"+a.lms.Version))
	}
	if a.status != "" {
		if a.statusErr {
			parts = append(parts, Styles.Error.Render(a.status))
		} else {
			parts = append(parts, Styles.Status.Render(a.status))
		}
	}
	parts = append(parts, Styles.Hint.Render("SPC: commands  q: quit"))

	line := strings.Join(parts, Styles.Muted.Render("  │  "))
	if a.width > 0 {
		line = ansi.Truncate(line, a.width, "…")
	}
	return line
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}
