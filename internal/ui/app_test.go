package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/admin"
	"stockdash/internal/api"
	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
)

func newTestApp(t *testing.T) (*AppModel, tea.Model, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	a := NewAppModel(Deps{Registry: reg, Cache: cache.NewMemory(), Logger: zerolog.Nop()})
	t.Cleanup(a.Close)
	m := a.AsTeaModel()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return a, m, reg
}

// press sends keys one by one and feeds each resulting message back once.
func press(m tea.Model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(keyMsg(k))
		if cmd == nil {
			continue
		}
		if msg := cmd(); msg != nil {
			m.Update(msg)
		}
	}
}

func TestApp_OneTabPerScreen(t *testing.T) {
	a, _, _ := newTestApp(t)

	require.Len(t, a.Tabs, len(screens.All()))
	for i, key := range screens.Keys() {
		assert.Equal(t, key, a.Tabs[i].Key())
	}
	assert.Equal(t, ModeLayouts, a.Mode)
}

func TestApp_TabSwitching(t *testing.T) {
	a, m, _ := newTestApp(t)

	press(m, "tab")
	assert.Equal(t, 1, a.Active)
	press(m, "shift+tab", "shift+tab")
	assert.Equal(t, 2, a.Active, "wraps around")

	press(m, " ", "1")
	assert.Equal(t, 0, a.Active)
	assert.Contains(t, m.View(), "Quick Stats")
}

func TestApp_QuitKeys(t *testing.T) {
	_, m, _ := newTestApp(t)

	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := m.Update(keyMsg(k))
		require.NotNil(t, cmd, k)
		assert.Equal(t, tea.QuitMsg{}, cmd(), k)
	}
}

func TestApp_SPCShowsKeybindHints(t *testing.T) {
	a, m, _ := newTestApp(t)

	press(m, " ")
	require.True(t, a.KeyHandler.LeaderWaiting)
	out := m.View()
	assert.Contains(t, out, "Layout")
	assert.Contains(t, out, "Sync")
	assert.Contains(t, out, "Quit")

	press(m, "esc")
	assert.False(t, a.KeyHandler.LeaderWaiting)
}

func TestApp_SettingsBypassLeader(t *testing.T) {
	a, m, _ := newTestApp(t)

	press(m, " ", "l", "s")
	require.True(t, a.ActiveTab().SettingsOpen())

	press(m, " ")
	assert.False(t, a.KeyHandler.LeaderWaiting, "space toggles inside settings")
	assert.False(t, a.ActiveTab().Store().IsVisible("stats"))

	press(m, "q")
	assert.True(t, a.ActiveTab().SettingsOpen(), "q does not quit from settings")

	press(m, "esc")
	assert.False(t, a.ActiveTab().SettingsOpen())
}

func TestApp_ResetLayout(t *testing.T) {
	a, m, _ := newTestApp(t)
	a.ActiveTab().Store().ToggleVisibility("stats")
	require.False(t, a.ActiveTab().Store().IsVisible("stats"))

	press(m, " ", "l", "r")
	assert.True(t, a.ActiveTab().Store().IsVisible("stats"))
}

func TestApp_MouseReachesActiveTab(t *testing.T) {
	a, m, _ := newTestApp(t)

	// row 0 is the tab bar, row 1 the view header
	m.Update(tea.MouseMsg{X: 5, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, "stats", a.ActiveTab().Session().DraggingID)
}

func TestApp_RoutesAnimationByKey(t *testing.T) {
	a, m, _ := newTestApp(t)
	portfolio := a.Tabs[1]

	require.True(t, portfolio.DragStart("summary-cards"))
	cmd := portfolio.Drop("holdings")
	require.NotNil(t, cmd)

	_, frame := m.Update(cmd())
	assert.NotNil(t, frame)
	assert.True(t, portfolio.Animating())
	assert.False(t, a.Tabs[0].Animating())
}

func TestApp_AdminRequiresAdminAccount(t *testing.T) {
	a, m, _ := newTestApp(t)

	press(m, " ", "a")
	assert.Equal(t, ModeLayouts, a.Mode)
	assert.Contains(t, a.Status(), "admin account")
}

func TestApp_AdminPushFlow(t *testing.T) {
	a, m, reg := newTestApp(t)
	p := &fakePusher{}
	a.EnableAdmin(admin.New(reg, cache.NewMemory(), p))

	press(m, " ", "a")
	require.Equal(t, ModeAdmin, a.Mode)
	assert.Contains(t, m.View(), "Layout Admin")

	press(m, "tab")
	assert.Equal(t, screens.PortfolioKey, a.Admin.Key(), "tab switches admin screens")
	assert.Equal(t, 0, a.Active)

	press(m, "P")
	require.Equal(t, 1, a.Overlays.Len())
	assert.Contains(t, m.View(), "Push layouts to all users?")

	_, cmd := m.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	require.Equal(t, PushLayoutsMsg{}, cmd())

	_, push := m.Update(PushLayoutsMsg{})
	require.NotNil(t, push)
	assert.Zero(t, a.Overlays.Len())
	assert.True(t, a.Admin.Pushing())

	m.Update(push())
	assert.False(t, a.Admin.Pushing())
	assert.Equal(t, 1, p.calls)
	assert.Len(t, p.payload, len(screens.Keys()))
	assert.Contains(t, m.View(), "Pushed to 4 users")
}

func TestApp_PushConfirmCancel(t *testing.T) {
	a, m, reg := newTestApp(t)
	p := &fakePusher{}
	a.EnableAdmin(admin.New(reg, cache.NewMemory(), p))

	press(m, " ", "a", "P")
	require.Equal(t, 1, a.Overlays.Len())

	press(m, "esc")
	assert.Zero(t, a.Overlays.Len())
	assert.Equal(t, ModeAdmin, a.Mode, "esc closes only the modal")
	assert.Zero(t, p.calls)

	press(m, "esc")
	assert.Equal(t, ModeLayouts, a.Mode)
}

func TestApp_AdminEditsReachLayoutTabs(t *testing.T) {
	a, m, reg := newTestApp(t)
	a.EnableAdmin(admin.New(reg, cache.NewMemory(), &fakePusher{}))

	press(m, " ", "a", "J", "esc")
	assert.Equal(t, ModeLayouts, a.Mode)
	assert.Equal(t, "quick-actions", a.Tabs[0].Store().State().Order[0])
	assert.False(t, reg.Dirty(), "admin edits are not saved as the admin's own layout")
}

func TestApp_RegistryChangeRearmsWatcher(t *testing.T) {
	_, m, reg := newTestApp(t)
	a := m.(*appModelAdapter).AppModel

	reg.Apply(screens.BrowseKey, layout.State{Order: []string{"stocks-display", "market-stats", "search-filters"}})
	msg := waitForChange(a.changes)()
	assert.Equal(t, LayoutChangedMsg{Key: screens.BrowseKey}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, "stocks-display", a.Tabs[2].Store().Visible()[0])
}

func TestApp_FooterShowsSyncState(t *testing.T) {
	a, m, _ := newTestApp(t)

	assert.Contains(t, m.View(), "offline")
	a.ActiveTab().Store().ToggleVisibility("stats")
	assert.Contains(t, m.View(), "unsaved changes")
}

func TestApp_OfflineFlushNow(t *testing.T) {
	a, m, _ := newTestApp(t)

	press(m, " ", "y", "f")
	assert.Contains(t, a.Status(), "Offline")

	press(m, " ", "y", "h")
	assert.Contains(t, a.Status(), "Sign in")
}

func TestApp_LoginResult(t *testing.T) {
	a, m, _ := newTestApp(t)

	m.Update(LoginResultMsg{Err: errors.New("invalid credentials")})
	assert.Contains(t, a.Status(), "Login failed")
	assert.Empty(t, a.User().Login)

	_, cmd := m.Update(LoginResultMsg{User: api.User{ID: "1", Login: "alice"}})
	assert.NotNil(t, cmd)
	assert.Equal(t, "alice", a.User().Login)
	assert.Nil(t, a.Admin)
}

func TestApp_AdminLoginEnablesAdminTool(t *testing.T) {
	a, m, _ := newTestApp(t)

	m.Update(LoginResultMsg{User: api.User{ID: "2", Login: "root", IsAdmin: true}})
	require.NotNil(t, a.Admin)
	assert.Contains(t, m.View(), "Admin")
}
