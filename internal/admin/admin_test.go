package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/api"
	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
)

type fakePusher struct {
	n       int
	err     error
	payload map[string]layout.State
}

func (f *fakePusher) PushUserConfig(ctx context.Context, layouts map[string]layout.State) (int, error) {
	f.payload = layouts
	return f.n, f.err
}

func setup(t *testing.T) (*Tool, *registry.Registry, *cache.Memory, *fakePusher) {
	t.Helper()
	reg := registry.New()
	mem := cache.NewMemory()
	p := &fakePusher{n: 3}
	return New(reg, mem, p), reg, mem, p
}

func TestLoad_MergesRegistryWithDefaults(t *testing.T) {
	reg := registry.New()
	custom := layout.State{Order: []string{"holdings", "allocation", "summary-cards"}, Visibility: map[string]bool{"allocation": false}}
	reg.Apply(screens.PortfolioKey, custom)

	tool := New(reg, nil, &fakePusher{})
	got := tool.Load()

	require.Len(t, got, 3)
	assert.True(t, got[screens.PortfolioKey].Equal(custom))
	assert.True(t, got[screens.DashboardKey].Equal(screens.Defaults(screens.DashboardKey)))
	status, errMsg := tool.Status()
	assert.Equal(t, "Reloaded current user layout config", status)
	assert.Empty(t, errMsg)
}

func TestMove_ClampedAtBounds(t *testing.T) {
	tool, _, _, _ := setup(t)
	key := screens.BrowseKey

	assert.False(t, tool.MoveUp(key, 0))
	assert.False(t, tool.MoveDown(key, 2))
	assert.Equal(t, []string{"market-stats", "search-filters", "stocks-display"}, tool.Layout(key).Order)

	assert.True(t, tool.MoveDown(key, 0))
	assert.Equal(t, []string{"search-filters", "market-stats", "stocks-display"}, tool.Layout(key).Order)

	assert.True(t, tool.MoveUp(key, 2))
	assert.Equal(t, []string{"search-filters", "stocks-display", "market-stats"}, tool.Layout(key).Order)
}

func TestEdits_WriteThroughWithoutDirty(t *testing.T) {
	tool, reg, mem, _ := setup(t)
	key := screens.DashboardKey

	var notified []string
	reg.Subscribe(func(k string, s layout.State) { notified = append(notified, k) })

	tool.Toggle(key, "market-info")
	tool.Reorder(key, "stats", "market-leaders")

	want := tool.Layout(key)
	assert.False(t, want.IsVisible("market-info"))
	assert.Equal(t, []string{"quick-actions", "market-leaders", "stats", "featured-stocks", "top-holdings", "market-info"}, want.Order)

	fromReg, ok := reg.Get(key)
	require.True(t, ok)
	assert.True(t, fromReg.Equal(want))
	assert.False(t, reg.Dirty())
	assert.Equal(t, []string{key, key}, notified)

	cached, err := layout.Load(mem, key)
	require.NoError(t, err)
	assert.True(t, cached.Equal(want))
}

func TestEdits_ReachOpenStore(t *testing.T) {
	tool, reg, mem, _ := setup(t)
	store := layout.Open(screens.PortfolioKey, screens.Definitions(screens.PortfolioKey, nil), reg, mem)
	defer store.Close()

	tool.Toggle(screens.PortfolioKey, "allocation")
	assert.Equal(t, []string{"summary-cards", "holdings"}, store.Visible())
}

func TestPush_SendsAllKeysAndAppliesLocally(t *testing.T) {
	tool, reg, mem, p := setup(t)
	tool.MoveDown(screens.PortfolioKey, 0)

	n, err := tool.Push(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, p.payload, 3)
	assert.Equal(t, []string{"allocation", "summary-cards", "holdings"}, p.payload[screens.PortfolioKey].Order)
	for _, key := range screens.Keys() {
		got, ok := reg.Get(key)
		require.True(t, ok, key)
		assert.True(t, got.Equal(p.payload[key]), key)
		cached, err := layout.Load(mem, key)
		require.NoError(t, err)
		require.NotNil(t, cached, key)
	}

	status, errMsg := tool.Status()
	assert.Equal(t, "Pushed to 3 users", status)
	assert.Empty(t, errMsg)
}

func TestPush_FailureSurfacesMessage(t *testing.T) {
	tool, reg, _, p := setup(t)
	p.err = &api.Error{Status: 403, Message: "admin only"}

	_, err := tool.Push(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrForbidden))

	status, errMsg := tool.Status()
	assert.Empty(t, status)
	assert.Equal(t, "Failed to push config: admin rights required", errMsg)
	assert.Empty(t, reg.Keys(), "nothing applied locally on failure")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Failed to push config: boom", describe(errors.New("boom")))
	assert.Equal(t, "Failed to push config: db down", describe(&api.Error{Status: 500, Message: "db down"}))
	assert.Contains(t, describe(&api.Error{Status: 401}), "log in again")
	assert.Contains(t, describe(&api.Error{Status: 429}), "try again")
}
