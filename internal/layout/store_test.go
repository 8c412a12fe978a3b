package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
)

func xyz() []layout.PanelDefinition {
	return []layout.PanelDefinition{
		{ID: "x", Title: "X"},
		{ID: "y", Title: "Y"},
		{ID: "z", Title: "Z", DefaultHidden: true},
	}
}

func TestStore_EndToEndResetScenario(t *testing.T) {
	reg := registry.New()
	c := cache.NewMemory()
	s := layout.Open("scenario", xyz(), reg, c)
	defer s.Close()

	assert.Equal(t, []string{"x", "y"}, s.Visible())
	assert.False(t, s.IsVisible("z"))

	s.ToggleVisibility("z")
	assert.Equal(t, []string{"x", "y", "z"}, s.Visible())

	s.Reset()
	assert.Equal(t, []string{"x", "y"}, s.Visible())
	assert.Equal(t, []string{"x", "y", "z"}, s.State().Order)
	assert.False(t, s.IsVisible("z"))
}

func TestStore_MutationsMarkDirtyAndPersist(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*layout.Store)
	}{
		{"reorder", func(s *layout.Store) { s.Reorder("x", "y") }},
		{"toggle", func(s *layout.Store) { s.ToggleVisibility("x") }},
		{"reset", func(s *layout.Store) { s.Reset() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			c := cache.NewMemory()
			var changes []layout.State
			s := layout.Open("k", xyz(), reg, c, layout.WithOnChange(func(st layout.State) {
				changes = append(changes, st)
			}))
			defer s.Close()
			require.False(t, reg.Dirty())

			tt.mutate(s)

			assert.True(t, reg.Dirty())
			require.Len(t, changes, 1)
			assert.True(t, changes[0].Equal(s.State()))

			fromReg, ok := reg.Get("k")
			require.True(t, ok)
			assert.True(t, fromReg.Equal(s.State()))

			cached, err := layout.Load(c, "k")
			require.NoError(t, err)
			require.NotNil(t, cached)
			assert.True(t, cached.Equal(s.State()))
		})
	}
}

func TestStore_ReorderNoOpDoesNotNotify(t *testing.T) {
	reg := registry.New()
	calls := 0
	s := layout.Open("k", xyz(), reg, nil, layout.WithOnChange(func(layout.State) { calls++ }))
	defer s.Close()

	assert.False(t, s.Reorder("x", "x"))
	assert.False(t, s.Reorder("missing", "x"))
	assert.Equal(t, 0, calls)
	assert.False(t, reg.Dirty())
}

func TestStore_OpenReconcilesCachedState(t *testing.T) {
	c := cache.NewMemory()
	require.NoError(t, c.Set("k", `{"order":["z","stale","x"],"visibility":{"z":true}}`))

	s := layout.Open("k", xyz(), nil, c)
	defer s.Close()
	assert.Equal(t, []string{"z", "x", "y"}, s.State().Order)
	assert.Equal(t, []string{"z", "x", "y"}, s.Visible())

	again := layout.Open("k", xyz(), nil, c)
	defer again.Close()
	assert.True(t, again.State().Equal(s.State()), "reopening must not grow the order")
}

func TestStore_CorruptCacheFallsBackToDefaults(t *testing.T) {
	c := cache.NewMemory()
	require.NoError(t, c.Set("k", `{not json`))

	s := layout.Open("k", xyz(), nil, c)
	defer s.Close()
	assert.Equal(t, layout.Defaults(xyz()), s.State())
}

func TestStore_RegistryChangesReplaceLocalState(t *testing.T) {
	reg := registry.New()
	c := cache.NewMemory()
	s := layout.Open("k", xyz(), reg, c)
	defer s.Close()
	s.ToggleVisibility("x")

	reg.Apply("k", layout.State{Order: []string{"y", "x"}, Visibility: map[string]bool{"y": false}})

	got := s.State()
	assert.Equal(t, []string{"y", "x", "z"}, got.Order)
	assert.Equal(t, map[string]bool{"y": false}, got.Visibility, "external state is not merged with local edits")
	assert.Equal(t, []string{"x", "z"}, s.Visible())

	cached, err := layout.Load(c, "k")
	require.NoError(t, err)
	assert.True(t, cached.Equal(got))

	reg.Apply("other", layout.State{Order: []string{"z"}})
	assert.True(t, s.State().Equal(got))
}

func TestStore_SharedKeyStaysInSync(t *testing.T) {
	reg := registry.New()
	a := layout.Open("shared", xyz(), reg, nil)
	defer a.Close()
	b := layout.Open("shared", xyz(), reg, nil)
	defer b.Close()

	a.Reorder("y", "x")
	assert.Equal(t, []string{"y", "x", "z"}, b.State().Order)
}

func TestStore_OpenPrefersRegistryEntry(t *testing.T) {
	reg := registry.New()
	reg.Apply("k", layout.State{Order: []string{"y"}, Visibility: map[string]bool{}})
	c := cache.NewMemory()
	require.NoError(t, c.Set("k", `{"order":["x","z","y"],"visibility":{}}`))

	s := layout.Open("k", xyz(), reg, c)
	defer s.Close()
	assert.Equal(t, []string{"y", "x", "z"}, s.State().Order)
}

func TestStore_SetDefinitions(t *testing.T) {
	s := layout.Open("k", xyz(), nil, nil)
	defer s.Close()

	s.SetDefinitions(append(xyz(), layout.PanelDefinition{ID: "w"}))
	assert.Equal(t, []string{"x", "y", "z", "w"}, s.State().Order)

	_, ok := s.Definition("w")
	assert.True(t, ok)
}
