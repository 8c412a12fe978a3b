package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
)

func TestWatchCache_ResetFromAnotherProcessIsSaved(t *testing.T) {
	dir := t.TempDir()
	tuiCache, err := cache.New(dir)
	require.NoError(t, err)
	cliCache, err := cache.New(dir)
	require.NoError(t, err)

	key := screens.PortfolioKey
	reg := registry.New()
	reg.Apply(key, layout.State{
		Order:      []string{"holdings", "summary-cards", "allocation"},
		Visibility: map[string]bool{"allocation": false},
	})
	require.False(t, reg.Dirty())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchCache(ctx, tuiCache, reg, zerolog.Nop())

	require.NoError(t, layout.Persist(cliCache, key, screens.Defaults(key)))

	require.Eventually(t, reg.Dirty, 2*time.Second, 10*time.Millisecond)
	got, ok := reg.Get(key)
	require.True(t, ok)
	assert.True(t, got.Equal(screens.Defaults(key)))
}

func TestWatchCache_UnchangedLayoutStaysClean(t *testing.T) {
	dir := t.TempDir()
	tuiCache, err := cache.New(dir)
	require.NoError(t, err)
	otherCache, err := cache.New(dir)
	require.NoError(t, err)

	key := screens.PortfolioKey
	reg := registry.New()
	reg.Apply(key, screens.Defaults(key))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchCache(ctx, tuiCache, reg, zerolog.Nop())

	require.NoError(t, layout.Persist(otherCache, key, screens.Defaults(key)))
	time.Sleep(10 * cache.DefaultDebounce)
	assert.False(t, reg.Dirty())
}
