package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/cache"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
	"stockdash/internal/uisync"
)

type memServer struct {
	mu    sync.Mutex
	saved map[string]layout.State
	saves int
}

func (m *memServer) GetUserConfig(ctx context.Context) (map[string]layout.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]layout.State, len(m.saved))
	for k, v := range m.saved {
		out[k] = v.Clone()
	}
	return out, nil
}

func (m *memServer) SaveUserConfig(ctx context.Context, layouts map[string]layout.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = layouts
	m.saves++
	return nil
}

func (m *memServer) layout(key string) (layout.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[key]
	return s, ok
}

func TestSyncLoop_SavesCacheResets(t *testing.T) {
	key := screens.PortfolioKey
	custom := layout.State{
		Order:      []string{"holdings", "summary-cards", "allocation"},
		Visibility: map[string]bool{"allocation": false},
	}
	srv := &memServer{saved: map[string]layout.State{key: custom}}

	dir := t.TempDir()
	fc, err := cache.New(dir)
	require.NoError(t, err)
	cliCache, err := cache.New(dir)
	require.NoError(t, err)

	reg := registry.New()
	coord := uisync.New(reg, srv, uisync.WithCache(fc), uisync.WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- syncLoop(ctx, coord, fc, reg, zerolog.Nop()) }()

	// hydration copies the server layout into the cache
	require.Eventually(t, func() bool {
		s, err := layout.Load(cliCache, key)
		return err == nil && s != nil && s.Equal(custom)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, layout.Persist(cliCache, key, screens.Defaults(key)))

	require.Eventually(t, func() bool {
		s, ok := srv.layout(key)
		return ok && s.Equal(screens.Defaults(key))
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
	assert.False(t, reg.Dirty())
}
