package ui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stockdash/internal/admin"
	"stockdash/internal/api"
	"stockdash/internal/layout"
	"stockdash/internal/uisync"
)

// requestTimeout bounds every backend call made from the UI.
const requestTimeout = 15 * time.Second

// waitForChange delivers the next registry change as a LayoutChangedMsg.
// The app re-arms it after every delivery.
func waitForChange(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		key, ok := <-ch
		if !ok {
			return nil
		}
		return LayoutChangedMsg{Key: key}
	}
}

// syncTickCmd schedules the next periodic flush.
func syncTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return SyncTickMsg(t)
	})
}

func loginCmd(c *api.Client, login, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := c.Login(ctx, login, password)
		return LoginResultMsg{User: res.User, Err: err}
	}
}

// hydrateCmd marks the session authenticated, which hydrates exactly once
// per login.
func hydrateCmd(s *uisync.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return HydratedMsg{Err: s.SetAuthenticated(ctx, true)}
	}
}

// rehydrateCmd fetches the saved layouts again on demand.
func rehydrateCmd(s *uisync.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return HydratedMsg{Err: s.Hydrate(ctx)}
	}
}

// flushCmd runs a periodic tick, or a forced flush when force is set.
func flushCmd(s *uisync.Coordinator, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			saved bool
			err   error
		)
		if force {
			saved, err = s.Flush(ctx)
		} else {
			saved, err = s.Tick(ctx)
		}
		return FlushedMsg{Saved: saved, Err: err}
	}
}

// lmsConfigCmd fetches the global screen configuration and keeps a copy in
// the local cache.
func lmsConfigCmd(c *api.Client, cache layout.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cfg, err := c.GetLMSConfig(ctx)
		if err != nil {
			return LMSConfigMsg{Err: err}
		}
		if cache != nil {
			if b, err := json.Marshal(cfg); err == nil {
				if err := cache.Set(api.LMSCacheKey, string(b)); err != nil {
					return LMSConfigMsg{Config: cfg, Err: err}
				}
			}
		}
		return LMSConfigMsg{Config: cfg}
	}
}

func pushCmd(tool *admin.Tool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		n, err := tool.Push(ctx)
		return PushResultMsg{Users: n, Err: err}
	}
}
