// Package admin is the layout broadcast tool: a privileged user edits the
// known screen layouts and force-pushes them to every user.
package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockdash/internal/api"
	"stockdash/internal/layout"
	"stockdash/internal/registry"
	"stockdash/internal/screens"
)

// Pusher is the bulk-update endpoint.
type Pusher interface {
	PushUserConfig(ctx context.Context, layouts map[string]layout.State) (int, error)
}

// Option configures a Tool.
type Option func(*Tool)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tool) { t.log = l }
}

// Tool holds the admin's working copy of every known layout.
//
// Every edit is written straight into the registry (without marking it
// dirty) and the local cache, so the admin's own screens follow along.
type Tool struct {
	reg    *registry.Registry
	cache  layout.Cache
	pusher Pusher
	log    zerolog.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	layouts map[string]layout.State
	status  string
	err     string
}

// New creates a tool over reg and cache pushing through pusher.
func New(reg *registry.Registry, c layout.Cache, pusher Pusher, opts ...Option) *Tool {
	t := &Tool{
		reg:     reg,
		cache:   c,
		pusher:  pusher,
		log:     zerolog.Nop(),
		tracer:  otel.Tracer("stockdash/admin"),
		layouts: make(map[string]layout.State),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Load()
	return t
}

// Keys returns the known layout keys in tab order.
func (t *Tool) Keys() []string { return screens.Keys() }

// Load rebuilds the working copy: the registry's layout for each known key,
// or the hard default when the registry has none.
func (t *Tool) Load() map[string]layout.State {
	next := make(map[string]layout.State, len(screens.Keys()))
	for _, key := range screens.Keys() {
		if s, ok := t.reg.Get(key); ok {
			next[key] = s
		} else {
			next[key] = screens.Defaults(key)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.layouts = next
	t.status = "Reloaded current user layout config"
	t.err = ""
	return cloneAll(next)
}

// Layout returns the working copy for key.
func (t *Tool) Layout(key string) layout.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(key).Clone()
}

// Label returns the display name of a panel.
func (t *Tool) Label(key, id string) string { return screens.Label(key, id) }

// MoveUp swaps the entry at index with the one above it.
func (t *Tool) MoveUp(key string, index int) bool { return t.move(key, index, -1) }

// MoveDown swaps the entry at index with the one below it.
func (t *Tool) MoveDown(key string, index int) bool { return t.move(key, index, 1) }

func (t *Tool) move(key string, index, delta int) bool {
	t.mu.Lock()
	next, ok := layout.Move(t.current(key), index, delta)
	t.mu.Unlock()
	if !ok {
		return false
	}
	t.apply(key, next)
	return true
}

// Toggle flips a panel's visibility.
func (t *Tool) Toggle(key, id string) {
	t.mu.Lock()
	next := layout.ToggleVisibility(t.current(key), id)
	t.mu.Unlock()
	t.apply(key, next)
}

// Reorder moves source to target's slot within key's order.
func (t *Tool) Reorder(key, source, target string) bool {
	t.mu.Lock()
	next, ok := layout.Reorder(t.current(key), source, target)
	t.mu.Unlock()
	if !ok {
		return false
	}
	t.apply(key, next)
	return true
}

// Push sends the full working set to every user and returns how many were
// updated. On success the same layouts are applied locally; on failure
// nothing changes and the error is kept for display.
func (t *Tool) Push(ctx context.Context) (int, error) {
	ctx, span := t.tracer.Start(ctx, "admin.push")
	defer span.End()

	t.mu.Lock()
	payload := make(map[string]layout.State, len(screens.Keys()))
	for _, key := range screens.Keys() {
		payload[key] = t.current(key).Clone()
	}
	t.status = ""
	t.err = ""
	t.mu.Unlock()

	n, err := t.pusher.PushUserConfig(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		msg := describe(err)
		t.mu.Lock()
		t.err = msg
		t.mu.Unlock()
		t.log.Warn().Err(err).Msg("push layouts")
		return 0, fmt.Errorf("push: %w", err)
	}

	for _, key := range screens.Keys() {
		t.apply(key, payload[key])
	}
	span.SetAttributes(attribute.Int("updated_users", n))

	t.mu.Lock()
	t.status = fmt.Sprintf("Pushed to %d users", n)
	t.mu.Unlock()
	t.log.Info().Int("updated_users", n).Msg("pushed layouts")
	return n, nil
}

// Status returns the last success message and the last error message.
func (t *Tool) Status() (status, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.err
}

func (t *Tool) current(key string) layout.State {
	if s, ok := t.layouts[key]; ok {
		return s
	}
	return screens.Defaults(key)
}

func (t *Tool) apply(key string, s layout.State) {
	t.mu.Lock()
	t.layouts[key] = s.Clone()
	t.mu.Unlock()

	t.reg.Apply(key, s)
	if err := layout.Persist(t.cache, key, s); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("cache admin layout")
	}
}

// describe turns a push failure into a message an operator can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Failed to push config: session expired, log in again"
	case errors.Is(err, api.ErrForbidden):
		return "Failed to push config: admin rights required"
	case errors.Is(err, api.ErrRateLimited):
		return "Failed to push config: too many pushes, try again shortly"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return "Failed to push config: " + apiErr.Message
	}
	return "Failed to push config: " + err.Error()
}

func cloneAll(m map[string]layout.State) map[string]layout.State {
	out := make(map[string]layout.State, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}
