// Package uisync keeps the layout registry in step with the backend: one
// hydration per login, then periodic flushes of local edits while the
// registry is dirty.
package uisync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockdash/internal/layout"
	"stockdash/internal/registry"
)

// DefaultInterval is how often dirty layouts are flushed.
const DefaultInterval = 60 * time.Second

// ErrNotAuthenticated is returned by Flush before login.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client is the backend surface the coordinator needs.
type Client interface {
	GetUserConfig(ctx context.Context) (map[string]layout.State, error)
	SaveUserConfig(ctx context.Context, layouts map[string]layout.State) error
}

// Phase is the coordinator's current activity.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseHydrating
	PhaseFlushing
)

func (p Phase) String() string {
	switch p {
	case PhaseHydrating:
		return "hydrating"
	case PhaseFlushing:
		return "flushing"
	default:
		return "idle"
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCache persists hydrated layouts to the local cache.
func WithCache(c layout.Cache) Option {
	return func(co *Coordinator) { co.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(co *Coordinator) { co.log = l }
}

// WithInterval sets the flush interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(co *Coordinator) {
		if d > 0 {
			co.interval = d
		}
	}
}

// WithClock replaces time.Now for LastSyncedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(co *Coordinator) { co.now = now }
}

// Coordinator drives hydration and flushes for one client session.
//
// A flush is skipped while another is in flight, so a slow save can never
// overlap the next tick. Admin pushes and flushes are still last-write-wins
// against each other on the server.
type Coordinator struct {
	reg      *registry.Registry
	client   Client
	cache    layout.Cache
	log      zerolog.Logger
	tracer   trace.Tracer
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	authed bool

	phase    atomic.Int32
	inFlight atomic.Bool
}

// New creates a coordinator for reg backed by client.
func New(reg *registry.Registry, client Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		reg:      reg,
		client:   client,
		log:      zerolog.Nop(),
		tracer:   otel.Tracer("stockdash/uisync"),
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interval returns the flush interval.
func (c *Coordinator) Interval() time.Duration { return c.interval }

// Phase returns what the coordinator is doing right now.
func (c *Coordinator) Phase() Phase { return Phase(c.phase.Load()) }

// Authenticated reports the last value passed to SetAuthenticated.
func (c *Coordinator) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

// SetAuthenticated records the session state. The transition from logged
// out to logged in triggers exactly one hydration, whose error is returned.
func (c *Coordinator) SetAuthenticated(ctx context.Context, authed bool) error {
	c.mu.Lock()
	edge := authed && !c.authed
	c.authed = authed
	c.mu.Unlock()

	if !edge {
		return nil
	}
	return c.Hydrate(ctx)
}

// Hydrate fetches the user's layouts and replaces the registry with them.
// On failure the error is recorded on the registry and the current layouts
// stay in place.
func (c *Coordinator) Hydrate(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "uisync.hydrate")
	defer span.End()

	c.phase.Store(int32(PhaseHydrating))
	defer c.phase.Store(int32(PhaseIdle))

	layouts, err := c.client.GetUserConfig(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.reg.SetError(fmt.Sprintf("hydrate: %v", err))
		c.log.Warn().Err(err).Msg("hydrate layouts")
		return fmt.Errorf("hydrate: %w", err)
	}

	c.reg.ReplaceAll(layouts)
	for key, s := range layouts {
		if err := layout.Persist(c.cache, key, s); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache hydrated layout")
		}
	}
	span.SetAttributes(attribute.Int("layouts", len(layouts)))
	c.log.Info().Int("layouts", len(layouts)).Msg("hydrated layouts")
	return nil
}

// Tick is the periodic flush: it saves the registry when logged in, dirty
// and not already flushing. It reports whether a save succeeded.
func (c *Coordinator) Tick(ctx context.Context) (bool, error) {
	if !c.Authenticated() || !c.reg.Dirty() {
		return false, nil
	}
	return c.flush(ctx)
}

// Flush saves the registry now, dirty or not.
func (c *Coordinator) Flush(ctx context.Context) (bool, error) {
	if !c.Authenticated() {
		return false, ErrNotAuthenticated
	}
	return c.flush(ctx)
}

func (c *Coordinator) flush(ctx context.Context) (bool, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.log.Debug().Msg("flush already in flight")
		return false, nil
	}
	defer c.inFlight.Store(false)

	ctx, span := c.tracer.Start(ctx, "uisync.flush")
	defer span.End()

	c.phase.Store(int32(PhaseFlushing))
	defer c.phase.Store(int32(PhaseIdle))

	layouts, version := c.reg.SnapshotForSave()
	span.SetAttributes(attribute.Int("layouts", len(layouts)))
	if err := c.client.SaveUserConfig(ctx, layouts); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.reg.SetError(fmt.Sprintf("save: %v", err))
		c.log.Warn().Err(err).Msg("flush layouts")
		return false, fmt.Errorf("flush: %w", err)
	}

	c.reg.MarkSynced(version, c.now())
	c.log.Debug().Int("layouts", len(layouts)).Msg("flushed layouts")
	return true, nil
}

// Run ticks every interval until ctx is done. Flush errors are recorded on
// the registry and logged; they do not stop the loop.
func (c *Coordinator) Run(ctx context.Context) error {
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.Tick(ctx)
		}
	}
}
