package layout

import (
	"sync"

	"github.com/rs/zerolog"
)

// Cache is the local key-value persistence a Store writes through to. One
// entry per storage key, value is the JSON form of State.
type Cache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Registry is the shared, observable container every Store writes its
// mutations into. Subscribers are notified of every change to any key.
type Registry interface {
	Get(key string) (State, bool)
	Update(key string, s State)
	Subscribe(fn func(key string, s State)) (cancel func())
}

// Load reads and decodes the cached state for key. Missing entries return
// (nil, nil); unreadable ones return the error and a nil state.
func Load(c Cache, key string) (*State, error) {
	if c == nil {
		return nil, nil
	}
	raw, ok, err := c.Get(key)
	if err != nil || !ok {
		return nil, err
	}
	s, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Persist writes s to the cache under key. A nil cache is a no-op.
func Persist(c Cache, key string, s State) error {
	if c == nil {
		return nil
	}
	raw, err := Encode(s)
	if err != nil {
		return err
	}
	return c.Set(key, raw)
}

// Option configures a Store.
type Option func(*Store)

// WithOnChange sets the callback invoked with the resulting state after every
// local mutation (reorder, toggle, reset).
func WithOnChange(fn func(State)) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithLogger sets the logger used for recoverable cache problems.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store owns the LayoutState for one storage key.
//
// Local mutations go to the registry (marking it dirty) and the cache.
// States arriving from the registry for this key (hydration, admin edits,
// another Store sharing the key) replace the local state wholesale.
type Store struct {
	key      string
	cache    Cache
	registry Registry
	onChange func(State)
	log      zerolog.Logger

	mu     sync.Mutex
	defs   []PanelDefinition
	state  State
	cancel func()
}

// Open initializes the state for key: the cached state reconciled with defs,
// replaced by the registry's entry when one already exists. A corrupt cache
// entry falls back to defaults.
func Open(key string, defs []PanelDefinition, reg Registry, c Cache, opts ...Option) *Store {
	s := &Store{
		key:      key,
		cache:    c,
		registry: reg,
		log:      zerolog.Nop(),
		defs:     append([]PanelDefinition(nil), defs...),
	}
	for _, opt := range opts {
		opt(s)
	}

	persisted, err := Load(c, key)
	if err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("ignoring unreadable cached layout")
	}
	s.state = Reconcile(s.defs, persisted)

	if reg != nil {
		if external, ok := reg.Get(key); ok {
			s.Hydrate(external)
		}
		s.cancel = reg.Subscribe(func(k string, st State) {
			if k == s.key {
				s.Hydrate(st)
			}
		})
	}
	return s
}

// Close stops listening to the registry.
func (s *Store) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Definitions returns the current panel definitions in caller order.
func (s *Store) Definitions() []PanelDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PanelDefinition(nil), s.defs...)
}

// Definition looks up a panel definition by id.
func (s *Store) Definition(id string) (PanelDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.defs {
		if d.ID == id {
			return d, true
		}
	}
	return PanelDefinition{}, false
}

// Visible returns the ordered ids to render.
func (s *Store) Visible() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Visible(s.state, s.defs)
}

// IsVisible resolves id's visibility in the current state.
func (s *Store) IsVisible(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsVisible(id)
}

// SetDefinitions re-runs reconciliation against a changed definition set.
func (s *Store) SetDefinitions(defs []PanelDefinition) {
	s.mu.Lock()
	s.defs = append([]PanelDefinition(nil), defs...)
	cur := s.state
	s.state = Reconcile(s.defs, &cur)
	s.mu.Unlock()
}

// Reorder moves source to target's slot. Returns false for no-ops.
func (s *Store) Reorder(source, target string) bool {
	s.mu.Lock()
	next, ok := Reorder(s.state, source, target)
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.commit(next)
	return true
}

// ToggleVisibility flips the visibility of id.
func (s *Store) ToggleVisibility(id string) {
	s.mu.Lock()
	next := ToggleVisibility(s.state, id)
	s.mu.Unlock()
	s.commit(next)
}

// Reset discards all customization and returns to definition defaults.
func (s *Store) Reset() {
	s.mu.Lock()
	next := Defaults(s.defs)
	s.mu.Unlock()
	s.commit(next)
}

// Hydrate replaces the local state with an authoritative external one (no
// merge with local customization) and persists it to the cache. Panels the
// external order does not mention are appended so they still have a slot.
func (s *Store) Hydrate(external State) {
	s.mu.Lock()
	next := Complete(s.defs, external)
	if next.Equal(s.state) {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	if err := Persist(s.cache, s.key, next); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("persist hydrated layout")
	}
}

// commit applies a local mutation: local state, cache, registry (dirty),
// then the change callback.
func (s *Store) commit(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if err := Persist(s.cache, s.key, next); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("persist layout")
	}
	if s.registry != nil {
		s.registry.Update(s.key, next.Clone())
	}
	if s.onChange != nil {
		s.onChange(next.Clone())
	}
}
