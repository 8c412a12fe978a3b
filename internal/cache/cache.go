// Package cache is the local key-value persistence for layout states: one
// JSON file per storage key under a cache directory.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	// DirEnv overrides the cache directory (used by tests and multiple profiles).
	DirEnv = "STOCKDASH_CACHE_DIR"
	// DefaultDir is the cache location relative to the user's home.
	DefaultDir = ".stockdash/cache"

	ext = ".json"
)

// FileCache stores each key as <dir>/<key>.json.
// Layout: ~/.stockdash/cache/dashboard_layout_v1.json, ...
type FileCache struct {
	dir string

	mu      sync.Mutex
	written map[string]string // last value this process wrote, per key
}

// New creates a cache rooted at dir. An empty dir resolves to
// STOCKDASH_CACHE_DIR, then ~/.stockdash/cache.
func New(dir string) (*FileCache, error) {
	if dir == "" {
		dir = os.Getenv(DirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = filepath.Join(home, DefaultDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, written: make(map[string]string)}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Path returns the file backing key.
func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, sanitize(key)+ext)
}

// Get returns the stored value for key. A missing file is ("", false, nil).
func (c *FileCache) Get(key string) (string, bool, error) {
	b, err := os.ReadFile(c.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cache %s: %w", key, err)
	}
	return string(b), true, nil
}

// Set writes value for key, replacing the file atomically.
func (c *FileCache) Set(key, value string) error {
	path := c.Path(key)
	tmp, err := os.CreateTemp(c.dir, "."+sanitize(key)+"-*")
	if err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s: %w", key, err)
	}

	c.mu.Lock()
	c.written[key] = value
	c.mu.Unlock()

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys, sorted.
func (c *FileCache) Keys() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ext))
	}
	sort.Strings(keys)
	return keys, nil
}

// ownWrite reports whether value is what this process last wrote for key.
func (c *FileCache) ownWrite(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.written[key]
	return ok && v == value
}

// sanitize keeps keys usable as file names.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}

// Memory is an in-process cache, used in tests and for `--no-cache` runs.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (c *Memory) Get(key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *Memory) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

// Keys lists the stored keys, sorted.
func (c *Memory) Keys() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
