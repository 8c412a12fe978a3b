package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the create/write/rename burst of one Set.
const DefaultDebounce = 50 * time.Millisecond

// ChangeHandler receives the new value of a key written by another process.
type ChangeHandler func(key, value string)

// Watch reports changes to cache entries made by other processes (an admin
// session pushing layouts, a second client). Writes made through this
// FileCache are filtered out. Watching stops when ctx is done.
func (c *FileCache) Watch(ctx context.Context, fn ChangeHandler, onErr func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch cache: %w", err)
	}
	if err := w.Add(c.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch cache %s: %w", c.dir, err)
	}

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	fire := func(key string) {
		value, ok, err := c.Get(key)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		if !ok || c.ownWrite(key, value) {
			return
		}
		fn(key, value)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				for _, t := range timers {
					t.Stop()
				}
				mu.Unlock()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				key, ok := keyFromPath(ev.Name)
				if !ok {
					continue
				}
				mu.Lock()
				if t, exists := timers[key]; exists {
					t.Reset(DefaultDebounce)
				} else {
					timers[key] = time.AfterFunc(DefaultDebounce, func() { fire(key) })
				}
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(err)
				}
			}
		}
	}()
	return nil
}

func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
		return "", false
	}
	return strings.TrimSuffix(name, ext), true
}
