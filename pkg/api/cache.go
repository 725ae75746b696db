package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// StaticCache serves files from the static directory through an in-memory
// cache. With watching enabled, fsnotify events invalidate cached entries so
// edits to the files show up without a restart.
type StaticCache struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	files map[string][]byte

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStaticCache creates a cache over dir. When watch is true, a watcher
// goroutine runs until Close.
func NewStaticCache(dir string, watch bool, logger *slog.Logger) (*StaticCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &StaticCache{
		dir:    dir,
		logger: logger,
		files:  make(map[string][]byte),
		done:   make(chan struct{}),
	}

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("api: creating fsnotify watcher: %w", err)
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("api: watching %q: %w", dir, err)
		}
		c.watcher = watcher
		go c.watchLoop()
	}

	return c, nil
}

// Get returns the contents of a file in the static directory. The name is
// reduced to its base so a cache key can never escape the directory.
func (c *StaticCache) Get(name string) ([]byte, error) {
	name = filepath.Base(name)

	c.mu.RLock()
	data, ok := c.files[name]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return nil, fmt.Errorf("api: reading static file %q: %w", name, err)
	}

	c.mu.Lock()
	c.files[name] = data
	c.mu.Unlock()
	return data, nil
}

// Close stops the watcher goroutine, if any.
func (c *StaticCache) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	return c.watcher.Close()
}

func (c *StaticCache) watchLoop() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)

			c.mu.Lock()
			_, cached := c.files[name]
			delete(c.files, name)
			c.mu.Unlock()

			if cached {
				c.logger.Debug("static cache invalidated", "file", name, "op", event.Op.String())
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("static watcher error", "error", err)
		}
	}
}
