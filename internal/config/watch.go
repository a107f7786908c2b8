package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// Watcher reloads a ConfigManager when its backing file changes.
type Watcher struct {
	manager       *ConfigManager
	path          string
	logger        hclog.Logger
	watcher       *fsnotify.Watcher
	debounceDelay time.Duration

	mu      sync.Mutex
	pending *time.Timer
	wg      sync.WaitGroup
}

// NewWatcher watches the directory holding path. Editors often replace the
// file rather than writing it, so the directory is watched and events are
// filtered by name.
func NewWatcher(manager *ConfigManager, path string, logger hclog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("no config file to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &Watcher{
		manager:       manager,
		path:          filepath.Clean(path),
		logger:        logger.Named("config-watch"),
		watcher:       fw,
		debounceDelay: 250 * time.Millisecond,
	}, nil
}

// Start runs the event loop until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop closes the underlying watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// scheduleReload collapses bursts of write events into a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounceDelay, func() {
		if err := w.manager.LoadConfig(w.path); err != nil {
			w.logger.Error("config reload failed, keeping previous config", "path", w.path, "error", err)
			return
		}
		w.logger.Info("configuration reloaded", "path", w.path)
	})
}
