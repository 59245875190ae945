package config

import (
	"log/slog"
	"path/filepath"

	"github.com/framework-community/fwecd/internal/models"
	"github.com/fsnotify/fsnotify"
)

// Watcher re-applies settings when the settings file is edited externally
// (e.g. a sysadmin changing the charge limit with a text editor).
type Watcher struct {
	store   Store
	watcher *fsnotify.Watcher
	apply   func(*models.Settings)
}

// NewWatcher watches the store's directory and calls apply with freshly
// loaded settings after each write to the settings file. A watcher that
// cannot be created is reported, not fatal.
func NewWatcher(store Store, apply func(*models.Settings)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{store: store, watcher: fw, apply: apply}

	if err := fw.Add(filepath.Dir(store.Path())); err != nil {
		fw.Close()
		return nil, err
	}

	go w.watchLoop()
	return w, nil
}

// Close stops the file watcher.
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) watchLoop() {
	path := w.store.Path()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name == path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				settings, err := w.store.Load()
				if err != nil {
					slog.Warn("config: failed to reload settings", "err", err)
					continue
				}
				slog.Info("config: settings file changed, re-applying")
				w.apply(settings)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}
