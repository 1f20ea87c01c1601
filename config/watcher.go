package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcherLogger is the subset of logger.Logger used by the watcher.
type watcherLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopWatcherLogger struct{}

func (nopWatcherLogger) Debug(msg string, args ...any) {}
func (nopWatcherLogger) Warn(msg string, args ...any)  {}
func (nopWatcherLogger) Error(msg string, args ...any) {}

// ErrWatcherRunning is returned when Watch is called on a running watcher.
var ErrWatcherRunning = errors.New("config watcher already running")

// Watcher reloads a config file when it changes and publishes every config
// that loads and validates on Changes. Only the latest pending config is
// kept, so a slow consumer skips intermediate versions.
type Watcher struct {
	fs        *fsnotify.Watcher
	loader    *Loader
	path      string
	overrides map[string]interface{}
	debounce  time.Duration
	logger    watcherLogger

	changes chan *Config
	started atomic.Bool
	running atomic.Bool
	closed  atomic.Bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for a burst of events to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger for reload failures.
func WithWatcherLogger(l watcherLogger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReloadOverrides reapplies command line overrides on every reload.
func WithReloadOverrides(overrides map[string]interface{}) WatcherOption {
	return func(w *Watcher) {
		w.overrides = overrides
	}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, loader *Loader, opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required for watching")
	}
	if loader == nil {
		loader = NewLoader()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fs:       fs,
		loader:   loader,
		path:     filepath.Clean(path),
		debounce: 500 * time.Millisecond,
		logger:   nopWatcherLogger{},
		changes:  make(chan *Config, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Changes delivers reloaded configs.
func (w *Watcher) Changes() <-chan *Config {
	return w.changes
}

// Watch blocks until ctx is done or Stop is called. It watches the parent
// directory so editors that save by rename keep triggering reloads.
func (w *Watcher) Watch(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrWatcherRunning
	}
	defer w.started.Store(false)

	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.running.Store(true)
	defer w.running.Store(false)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.Debug("config file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// reload loads the file and publishes it, replacing any unread config.
func (w *Watcher) reload() {
	cfg, err := w.loader.Load(w.path, w.overrides)
	if err != nil {
		w.logger.Error("config reload rejected", "path", w.path, "error", err)
		return
	}
	for {
		select {
		case w.changes <- cfg:
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}

// Stop releases the file watch and makes Watch return. It is safe to call more than once.
func (w *Watcher) Stop() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	return w.fs.Close()
}

// IsRunning reports whether Watch has registered the file watch and is active.
func (w *Watcher) IsRunning() bool {
	return w.running.Load()
}

// ConfigPath returns the watched file.
func (w *Watcher) ConfigPath() string {
	return w.path
}

// HotReloadableConfig contains the settings applied without a restart.
type HotReloadableConfig struct {
	LogLevel string
}

// ExtractHotReloadable extracts the hot-reloadable settings from cfg.
func ExtractHotReloadable(cfg *Config) HotReloadableConfig {
	return HotReloadableConfig{
		LogLevel: cfg.Log.Level,
	}
}

// Changed reports whether any hot-reloadable setting differs.
func (h HotReloadableConfig) Changed(other HotReloadableConfig) bool {
	return h.LogLevel != other.LogLevel
}
