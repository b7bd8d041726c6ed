// Package watcher reloads the review state when one of its source files
// changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Target is the state being kept up to date.
type Target interface {
	Reload(ctx context.Context) error
	WatchedFiles() []string
	Count() int
}

// Notifier receives an event after every successful reload.
type Notifier interface {
	Publish(event domain.ChangeEvent)
}

// Watcher watches the parent directories of the target's files and reloads
// the target when one of those exact files is created, written, removed or
// renamed.
type Watcher struct {
	target   Target
	notifier Notifier
	debounce time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	fs    *fsnotify.Watcher
	files map[string]struct{}
	dirs  map[string]struct{}
}

// Config for Watcher.
type Config struct {
	Target   Target
	Notifier Notifier
	Debounce time.Duration
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// New creates a new Watcher. Nothing is watched until Start runs.
func New(cfg Config) *Watcher {
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Watcher{
		target:   cfg.Target,
		notifier: cfg.Notifier,
		debounce: cfg.Debounce,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}
}

// Start watches until the context is cancelled. Reload failures are logged
// and the loop keeps going.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	w.fs = fsw

	w.sync()
	w.logger.Info().Int("files", len(w.files)).Dur("debounce", w.debounce).Msg("file watcher started")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info().Msg("file watcher shutting down")
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if w.metrics != nil {
				w.metrics.WatcherEvents.WithLabelValues(opLabel(ev.Op)).Inc()
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("file change detected")

			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-timer.C:
			pending = false
			w.trigger(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[normalize(ev.Name)]
	return ok
}

func (w *Watcher) trigger(ctx context.Context) {
	if w.metrics != nil {
		w.metrics.WatcherTriggers.Inc()
	}

	if err := w.target.Reload(ctx); err != nil {
		w.logger.Error().Err(err).Msg("reload after file change failed")
		return
	}

	if w.notifier != nil {
		w.notifier.Publish(domain.ChangeEvent{
			Type:    domain.EventTypeReloaded,
			Pending: w.target.Count(),
			At:      time.Now(),
		})
	}

	w.sync()
}

// sync brings the watched directories in line with the target's current
// files. Includes added or removed since the last reload are picked up here.
func (w *Watcher) sync() {
	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, f := range w.target.WatchedFiles() {
		f = normalize(f)
		files[f] = struct{}{}
		dirs[filepath.Dir(f)] = struct{}{}
	}

	for dir := range dirs {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("failed to watch directory")
			delete(dirs, dir)
			continue
		}
		w.logger.Debug().Str("dir", dir).Msg("watching directory")
	}
	for dir := range w.dirs {
		if _, ok := dirs[dir]; !ok {
			_ = w.fs.Remove(dir)
		}
	}

	w.files = files
	w.dirs = dirs
	if w.metrics != nil {
		w.metrics.WatchedFiles.Set(float64(len(files)))
	}
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func opLabel(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	default:
		return "rename"
	}
}
