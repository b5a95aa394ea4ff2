// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package watch keeps a linted course document in memory and reloads it
// when the file changes on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dejvthedrummer/naucse.python.cz/internal/course"
	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// ErrNotLoaded is returned by Load when the first read of the document
// fails fatally; there is no previous event to fall back to.
var ErrNotLoaded = errors.New("document could not be loaded")

// State is one observed version of the document.
type State struct {
	// Event is the last document that parsed. It is kept when a later
	// version fails to parse.
	Event *course.Event
	// Report belongs to the most recent read, which may be newer than Event.
	Report validate.Report
	// Stale is set when Report describes a version that did not parse.
	Stale    bool
	SHA256   string
	LoadedAt time.Time
	// Version increases with every reload.
	Version uint64
}

// Holder holds the current State with atomic reloading.
type Holder struct {
	path     string
	opts     lint.Options
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	current State

	listenMu  sync.RWMutex
	listeners []chan<- State

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewHolder creates a holder for the document at path.
func NewHolder(path string, opts lint.Options) *Holder {
	if opts.Source == "" {
		opts.Source = "watch"
	}
	return &Holder{
		path:     filepath.Clean(path),
		opts:     opts,
		debounce: DefaultDebounce,
		logger:   log.WithComponent("watch").With().Str(log.FieldPath, path).Logger(),
	}
}

// Path returns the watched document.
func (h *Holder) Path() string { return h.path }

// Get returns the current state (thread-safe read).
func (h *Holder) Get() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Load performs the initial read. It fails if the document does not parse.
func (h *Holder) Load(ctx context.Context) error {
	st, err := h.Reload(ctx)
	if err != nil {
		return err
	}
	if st.Stale {
		return fmt.Errorf("%w: %s", ErrNotLoaded, st.Report.Err())
	}
	return nil
}

// Reload re-reads and lints the document. A version that fails to parse
// replaces the report but keeps the previous event. The returned error is
// set only when the file cannot be read or the lint run itself fails; the
// old state is kept in that case.
func (h *Holder) Reload(ctx context.Context) (State, error) {
	h.logger.Debug().Str(log.FieldEvent, "watch.reload_start").Msg("reloading document")

	data, err := course.ReadFile(h.path)
	if err != nil {
		metrics.RecordReload(false, 0)
		h.logger.Error().Err(err).Str(log.FieldEvent, "watch.reload_failed").Msg("failed to read document")
		return h.Get(), fmt.Errorf("read document: %w", err)
	}

	opts := h.opts
	opts.Path = h.path
	report, ev, err := lint.Lint(ctx, data, opts)
	if err != nil {
		metrics.RecordReload(false, 0)
		h.logger.Error().Err(err).Str(log.FieldEvent, "watch.reload_failed").Msg("failed to lint document")
		return h.Get(), fmt.Errorf("lint document: %w", err)
	}

	sum := sha256.Sum256(data)
	now := time.Now()

	h.mu.Lock()
	next := State{
		Event:    h.current.Event,
		Report:   report,
		Stale:    ev == nil,
		SHA256:   hex.EncodeToString(sum[:]),
		LoadedAt: now,
		Version:  h.current.Version + 1,
	}
	if ev != nil {
		next.Event = ev
	}
	h.current = next
	h.mu.Unlock()

	metrics.RecordReload(ev != nil, float64(now.Unix()))
	h.notify(next)

	logEvent := h.logger.Info()
	if next.Stale {
		logEvent = h.logger.Warn()
	}
	logEvent.
		Str(log.FieldEvent, "watch.reload_done").
		Str(log.FieldSHA256, next.SHA256).
		Bool(log.FieldValid, report.Valid()).
		Int(log.FieldErrors, len(report.Errors())).
		Int(log.FieldWarnings, len(report.Warnings())).
		Bool("stale", next.Stale).
		Msg("document reloaded")

	return next, nil
}

// Start watches the document's directory and reloads after changes to the
// document settle for the debounce interval. Watching the directory keeps
// working when editors replace the file by rename. The watcher stops when
// ctx is done or Stop is called.
func (h *Holder) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch document directory: %w", err)
	}

	h.watcher = watcher
	h.done = make(chan struct{})

	h.logger.Info().Str(log.FieldEvent, "watch.started").Msg("watching document for changes")

	go h.watchLoop(ctx, watcher, h.done)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			h.logger.Info().Str(log.FieldEvent, "watch.stopped").Msg("document watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != h.path {
				continue
			}
			// Write and Create cover in-place saves and rename-over saves.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "watch.file_changed").
				Str("op", event.Op.String()).
				Msg("document changed")

			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(h.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if _, err := h.Reload(ctx); err != nil {
				h.logger.Error().Err(err).Str(log.FieldEvent, "watch.auto_reload_failed").Msg("automatic reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "watch.error").Msg("document watcher error")
		}
	}
}

// Stop closes the watcher and waits for the watch loop to exit.
func (h *Holder) Stop() {
	if h.watcher == nil {
		return
	}
	_ = h.watcher.Close()
	<-h.done
}

// Subscribe registers ch to receive every new State. Sends never block;
// a full channel misses that update.
func (h *Holder) Subscribe(ch chan<- State) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

// Unsubscribe removes ch. The caller owns and closes the channel.
func (h *Holder) Unsubscribe(ch chan<- State) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	for i, l := range h.listeners {
		if l == ch {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

func (h *Holder) notify(st State) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()

	for _, ch := range h.listeners {
		select {
		case ch <- st:
		default:
			h.logger.Warn().
				Str(log.FieldEvent, "watch.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}
