// Package watcher feeds newly created run files into the ingestion
// pipeline. One long-lived worker owns the directory watch and ingests
// sequentially in event-arrival order; the initial catch-up scan happens
// before the watch starts, so the two never overlap.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"aim-tracker/internal/constants"
	"aim-tracker/internal/notify"
	"aim-tracker/internal/service"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Watcher struct {
	ingest *service.IngestService
	bus    *notify.Bus
	logger zerolog.Logger

	fs *fsnotify.Watcher

	mu   sync.Mutex
	path string
}

func New(ingest *service.IngestService, bus *notify.Bus, logger zerolog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		ingest: ingest,
		bus:    bus,
		logger: logger,
		fs:     fs,
	}, nil
}

// SetPath points the watch at a new directory, replacing the previous one.
// An event already queued for the old directory may still be delivered
// afterwards; it is ingested if the file still exists, which is safe because
// ingestion is idempotent by content hash.
func (w *Watcher) SetPath(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path != "" {
		if err := w.fs.Remove(w.path); err != nil {
			w.logger.Warn().Err(err).Str("dir", w.path).Msg("failed to unwatch previous directory")
		}
	}
	w.path = ""

	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.path = path

	w.logger.Info().Str("dir", path).Msg("watching directory")
	w.bus.Info("File watcher", "File watcher initiated successfully")
	return nil
}

// Run consumes watch events until the context ends or the watcher is
// closed. It never returns under normal operation.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case event, ok := <-w.fs.Events:
				if !ok {
					return nil
				}
				w.handleEvent(ctx, event)
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-w.fs.Errors:
				if !ok {
					return nil
				}
				w.logger.Error().Err(err).Msg("file watcher error")
			}
		}
	})

	return g.Wait()
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// handleEvent routes Create events for run files into the pipeline and
// ignores everything else (writes, renames, removals, chmods).
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) {
		return
	}
	if !isRunFile(event.Name) {
		return
	}

	w.logger.Info().Str("path", event.Name).Msg("new run file detected")
	// Errors are already logged and published by the pipeline; the watch
	// loop keeps going regardless.
	_ = w.ingest.IngestFile(ctx, event.Name)
}

func isRunFile(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), constants.RunFileExtension) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
