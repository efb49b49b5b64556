// Package inbox watches a drop directory and feeds new files into the
// capture pipeline. Dropping a file into the directory is equivalent to
// POSTing its path to /api/capture with kind=file.
package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/munin/internal/models"
	"github.com/starford/munin/internal/pipeline"
)

// settleDelay is how long a file must stay quiet before it is ingested.
// Copies into the drop dir arrive as a Create followed by a burst of
// Writes; ingesting on the first event would read a partial file.
const settleDelay = 500 * time.Millisecond

// Watch starts an fsnotify watcher on dir and ingests dropped files
// until ctx is cancelled. Files that ingest successfully are removed
// from the drop directory; failed files stay behind for inspection.
func Watch(ctx context.Context, dir string, pipe *pipeline.Pipeline, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("inbox: started", slog.String("dir", dir))

	// Per-path settle timers. ready receives a path once its timer fires.
	ready := make(chan string, 16)
	timers := make(map[string]*time.Timer)

	schedule := func(path string) {
		if t, ok := timers[path]; ok {
			t.Reset(settleDelay)
			return
		}
		timers[path] = time.AfterFunc(settleDelay, func() {
			select {
			case ready <- path:
			default:
			}
		})
	}

	// Pick up anything already sitting in the drop dir.
	if entries, listErr := os.ReadDir(dir); listErr == nil {
		for _, e := range entries {
			if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				schedule(filepath.Join(dir, e.Name()))
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range timers {
				t.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case path := <-ready:
			delete(timers, path)
			ingest(ctx, path, pipe, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}
			if info, statErr := os.Stat(ev.Name); statErr != nil || info.IsDir() {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: error", slog.String("error", watchErr.Error()))
		}
	}
}

func ingest(ctx context.Context, path string, pipe *pipeline.Pipeline, logger *slog.Logger) {
	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Warn("inbox: resolve failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if info, statErr := os.Stat(abs); statErr != nil || info.IsDir() {
		return
	}

	item := models.RawItem{Kind: models.KindFile, Payload: abs, ReceivedAt: time.Now()}
	res, err := pipe.Handle(ctx, item)
	if err != nil {
		logger.Warn("inbox: capture failed", slog.String("path", abs), slog.String("error", err.Error()))
		return
	}

	logger.Info("inbox: captured",
		slog.String("path", abs),
		slog.String("note", res.NotePath))

	// The original is copied into the vault as an attachment, so the
	// dropped file has served its purpose.
	if rmErr := os.Remove(abs); rmErr != nil {
		logger.Warn("inbox: cleanup failed", slog.String("path", abs), slog.String("error", rmErr.Error()))
	}
}
