// Package watcher ingests support documents dropped into a directory.
// Files matching the configured extensions are read, titled after their
// filename stem, and added to the knowledge base.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fintechco/supportbot/internal/knowledge"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches a single drop directory for new or rewritten document
// files and feeds them into the knowledge base. Events are debounced per
// path so that editors writing in several chunks produce one ingestion.
type Watcher struct {
	kb         *knowledge.Manager
	dir        string
	extensions []string
	logger     *zap.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounce    time.Duration
	debounceMap map[string]*time.Timer
	wg          sync.WaitGroup
	stopped     bool
}

// New creates a watcher over dir. Extensions are matched case-insensitively
// with or without the leading dot; an empty list matches everything.
func New(kb *knowledge.Manager, dir string, extensions []string, logger *zap.Logger) *Watcher {
	return &Watcher{
		kb:          kb,
		dir:         dir,
		extensions:  extensions,
		logger:      logger,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
	}
}

// SetDebounce overrides the per-file debounce interval. Must be called
// before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start begins watching. It creates the drop directory if missing and
// ingests any files already present before processing live events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	w.syncExisting(ctx)

	w.wg.Add(1)
	go w.loop(ctx, fw)

	if w.logger != nil {
		w.logger.Info("watching drop directory", zap.String("dir", w.dir))
	}
	return nil
}

// Stop cancels pending debounce timers and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	fw := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	if fw != nil {
		fw.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !w.matchExtension(event.Name) {
		return
	}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.debounceIngest(ctx, event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancelDebounce(event.Name)
	}
}

// syncExisting ingests files already sitting in the drop directory when
// the watcher starts.
func (w *Watcher) syncExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("watcher sync failed", zap.String("dir", w.dir), zap.Error(err))
		}
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !w.matchExtension(path) {
			continue
		}
		w.ingest(ctx, path)
	}
}

func (w *Watcher) debounceIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		w.ingest(ctx, path)
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// ingest reads a dropped file and adds it to the knowledge base. The
// document title is the filename without its extension.
func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("watcher read failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return
	}
	title := titleFromPath(path)

	// The store is append-only, so restarts must not re-add files that are
	// already in. A file counts as ingested when its exact title and content
	// are stored.
	exists, err := w.kb.HasDocument(ctx, title, content)
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("watcher lookup failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if exists {
		if w.logger != nil {
			w.logger.Debug("already ingested, skipping", zap.String("path", path))
		}
		return
	}

	if err := w.kb.AddDocument(ctx, title, content); err != nil {
		if w.logger != nil {
			w.logger.Warn("watcher ingest failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if err := w.kb.Save(); err != nil {
		if w.logger != nil {
			w.logger.Warn("watcher save failed", zap.Error(err))
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("ingested document", zap.String("title", title), zap.String("path", path))
	}
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
