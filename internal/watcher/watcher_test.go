package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fintechco/supportbot/internal/embedding"
	"github.com/fintechco/supportbot/internal/knowledge"
)

func newTestKB(t *testing.T) *knowledge.Manager {
	t.Helper()
	dir := t.TempDir()
	mgr := knowledge.NewManager(
		embedding.NewMockEmbedder(8),
		filepath.Join(dir, "index.bin"),
		filepath.Join(dir, "documents.json"),
		zap.NewNop(),
	)
	if err := mgr.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return mgr
}

func docCount(t *testing.T, kb *knowledge.Manager) int {
	t.Helper()
	stats, err := kb.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	return stats.TotalDocuments
}

func waitForCount(t *testing.T, kb *knowledge.Manager, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if docCount(t, kb) >= want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("document count did not reach %d (have %d)", want, docCount(t, kb))
}

func TestWatcherIngestsDroppedFile(t *testing.T) {
	kb := newTestKB(t)
	base := docCount(t, kb)
	drop := filepath.Join(t.TempDir(), "drop")

	w := New(kb, drop, []string{".txt", ".md"}, zap.NewNop())
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(drop, "Margin Requirements.txt")
	if err := os.WriteFile(path, []byte("Margin accounts require a minimum balance."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitForCount(t, kb, base+1)

	results, err := kb.Search(context.Background(), "Margin accounts require a minimum balance.", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Margin Requirements" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestWatcherSyncsExistingFiles(t *testing.T) {
	kb := newTestKB(t)
	base := docCount(t, kb)
	drop := t.TempDir()

	if err := os.WriteFile(filepath.Join(drop, "existing.md"), []byte("Pre-existing note."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(drop, "skipped.pdf"), []byte("binary"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w := New(kb, drop, []string{".txt", ".md"}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if got := docCount(t, kb); got != base+1 {
		t.Fatalf("count = %d, want %d", got, base+1)
	}
}

func TestWatcherSkipsEmptyAndFilteredFiles(t *testing.T) {
	kb := newTestKB(t)
	base := docCount(t, kb)
	drop := filepath.Join(t.TempDir(), "drop")

	w := New(kb, drop, []string{"txt"}, zap.NewNop())
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(drop, "empty.txt"), []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(drop, "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if got := docCount(t, kb); got != base {
		t.Fatalf("count = %d, want %d", got, base)
	}
}

func TestTitleFromPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/drop/Fee Schedule.txt": "Fee Schedule",
		"notes.md":                   "notes",
		"/a/b/no-extension":          "no-extension",
	}
	for path, want := range cases {
		if got := titleFromPath(path); got != want {
			t.Errorf("titleFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWatcherRestartDoesNotReingest(t *testing.T) {
	kb := newTestKB(t)
	base := docCount(t, kb)
	drop := t.TempDir()

	if err := os.WriteFile(filepath.Join(drop, "fees.txt"), []byte("Stock trades are commission-free."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The store is append-only, so a second start over the same directory
	// must not add the file again.
	for cycle := 0; cycle < 2; cycle++ {
		w := New(kb, drop, []string{".txt"}, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		if err := w.Start(ctx); err != nil {
			t.Fatalf("start cycle %d: %v", cycle, err)
		}
		w.Stop()
		cancel()

		if got := docCount(t, kb); got != base+1 {
			t.Fatalf("after cycle %d: documents = %d, want %d", cycle, got, base+1)
		}
	}
}
