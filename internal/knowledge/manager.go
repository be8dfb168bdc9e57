package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fintechco/supportbot/internal/embedding"
	"github.com/fintechco/supportbot/internal/vector"
)

// Stats describes the knowledge base size.
type Stats struct {
	TotalDocuments int `json:"total_documents"`
	IndexSize      int `json:"index_size"`
	Dimension      int `json:"dimension"`
}

// Manager owns the similarity index and the document store and keeps them
// position-aligned: for every position i, the document at store position i is
// the one whose embedding sits at index position i. All mutations go through
// the Manager under its write lock.
type Manager struct {
	embedder      embedding.Embedder
	indexPath     string
	documentsPath string
	logger        *zap.Logger

	// mu guards index and store together. Search takes the read lock; adds,
	// initialization, and persistence take the write lock so the pairing
	// never tears under concurrency.
	mu    sync.RWMutex
	index *vector.FlatIndex
	store *DocumentStore

	initMu      sync.Mutex
	initialized atomic.Bool
}

// NewManager creates a manager persisting to indexPath and documentsPath.
// Initialize must be called (directly or via the first public operation)
// before the knowledge base serves queries.
func NewManager(embedder embedding.Embedder, indexPath, documentsPath string, logger *zap.Logger) *Manager {
	return &Manager{
		embedder:      embedder,
		indexPath:     indexPath,
		documentsPath: documentsPath,
		logger:        logger,
		store:         NewDocumentStore(),
	}
}

// Initialize loads the persisted knowledge base, or creates and seeds a fresh
// one when no artifacts exist. It is idempotent: repeated or concurrent calls
// run the work exactly once per process.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if m.initialized.Load() {
		return nil
	}

	index, err := vector.New(m.embedder.Dimensions())
	if err != nil {
		return err
	}

	indexExists := fileExists(m.indexPath)
	docsExist := fileExists(m.documentsPath)

	switch {
	case indexExists && docsExist:
		if err := index.Load(m.indexPath); err != nil {
			return fmt.Errorf("load index: %w", err)
		}
		store := NewDocumentStore()
		data, err := os.ReadFile(m.documentsPath)
		if err != nil {
			return fmt.Errorf("read documents: %w", err)
		}
		if err := store.FromJSON(data); err != nil {
			return fmt.Errorf("load documents: %w", err)
		}
		if index.Count() != store.Count() {
			return fmt.Errorf("%w: index has %d vectors, store has %d documents",
				ErrCorrupted, index.Count(), store.Count())
		}
		m.mu.Lock()
		m.index = index
		m.store = store
		m.mu.Unlock()
		m.initialized.Store(true)
		m.logger.Info("loaded knowledge base",
			zap.Int("documents", store.Count()),
			zap.String("index_path", m.indexPath))
		return nil

	case indexExists != docsExist:
		// One artifact without the other means a torn save we cannot repair.
		return fmt.Errorf("%w: index present=%t, documents present=%t",
			ErrCorrupted, indexExists, docsExist)

	default:
		m.mu.Lock()
		m.index = index
		m.store = NewDocumentStore()
		m.mu.Unlock()
		// The flag flips only after seeding succeeds, so concurrent callers
		// block on initMu until the full corpus is in place and a failed seed
		// is retried from scratch by the next Initialize.
		if err := m.seed(ctx); err != nil {
			return err
		}
		m.initialized.Store(true)
		return nil
	}
}

// seed populates a fresh knowledge base with the default support corpus and
// persists it once.
func (m *Manager) seed(ctx context.Context) error {
	for _, entry := range seedCorpus {
		if err := m.add(ctx, entry.Title, entry.Content); err != nil {
			return fmt.Errorf("seed %q: %w", entry.Title, err)
		}
	}
	if err := m.Save(); err != nil {
		return fmt.Errorf("persist seeded knowledge base: %w", err)
	}
	m.logger.Info("seeded knowledge base", zap.Int("documents", len(seedCorpus)))
	return nil
}

func (m *Manager) ensureInitialized(ctx context.Context) error {
	if m.initialized.Load() {
		return nil
	}
	return m.Initialize(ctx)
}

// AddDocument embeds title + "\n" + content and inserts the vector and the
// document as one step. If the embedding call fails, neither store is touched.
// Nothing is persisted until Save is called.
func (m *Manager) AddDocument(ctx context.Context, title, content string) error {
	if err := m.ensureInitialized(ctx); err != nil {
		return err
	}
	return m.add(ctx, title, content)
}

// add is AddDocument without the initialization check, used while seeding.
func (m *Manager) add(ctx context.Context, title, content string) error {
	doc := NewDocument(title, content)
	vec, err := m.embedder.Embed(ctx, doc.FullText)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.index.Insert(vec); err != nil {
		return fmt.Errorf("insert vector: %w", err)
	}
	m.store.Append(doc)
	return nil
}

// HasDocument reports whether a document with this exact title and content is
// already stored. Ingestion paths use it to stay idempotent across restarts.
func (m *Manager) HasDocument(ctx context.Context, title, content string) (bool, error) {
	if err := m.ensureInitialized(ctx); err != nil {
		return false, err
	}
	doc := NewDocument(title, content)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.ContainsFullText(doc.FullText), nil
}

// Search returns up to k documents nearest to query, distance-ascending.
// An empty knowledge base yields an empty slice, not an error. Embedding
// failures propagate to the caller unretried.
func (m *Manager) Search(ctx context.Context, query string, k int) ([]ScoredDocument, error) {
	if err := m.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	count := m.index.Count()
	m.mu.RUnlock()
	if count == 0 {
		return []ScoredDocument{}, nil
	}

	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if k > m.index.Count() {
		k = m.index.Count()
	}
	hits, err := m.index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		doc, err := m.store.Get(hit.Position)
		if err != nil {
			// A position past the document store means a pre-existing broken
			// pairing; drop the hit instead of failing the whole search.
			m.logger.Warn("search hit beyond document store, skipping",
				zap.Int("position", hit.Position),
				zap.Int("documents", m.store.Count()))
			continue
		}
		results = append(results, ScoredDocument{Document: doc, Distance: hit.Distance})
	}
	return results, nil
}

// Save serializes the index and the document store and writes both to their
// configured paths. Each artifact is written to a temporary file and the two
// are renamed into place only after both writes succeed, so a crash mid-save
// leaves the previous pair intact. The write lock serializes Save against
// mutators and against other Saves, which share the temp file paths.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		return fmt.Errorf("knowledge base not initialized")
	}

	indexData, err := m.index.Serialize()
	if err != nil {
		return fmt.Errorf("serialize index: %w", err)
	}
	docsData, err := m.store.ToJSON()
	if err != nil {
		return fmt.Errorf("serialize documents: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.indexPath), 0755); err != nil {
		return fmt.Errorf("create knowledge base dir: %w", err)
	}
	if dir := filepath.Dir(m.documentsPath); dir != filepath.Dir(m.indexPath) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create documents dir: %w", err)
		}
	}

	indexTmp := m.indexPath + ".tmp"
	docsTmp := m.documentsPath + ".tmp"
	if err := os.WriteFile(indexTmp, indexData, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := os.WriteFile(docsTmp, docsData, 0644); err != nil {
		_ = os.Remove(indexTmp)
		return fmt.Errorf("write documents: %w", err)
	}
	if err := os.Rename(indexTmp, m.indexPath); err != nil {
		_ = os.Remove(indexTmp)
		_ = os.Remove(docsTmp)
		return fmt.Errorf("commit index: %w", err)
	}
	if err := os.Rename(docsTmp, m.documentsPath); err != nil {
		// The index is already committed; the pair is torn until the next
		// successful Save. Surfaced rather than hidden.
		_ = os.Remove(docsTmp)
		return fmt.Errorf("commit documents: %w", err)
	}
	return nil
}

// Stats returns the current knowledge base size, initializing first if needed.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	if err := m.ensureInitialized(ctx); err != nil {
		return Stats{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		TotalDocuments: m.store.Count(),
		IndexSize:      m.index.Count(),
		Dimension:      m.embedder.Dimensions(),
	}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
