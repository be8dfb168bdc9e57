// Package vector provides an append-only flat index for nearest-neighbor search.
package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Result is a single nearest-neighbor hit. Position is the zero-based
// insertion order of the matched vector; Distance is squared L2.
type Result struct {
	Position int     `json:"position"`
	Distance float32 `json:"distance"`
}

// FlatIndex is an append-only in-memory index over fixed-dimension vectors,
// searched by brute-force squared L2 distance. Positions are assigned by
// insertion order and never change; there is no removal.
type FlatIndex struct {
	dimension int
	vectors   [][]float32
	mu        sync.RWMutex
}

// New creates an empty index for vectors of exactly dimension length.
func New(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &FlatIndex{
		dimension: dimension,
		vectors:   make([][]float32, 0),
	}, nil
}

// Dimension returns the configured vector dimension.
func (x *FlatIndex) Dimension() int {
	return x.dimension
}

// Insert appends vec at the next position. The vector is copied.
func (x *FlatIndex) Insert(vec []float32) error {
	if len(vec) != x.dimension {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), x.dimension)
	}
	cp := make([]float32, x.dimension)
	copy(cp, vec)
	x.mu.Lock()
	x.vectors = append(x.vectors, cp)
	x.mu.Unlock()
	return nil
}

// Search returns the k nearest stored vectors to query by ascending squared
// L2 distance. Equal distances are broken by lower position. If the index
// holds fewer than k vectors, all of them are returned; an empty index or
// k <= 0 yields an empty result, not an error.
func (x *FlatIndex) Search(query []float32, k int) ([]Result, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimension)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.vectors) == 0 {
		return []Result{}, nil
	}
	results := make([]Result, len(x.vectors))
	for i, vec := range x.vectors {
		results[i] = Result{Position: i, Distance: SquaredL2(query, vec)}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Position < results[j].Position
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Count returns the number of stored vectors.
func (x *FlatIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Serialize returns a durable byte representation of the index: little-endian
// dimension (4), count (4), then count*dimension float32 values in insertion order.
func (x *FlatIndex) Serialize() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(x.dimension)); err != nil {
		return nil, fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(x.vectors))); err != nil {
		return nil, fmt.Errorf("write count: %w", err)
	}
	for _, vec := range x.vectors {
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("write vector: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Deserialize replaces the index contents from data produced by Serialize.
// The stored dimension must match the configured dimension.
func (x *FlatIndex) Deserialize(data []byte) error {
	r := bytes.NewReader(data)
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimension: %w", err)
	}
	if int(dim) != x.dimension {
		return fmt.Errorf("dimension mismatch: blob has %d, index expects %d", dim, x.dimension)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	// The remaining payload must hold exactly count*dimension float32 values,
	// so a corrupt count is rejected before any allocation sized by it.
	if want := int64(n) * int64(x.dimension) * 4; int64(r.Len()) != want {
		return fmt.Errorf("truncated blob: count %d needs %d payload bytes, have %d", n, want, r.Len())
	}
	vectors := make([][]float32, 0, n)
	for i := uint32(0); i < n; i++ {
		vec := make([]float32, x.dimension)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	x.mu.Lock()
	x.vectors = vectors
	x.mu.Unlock()
	return nil
}

// Save writes the serialized index to path, creating parent directories if needed.
func (x *FlatIndex) Save(path string) error {
	data, err := x.Serialize()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}
	return nil
}

// Load replaces the index contents from the file at path.
func (x *FlatIndex) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read index file: %w", err)
	}
	return x.Deserialize(data)
}
