package vector

import (
	"path/filepath"
	"testing"
)

func TestFlatIndex_InsertSearch(t *testing.T) {
	idx, err := New(3)
	if err != nil {
		t.Fatal(err)
	}

	// Distances to the query {0,0,0}: 5.0, 1.0, 3.0 by position.
	vecs := [][]float32{
		{2, 1, 0},
		{1, 0, 0},
		{1, 1, 1},
	}
	for _, v := range vecs {
		if err := idx.Insert(v); err != nil {
			t.Fatal(err)
		}
	}
	if idx.Count() != 3 {
		t.Errorf("Count=%d", idx.Count())
	}

	results, err := idx.Search([]float32{0, 0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []int{1, 2, 0}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range wantOrder {
		if results[i].Position != want {
			t.Errorf("results[%d].Position = %d, want %d", i, results[i].Position, want)
		}
	}
	if results[0].Distance != 1.0 {
		t.Errorf("nearest distance = %f, want 1.0", results[0].Distance)
	}
}

func TestFlatIndex_EmptySearch(t *testing.T) {
	idx, _ := New(2)
	results, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result on empty index, got %d", len(results))
	}
}

func TestFlatIndex_KClamp(t *testing.T) {
	idx, _ := New(2)
	_ = idx.Insert([]float32{1, 0})
	_ = idx.Insert([]float32{0, 1})
	results, err := idx.Search([]float32{1, 0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestFlatIndex_TieBreak(t *testing.T) {
	idx, _ := New(2)
	// Both at distance 1 from the query; lower position wins.
	_ = idx.Insert([]float32{1, 0})
	_ = idx.Insert([]float32{0, 1})
	_ = idx.Insert([]float32{-1, 0})

	results, err := idx.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{0, 1, 2} {
		if results[i].Position != want {
			t.Errorf("results[%d].Position = %d, want %d", i, results[i].Position, want)
		}
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := New(3)
	if err := idx.Insert([]float32{1, 0}); err == nil {
		t.Error("expected error inserting wrong-dimension vector")
	}
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Error("expected error searching with wrong-dimension query")
	}
	if _, err := New(0); err == nil {
		t.Error("expected error for non-positive dimension")
	}
}

func TestFlatIndex_SerializeRoundTrip(t *testing.T) {
	idx, _ := New(3)
	vecs := [][]float32{
		{0.1, -2.5, 3.75},
		{1, 0, 0},
	}
	for _, v := range vecs {
		_ = idx.Insert(v)
	}

	data, err := idx.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	restored, _ := New(3)
	if err := restored.Deserialize(data); err != nil {
		t.Fatal(err)
	}
	if restored.Count() != 2 {
		t.Fatalf("restored count = %d", restored.Count())
	}
	results, _ := restored.Search(vecs[0], 1)
	if results[0].Position != 0 || results[0].Distance != 0 {
		t.Errorf("restored vectors differ: %+v", results[0])
	}

	wrongDim, _ := New(4)
	if err := wrongDim.Deserialize(data); err == nil {
		t.Error("expected dimension mismatch error on deserialize")
	}
}

func TestFlatIndex_DeserializeTruncated(t *testing.T) {
	idx, _ := New(3)
	_ = idx.Insert([]float32{1, 2, 3})
	data, err := idx.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	// Payload cut short of the declared count.
	short, _ := New(3)
	if err := short.Deserialize(data[:len(data)-4]); err == nil {
		t.Error("expected error for truncated payload")
	}

	// A corrupt count claiming billions of vectors against a tiny payload
	// must be rejected up front rather than driving an allocation.
	corrupt := append([]byte(nil), data...)
	for i := 4; i < 8; i++ {
		corrupt[i] = 0xFF
	}
	huge, _ := New(3)
	if err := huge.Deserialize(corrupt); err == nil {
		t.Error("expected error for corrupt count")
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "vectors.index")
	idx, _ := New(2)
	_ = idx.Insert([]float32{0.5, -0.5})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := New(2)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Count() != 1 {
		t.Errorf("loaded count = %d", loaded.Count())
	}
}

func TestSquaredL2(t *testing.T) {
	if d := SquaredL2([]float32{1, 2}, []float32{4, 6}); d != 25 {
		t.Errorf("SquaredL2 = %f, want 25", d)
	}
	if d := SquaredL2([]float32{1}, []float32{1, 2}); d != 0 {
		t.Errorf("mismatched lengths should yield 0, got %f", d)
	}
}
