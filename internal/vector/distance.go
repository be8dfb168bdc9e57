package vector

// SquaredL2 returns the squared Euclidean distance between two vectors.
// Mismatched or empty slices yield 0; callers validate dimensions first.
func SquaredL2(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
