package align

import "math"

// Cosine returns the cosine similarity of a and b. A zero vector on either side
// scores 0. Vectors of different length, vectors holding NaN or Inf, and inputs
// whose score overflows are configuration errors, so the result is never NaN.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, configError("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	if !finite(a) || !finite(b) {
		return 0, configError("cannot score a vector with a NaN or infinite component")
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0, configError("similarity overflowed")
	}
	// rounding can push normalized inputs slightly past ±1
	return math.Max(-1, math.Min(1, sim)), nil
}

// finite reports whether every component of v is a real number.
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// checkThreshold rejects thresholds no similarity can be compared against.
func checkThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return configError("similarity threshold must be a finite number, got %v", threshold)
	}
	return nil
}
