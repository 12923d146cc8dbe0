package utils

// Dot returns the inner product of w and x. Slices must be the same length;
// callers validate dimensions before scoring.
func Dot(w, x []float64) float64 {
	var sum float64
	for i, v := range w {
		sum += v * x[i]
	}
	return sum
}

// ArgMax returns the index of the largest value in x. Ties resolve to the
// lowest index. Returns -1 for an empty slice.
func ArgMax(x []float64) int {
	if len(x) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}
