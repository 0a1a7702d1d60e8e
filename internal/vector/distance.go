package vector

import "math"

// CosineSimilarity computes the normalized dot product between two vectors.
// Mismatched lengths or zero-magnitude vectors score 0 rather than erroring,
// so blank or unembeddable candidates rank lowest instead of failing a query.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
