package formula

import "math"

// Clamp bounds x into [lo, hi]. Values already inside the range are returned
// unchanged. Non-finite values must be rejected by the caller beforehand.
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
