package formula

// Team size thresholds for the efficiency factor η(N).
const (
	understaffedBelow   = 5
	optimalMax          = 12
	understaffedPenalty = 1.2
	overstaffedPerHead  = 0.02
)

// TeamSizeFactor returns η(N): 1.2 below five people, 1.0 from five to
// twelve, and 2% per person above twelve. The step at N=5 is deliberate.
func TeamSizeFactor(n int) float64 {
	switch {
	case n < understaffedBelow:
		return understaffedPenalty
	case n <= optimalMax:
		return neutralMultiplier
	default:
		return neutralMultiplier + overstaffedPerHead*float64(n-optimalMax)
	}
}
