package normalize

import (
	"math"

	"github.com/agrolink-ro/supplier-docs/constants"
)

// Level boundaries. Review-queue sorting in the back office depends on these
// exact values; do not tune them without migrating stored results.
const (
	HighThreshold   = 90.0
	MediumThreshold = 70.0
)

// OverallConfidence is the arithmetic mean of the confidences of exactly the
// fields the provider populated. No fields → 0. The mean is kept unrounded so
// that LevelFor stays a pure function of the stored value (89.999 is medium,
// not high).
func OverallConfidence(confidences map[string]float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

// LevelFor classifies an overall confidence: ≥90 high, ≥70 medium, else low.
func LevelFor(overall float64) constants.ConfidenceLevel {
	switch {
	case overall >= HighThreshold:
		return constants.ConfidenceHigh
	case overall >= MediumThreshold:
		return constants.ConfidenceMedium
	default:
		return constants.ConfidenceLow
	}
}

// clampConfidence forces a provider-reported confidence into 0..100.
func clampConfidence(c float64) (float64, bool) {
	if math.IsNaN(c) {
		return 0, true
	}
	if c < 0 {
		return 0, true
	}
	if c > 100 {
		return 100, true
	}
	return c, false
}
