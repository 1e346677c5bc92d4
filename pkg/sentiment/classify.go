package sentiment

import "math"

// Threshold is the compound score beyond which a comment leans one way.
const Threshold = 0.05

// Classify buckets a score and returns the magnitude it contributes.
// The positive rule is checked first. Ignored comments have magnitude 0.
func Classify(s PolarityScore) (Classification, float64) {
	if s.Compound >= Threshold || (s.Neg == 0 && s.Pos > 0) {
		return Positive, s.Compound
	}
	if s.Compound <= -Threshold || (s.Pos == 0 && s.Neg > 0) {
		return Negative, math.Abs(s.Compound)
	}
	return Ignored, 0
}
