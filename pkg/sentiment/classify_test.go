package sentiment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		score     PolarityScore
		class     Classification
		magnitude float64
	}{
		{"strong positive", PolarityScore{Pos: 0.6, Compound: 0.8}, Positive, 0.8},
		{"strong negative", PolarityScore{Neg: 0.7, Compound: -0.7}, Negative, 0.7},
		{"positive threshold", PolarityScore{Pos: 0.1, Neg: 0.1, Compound: 0.05}, Positive, 0.05},
		{"negative threshold", PolarityScore{Pos: 0.1, Neg: 0.1, Compound: -0.05}, Negative, 0.05},
		{"one-sided positive inside band", PolarityScore{Pos: 0.1, Compound: 0.01}, Positive, 0.01},
		{"one-sided negative inside band", PolarityScore{Neg: 0.1, Compound: -0.01}, Negative, 0.01},
		{"all zero", PolarityScore{Neu: 1}, Ignored, 0},
		{"balanced", PolarityScore{Pos: 0.2, Neg: 0.2, Compound: 0.0}, Ignored, 0},
		{"unclamped positive magnitude", PolarityScore{Pos: 0.1, Compound: -0.01}, Positive, -0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, magnitude := Classify(tt.score)
			assert.Equal(t, tt.class, class)
			assert.InDelta(t, tt.magnitude, magnitude, 1e-12)
		})
	}
}

func TestClassifyIsExhaustive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		s := PolarityScore{
			Pos:      rng.Float64(),
			Neg:      rng.Float64(),
			Compound: rng.Float64()*2 - 1,
		}
		// Zero out a side now and then to reach the one-sided clauses.
		switch i % 4 {
		case 1:
			s.Pos = 0
		case 2:
			s.Neg = 0
		}
		class, magnitude := Classify(s)
		switch class {
		case Positive:
			assert.True(t, s.Compound >= Threshold || (s.Neg == 0 && s.Pos > 0))
		case Negative:
			assert.True(t, s.Compound <= -Threshold || (s.Pos == 0 && s.Neg > 0))
			assert.GreaterOrEqual(t, magnitude, 0.0)
		case Ignored:
			assert.Zero(t, magnitude)
		default:
			t.Fatalf("unexpected class %v", class)
		}
	}
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "Positive", Positive.String())
	assert.Equal(t, "Negative", Negative.String())
	assert.Equal(t, "Ignored", Ignored.String())
}
