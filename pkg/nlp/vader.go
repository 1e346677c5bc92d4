package nlp

import (
	"github.com/jonreiter/govader"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

// Vader scores text with the VADER lexicon. The analyzer only reads its
// lexicon after construction, so one Vader can serve many goroutines.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the polarity scores of text.
func (v *Vader) Score(text string) sentiment.PolarityScore {
	s := v.analyzer.PolarityScores(text)
	return sentiment.PolarityScore{
		Pos:      s.Positive,
		Neg:      s.Negative,
		Neu:      s.Neutral,
		Compound: s.Compound,
	}
}
