package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "go_lang", "2024"}, Tokenize("Hello, WORLD! go_lang... 2024"))
	assert.Empty(t, Tokenize("?!  ..."))
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer("english")
	assert.Equal(t, "cat jump", n.Normalize("The cats are jumping!"))
	assert.Equal(t, "", n.Normalize("it is what it is"))
	assert.Equal(t, "", n.Normalize(""))
}

func TestNormalizePorter2Stems(t *testing.T) {
	n := NewNormalizer("english")
	// Classic Porter reduces this to "gener".
	assert.Equal(t, "generous", n.Normalize("generously"))
}

func TestNormalizeExtraStopwords(t *testing.T) {
	n := NewNormalizer("english", "Cats")
	assert.Equal(t, "jump", n.Normalize("The cats are jumping"))
}

func TestVaderPolarity(t *testing.T) {
	v := NewVader()

	good := v.Score("great job, I love it")
	class, _ := sentiment.Classify(good)
	assert.Equal(t, sentiment.Positive, class)
	assert.Greater(t, good.Compound, 0.05)

	bad := v.Score("terrible awful work")
	class, _ = sentiment.Classify(bad)
	assert.Equal(t, sentiment.Negative, class)
	assert.Less(t, bad.Compound, -0.05)

	flat := v.Score("the table by the window")
	class, _ = sentiment.Classify(flat)
	assert.Equal(t, sentiment.Ignored, class)
}
