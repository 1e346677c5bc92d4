package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/moodradar/pkg/source"
)

// rankingStore gives subreddit a a 0.9 positive share and b a 0.4 one.
func rankingStore() *fakeStore {
	return newFakeStore(
		comment("a1", "sa", "a", "pos9", source.SortHot),
		comment("a2", "sa", "a", "neg1", source.SortHot),
		comment("b1", "sb", "b", "pos4", source.SortHot),
		comment("b2", "sb", "b", "neg6", source.SortHot),
	)
}

var rankingScores = tableScorer{
	"pos9": {Pos: 1, Compound: 0.9},
	"neg1": {Neg: 1, Compound: -0.1},
	"pos4": {Pos: 1, Compound: 0.4},
	"neg6": {Neg: 1, Compound: -0.6},
}

func TestMostPositive(t *testing.T) {
	e := NewEngine(rankingStore(), identity{}, rankingScores, Options{})

	r, err := e.MostPositive(context.Background(), []string{"a", "b"}, Query{})
	require.NoError(t, err)
	assert.Equal(t, "a", r.Subreddit)
	assert.InDelta(t, 0.9, r.Positive, 1e-9)
	assert.InDelta(t, 0.1, r.Negative, 1e-9)
}

func TestMostNegative(t *testing.T) {
	e := NewEngine(rankingStore(), identity{}, rankingScores, Options{})

	r, err := e.MostNegative(context.Background(), []string{"a", "b"}, Query{})
	require.NoError(t, err)
	assert.Equal(t, "b", r.Subreddit)
	assert.InDelta(t, 0.6, r.Negative, 1e-9)
}

func TestRankingTiesGoToFirstSeen(t *testing.T) {
	e := NewEngine(rankingStore(), identity{}, rankingScores, Options{})
	ctx := context.Background()

	r, err := e.MostPositive(ctx, []string{"b", "b2", "a", "a"}, Query{})
	require.NoError(t, err)
	assert.Equal(t, "a", r.Subreddit)

	// Unknown subreddits all score zero, so the first one wins.
	r, err = e.MostNegative(ctx, []string{"x", "y"}, Query{})
	require.NoError(t, err)
	assert.Equal(t, "x", r.Subreddit)
	assert.Zero(t, r.Negative)
}

func TestRankingInvalidInput(t *testing.T) {
	st := rankingStore()
	e := NewEngine(st, identity{}, rankingScores, Options{})
	ctx := context.Background()

	_, err := e.MostPositive(ctx, nil, Query{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.MostNegative(ctx, []string{}, Query{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.MostPositive(ctx, []string{"a", ""}, Query{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = e.MostPositive(ctx, []string{"a"}, Query{MaxComments: -1})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	assert.Zero(t, st.distinct)
}
