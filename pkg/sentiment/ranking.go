package sentiment

import (
	"context"
	"fmt"
)

// MostPositive returns the subreddit with the highest positive share.
// Ties go to the subreddit listed first.
func (e *Engine) MostPositive(ctx context.Context, subreddits []string, q Query) (Ranking, error) {
	return e.rank(ctx, subreddits, q, func(r Result) float64 { return r.Positive })
}

// MostNegative returns the subreddit with the highest negative share.
// Ties go to the subreddit listed first.
func (e *Engine) MostNegative(ctx context.Context, subreddits []string, q Query) (Ranking, error) {
	return e.rank(ctx, subreddits, q, func(r Result) float64 { return r.Negative })
}

func (e *Engine) rank(ctx context.Context, subreddits []string, q Query, key func(Result) float64) (Ranking, error) {
	if err := q.Validate(); err != nil {
		return Ranking{}, err
	}
	if len(subreddits) == 0 {
		return Ranking{}, fmt.Errorf("%w: no subreddits to rank", ErrInvalidParameter)
	}
	for _, name := range subreddits {
		if name == "" {
			return Ranking{}, fmt.Errorf("%w: empty subreddit name", ErrInvalidParameter)
		}
	}

	var (
		best    *Ranking
		bestKey float64
	)
	for _, name := range subreddits {
		res, err := e.AnalyzeSubreddit(ctx, name, q)
		if err != nil {
			return Ranking{}, fmt.Errorf("rank %s: %w", name, err)
		}
		if best == nil || key(res) > bestKey {
			best = &Ranking{
				Subreddit: name,
				Positive:  res.Positive,
				Negative:  res.Negative,
				Sample:    res.Sample,
			}
			bestKey = key(res)
		}
	}
	if best == nil {
		return Ranking{}, fmt.Errorf("%w: no subreddit ranked", ErrInvalidParameter)
	}
	return *best, nil
}
