package sentiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/moodradar/internal/metrics"
	"github.com/elonfeng/moodradar/internal/store"
)

// AnalyzeSubreddit averages the per-submission shares of a subreddit.
// Every submission counts once regardless of how many comments it has;
// the summed shares are then renormalized.
func (e *Engine) AnalyzeSubreddit(ctx context.Context, subreddit string, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if subreddit == "" {
		return Result{}, fmt.Errorf("%w: empty subreddit name", ErrInvalidParameter)
	}

	start := e.opts.Clock.Now()
	res, runs, err := e.analyzeSubreddit(ctx, subreddit, q)
	if err != nil {
		return Result{}, err
	}
	for _, run := range runs {
		run.emit(ctx, e.opts.Sink)
	}

	elapsed := e.opts.Clock.Since(start)
	e.opts.Sink.Subreddit(ctx, SubredditDetail{
		Subreddit: subreddit,
		Query:     q,
		Result:    res,
		Elapsed:   elapsed,
	})
	metrics.AnalysisDuration.WithLabelValues("subreddit").Observe(elapsed.Seconds())
	return res, nil
}

func (e *Engine) analyzeSubreddit(ctx context.Context, subreddit string, q Query) (Result, []*submissionRun, error) {
	ids, interrupted, err := e.distinctSubmissions(ctx, store.Filter{
		Subreddit:   subreddit,
		SortingType: q.sortFilter(),
	})
	if err != nil {
		return Result{}, nil, err
	}
	if len(ids) == 0 {
		return Result{Sample: Sample{Interrupted: interrupted}}, nil, nil
	}
	// Truncation follows store order, which is first-ingested.
	if q.MaxSubmissions > 0 && len(ids) > q.MaxSubmissions {
		ids = ids[:q.MaxSubmissions]
	}

	runs := make([]*submissionRun, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.SubmissionConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			run, err := e.analyzeSubmission(gctx, id, q)
			if err != nil {
				return fmt.Errorf("analyze submission %s: %w", id, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, nil, err
	}

	var (
		pos, neg float64
		sample   = Sample{Interrupted: interrupted}
	)
	for _, run := range runs {
		pos += run.result.Positive
		neg += run.result.Negative
		sample.add(run.result.Sample)
	}

	res := Result{Sample: sample}
	res.Positive, res.Negative = shares(pos, neg)
	return res, runs, nil
}
