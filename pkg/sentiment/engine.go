package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/moodradar/internal/metrics"
	"github.com/elonfeng/moodradar/internal/store"
	"github.com/elonfeng/moodradar/pkg/source"
)

// CommentStore is the read side of the comment store.
type CommentStore interface {
	// Find returns matching comments in store order. It may return a prefix
	// together with store.ErrCursorLost.
	Find(ctx context.Context, f store.Filter) ([]source.Comment, error)
	// Distinct returns the unique values of field among matching comments.
	Distinct(ctx context.Context, field store.Field, f store.Filter) ([]string, error)
}

// Normalizer turns a raw comment body into the text the scorer sees.
type Normalizer interface {
	Normalize(text string) string
}

// Scorer computes polarity scores for normalized text.
type Scorer interface {
	Score(text string) PolarityScore
}

// Options tunes an Engine. Zero values pick defaults.
type Options struct {
	// Workers bounds concurrent normalize+score calls per submission.
	Workers int
	// SubmissionConcurrency bounds concurrent submission analyses per subreddit.
	SubmissionConcurrency int
	// RetrievalTimeout bounds every store call. Hitting it degrades the
	// sample instead of failing the analysis.
	RetrievalTimeout time.Duration
	Sink             Sink
	Logger           *zap.SugaredLogger
	Clock            clockwork.Clock
}

// Engine aggregates comment sentiment at submission and subreddit level.
type Engine struct {
	store      CommentStore
	normalizer Normalizer
	scorer     Scorer
	opts       Options
	log        *zap.SugaredLogger
}

// NewEngine creates an aggregation engine over the given collaborators.
func NewEngine(s CommentStore, n Normalizer, sc Scorer, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.SubmissionConcurrency <= 0 {
		opts.SubmissionConcurrency = 4
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = 30 * time.Second
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Engine{
		store:      s,
		normalizer: n,
		scorer:     sc,
		opts:       opts,
		log:        opts.Logger,
	}
}

// submissionRun is one folded submission plus the detail it emits.
type submissionRun struct {
	result   Result
	comments []CommentDetail
	detail   SubmissionDetail
}

func (r *submissionRun) emit(ctx context.Context, sink Sink) {
	for _, c := range r.comments {
		sink.Comment(ctx, c)
	}
	sink.Submission(ctx, r.detail)
}

// AnalyzeSubmission returns the positive and negative shares of polarized
// signal among a submission's comments. A submission with nothing polarized
// returns the zero Result.
func (e *Engine) AnalyzeSubmission(ctx context.Context, submissionID string, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if submissionID == "" {
		return Result{}, fmt.Errorf("%w: empty submission id", ErrInvalidParameter)
	}

	start := e.opts.Clock.Now()
	run, err := e.analyzeSubmission(ctx, submissionID, q)
	if err != nil {
		return Result{}, err
	}
	run.emit(ctx, e.opts.Sink)
	metrics.AnalysisDuration.WithLabelValues("submission").Observe(e.opts.Clock.Since(start).Seconds())
	return run.result, nil
}

func (e *Engine) analyzeSubmission(ctx context.Context, submissionID string, q Query) (*submissionRun, error) {
	comments, interrupted, err := e.find(ctx, store.Filter{
		SubmissionID: submissionID,
		SortingType:  q.sortFilter(),
		Limit:        q.MaxComments,
	})
	if err != nil {
		return nil, err
	}

	scores, normalized, err := e.score(ctx, comments)
	if err != nil {
		return nil, err
	}

	// Reduce in retrieval order so the float sums are reproducible.
	var (
		pos, neg float64
		sample   = Sample{Comments: len(comments), Submissions: 1, Interrupted: interrupted}
		details  = make([]CommentDetail, len(comments))
	)
	for i, c := range comments {
		class, magnitude := Classify(scores[i])
		switch class {
		case Positive:
			pos += magnitude
			sample.Positive++
		case Negative:
			neg += magnitude
			sample.Negative++
		default:
			sample.Ignored++
		}
		metrics.CommentsClassified.WithLabelValues(class.String()).Inc()

		details[i] = CommentDetail{
			CommentID:    c.ID,
			SubmissionID: submissionID,
			Subreddit:    subredditLabel(c.Subreddit),
			Normalized:   normalized[i],
			Score:        scores[i],
			Class:        class,
			ClassName:    class.String(),
			Magnitude:    magnitude,
		}
	}

	res := Result{Sample: sample}
	res.Positive, res.Negative = shares(pos, neg)

	subreddit := NoSubreddit
	if len(comments) > 0 {
		subreddit = subredditLabel(comments[0].Subreddit)
	}
	return &submissionRun{
		result:   res,
		comments: details,
		detail: SubmissionDetail{
			SubmissionID: submissionID,
			Subreddit:    subreddit,
			Result:       res,
		},
	}, nil
}

// score normalizes and scores comments on a bounded pool. Each worker writes
// only its own slot.
func (e *Engine) score(ctx context.Context, comments []source.Comment) ([]PolarityScore, []string, error) {
	scores := make([]PolarityScore, len(comments))
	normalized := make([]string, len(comments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range comments {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			normalized[i] = e.normalizer.Normalize(comments[i].Body)
			scores[i] = e.scorer.Score(normalized[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return scores, normalized, nil
}

func (e *Engine) find(ctx context.Context, f store.Filter) ([]source.Comment, bool, error) {
	rctx, cancel := context.WithTimeout(ctx, e.opts.RetrievalTimeout)
	defer cancel()

	comments, err := e.store.Find(rctx, f)
	interrupted, err := e.retrievalError(ctx, "find", err)
	if err != nil {
		return nil, false, err
	}
	if interrupted {
		e.log.Warnw("comment retrieval interrupted, using partial sample",
			"submission", f.SubmissionID, "retrieved", len(comments))
	}
	return comments, interrupted, nil
}

func (e *Engine) distinctSubmissions(ctx context.Context, f store.Filter) ([]string, bool, error) {
	rctx, cancel := context.WithTimeout(ctx, e.opts.RetrievalTimeout)
	defer cancel()

	ids, err := e.store.Distinct(rctx, store.FieldSubmissionID, f)
	interrupted, err := e.retrievalError(ctx, "distinct", err)
	if err != nil {
		return nil, false, err
	}
	if interrupted {
		e.log.Warnw("submission retrieval interrupted, using partial sample",
			"subreddit", f.Subreddit, "retrieved", len(ids))
	}
	return ids, interrupted, nil
}

// retrievalError separates recoverable interruptions from real failures.
// A lost cursor or an expired retrieval deadline keeps the prefix read so far;
// cancellation of the caller's context does not.
func (e *Engine) retrievalError(ctx context.Context, op string, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(err, store.ErrCursorLost) || errors.Is(err, context.DeadlineExceeded) {
		metrics.RetrievalInterruptions.WithLabelValues(op).Inc()
		return true, nil
	}
	return false, fmt.Errorf("%s comments: %w", op, err)
}

func subredditLabel(name string) string {
	if name == "" {
		return NoSubreddit
	}
	return name
}
