package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

// Log writes analysis detail as structured log entries. Comments go out at
// debug level, totals at info.
type Log struct {
	log *zap.SugaredLogger
}

func NewLog(log *zap.SugaredLogger) *Log {
	return &Log{log: log}
}

func (l *Log) Comment(_ context.Context, d sentiment.CommentDetail) {
	l.log.Debugw("comment scored",
		"subreddit", d.Subreddit,
		"submission", d.SubmissionID,
		"comment", d.CommentID,
		"pos", d.Score.Pos,
		"neg", d.Score.Neg,
		"neu", d.Score.Neu,
		"compound", d.Score.Compound,
		"class", d.ClassName,
	)
}

func (l *Log) Submission(_ context.Context, d sentiment.SubmissionDetail) {
	l.log.Infow("submission analyzed",
		"subreddit", d.Subreddit,
		"submission", d.SubmissionID,
		"positive", d.Result.Positive,
		"negative", d.Result.Negative,
		"comments", d.Result.Sample.Comments,
		"interrupted", d.Result.Sample.Interrupted,
	)
}

func (l *Log) Subreddit(_ context.Context, d sentiment.SubredditDetail) {
	l.log.Infow("subreddit analyzed",
		"subreddit", d.Subreddit,
		"sort", d.Query.SortingType,
		"positive", d.Result.Positive,
		"negative", d.Result.Negative,
		"submissions", d.Result.Sample.Submissions,
		"comments", d.Result.Sample.Comments,
		"interrupted", d.Result.Sample.Interrupted,
		"elapsed", d.Elapsed,
	)
}
