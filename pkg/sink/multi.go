package sink

import (
	"context"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

// Multi fans detail out to several sinks in order.
type Multi []sentiment.Sink

func (m Multi) Comment(ctx context.Context, d sentiment.CommentDetail) {
	for _, s := range m {
		s.Comment(ctx, d)
	}
}

func (m Multi) Submission(ctx context.Context, d sentiment.SubmissionDetail) {
	for _, s := range m {
		s.Submission(ctx, d)
	}
}

func (m Multi) Subreddit(ctx context.Context, d sentiment.SubredditDetail) {
	for _, s := range m {
		s.Subreddit(ctx, d)
	}
}
