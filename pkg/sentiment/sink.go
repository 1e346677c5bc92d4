package sentiment

import (
	"context"
	"time"
)

// NoSubreddit labels comments whose subreddit is unknown.
const NoSubreddit = "NONE"

// CommentDetail is emitted once per analyzed comment.
type CommentDetail struct {
	CommentID    string         `json:"comment_id"`
	SubmissionID string         `json:"submission_id"`
	Subreddit    string         `json:"subreddit"`
	Normalized   string         `json:"normalized"`
	Score        PolarityScore  `json:"score"`
	Class        Classification `json:"-"`
	ClassName    string         `json:"class"`
	Magnitude    float64        `json:"magnitude"`
}

// SubmissionDetail is emitted after a submission is folded.
type SubmissionDetail struct {
	SubmissionID string `json:"submission_id"`
	Subreddit    string `json:"subreddit"`
	Result       Result `json:"result"`
}

// SubredditDetail is emitted after a subreddit is folded.
type SubredditDetail struct {
	Subreddit string        `json:"subreddit"`
	Query     Query         `json:"query"`
	Result    Result        `json:"result"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Sink receives analysis detail for presentation. Within one analysis call
// details arrive sequentially in retrieval order. Concurrent calls may share
// a sink, so implementations must be safe for concurrent use.
type Sink interface {
	Comment(ctx context.Context, d CommentDetail)
	Submission(ctx context.Context, d SubmissionDetail)
	Subreddit(ctx context.Context, d SubredditDetail)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Comment(context.Context, CommentDetail)       {}
func (NopSink) Submission(context.Context, SubmissionDetail) {}
func (NopSink) Subreddit(context.Context, SubredditDetail)   {}
