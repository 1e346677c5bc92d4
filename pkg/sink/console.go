// Package sink holds presentation targets for analysis detail.
package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

// Console prints analysis detail as human-readable text.
type Console struct {
	mu sync.Mutex
	w  io.Writer
	// Comments enables one block per comment. Off, only totals are printed.
	Comments bool
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer, comments bool) *Console {
	return &Console{w: w, Comments: comments}
}

func (c *Console) Comment(_ context.Context, d sentiment.CommentDetail) {
	if !c.Comments {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\nSubreddit Name: %s\n", d.Subreddit)
	fmt.Fprintf(c.w, "Comment: %s\n", d.Normalized)
	fmt.Fprintf(c.w, "Positivity Rating: %g\n", d.Score.Pos)
	fmt.Fprintf(c.w, "Negativity Rating: %g\n", d.Score.Neg)
	fmt.Fprintf(c.w, "Neutral Rating: %g\n", d.Score.Neu)
	fmt.Fprintf(c.w, "Classification: %s\n", d.Class)
}

func (c *Console) Submission(_ context.Context, d sentiment.SubmissionDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\nResults of all comments for submission: %q (%s)\n", d.SubmissionID, d.Subreddit)
	writeShares(c.w, d.Result)
}

func (c *Console) Subreddit(_ context.Context, d sentiment.SubredditDetail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.Result.Sample.Submissions == 0 {
		fmt.Fprintf(c.w, "\nNo submissions were found for the subreddit %s.\n", d.Subreddit)
		return
	}
	fmt.Fprintf(c.w, "\nResults of all comments for: %q\n", d.Subreddit)
	writeShares(c.w, d.Result)
	fmt.Fprintf(c.w, "Total time: %s\n", d.Elapsed)
}

func writeShares(w io.Writer, r sentiment.Result) {
	fmt.Fprintf(w, "Average Positivity: %.2f%%\n", r.Positive*100)
	fmt.Fprintf(w, "Average Negativity: %.2f%%\n", r.Negative*100)
	s := r.Sample
	fmt.Fprintf(w, "Comments: %d (positive %d, negative %d, ignored %d)\n", s.Comments, s.Positive, s.Negative, s.Ignored)
	if s.Interrupted {
		fmt.Fprintln(w, "Warning: retrieval was interrupted, results use a partial sample")
	}
}
