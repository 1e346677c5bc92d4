package sentiment

import (
	"context"
	"sync"

	"github.com/elonfeng/moodradar/internal/store"
	"github.com/elonfeng/moodradar/pkg/source"
)

// fakeStore serves comments from memory and counts calls.
type fakeStore struct {
	mu          sync.Mutex
	comments    []source.Comment
	findCalls   map[string]int
	distinct    int
	findErr     map[string]error
	distinctErr error
	// block makes Find wait for ctx to end.
	block bool
}

func newFakeStore(comments ...source.Comment) *fakeStore {
	return &fakeStore{
		comments:  comments,
		findCalls: make(map[string]int),
		findErr:   make(map[string]error),
	}
}

func (f *fakeStore) Find(ctx context.Context, flt store.Filter) ([]source.Comment, error) {
	f.mu.Lock()
	f.findCalls[flt.SubmissionID]++
	err := f.findErr[flt.SubmissionID]
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	var out []source.Comment
	for _, c := range f.comments {
		if flt.SubmissionID != "" && c.SubmissionID != flt.SubmissionID {
			continue
		}
		if flt.SortingType != "" && c.SortingType != flt.SortingType {
			continue
		}
		out = append(out, c)
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
	}
	if err != nil {
		// Simulate losing the cursor after the first row.
		if len(out) > 1 {
			out = out[:1]
		}
		return out, err
	}
	return out, nil
}

func (f *fakeStore) Distinct(ctx context.Context, field store.Field, flt store.Filter) ([]string, error) {
	f.mu.Lock()
	f.distinct++
	f.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, c := range f.comments {
		if flt.Subreddit != "" && c.Subreddit != flt.Subreddit {
			continue
		}
		if flt.SortingType != "" && c.SortingType != flt.SortingType {
			continue
		}
		if c.SubmissionID == "" || seen[c.SubmissionID] {
			continue
		}
		seen[c.SubmissionID] = true
		out = append(out, c.SubmissionID)
	}
	if f.distinctErr != nil {
		if len(out) > 1 {
			out = out[:1]
		}
		return out, f.distinctErr
	}
	return out, nil
}

func (f *fakeStore) totalFinds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.findCalls {
		n += c
	}
	return n
}

// identity leaves text untouched.
type identity struct{}

func (identity) Normalize(text string) string { return text }

// tableScorer looks scores up by text. Unknown text scores all zero.
type tableScorer map[string]PolarityScore

func (t tableScorer) Score(text string) PolarityScore { return t[text] }

// recordingSink keeps everything it is sent.
type recordingSink struct {
	mu          sync.Mutex
	comments    []CommentDetail
	submissions []SubmissionDetail
	subreddits  []SubredditDetail
}

func (r *recordingSink) Comment(_ context.Context, d CommentDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, d)
}

func (r *recordingSink) Submission(_ context.Context, d SubmissionDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, d)
}

func (r *recordingSink) Subreddit(_ context.Context, d SubredditDetail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subreddits = append(r.subreddits, d)
}

func comment(id, submission, subreddit, body string, sort source.SortingType) source.Comment {
	return source.Comment{ID: id, SubmissionID: submission, Subreddit: subreddit, Body: body, SortingType: sort}
}

var scores = tableScorer{
	"great job":     {Pos: 0.6, Neu: 0.4, Compound: 0.8},
	"terrible work": {Neg: 0.7, Neu: 0.3, Compound: -0.7},
	"meh":           {Neu: 1},
	"love":          {Pos: 1, Compound: 1},
	"hate":          {Neg: 1, Compound: -1},
	"slightly up":   {Pos: 0.1, Neu: 0.9, Compound: 0.01},
	"slightly down": {Neg: 0.1, Neu: 0.9, Compound: -0.01},
	"mixed":         {Pos: 0.2, Neg: 0.2, Neu: 0.6, Compound: 0.0},
}
