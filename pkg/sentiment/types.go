package sentiment

import (
	"fmt"

	"github.com/elonfeng/moodradar/pkg/source"
)

// PolarityScore is the output of a polarity model for one comment.
type PolarityScore struct {
	Pos      float64 `json:"pos"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Compound float64 `json:"compound"`
}

// Classification is the bucket a scored comment falls into.
type Classification int

const (
	Ignored Classification = iota
	Positive
	Negative
)

func (c Classification) String() string {
	switch c {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return "Ignored"
	}
}

// Sample describes the comments behind a Result.
type Sample struct {
	Comments    int `json:"comments"`
	Positive    int `json:"positive"`
	Negative    int `json:"negative"`
	Ignored     int `json:"ignored"`
	Submissions int `json:"submissions"`
	// Interrupted is set when a retrieval ended early and the result was
	// computed from a partial sample.
	Interrupted bool `json:"interrupted"`
}

func (s *Sample) add(o Sample) {
	s.Comments += o.Comments
	s.Positive += o.Positive
	s.Negative += o.Negative
	s.Ignored += o.Ignored
	s.Submissions += o.Submissions
	s.Interrupted = s.Interrupted || o.Interrupted
}

// Result holds the positive and negative shares of polarized signal.
// Positive+Negative is 1 unless both are 0, which means nothing polarized was found.
type Result struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Sample   Sample  `json:"sample"`
}

// IsZero reports whether r is the empty result.
func (r Result) IsZero() bool {
	return r.Positive == 0 && r.Negative == 0
}

// Ranking is the winning subreddit of a MostPositive or MostNegative call.
type Ranking struct {
	Subreddit string  `json:"subreddit"`
	Positive  float64 `json:"positive"`
	Negative  float64 `json:"negative"`
	Sample    Sample  `json:"sample"`
}

// Query bounds an analysis.
type Query struct {
	// SortingType restricts comments to one listing. Empty or none means all.
	SortingType source.SortingType `json:"sorting_type,omitempty"`
	// MaxComments caps comments per submission. 0 is unbounded.
	MaxComments int `json:"max_comments,omitempty"`
	// MaxSubmissions caps submissions per subreddit. 0 is unbounded.
	MaxSubmissions int `json:"max_submissions,omitempty"`
}

// Validate checks q without touching the store.
func (q Query) Validate() error {
	if !q.SortingType.Valid() {
		return fmt.Errorf("%w: sorting type %q", ErrInvalidParameter, q.SortingType)
	}
	if q.MaxComments < 0 {
		return fmt.Errorf("%w: max comments %d is negative", ErrInvalidParameter, q.MaxComments)
	}
	if q.MaxSubmissions < 0 {
		return fmt.Errorf("%w: max submissions %d is negative", ErrInvalidParameter, q.MaxSubmissions)
	}
	return nil
}

// sortFilter returns the sorting type to filter on, or "" for no filter.
func (q Query) sortFilter() source.SortingType {
	if q.SortingType.Filtered() {
		return q.SortingType
	}
	return ""
}

// shares renormalizes two magnitudes into shares of their sum.
func shares(pos, neg float64) (float64, float64) {
	total := pos + neg
	if total == 0 {
		return 0, 0
	}
	return pos / total, neg / total
}
