package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SortingType is the Reddit listing a comment was collected under.
type SortingType string

const (
	SortNone SortingType = "none"
	SortHot  SortingType = "hot"
	SortTop  SortingType = "top"
	SortNew  SortingType = "new"
)

// Valid reports whether s is a known sorting type. The empty value means none.
func (s SortingType) Valid() bool {
	switch s {
	case "", SortNone, SortHot, SortTop, SortNew:
		return true
	}
	return false
}

// Filtered reports whether queries should be restricted to s.
func (s SortingType) Filtered() bool {
	return s == SortHot || s == SortTop || s == SortNew
}

// ParseSortingType parses user input such as "hot" or "none".
func ParseSortingType(v string) (SortingType, error) {
	st := SortingType(strings.ToLower(strings.TrimSpace(v)))
	if st == "" {
		return SortNone, nil
	}
	if !st.Valid() {
		return "", fmt.Errorf("unknown sorting type %q (want hot, top, new or none)", v)
	}
	return st, nil
}

// AllSortingTypes returns the filtered sorting types collectors can walk.
func AllSortingTypes() []SortingType {
	return []SortingType{SortHot, SortTop, SortNew}
}

// Comment is a single Reddit comment as stored in the document store.
// JSON names follow the stored document layout.
type Comment struct {
	ID           string      `json:"id"`
	Body         string      `json:"body"`
	SubmissionID string      `json:"submission"`
	Subreddit    string      `json:"subreddit_name"`
	SortingType  SortingType `json:"sorting_type"`
	Author       string      `json:"author,omitempty"`
	Score        int         `json:"score"`
	CreatedAt    time.Time   `json:"created_at"`
	CollectedAt  time.Time   `json:"collected_at"`
}

// Collector is the interface every comment collector must implement.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]Comment, error)
}
