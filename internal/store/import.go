package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/elonfeng/moodradar/pkg/source"
)

// ImportStats summarizes an import run.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// exportedDoc is one document of a mongoexport dump. _id is either an
// ObjectId wrapper or a plain string.
type exportedDoc struct {
	MongoID     json.RawMessage `json:"_id"`
	ID          string          `json:"id"`
	Body        *string         `json:"body"`
	Submission  string          `json:"submission"`
	Subreddit   string          `json:"subreddit_name"`
	SortingType string          `json:"sorting_type"`
	Author      string          `json:"author"`
	Score       int             `json:"score"`
}

func (d *exportedDoc) id() string {
	if d.ID != "" {
		return d.ID
	}
	if len(d.MongoID) > 0 {
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(d.MongoID, &oid); err == nil && oid.OID != "" {
			return oid.OID
		}
		var plain string
		if err := json.Unmarshal(d.MongoID, &plain); err == nil && plain != "" {
			return plain
		}
	}
	return uuid.NewString()
}

// ImportDocuments loads a stream of JSON comment documents, one after
// another as mongoexport writes them. Documents without a body or with an
// unknown sorting type are skipped.
func (s *SQLiteStore) ImportDocuments(ctx context.Context, r io.Reader) (ImportStats, error) {
	var stats ImportStats
	dec := json.NewDecoder(r)
	now := time.Now().UTC()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var d exportedDoc
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("decode document %d: %w", stats.Imported+stats.Skipped+1, err)
		}

		sort := source.SortingType(d.SortingType)
		if sort == "" {
			sort = source.SortNone
		}
		if d.Body == nil || !sort.Valid() {
			stats.Skipped++
			s.log.Warnw("skipping malformed import document", "id", d.ID, "sorting_type", d.SortingType)
			continue
		}

		c := source.Comment{
			ID:           d.id(),
			Body:         *d.Body,
			SubmissionID: d.Submission,
			Subreddit:    d.Subreddit,
			SortingType:  sort,
			Author:       d.Author,
			Score:        d.Score,
			CollectedAt:  now,
		}
		if err := s.UpsertComment(ctx, &c); err != nil {
			return stats, err
		}
		stats.Imported++
	}
}
