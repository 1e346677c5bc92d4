package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/moodradar/internal/metrics"
	"github.com/elonfeng/moodradar/pkg/source"
)

// ErrCursorLost is returned, together with the rows read so far, when a
// result set fails part way through iteration.
var ErrCursorLost = errors.New("cursor lost")

// Field names a filterable comment field.
type Field string

const (
	FieldSubmissionID  Field = "submission_id"
	FieldSubredditName Field = "subreddit_name"
	FieldSortingType   Field = "sorting_type"
)

// Filter holds exact-match constraints. Empty fields match everything.
type Filter struct {
	SubmissionID string
	Subreddit    string
	SortingType  source.SortingType
	// Limit caps Find results. 0 is unbounded.
	Limit int
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.SubmissionID != "" {
		conds = append(conds, "submission_id = ?")
		args = append(args, f.SubmissionID)
	}
	if f.Subreddit != "" {
		conds = append(conds, "subreddit_name = ?")
		args = append(args, f.Subreddit)
	}
	if f.SortingType != "" {
		conds = append(conds, "sorting_type = ?")
		args = append(args, string(f.SortingType))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Report is a persisted subreddit analysis.
type Report struct {
	ID          string    `db:"id" json:"id"`
	Subreddit   string    `db:"subreddit" json:"subreddit"`
	SortingType string    `db:"sorting_type" json:"sorting_type"`
	Positive    float64   `db:"positive" json:"positive"`
	Negative    float64   `db:"negative" json:"negative"`
	Comments    int       `db:"comments" json:"comments"`
	Submissions int       `db:"submissions" json:"submissions"`
	Interrupted bool      `db:"interrupted" json:"interrupted"`
	Alerted     bool      `db:"alerted" json:"alerted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ReportListOpts controls report listing.
type ReportListOpts struct {
	Subreddit string
	Since     time.Time
	Limit     int
}

// Store is the persistence interface.
type Store interface {
	UpsertComment(ctx context.Context, c *source.Comment) error
	UpsertComments(ctx context.Context, cs []source.Comment) error
	Find(ctx context.Context, f Filter) ([]source.Comment, error)
	Distinct(ctx context.Context, field Field, f Filter) ([]string, error)
	CountBySubreddit(ctx context.Context) (map[string]int, error)

	SaveReport(ctx context.Context, r *Report) error
	ListReports(ctx context.Context, opts ReportListOpts) ([]Report, error)
	MarkAlerted(ctx context.Context, reportID string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

// New opens a SQLite database and runs migrations.
func New(path string, log *zap.SugaredLogger) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertComment(ctx context.Context, c *source.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.SortingType == "" {
		c.SortingType = source.SortNone
	}
	if c.CollectedAt.IsZero() {
		c.CollectedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode comment %s: %w", c.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO comments (id, sorting_type, submission_id, subreddit_name, doc, collected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, sorting_type) DO UPDATE SET
			submission_id = excluded.submission_id,
			subreddit_name = excluded.subreddit_name,
			doc = excluded.doc,
			collected_at = excluded.collected_at
	`, c.ID, string(c.SortingType), c.SubmissionID, c.Subreddit, string(doc), c.CollectedAt)
	if err != nil {
		return fmt.Errorf("upsert comment %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) UpsertComments(ctx context.Context, cs []source.Comment) error {
	for i := range cs {
		if err := s.UpsertComment(ctx, &cs[i]); err != nil {
			return err
		}
	}
	return nil
}

// document is the stored comment shape. Required fields are pointers so a
// missing field can be told apart from an empty one.
type document struct {
	ID           *string   `json:"id"`
	Body         *string   `json:"body"`
	SubmissionID *string   `json:"submission"`
	Subreddit    *string   `json:"subreddit_name"`
	SortingType  *string   `json:"sorting_type"`
	Author       string    `json:"author"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
	CollectedAt  time.Time `json:"collected_at"`
}

func (d *document) comment() (source.Comment, error) {
	if d.Body == nil {
		return source.Comment{}, errors.New("missing body")
	}
	c := source.Comment{
		Body:        *d.Body,
		Author:      d.Author,
		Score:       d.Score,
		CreatedAt:   d.CreatedAt,
		CollectedAt: d.CollectedAt,
		SortingType: source.SortNone,
	}
	if d.ID != nil {
		c.ID = *d.ID
	}
	if d.SubmissionID != nil {
		c.SubmissionID = *d.SubmissionID
	}
	if d.Subreddit != nil {
		c.Subreddit = *d.Subreddit
	}
	if d.SortingType != nil && *d.SortingType != "" {
		c.SortingType = source.SortingType(*d.SortingType)
		if !c.SortingType.Valid() {
			return source.Comment{}, fmt.Errorf("invalid sorting type %q", *d.SortingType)
		}
	}
	return c, nil
}

// Find returns matching comments in insertion order. Malformed documents are
// skipped and logged, and do not count toward f.Limit. If iteration fails
// midway the comments read so far are returned with ErrCursorLost.
func (s *SQLiteStore) Find(ctx context.Context, f Filter) ([]source.Comment, error) {
	where, args := f.where()
	query := "SELECT seq, doc FROM comments" + where + " ORDER BY seq"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer rows.Close()

	var out []source.Comment
	for (f.Limit <= 0 || len(out) < f.Limit) && rows.Next() {
		var (
			seq int64
			raw string
		)
		if err := rows.Scan(&seq, &raw); err != nil {
			return out, fmt.Errorf("%w: scan comment: %w", ErrCursorLost, err)
		}
		var d document
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			s.malformed(seq, err)
			continue
		}
		c, err := d.comment()
		if err != nil {
			s.malformed(seq, err)
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("%w: %w", ErrCursorLost, err)
	}
	return out, nil
}

func (s *SQLiteStore) malformed(seq int64, err error) {
	metrics.MalformedRecords.Inc()
	s.log.Warnw("skipping malformed comment document", "seq", seq, "error", err)
}

// Distinct returns the non-empty values of field among matching comments,
// ordered by first appearance.
func (s *SQLiteStore) Distinct(ctx context.Context, field Field, f Filter) ([]string, error) {
	switch field {
	case FieldSubmissionID, FieldSubredditName, FieldSortingType:
	default:
		return nil, fmt.Errorf("distinct: unknown field %q", field)
	}

	where, args := f.where()
	cond := fmt.Sprintf("%s != ''", field)
	if where == "" {
		where = " WHERE " + cond
	} else {
		where += " AND " + cond
	}
	query := fmt.Sprintf("SELECT %s FROM comments%s GROUP BY %s ORDER BY MIN(seq)", field, where, field)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return out, fmt.Errorf("%w: scan %s: %w", ErrCursorLost, field, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("%w: %w", ErrCursorLost, err)
	}
	return out, nil
}

func (s *SQLiteStore) CountBySubreddit(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT subreddit_name, COUNT(*) AS cnt FROM comments WHERE subreddit_name != '' GROUP BY subreddit_name")
	if err != nil {
		return nil, fmt.Errorf("count comments by subreddit: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var cnt int
		if err := rows.Scan(&name, &cnt); err != nil {
			return nil, err
		}
		counts[name] = cnt
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, r *Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.SortingType == "" {
		r.SortingType = string(source.SortNone)
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO reports (id, subreddit, sorting_type, positive, negative, comments, submissions, interrupted, alerted, created_at)
		VALUES (:id, :subreddit, :sorting_type, :positive, :negative, :comments, :submissions, :interrupted, :alerted, :created_at)
	`, r)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.Subreddit, err)
	}
	return nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, opts ReportListOpts) ([]Report, error) {
	query := "SELECT * FROM reports WHERE 1=1"
	var args []any

	if opts.Subreddit != "" {
		query += " AND subreddit = ?"
		args = append(args, opts.Subreddit)
	}
	if !opts.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var reports []Report
	if err := s.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, reportID string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE reports SET alerted = 1 WHERE id = ?", reportID)
	if err != nil {
		return fmt.Errorf("mark alerted %s: %w", reportID, err)
	}
	return nil
}
