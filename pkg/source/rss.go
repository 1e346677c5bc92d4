package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const redditWebURL = "https://www.reddit.com"

// RSSOptions configures the credential-free Reddit RSS collector.
type RSSOptions struct {
	UserAgent         string
	Subreddits        []string
	SortingTypes      []SortingType
	PostLimit         int
	RequestsPerMinute int

	// BaseURL defaults to www.reddit.com.
	BaseURL string
}

// RSS collects comments from Reddit's public Atom feeds. It needs no
// credentials but only sees the most recent comments of each submission.
type RSS struct {
	opts   RSSOptions
	http   *fetcher
	parser *gofeed.Parser
	log    *zap.SugaredLogger
}

// NewRSS creates a new RSS collector.
func NewRSS(opts RSSOptions, log *zap.SugaredLogger) *RSS {
	if len(opts.SortingTypes) == 0 {
		opts.SortingTypes = AllSortingTypes()
	}
	if opts.PostLimit <= 0 {
		opts.PostLimit = 25
	}
	if opts.BaseURL == "" {
		opts.BaseURL = redditWebURL
	}
	// Reddit throttles anonymous feed readers harder than OAuth clients.
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 10
	}
	return &RSS{
		opts:   opts,
		http:   newFetcher("rss", opts.UserAgent, opts.RequestsPerMinute),
		parser: gofeed.NewParser(),
		log:    log,
	}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Collect(ctx context.Context) ([]Comment, error) {
	var all []Comment
	for _, sub := range r.opts.Subreddits {
		for _, sort := range r.opts.SortingTypes {
			comments, err := r.collectFeed(ctx, sub, sort)
			if err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				r.log.Warnw("rss feed failed", "subreddit", sub, "sort", sort, "error", err)
				continue
			}
			all = append(all, comments...)
		}
	}
	return all, nil
}

func (r *RSS) parse(ctx context.Context, url string) (*gofeed.Feed, error) {
	body, err := r.http.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	feed, err := r.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	return feed, nil
}

func (r *RSS) collectFeed(ctx context.Context, subreddit string, sort SortingType) ([]Comment, error) {
	feed, err := r.parse(ctx, fmt.Sprintf("%s/r/%s/%s/.rss?limit=%d", r.opts.BaseURL, subreddit, sort, r.opts.PostLimit))
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s/%s feed: %w", subreddit, sort, err)
	}

	var comments []Comment
	for _, entry := range feed.Items {
		id, ok := thingID(entry, "t3_")
		if !ok {
			continue
		}
		cs, err := r.collectComments(ctx, subreddit, id, sort)
		if err != nil {
			if ctx.Err() != nil {
				return comments, ctx.Err()
			}
			r.log.Warnw("rss comments failed", "subreddit", subreddit, "submission", id, "error", err)
			continue
		}
		comments = append(comments, cs...)
	}
	return comments, nil
}

func (r *RSS) collectComments(ctx context.Context, subreddit, submissionID string, sort SortingType) ([]Comment, error) {
	feed, err := r.parse(ctx, fmt.Sprintf("%s/r/%s/comments/%s/.rss", r.opts.BaseURL, subreddit, submissionID))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var out []Comment
	for _, entry := range feed.Items {
		// The submission itself is the first entry and carries a t3_ id.
		id, ok := thingID(entry, "t1_")
		if !ok {
			continue
		}
		body := htmlText(entry.Content)
		if body == "" {
			continue
		}

		c := Comment{
			ID:           id,
			Body:         body,
			SubmissionID: submissionID,
			Subreddit:    subreddit,
			SortingType:  sort,
			CollectedAt:  now,
		}
		if entry.Author != nil {
			c.Author = strings.TrimPrefix(entry.Author.Name, "/u/")
		}
		switch {
		case entry.PublishedParsed != nil:
			c.CreatedAt = entry.PublishedParsed.UTC()
		case entry.UpdatedParsed != nil:
			c.CreatedAt = entry.UpdatedParsed.UTC()
		}
		out = append(out, c)
	}
	return out, nil
}

// thingID extracts the bare id from a feed entry whose GUID has the given kind prefix.
func thingID(entry *gofeed.Item, prefix string) (string, bool) {
	guid := entry.GUID
	if !strings.HasPrefix(guid, prefix) {
		return "", false
	}
	return strings.TrimPrefix(guid, prefix), true
}

// htmlText flattens the HTML body of a feed entry to plain text.
func htmlText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	// Reddit wraps comment markdown in <div class="md">.
	sel := doc.Find("div.md")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
