package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	redditAuthURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL  = "https://oauth.reddit.com"
)

// RedditOptions configures the Reddit API collector.
type RedditOptions struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	Subreddits        []string
	SortingTypes      []SortingType
	PostLimit         int
	CommentLimit      int
	RequestsPerMinute int

	// AuthURL and APIURL default to reddit.com and exist for tests.
	AuthURL string
	APIURL  string
}

// Reddit collects submission comments through the Reddit OAuth API.
type Reddit struct {
	opts  RedditOptions
	http  *fetcher
	log   *zap.SugaredLogger
	mu    sync.Mutex
	token string
	// tokenExpiry is refreshed a minute early.
	tokenExpiry time.Time
}

// NewReddit creates a new Reddit collector.
func NewReddit(opts RedditOptions, log *zap.SugaredLogger) *Reddit {
	if len(opts.SortingTypes) == 0 {
		opts.SortingTypes = AllSortingTypes()
	}
	if opts.PostLimit <= 0 {
		opts.PostLimit = 25
	}
	if opts.CommentLimit <= 0 {
		opts.CommentLimit = 200
	}
	if opts.AuthURL == "" {
		opts.AuthURL = redditAuthURL
	}
	if opts.APIURL == "" {
		opts.APIURL = redditAPIURL
	}
	return &Reddit{
		opts: opts,
		http: newFetcher("reddit", opts.UserAgent, opts.RequestsPerMinute),
		log:  log,
	}
}

func (r *Reddit) Name() string { return "reddit" }

func (r *Reddit) Collect(ctx context.Context) ([]Comment, error) {
	if r.opts.ClientID == "" || r.opts.ClientSecret == "" {
		return nil, fmt.Errorf("reddit credentials not configured")
	}
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	var all []Comment
	for _, sub := range r.opts.Subreddits {
		for _, sort := range r.opts.SortingTypes {
			comments, err := r.collectListing(ctx, sub, sort)
			if err != nil {
				if ctx.Err() != nil {
					return all, ctx.Err()
				}
				r.log.Warnw("reddit listing failed", "subreddit", sub, "sort", sort, "error", err)
				continue
			}
			all = append(all, comments...)
		}
	}
	return all, nil
}

func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.AuthURL,
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.opts.ClientID, r.opts.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := r.http.fetch(ctx, req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("reddit returned an empty access token")
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

func (r *Reddit) authHeader() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return http.Header{"Authorization": {"Bearer " + r.token}}
}

// collectListing walks one subreddit listing and pulls the comment tree of every post.
func (r *Reddit) collectListing(ctx context.Context, subreddit string, sort SortingType) ([]Comment, error) {
	reqURL := fmt.Sprintf("%s/r/%s/%s?limit=%d", r.opts.APIURL, subreddit, sort, r.opts.PostLimit)
	body, err := r.http.get(ctx, reqURL, r.authHeader())
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s/%s: %w", subreddit, sort, err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode r/%s/%s: %w", subreddit, sort, err)
	}

	var comments []Comment
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var post redditPost
		if err := json.Unmarshal(child.Data, &post); err != nil {
			continue
		}
		if post.Stickied || post.NumComments == 0 {
			continue
		}

		cs, err := r.collectComments(ctx, subreddit, post.ID, sort)
		if err != nil {
			if ctx.Err() != nil {
				return comments, ctx.Err()
			}
			r.log.Warnw("reddit comments failed", "subreddit", subreddit, "submission", post.ID, "error", err)
			continue
		}
		comments = append(comments, cs...)
	}
	return comments, nil
}

func (r *Reddit) collectComments(ctx context.Context, subreddit, submissionID string, sort SortingType) ([]Comment, error) {
	reqURL := fmt.Sprintf("%s/r/%s/comments/%s?limit=%d", r.opts.APIURL, subreddit, submissionID, r.opts.CommentLimit)
	body, err := r.http.get(ctx, reqURL, r.authHeader())
	if err != nil {
		return nil, err
	}

	// The comments endpoint answers with [post listing, comment listing].
	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("decode comments %s: %w", submissionID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	now := time.Now().UTC()
	var out []Comment
	flattenComments(listings[1].Data.Children, func(c redditComment) bool {
		if len(out) >= r.opts.CommentLimit {
			return false
		}
		out = append(out, Comment{
			ID:           c.ID,
			Body:         c.Body,
			SubmissionID: submissionID,
			Subreddit:    subreddit,
			SortingType:  sort,
			Author:       c.Author,
			Score:        c.Score,
			CreatedAt:    time.Unix(int64(c.CreatedUTC), 0).UTC(),
			CollectedAt:  now,
		})
		return true
	})
	return out, nil
}

// flattenComments visits a comment tree depth first until visit returns false.
func flattenComments(children []redditThing, visit func(redditComment) bool) bool {
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		var c redditComment
		if err := json.Unmarshal(child.Data, &c); err != nil {
			continue
		}
		if !visit(c) {
			return false
		}
		// replies is "" for leaves and a listing object otherwise.
		if len(c.Replies) > 0 && c.Replies[0] == '{' {
			var replies redditListing
			if err := json.Unmarshal(c.Replies, &replies); err == nil {
				if !flattenComments(replies.Data.Children, visit) {
					return false
				}
			}
		}
	}
	return true
}

type redditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type redditListing struct {
	Data struct {
		Children []redditThing `json:"children"`
		After    string        `json:"after"`
	} `json:"data"`
}

type redditPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	NumComments int    `json:"num_comments"`
	Stickied    bool   `json:"stickied"`
}

type redditComment struct {
	ID         string          `json:"id"`
	Body       string          `json:"body"`
	Author     string          `json:"author"`
	Subreddit  string          `json:"subreddit"`
	LinkID     string          `json:"link_id"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}
