package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const listingJSON = `{"kind":"Listing","data":{"children":[
  {"kind":"t3","data":{"id":"sticky","stickied":true,"num_comments":4}},
  {"kind":"t3","data":{"id":"abc","title":"Release day","num_comments":3}},
  {"kind":"t3","data":{"id":"empty","num_comments":0}}
]}}`

const commentsJSON = `[
  {"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
  {"kind":"Listing","data":{"children":[
    {"kind":"t1","data":{"id":"c1","body":"great job","author":"ann","score":5,"created_utc":1700000000,
      "replies":{"kind":"Listing","data":{"children":[
        {"kind":"t1","data":{"id":"c2","body":"agreed","author":"bob","replies":""}},
        {"kind":"more","data":{"count":12}}
      ]}}}},
    {"kind":"t1","data":{"id":"c3","body":"terrible work","author":"cid","replies":""}}
  ]}}
]`

func newRedditServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	commentCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok","expires_in":3600}`)
	})
	mux.HandleFunc("/r/golang/hot", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, listingJSON)
	})
	mux.HandleFunc("/r/golang/comments/abc", func(w http.ResponseWriter, r *http.Request) {
		commentCalls++
		fmt.Fprint(w, commentsJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &commentCalls
}

func TestRedditCollect(t *testing.T) {
	srv, calls := newRedditServer(t)

	r := NewReddit(RedditOptions{
		ClientID:          "id",
		ClientSecret:      "secret",
		Subreddits:        []string{"golang"},
		SortingTypes:      []SortingType{SortHot},
		RequestsPerMinute: 6000,
		AuthURL:           srv.URL + "/api/v1/access_token",
		APIURL:            srv.URL,
	}, zap.NewNop().Sugar())

	comments, err := r.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *calls, "stickied and empty posts are skipped")

	require.Len(t, comments, 3)
	ids := []string{comments[0].ID, comments[1].ID, comments[2].ID}
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)

	first := comments[0]
	assert.Equal(t, "great job", first.Body)
	assert.Equal(t, "abc", first.SubmissionID)
	assert.Equal(t, "golang", first.Subreddit)
	assert.Equal(t, SortHot, first.SortingType)
	assert.Equal(t, "ann", first.Author)
	assert.Equal(t, int64(1700000000), first.CreatedAt.Unix())
}

func TestRedditCommentLimit(t *testing.T) {
	srv, _ := newRedditServer(t)

	r := NewReddit(RedditOptions{
		ClientID:          "id",
		ClientSecret:      "secret",
		Subreddits:        []string{"golang"},
		SortingTypes:      []SortingType{SortHot},
		CommentLimit:      2,
		RequestsPerMinute: 6000,
		AuthURL:           srv.URL + "/api/v1/access_token",
		APIURL:            srv.URL,
	}, zap.NewNop().Sugar())

	comments, err := r.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestRedditRequiresCredentials(t *testing.T) {
	r := NewReddit(RedditOptions{Subreddits: []string{"golang"}}, zap.NewNop().Sugar())
	_, err := r.Collect(context.Background())
	assert.Error(t, err)
}

func TestRedditBadCredentials(t *testing.T) {
	srv, _ := newRedditServer(t)

	r := NewReddit(RedditOptions{
		ClientID:          "id",
		ClientSecret:      "wrong",
		Subreddits:        []string{"golang"},
		RequestsPerMinute: 6000,
		AuthURL:           srv.URL + "/api/v1/access_token",
		APIURL:            srv.URL,
	}, zap.NewNop().Sugar())

	_, err := r.Collect(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestBreakerSuccess(t *testing.T) {
	assert.True(t, breakerSuccess(nil))
	assert.True(t, breakerSuccess(&StatusError{Code: http.StatusNotFound}))
	assert.False(t, breakerSuccess(&StatusError{Code: http.StatusTooManyRequests}))
	assert.False(t, breakerSuccess(&StatusError{Code: http.StatusBadGateway}))
	assert.False(t, breakerSuccess(fmt.Errorf("dial tcp: connection refused")))
}
