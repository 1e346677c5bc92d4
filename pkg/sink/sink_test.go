package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	ctx := context.Background()

	c.Comment(ctx, sentiment.CommentDetail{
		Subreddit:  "NONE",
		Normalized: "great job",
		Score:      sentiment.PolarityScore{Pos: 0.6, Neg: 0, Neu: 0.4, Compound: 0.8},
		Class:      sentiment.Positive,
	})
	c.Submission(ctx, sentiment.SubmissionDetail{
		SubmissionID: "s1",
		Subreddit:    "golang",
		Result: sentiment.Result{
			Positive: 0.8 / 1.5,
			Negative: 0.7 / 1.5,
			Sample:   sentiment.Sample{Comments: 2, Positive: 1, Negative: 1},
		},
	})
	c.Subreddit(ctx, sentiment.SubredditDetail{
		Subreddit: "golang",
		Result:    sentiment.Result{Positive: 0.5, Negative: 0.5, Sample: sentiment.Sample{Submissions: 2, Interrupted: true}},
		Elapsed:   1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Subreddit Name: NONE")
	assert.Contains(t, out, "Comment: great job")
	assert.Contains(t, out, "Positivity Rating: 0.6")
	assert.Contains(t, out, "Classification: Positive")
	assert.Contains(t, out, `Results of all comments for submission: "s1"`)
	assert.Contains(t, out, "Average Positivity: 53.33%")
	assert.Contains(t, out, "Average Negativity: 46.67%")
	assert.Contains(t, out, "Total time: 1.5s")
	assert.Contains(t, out, "partial sample")
}

func TestConsoleQuietAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	ctx := context.Background()

	c.Comment(ctx, sentiment.CommentDetail{Normalized: "hidden"})
	c.Subreddit(ctx, sentiment.SubredditDetail{Subreddit: "empty"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "No submissions were found for the subreddit empty.")
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewLog(zap.New(core).Sugar())
	ctx := context.Background()

	l.Comment(ctx, sentiment.CommentDetail{CommentID: "c1", ClassName: "Positive"})
	l.Submission(ctx, sentiment.SubmissionDetail{SubmissionID: "s1"})
	l.Subreddit(ctx, sentiment.SubredditDetail{Subreddit: "golang"})

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "comment scored", entries[0].Message)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "subreddit analyzed", entries[2].Message)
	assert.Equal(t, "golang", entries[2].ContextMap()["subreddit"])
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{w: w, log: zap.NewNop().Sugar()}
	ctx := context.Background()

	k.Comment(ctx, sentiment.CommentDetail{Subreddit: "golang"})
	k.Submission(ctx, sentiment.SubmissionDetail{SubmissionID: "s1", Subreddit: "golang"})
	k.Subreddit(ctx, sentiment.SubredditDetail{Subreddit: "golang", Result: sentiment.Result{Positive: 1}})

	require.Len(t, w.msgs, 2, "comments are off by default")
	assert.Equal(t, "golang", string(w.msgs[0].Key))

	var ev struct {
		Type string                    `json:"type"`
		Data sentiment.SubredditDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &ev))
	assert.Equal(t, "subreddit", ev.Type)
	assert.Equal(t, 1.0, ev.Data.Result.Positive)

	k.Comments = true
	k.Comment(ctx, sentiment.CommentDetail{Subreddit: "golang"})
	assert.Len(t, w.msgs, 3)
}

func TestKafkaSinkSwallowsErrors(t *testing.T) {
	k := &Kafka{w: &fakeWriter{err: errors.New("broker down")}, log: zap.NewNop().Sugar()}
	assert.NotPanics(t, func() {
		k.Subreddit(context.Background(), sentiment.SubredditDetail{Subreddit: "golang"})
	})
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewConsole(&a, false), NewConsole(&b, false), sentiment.NopSink{}}
	m.Subreddit(context.Background(), sentiment.SubredditDetail{Subreddit: "empty"})
	assert.Equal(t, a.String(), b.String())
	assert.NotEmpty(t, a.String())
}
