package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/elonfeng/moodradar/pkg/sentiment"
)

// messageWriter is the subset of kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON envelope published for every detail.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Kafka publishes submission and subreddit results as JSON events, keyed by
// subreddit so one subreddit stays on one partition. Comment events are
// only published when Comments is set.
type Kafka struct {
	w        messageWriter
	log      *zap.SugaredLogger
	Comments bool
}

// NewKafka creates a sink publishing to topic on brokers.
func NewKafka(brokers []string, topic string, log *zap.SugaredLogger) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		log: log,
	}
}

func (k *Kafka) Comment(ctx context.Context, d sentiment.CommentDetail) {
	if !k.Comments {
		return
	}
	k.publish(ctx, "comment", d.Subreddit, d)
}

func (k *Kafka) Submission(ctx context.Context, d sentiment.SubmissionDetail) {
	k.publish(ctx, "submission", d.Subreddit, d)
}

func (k *Kafka) Subreddit(ctx context.Context, d sentiment.SubredditDetail) {
	k.publish(ctx, "subreddit", d.Subreddit, d)
}

// publish never fails the analysis; broker errors are logged.
func (k *Kafka) publish(ctx context.Context, typ, key string, data any) {
	value, err := json.Marshal(Event{Type: typ, At: time.Now().UTC(), Data: data})
	if err != nil {
		k.log.Warnw("encode kafka event", "type", typ, "error", err)
		return
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		k.log.Warnw("publish kafka event", "type", typ, "subreddit", key, "error", err)
	}
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
