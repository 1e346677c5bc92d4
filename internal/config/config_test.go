package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/moodradar/pkg/source"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./moodradar.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.ParseCollectInterval())
	assert.Equal(t, time.Hour, cfg.Schedule.ParseAnalyzeInterval())
	assert.Equal(t, 30*time.Second, cfg.Analysis.ParseRetrievalTimeout())
	assert.Equal(t, source.AllSortingTypes(), cfg.Reddit.ParseSortingTypes())
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moodradar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/mood.db
reddit:
  subreddits: [golang, rust]
  sorting_types: [top, bogus, none]
analysis:
  workers: 2
  retrieval_timeout: 5s
schedule:
  collect_interval: nonsense
alerts:
  negativity_threshold: 0.7
`), 0o644))

	t.Setenv("MOODRADAR_DB_PATH", "/data/override.db")
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("MOODRADAR_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/override.db", cfg.Database.Path)
	assert.Equal(t, []string{"golang", "rust"}, cfg.Reddit.Subreddits)
	assert.Equal(t, []source.SortingType{source.SortTop}, cfg.Reddit.ParseSortingTypes())
	assert.True(t, cfg.Reddit.Enabled)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, 4, cfg.Analysis.SubmissionConcurrency, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Analysis.ParseRetrievalTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Schedule.ParseCollectInterval())
	assert.Equal(t, 0.7, cfg.Alerts.NegativityThreshold)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Alerts.Slack.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
