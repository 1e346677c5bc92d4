package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/moodradar/pkg/source"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Reddit     RedditConfig     `yaml:"reddit"`
	RSS        RSSConfig        `yaml:"rss"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Server     ServerConfig     `yaml:"server"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// RedditConfig for the Reddit API collector. Subreddits are shared with the
// RSS collector and the scheduler.
type RedditConfig struct {
	Enabled           bool     `yaml:"enabled"`
	ClientID          string   `yaml:"client_id"`
	ClientSecret      string   `yaml:"client_secret"`
	UserAgent         string   `yaml:"user_agent"`
	Subreddits        []string `yaml:"subreddits"`
	SortingTypes      []string `yaml:"sorting_types"`
	PostLimit         int      `yaml:"post_limit"`
	CommentLimit      int      `yaml:"comment_limit"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// ParseSortingTypes returns the configured sorting types, skipping unknown ones.
// An empty list means hot, top and new.
func (r RedditConfig) ParseSortingTypes() []source.SortingType {
	var out []source.SortingType
	for _, v := range r.SortingTypes {
		st, err := source.ParseSortingType(v)
		if err != nil || !st.Filtered() {
			continue
		}
		out = append(out, st)
	}
	if len(out) == 0 {
		return source.AllSortingTypes()
	}
	return out
}

// RSSConfig for the credential-free feed collector.
type RSSConfig struct {
	Enabled   bool `yaml:"enabled"`
	PostLimit int  `yaml:"post_limit"`
}

// AnalysisConfig tunes the aggregation engine and the default query.
type AnalysisConfig struct {
	Workers               int    `yaml:"workers"`
	SubmissionConcurrency int    `yaml:"submission_concurrency"`
	RetrievalTimeout      string `yaml:"retrieval_timeout"`
	SortingType           string `yaml:"sorting_type"`
	MaxComments           int    `yaml:"max_comments"`
	MaxSubmissions        int    `yaml:"max_submissions"`
}

// ParseRetrievalTimeout returns the retrieval timeout as time.Duration.
func (a AnalysisConfig) ParseRetrievalTimeout() time.Duration {
	d, err := time.ParseDuration(a.RetrievalTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// NormalizerConfig configures text normalization.
type NormalizerConfig struct {
	Language       string   `yaml:"language"`
	ExtraStopwords []string `yaml:"extra_stopwords"`
}

// ScheduleConfig configures collection and analysis intervals.
type ScheduleConfig struct {
	CollectInterval string `yaml:"collect_interval"`
	AnalyzeInterval string `yaml:"analyze_interval"`
}

// ParseCollectInterval returns the collect interval as time.Duration.
func (s ScheduleConfig) ParseCollectInterval() time.Duration {
	d, err := time.ParseDuration(s.CollectInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// ParseAnalyzeInterval returns the analyze interval as time.Duration.
func (s ScheduleConfig) ParseAnalyzeInterval() time.Duration {
	d, err := time.ParseDuration(s.AnalyzeInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	// NegativityThreshold is the negative share that triggers an alert.
	NegativityThreshold float64       `yaml:"negativity_threshold"`
	Slack               SlackConfig   `yaml:"slack"`
	Discord             DiscordConfig `yaml:"discord"`
	Webhook             WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port  int         `yaml:"port"`
	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig configures the optional Redis response cache.
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled"`
	RedisAddr string `yaml:"redis_addr"`
	TTL       string `yaml:"ttl"`
}

// ParseTTL returns the cache TTL as time.Duration.
func (c CacheConfig) ParseTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// KafkaConfig configures the optional Kafka result sink.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./moodradar.db"},
		Log:      LogConfig{Level: "info", Format: "console"},
		Reddit: RedditConfig{
			Enabled:           false,
			UserAgent:         "moodradar/1.0",
			Subreddits:        []string{"golang", "programming", "technology"},
			SortingTypes:      []string{"hot", "top", "new"},
			PostLimit:         25,
			CommentLimit:      200,
			RequestsPerMinute: 60,
		},
		RSS: RSSConfig{Enabled: true, PostLimit: 10},
		Analysis: AnalysisConfig{
			Workers:               8,
			SubmissionConcurrency: 4,
			RetrievalTimeout:      "30s",
			SortingType:           "none",
		},
		Normalizer: NormalizerConfig{Language: "english"},
		Schedule: ScheduleConfig{
			CollectInterval: "15m",
			AnalyzeInterval: "1h",
		},
		Alerts: AlertsConfig{NegativityThreshold: 0.6},
		Server: ServerConfig{
			Port:  8080,
			Cache: CacheConfig{RedisAddr: "localhost:6379", TTL: "5m"},
		},
		Kafka: KafkaConfig{Topic: "moodradar.results"},
	}
}

// envOverrides are read from the environment after the YAML file.
// Only non-empty values are applied.
type envOverrides struct {
	DBPath        string   `envconfig:"MOODRADAR_DB_PATH"`
	LogLevel      string   `envconfig:"MOODRADAR_LOG_LEVEL"`
	LogFormat     string   `envconfig:"MOODRADAR_LOG_FORMAT"`
	Subreddits    []string `envconfig:"MOODRADAR_SUBREDDITS"`
	ClientID      string   `envconfig:"REDDIT_CLIENT_ID"`
	ClientSecret  string   `envconfig:"REDDIT_CLIENT_SECRET"`
	SlackWebhook  string   `envconfig:"SLACK_WEBHOOK_URL"`
	DiscordHook   string   `envconfig:"DISCORD_WEBHOOK_URL"`
	WebhookURL    string   `envconfig:"MOODRADAR_WEBHOOK_URL"`
	WebhookSecret string   `envconfig:"MOODRADAR_WEBHOOK_SECRET"`
	RedisAddr     string   `envconfig:"MOODRADAR_REDIS_ADDR"`
	KafkaBrokers  []string `envconfig:"MOODRADAR_KAFKA_BROKERS"`
}

// Load reads configuration from a YAML file and applies env var overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("process env overrides: %w", err)
	}

	if env.DBPath != "" {
		cfg.Database.Path = env.DBPath
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if len(env.Subreddits) > 0 {
		cfg.Reddit.Subreddits = env.Subreddits
	}
	if env.ClientID != "" {
		cfg.Reddit.ClientID = env.ClientID
	}
	if env.ClientSecret != "" {
		cfg.Reddit.ClientSecret = env.ClientSecret
	}
	if env.ClientID != "" && env.ClientSecret != "" {
		cfg.Reddit.Enabled = true
	}
	if env.SlackWebhook != "" {
		cfg.Alerts.Slack.WebhookURL = env.SlackWebhook
		cfg.Alerts.Slack.Enabled = true
	}
	if env.DiscordHook != "" {
		cfg.Alerts.Discord.WebhookURL = env.DiscordHook
		cfg.Alerts.Discord.Enabled = true
	}
	if env.WebhookURL != "" {
		cfg.Alerts.Webhook.URL = env.WebhookURL
		cfg.Alerts.Webhook.Enabled = true
	}
	if env.WebhookSecret != "" {
		cfg.Alerts.Webhook.Secret = env.WebhookSecret
	}
	if env.RedisAddr != "" {
		cfg.Server.Cache.RedisAddr = env.RedisAddr
		cfg.Server.Cache.Enabled = true
	}
	if len(env.KafkaBrokers) > 0 {
		cfg.Kafka.Brokers = env.KafkaBrokers
		cfg.Kafka.Enabled = true
	}
	return nil
}
