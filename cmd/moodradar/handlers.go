package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elonfeng/moodradar/internal/config"
	"github.com/elonfeng/moodradar/internal/logging"
	"github.com/elonfeng/moodradar/internal/scheduler"
	"github.com/elonfeng/moodradar/internal/store"
	"github.com/elonfeng/moodradar/pkg/alert"
	"github.com/elonfeng/moodradar/pkg/nlp"
	"github.com/elonfeng/moodradar/pkg/sentiment"
	"github.com/elonfeng/moodradar/pkg/server"
	"github.com/elonfeng/moodradar/pkg/sink"
	"github.com/elonfeng/moodradar/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// buildQuery starts from the configured defaults and applies the global
// flags the user set. The result is validated before any store is opened.
func buildQuery(cmd *cobra.Command, cfg *config.Config) (sentiment.Query, error) {
	q := sentiment.Query{
		MaxComments:    cfg.Analysis.MaxComments,
		MaxSubmissions: cfg.Analysis.MaxSubmissions,
	}
	raw := cfg.Analysis.SortingType
	if sortFlag != "" {
		raw = sortFlag
	}
	st, err := source.ParseSortingType(raw)
	if err != nil {
		return q, err
	}
	q.SortingType = st
	if cmd.Flags().Changed("max-comments") {
		q.MaxComments = maxComments
	}
	if cmd.Flags().Changed("max-submissions") {
		q.MaxSubmissions = maxSubmissions
	}
	return q, q.Validate()
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	db, err := store.New(cfg.Database.Path, logging.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func buildCollectors(cfg *config.Config) []source.Collector {
	var collectors []source.Collector
	sorts := cfg.Reddit.ParseSortingTypes()

	if cfg.Reddit.Enabled {
		collectors = append(collectors, source.NewReddit(source.RedditOptions{
			ClientID:          cfg.Reddit.ClientID,
			ClientSecret:      cfg.Reddit.ClientSecret,
			UserAgent:         cfg.Reddit.UserAgent,
			Subreddits:        cfg.Reddit.Subreddits,
			SortingTypes:      sorts,
			PostLimit:         cfg.Reddit.PostLimit,
			CommentLimit:      cfg.Reddit.CommentLimit,
			RequestsPerMinute: cfg.Reddit.RequestsPerMinute,
		}, logging.Named("reddit")))
	}
	if cfg.RSS.Enabled {
		collectors = append(collectors, source.NewRSS(source.RSSOptions{
			UserAgent:    cfg.Reddit.UserAgent,
			Subreddits:   cfg.Reddit.Subreddits,
			SortingTypes: sorts,
			PostLimit:    cfg.RSS.PostLimit,
		}, logging.Named("rss")))
	}

	return collectors
}

// buildSink combines the sinks for a command. The console sink is only
// used by the one-shot analysis commands. The returned close func flushes
// the Kafka writer when one was built.
func buildSink(cfg *config.Config, console io.Writer) (sentiment.Sink, func()) {
	sinks := sink.Multi{sink.NewLog(logging.Named("analysis"))}
	if console != nil {
		sinks = append(sinks, sink.NewConsole(console, verbose))
	}

	closeFn := func() {}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		k := sink.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logging.Named("kafka"))
		k.Comments = verbose
		sinks = append(sinks, k)
		closeFn = func() {
			if err := k.Close(); err != nil {
				logging.Get().Warnw("close kafka writer", "error", err)
			}
		}
	}
	return sinks, closeFn
}

func buildEngine(cfg *config.Config, db store.Store, out sentiment.Sink) *sentiment.Engine {
	return sentiment.NewEngine(db,
		nlp.NewNormalizer(cfg.Normalizer.Language, cfg.Normalizer.ExtraStopwords...),
		nlp.NewVader(),
		sentiment.Options{
			Workers:               cfg.Analysis.Workers,
			SubmissionConcurrency: cfg.Analysis.SubmissionConcurrency,
			RetrievalTimeout:      cfg.Analysis.ParseRetrievalTimeout(),
			Sink:                  out,
			Logger:                logging.Named("engine"),
		})
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

// buildCache connects the response cache. An unreachable Redis disables it.
func buildCache(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) *server.Cache {
	if !cfg.Server.Cache.Enabled {
		return nil
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Server.Cache.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warnw("redis unreachable, response cache disabled", "addr", cfg.Server.Cache.RedisAddr, "error", err)
		rdb.Close()
		return nil
	}
	log.Infow("response cache enabled", "addr", cfg.Server.Cache.RedisAddr, "ttl", cfg.Server.Cache.ParseTTL())
	return server.NewCache(rdb, cfg.Server.Cache.ParseTTL(), log)
}

func runCollect(ctx context.Context, only []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.Named("collect")

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	all := buildCollectors(cfg)
	collectors := all
	if len(only) > 0 {
		wanted := make(map[string]bool)
		for _, name := range only {
			wanted[strings.ToLower(strings.TrimSpace(name))] = true
		}
		collectors = nil
		for _, c := range all {
			if wanted[c.Name()] {
				collectors = append(collectors, c)
			}
		}
		if len(collectors) == 0 {
			return fmt.Errorf("no enabled collectors match: %s", strings.Join(only, ", "))
		}
	}
	if len(collectors) == 0 {
		return errors.New("no collectors enabled (set reddit credentials or enable rss)")
	}

	total := 0
	for _, c := range collectors {
		log.Infow("collecting", "collector", c.Name())
		comments, err := c.Collect(ctx)
		if err != nil {
			log.Warnw("collector failed", "collector", c.Name(), "error", err)
			if len(comments) == 0 {
				continue
			}
		}
		if err := db.UpsertComments(ctx, comments); err != nil {
			log.Errorw("store comments failed", "collector", c.Name(), "error", err)
			continue
		}
		total += len(comments)
	}

	fmt.Printf("collected %s comments from %d collectors\n", humanize.Comma(int64(total)), len(collectors))
	return nil
}

func runImport(ctx context.Context, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open export: %w", err)
		}
		defer f.Close()
		r = f
	}

	stats, err := db.ImportDocuments(ctx, r)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Printf("imported %s documents, skipped %s\n",
		humanize.Comma(int64(stats.Imported)), humanize.Comma(int64(stats.Skipped)))
	return nil
}

// analysisEnv is what the one-shot analysis commands share.
type analysisEnv struct {
	db     *store.SQLiteStore
	engine *sentiment.Engine
	query  sentiment.Query
	close  func()
}

func openAnalysis(cmd *cobra.Command, jsonOutput bool) (*analysisEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	q, err := buildQuery(cmd, cfg)
	if err != nil {
		return nil, err
	}
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	var console io.Writer = os.Stdout
	if jsonOutput {
		console = nil
	}
	out, closeSink := buildSink(cfg, console)
	return &analysisEnv{
		db:     db,
		engine: buildEngine(cfg, db, out),
		query:  q,
		close: func() {
			closeSink()
			db.Close()
		},
	}, nil
}

func runSubmission(cmd *cobra.Command, id string, jsonOutput bool) error {
	ctx := cmd.Context()
	env, err := openAnalysis(cmd, jsonOutput)
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.engine.AnalyzeSubmission(ctx, id, env.query)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"submission": id, "query": env.query, "result": res})
	}
	return nil
}

func runSubreddit(cmd *cobra.Command, name string, jsonOutput bool) error {
	ctx := cmd.Context()
	env, err := openAnalysis(cmd, jsonOutput)
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.engine.AnalyzeSubreddit(ctx, name, env.query)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"subreddit": name, "query": env.query, "result": res})
	}
	return nil
}

func runRank(cmd *cobra.Command, names []string, by string, jsonOutput bool) error {
	ctx := cmd.Context()
	rank := (*sentiment.Engine).MostPositive
	switch by {
	case "positive":
	case "negative":
		rank = (*sentiment.Engine).MostNegative
	default:
		return fmt.Errorf("--by must be positive or negative, got %q", by)
	}

	env, err := openAnalysis(cmd, true)
	if err != nil {
		return err
	}
	defer env.close()

	r, err := rank(env.engine, ctx, names, env.query)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]any{"by": by, "query": env.query, "ranking": r})
	}

	fmt.Printf("Most %s subreddit: r/%s\n", by, r.Subreddit)
	fmt.Printf("Average Positivity: %.2f%%\n", r.Positive*100)
	fmt.Printf("Average Negativity: %.2f%%\n", r.Negative*100)
	fmt.Printf("Comments: %s across %s submissions\n",
		humanize.Comma(int64(r.Sample.Comments)), humanize.Comma(int64(r.Sample.Submissions)))
	return nil
}

func runReports(ctx context.Context, subreddit string, limit int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports(ctx, store.ReportListOpts{Subreddit: subreddit, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(reports)
	}

	if len(reports) == 0 {
		fmt.Println("no reports found (reports are written by: moodradar run)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBREDDIT\tSORT\tPOSITIVE\tNEGATIVE\tCOMMENTS\tSUBMISSIONS\tALERTED\tCREATED")
	for _, r := range reports {
		flag := ""
		if r.Alerted {
			flag = "yes"
		}
		if r.Interrupted {
			flag += " (partial)"
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%.1f%%\t%s\t%s\t%s\t%s\n",
			r.Subreddit, r.SortingType, r.Positive*100, r.Negative*100,
			humanize.Comma(int64(r.Comments)), humanize.Comma(int64(r.Submissions)),
			strings.TrimSpace(flag), humanize.Time(r.CreatedAt))
	}
	return w.Flush()
}

func runServe(cmd *cobra.Command, port int) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	q, err := buildQuery(cmd, cfg)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	out, closeSink := buildSink(cfg, nil)
	defer closeSink()

	log := logging.Named("server")
	srv := server.New(db, buildEngine(cfg, db, out), buildCollectors(cfg), server.Options{
		Port:     port,
		Cache:    buildCache(ctx, cfg, log),
		Defaults: q,
		Logger:   log,
	})
	return srv.ListenAndServe(ctx)
}

func runDaemon(cmd *cobra.Command, port int) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	q, err := buildQuery(cmd, cfg)
	if err != nil {
		return err
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	out, closeSink := buildSink(cfg, nil)
	defer closeSink()

	engine := buildEngine(cfg, db, out)
	collectors := buildCollectors(cfg)

	sched := scheduler.New(db, collectors, engine, buildAlertManager(cfg), scheduler.Config{
		CollectInterval:     cfg.Schedule.ParseCollectInterval(),
		AnalyzeInterval:     cfg.Schedule.ParseAnalyzeInterval(),
		Subreddits:          cfg.Reddit.Subreddits,
		Query:               q,
		NegativityThreshold: cfg.Alerts.NegativityThreshold,
		Logger:              logging.Named("scheduler"),
	})

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			logging.Get().Errorw("scheduler error", "error", err)
		}
	}()

	log := logging.Named("server")
	srv := server.New(db, engine, collectors, server.Options{
		Port:     port,
		Cache:    buildCache(ctx, cfg, log),
		Defaults: q,
		Logger:   log,
	})
	return srv.ListenAndServe(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
