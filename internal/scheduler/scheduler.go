package scheduler

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/elonfeng/moodradar/internal/store"
	"github.com/elonfeng/moodradar/pkg/alert"
	"github.com/elonfeng/moodradar/pkg/sentiment"
	"github.com/elonfeng/moodradar/pkg/source"
)

// Config holds the scheduler's tunables. Zero values pick defaults.
type Config struct {
	CollectInterval time.Duration
	AnalyzeInterval time.Duration
	// Subreddits are analyzed on every analyze tick.
	Subreddits []string
	Query      sentiment.Query
	// NegativityThreshold is the negative share that triggers an alert.
	NegativityThreshold float64
	Clock               clockwork.Clock
	Logger              *zap.SugaredLogger
}

// Scheduler runs periodic collection and subreddit analysis.
type Scheduler struct {
	store      store.Store
	collectors []source.Collector
	engine     *sentiment.Engine
	alertMgr   *alert.Manager
	cfg        Config
	log        *zap.SugaredLogger
}

// New creates a new scheduler.
func New(
	s store.Store,
	collectors []source.Collector,
	engine *sentiment.Engine,
	alertMgr *alert.Manager,
	cfg Config,
) *Scheduler {
	if cfg.CollectInterval <= 0 {
		cfg.CollectInterval = 15 * time.Minute
	}
	if cfg.AnalyzeInterval <= 0 {
		cfg.AnalyzeInterval = time.Hour
	}
	if cfg.NegativityThreshold <= 0 {
		cfg.NegativityThreshold = 0.6
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil)
	}
	return &Scheduler{
		store:      s,
		collectors: collectors,
		engine:     engine,
		alertMgr:   alertMgr,
		cfg:        cfg,
		log:        cfg.Logger,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	collectTicker := s.cfg.Clock.NewTicker(s.cfg.CollectInterval)
	analyzeTicker := s.cfg.Clock.NewTicker(s.cfg.AnalyzeInterval)
	defer collectTicker.Stop()
	defer analyzeTicker.Stop()

	// Run immediately on start.
	s.log.Info("initial collection")
	s.CollectOnce(ctx)
	s.log.Info("initial analysis")
	s.AnalyzeOnce(ctx)

	s.log.Infow("scheduler running",
		"collect_every", s.cfg.CollectInterval,
		"analyze_every", s.cfg.AnalyzeInterval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-collectTicker.Chan():
			s.CollectOnce(ctx)
		case <-analyzeTicker.Chan():
			s.AnalyzeOnce(ctx)
		}
	}
}

// CollectOnce runs every collector and stores what they return. It reports
// the number of comments stored.
func (s *Scheduler) CollectOnce(ctx context.Context) int {
	total := 0
	for _, c := range s.collectors {
		comments, err := c.Collect(ctx)
		if err != nil {
			s.log.Warnw("collector failed", "collector", c.Name(), "error", err)
			if len(comments) == 0 {
				continue
			}
		}

		if err := s.store.UpsertComments(ctx, comments); err != nil {
			s.log.Errorw("store comments failed", "collector", c.Name(), "error", err)
			continue
		}

		s.log.Infow("collected", "collector", c.Name(), "comments", len(comments))
		total += len(comments)
	}
	s.log.Infow("collection done", "comments", total)
	return total
}

// AnalyzeOnce analyzes every configured subreddit, saves a report for each
// and alerts on the ones past the negativity threshold.
func (s *Scheduler) AnalyzeOnce(ctx context.Context) []store.Report {
	var reports []store.Report
	for _, name := range s.cfg.Subreddits {
		res, err := s.engine.AnalyzeSubreddit(ctx, name, s.cfg.Query)
		if err != nil {
			s.log.Errorw("analysis failed", "subreddit", name, "error", err)
			continue
		}

		r := &store.Report{
			Subreddit:   name,
			SortingType: string(s.cfg.Query.SortingType),
			Positive:    res.Positive,
			Negative:    res.Negative,
			Comments:    res.Sample.Comments,
			Submissions: res.Sample.Submissions,
			Interrupted: res.Sample.Interrupted,
			CreatedAt:   s.cfg.Clock.Now().UTC(),
		}
		if err := s.store.SaveReport(ctx, r); err != nil {
			s.log.Errorw("save report failed", "subreddit", name, "error", err)
			continue
		}

		if s.alert(ctx, r) {
			r.Alerted = true
		}
		reports = append(reports, *r)
	}
	return reports
}

func (s *Scheduler) alert(ctx context.Context, r *store.Report) bool {
	if !s.alertMgr.HasNotifiers() || r.Comments == 0 || r.Negative < s.cfg.NegativityThreshold {
		return false
	}

	n := alert.NewNegativity(r.Subreddit, r.SortingType, r.Positive, r.Negative,
		r.Comments, r.Submissions, s.cfg.NegativityThreshold)
	n.ReportID = r.ID
	n.At = r.CreatedAt

	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		s.log.Warnw("alert failed", "subreddit", r.Subreddit, "error", err)
		return false
	}
	if err := s.store.MarkAlerted(ctx, r.ID); err != nil {
		s.log.Warnw("mark alerted failed", "report", r.ID, "error", err)
	}
	s.log.Infow("alerted", "subreddit", r.Subreddit, "negative", r.Negative)
	return true
}
