package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/elonfeng/moodradar/internal/store"
	"github.com/elonfeng/moodradar/pkg/sentiment"
	"github.com/elonfeng/moodradar/pkg/source"
)

// Server provides the HTTP API.
type Server struct {
	store      store.Store
	engine     *sentiment.Engine
	collectors []source.Collector
	cache      *Cache
	defaults   sentiment.Query
	port       int
	log        *zap.SugaredLogger
}

// Options holds the optional parts of a Server.
type Options struct {
	Port int
	// Cache is nil when response caching is off.
	Cache *Cache
	// Defaults fill query parameters the caller leaves out.
	Defaults sentiment.Query
	Logger   *zap.SugaredLogger
}

// New creates a new HTTP server.
func New(s store.Store, engine *sentiment.Engine, collectors []source.Collector, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Server{
		store:      s,
		engine:     engine,
		collectors: collectors,
		cache:      opts.Cache,
		defaults:   opts.Defaults,
		port:       opts.Port,
		log:        opts.Logger,
	}
}

// Handler returns the routed API wrapped in recovery and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/submissions/{id}", s.handleSubmission).Methods(http.MethodGet)
	api.HandleFunc("/subreddits", s.handleSubreddits).Methods(http.MethodGet)
	api.HandleFunc("/subreddits/{name}", s.handleSubreddit).Methods(http.MethodGet)
	api.HandleFunc("/rankings", s.handleRanking).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.handleReports).Methods(http.MethodGet)
	api.HandleFunc("/collect", s.handleCollect).Methods(http.MethodPost)

	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.MethodNotAllowedHandler = notAllowed
	api.MethodNotAllowedHandler = notAllowed
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	stdlog := zap.NewStdLog(s.log.Desugar())
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(stdlog),
		handlers.PrintRecoveryStack(true),
	)(handlers.CombinedLoggingHandler(stdlog.Writer(), r))
}

// ListenAndServe serves the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("moodradar server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := mux.Vars(r)["id"]

	s.cached(w, r, func(ctx context.Context) (any, error) {
		res, err := s.engine.AnalyzeSubmission(ctx, id, q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"submission": id, "query": q, "result": res}, nil
	})
}

func (s *Server) handleSubreddit(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := mux.Vars(r)["name"]

	s.cached(w, r, func(ctx context.Context) (any, error) {
		res, err := s.engine.AnalyzeSubreddit(ctx, name, q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"subreddit": name, "query": q, "result": res}, nil
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	names := r.URL.Query()["subreddit"]
	by := r.URL.Query().Get("by")
	if by == "" {
		by = "positive"
	}
	if by != "positive" && by != "negative" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("by must be positive or negative, got %q", by))
		return
	}

	s.cached(w, r, func(ctx context.Context) (any, error) {
		rank := s.engine.MostPositive
		if by == "negative" {
			rank = s.engine.MostNegative
		}
		ranking, err := rank(ctx, names, q)
		if err != nil {
			return nil, err
		}
		return map[string]any{"by": by, "query": q, "ranking": ranking}, nil
	})
}

func (s *Server) handleSubreddits(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountBySubreddit(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type subredditInfo struct {
		Name     string `json:"name"`
		Comments int    `json:"comments"`
	}
	infos := make([]subredditInfo, 0, len(counts))
	for name, n := range counts {
		infos = append(infos, subredditInfo{Name: name, Comments: n})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	opts := store.ReportListOpts{Subreddit: r.URL.Query().Get("subreddit")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}
	if since := r.URL.Query().Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = t
		}
	}

	reports, err := s.store.ListReports(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  reports,
		"count": len(reports),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results := make(map[string]int)
	var errs []string

	for _, c := range s.collectors {
		comments, err := c.Collect(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", c.Name(), err))
			if len(comments) == 0 {
				continue
			}
		}
		if err := s.store.UpsertComments(ctx, comments); err != nil {
			errs = append(errs, fmt.Sprintf("%s store: %v", c.Name(), err))
			continue
		}
		results[c.Name()] = len(comments)
	}
	if s.cache != nil && len(results) > 0 {
		s.cache.Invalidate(ctx)
	}

	resp := map[string]any{"collected": results}
	if len(errs) > 0 {
		resp["errors"] = errs
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseQuery reads sort, max_comments and max_submissions over the defaults.
// Range checks are left to the engine.
func (s *Server) parseQuery(r *http.Request) (sentiment.Query, error) {
	q := s.defaults
	v := r.URL.Query()
	if sortParam, ok := v["sort"]; ok && len(sortParam) > 0 {
		q.SortingType = source.SortingType(sortParam[0])
	}
	for key, dst := range map[string]*int{
		"max_comments":    &q.MaxComments,
		"max_submissions": &q.MaxSubmissions,
	} {
		raw := v.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%s must be an integer, got %q", key, raw)
		}
		*dst = n
	}
	return q, nil
}

// cached serves compute's result, going through the response cache when one
// is configured.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, compute func(ctx context.Context) (any, error)) {
	ctx := r.Context()
	key := r.URL.Path + "?" + r.URL.Query().Encode()

	if s.cache != nil {
		var hit json.RawMessage
		if s.cache.Get(ctx, key, &hit) {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, hit)
			return
		}
	}

	data, err := compute(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sentiment.ErrInvalidParameter) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, data)
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
