package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/elonfeng/moodradar/internal/metrics"
)

const maxBodyBytes = 8 << 20

// StatusError is returned when an upstream answers with a non-200 status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.URL, e.Code)
}

// fetcher wraps an http.Client with a token-bucket limiter and a circuit breaker.
// Reddit throttles unauthenticated and OAuth clients per minute; both collectors share it.
type fetcher struct {
	name      string
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	userAgent string
}

func newFetcher(name, userAgent string, requestsPerMinute int) *fetcher {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if userAgent == "" {
		userAgent = "moodradar/1.0"
	}
	return &fetcher{
		name:      name,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		userAgent: userAgent,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			IsSuccessful: breakerSuccess,
			OnStateChange: func(name string, _, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			},
		}),
	}
}

// breakerSuccess counts client errors as healthy responses; only transport
// failures, throttling and 5xx trip the breaker.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code < 500 && se.Code != http.StatusTooManyRequests
	}
	return false
}

// fetch sends req and returns the response body of a 200 answer.
func (f *fetcher) fetch(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	out, err := f.breaker.Execute(func() (interface{}, error) {
		resp, err := f.client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.Redacted()}
		}
		return body, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CollectorRequests.WithLabelValues(f.name, "rejected").Inc()
		return nil, fmt.Errorf("%s circuit open: %w", f.name, err)
	case err != nil:
		metrics.CollectorRequests.WithLabelValues(f.name, "error").Inc()
		return nil, err
	}
	metrics.CollectorRequests.WithLabelValues(f.name, "ok").Inc()
	return out.([]byte), nil
}

func (f *fetcher) get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return f.fetch(ctx, req)
}
