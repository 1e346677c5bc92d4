package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Notification describes a subreddit whose mood crossed the alert threshold.
type Notification struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Subreddit   string    `json:"subreddit"`
	SortingType string    `json:"sorting_type"`
	Positive    float64   `json:"positive"`
	Negative    float64   `json:"negative"`
	Comments    int       `json:"comments"`
	Submissions int       `json:"submissions"`
	ReportID    string    `json:"report_id,omitempty"`
	URL         string    `json:"url"`
	At          time.Time `json:"at"`
}

// NewNegativity builds the notification for a subreddit whose negative share
// reached threshold.
func NewNegativity(subreddit, sortingType string, positive, negative float64, comments, submissions int, threshold float64) *Notification {
	return &Notification{
		Title: fmt.Sprintf("r/%s is turning negative", subreddit),
		Body: fmt.Sprintf("%.0f%% of polarized signal across %d comments in %d submissions is negative (threshold %.0f%%).",
			negative*100, comments, submissions, threshold*100),
		Subreddit:   subreddit,
		SortingType: sortingType,
		Positive:    positive,
		Negative:    negative,
		Comments:    comments,
		Submissions: submissions,
		URL:         "https://www.reddit.com/r/" + subreddit,
		At:          time.Now().UTC(),
	}
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to every notifier and joins the failures.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// postJSON posts payload to url and expects a 2xx answer.
func postJSON(ctx context.Context, client *http.Client, url string, payload []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "moodradar/1.0")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func marshal(name string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return body, nil
}
