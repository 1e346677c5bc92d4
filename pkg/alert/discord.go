package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	embed := map[string]any{
		"title":       n.Title,
		"url":         n.URL,
		"description": n.Body,
		// Red, scaled toward orange as the negative share drops.
		"color": 0xFF0000 | int((1-n.Negative)*0x66)<<8,
		"fields": []map[string]any{
			{"name": "Negative", "value": fmt.Sprintf("%.1f%%", n.Negative*100), "inline": true},
			{"name": "Positive", "value": fmt.Sprintf("%.1f%%", n.Positive*100), "inline": true},
			{"name": "Comments", "value": fmt.Sprintf("%d", n.Comments), "inline": true},
		},
		"timestamp": n.At.Format(time.RFC3339),
	}

	body, err := marshal("discord", map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return err
	}
	if err := postJSON(ctx, d.client, d.webhookURL, body, nil); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
