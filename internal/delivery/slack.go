package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/raven/internal/news"
)

const (
	maxSlackAnalysisLen = 3000
	slackTimeout        = 10 * time.Second
)

// Slack delivers items to a Slack incoming webhook as Block Kit messages.
type Slack struct {
	webhookURL string
	client     *http.Client
}

// NewSlack creates a Slack sink. If webhookURL is empty, Deliver is a no-op.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: slackTimeout},
	}
}

// Deliver posts the item to the configured webhook.
func (s *Slack) Deliver(ctx context.Context, item *news.Item) error {
	if s.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildSlackMessage(item))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildSlackMessage(item *news.Item) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			slackHeader(item),
			{"type": "divider"},
			slackFields(item),
			{"type": "divider"},
			slackAnalysis(item),
			{"type": "divider"},
			slackContext(item),
		},
	}
}

func slackHeader(item *news.Item) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s", scoreEmoji(item), item.Title),
		},
	}
}

func slackFields(item *news.Item) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Source:* %s", item.Source),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Published:* %s", item.PublishedDate.Format("2006-01-02 15:04 UTC")),
		},
	}
	if item.Scored() {
		fields = append(fields, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Relevance:* %.2f", *item.RelevanceScore),
		})
	}
	if item.URL != "" {
		fields = append(fields, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Link:* <%s>", item.URL),
		})
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func slackAnalysis(item *news.Item) map[string]any {
	text := truncate(item.Analysis, maxSlackAnalysisLen)
	if text == "" {
		text = "_No analysis available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Analysis*\n\n%s", text),
		},
	}
}

func slackContext(item *news.Item) map[string]any {
	line := "raven"
	if len(item.Categories) > 0 {
		line += " • " + strings.Join(item.Categories, ", ")
	}

	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{"type": "mrkdwn", "text": line},
		},
	}
}

func scoreEmoji(item *news.Item) string {
	if !item.Scored() {
		return "\U0001f7e2" // green circle
	}
	switch score := *item.RelevanceScore; {
	case score >= 0.9:
		return "\U0001f534" // red circle
	case score >= 0.8:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
