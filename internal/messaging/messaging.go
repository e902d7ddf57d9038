// Package messaging posts run summaries to Slack-compatible webhooks.
package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ideaforge/internal/pipeline"
)

// SlackMessage is the webhook payload.
type SlackMessage struct {
	Text      string       `json:"text,omitempty"`
	Blocks    []SlackBlock `json:"blocks,omitempty"`
	Username  string       `json:"username,omitempty"`
	IconEmoji string       `json:"icon_emoji,omitempty"`
}

// SlackBlock is a Block Kit element.
type SlackBlock struct {
	Type     string              `json:"type"`
	Text     *SlackText          `json:"text,omitempty"`
	Elements []SlackBlockElement `json:"elements,omitempty"`
}

// SlackText is text inside a block.
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SlackBlockElement is an element inside a context block.
type SlackBlockElement struct {
	Type string     `json:"type"`
	Text *SlackText `json:"text,omitempty"`
}

// Client sends webhook messages.
type Client struct {
	WebhookURL string
	HTTPClient *http.Client
}

// NewClient creates a messaging client for the given webhook URL.
func NewClient(webhookURL string) *Client {
	return &Client{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ValidateWebhookURL checks the webhook URL shape before first use.
func ValidateWebhookURL(url string) error {
	if url == "" {
		return fmt.Errorf("webhook URL cannot be empty")
	}
	if !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("webhook URL must use https")
	}
	return nil
}

// ConvertToSlackMessage builds a Block Kit summary of a run result. Only the
// top ideas are listed; the markdown report carries the full detail.
func ConvertToSlackMessage(result *pipeline.Result) *SlackMessage {
	var blocks []SlackBlock

	blocks = append(blocks, SlackBlock{
		Type: "header",
		Text: &SlackText{
			Type: "plain_text",
			Text: fmt.Sprintf("Content ideas: %s", result.Profile.CompanyName),
		},
	})
	blocks = append(blocks, SlackBlock{Type: "divider"})

	var body strings.Builder
	if result.Degraded {
		body.WriteString("_Quality targets not fully met; best-effort output._\n\n")
	}
	for i, r := range result.Ideas {
		if i >= 5 {
			break
		}
		body.WriteString(fmt.Sprintf("• *%s* (score %.0f)\n", r.Idea.Title, r.Scores.OverallScore))
		if r.Idea.WhyNow != "" {
			why := r.Idea.WhyNow
			if len(why) > 120 {
				why = why[:117] + "..."
			}
			body.WriteString(why + "\n")
		}
		body.WriteString("\n")
	}
	if body.Len() == 0 {
		body.WriteString("No ideas survived validation.\n")
	}

	blocks = append(blocks, SlackBlock{
		Type: "section",
		Text: &SlackText{
			Type: "mrkdwn",
			Text: body.String(),
		},
	})

	blocks = append(blocks, SlackBlock{
		Type: "context",
		Elements: []SlackBlockElement{
			{
				Type: "mrkdwn",
				Text: &SlackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("Generated by IdeaForge • %d ideas • $%.4f est. • %s",
						len(result.Ideas), result.TotalCost(), result.FinishedAt.Format("Jan 2, 3:04 PM")),
				},
			},
		},
	})

	return &SlackMessage{
		Blocks:    blocks,
		Username:  "IdeaForge",
		IconEmoji: ":bulb:",
	}
}

// SendSlackMessage posts the message to the configured webhook.
func (c *Client) SendSlackMessage(message *SlackMessage) error {
	if c.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	resp, err := c.HTTPClient.Post(c.WebhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// NotifyRun sends the run summary; callers treat failure as non-fatal.
func (c *Client) NotifyRun(result *pipeline.Result) error {
	return c.SendSlackMessage(ConvertToSlackMessage(result))
}
