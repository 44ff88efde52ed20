package slackalert

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"webhook-bridge/internal/domain/alerting"
	"webhook-bridge/internal/infrastructure/metrics"
)

const serviceName = "slack"

// Client posts alerts to a Slack incoming webhook.
type Client struct {
	webhookURL string
}

var _ alerting.Sink = (*Client)(nil)

// NewClient creates a new alerting sink.
func NewClient(webhookURL string) *Client {
	return &Client{webhookURL: webhookURL}
}

// Post delivers one alert as a colored attachment. The caller treats
// delivery as fire-and-forget; errors are only used for step reporting.
func (c *Client) Post(ctx context.Context, alert alerting.Alert) error {
	fields := make([]slack.AttachmentField, 0, len(alert.Fields))
	for _, f := range alert.Fields {
		fields = append(fields, slack.AttachmentField{
			Title: f.Title,
			Value: f.Value,
			Short: f.Short,
		})
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{{
			Color:  alert.Color,
			Title:  alert.Title,
			Text:   alert.Text,
			Fields: fields,
			Footer: alert.Footer,
		}},
	}

	start := time.Now()
	err := slack.PostWebhookContext(ctx, c.webhookURL, msg)
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("title", alert.Title).Msg("failed to post alert")
		return err
	}
	return nil
}
