package hubspot

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

const serviceName = "hubspot"

// Client updates contact records in the CRM, addressed by email.
type Client struct {
	http *resty.Client
}

// NewClient creates a new CRM client.
func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Authorization", "Bearer "+accessToken).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout).
			SetRetryCount(0),
	}
}

// UpdateContactByEmail patches contact properties using the email address as
// the record id.
func (c *Client) UpdateContactByEmail(ctx context.Context, email string, properties map[string]string) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("idProperty", "email").
		SetBody(map[string]any{"properties": properties}).
		Patch("/crm/v3/objects/contacts/" + url.PathEscape(email))
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	log.Info().Str("email", email).Interface("properties", properties).Msg("CRM contact updated")
	return nil
}
