package convertkit

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

const serviceName = "convertkit"

// Client handles communication with the marketing-automation API. Tag
// subscription creates the subscriber when it does not exist yet, so the
// same call serves new and existing subscribers.
type Client struct {
	apiSecret string
	http      *resty.Client
}

// NewClient creates a new marketing-automation client.
func NewClient(baseURL, apiSecret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiSecret: apiSecret,
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json; charset=utf-8").
			SetTimeout(timeout).
			SetRetryCount(0),
	}
}

type subscribeRequest struct {
	APISecret string `json:"api_secret"`
	Email     string `json:"email"`
}

// SubscribeToTag subscribes an email address to a tag, creating the
// subscriber when needed. Repeat subscription to the same tag is a no-op
// server-side and is reported as success.
func (c *Client) SubscribeToTag(ctx context.Context, tagID, email string) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(subscribeRequest{APISecret: c.apiSecret, Email: email}).
		Post("/tags/" + tagID + "/subscribe")
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	log.Info().Str("tag_id", tagID).Str("email", email).Msg("marketing tag subscribed")
	return nil
}

// RemoveTagSubscription removes a tag from a subscriber.
func (c *Client) RemoveTagSubscription(ctx context.Context, tagID, email string) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(subscribeRequest{APISecret: c.apiSecret, Email: email}).
		Post("/tags/" + tagID + "/unsubscribe")
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	log.Info().Str("tag_id", tagID).Str("email", email).Msg("marketing tag removed")
	return nil
}

type subscribersResponse struct {
	Subscribers []struct {
		ID int64 `json:"id"`
	} `json:"subscribers"`
}

// SubscriberExists checks whether an email address is already a subscriber.
func (c *Client) SubscriberExists(ctx context.Context, email string) (bool, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("api_secret", c.apiSecret).
		SetQueryParam("email_address", email).
		SetResult(&subscribersResponse{}).
		Get("/subscribers")
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return false, err
	}
	if resp.IsError() {
		return false, platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	result := resp.Result().(*subscribersResponse)
	return len(result.Subscribers) > 0, nil
}
