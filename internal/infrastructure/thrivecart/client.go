package thrivecart

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

const serviceName = "thrivecart"

// Client grants students access to a course via the external students API.
// The API is form-encoded, not JSON.
type Client struct {
	apiKey   string
	courseID string
	http     *resty.Client
}

// NewClient creates a new course-access client.
func NewClient(baseURL, apiKey, courseID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:   apiKey,
		courseID: courseID,
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Authorization", apiKey).
			SetTimeout(timeout).
			SetRetryCount(0),
	}
}

// GrantAccess enrolls a student into the configured course and triggers the
// enrollment emails. Re-enrolling an existing student is safe.
func (c *Client) GrantAccess(ctx context.Context, email, name string) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":                     email,
			"name":                      name,
			"course_id":                 c.courseID,
			"trigger_emails":            "true",
			"tags[]":                    "",
			"order_info[order_id]":      "",
			"order_info[purchase_type]": "",
			"order_info[purchase_id]":   "",
		}).
		Post("/external/students")
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if resp.IsError() {
		return platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	log.Info().Str("email", email).Str("course_id", c.courseID).Msg("course access granted")
	return nil
}
