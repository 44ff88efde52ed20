package intercom

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/infrastructure/metrics"
	"webhook-bridge/utils/platformerrors"
)

const serviceName = "intercom"

// ClientConfig captures the knobs exposed to operators for the directory
// and conversation client.
type ClientConfig struct {
	BaseURL     string
	AccessToken string
	APIVersion  string

	HTTPTimeout     time.Duration
	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration

	RetryMaxAttempts   int
	RetryInitialDelay  time.Duration
	RetryMaxDelay      time.Duration
	RetryBackoffFactor float64
}

// Client implements the contact directory and conversation service on the
// Intercom REST API.
type Client struct {
	cfg         ClientConfig
	http        *resty.Client
	retryConfig RetryConfig
}

var _ contact.Directory = (*Client)(nil)
var _ conversation.Service = (*Client)(nil)

// NewClient wires the HTTP client for the Intercom API.
func NewClient(cfg ClientConfig) *Client {
	httpTimeout := 15 * time.Second
	if cfg.HTTPTimeout > 0 {
		httpTimeout = cfg.HTTPTimeout
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 50
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.AccessToken).
		SetHeader("Intercom-Version", cfg.APIVersion).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(httpTimeout).
		SetRetryCount(0).
		SetTransport(transport)

	retryConfig := DefaultRetryConfig()
	if cfg.RetryMaxAttempts > 0 {
		retryConfig.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialDelay > 0 {
		retryConfig.InitialDelay = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		retryConfig.MaxDelay = cfg.RetryMaxDelay
	}
	if cfg.RetryBackoffFactor > 0 {
		retryConfig.BackoffFactor = cfg.RetryBackoffFactor
	}

	return &Client{
		cfg:         cfg,
		http:        httpClient,
		retryConfig: retryConfig,
	}
}

type searchQuery struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type contactSearchRequest struct {
	Query searchQuery `json:"query"`
}

type apiTagList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type apiContact struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Phone string     `json:"phone"`
	Tags  apiTagList `json:"tags"`
}

type contactSearchResponse struct {
	Data []apiContact `json:"data"`
}

func (c apiContact) toDomain() contact.Contact {
	tags := make([]string, 0, len(c.Tags.Data))
	for _, t := range c.Tags.Data {
		tags = append(tags, t.ID)
	}
	return contact.Contact{ID: c.ID, Email: c.Email, Phone: c.Phone, Tags: tags}
}

// SearchByAttribute finds contacts whose field equals value.
func (c *Client) SearchByAttribute(ctx context.Context, field, value string) ([]contact.Contact, error) {
	body := contactSearchRequest{Query: searchQuery{Field: field, Operator: "=", Value: value}}

	result, err := WithRetry(ctx, c.retryConfig, "contact_search", func() (*contactSearchResponse, error) {
		start := time.Now()
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&contactSearchResponse{}).
			Post("/contacts/search")
		metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
		}
		return resp.Result().(*contactSearchResponse), nil
	})
	if err != nil {
		return nil, err
	}

	contacts := make([]contact.Contact, 0, len(result.Data))
	for _, ac := range result.Data {
		contacts = append(contacts, ac.toDomain())
	}
	return contacts, nil
}

// CreateContact explicitly creates a user-role contact in the directory.
func (c *Client) CreateContact(ctx context.Context, attrs contact.CreateAttrs) (*contact.Contact, error) {
	body := map[string]any{"role": "user"}
	if attrs.Email != "" {
		body["email"] = attrs.Email
	}
	if attrs.Phone != "" {
		body["phone"] = attrs.Phone
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&apiContact{}).
		Post("/contacts")
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	created := resp.Result().(*apiContact).toDomain()
	log.Info().Str("contact_id", created.ID).Msg("directory contact created")
	return &created, nil
}

// UpdateContact updates custom properties of a directory contact.
func (c *Client) UpdateContact(ctx context.Context, id string, attrs contact.UpdateAttrs) (*contact.Contact, error) {
	body := map[string]any{"custom_attributes": attrs.Properties}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&apiContact{}).
		Put("/contacts/" + id)
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	updated := resp.Result().(*apiContact).toDomain()
	return &updated, nil
}

// AddTag applies a tag to a contact. The directory treats tag membership as
// a set; a repeat application, including a conflict response for an
// already-present tag, is reported as success.
func (c *Client) AddTag(ctx context.Context, contactID, tagID string) error {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"id": tagID}).
		Post("/contacts/" + contactID + "/tags")
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusConflict {
		log.Info().
			Str("contact_id", contactID).
			Str("tag_id", tagID).
			Msg("tag already applied, treating as success")
		return nil
	}
	if resp.IsError() {
		return platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

type conversationSearchRequest struct {
	Query struct {
		Operator string        `json:"operator"`
		Value    []searchQuery `json:"value"`
	} `json:"query"`
	Pagination struct {
		PerPage int `json:"per_page"`
	} `json:"pagination"`
	Sort struct {
		Field string `json:"field"`
		Order string `json:"order"`
	} `json:"sort"`
}

type conversationSearchResponse struct {
	Conversations []struct {
		ID        string `json:"id"`
		UpdatedAt int64  `json:"updated_at"`
	} `json:"conversations"`
}

// SearchConversations returns at most limit conversations for a contact,
// most-recently-updated first.
func (c *Client) SearchConversations(ctx context.Context, contactID string, limit int) ([]conversation.Summary, error) {
	var body conversationSearchRequest
	body.Query.Operator = "AND"
	body.Query.Value = []searchQuery{{Field: "contact_ids", Operator: "=", Value: contactID}}
	body.Pagination.PerPage = limit
	body.Sort.Field = "updated_at"
	body.Sort.Order = "descending"

	result, err := WithRetry(ctx, c.retryConfig, "conversation_search", func() (*conversationSearchResponse, error) {
		start := time.Now()
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&conversationSearchResponse{}).
			Post("/conversations/search")
		metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
		}
		return resp.Result().(*conversationSearchResponse), nil
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]conversation.Summary, 0, len(result.Conversations))
	for _, conv := range result.Conversations {
		summaries = append(summaries, conversation.Summary{
			ID:        conv.ID,
			UpdatedAt: time.Unix(conv.UpdatedAt, 0),
		})
	}
	return summaries, nil
}

type apiAuthor struct {
	Type string `json:"type"`
}

type apiConversationPart struct {
	Author    apiAuthor `json:"author"`
	Body      string    `json:"body"`
	CreatedAt int64     `json:"created_at"`
}

type apiConversationDetail struct {
	ID     string `json:"id"`
	Source struct {
		Author      apiAuthor `json:"author"`
		Body        string    `json:"body"`
		DeliveredAs string    `json:"delivered_as"`
		CreatedAt   int64     `json:"created_at"`
	} `json:"source"`
	ConversationParts struct {
		ConversationParts []apiConversationPart `json:"conversation_parts"`
	} `json:"conversation_parts"`
}

// GetConversationDetail fetches a conversation and merges its origin message
// with the ordered reply parts into one timeline.
func (c *Client) GetConversationDetail(ctx context.Context, id string) (*conversation.Detail, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&apiConversationDetail{}).
		Get("/conversations/" + id)
	metrics.ObserveExternal(serviceName, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, platformerrors.NewUpstreamError(ctx, serviceName, resp.StatusCode(), string(resp.Body()))
	}

	raw := resp.Result().(*apiConversationDetail)
	detail := &conversation.Detail{
		ID:      raw.ID,
		Channel: mapChannel(raw.Source.DeliveredAs),
	}

	timeline := make(conversation.Timeline, 0, len(raw.ConversationParts.ConversationParts)+1)
	timeline = append(timeline, conversation.Event{
		Actor:     mapActor(raw.Source.Author.Type),
		Channel:   detail.Channel,
		Timestamp: time.Unix(raw.Source.CreatedAt, 0),
		Body:      raw.Source.Body,
	})
	for _, part := range raw.ConversationParts.ConversationParts {
		timeline = append(timeline, conversation.Event{
			Actor:     mapActor(part.Author.Type),
			Channel:   detail.Channel,
			Timestamp: time.Unix(part.CreatedAt, 0),
			Body:      part.Body,
		})
	}
	detail.Timeline = timeline

	return detail, nil
}

func mapActor(authorType string) conversation.ActorType {
	switch authorType {
	case "bot":
		return conversation.ActorAutomatedAgent
	case "admin", "team":
		return conversation.ActorHumanOperator
	default:
		// user, lead and contact authors are all end users
		return conversation.ActorEndUser
	}
}

func mapChannel(deliveredAs string) conversation.Channel {
	switch deliveredAs {
	case "whatsapp":
		return conversation.ChannelMessagingApp
	case "email":
		return conversation.ChannelEmail
	case "chat", "customer_initiated", "admin_initiated":
		return conversation.ChannelChat
	default:
		return conversation.ChannelOther
	}
}
