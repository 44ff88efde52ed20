package webhooks_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/conversation"
	"webhook-bridge/internal/domain/tagging"
	"webhook-bridge/internal/domain/workflow"
	convertkitclient "webhook-bridge/internal/infrastructure/convertkit"
	intercomclient "webhook-bridge/internal/infrastructure/intercom"
	"webhook-bridge/internal/infrastructure/tagrules"
	"webhook-bridge/internal/interfaces/httpserver/responses"
	"webhook-bridge/internal/interfaces/httpserver/routes/webhooks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type registrar interface {
	RegisterRouter(router *gin.RouterGroup)
}

func newRouter(routes ...registrar) *gin.Engine {
	router := gin.New()
	api := router.Group("/api")
	for _, r := range routes {
		r.RegisterRouter(api)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSchedulingWebhook_AcknowledgesValidPayload(t *testing.T) {
	// No collaborators configured: every step is reported as skipped but the
	// platform still gets its acknowledgment.
	flow := workflow.NewSchedulingFlow(nil, nil, nil, nil, &tagrules.Config{})
	router := newRouter(webhooks.NewSchedulingRoute(flow))

	rec := doJSON(t, router, http.MethodPost, "/api/scheduling/webhook",
		`[{"invitee": {"email": "jane@example.com"}}]`)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack responses.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.True(t, ack.Success)
	require.Len(t, ack.Steps, 3)
	for _, s := range ack.Steps {
		require.Equal(t, workflow.StatusSkipped, s.Status)
	}
}

func TestSchedulingWebhook_MissingIdentityIsRejected(t *testing.T) {
	flow := workflow.NewSchedulingFlow(nil, nil, nil, nil, &tagrules.Config{})
	router := newRouter(webhooks.NewSchedulingRoute(flow))

	rec := doJSON(t, router, http.MethodPost, "/api/scheduling/webhook", `[{"invitee": {}}]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/scheduling/webhook", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgreementWebhook_AcknowledgesValidPayload(t *testing.T) {
	flow := workflow.NewAgreementFlow(nil, nil, nil, nil, &tagrules.Config{})
	router := newRouter(webhooks.NewAgreementRoute(flow))

	rec := doJSON(t, router, http.MethodPost, "/api/agreement/webhook",
		`{"event_type": "form.viewed", "data": {"email": "signer@example.com"}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack responses.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.True(t, ack.Success)
	require.Len(t, ack.Steps, 1)
	require.Equal(t, "event-alert", ack.Steps[0].Name)
}

func TestMarketingTag_SubscribesThroughClient(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"subscription": {"id": 1}}`))
	}))
	t.Cleanup(server.Close)

	client := convertkitclient.NewClient(server.URL, "secret", time.Second)
	router := newRouter(webhooks.NewMarketingRoute(client, &tagrules.Config{}))

	rec := doJSON(t, router, http.MethodPost, "/api/marketing/tag",
		`{"email": "jane@example.com", "tag_id": "13115759"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/tags/13115759/subscribe", gotPath)
	require.Equal(t, "jane@example.com", gotBody["email"])
	require.Equal(t, "secret", gotBody["api_secret"])
}

func TestMarketingTag_Validation(t *testing.T) {
	router := newRouter(webhooks.NewMarketingRoute(nil, &tagrules.Config{}))

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing tag id", body: `{"email": "jane@example.com"}`, want: http.StatusBadRequest},
		{name: "invalid email", body: `{"email": "not an email", "tag_id": "1"}`, want: http.StatusBadRequest},
		{name: "missing identity", body: `{"tag_id": "1"}`, want: http.StatusBadRequest},
		// Valid input against an unconfigured client is a server-side problem
		{name: "unconfigured client", body: `{"email": "jane@example.com", "tag_id": "1"}`, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/marketing/tag", tt.body)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMarketingTagRemove_UnsubscribesThroughClient(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := convertkitclient.NewClient(server.URL, "secret", time.Second)
	router := newRouter(webhooks.NewMarketingRoute(client, &tagrules.Config{}))

	rec := doJSON(t, router, http.MethodPost, "/api/marketing/tag/remove",
		`{"email": "jane@example.com", "tag_id": "13115759"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/tags/13115759/unsubscribe", gotPath)
}

func TestMarketingNoShow_AppliesConfiguredTag(t *testing.T) {
	var subscribePath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/subscribe") {
			subscribePath = r.URL.Path
		}
		w.Write([]byte(`{"subscribers": []}`))
	}))
	t.Cleanup(server.Close)

	client := convertkitclient.NewClient(server.URL, "secret", time.Second)
	rules := &tagrules.Config{Marketing: tagrules.MarketingRules{NoShowTagID: "14879158"}}
	router := newRouter(webhooks.NewMarketingRoute(client, rules))

	rec := doJSON(t, router, http.MethodPost, "/api/marketing/no-show",
		`{"email": "jane@example.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/tags/14879158/subscribe", subscribePath)
}

func TestMarketingNoShow_UnconfiguredTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := convertkitclient.NewClient(server.URL, "secret", time.Second)
	router := newRouter(webhooks.NewMarketingRoute(client, &tagrules.Config{}))

	rec := doJSON(t, router, http.MethodPost, "/api/marketing/no-show",
		`{"email": "jane@example.com"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestSchedulingWebhook_ProceedsOnPartialLookupFailure runs the whole stack
// against a fake directory API where the email lookup keeps returning 500
// but the phone lookup succeeds. The flow must still resolve the contact,
// classify its conversation and apply the outcome tag.
func TestSchedulingWebhook_ProceedsOnPartialLookupFailure(t *testing.T) {
	var appliedTags []string

	directoryAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/contacts/search":
			var body struct {
				Query struct {
					Field string `json:"field"`
				} `json:"query"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body.Query.Field == "email" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"data": [{"id": "c1", "phone": "+447700900000"}]}`))
		case r.URL.Path == "/conversations/search":
			w.Write([]byte(`{"conversations": [{"id": "conv1", "updated_at": 1700000000}]}`))
		case r.URL.Path == "/conversations/conv1":
			w.Write([]byte(`{
				"id": "conv1",
				"source": {"author": {"type": "bot"}, "delivered_as": "whatsapp", "created_at": 1700000000},
				"conversation_parts": {"conversation_parts": [
					{"author": {"type": "user"}, "created_at": 1700000060}
				]}
			}`))
		case strings.HasSuffix(r.URL.Path, "/tags"):
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			appliedTags = append(appliedTags, body["id"])
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(directoryAPI.Close)

	directory := intercomclient.NewClient(intercomclient.ClientConfig{
		BaseURL:           directoryAPI.URL,
		AccessToken:       "test-token",
		APIVersion:        "2.14",
		RetryMaxAttempts:  2,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	})
	rules := &tagrules.Config{Interaction: tagrules.InteractionTags{
		MessagingTagID: "msg-tag",
		EmailTagID:     "email-tag",
	}}
	flow := workflow.NewSchedulingFlow(
		contact.NewResolver(directory),
		conversation.NewAnalyzer(directory, 5),
		tagging.NewTagger(directory),
		nil,
		rules,
	)
	router := newRouter(webhooks.NewSchedulingRoute(flow))

	rec := doJSON(t, router, http.MethodPost, "/api/scheduling/webhook",
		`[{"invitee": {"email": "jane@example.com", "text_notification_phone": "+447700900000"}}]`)

	require.Equal(t, http.StatusOK, rec.Code)

	var ack responses.WebhookAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.True(t, ack.Success)

	for _, s := range ack.Steps {
		if s.Name == "interaction-tagging" {
			require.Equal(t, workflow.StatusSuccess, s.Status)
		}
	}
	require.Equal(t, []string{"msg-tag"}, appliedTags)
}

func TestContactsTag_UnconfiguredDirectory(t *testing.T) {
	router := newRouter(webhooks.NewContactsRoute(nil, nil))

	rec := doJSON(t, router, http.MethodPost, "/api/contacts/tag",
		`{"email": "jane@example.com", "tag_id": "1"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestContactsTag_Validation(t *testing.T) {
	router := newRouter(webhooks.NewContactsRoute(nil, nil))

	rec := doJSON(t, router, http.MethodPost, "/api/contacts/tag", `{"email": "jane@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
