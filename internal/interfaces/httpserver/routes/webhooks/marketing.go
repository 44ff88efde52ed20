package webhooks

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"webhook-bridge/internal/domain/event"
	convertkitclient "webhook-bridge/internal/infrastructure/convertkit"
	"webhook-bridge/internal/infrastructure/tagrules"
	"webhook-bridge/internal/interfaces/httpserver/responses"
	"webhook-bridge/utils/platformerrors"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MarketingRoute handles direct marketing-tag webhooks: subscribe a contact
// to a tag, remove a tag subscription, and flag session no-shows.
type MarketingRoute struct {
	client *convertkitclient.Client
	rules  *tagrules.Config
}

// NewMarketingRoute creates the marketing tag routes.
func NewMarketingRoute(client *convertkitclient.Client, rules *tagrules.Config) *MarketingRoute {
	return &MarketingRoute{client: client, rules: rules}
}

// RegisterRouter registers the marketing tag endpoints.
func (route *MarketingRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/marketing/tag", route.handleTag)
	router.POST("/marketing/tag/remove", route.handleTagRemove)
	router.POST("/marketing/no-show", route.handleNoShow)
}

// parseTagRequest extracts the email and tag id from the payload, tolerating
// the flat and form-builder shapes senders use.
func (route *MarketingRoute) parseTagRequest(reqCtx *gin.Context, needTag bool) (email, tagID string, ok bool) {
	raw, err := reqCtx.GetRawData()
	if err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unable to read request body")
		return "", "", false
	}

	evt, err := event.Normalize(reqCtx.Request.Context(), raw)
	if err != nil {
		responses.HandleError(reqCtx, err, "invalid payload")
		return "", "", false
	}

	if evt.Email == "" || !emailPattern.MatchString(evt.Email) {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "a valid email address is required")
		return "", "", false
	}
	tagID = evt.Meta(event.MetaTagID)
	if needTag && tagID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "tag_id is required")
		return "", "", false
	}
	return evt.Email, tagID, true
}

func (route *MarketingRoute) handleTag(reqCtx *gin.Context) {
	email, tagID, ok := route.parseTagRequest(reqCtx, true)
	if !ok {
		return
	}
	if route.client == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeConfiguration, "marketing automation is not configured")
		return
	}

	if err := route.client.SubscribeToTag(reqCtx.Request.Context(), tagID, email); err != nil {
		responses.HandleError(reqCtx, err, "failed to subscribe email to tag")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.WebhookAck{
		Success: true,
		Message: "Tag subscription created.",
	})
}

func (route *MarketingRoute) handleTagRemove(reqCtx *gin.Context) {
	email, tagID, ok := route.parseTagRequest(reqCtx, true)
	if !ok {
		return
	}
	if route.client == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeConfiguration, "marketing automation is not configured")
		return
	}

	if err := route.client.RemoveTagSubscription(reqCtx.Request.Context(), tagID, email); err != nil {
		responses.HandleError(reqCtx, err, "failed to remove tag subscription")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.WebhookAck{
		Success: true,
		Message: "Tag subscription removed.",
	})
}

// handleNoShow applies the configured no-show tag to the registrant. The
// tag subscription creates the subscriber when needed, so an unknown email
// is not an error.
func (route *MarketingRoute) handleNoShow(reqCtx *gin.Context) {
	email, _, ok := route.parseTagRequest(reqCtx, false)
	if !ok {
		return
	}
	if route.client == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeConfiguration, "marketing automation is not configured")
		return
	}
	tagID := route.rules.NoShowTag()
	if tagID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeConfiguration, "no-show tag is not configured")
		return
	}

	exists, err := route.client.SubscriberExists(reqCtx.Request.Context(), email)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("subscriber lookup failed")
	} else if !exists {
		log.Info().Str("email", email).Msg("no-show email is not a subscriber yet")
	}

	if err := route.client.SubscribeToTag(reqCtx.Request.Context(), tagID, email); err != nil {
		responses.HandleError(reqCtx, err, "failed to tag no-show")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.WebhookAck{
		Success: true,
		Message: "No-show recorded.",
	})
}
