package webhooks

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webhook-bridge/internal/domain/contact"
	"webhook-bridge/internal/domain/event"
	"webhook-bridge/internal/interfaces/httpserver/responses"
	"webhook-bridge/utils/platformerrors"
)

// ContactsRoute tags contacts in the directory, creating the contact first
// when it does not exist yet.
type ContactsRoute struct {
	resolver  *contact.Resolver
	directory contact.Directory
}

// NewContactsRoute creates the contact tagging route.
func NewContactsRoute(resolver *contact.Resolver, directory contact.Directory) *ContactsRoute {
	return &ContactsRoute{resolver: resolver, directory: directory}
}

// RegisterRouter registers the contact tagging endpoint.
func (route *ContactsRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/contacts/tag", route.handleTag)
}

type contactTagResult struct {
	ContactID string `json:"contact_id"`
	TagID     string `json:"tag_id"`
	Tagged    bool   `json:"tagged"`
}

func (route *ContactsRoute) handleTag(reqCtx *gin.Context) {
	raw, err := reqCtx.GetRawData()
	if err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unable to read request body")
		return
	}

	evt, err := event.Normalize(reqCtx.Request.Context(), raw)
	if err != nil {
		responses.HandleError(reqCtx, err, "invalid payload")
		return
	}
	tagID := evt.Meta(event.MetaTagID)
	if evt.Email == "" || tagID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "email and tag_id are required")
		return
	}

	// The directory is the one collaborator this endpoint cannot degrade
	// without, so its absence is a hard failure rather than a skipped step.
	if route.resolver == nil || route.directory == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeConfiguration, "contact directory is not configured")
		return
	}

	ctx := reqCtx.Request.Context()
	resolved, err := route.resolver.ResolveOrCreate(ctx, contact.Hints{Email: evt.Email, Phone: evt.Phone})
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to resolve contact")
		return
	}

	if err := route.directory.AddTag(ctx, resolved.ID, tagID); err != nil {
		responses.HandleError(reqCtx, err, "failed to tag contact")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.GeneralResponse[contactTagResult]{
		Success: true,
		Result: contactTagResult{
			ContactID: resolved.ID,
			TagID:     tagID,
			Tagged:    true,
		},
	})
}
