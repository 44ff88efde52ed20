package webhooks

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webhook-bridge/internal/domain/workflow"
	"webhook-bridge/internal/interfaces/httpserver/responses"
	"webhook-bridge/utils/platformerrors"
)

// SchedulingRoute handles webhooks from the scheduling platform.
type SchedulingRoute struct {
	flow *workflow.SchedulingFlow
}

// NewSchedulingRoute creates the scheduling webhook route.
func NewSchedulingRoute(flow *workflow.SchedulingFlow) *SchedulingRoute {
	return &SchedulingRoute{flow: flow}
}

// RegisterRouter registers the scheduling webhook endpoint.
func (route *SchedulingRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/scheduling/webhook", route.handleWebhook)
}

// handleWebhook acknowledges any structurally valid payload with 200 so the
// platform does not retry; downstream outcomes are reported per step. Only
// a payload with no usable identity is rejected.
func (route *SchedulingRoute) handleWebhook(reqCtx *gin.Context) {
	raw, err := reqCtx.GetRawData()
	if err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "unable to read request body")
		return
	}

	result, err := route.flow.Process(reqCtx.Request.Context(), raw)
	if err != nil {
		responses.HandleError(reqCtx, err, "invalid webhook payload")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.WebhookAck{
		Success: true,
		Message: "Webhook payload received and processed.",
		Steps:   result.Steps,
	})
}
