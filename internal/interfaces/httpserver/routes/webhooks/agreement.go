package webhooks

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webhook-bridge/internal/domain/workflow"
	"webhook-bridge/internal/interfaces/httpserver/responses"
	"webhook-bridge/utils/platformerrors"
)

// AgreementRoute handles webhooks from the e-signature platform.
type AgreementRoute struct {
	flow *workflow.AgreementFlow
}

// NewAgreementRoute creates the agreement webhook route.
func NewAgreementRoute(flow *workflow.AgreementFlow) *AgreementRoute {
	return &AgreementRoute{flow: flow}
}

// RegisterRouter registers the agreement webhook endpoint.
func (route *AgreementRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/agreement/webhook", route.handleWebhook)
}

func (route *AgreementRoute) handleWebhook(reqCtx *gin.Context) {
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
