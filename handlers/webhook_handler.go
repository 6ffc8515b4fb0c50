package handlers

import (
	"net/http"

	"github.com/feedlane/feedlane-backend/types"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	tester WebhookTester
}

func NewWebhookHandler(tester WebhookTester) *WebhookHandler {
	return &WebhookHandler{tester: tester}
}

// TestWebhook godoc
// @Summary      Send a test webhook
// @Description  Delivers a sample feedback to the URL and reports the destination's answer.
// @Description  Delivery failures are reported in the body with success=false, not as an HTTP error.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        body  body      types.WebhookTestRequest  true  "Destination"
// @Success      200   {object}  types.WebhookTestResult
// @Failure      400   {object}  types.ErrorResponse
// @Failure      401   {object}  types.ErrorResponse
// @Router       /webhooks/test [post]
// @Security     BearerAuth
func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var req types.WebhookTestRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	result, err := h.tester.TestWebhook(c.Request.Context(), projectID, req.URL)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
