package handlers

import (
	"net/http"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/gin-gonic/gin"
)

// FeedbackAPIHandler serves /api/v1/feedbacks for API key holders.
type FeedbackAPIHandler struct {
	feedback FeedbackManager
	replies  ReplyManager
}

func NewFeedbackAPIHandler(feedback FeedbackManager, replies ReplyManager) *FeedbackAPIHandler {
	return &FeedbackAPIHandler{feedback: feedback, replies: replies}
}

// ListFeedback godoc
// @Summary      List feedback
// @Description  Lists the project's feedback, newest first
// @Tags         feedbacks
// @Produce      json
// @Param        status  query     string  false  "PENDING, IN_PROGRESS, RESOLVED or CLOSED"
// @Param        type    query     string  false  "BUG, INQUIRY or FEATURE"
// @Param        page    query     int     false  "Page (default 1)"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Success      200     {object}  types.PaginatedResponse
// @Failure      400     {object}  types.ErrorResponse
// @Failure      401     {object}  types.ErrorResponse
// @Failure      429     {object}  types.ErrorResponse
// @Router       /feedbacks [get]
// @Security     BearerAuth
func (h *FeedbackAPIHandler) ListFeedback(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var params types.ListFeedbackParams
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(apperrors.ValidationFailed("Invalid query parameters", err.Error()))
		return
	}

	resp, err := h.feedback.ListFeedback(c.Request.Context(), projectID, params)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetFeedback godoc
// @Summary      Get feedback
// @Description  Returns one feedback with its replies
// @Tags         feedbacks
// @Produce      json
// @Param        id   path      string  true  "Feedback ID"
// @Success      200  {object}  types.FeedbackWithReplies
// @Failure      401  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /feedbacks/{id} [get]
// @Security     BearerAuth
func (h *FeedbackAPIHandler) GetFeedback(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	fb, err := h.replies.GetFeedbackWithReplies(c.Request.Context(), projectID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

// UpdateFeedback godoc
// @Summary      Update feedback status
// @Tags         feedbacks
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Feedback ID"
// @Param        body  body      types.FeedbackUpdate  true  "New status"
// @Success      200   {object}  types.Feedback
// @Failure      400   {object}  types.ErrorResponse
// @Failure      401   {object}  types.ErrorResponse
// @Failure      404   {object}  types.ErrorResponse
// @Router       /feedbacks/{id} [patch]
// @Security     BearerAuth
func (h *FeedbackAPIHandler) UpdateFeedback(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var req types.FeedbackUpdate
	if !bindJSONOrError(c, &req) {
		return
	}

	fb, err := h.feedback.UpdateStatus(c.Request.Context(), projectID, c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, fb)
}
