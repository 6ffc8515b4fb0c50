package handlers

import (
	"net/http"

	"github.com/feedlane/feedlane-backend/types"
	"github.com/gin-gonic/gin"
)

type ReplyHandler struct {
	replies ReplyManager
}

func NewReplyHandler(replies ReplyManager) *ReplyHandler {
	return &ReplyHandler{replies: replies}
}

// CreateReply godoc
// @Summary      Reply to feedback
// @Tags         replies
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Feedback ID"
// @Param        body  body      types.ReplyCreate  true  "Reply"
// @Success      201   {object}  types.Reply
// @Failure      400   {object}  types.ErrorResponse
// @Failure      404   {object}  types.ErrorResponse
// @Router       /feedbacks/{id}/replies [post]
// @Security     BearerAuth
func (h *ReplyHandler) CreateReply(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var req types.ReplyCreate
	if !bindJSONOrError(c, &req) {
		return
	}

	reply, err := h.replies.CreateReply(c.Request.Context(), projectID, c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// UpdateReply godoc
// @Summary      Edit a reply
// @Tags         replies
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Feedback ID"
// @Param        replyId  path      string             true  "Reply ID"
// @Param        body     body      types.ReplyUpdate  true  "Reply"
// @Success      200      {object}  types.Reply
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /feedbacks/{id}/replies/{replyId} [put]
// @Security     BearerAuth
func (h *ReplyHandler) UpdateReply(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	var req types.ReplyUpdate
	if !bindJSONOrError(c, &req) {
		return
	}

	reply, err := h.replies.UpdateReply(c.Request.Context(), projectID, c.Param("id"), c.Param("replyId"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// DeleteReply godoc
// @Summary      Delete a reply
// @Tags         replies
// @Param        id       path  string  true  "Feedback ID"
// @Param        replyId  path  string  true  "Reply ID"
// @Success      204
// @Failure      404  {object}  types.ErrorResponse
// @Router       /feedbacks/{id}/replies/{replyId} [delete]
// @Security     BearerAuth
func (h *ReplyHandler) DeleteReply(c *gin.Context) {
	projectID, ok := projectIDFromContext(c)
	if !ok {
		return
	}

	if err := h.replies.DeleteReply(c.Request.Context(), projectID, c.Param("id"), c.Param("replyId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
