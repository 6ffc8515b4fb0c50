package handlers

import (
	"errors"
	"io"
	"net/http"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/internal/validation"
	"github.com/feedlane/feedlane-backend/middleware"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes caps a widget submission.
const DefaultMaxBodyBytes int64 = 64 << 10

// FeedbackHandler serves the public widget endpoint.
type FeedbackHandler struct {
	submitter    FeedbackSubmitter
	maxBodyBytes int64
}

// NewFeedbackHandler creates a new FeedbackHandler. maxBodyBytes <= 0 uses
// DefaultMaxBodyBytes.
func NewFeedbackHandler(submitter FeedbackSubmitter, maxBodyBytes int64) *FeedbackHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &FeedbackHandler{submitter: submitter, maxBodyBytes: maxBodyBytes}
}

// SubmitFeedback godoc
// @Summary      Submit feedback
// @Description  Accepts a widget submission, stores it and notifies the organization's webhooks
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Param        body  body      types.FeedbackSubmission  true  "Feedback payload"
// @Success      201   {object}  types.SubmitFeedbackResponse
// @Failure      400   {object}  types.ErrorResponse
// @Failure      403   {object}  types.ErrorResponse
// @Failure      404   {object}  types.ErrorResponse
// @Failure      413   {object}  types.ErrorResponse
// @Failure      429   {object}  types.ErrorResponse
// @Failure      500   {object}  types.ErrorResponse
// @Router       /feedback [post]
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(apperrors.PayloadTooLarge("Request body too large"))
			return
		}
		_ = c.Error(apperrors.ValidationFailed(apperrors.MsgInvalidJSON, ""))
		return
	}

	sub, err := validation.ValidateSubmission(body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	fb, err := h.submitter.Submit(c.Request.Context(), sub, c.GetHeader("Origin"))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ForbiddenError {
			middleware.ClearFeedbackCORS(c)
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, types.SubmitFeedbackResponse{Success: true, ID: fb.ID})
}
