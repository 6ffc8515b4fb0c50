package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/internal/origin"
	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/types"
	"go.uber.org/zap"
)

// Notifier announces a stored feedback to the organization's destinations.
// Implementations must not block on delivery.
type Notifier interface {
	Dispatch(fb *types.Feedback, project *types.Project)
}

// FeedbackService owns the ingestion path and the project-scoped feedback API.
type FeedbackService struct {
	projects store.ProjectStore
	feedback store.FeedbackStore
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewFeedbackService(projects store.ProjectStore, feedback store.FeedbackStore, notifier Notifier) *FeedbackService {
	return &FeedbackService{
		projects: projects,
		feedback: feedback,
		notifier: notifier,
		log:      logger.GetLogger().Named("feedback"),
	}
}

// Submit stores a validated submission and hands it to the notifier.
// originHeader is the raw Origin request header; an empty value skips the
// allow-list check. The origin is checked before anything is written.
func (s *FeedbackService) Submit(ctx context.Context, sub *types.FeedbackSubmission, originHeader string) (*types.Feedback, error) {
	project, err := s.projects.GetProjectWithOrganization(ctx, sub.ProjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.New(apperrors.NotFoundError, apperrors.MsgProjectNotFound, "")
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	if originHeader != "" && !origin.IsAllowed(originHeader, project.AllowedOrigins) {
		s.log.Infow("Rejected feedback from disallowed origin",
			"projectId", project.ID,
			"origin", originHeader)
		return nil, apperrors.Forbidden(apperrors.MsgOriginNotAllowed, "")
	}

	fb, err := s.feedback.CreateFeedback(ctx, sub)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	fields := []interface{}{"feedbackId", fb.ID, "projectId", project.ID, "type", fb.Type}
	if fb.Email != nil && *fb.Email != "" {
		fields = append(fields, "email", logger.MaskEmail(*fb.Email))
	}
	s.log.Infow("Feedback stored", fields...)

	s.notify(fb, project)
	return fb, nil
}

// notify never lets the notifier affect the submission outcome.
func (s *FeedbackService) notify(fb *types.Feedback, project *types.Project) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Webhook dispatch panicked",
				"feedbackId", fb.ID,
				"panic", fmt.Sprint(r))
		}
	}()
	s.notifier.Dispatch(fb, project)
}

// ListFeedback returns one page of a project's feedback.
func (s *FeedbackService) ListFeedback(ctx context.Context, projectID string, params types.ListFeedbackParams) (*types.PaginatedResponse, error) {
	status := types.FeedbackStatus(params.Status)
	if status != "" && !status.IsValid() {
		return nil, apperrors.ValidationFailed("Invalid status", params.Status)
	}
	fbType := types.FeedbackType(params.Type)
	if fbType != "" && !fbType.IsValid() {
		return nil, apperrors.ValidationFailed(apperrors.MsgInvalidFeedbackType, params.Type)
	}

	page, limit := params.Page, params.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	items, total, err := s.feedback.ListFeedback(ctx, projectID, types.FeedbackFilter{
		Status: status,
		Type:   fbType,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, mapStoreError(err, "Feedback", projectID)
	}

	return &types.PaginatedResponse{
		Data:       items,
		Pagination: types.Pagination{Page: page, Limit: limit, Total: total},
	}, nil
}

// GetFeedback returns a project's feedback or a 404.
func (s *FeedbackService) GetFeedback(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error) {
	fb, err := s.feedback.GetFeedback(ctx, projectID, feedbackID)
	if err != nil {
		return nil, mapStoreError(err, "Feedback", feedbackID)
	}
	return fb, nil
}

func (s *FeedbackService) UpdateStatus(ctx context.Context, projectID, feedbackID string, status types.FeedbackStatus) (*types.Feedback, error) {
	if !status.IsValid() {
		return nil, apperrors.ValidationFailed("Invalid status", string(status))
	}
	fb, err := s.feedback.UpdateFeedbackStatus(ctx, projectID, feedbackID, status)
	if err != nil {
		return nil, mapStoreError(err, "Feedback", feedbackID)
	}
	return fb, nil
}

// mapStoreError turns store sentinels into API errors. Rows outside the
// caller's project are reported exactly like missing rows.
func mapStoreError(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound(entity, id)
	}
	return apperrors.NewDatabaseError(err)
}
