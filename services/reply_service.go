package services

import (
	"context"

	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/internal/validation"
	"github.com/feedlane/feedlane-backend/types"
)

// ReplyService manages replies on feedback owned by a project.
type ReplyService struct {
	feedback store.FeedbackStore
	replies  store.ReplyStore
}

func NewReplyService(feedback store.FeedbackStore, replies store.ReplyStore) *ReplyService {
	return &ReplyService{feedback: feedback, replies: replies}
}

// ensureOwned fails with 404 unless the feedback belongs to the project.
func (s *ReplyService) ensureOwned(ctx context.Context, projectID, feedbackID string) (*types.Feedback, error) {
	fb, err := s.feedback.GetFeedback(ctx, projectID, feedbackID)
	if err != nil {
		return nil, mapStoreError(err, "Feedback", feedbackID)
	}
	return fb, nil
}

// GetFeedbackWithReplies returns the feedback and its replies, oldest first.
func (s *ReplyService) GetFeedbackWithReplies(ctx context.Context, projectID, feedbackID string) (*types.FeedbackWithReplies, error) {
	fb, err := s.ensureOwned(ctx, projectID, feedbackID)
	if err != nil {
		return nil, err
	}
	replies, err := s.replies.ListReplies(ctx, feedbackID)
	if err != nil {
		return nil, mapStoreError(err, "Feedback", feedbackID)
	}
	return &types.FeedbackWithReplies{Feedback: *fb, Replies: replies}, nil
}

func (s *ReplyService) CreateReply(ctx context.Context, projectID, feedbackID string, req types.ReplyCreate) (*types.Reply, error) {
	content, err := validation.ValidateReplyContent(req.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureOwned(ctx, projectID, feedbackID); err != nil {
		return nil, err
	}
	reply, err := s.replies.CreateReply(ctx, feedbackID, content, req.AuthorName)
	if err != nil {
		return nil, mapStoreError(err, "Feedback", feedbackID)
	}
	return reply, nil
}

func (s *ReplyService) UpdateReply(ctx context.Context, projectID, feedbackID, replyID string, req types.ReplyUpdate) (*types.Reply, error) {
	content, err := validation.ValidateReplyContent(req.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.ensureOwned(ctx, projectID, feedbackID); err != nil {
		return nil, err
	}
	reply, err := s.replies.UpdateReply(ctx, feedbackID, replyID, content)
	if err != nil {
		return nil, mapStoreError(err, "Reply", replyID)
	}
	return reply, nil
}

func (s *ReplyService) DeleteReply(ctx context.Context, projectID, feedbackID, replyID string) error {
	if _, err := s.ensureOwned(ctx, projectID, feedbackID); err != nil {
		return err
	}
	if err := s.replies.DeleteReply(ctx, feedbackID, replyID); err != nil {
		return mapStoreError(err, "Reply", replyID)
	}
	return nil
}
