package types

import (
	"encoding/json"
	"time"
)

// FeedbackType classifies a submission from the widget.
type FeedbackType string

const (
	FeedbackTypeBug     FeedbackType = "BUG"
	FeedbackTypeInquiry FeedbackType = "INQUIRY"
	FeedbackTypeFeature FeedbackType = "FEATURE"
)

// IsValid reports whether t is one of the widget's feedback types.
func (t FeedbackType) IsValid() bool {
	switch t {
	case FeedbackTypeBug, FeedbackTypeInquiry, FeedbackTypeFeature:
		return true
	}
	return false
}

// FeedbackStatus is the triage state of a stored feedback.
type FeedbackStatus string

const (
	FeedbackStatusPending    FeedbackStatus = "PENDING"
	FeedbackStatusInProgress FeedbackStatus = "IN_PROGRESS"
	FeedbackStatusResolved   FeedbackStatus = "RESOLVED"
	FeedbackStatusClosed     FeedbackStatus = "CLOSED"
)

func (s FeedbackStatus) IsValid() bool {
	switch s {
	case FeedbackStatusPending, FeedbackStatusInProgress, FeedbackStatusResolved, FeedbackStatusClosed:
		return true
	}
	return false
}

// FeedbackSubmission is a validated widget submission, ready to be stored.
type FeedbackSubmission struct {
	ProjectID string          `json:"projectId"`
	Type      FeedbackType    `json:"type"`
	Message   string          `json:"message"`
	Email     *string         `json:"email,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// FeedbackMetadata is the shape the widget sends in metadata. Other keys are
// preserved in Feedback.Metadata but not interpreted.
type FeedbackMetadata struct {
	URL       string `json:"url,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// Feedback represents a feedback entry stored in the database.
type Feedback struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	Type      FeedbackType    `json:"type"`
	Message   string          `json:"message"`
	Email     *string         `json:"email"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Status    FeedbackStatus  `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PageURL returns metadata.url when the widget provided one.
func (f *Feedback) PageURL() string {
	if len(f.Metadata) == 0 {
		return ""
	}
	var meta FeedbackMetadata
	if err := json.Unmarshal(f.Metadata, &meta); err != nil {
		return ""
	}
	return meta.URL
}

// FeedbackWithReplies is returned by the single-feedback API.
type FeedbackWithReplies struct {
	Feedback
	Replies []Reply `json:"replies"`
}

// FeedbackFilter narrows a feedback listing.
type FeedbackFilter struct {
	Status FeedbackStatus
	Type   FeedbackType
	Limit  int
	Offset int
}

// FeedbackUpdate is the PATCH body of the authenticated API.
type FeedbackUpdate struct {
	Status FeedbackStatus `json:"status" binding:"required"`
}

// SubmitFeedbackResponse is the 201 body of the public endpoint.
type SubmitFeedbackResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// Reply is an operator answer attached to a feedback.
type Reply struct {
	ID         string    `json:"id"`
	FeedbackID string    `json:"feedbackId"`
	Content    string    `json:"content"`
	AuthorName *string   `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ReplyCreate is the body for creating a reply.
type ReplyCreate struct {
	Content    string  `json:"content" binding:"required,max=5000"`
	AuthorName *string `json:"authorName,omitempty" binding:"omitempty,max=100"`
}

// ReplyUpdate is the body for editing a reply.
type ReplyUpdate struct {
	Content string `json:"content" binding:"required,max=5000"`
}
