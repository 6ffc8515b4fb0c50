package docs

import (
	"time"
)

// This file contains models used by Swagger documentation
// It doesn't affect the actual application logic, just documentation

// RawMessage is a placeholder for json.RawMessage to help Swagger
type RawMessage []byte

// FeedbackSubmission documents the widget request body.
// @Description Feedback sent by the embeddable widget
type FeedbackSubmission struct {
	// The project the widget is installed on
	ProjectID string `json:"projectId" example:"0b9c2a7e-5d4f-4e8a-9f61-1c2d3e4f5a6b"`

	// BUG, INQUIRY or FEATURE
	Type string `json:"type" example:"BUG"`

	// Free text, at most 5000 characters after trimming
	Message string `json:"message" example:"The checkout button does nothing"`

	// Optional reply address
	Email string `json:"email,omitempty" example:"user@example.com"`

	// Optional JSON object, at most 10000 bytes; url and userAgent are shown in notifications
	Metadata RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// GenericWebhookPayload documents the body POSTed to generic webhook destinations.
// @Description Envelope sent to webhook URLs that are not Slack, Discord or Telegram
type GenericWebhookPayload struct {
	// feedback.created or webhook.test
	Event string `json:"event" example:"feedback.created"`

	// When the feedback was created
	Timestamp time.Time `json:"timestamp" example:"2026-01-01T00:00:00Z"`

	Feedback     RawMessage `json:"feedback" swaggertype:"object"`
	Project      RawMessage `json:"project" swaggertype:"object"`
	Organization RawMessage `json:"organization" swaggertype:"object"`
}
