// Package validation checks widget submissions before they reach the store.
package validation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/types"
)

const (
	MaxMessageLength = 5000
	MaxEmailLength   = 254
	MaxMetadataBytes = 10000
	MaxReplyLength   = 5000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateSubmission parses a raw widget body and returns the first rule it
// violates. The returned submission carries a trimmed message and project id,
// a nil email when none was given, and compacted metadata.
func ValidateSubmission(body []byte) (*types.FeedbackSubmission, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, apperrors.ValidationFailed(apperrors.MsgInvalidJSON, "")
	}

	rawProject, rawType, rawMessage := fields["projectId"], fields["type"], fields["message"]
	if isBlank(rawProject) || isBlank(rawType) || isBlank(rawMessage) {
		return nil, apperrors.ValidationFailed(apperrors.MsgMissingRequiredFields, "")
	}
	projectID, ok := asString(rawProject)
	if !ok || strings.TrimSpace(projectID) == "" {
		return nil, apperrors.ValidationFailed(apperrors.MsgMissingRequiredFields, "")
	}

	feedbackType, ok := asString(rawType)
	if !ok || !types.FeedbackType(feedbackType).IsValid() {
		return nil, apperrors.ValidationFailed(apperrors.MsgInvalidFeedbackType, "")
	}

	message, ok := asString(rawMessage)
	if !ok {
		return nil, apperrors.ValidationFailed(apperrors.MsgMessageRequired, "")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.ValidationFailed(apperrors.MsgMessageRequired, "")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, apperrors.ValidationFailed(apperrors.MsgMessageTooLong, "")
	}

	sub := &types.FeedbackSubmission{
		ProjectID: strings.TrimSpace(projectID),
		Type:      types.FeedbackType(feedbackType),
		Message:   message,
	}

	if rawEmail := fields["email"]; !isBlank(rawEmail) {
		email, ok := asString(rawEmail)
		if !ok || !IsValidEmail(email) {
			return nil, apperrors.ValidationFailed(apperrors.MsgInvalidEmail, "")
		}
		sub.Email = &email
	}

	if rawMeta := fields["metadata"]; len(rawMeta) > 0 && !isNull(rawMeta) {
		meta, err := compactMetadata(rawMeta)
		if err != nil {
			return nil, err
		}
		sub.Metadata = meta
	}

	return sub, nil
}

// IsValidEmail applies the widget's loose local@domain.tld check.
func IsValidEmail(email string) bool {
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return false
	}
	return emailPattern.MatchString(email)
}

// ValidateReplyContent trims reply content and checks its bounds.
func ValidateReplyContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.ValidationFailed("Content is required", "")
	}
	if utf8.RuneCountInString(content) > MaxReplyLength {
		return "", apperrors.ValidationFailed("Content too long (max 5000 characters)", "")
	}
	return content, nil
}

func compactMetadata(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperrors.ValidationFailed(apperrors.MsgInvalidMetadata, "")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, apperrors.ValidationFailed(apperrors.MsgInvalidMetadata, "")
	}
	if buf.Len() > MaxMetadataBytes {
		return nil, apperrors.ValidationFailed(apperrors.MsgMetadataTooLarge, "")
	}
	return json.RawMessage(buf.Bytes()), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// isBlank is true for an absent key, JSON null, or an empty string.
func isBlank(raw json.RawMessage) bool {
	if len(raw) == 0 || isNull(raw) {
		return true
	}
	return string(bytes.TrimSpace(raw)) == `""`
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
