package errors

import (
	"fmt"
	"net/http"

	"github.com/feedlane/feedlane-backend/logger"
)

type ErrorType string

const (
	ValidationError      ErrorType = "VALIDATION_ERROR"
	NotFoundError        ErrorType = "NOT_FOUND"
	AuthError            ErrorType = "AUTHENTICATION_ERROR"
	DatabaseError        ErrorType = "DATABASE_ERROR"
	ServerError          ErrorType = "SERVER_ERROR"
	ForbiddenError       ErrorType = "FORBIDDEN"
	RateLimitError       ErrorType = "RATE_LIMITED"
	PayloadTooLargeError ErrorType = "PAYLOAD_TOO_LARGE"
)

// Messages surfaced to the widget. The widget maps a known subset of these
// strings to localized copies, so they are part of the wire contract.
const (
	MsgMissingRequiredFields = "Missing required fields"
	MsgInvalidFeedbackType   = "Invalid feedback type"
	MsgMessageRequired       = "Message is required"
	MsgMessageTooLong        = "Message too long (max 5000 characters)"
	MsgInvalidEmail          = "Invalid email format"
	MsgInvalidMetadata       = "Invalid metadata"
	MsgMetadataTooLarge      = "Metadata too large"
	MsgInvalidJSON           = "Invalid JSON body"
	MsgOriginNotAllowed      = "Origin not allowed"
	MsgProjectNotFound       = "Project not found"
	MsgTooManyRequests       = "Too many requests. Please try again later."
	MsgInternal              = "Internal server error"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	// RetryAfter is the number of seconds a rate-limited client should wait.
	RetryAfter int   `json:"-"`
	Raw        error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Raw
}

// GetHTTPStatus returns the status code the error renders with.
func (e *AppError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return getHTTPStatus(e.Type)
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func AuthenticationFailed(message string) *AppError {
	return &AppError{
		Type:       AuthError,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewDatabaseError(err error) *AppError {
	logger.GetLogger().Errorw("Database error", "error", err)
	return &AppError{
		Type:       DatabaseError,
		Message:    MsgInternal,
		Detail:     err.Error(),
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func Forbidden(message string, details string) *AppError {
	return &AppError{
		Type:       ForbiddenError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusForbidden,
	}
}

// RateLimitExceeded builds a 429 carrying a Retry-After hint in seconds.
func RateLimitExceeded(message string, retryAfterSeconds int) *AppError {
	return &AppError{
		Type:       RateLimitError,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfterSeconds,
	}
}

func PayloadTooLarge(message string) *AppError {
	return &AppError{
		Type:       PayloadTooLargeError,
		Message:    message,
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case AuthError:
		return http.StatusUnauthorized
	case DatabaseError:
		return http.StatusInternalServerError
	case ForbiddenError:
		return http.StatusForbidden
	case RateLimitError:
		return http.StatusTooManyRequests
	case PayloadTooLargeError:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
