// Package errors provides the standardized error taxonomy of the consultant service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Dialog errors, all recoverable by the user.
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnrecognizedChoice ErrorCode = "UNRECOGNIZED_CHOICE"
	ErrCodeUnknownScenario    ErrorCode = "UNKNOWN_SCENARIO"

	// Boundary errors.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeInvalidCategory ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidRequest  ErrorCode = "INVALID_REQUEST"

	// Notification errors, never surfaced to the end user.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeChannelDisabled        ErrorCode = "CHANNEL_DISABLED"
	ErrCodeChannelTimeout         ErrorCode = "CHANNEL_TIMEOUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another *StandardError by code, so sentinel values work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns the error with one metadata key set.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Sentinels
// ==========================

var (
	ErrSessionNotFound = &StandardError{Code: ErrCodeSessionNotFound, Message: "Session not found"}
	ErrInvalidCategory = &StandardError{Code: ErrCodeInvalidCategory, Message: "Unknown category"}
	ErrChannelDisabled = &StandardError{Code: ErrCodeChannelDisabled, Message: "Notification channel disabled"}
)

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError wraps a field rejection; the reason is shown to the user.
func NewValidationFailedError(field, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   reason,
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: true,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnrecognizedChoiceError is returned when branch input matches no keyword.
func NewUnrecognizedChoiceError(step, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnrecognizedChoice,
		Message:   message,
		Details:   fmt.Sprintf("step: %s", step),
		Retryable: true,
		Metadata:  map[string]interface{}{"step": step},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownScenarioError reports a step/category combination with no transition.
func NewUnknownScenarioError(message, step, category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownScenario,
		Message:   message,
		Details:   fmt.Sprintf("step: %s, category: %q", step, category),
		Retryable: false,
		Metadata:  map[string]interface{}{"step": step, "category": category},
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Сессия не найдена",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidCategoryError(token string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCategory,
		Message:   "Unknown category, expected individual, business or investor",
		Details:   fmt.Sprintf("category: %q", token),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError wraps a channel failure.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   fmt.Sprintf("Failed to send notification via %s", channel),
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"channel": channel},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewChannelDisabledError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelDisabled,
		Message:   "Notification channel disabled",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Metadata:  map[string]interface{}{"channel": channel},
		Timestamp: time.Now().UTC(),
	}
}

func NewChannelTimeoutError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelTimeout,
		Message:   fmt.Sprintf("Notification channel %s timed out", channel),
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"channel": channel},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Mapping
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the status the api layer answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidCategory, ErrCodeInvalidRequest, ErrCodeValidationFailed, ErrCodeUnrecognizedChoice:
		return http.StatusBadRequest
	case ErrCodeChannelTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNotificationSendFailed, ErrCodeChannelDisabled:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// IsUserFacing reports whether the message may be shown to the chat user verbatim.
func IsUserFacing(code ErrorCode) bool {
	switch code {
	case ErrCodeValidationFailed, ErrCodeUnrecognizedChoice, ErrCodeUnknownScenario:
		return true
	}
	return false
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeUnrecognizedChoice:
		return "USER_INPUT"
	case ErrCodeUnknownScenario:
		return "DIALOG_STATE"
	case ErrCodeSessionNotFound, ErrCodeInvalidCategory, ErrCodeInvalidRequest:
		return "REQUEST"
	case ErrCodeNotificationSendFailed, ErrCodeChannelDisabled, ErrCodeChannelTimeout:
		return "NOTIFICATION"
	}
	return "SYSTEM"
}
