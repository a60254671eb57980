package utils

import (
	"errors"
	"fmt"
)

// Machine-readable error codes surfaced in the error_code field of HTTP
// error bodies.
const (
	CodeInvalidEventData  = "event_service.invalid_event_data"
	CodeEventNotFound     = "event_service.event_not_found"
	CodeEventServiceError = "event_service.error"
	CodeUserNotFound      = "user_service.user_not_found"
	CodeUserAlreadyExists = "user_service.user_already_exists"
	CodeUserScoreNotFound = "user_service.user_score_not_found"
	CodeAchievementError  = "achievement_service.error"
	CodeStatsError        = "stats_service.error"
	CodeApplicationError  = "application.error"
)

// AppError is the application error type: a human detail, a machine code,
// an HTTP status, and optional context rendered back to the client.
type AppError struct {
	Status  int
	Code    string
	Detail  string
	Context map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// NewValidationError marks client-supplied data as invalid. Never retried.
func NewValidationError(detail string, ctx map[string]interface{}) *AppError {
	return &AppError{Status: 400, Code: CodeInvalidEventData, Detail: detail, Context: ctx}
}

// NewNotFoundError marks a missing entity. Never retried.
func NewNotFoundError(code, detail string, ctx map[string]interface{}) *AppError {
	return &AppError{Status: 404, Code: code, Detail: detail, Context: ctx}
}

// NewConflictError marks a uniqueness violation (e.g. duplicate username).
func NewConflictError(code, detail string, ctx map[string]interface{}) *AppError {
	return &AppError{Status: 409, Code: code, Detail: detail, Context: ctx}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(code, detail string, err error) *AppError {
	return &AppError{Status: 500, Code: code, Detail: detail, Err: err}
}
