// Package apperrors provides the error taxonomy shared by the moderation services and the HTTP layer.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure. Values are part of the wire format.
type ErrorCode string

const (
	CodeValidation             ErrorCode = "VALIDATION_ERROR"
	CodeInvalidInput           ErrorCode = "INVALID_INPUT"
	CodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	CodeConflict               ErrorCode = "CONFLICT"
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	CodeForbidden              ErrorCode = "FORBIDDEN"
	CodeRateLimited            ErrorCode = "RATE_LIMITED"
	CodeInvalidOrExpiredToken  ErrorCode = "INVALID_OR_EXPIRED_TOKEN"
	CodeNetworkOrTimeout       ErrorCode = "NETWORK_OR_TIMEOUT"
	CodeServerError            ErrorCode = "SERVER_ERROR"
)

// Error is a domain failure that can be shown to the caller.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err, apperrors.ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation             = &Error{Code: CodeValidation}
	ErrInvalidInput           = &Error{Code: CodeInvalidInput}
	ErrInvalidStateTransition = &Error{Code: CodeInvalidStateTransition}
	ErrConflict               = &Error{Code: CodeConflict}
	ErrNotFound               = &Error{Code: CodeNotFound}
	ErrUnauthorized           = &Error{Code: CodeUnauthorized}
	ErrForbidden              = &Error{Code: CodeForbidden}
	ErrRateLimited            = &Error{Code: CodeRateLimited}
	ErrInvalidOrExpiredToken  = &Error{Code: CodeInvalidOrExpiredToken}
	ErrNetworkOrTimeout       = &Error{Code: CodeNetworkOrTimeout}
	ErrServerError            = &Error{Code: CodeServerError}
)

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

func InvalidInput(field, value string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid %s", field),
		Details: fmt.Sprintf("%s=%q", field, value),
	}
}

// InvalidTransition reports an action attempted from a status that disallows it.
func InvalidTransition(entity, action, from string) *Error {
	return &Error{
		Code:    CodeInvalidStateTransition,
		Message: fmt.Sprintf("cannot %s %s in status %q", action, entity, from),
	}
}

func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found"}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Conflict(entity string) *Error {
	return &Error{Code: CodeConflict, Message: entity + " was modified by someone else, reload and try again"}
}

func InvalidOrExpiredToken() *Error {
	return &Error{Code: CodeInvalidOrExpiredToken, Message: "invite link is invalid or has expired"}
}

func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimited, Message: message}
}

// From converts any error into an *Error. Unknown errors become SERVER_ERROR with a generic
// message so internal details never reach the caller.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeNetworkOrTimeout, Message: "the request timed out, please try again"}
	}
	return &Error{Code: CodeServerError, Message: "something went wrong, please try again"}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeInvalidOrExpiredToken:
		return http.StatusBadRequest
	case CodeInvalidStateTransition, CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNetworkOrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
