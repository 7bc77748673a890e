// internal/extract/errors.go
package extract

import (
	"errors"
	"fmt"

	"github.com/law-makers/dutyscrape/internal/browser"
)

// ErrorCode classifies an extraction failure
type ErrorCode string

const (
	ErrCodeNavigation  ErrorCode = "NAVIGATION"
	ErrCodeTimeout     ErrorCode = "TIMEOUT"
	ErrCodeSelector    ErrorCode = "SELECTOR"
	ErrCodeInteraction ErrorCode = "INTERACTION"
	ErrCodePanic       ErrorCode = "PANIC"
)

// ExtractError wraps a per-item failure with its code
type ExtractError struct {
	Code       ErrorCode
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error {
	return e.Underlying
}

// Is matches another ExtractError by code, otherwise defers to the underlying error
func (e *ExtractError) Is(target error) bool {
	if t, ok := target.(*ExtractError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewExtractError creates a new ExtractError
func NewExtractError(code ErrorCode, message string, err error) *ExtractError {
	return &ExtractError{Code: code, Message: message, Underlying: err}
}

// wrap codes err, promoting bounded-wait expiry to TIMEOUT
func wrap(code ErrorCode, message string, err error) *ExtractError {
	if errors.Is(err, browser.ErrTimeout) {
		code = ErrCodeTimeout
	}
	return NewExtractError(code, message, err)
}

// CodeOf returns the code of an extraction error, or "" for anything else
func CodeOf(err error) ErrorCode {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
