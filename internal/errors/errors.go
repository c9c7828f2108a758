package errors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code            Code
	Message         string
	IsUserFacing    bool
	SuggestedAction string
	WrappedError    error
}

func (e *AppError) Error() string {
	if e.WrappedError != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.WrappedError)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.WrappedError
}

func New(code Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Newf(code Code, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewUserFacing(code Code, message string, suggestion string) *AppError {
	return &AppError{
		Code:            code,
		Message:         message,
		IsUserFacing:    true,
		SuggestedAction: suggestion,
	}
}

// Wrap attaches a code and message to err. If err already carries the given
// code the original is returned unchanged so the innermost classification wins.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == code {
		return appErr
	}

	return &AppError{
		Code:         code,
		Message:      message,
		WrappedError: err,
	}
}

func Wrapf(err error, code Code, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func WrapUserFacing(err error, code Code, message string, suggestion string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:            code,
		Message:         message,
		WrappedError:    err,
		IsUserFacing:    true,
		SuggestedAction: suggestion,
	}
}

func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetUserFacingMessage walks the error chain looking for the first user-facing
// AppError and returns its message and suggested action.
func GetUserFacingMessage(err error) (string, string, bool) {
	for next := err; next != nil; next = errors.Unwrap(next) {
		var appErr *AppError
		if errors.As(next, &appErr) && appErr.IsUserFacing {
			return appErr.Message, appErr.SuggestedAction, true
		}
	}
	return "An unexpected error occurred.", "Check logs for more details.", false
}
