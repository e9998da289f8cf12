package core

import "github.com/pkg/errors"

// Error codes exposed to API clients.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

var (
	ErrUnauthenticated = NewAppError(CodeUnauthenticated, "not authenticated")
	ErrForbidden       = NewAppError(CodeForbidden, "permission denied")
)

// AppError is an error whose message is safe to show to API clients.
type AppError struct {
	Code    string
	Message string
}

func NewAppError(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func NewNotFoundError(msg string) *AppError { return NewAppError(CodeNotFound, msg) }
func NewConflictError(msg string) *AppError { return NewAppError(CodeConflict, msg) }
func NewInputError(msg string) *AppError    { return NewAppError(CodeBadUserInput, msg) }

func (err *AppError) Error() string {
	return err.Message
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "invalid input"
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
