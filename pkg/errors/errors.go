package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError. Each type maps to exactly one HTTP status.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "VALIDATION"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeConflict    ErrorType = "CONFLICT"
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeTimeout     ErrorType = "TIMEOUT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeDatabase    ErrorType = "DATABASE"
	ErrorTypeExternal    ErrorType = "EXTERNAL"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeConflict:    http.StatusConflict,
	ErrorTypeInternal:    http.StatusInternalServerError,
	ErrorTypeTimeout:     http.StatusGatewayTimeout,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
	ErrorTypeDatabase:    http.StatusInternalServerError,
	ErrorTypeExternal:    http.StatusBadGateway,
}

// Machine readable codes carried by AppError.Code.
const (
	CodeElementNotFound   = "ELEMENT_NOT_FOUND"
	CodeDiscoveryNotFound = "DISCOVERY_NOT_FOUND"
	CodeDuplicateElement  = "DUPLICATE_ELEMENT"
	CodeGenerationFailed  = "GENERATION_FAILED"
	CodeGeneratorDisabled = "GENERATOR_DISABLED"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeInvalidSeedRow    = "INVALID_SEED_ROW"
)

// AppError is the error value every layer of the crafting backend returns
// when the caller is expected to branch on the failure.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func newAppError(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, HTTPStatus: statusByType[t]}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCode sets the machine readable code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches structured context that is rendered to clients.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause records the underlying error. The cause is logged, never rendered.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, message)
}

func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, resource+" not found")
}

func NewConflictError(message string) *AppError {
	return newAppError(ErrorTypeConflict, message)
}

func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, message)
}

// NewDatabaseError reports a store fault that is not an outage, such as a
// malformed record or a rejected write.
func NewDatabaseError(operation string, err error) *AppError {
	return newAppError(ErrorTypeDatabase, fmt.Sprintf("database operation '%s' failed", operation)).WithCause(err)
}

// NewElementNotFoundError reports an element id that does not resolve.
func NewElementNotFoundError(id string) *AppError {
	return NewNotFoundError("element").
		WithCode(CodeElementNotFound).
		WithDetails(map[string]interface{}{"element_id": id})
}

// NewDuplicateElementError reports a (name, symbol) pair that is already taken.
func NewDuplicateElementError(name, symbol string) *AppError {
	return NewConflictError(fmt.Sprintf("element %s %s already exists", symbol, name)).
		WithCode(CodeDuplicateElement)
}

// NewGenerationFailedError reports a failed attempt to fabricate an element.
// Combine recovers it as "cannot combine"; it never reaches a client.
func NewGenerationFailedError(reason string, err error) *AppError {
	return newAppError(ErrorTypeExternal, "generation failed: "+reason).
		WithCode(CodeGenerationFailed).
		WithCause(err)
}

// NewStoreUnavailableError reports a storage outage. It is the only fault the
// HTTP layer surfaces for a combine request.
func NewStoreUnavailableError(operation string, err error) *AppError {
	return newAppError(ErrorTypeUnavailable, fmt.Sprintf("store unavailable during '%s'", operation)).
		WithCode(CodeStoreUnavailable).
		WithCause(err)
}

func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError returns the first AppError in err's chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func HasCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

func IsNotFound(err error) bool   { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }
func IsConflict(err error) bool   { return IsType(err, ErrorTypeConflict) }

// IsGenerationFailed matches both a failed generation and a disabled generator.
func IsGenerationFailed(err error) bool {
	return HasCode(err, CodeGenerationFailed) || HasCode(err, CodeGeneratorDisabled)
}

func IsStoreUnavailable(err error) bool { return HasCode(err, CodeStoreUnavailable) }

// IsContextError reports whether err is a cancellation or deadline error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Wrap prefixes err's message with context. An AppError keeps its type and
// code (the original is copied, not mutated); anything else becomes INTERNAL.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		wrapped := *appErr
		wrapped.Message = message + ": " + appErr.Message
		return &wrapped
	}
	return NewInternalError(message).WithCause(err)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
