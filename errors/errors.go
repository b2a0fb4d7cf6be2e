package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Severity grades the error for logs.
	Severity Severity `json:"severity"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error. Never serialized.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithSeverity overrides the default severity and returns the receiver.
func (e *AppError) WithSeverity(s Severity) *AppError {
	e.Severity = s
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with retryable and severity derived from code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Severity:   SeverityOf(code),
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// ServiceUnavailable creates an error for a backing service that is temporarily unavailable.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		http.StatusServiceUnavailable).WithDetail("service", service)
}

// RateLimited creates an error for callers over their request budget.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please retry later.", http.StatusTooManyRequests)
}

// NotFound creates an error for a resource that was not found.
func NotFound(resource, id string) *AppError {
	err := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		err.WithDetail("id", id)
	}
	return err
}

// AlreadyExisting creates an error for a duplicate id or unique field.
func AlreadyExisting(resource string) *AppError {
	return New(ErrCodeAlreadyExisting,
		fmt.Sprintf("A %s with these details already exists.", resource),
		http.StatusConflict).WithDetail("resource", resource)
}

// Conflict creates an error for a conflict with the current state of the resource.
func Conflict(reason string) *AppError {
	return New(ErrCodeConflict, reason, http.StatusConflict)
}

// InvalidInput creates an error for invalid input on a field.
func InvalidInput(field, reason string) *AppError {
	err := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		err.WithDetail("field", field)
	}
	return err
}

// Validation creates an error for validation failures.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// MissingField creates an error for a missing required field.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field), http.StatusBadRequest).
		WithDetail("field", field)
}

// UnsecureSecret rejects a blank client secret.
func UnsecureSecret() *AppError {
	return New(ErrCodeUnsecureSecret, "The client secret must not be blank.", http.StatusBadRequest)
}

// UnsecurePassword rejects a password that does not meet the policy.
func UnsecurePassword(reason string) *AppError {
	if reason == "" {
		reason = "The password must not be blank."
	}
	return New(ErrCodeUnsecurePassword, reason, http.StatusBadRequest)
}

// Unauthorized creates an error for unauthenticated access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

// Forbidden creates an error for forbidden access.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return New(ErrCodeForbidden, reason, http.StatusForbidden)
}

// InvalidToken creates an error for an unknown or expired access token.
func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Invalid or expired access token.", http.StatusUnauthorized)
}

// InvalidGrant creates an error for an unusable authorization code.
func InvalidGrant(reason string) *AppError {
	return New(ErrCodeInvalidGrant, reason, http.StatusBadRequest)
}

// InvalidClient creates an error for failed client authentication.
func InvalidClient() *AppError {
	return New(ErrCodeInvalidClient, "Client authentication failed.", http.StatusUnauthorized)
}

// Internal creates an error for an unexpected internal failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.",
		http.StatusInternalServerError).WithCause(cause)
}

// Application wraps a storage backend failure so backend error types never escape.
func Application(operation string, cause error) *AppError {
	return New(ErrCodeApplication, "The operation could not be completed.", http.StatusInternalServerError).
		WithDetail("operation", operation).
		WithCause(cause)
}

// DatabaseError creates an error for a database failure.
func DatabaseError(cause error) *AppError {
	return New(ErrCodeDatabaseError, "A database error occurred. Please try again.",
		http.StatusInternalServerError).WithCause(cause)
}
