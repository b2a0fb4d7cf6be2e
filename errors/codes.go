package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a backing service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the caller exceeded its request budget.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExisting indicates a resource with the same id or unique field exists.
	ErrCodeAlreadyExisting ErrorCode = "ALREADY_EXISTING"
	// ErrCodeConflict indicates a conflict with the current state of the resource.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Validation errors
const (
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeUnsecureSecret rejects a blank client-application secret.
	ErrCodeUnsecureSecret ErrorCode = "UNSECURE_SECRET"
	// ErrCodeUnsecurePassword rejects a blank or too short user password.
	ErrCodeUnsecurePassword ErrorCode = "UNSECURE_PASSWORD"
)

// Authentication/Authorization errors
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	// ErrCodeInvalidGrant indicates an unknown, expired or foreign authorization code.
	ErrCodeInvalidGrant ErrorCode = "INVALID_GRANT"
	// ErrCodeInvalidClient indicates failed client-application authentication.
	ErrCodeInvalidClient ErrorCode = "INVALID_CLIENT"
)

// Internal errors
const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeApplication wraps any storage backend failure.
	ErrCodeApplication   ErrorCode = "APPLICATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeDatabaseError:      true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// Severity grades an AppError for logging and alerting.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

var codeSeverity = map[ErrorCode]Severity{
	ErrCodeNotFound:           SeverityInfo,
	ErrCodeAlreadyExisting:    SeverityInfo,
	ErrCodeConflict:           SeverityInfo,
	ErrCodeInvalidInput:       SeverityWarning,
	ErrCodeMissingField:       SeverityWarning,
	ErrCodeInvalidFormat:      SeverityWarning,
	ErrCodeUnsecureSecret:     SeverityWarning,
	ErrCodeUnsecurePassword:   SeverityWarning,
	ErrCodeUnauthorized:       SeverityWarning,
	ErrCodeForbidden:          SeverityWarning,
	ErrCodeInvalidToken:       SeverityWarning,
	ErrCodeInvalidGrant:       SeverityWarning,
	ErrCodeInvalidClient:      SeverityWarning,
	ErrCodeRateLimited:        SeverityWarning,
	ErrCodeServiceUnavailable: SeverityError,
	ErrCodeTimeout:            SeverityError,
	ErrCodeInternal:           SeverityCritical,
	ErrCodeApplication:        SeverityCritical,
	ErrCodeDatabaseError:      SeverityCritical,
}

// SeverityOf returns the default severity of a code. Unknown codes are ERROR.
func SeverityOf(code ErrorCode) Severity {
	if s, ok := codeSeverity[code]; ok {
		return s
	}
	return SeverityError
}
