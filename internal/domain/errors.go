package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeMissingContext   = "MISSING_CONTEXT"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeRefreshTokenUsed = "REFRESH_TOKEN_ALREADY_USED"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeStorage          = "STORAGE_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrQueryTooShort        = NewDomainError(ErrCodeValidation, "query must be at least 3 characters")
	ErrInvalidMatchCount    = NewDomainError(ErrCodeValidation, "match count must be positive")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Recommendation errors
var (
	// ErrMissingContext signals the caller should prompt the user to set a
	// goal before recommendations can be assembled.
	ErrMissingContext = NewDomainError(ErrCodeMissingContext, "no goal or summary set for user")
)

// Not found errors
var (
	ErrQuestionNotFound = NewDomainError(ErrCodeNotFound, "question not found")
	ErrProfileNotFound  = NewDomainError(ErrCodeNotFound, "profile not found")
	ErrUserNotFound     = NewDomainError(ErrCodeNotFound, "user not found")
	ErrSessionNotFound  = NewDomainError(ErrCodeNotFound, "session not found")
)

// Authorization errors
var (
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid or expired token")
	// ErrRefreshTokenAlreadyUsed is surfaced with its code so clients can
	// refresh the session once and retry.
	ErrRefreshTokenAlreadyUsed = NewDomainError(ErrCodeRefreshTokenUsed, "refresh token already used")
)
