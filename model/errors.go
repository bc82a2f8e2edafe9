package model

import "fmt"

// Standard error codes.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrForbidden       = "FORBIDDEN"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrInternalError   = "INTERNAL_ERROR"
)

// Evolution-specific error codes.
const (
	ErrMigrationFailed = "MIGRATION_FAILED"
	ErrSchemaRejected  = "SCHEMA_REJECTED"
	ErrBackupFailed    = "BACKUP_FAILED"
	ErrRollbackFailed  = "ROLLBACK_FAILED"
	ErrDocumentLocked  = "DOCUMENT_LOCKED"
)

// ErrorEnvelope is the standard error response envelope returned by the
// HTTP surface. It implements the error interface.
type ErrorEnvelope struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	TraceID string       `json:"trace_id"`
}

// Error implements the error interface.
func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST error.
func NewBadRequestError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrBadRequest, Message: msg}
}

// NewUnauthorizedError returns an UNAUTHORIZED error.
func NewUnauthorizedError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrUnauthorized, Message: msg}
}

// NewForbiddenError returns a FORBIDDEN error.
func NewForbiddenError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrForbidden, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND error.
func NewNotFoundError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT error.
func NewConflictError(msg string) *ErrorEnvelope {
	return &ErrorEnvelope{Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR with field-level details.
func NewValidationError(details []FieldError) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrValidationError,
		Message: "One or more fields are invalid",
		Details: details,
	}
}

// NewMigrationFailedError returns a MIGRATION_FAILED error naming the
// failing version.
func NewMigrationFailedError(version, msg string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrMigrationFailed,
		Message: fmt.Sprintf("migration %s failed: %s", version, msg),
	}
}

// NewDocumentLockedError returns a DOCUMENT_LOCKED error. Returned when
// an evolution attempt races another one for the same document.
func NewDocumentLockedError(documentID string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrDocumentLocked,
		Message: fmt.Sprintf("document %q has an evolution in progress", documentID),
	}
}

// NewInternalError returns an INTERNAL_ERROR.
func NewInternalError() *ErrorEnvelope {
	return &ErrorEnvelope{
		Code:    ErrInternalError,
		Message: "An unexpected error occurred",
	}
}
