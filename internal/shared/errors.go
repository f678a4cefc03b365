package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing, malformed or expired token.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the role lacks the required permission.
	ErrForbidden = errors.New("permission denied")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidState occurs when mutating or re-validating a validated document.
	ErrInvalidState = errors.New("document already validated")
	// ErrEmptyDocument occurs when validating a document with zero lines.
	ErrEmptyDocument = errors.New("document has no lines")
	// ErrInsufficientStock occurs when a decrement would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a business-rule conflict, e.g. deactivating a
	// category that still has active products.
	ErrConflict = errors.New("operation conflicts with current state")
)
