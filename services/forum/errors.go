package forum

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain failure modes the request layer maps to
// HTTP statuses.
var (
	// ErrNotFound means the referenced post does not exist.
	ErrNotFound = errors.New("post not found")

	// ErrAlreadyUpvoted means the authenticated identity is already in the
	// post's voter set.
	ErrAlreadyUpvoted = errors.New("you have already upvoted this post")

	// ErrAuthRequired means the operation needs an authenticated identity.
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden means the identity's role or ownership does not permit
	// the operation.
	ErrForbidden = errors.New("only instructors or post authors can mark as answered")
)

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps a persistence or query failure. The request layer maps
// it to 500 and suppresses the detail outside development mode.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// UpstreamError wraps an AI provider failure that could not be recovered by
// a deterministic fallback.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
