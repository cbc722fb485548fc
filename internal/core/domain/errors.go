package domain

import "errors"

// Error kinds. Callers branch on these with errors.Is; the message carried by
// *Error is the user-facing text and is stable.
var (
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserExists             = errors.New("user already exists")
)

// Error is a domain failure with a descriptive message and a kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the kind so errors.Is(err, ErrPermissionDenied) works.
func (e *Error) Unwrap() error {
	return e.Kind
}

// PermissionError reports a capability the visa did not grant.
func PermissionError(msg string) error {
	return &Error{Kind: ErrPermissionDenied, Message: msg}
}

// TransitionError reports a state precondition that does not hold.
func TransitionError(msg string) error {
	return &Error{Kind: ErrInvalidTransition, Message: msg}
}

// InvariantError reports a malformed value or missing required reference.
func InvariantError(msg string) error {
	return &Error{Kind: ErrInvariantViolation, Message: msg}
}

// NotFoundError reports a missing aggregate.
func NotFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// ConcurrencyError reports a stale write detected by the repository.
func ConcurrencyError(msg string) error {
	return &Error{Kind: ErrConcurrentModification, Message: msg}
}
