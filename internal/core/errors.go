package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Their text is matched by MapError, keep them in sync.
var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrUnknownEntity        = errors.New("unknown entity")
	ErrSessionNotFound      = errors.New("import session not found")
	ErrInvalidTransition    = errors.New("invalid session transition")
	ErrSubmitInProgress     = errors.New("import already submitting")
	ErrEmptyFile            = errors.New("empty file")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedFile      = errors.New("unsupported file type")
	ErrReferencesUnresolved = errors.New("unresolved references")
	ErrNoCaller             = errors.New("missing caller identity")
)

// PermissionError is returned when the caller's role may not import an entity.
// The role is kept in the message so support can see what the backend returned.
type PermissionError struct {
	Role   string
	Entity string
}

func (e *PermissionError) Error() string {
	role := e.Role
	if role == "" {
		role = "none"
	}
	return fmt.Sprintf("permission denied: role %q cannot import %s", role, e.Entity)
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// BackendError wraps a failure reported by the data backend. Error returns the
// backend's own text unchanged so it can be relayed to the user.
type BackendError struct {
	Op  string // fetch_role, fetch_references, insert
	Err error
}

func (e *BackendError) Error() string {
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ReferenceError blocks a strict-mode submit while references are unresolved.
type ReferenceError struct {
	Issues []RowIssue
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %d value(s) did not match exactly one record", ErrReferencesUnresolved, len(e.Issues))
}

func (e *ReferenceError) Unwrap() error {
	return ErrReferencesUnresolved
}
