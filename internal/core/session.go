package core

// session.go tracks one import attempt from file selection to its final result.
//
//	idle -> file_selected -> parsed -> submitting -> succeeded
//	                           ^            |
//	                           |            v
//	                           +-------- failed
//
// A failed submit keeps the parsed file and preview so the user can resubmit
// by hand; nothing is retried automatically. A succeeded session is final.

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// SessionState is the lifecycle state of an import session.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateFileSelected SessionState = "file_selected"
	StateParsed       SessionState = "parsed"
	StateSubmitting   SessionState = "submitting"
	StateSucceeded    SessionState = "succeeded"
	StateFailed       SessionState = "failed"
)

var transitions = map[SessionState][]SessionState{
	StateIdle:         {StateFileSelected},
	StateFileSelected: {StateParsed, StateIdle},
	StateParsed:       {StateSubmitting, StateFileSelected},
	StateSubmitting:   {StateSucceeded, StateFailed, StateParsed},
	StateFailed:       {StateParsed},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to SessionState) bool {
	return slices.Contains(transitions[from], to)
}

// Session is one import attempt. Data holds the full normalized file text so
// the submit pass re-parses everything, not just the preview.
type Session struct {
	ID        string              `json:"id"`
	Entity    string              `json:"entity"`
	CallerID  string              `json:"callerId"`
	FileName  string              `json:"fileName,omitempty"`
	State     SessionState        `json:"state"`
	Data      []byte              `json:"data,omitempty"`
	Headers   []string            `json:"headers,omitempty"`
	Preview   []map[string]string `json:"preview"`
	RowCount  int                 `json:"rowCount"`
	Issues    []RowIssue          `json:"issues,omitempty"`
	Result    *ImportResult       `json:"result,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewSession creates an idle session for caller importing entity.
func NewSession(id, entity, callerID string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Entity:    entity,
		CallerID:  callerID,
		State:     StateIdle,
		Preview:   []map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the session to a new state or returns ErrInvalidTransition.
func (s *Session) Transition(to SessionState) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
	}
	s.State = to
	s.UpdatedAt = time.Now()
	return nil
}

// CanSubmit reports whether the session is waiting for a (re)submit.
func (s *Session) CanSubmit() bool {
	return s.State == StateParsed || s.State == StateFailed
}

// SessionStore persists sessions between requests.
// Get returns ErrSessionNotFound for unknown or expired ids.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
