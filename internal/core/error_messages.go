package core

// error_messages.go maps technical errors to user messages with codes for
// support reference. When users see an error they can quote the code.
//
// # Permission Errors (PERM001)
//
//	PERM001 - Permission denied: your role cannot bulk import this entity
//	          Action: Ask an admin or manager to run the import
//	          Patterns: "permission denied:"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Unknown entity: the import type is not configured
//	         Patterns: "unknown entity"
//	IMP002 - Session expired: the import session was not found
//	         Patterns: "import session not found"
//	IMP003 - Invalid step: the import is not in a state that allows this
//	         Patterns: "invalid session transition"
//	IMP004 - Already submitting: a submit for this import is running
//	         Patterns: "import already submitting"
//	IMP005 - Unresolved references: strict mode blocked the import
//	         Patterns: "unresolved references"
//	IMP006 - Missing caller: the request did not identify a user
//	         Patterns: "missing caller identity"
//	IMP007 - Offline: no backend is configured
//	         Patterns: "no backend configured"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Invalid CSV               Patterns: "invalid csv"
//	FILE003 - Encoding error            Patterns: "encoding error"
//	FILE004 - No file selected          Patterns: "no file provided"
//	FILE005 - Empty file                Patterns: "empty file"
//	FILE006 - Unsupported type          Patterns: "unsupported file type"
//
// # Database Errors (DB001-DB099)
//
// Insert rejections relayed from the backend:
//
//	DB001 - Duplicate key               Patterns: "duplicate key"
//	DB002 - Unique constraint           Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key                 Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused          Patterns: "connection refused"
//	DB005 - Connection reset            Patterns: "connection reset"
//	DB006 - Timeout                     Patterns: "timeout"
//	DB007 - Deadlock                    Patterns: "deadlock"
//	DB008 - Missing required value      Patterns: "violates not-null constraint"
//	DB009 - Invalid enum value          Patterns: "invalid input value for enum"
//	DB010 - Check constraint            Patterns: "violates check constraint"
//	DB011 - Table permission            Patterns: "permission denied for"
//
// # Request Errors (REQ001-REQ002)
//
//	REQ001 - Request cancelled          Patterns: "context canceled"
//	REQ002 - Request timed out          Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE002)
//
//	RATE001 - Too many requests         Patterns: "rate limit"
//	RATE002 - Too many imports          Patterns: "too many imports"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Support staff should check the logs
// for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`          // What happened (user-friendly)
	Action  string `json:"action"`           // What to do about it
	Code    string `json:"code"`             // Error code for support reference
	Detail  string `json:"detail,omitempty"` // Raw backend or permission text, when relayed
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Backend table permission must win over the generic permission pattern
	{"permission denied for", UserMessage{
		Message: "The database refused access to this table",
		Action:  "Contact an administrator to check table policies",
		Code:    "DB011",
	}},
	{"permission denied:", UserMessage{
		Message: "Your role cannot bulk import this entity",
		Action:  "Ask an admin or manager to run the import",
		Code:    "PERM001",
	}},

	// Import flow
	{"unknown entity", UserMessage{
		Message: "Unknown import type",
		Action:  "Choose campaigns, creators or tasks",
		Code:    "IMP001",
	}},
	{"import session not found", UserMessage{
		Message: "Import session not found",
		Action:  "The import may have expired. Please upload the file again",
		Code:    "IMP002",
	}},
	{"invalid session transition", UserMessage{
		Message: "This import cannot do that right now",
		Action:  "Refresh the page to see the import's current state",
		Code:    "IMP003",
	}},
	{"import already submitting", UserMessage{
		Message: "This import is already being submitted",
		Action:  "Wait for the current submit to finish",
		Code:    "IMP004",
	}},
	{"unresolved references", UserMessage{
		Message: "Some names or emails did not match exactly one record",
		Action:  "Fix the highlighted values and upload the file again",
		Code:    "IMP005",
	}},
	{"missing caller identity", UserMessage{
		Message: "You are not signed in",
		Action:  "Sign in again and retry",
		Code:    "IMP006",
	}},
	{"no backend configured", UserMessage{
		Message: "Imports are unavailable in offline mode",
		Action:  "Configure DATABASE_URL to submit imports",
		Code:    "IMP007",
	}},

	// Files
	{"file too large", UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"invalid csv", UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated and quotes are balanced",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Start from the downloadable template",
		Code:    "FILE005",
	}},
	{"unsupported file type", UserMessage{
		Message: "Only CSV and Excel (.xlsx) files can be imported",
		Action:  "Export the sheet as CSV and try again",
		Code:    "FILE006",
	}},

	// Database constraints
	{"duplicate key", UserMessage{
		Message: "A record with this key already exists",
		Action:  "Remove rows that were already imported",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "This value must be unique but already exists",
		Action:  "Check for duplicate entries in your CSV",
		Code:    "DB002",
	}},
	{"violates unique", UserMessage{
		Message: "A duplicate value was found",
		Action:  "Review your data for duplicate values",
		Code:    "DB002",
	}},
	{"foreign key constraint", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check creator and team member names against existing records",
		Code:    "DB003",
	}},
	{"violates foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check creator and team member names against existing records",
		Code:    "DB003",
	}},
	{"violates not-null constraint", UserMessage{
		Message: "A required value is missing",
		Action:  "Fill in every required column",
		Code:    "DB008",
	}},
	{"invalid input value for enum", UserMessage{
		Message: "A status or priority value is not allowed",
		Action:  "Use one of the values listed in the template",
		Code:    "DB009",
	}},
	{"violates check constraint", UserMessage{
		Message: "A value is outside the allowed range",
		Action:  "Check scores and budgets against the template",
		Code:    "DB010",
	}},

	// Connectivity
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try importing a smaller file",
		Code:    "REQ002",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try importing a smaller file or try again later",
		Code:    "DB006",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},

	// Throttling
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
	{"too many imports", UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "RATE002",
	}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Permission and backend errors also carry their raw text in Detail so the
// user sees exactly what was rejected.
//
// Example:
//
//	err := &BackendError{Op: "insert", Err: errors.New(`duplicate key value violates unique constraint "creators_email_key"`)}
//	msg := MapError(err)
//	// msg.Code == "DB001"
//	// msg.Detail == `duplicate key value violates unique constraint "creators_email_key"`
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	msg := defaultMessage
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			msg = ep.msg
			break
		}
	}

	var be *BackendError
	var pe *PermissionError
	if errors.As(err, &be) || errors.As(err, &pe) {
		msg.Detail = err.Error()
	}
	return msg
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// Display formats the message for a terminal: "Message (Code: XXX). Action".
func (e *UserError) Display() string {
	return fmt.Sprintf("%s (Code: %s). %s", e.User.Message, e.User.Code, e.User.Action)
}

// NewUserError maps a technical error to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
