// Package core provides the business logic for bulk CSV imports.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"context"
	"strings"
	"time"
)

// FieldType is the coercion rule applied to a CSV cell before it becomes a record value.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldInteger   FieldType = "integer"
	FieldList      FieldType = "list"
	FieldDate      FieldType = "date"
	FieldEnum      FieldType = "enum"
	FieldBool      FieldType = "bool"
	FieldReference FieldType = "reference"
)

// RefKind names a reference list that foreign-key fields resolve against.
type RefKind string

const (
	RefUsers     RefKind = "users"
	RefCreators  RefKind = "creators"
	RefCampaigns RefKind = "campaigns"
)

// FieldSpec describes one target field of an entity: which headers feed it,
// how the raw cell is coerced, and how the result is validated.
type FieldSpec struct {
	Name       string    `yaml:"name" json:"name"`                           // Target field / DB column
	Aliases    []string  `yaml:"aliases" json:"aliases,omitempty"`           // Extra accepted headers
	Type       FieldType `yaml:"type" json:"type"`                           // Coercion rule
	Required   bool      `yaml:"required" json:"required"`                   // Must be non-empty when present
	EnumValues []string  `yaml:"enum" json:"enum,omitempty"`                 // Allowed values for FieldEnum
	Validate   string    `yaml:"validate" json:"validate,omitempty"`         // validator tag applied to the coerced value
	Ref        RefKind   `yaml:"ref" json:"ref,omitempty"`                   // Reference list for FieldReference
	MatchOn    []string  `yaml:"match_on" json:"matchOn,omitempty"`          // Reference attributes compared: name, email
	Currency   string    `yaml:"currency" json:"currency,omitempty"`         // ISO code for display formatting
	Help       string    `yaml:"help" json:"help,omitempty"`                 // Shown next to the template column
}

// Matches reports whether a (lowercased, trimmed) CSV header feeds this field.
func (f FieldSpec) Matches(header string) bool {
	if strings.EqualFold(f.Name, header) {
		return true
	}
	for _, a := range f.Aliases {
		if strings.EqualFold(a, header) {
			return true
		}
	}
	return false
}

// EntityInfo contains the display and persistence information of an importable entity.
type EntityInfo struct {
	Key          string              `yaml:"key" json:"key"`                    // "campaigns"
	Label        string              `yaml:"label" json:"label"`                // "Campaigns"
	Table        string              `yaml:"table" json:"table"`                // Backend table name
	AllowedRoles []string            `yaml:"allowed_roles" json:"allowedRoles"` // Roles permitted to bulk import
	Defaults     map[string]any      `yaml:"defaults" json:"defaults,omitempty"` // Applied when the field is unset
	Fixed        map[string]any      `yaml:"fixed" json:"fixed,omitempty"`      // Always applied, overriding the CSV
	Samples      []map[string]string `yaml:"samples" json:"-"`                  // Example rows for the template
	Columns      []string            `yaml:"-" json:"columns"`                  // Canonical header row
}

// EntityDefinition contains everything needed to import one entity.
type EntityDefinition struct {
	Info   EntityInfo
	Fields []FieldSpec
}

// Field returns the field fed by the given CSV header, matching case-insensitively
// on the canonical name and its aliases.
func (d EntityDefinition) Field(header string) (FieldSpec, bool) {
	header = strings.TrimSpace(header)
	for _, f := range d.Fields {
		if f.Matches(header) {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// RefKinds returns the distinct reference lists the entity's fields resolve against.
func (d EntityDefinition) RefKinds() []RefKind {
	var kinds []RefKind
	seen := make(map[RefKind]bool)
	for _, f := range d.Fields {
		if f.Type == FieldReference && !seen[f.Ref] {
			seen[f.Ref] = true
			kinds = append(kinds, f.Ref)
		}
	}
	return kinds
}

// Record is one candidate row for insertion. A field missing from the map was
// not present in the CSV; a nil value is an explicit null.
type Record map[string]any

// Reference is one row of a reference list (a user, creator, or campaign).
type Reference struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// attr returns the named match attribute of the reference.
func (r Reference) attr(name string) string {
	switch name {
	case "email":
		return r.Email
	case "id":
		return r.ID
	default:
		return r.Name
	}
}

// ReferenceSet holds the preloaded reference lists for one import.
// A kind missing from the set has not been loaded and cannot be resolved.
type ReferenceSet map[RefKind][]Reference

// Backend is the external collaborator that owns the data: it knows caller roles,
// serves reference lists and performs the batch insert.
type Backend interface {
	// CallerRole returns the role stored on the caller's profile.
	CallerRole(ctx context.Context, userID string) (string, error)

	// ReferenceList returns all rows of a reference list.
	ReferenceList(ctx context.Context, kind RefKind) ([]Reference, error)

	// InsertRecords writes all records to table in one call. Outcomes are
	// reported per record index. When atomic is true a single failing record
	// rolls back the batch and a non-nil error is returned.
	InsertRecords(ctx context.Context, table string, records []Record, atomic bool) ([]RowOutcome, error)
}

// OutcomeStatus is the per-row result of a batch insert.
type OutcomeStatus string

const (
	OutcomeInserted   OutcomeStatus = "inserted"
	OutcomeFailed     OutcomeStatus = "failed"
	OutcomeRolledBack OutcomeStatus = "rolled_back"
	OutcomeSkipped    OutcomeStatus = "skipped"
)

// RowOutcome reports what happened to one submitted record.
type RowOutcome struct {
	RowIndex int           `json:"rowIndex"`
	Line     int           `json:"line,omitempty"`
	Status   OutcomeStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// ImportResult contains the final result of one submit.
type ImportResult struct {
	Entity     string        `json:"entity"`
	Submitted  int           `json:"submitted"`
	Inserted   int           `json:"inserted"`
	Failed     int           `json:"failed"`
	Atomic     bool          `json:"atomic"`
	Outcomes   []RowOutcome  `json:"outcomes,omitempty"`
	Issues     []RowIssue    `json:"issues,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Succeeded reports whether the submit completed without a batch-level failure.
func (r *ImportResult) Succeeded() bool {
	return r != nil && r.Error == ""
}

// RowIssue is a field-level finding on one CSV row. Issues never abort mapping;
// they are surfaced so the importing user can see what was coerced or dropped.
type RowIssue struct {
	Line        int      `json:"line"`
	Field       string   `json:"field"`
	Value       string   `json:"value"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Issue codes.
const (
	IssueRequired          = "required"
	IssueInvalidInteger    = "invalid_integer"
	IssueInvalidDate       = "invalid_date"
	IssueInvalidBool       = "invalid_bool"
	IssueValidation        = "validation"
	IssueReferenceNotFound = "reference_not_found"
	IssueReferenceAmbig    = "reference_ambiguous"
)

// ReferenceMode decides what happens to rows with unresolved references.
type ReferenceMode string

const (
	// ReferenceLenient nulls unresolved references and lets the import proceed.
	ReferenceLenient ReferenceMode = "lenient"
	// ReferenceStrict blocks the whole import while any reference is unresolved.
	ReferenceStrict ReferenceMode = "strict"
)
