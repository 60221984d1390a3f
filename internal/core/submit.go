package core

// submit.go is the bulk submitter: permission check, full mapping, caller
// fields and one batch insert.
//
// The order is fixed. The caller's role is checked before references are
// fetched or anything is written, so a denied caller never reaches the
// backend's insert path. Each submit makes at most one InsertRecords call.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/opsdesk/internal/logging"
)

// FieldCreatedBy is set on every record to the submitting caller's id.
const FieldCreatedBy = "created_by"

// Submitter runs one import submit against a Backend.
type Submitter struct {
	backend Backend
	authz   *Authorizer
	mode    ReferenceMode
	atomic  bool
}

// NewSubmitter creates a submitter. An empty mode means lenient.
func NewSubmitter(backend Backend, authz *Authorizer, mode ReferenceMode, atomic bool) *Submitter {
	if mode == "" {
		mode = ReferenceLenient
	}
	return &Submitter{
		backend: backend,
		authz:   authz,
		mode:    mode,
		atomic:  atomic,
	}
}

// Submit maps rows into records for entity and inserts them in one batch on
// behalf of callerID. The returned result is non-nil whenever mapping ran,
// including on insert failure, so per-row outcomes can be shown.
func (s *Submitter) Submit(ctx context.Context, entity, callerID string, rows []ParsedRow) (*ImportResult, error) {
	start := time.Now()
	log := logging.WithFields(ctx, "entity", entity)

	result := &ImportResult{Entity: entity, Atomic: s.atomic}
	err := s.submit(ctx, result, entity, callerID, rows)

	result.Duration = time.Since(start)
	result.FinishedAt = time.Now()
	if err != nil {
		result.Error = err.Error()
	}
	recordSubmitMetrics(result, err, result.Duration)

	if err != nil {
		log.Warn("import submit failed",
			"error", err,
			"submitted", result.Submitted,
			"failed", result.Failed,
		)
		return result, err
	}

	log.Info("import submit completed",
		"submitted", result.Submitted,
		"inserted", result.Inserted,
		"issues", len(result.Issues),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (s *Submitter) submit(ctx context.Context, result *ImportResult, entity, callerID string, rows []ParsedRow) error {
	def, ok := Get(entity)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if callerID == "" {
		return ErrNoCaller
	}

	role, err := s.backend.CallerRole(ctx, callerID)
	if err != nil {
		return &BackendError{Op: "fetch_role", Err: err}
	}
	if err := s.authz.Authorize(role, entity); err != nil {
		return err
	}

	refs, err := LoadReferences(ctx, s.backend, def.RefKinds())
	if err != nil {
		return err
	}

	mapped := NewMapper(def, refs).MapAll(rows)
	result.Issues = AllIssues(mapped)

	if s.mode == ReferenceStrict {
		if unresolved := ReferenceIssues(mapped); len(unresolved) > 0 {
			return &ReferenceError{Issues: unresolved}
		}
	}

	if len(mapped) == 0 {
		return nil
	}

	records := make([]Record, len(mapped))
	for i, m := range mapped {
		records[i] = ApplyDefaults(def, m.Record, callerID)
	}
	result.Submitted = len(records)

	outcomes, insertErr := s.backend.InsertRecords(ctx, def.Info.Table, records, s.atomic)
	for _, o := range outcomes {
		if o.RowIndex >= 0 && o.RowIndex < len(mapped) {
			o.Line = mapped[o.RowIndex].Line
		}
		switch o.Status {
		case OutcomeInserted:
			result.Inserted++
		case OutcomeFailed:
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, o)
	}

	if insertErr != nil {
		var be *BackendError
		if errors.As(insertErr, &be) {
			return be
		}
		return &BackendError{Op: "insert", Err: insertErr}
	}

	// Backends without per-row accounting report success for the whole batch.
	if len(outcomes) == 0 {
		result.Inserted = len(records)
		return nil
	}

	// Nothing persisted: fail the batch so the session can be resubmitted.
	if result.Inserted == 0 && result.Failed > 0 {
		return &BackendError{Op: "insert", Err: errors.New(firstFailure(result.Outcomes))}
	}
	return nil
}

func firstFailure(outcomes []RowOutcome) string {
	for _, o := range outcomes {
		if o.Status == OutcomeFailed && o.Error != "" {
			return o.Error
		}
	}
	return "every row failed"
}

// LoadReferences fetches every reference list in kinds.
func LoadReferences(ctx context.Context, backend Backend, kinds []RefKind) (ReferenceSet, error) {
	refs := make(ReferenceSet, len(kinds))
	for _, kind := range kinds {
		list, err := backend.ReferenceList(ctx, kind)
		if err != nil {
			return nil, &BackendError{Op: "fetch_references", Err: err}
		}
		refs[kind] = list
	}
	return refs, nil
}

// ApplyDefaults attaches caller-derived and default values to a mapped record.
// Fixed values always win over the file; defaults only fill unset or empty fields.
func ApplyDefaults(def EntityDefinition, rec Record, callerID string) Record {
	out := make(Record, len(rec)+len(def.Info.Fixed)+1)
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range def.Info.Defaults {
		if cur, ok := out[k]; !ok || cur == nil {
			out[k] = v
		}
	}
	for k, v := range def.Info.Fixed {
		out[k] = v
	}
	out[FieldCreatedBy] = callerID
	return out
}

func isPermission(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
