package core

import (
	"fmt"
	"strings"
)

// MappedRow is one parsed row turned into a candidate record.
type MappedRow struct {
	Line   int        `json:"line"`
	Record Record     `json:"record"`
	Issues []RowIssue `json:"issues,omitempty"`
}

// Mapper maps parsed rows onto an entity's fields. It is driven entirely by the
// entity definition; there is no per-entity mapping code.
type Mapper struct {
	def      EntityDefinition
	resolver *Resolver
}

// NewMapper creates a mapper for def resolving references against refs.
func NewMapper(def EntityDefinition, refs ReferenceSet) *Mapper {
	return &Mapper{
		def:      def,
		resolver: NewResolver(refs),
	}
}

// MapAll maps every row. The result has one entry per input row, in order.
func (m *Mapper) MapAll(rows []ParsedRow) []MappedRow {
	out := make([]MappedRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.MapRow(row))
	}
	return out
}

// MapRow maps a single row. Fields whose header is absent from the row stay
// unset; a present but unusable value becomes nil and is reported as an issue.
func (m *Mapper) MapRow(row ParsedRow) MappedRow {
	mapped := MappedRow{
		Line:   row.Line,
		Record: make(Record, len(m.def.Fields)),
	}

	for _, f := range m.def.Fields {
		raw, ok := lookupCell(row.Values, f)
		if !ok {
			continue
		}

		value, issue := m.coerce(f, raw)
		mapped.Record[f.Name] = value
		if issue != nil {
			issue.Line = row.Line
			mapped.Issues = append(mapped.Issues, *issue)
			continue
		}

		if verr := ValidateValue(f, value); verr != nil {
			mapped.Issues = append(mapped.Issues, RowIssue{
				Line:    row.Line,
				Field:   f.Name,
				Value:   raw,
				Code:    IssueValidation,
				Message: verr.Message,
			})
		}
	}

	return mapped
}

// lookupCell finds the cell feeding f, trying the canonical name before aliases.
func lookupCell(values map[string]string, f FieldSpec) (string, bool) {
	if v, ok := values[strings.ToLower(f.Name)]; ok {
		return v, true
	}
	for _, a := range f.Aliases {
		if v, ok := values[strings.ToLower(a)]; ok {
			return v, true
		}
	}
	return "", false
}

// coerce converts a raw cell according to the field type.
func (m *Mapper) coerce(f FieldSpec, raw string) (any, *RowIssue) {
	raw = strings.TrimSpace(raw)

	if raw == "" && f.Required {
		return emptyValue(f), &RowIssue{
			Field:   f.Name,
			Code:    IssueRequired,
			Message: fmt.Sprintf("required field %q is empty", f.Name),
		}
	}

	switch f.Type {
	case FieldInteger:
		v := ToInteger(raw)
		if v == nil && raw != "" {
			return nil, &RowIssue{
				Field:   f.Name,
				Value:   raw,
				Code:    IssueInvalidInteger,
				Message: fmt.Sprintf("invalid number %q, stored as empty", raw),
			}
		}
		return v, nil

	case FieldList:
		return SplitList(raw), nil

	case FieldDate:
		v := ToDate(raw)
		if v == nil && raw != "" {
			return nil, &RowIssue{
				Field:   f.Name,
				Value:   raw,
				Code:    IssueInvalidDate,
				Message: fmt.Sprintf("invalid date %q, stored as empty", raw),
			}
		}
		return v, nil

	case FieldEnum:
		return ToEnum(raw), nil

	case FieldBool:
		v := ToBool(raw)
		if v == nil && raw != "" {
			return nil, &RowIssue{
				Field:   f.Name,
				Value:   raw,
				Code:    IssueInvalidBool,
				Message: fmt.Sprintf("invalid boolean %q, stored as empty", raw),
			}
		}
		return v, nil

	case FieldReference:
		if raw == "" {
			return nil, nil
		}
		return m.reference(f, raw)

	default:
		return raw, nil
	}
}

func (m *Mapper) reference(f FieldSpec, raw string) (any, *RowIssue) {
	res := m.resolver.Resolve(f.Ref, f.MatchOn, raw)
	switch res.Status {
	case Resolved:
		return res.ID, nil
	case Ambiguous:
		return res.ID, &RowIssue{
			Field:   f.Name,
			Value:   raw,
			Code:    IssueReferenceAmbig,
			Message: fmt.Sprintf("%q matches %d %s, using the first", raw, len(res.Matches), f.Ref),
		}
	case NotFound:
		msg := fmt.Sprintf("no %s matches %q exactly, stored as empty", f.Ref, raw)
		if len(res.Suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(res.Suggestions, ", "))
		}
		return nil, &RowIssue{
			Field:       f.Name,
			Value:       raw,
			Code:        IssueReferenceNotFound,
			Message:     msg,
			Suggestions: res.Suggestions,
		}
	default:
		return nil, nil
	}
}

// emptyValue is what an empty required cell maps to.
func emptyValue(f FieldSpec) any {
	switch f.Type {
	case FieldText:
		return ""
	case FieldList:
		return []string{}
	default:
		return nil
	}
}

// ReferenceIssues returns the issues that block a strict-mode import.
func ReferenceIssues(rows []MappedRow) []RowIssue {
	var out []RowIssue
	for _, r := range rows {
		for _, is := range r.Issues {
			if is.Code == IssueReferenceNotFound || is.Code == IssueReferenceAmbig {
				out = append(out, is)
			}
		}
	}
	return out
}

// AllIssues flattens the issues of every row.
func AllIssues(rows []MappedRow) []RowIssue {
	var out []RowIssue
	for _, r := range rows {
		out = append(out, r.Issues...)
	}
	return out
}
