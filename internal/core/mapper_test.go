package core

import (
	"reflect"
	"testing"
	"time"
)

func mapOne(t *testing.T, refs ReferenceSet, values map[string]string) MappedRow {
	t.Helper()
	return NewMapper(gigs(t), refs).MapRow(ParsedRow{Line: 2, Values: values})
}

func issueCodes(issues []RowIssue) []string {
	codes := make([]string, len(issues))
	for i, is := range issues {
		codes[i] = is.Code
	}
	return codes
}

func TestMapRow_CoercesEveryType(t *testing.T) {
	row := mapOne(t, testRefs(), map[string]string{
		"title":    "Spring launch",
		"fee":      "$5,000",
		"tags":     "beauty, skincare ,",
		"starts":   "2025-04-01",
		"paid":     "yes",
		"priority": "HIGH",
		"owner":    "maya@example.com",
		"creator":  "Jane",
	})

	if len(row.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", row.Issues)
	}

	want := Record{
		"title":    "Spring launch",
		"fee":      5000,
		"tags":     []string{"beauty", "skincare"},
		"starts":   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		"paid":     true,
		"priority": "high",
		"owner":    "u1",
		"creator":  "1",
	}
	if !reflect.DeepEqual(row.Record, want) {
		t.Errorf("Record = %#v\nwant %#v", row.Record, want)
	}
}

func TestMapRow_AbsentFieldsStayUnset(t *testing.T) {
	row := mapOne(t, nil, map[string]string{"title": "Only title", "unknown_column": "x"})

	if len(row.Record) != 1 {
		t.Errorf("Record = %v, want only title", row.Record)
	}
	if _, ok := row.Record["unknown_column"]; ok {
		t.Error("unknown headers must be ignored")
	}
}

func TestMapRow_Aliases(t *testing.T) {
	row := mapOne(t, testRefs(), map[string]string{"name": "Via alias", "team_member": "Tom Reyes"})

	if row.Record["title"] != "Via alias" {
		t.Errorf("title = %v", row.Record["title"])
	}
	if row.Record["owner"] != "u2" {
		t.Errorf("owner = %v, want u2", row.Record["owner"])
	}
}

func TestMapRow_CanonicalHeaderBeatsAlias(t *testing.T) {
	row := mapOne(t, nil, map[string]string{"name": "alias", "title": "canonical"})
	if row.Record["title"] != "canonical" {
		t.Errorf("title = %v, want canonical", row.Record["title"])
	}
}

func TestMapRow_InvalidValuesBecomeNull(t *testing.T) {
	row := mapOne(t, nil, map[string]string{
		"title":  "Bad cells",
		"fee":    "lots",
		"starts": "soon",
		"paid":   "perhaps",
	})

	for _, field := range []string{"fee", "starts", "paid"} {
		v, ok := row.Record[field]
		if !ok || v != nil {
			t.Errorf("%s = %v (present=%v), want explicit nil", field, v, ok)
		}
	}
	want := []string{IssueInvalidInteger, IssueInvalidDate, IssueInvalidBool}
	if got := issueCodes(row.Issues); !reflect.DeepEqual(got, want) {
		t.Errorf("issue codes = %v, want %v", got, want)
	}
	if row.Issues[0].Line != 2 || row.Issues[0].Value != "lots" {
		t.Errorf("issue = %+v", row.Issues[0])
	}
}

func TestMapRow_EmptyCells(t *testing.T) {
	row := mapOne(t, testRefs(), map[string]string{
		"title":   "",
		"fee":     "",
		"tags":    "",
		"creator": "",
	})

	if row.Record["title"] != "" {
		t.Errorf("empty required text = %#v, want empty string", row.Record["title"])
	}
	if row.Record["fee"] != nil {
		t.Errorf("empty integer = %#v, want nil", row.Record["fee"])
	}
	if tags, ok := row.Record["tags"].([]string); !ok || len(tags) != 0 {
		t.Errorf("empty list = %#v, want empty slice", row.Record["tags"])
	}
	if row.Record["creator"] != nil {
		t.Errorf("empty reference = %#v, want nil", row.Record["creator"])
	}
	if got := issueCodes(row.Issues); !reflect.DeepEqual(got, []string{IssueRequired}) {
		t.Errorf("issue codes = %v, want [required]", got)
	}
}

func TestMapRow_References(t *testing.T) {
	tests := []struct {
		name      string
		creator   string
		wantValue any
		wantCode  string
	}{
		{"resolved", "Janet", "2", ""},
		{"ambiguous keeps first", "Sam Lee", "3", IssueReferenceAmbig},
		{"case mismatch", "janet", nil, IssueReferenceNotFound},
		{"missing", "Nobody", nil, IssueReferenceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := mapOne(t, testRefs(), map[string]string{"title": "x", "creator": tt.creator})

			if row.Record["creator"] != tt.wantValue {
				t.Errorf("creator = %v, want %v", row.Record["creator"], tt.wantValue)
			}
			var codes []string
			for _, is := range row.Issues {
				codes = append(codes, is.Code)
			}
			if tt.wantCode == "" && len(codes) != 0 {
				t.Errorf("unexpected issues %v", codes)
			}
			if tt.wantCode != "" && (len(codes) != 1 || codes[0] != tt.wantCode) {
				t.Errorf("issues = %v, want [%s]", codes, tt.wantCode)
			}
		})
	}
}

func TestMapRow_NotFoundCarriesSuggestions(t *testing.T) {
	row := mapOne(t, testRefs(), map[string]string{"title": "x", "creator": "janet"})

	if len(row.Issues) != 1 {
		t.Fatalf("issues = %+v", row.Issues)
	}
	if len(row.Issues[0].Suggestions) == 0 || row.Issues[0].Suggestions[0] != "Janet" {
		t.Errorf("suggestions = %v, want Janet first", row.Issues[0].Suggestions)
	}
}

func TestMapRow_UncheckedReferencesAreSilent(t *testing.T) {
	row := mapOne(t, nil, map[string]string{"title": "x", "creator": "Jane"})

	if row.Record["creator"] != nil {
		t.Errorf("creator = %v, want nil without reference lists", row.Record["creator"])
	}
	if len(row.Issues) != 0 {
		t.Errorf("issues = %+v, want none", row.Issues)
	}
}

func TestMapRow_ValidationTags(t *testing.T) {
	row := mapOne(t, nil, map[string]string{
		"title":    "x",
		"fee":      "-5",
		"priority": "urgent",
		"contact":  "not-an-email",
	})

	got := issueCodes(row.Issues)
	want := []string{IssueValidation, IssueValidation, IssueValidation}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("issue codes = %v, want %v", got, want)
	}
	// Values are still mapped; validation only reports.
	if row.Record["fee"] != -5 || row.Record["priority"] != "urgent" {
		t.Errorf("Record = %v", row.Record)
	}
}

func TestMapAll_IssueHelpers(t *testing.T) {
	rows := NewMapper(gigs(t), testRefs()).MapAll([]ParsedRow{
		{Line: 2, Values: map[string]string{"title": "a", "creator": "Sam Lee"}},
		{Line: 3, Values: map[string]string{"title": "", "creator": "Nobody"}},
		{Line: 4, Values: map[string]string{"title": "c"}},
	})

	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if got := len(AllIssues(rows)); got != 3 {
		t.Errorf("AllIssues = %d, want 3", got)
	}
	refIssues := ReferenceIssues(rows)
	if len(refIssues) != 2 {
		t.Fatalf("ReferenceIssues = %d, want 2", len(refIssues))
	}
	if refIssues[0].Line != 2 || refIssues[1].Line != 3 {
		t.Errorf("reference issue lines = %d, %d", refIssues[0].Line, refIssues[1].Line)
	}
}
