package core

import (
	"sync"
	"testing"
)

const testEntity = "gigs"

var registerGigsOnce sync.Once

// gigsDefinition exercises every field type. Its key does not clash with the
// schemas registered by the entities package.
func gigsDefinition() EntityDefinition {
	return EntityDefinition{
		Info: EntityInfo{
			Key:          testEntity,
			Label:        "Gigs",
			Table:        "gigs",
			AllowedRoles: []string{"admin", "manager"},
			Defaults:     map[string]any{"priority": "medium"},
			Fixed:        map[string]any{"status": "planning"},
			Samples: []map[string]string{
				{"title": "Spring launch", "fee": "5000", "tags": "beauty, skincare", "priority": "high"},
			},
		},
		Fields: []FieldSpec{
			{Name: "title", Aliases: []string{"name"}, Type: FieldText, Required: true},
			{Name: "fee", Type: FieldInteger, Validate: "min=0", Currency: "USD"},
			{Name: "tags", Type: FieldList},
			{Name: "starts", Type: FieldDate},
			{Name: "paid", Type: FieldBool},
			{Name: "priority", Type: FieldEnum, EnumValues: []string{"high", "medium", "low"}},
			{Name: "owner", Aliases: []string{"team_member"}, Type: FieldReference, Ref: RefUsers, MatchOn: []string{"name", "email"}},
			{Name: "creator", Type: FieldReference, Ref: RefCreators},
			{Name: "contact", Type: FieldText, Validate: "omitempty,email"},
		},
	}
}

// gigs registers the test entity once and returns its stored definition.
func gigs(t *testing.T) EntityDefinition {
	t.Helper()
	registerGigsOnce.Do(func() { Register(gigsDefinition()) })
	def, ok := Get(testEntity)
	if !ok {
		t.Fatal("test entity not registered")
	}
	return def
}

// testRefs is a small reference set with one duplicated creator name.
func testRefs() ReferenceSet {
	return ReferenceSet{
		RefUsers: {
			{ID: "u1", Name: "Maya Chen", Email: "maya@example.com"},
			{ID: "u2", Name: "Tom Reyes", Email: "tom@example.com"},
		},
		RefCreators: {
			{ID: "1", Name: "Jane"},
			{ID: "2", Name: "Janet"},
			{ID: "3", Name: "Sam Lee"},
			{ID: "4", Name: "Sam Lee"},
		},
	}
}
