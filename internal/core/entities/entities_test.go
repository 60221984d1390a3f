package entities

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

func TestRegisteredEntities(t *testing.T) {
	for _, key := range []string{"campaigns", "creators", "tasks"} {
		def, ok := core.Get(key)
		require.True(t, ok, "%s not registered", key)
		assert.NotEmpty(t, def.Info.Columns, "%s has no columns", key)
		assert.NotEmpty(t, def.Info.Samples, "%s has no samples", key)
	}
}

func TestCampaignSchema(t *testing.T) {
	def, ok := core.Get("campaigns")
	require.True(t, ok)

	assert.Equal(t, "executions", def.Info.Table)
	assert.Equal(t, []string{"admin", "manager"}, def.Info.AllowedRoles)
	assert.Equal(t, "planning", def.Info.Fixed["status"])
	assert.ElementsMatch(t, []core.RefKind{core.RefCreators, core.RefUsers}, def.RefKinds())

	f, ok := def.Field("Team_Member")
	require.True(t, ok)
	assert.Equal(t, "assigned_team_member", f.Name)
	assert.Equal(t, []string{"name", "email"}, f.MatchOn)
}

func TestCreatorSchema(t *testing.T) {
	def, ok := core.Get("creators")
	require.True(t, ok)

	assert.Contains(t, def.Info.AllowedRoles, "associate")
	assert.Equal(t, false, def.Info.Fixed["is_verified"])

	score, ok := def.Field("score")
	require.True(t, ok)
	assert.Equal(t, core.FieldInteger, score.Type)
	assert.Equal(t, "min=1,max=5", score.Validate)
}

func TestTaskSchema(t *testing.T) {
	def, ok := core.Get("tasks")
	require.True(t, ok)

	assert.Equal(t, "requirements", def.Info.Table)
	assert.Equal(t, "todo", def.Info.Defaults["status"])

	status, ok := def.Field("status")
	require.True(t, ok)
	assert.Equal(t, core.FieldEnum, status.Type)
	assert.Equal(t, []string{"todo", "in_progress", "review", "blocked", "done"}, status.EnumValues)
}

func TestSamplesMapCleanly(t *testing.T) {
	for _, def := range core.All() {
		if def.Info.Key != "campaigns" && def.Info.Key != "creators" && def.Info.Key != "tasks" {
			continue
		}
		_, data, err := core.GenerateTemplate(def.Info.Key)
		require.NoError(t, err)

		parsed, err := core.ParseCSV(data)
		require.NoError(t, err)

		mapped := core.NewMapper(def, nil).MapAll(parsed.Rows)
		assert.Empty(t, core.AllIssues(mapped), "%s samples produce issues", def.Info.Key)
	}
}

func TestParse(t *testing.T) {
	def, err := Parse([]byte(`
key: notes
table: notes
allowed_roles: [admin]
fields:
  - name: body
    type: text
    required: true
`))
	require.NoError(t, err)
	assert.Equal(t, "notes", def.Info.Key)
	assert.Len(t, def.Fields, 1)
	assert.True(t, def.Fields[0].Required)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "key: x\ntable: x\nallowed_roles: [admin]\ncolour: red\nfields:\n  - name: a\n    type: text\n"},
		{"no key", "table: x\nfields:\n  - name: a\n    type: text\n"},
		{"no fields", "key: x\ntable: x\n"},
		{"bad yaml", "key: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/b.yaml": {Data: []byte("key: b\ntable: b\nallowed_roles: [admin]\nfields:\n  - name: x\n    type: text\n")},
		"schemas/a.yaml": {Data: []byte("key: a\ntable: a\nallowed_roles: [admin]\nfields:\n  - name: y\n    type: bool\n")},
		"schemas/readme": {Data: []byte("ignored")},
	}

	defs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].Info.Key)
	assert.Equal(t, "b", defs[1].Info.Key)

	fsys["schemas/c.yaml"] = &fstest.MapFile{Data: []byte("key: c\n")}
	_, err = Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c.yaml")
}
