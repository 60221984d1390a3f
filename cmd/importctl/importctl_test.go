package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/opsdesk/internal/core"
)

const creatorsCSV = `name,email,primary_category
Jane Doe,jane@example.com,beauty
Lars Berg,lars@example.com,outdoors
`

// run executes the root command offline and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ---- Exit Code Tests ----

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", errors.New("boom"), exitFailed},
		{"coded", withCode(exitDB, errors.New("down")), exitDB},
		{"wrapped coded", errors.Join(errors.New("ctx"), withCode(exitUsage, errors.New("bad flag"))), exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
	assert.Nil(t, withCode(exitDB, nil))
}

func TestImportExitCode(t *testing.T) {
	assert.Equal(t, exitDB, importExitCode(&core.BackendError{Op: "insert", Err: errors.New("x")}))
	assert.Equal(t, exitValidation, importExitCode(&core.PermissionError{Role: "associate", Entity: "campaigns"}))
	assert.Equal(t, exitValidation, importExitCode(&core.ReferenceError{}))
	assert.Equal(t, exitFailed, importExitCode(errors.New("other")))
}

func TestPrintError(t *testing.T) {
	dup := &core.BackendError{Op: "insert", Err: errors.New("ERROR: duplicate key value violates unique constraint")}

	tests := []struct {
		name     string
		err      error
		want     string
		wantCode int
	}{
		{
			name:     "mapped import error shows code and action",
			err:      withCode(importExitCode(dup), core.NewUserError(dup)),
			want:     "A record with this key already exists (Code: DB001). Remove rows that were already imported\n",
			wantCode: exitDB,
		},
		{
			name:     "plain error printed as is",
			err:      withCode(exitUsage, errors.New("DATABASE_URL is required for this command")),
			want:     "DATABASE_URL is required for this command\n",
			wantCode: exitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, tt.wantCode, exitCode(tt.err))
		})
	}

	var be *core.BackendError
	assert.True(t, errors.As(core.NewUserError(dup), &be), "technical error stays reachable")
}

// ---- Command Tests ----

func TestEntitiesCmd(t *testing.T) {
	out, err := run(t, "entities")
	require.NoError(t, err)

	for _, key := range []string{"campaigns", "creators", "tasks"} {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "ENTITY")
}

func TestTemplateCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "template", "creators", "--out", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, core.TemplateFilename("creators", "csv"))
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, want, err := core.GenerateTemplate("creators")
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

func TestTemplateCmd_Stdout(t *testing.T) {
	out, err := run(t, "template", "tasks", "--stdout")
	require.NoError(t, err)

	_, want, err := core.GenerateTemplate("tasks")
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestTemplateCmd_Errors(t *testing.T) {
	_, err := run(t, "template", "invoices")
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "template", "creators", "--format", "pdf")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestPreviewCmd_Offline(t *testing.T) {
	path := writeFile(t, "creators.csv", creatorsCSV)

	out, err := run(t, "preview", "creators", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Creators: 2 row(s)")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "No issues found.")
}

func TestPreviewCmd_ReportsIssues(t *testing.T) {
	path := writeFile(t, "creators.csv", "name,email,primary_category\nJane Doe,not-an-email,beauty\n")

	out, err := run(t, "preview", "creators", path)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, out, "1 issue(s)")
	assert.Contains(t, out, "line 2, email")
}

func TestPreviewCmd_Errors(t *testing.T) {
	_, err := run(t, "preview", "invoices", "x.csv")
	assert.Equal(t, exitUsage, exitCode(err))

	_, err = run(t, "preview", "creators", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Equal(t, exitUsage, exitCode(err))

	empty := writeFile(t, "empty.csv", "")
	_, err = run(t, "preview", "creators", empty)
	assert.Equal(t, exitValidation, exitCode(err))
}

func TestImportCmd_RequiresDatabase(t *testing.T) {
	path := writeFile(t, "creators.csv", creatorsCSV)

	_, err := run(t, "import", "creators", path, "--user", "11111111-1111-1111-1111-111111111111")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestImportCmd_InvalidUser(t *testing.T) {
	path := writeFile(t, "creators.csv", creatorsCSV)

	_, err := run(t, "import", "creators", path, "--user", "bob")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}
