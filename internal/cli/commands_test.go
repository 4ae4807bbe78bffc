package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/structure/internal/index"
	"github.com/roach88/structure/internal/model"
	"github.com/roach88/structure/internal/store"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, args ...string) result {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustExecute runs args and fails the test on error.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	res := execute(t, args...)
	require.NoError(t, res.err, "stdout: %s\nstderr: %s", res.stdout, res.stderr)
	return res.stdout
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cli.db")
}

func decodeData[T any](t *testing.T, stdout string) T {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func decodeError(t *testing.T, stdout string) CLIError {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestInit_ProvisionsSchema(t *testing.T) {
	db := testDB(t)

	out := mustExecute(t, "--db", db, "init")
	assert.Contains(t, out, "Schema ready (sqlite)")
	assert.Contains(t, out, store.TableProjects)
	assert.Contains(t, out, store.TableCategories)

	// A second run changes nothing.
	out = mustExecute(t, "--db", db, "init")
	assert.Contains(t, out, "Schema ready")
}

func TestInit_JSON(t *testing.T) {
	out := mustExecute(t, "--db", testDB(t), "--format", "json", "init")

	got := decodeData[InitResult](t, out)
	assert.Equal(t, store.DriverSQLite, got.Driver)
	assert.True(t, got.Ready)
	require.Len(t, got.Tables, 2)
	for _, table := range got.Tables {
		assert.True(t, table.Present, table.Name)
		assert.Zero(t, table.Rows)
	}
}

func TestInit_PureGoDriver(t *testing.T) {
	db := testDB(t)
	out := mustExecute(t, "--driver", store.DriverSQLitePureGo, "--db", db, "--format", "json", "init")
	assert.Equal(t, store.DriverSQLitePureGo, decodeData[InitResult](t, out).Driver)

	mustExecute(t, "--driver", store.DriverSQLitePureGo, "--db", db, "project", "create", "demo")
	out = mustExecute(t, "--driver", store.DriverSQLitePureGo, "--db", db, "--format", "json", "project", "list")
	assert.Len(t, decodeData[[]model.Project](t, out), 1)
}

func TestDoctor_MissingTables(t *testing.T) {
	db := testDB(t)

	res := execute(t, "--db", db, "doctor")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "missing")
	assert.Contains(t, res.stdout, "Error [E_SCHEMA]")

	res = execute(t, "--db", db, "--format", "json", "doctor")
	require.Error(t, res.err)
	assert.Equal(t, ErrCodeSchema, decodeError(t, res.stdout).Code)
}

func TestDoctor_AfterInit(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "init")
	mustExecute(t, "--db", db, "project", "create", "demo")

	out := mustExecute(t, "--db", db, "--format", "json", "doctor")
	got := decodeData[DoctorResult](t, out)
	assert.Empty(t, got.Missing)
	require.Len(t, got.Tables, 2)
	assert.Equal(t, store.TableProjects, got.Tables[0].Name)
	assert.Equal(t, int64(1), got.Tables[0].Rows)

	out = mustExecute(t, "--db", db, "doctor")
	assert.Contains(t, out, "All tables present")
}

func TestProjectLifecycle(t *testing.T) {
	db := testDB(t)
	args := func(a ...string) []string {
		return append([]string{"--db", db, "--format", "json"}, a...)
	}

	created := decodeData[model.Project](t, mustExecute(t, args("project", "create", "Demo")...))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "demo", created.Name)
	assert.Equal(t, "Demo", created.DisplayName)
	assert.Equal(t, model.DefaultMaxAuthAttempts, created.MaxAuthAttempts)
	assert.NotEmpty(t, created.SecretKey)

	listed := decodeData[[]model.Project](t, mustExecute(t, args("project", "list")...))
	require.Len(t, listed, 1)
	assert.Equal(t, created, listed[0])

	// Only the flags given change; edit by name.
	edited := decodeData[model.Project](t, mustExecute(t,
		args("project", "edit", "demo", "--display-name", "Demo Two", "--max-auth-attempts", "9")...))
	assert.Equal(t, created.ID, edited.ID)
	assert.Equal(t, created.SecretKey, edited.SecretKey)
	assert.Equal(t, "Demo Two", edited.DisplayName)
	assert.Equal(t, 9, edited.MaxAuthAttempts)
	assert.Equal(t, created.BackOffInterval, edited.BackOffInterval)

	// Rotate by id.
	rotated := decodeData[SecretResult](t, mustExecute(t, args("project", "regenerate-secret", created.ID)...))
	assert.Equal(t, created.ID, rotated.ID)
	assert.NotEqual(t, created.SecretKey, rotated.SecretKey)

	listed = decodeData[[]model.Project](t, mustExecute(t, args("project", "list")...))
	require.Len(t, listed, 1)
	assert.Equal(t, rotated.SecretKey, listed[0].SecretKey)

	deleted := decodeData[DeleteResult](t, mustExecute(t, args("project", "delete", "demo")...))
	assert.True(t, deleted.Deleted)

	listed = decodeData[[]model.Project](t, mustExecute(t, args("project", "list")...))
	assert.Empty(t, listed)
}

func TestProjectCreate_Text(t *testing.T) {
	db := testDB(t)
	out := mustExecute(t, "--db", db, "project", "create", "demo",
		"--display-name", "Demo Project", "--auth-address", "https://demo.example/auth")
	assert.Contains(t, out, "Demo Project")
	assert.Contains(t, out, "https://demo.example/auth")

	out = mustExecute(t, "--db", db, "project", "list")
	assert.Contains(t, out, "DISPLAY NAME")
	assert.Contains(t, out, "demo")
}

func TestProjectCreate_DuplicateName(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "project", "create", "demo")

	// Names are compared after lowercasing.
	res := execute(t, "--db", db, "--format", "json", "project", "create", "DEMO")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Equal(t, ErrCodeConstraint, decodeError(t, res.stdout).Code)
}

func TestProjectCreate_Invalid(t *testing.T) {
	res := execute(t, "--db", testDB(t), "--format", "json", "project", "create", "demo",
		"--max-auth-attempts", "0")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	cliErr := decodeError(t, res.stdout)
	assert.Equal(t, ErrCodeValidation, cliErr.Code)
	details, ok := cliErr.Details.(map[string]interface{})
	require.True(t, ok, "details: %#v", cliErr.Details)
	assert.Contains(t, details, "max_auth_attempts")
}

func TestProjectEdit_UnknownProject(t *testing.T) {
	res := execute(t, "--db", testDB(t), "--format", "json", "project", "edit", "ghost", "--display-name", "Ghost")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Equal(t, ErrCodeStore, decodeError(t, res.stdout).Code)
}

func TestProjectEdit_Rename(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "project", "create", "demo")
	mustExecute(t, "--db", db, "project", "create", "other")

	res := execute(t, "--db", db, "--format", "json", "project", "edit", "other", "--name", "demo")
	require.Error(t, res.err)
	assert.Equal(t, ErrCodeConstraint, decodeError(t, res.stdout).Code)

	out := mustExecute(t, "--db", db, "--format", "json", "project", "edit", "other", "--name", "renamed")
	assert.Equal(t, "renamed", decodeData[model.Project](t, out).Name)
}

func TestCategoryLifecycle(t *testing.T) {
	db := testDB(t)
	args := func(a ...string) []string {
		return append([]string{"--db", db, "--format", "json"}, a...)
	}
	project := decodeData[model.Project](t, mustExecute(t, args("project", "create", "demo")...))

	created := decodeData[model.Category](t, mustExecute(t,
		args("category", "create", "demo", "news", "--publish", "--history-size", "50")...))
	assert.Equal(t, project.ID, created.ProjectID)
	assert.Equal(t, "news", created.Name)
	assert.True(t, created.Publish)
	assert.True(t, created.Presence)
	assert.Equal(t, 50, created.HistorySize)

	mustExecute(t, args("category", "create", project.ID, "chat")...)

	listed := decodeData[[]model.Category](t, mustExecute(t, args("category", "list", "--project", "demo")...))
	require.Len(t, listed, 2)
	assert.ElementsMatch(t, []string{"news", "chat"}, []string{listed[0].Name, listed[1].Name})

	edited := decodeData[model.Category](t, mustExecute(t,
		args("category", "edit", "demo", "news", "--history=false")...))
	assert.Equal(t, created.ID, edited.ID)
	assert.False(t, edited.History)
	assert.True(t, edited.Publish)
	assert.Equal(t, 50, edited.HistorySize)

	deleted := decodeData[CategoryDeleteResult](t, mustExecute(t, args("category", "delete", "demo", "news")...))
	assert.True(t, deleted.Deleted)

	// Nothing left to match.
	deleted = decodeData[CategoryDeleteResult](t, mustExecute(t, args("category", "delete", "demo", "news")...))
	assert.False(t, deleted.Deleted)

	listed = decodeData[[]model.Category](t, mustExecute(t, args("category", "list")...))
	require.Len(t, listed, 1)
	assert.Equal(t, "chat", listed[0].Name)
}

func TestCategoryCreate_NamesUniqueAcrossProjects(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "project", "create", "alpha")
	mustExecute(t, "--db", db, "project", "create", "beta")
	mustExecute(t, "--db", db, "category", "create", "alpha", "news")

	res := execute(t, "--db", db, "--format", "json", "category", "create", "beta", "news")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Equal(t, ErrCodeConstraint, decodeError(t, res.stdout).Code)
}

func TestCategoryCreate_UnknownProject(t *testing.T) {
	res := execute(t, "--db", testDB(t), "category", "create", "ghost", "news")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "Error [E_STORE]")
}

func TestCategoryCreate_InvalidText(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "project", "create", "demo")

	res := execute(t, "--db", db, "category", "create", "demo", "news", "--history-size", "0")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "Error [E_VALIDATION]")
	assert.Contains(t, res.stderr, "history_size")
}

func TestDeleteProject_RemovesCategories(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "project", "create", "demo")
	mustExecute(t, "--db", db, "category", "create", "demo", "news")
	mustExecute(t, "--db", db, "project", "delete", "demo")

	out := mustExecute(t, "--db", db, "--format", "json", "category", "list")
	assert.Empty(t, decodeData[[]model.Category](t, out))
}

func TestIndex_Summary(t *testing.T) {
	db := testDB(t)
	mustExecute(t, "--db", db, "project", "create", "demo")
	mustExecute(t, "--db", db, "project", "create", "alpha")
	mustExecute(t, "--db", db, "category", "create", "demo", "news")
	mustExecute(t, "--db", db, "category", "create", "demo", "chat")

	got := decodeData[index.Summary](t, mustExecute(t, "--db", db, "--format", "json", "index"))
	assert.Equal(t, 2, got.Projects)
	assert.Equal(t, 2, got.Categories)
	require.Len(t, got.ByProject, 2)
	assert.Equal(t, "alpha", got.ByProject[0].Name)
	assert.Empty(t, got.ByProject[0].Categories)
	assert.ElementsMatch(t, []string{"news", "chat"}, got.ByProject[1].Categories)
	assert.Empty(t, got.Orphans)

	out := mustExecute(t, "--db", db, "index")
	assert.Contains(t, out, "2 projects, 2 categories")
	assert.NotContains(t, out, "orphan")
}

func TestBadDriver(t *testing.T) {
	res := execute(t, "--driver", "oracle", "--db", testDB(t), "--format", "json", "init")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	assert.Equal(t, ErrCodeUsage, decodeError(t, res.stdout).Code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "structure.yaml")
	db := filepath.Join(dir, "from-config.db")
	writeFile(t, cfgPath, "storage:\n  driver: sqlite-purego\n  dsn: "+db+"\n")

	out := mustExecute(t, "--config", cfgPath, "--format", "json", "init")
	assert.Equal(t, store.DriverSQLitePureGo, decodeData[InitResult](t, out).Driver)
	assert.FileExists(t, db)

	// --driver overrides the file.
	out = mustExecute(t, "--config", cfgPath, "--driver", store.DriverSQLite, "--format", "json", "init")
	assert.Equal(t, store.DriverSQLite, decodeData[InitResult](t, out).Driver)
}

func TestConfigFile_UnknownKey(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "structure.yaml")
	writeFile(t, cfgPath, "storage:\n  engine: oracle\n")

	res := execute(t, "--config", cfgPath, "init")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}

func TestVerbose_LogsToStderr(t *testing.T) {
	res := execute(t, "--db", testDB(t), "--verbose", "--format", "json", "init")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "opening sqlite store")
	assert.Contains(t, res.stderr, "database ready")

	// stdout stays parseable JSON.
	decodeData[InitResult](t, res.stdout)
}
