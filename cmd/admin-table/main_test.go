package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/admin-datatable/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeConfig points the CLI at the mock backend.
func writeConfig(t *testing.T, baseURL string, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf(`
[api]
base_url = %q
max_retries = 0
initial_backoff = "10ms"

[log]
level = "error"
pretty = false
%s`, baseURL, extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "admin-table dev")
}

func TestURLCommand(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"sort=-name&like=ana", "limit=10&offset=0&like=ana&sort=-name"},
		{"?limit=20&offset=40", "limit=20&offset=40&like=&sort=+"},
		{"", "limit=10&offset=0&like=&sort=+"},
		{"limit=abc&page=3", "limit=10&offset=0&like=&sort=+"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			out, _, err := execute(t, "url", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestURLCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "url", "--json", "limit=20&sort=name")
	require.NoError(t, err)
	assert.Contains(t, out, `"limit": 20`)
	assert.Contains(t, out, `"sort": "name"`)
}

func TestURLCommand_InvalidSort(t *testing.T) {
	_, _, err := execute(t, "url", "sort=na;me")
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	backend := testutil.NewMockBackend()
	defer backend.Close()
	cfgPath := writeConfig(t, backend.URL(), "")

	out, _, err := execute(t, "list", "cohorts", "--config", cfgPath, "--url", "limit=5&sort=name")
	require.NoError(t, err)

	assert.Contains(t, out, "Slug")
	assert.Contains(t, out, "austin-07", "sorted by name, Austin comes first")
	assert.Contains(t, out, "Rows 1-5 of 45")
	assert.Contains(t, out, "/admin/cohorts?limit=5&offset=0&like=&sort=name\n")

	assert.Equal(t, "5", backend.LastQuery().Get("limit"))
	assert.Equal(t, "name", backend.LastQuery().Get("sort"))
}

func TestListCommand_SortFlags(t *testing.T) {
	backend := testutil.NewMockBackend()
	defer backend.Close()
	cfgPath := writeConfig(t, backend.URL(), "")

	out, _, err := execute(t, "list", "cohorts", "--config", cfgPath,
		"--url", "limit=5&sort=slug", "--sort-by", "name", "--sort-dir", "DESC")
	require.NoError(t, err)

	assert.Equal(t, "-name", backend.LastQuery().Get("sort"))
	assert.Contains(t, out, "/admin/cohorts?limit=5&offset=0&like=&sort=-name\n")

	_, _, err = execute(t, "list", "cohorts", "--config", cfgPath, "--sort-by", "name", "--sort-dir", "up")
	assert.ErrorContains(t, err, "invalid --sort-dir")
}

func TestListCommand_DefaultLimitFromConfig(t *testing.T) {
	backend := testutil.NewMockBackend()
	defer backend.Close()
	cfgPath := writeConfig(t, backend.URL(), `
[table]
default_limit = 20
base_path = "/dashboard"
`)

	out, _, err := execute(t, "list", "staff", "--config", cfgPath, "--link-base", "https://admin.example.com")
	require.NoError(t, err)

	assert.Contains(t, out, "Rows 1-20 of 23")
	assert.Contains(t, out, "https://admin.example.com/dashboard/staff?limit=20&offset=0&like=&sort=+")
}

func TestListCommand_AllAsCSV(t *testing.T) {
	backend := testutil.NewMockBackend()
	defer backend.Close()
	cfgPath := writeConfig(t, backend.URL(), "")

	out, _, err := execute(t, "list", "cohorts", "--config", cfgPath, "--all", "--csv", "--url", "like=madrid")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	assert.Equal(t, "Slug,Name,Stage,Lang,Kickoff,Ending", lines[0])
	for _, line := range lines[1:] {
		assert.Contains(t, line, "madrid")
	}
	assert.Len(t, lines, 1+6, "45 cohorts over 8 cities leave 6 in Madrid")
}

func TestListCommand_Metrics(t *testing.T) {
	backend := testutil.NewMockBackend()
	defer backend.Close()
	cfgPath := writeConfig(t, backend.URL(), "")

	_, stderr, err := execute(t, "list", "cohorts", "--config", cfgPath, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, stderr, "admin_requests_total")
	assert.Contains(t, stderr, "admin_table_fetches_total")
}

func TestListCommand_Errors(t *testing.T) {
	backend := testutil.NewMockBackend()
	defer backend.Close()
	cfgPath := writeConfig(t, backend.URL(), "")

	_, _, err := execute(t, "list", "courses", "--config", cfgPath)
	assert.ErrorContains(t, err, "unknown resource")

	_, _, err = execute(t, "list", "cohorts", "--config", cfgPath, "--url", "sort=language")
	assert.Error(t, err, "language is not sortable on the backend")

	_, _, err = execute(t, "list")
	assert.Error(t, err)
}

func TestConfigGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin-table", "config.toml")

	out, _, err := execute(t, "config", "generate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
