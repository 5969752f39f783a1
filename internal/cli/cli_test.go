package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestPoliciesCmd(t *testing.T) {
	out, err := execute(t, "policies")
	require.NoError(t, err)
	assert.Contains(t, out, "deferred")
	assert.Contains(t, out, "immediate")
	assert.Contains(t, out, "previous task")
}

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
tick_ms: 5
tasks:
  - {id: 1, name: hog, level: 2, bursts: [{cpu: 6}]}
  - {id: 2, name: shell, level: 1, arrive: 2, bursts: [{cpu: 1, io: 2}, {cpu: 1}]}
`), 0o644))
	trace := filepath.Join(dir, "trace.csv")

	out, err := execute(t, "run", "-c", cfg, "-p", "immediate", "--tick-ms", "0", "--time-slice", "2", "--csv", trace, "--validate")
	require.NoError(t, err)
	assert.Contains(t, out, "policy=immediate")
	assert.Contains(t, out, "completed=true")
	assert.Contains(t, out, "shell")
	assert.FileExists(t, trace)
}

func TestRunCmdErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yml")
	require.NoError(t, os.WriteFile(empty, []byte("tick_ms: 0\n"), 0o644))

	_, err := execute(t, "run", "-c", empty)
	assert.ErrorContains(t, err, "no tasks")

	cfg := filepath.Join(dir, "one.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("tasks: [{id: 1, bursts: [{cpu: 1}]}]\n"), 0o644))
	_, err = execute(t, "run", "-c", cfg, "-p", "lottery")
	assert.ErrorContains(t, err, "unknown scheduling policy")

	_, err = execute(t, "--log-format", "yaml", "policies")
	assert.ErrorContains(t, err, "unknown log format")
}

func TestRunCmdRejectsLevelOutsidePolicy(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("tasks: [{id: 1, level: 2, bursts: [{cpu: 3}]}]\n"), 0o644))

	var err error
	assert.NotPanics(t, func() {
		_, err = execute(t, "run", "-c", cfg, "-p", "deferred", "--tick-ms", "0")
	})
	assert.ErrorContains(t, err, "level not admitted")
}
