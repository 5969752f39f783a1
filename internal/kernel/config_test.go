package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlfq/internal/sched"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, sched.DefaultTimeSlice, cfg.TimeSlice)
	assert.Equal(t, sched.PolicyDeferred, cfg.Policy)
}

func TestLoadWorkload(t *testing.T) {
	path := writeConfig(t, `
tick_ms: 0
time_slice: 4
policy: immediate
debug: true
tasks:
  - id: 1
    name: editor
    level: 1
    bursts:
      - {cpu: 2, io: 5}
      - {cpu: 1}
  - id: 7
    name: batch
    level: 2
    arrive: 3
    bursts: [{cpu: 40}]
generate:
  count: 3
  seed: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TickMS)
	assert.Equal(t, 4, cfg.TimeSlice)
	assert.Equal(t, sched.PolicyImmediate, cfg.Policy)
	assert.True(t, cfg.Debug)
	require.Len(t, cfg.Tasks, 2)
	assert.Equal(t, "editor", cfg.Tasks[0].Name)
	assert.Equal(t, 5, cfg.Tasks[0].Bursts[0].IO)
	assert.EqualValues(t, 3, cfg.Tasks[1].Arrive)

	specs, err := cfg.Workload()
	require.NoError(t, err)
	require.Len(t, specs, 5)
	// generated ids continue after the highest static one
	assert.EqualValues(t, 8, specs[2].ID)
	assert.EqualValues(t, 10, specs[4].ID)
}

func TestLoadClamps(t *testing.T) {
	cfg, err := Load(writeConfig(t, "tick_ms: -3\ntime_slice: 0\nmax_ticks: -1\npolicy: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TickMS)
	assert.Equal(t, sched.DefaultTimeSlice, cfg.TimeSlice)
	assert.EqualValues(t, 10000, cfg.MaxTicks)
	assert.Equal(t, sched.PolicyDeferred, cfg.Policy)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "time_slice: [1, 2\n"))
	assert.Error(t, err)
}
