package kernel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"

	"mlfq/internal/job"
	"mlfq/internal/sched"
)

// Config mirrors config.yml
type Config struct {
	TickMS    int            `yaml:"tick_ms"`    // 5 (by default), 0 free-runs
	TimeSlice int            `yaml:"time_slice"` // 5 (by default)
	Policy    string         `yaml:"policy"`     // "deferred" (by default) or "immediate"
	MaxTicks  int64          `yaml:"max_ticks"`  // 10000 (by default)
	Debug     bool           `yaml:"debug"`      // validate the run queue after every tick
	Tasks     []job.Spec     `yaml:"tasks"`
	Generate  *job.GenParams `yaml:"generate"`
}

// If the config file is not found, we use default values
func DefaultConfig() Config {
	return Config{
		TickMS:    5,
		TimeSlice: sched.DefaultTimeSlice,
		Policy:    sched.PolicyDeferred,
		MaxTicks:  10000,
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file means
// defaults only. Malformed YAML is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// sanity clamps
func (c *Config) clamp() {
	if c.TimeSlice <= 0 {
		c.TimeSlice = sched.DefaultTimeSlice
	}
	if c.TickMS < 0 {
		c.TickMS = 0
	}
	if c.MaxTicks <= 0 {
		c.MaxTicks = 10000
	}
	if c.Policy == "" {
		c.Policy = sched.PolicyDeferred
	}
}

// Workload returns the static tasks followed by any generated ones.
func (c Config) Workload() ([]job.Spec, error) {
	specs := append([]job.Spec(nil), c.Tasks...)
	if c.Generate == nil {
		return specs, nil
	}
	p := *c.Generate
	if p.FirstID == 0 {
		for _, s := range specs {
			if s.ID >= p.FirstID {
				p.FirstID = s.ID + 1
			}
		}
	}
	gen, err := job.Generate(p)
	if err != nil {
		return nil, err
	}
	return append(specs, gen...), nil
}
