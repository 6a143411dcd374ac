package tuning

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seemapankhania/movingcellsmoother/internal/sim/behaviors"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	NumAgents int    `yaml:"num_agents" json:"num_agents"`
	NumSteps  int    `yaml:"num_steps" json:"num_steps"`
	Seed      uint64 `yaml:"seed" json:"seed"`

	// 0 means runtime.NumCPU(). Each worker owns a stream, so a seed only
	// reproduces a run for the same resolved worker count.
	Workers  int     `yaml:"workers" json:"workers"`
	TimeStep float64 `yaml:"time_step" json:"time_step"`

	BoundEnabled bool    `yaml:"bound_enabled" json:"bound_enabled"`
	BoundMin     float64 `yaml:"bound_min" json:"bound_min"`
	BoundMax     float64 `yaml:"bound_max" json:"bound_max"`

	Cell     CellConfig     `yaml:"cell" json:"cell"`
	Walk     WalkConfig     `yaml:"walk" json:"walk"`
	Growth   GrowthConfig   `yaml:"growth" json:"growth"`
	Division DivisionConfig `yaml:"division" json:"division"`
	Trace    TraceConfig    `yaml:"trace" json:"trace"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

type CellConfig struct {
	Diameter float64 `yaml:"diameter" json:"diameter"`
	Color    int32   `yaml:"color" json:"color"`
}

type WalkConfig struct {
	Range    float64 `yaml:"range" json:"range"`
	Momentum float64 `yaml:"momentum" json:"momentum"`
	Gain     float64 `yaml:"gain" json:"gain"`
	Save     string  `yaml:"save" json:"save"`
}

type GrowthConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Rate        float64 `yaml:"rate" json:"rate"`
	MaxDiameter float64 `yaml:"max_diameter" json:"max_diameter"`
}

type DivisionConfig struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// TraceConfig controls the optional per-step JSONL trace. It never affects
// simulation results.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`
}

// Defaults is the stock run: ten cells of diameter 7 in a
// bounded 100^3 cube, walked for 300 steps.
func Defaults() Config {
	return Config{
		NumAgents:    10,
		NumSteps:     300,
		Seed:         0,
		Workers:      0,
		TimeStep:     0.01,
		BoundEnabled: true,
		BoundMin:     0,
		BoundMax:     100,
		Cell:         CellConfig{Diameter: 7, Color: 4},
		Walk: WalkConfig{
			Range:    behaviors.DefaultWalkRange,
			Momentum: behaviors.DefaultWalkMomentum,
			Gain:     behaviors.DefaultWalkGain,
			Save:     string(behaviors.SaveApplied),
		},
		Growth:   GrowthConfig{Enabled: false, Rate: 400, MaxDiameter: 8},
		Division: DivisionConfig{Enabled: false, Threshold: 14},
		Trace:    TraceConfig{Enabled: false, Dir: "./data/traces"},
		LogLevel: "info",
	}
}

// Load reads a YAML config on top of Defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	name := filepath.Base(path)
	if err := validateSchema(raw); err != nil {
		return cfg, fmt.Errorf("%s: %w: %v", name, ErrInvalidConfig, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Walk.Save = strings.ToLower(strings.TrimSpace(c.Walk.Save))
	if c.Walk.Save == "" {
		c.Walk.Save = string(behaviors.SaveApplied)
	}
	c.Trace.Dir = strings.TrimSpace(c.Trace.Dir)
}

func (c Config) Validate() error {
	c.Normalize()
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if c.NumAgents < 0 {
		return invalid("num_agents must be >= 0")
	}
	if c.NumSteps < 0 {
		return invalid("num_steps must be >= 0")
	}
	if c.Workers < 0 {
		return invalid("workers must be >= 0")
	}
	if !(c.TimeStep > 0) {
		return invalid("time_step must be > 0")
	}
	if !finite(c.BoundMin) || !finite(c.BoundMax) {
		return invalid("bounds must be finite")
	}
	if c.BoundEnabled && c.BoundMax-c.BoundMin <= 0 {
		return invalid("bound_max (%v) must be > bound_min (%v)", c.BoundMax, c.BoundMin)
	}
	if !(c.Cell.Diameter > 0) || !finite(c.Cell.Diameter) {
		return invalid("cell.diameter must be > 0")
	}
	if !(c.Walk.Range > 0) || !finite(c.Walk.Range) {
		return invalid("walk.range must be > 0")
	}
	if !finite(c.Walk.Momentum) || !finite(c.Walk.Gain) {
		return invalid("walk.momentum and walk.gain must be finite")
	}
	if _, err := behaviors.ParseSaveMode(c.Walk.Save); err != nil {
		return invalid("walk.save: %v", err)
	}
	if c.Growth.Enabled {
		if c.Growth.Rate < 0 {
			return invalid("growth.rate must be >= 0")
		}
		if !(c.Growth.MaxDiameter > 0) {
			return invalid("growth.max_diameter must be > 0")
		}
	}
	if c.Division.Enabled && !(c.Division.Threshold > 0) {
		return invalid("division.threshold must be > 0")
	}
	if c.Trace.Enabled && c.Trace.Dir == "" {
		return invalid("trace.dir must not be empty when trace is enabled")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// WorkerCount resolves Workers, substituting runtime.NumCPU() for 0.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
