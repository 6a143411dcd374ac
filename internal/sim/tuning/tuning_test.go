package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
	require.Equal(t, 10, cfg.NumAgents)
	require.Equal(t, 7.0, cfg.Cell.Diameter)
	require.True(t, cfg.BoundEnabled)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
num_agents: 25
num_steps: 5
seed: 42
workers: 3
bound_enabled: false
walk:
  save: RAW
division:
  enabled: true
  threshold: 9
log_level: DEBUG
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.NumAgents)
	require.Equal(t, 5, cfg.NumSteps)
	require.Equal(t, uint64(42), cfg.Seed)
	require.Equal(t, 3, cfg.WorkerCount())
	require.False(t, cfg.BoundEnabled)
	require.Equal(t, "raw", cfg.Walk.Save)
	require.Equal(t, 20.0, cfg.Walk.Range, "unset nested keys keep defaults")
	require.True(t, cfg.Division.Enabled)
	require.Equal(t, 9.0, cfg.Division.Threshold)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EmptyFileIsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_SchemaRejectsUnknownKeysAndTypes(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key":    "num_agentz: 3\n",
		"nested unknown": "walk:\n  speed: 3\n",
		"wrong type":     "num_agents: many\n",
		"negative seed":  "seed: -1\n",
		"bad save":       "walk:\n  save: both\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.True(t, os.IsNotExist(err))
}

func TestValidate_Bounds(t *testing.T) {
	cfg := Defaults()
	cfg.BoundMin, cfg.BoundMax = 10, 10
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.BoundMin, cfg.BoundMax = 10, 5
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	// Bounds are ignored when bounding is off.
	cfg.BoundEnabled = false
	require.NoError(t, cfg.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"negative agents":   func(c *Config) { c.NumAgents = -1 },
		"negative steps":    func(c *Config) { c.NumSteps = -1 },
		"negative workers":  func(c *Config) { c.Workers = -2 },
		"zero diameter":     func(c *Config) { c.Cell.Diameter = 0 },
		"zero walk range":   func(c *Config) { c.Walk.Range = 0 },
		"zero time step":    func(c *Config) { c.TimeStep = 0 },
		"bad log level":     func(c *Config) { c.LogLevel = "loud" },
		"trace without dir": func(c *Config) { c.Trace = TraceConfig{Enabled: true} },
		"division zero":     func(c *Config) { c.Division = DivisionConfig{Enabled: true} },
		"growth no max":     func(c *Config) { c.Growth = GrowthConfig{Enabled: true, Rate: 1} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_ZeroAgentsAllowed(t *testing.T) {
	cfg := Defaults()
	cfg.NumAgents = 0
	require.NoError(t, cfg.Validate())
}

func TestWorkerCount_DefaultsToCPUs(t *testing.T) {
	cfg := Defaults()
	require.GreaterOrEqual(t, cfg.WorkerCount(), 1)
}

func TestLoad_ShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "sim.yaml"))
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}
