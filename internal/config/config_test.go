package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utakatalp/match-simulator/internal/simulator"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "DATABASE_DRIVER"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, simulator.SpeedX1, cfg.Simulation.Speed, "one tick per real minute")
	assert.Equal(t, 15, cfg.Rules().HalftimeTicks)
	assert.Equal(t, 0.22, cfg.Rules().Attack)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  addr: ":9000"
  allowed_origins: ["http://localhost:5173"]
database:
  driver: sqlite3
  dsn: matches.db
simulation:
  speed: turbo
  kick_delay: 250ms
  halftime_ticks: 3
engine:
  goal: 0.5
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, simulator.SpeedTurbo, cfg.Simulation.Speed)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.KickDelay)
	assert.Equal(t, 3, cfg.Rules().HalftimeTicks)
	assert.Equal(t, 0.5, cfg.Rules().Goal)
	assert.Equal(t, 0.8, cfg.Rules().Shot, "keys missing from the file keep their default")

	log, err := NewLogger(cfg.Log)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://sim@localhost/sim?sslmode=disable")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://sim@localhost/sim?sslmode=disable", cfg.Database.DSN)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"unknown key":      "simulation:\n  sped: x1\n",
		"unknown speed":    "simulation:\n  speed: x2\n",
		"missing dsn":      "database:\n  driver: postgres\n",
		"unknown driver":   "database:\n  driver: mongo\n",
		"probability":      "engine:\n  attack: 1.5\n",
		"inverted added":   "engine:\n  first_half_added_min: 5\n  first_half_added_max: 1\n",
		"bad log level":    "log:\n  level: loud\n",
		"bad log format":   "log:\n  format: xml\n",
		"negative delay":   "simulation:\n  kick_delay: -1s\n",
		"not yaml mapping": "- just\n- a list\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEmptyFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Simulation, cfg.Simulation)
}

func TestExampleConfigLoads(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Engine, cfg.Engine)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}
