package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/simulator"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     Server       `yaml:"server"`
	Database   Database     `yaml:"database"`
	Simulation Simulation   `yaml:"simulation"`
	Engine     league.Rules `yaml:"engine"`
	Log        Log          `yaml:"log"`
}

type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Database struct {
	// Driver is one of memory, postgres or sqlite3.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Simulation struct {
	Speed             simulator.Speed `yaml:"speed"`
	KickDelay         time.Duration   `yaml:"kick_delay"`
	HalftimeTicks     int             `yaml:"halftime_ticks"`
	GroupRoundSpacing time.Duration   `yaml:"group_round_spacing"`
	ReturnLegGap      time.Duration   `yaml:"return_leg_gap"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Database: Database{Driver: "memory"},
		Simulation: Simulation{
			Speed:             simulator.SpeedX1,
			KickDelay:         1500 * time.Millisecond,
			HalftimeTicks:     15,
			GroupRoundSpacing: 7 * 24 * time.Hour,
			ReturnLegGap:      7 * 24 * time.Hour,
		},
		Engine: league.DefaultRules(),
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
}

// Rules returns the engine rules with the simulation overrides applied.
func (c *Config) Rules() league.Rules {
	r := c.Engine
	if c.Simulation.HalftimeTicks > 0 {
		r.HalftimeTicks = c.Simulation.HalftimeTicks
	}
	return r
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite3":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if _, ok := c.Simulation.Speed.Interval(); !ok {
		return fmt.Errorf("simulation.speed %q is not a known preset", c.Simulation.Speed)
	}
	if c.Simulation.KickDelay < 0 {
		return fmt.Errorf("simulation.kick_delay must not be negative")
	}

	r := c.Rules()
	if r.HalftimeTicks < 1 {
		return fmt.Errorf("halftime ticks must be positive, got %d", r.HalftimeTicks)
	}
	if r.FirstHalfAddedMin < 0 || r.FirstHalfAddedMin > r.FirstHalfAddedMax ||
		r.SecondHalfAddedMin < 0 || r.SecondHalfAddedMin > r.SecondHalfAddedMax {
		return fmt.Errorf("engine added time ranges are inverted or negative")
	}
	probabilities := map[string]float64{
		"attack":      r.Attack,
		"shot":        r.Shot,
		"on_target":   r.OnTarget,
		"goal":        r.Goal,
		"foul":        r.Foul,
		"card":        r.Card,
		"penalty_min": r.PenaltyMin,
		"penalty_max": r.PenaltyMax,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("engine.%s must be within [0, 1], got %g", name, p)
		}
	}
	if r.PenaltyMin > r.PenaltyMax {
		return fmt.Errorf("engine.penalty_min is above engine.penalty_max")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// NewLogger builds the process logger from the log section.
func NewLogger(c Log) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetLevel(level)
	if c.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}
