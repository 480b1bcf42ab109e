/*
Package config loads the server configuration from a YAML file.

A full configuration looks like:

	listen_addr: ":8080"
	cors_origins: ["https://reports.example.com"]
	debug: false
	database:
	  driver: sqlite        # sqlite, postgres or memory
	  dsn: ./data/dosing.db
	refresher:
	  enabled: true
	  interval: 15m

Every field is optional; Load starts from Default and overlays the file.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the full server configuration.
type Config struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	Debug       bool     `yaml:"debug"`

	Database  Database  `yaml:"database"`
	Refresher Refresher `yaml:"refresher"`
}

// Database selects and configures the storage backend.
type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Refresher configures the background snapshot refresher.
type Refresher struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
}

// Duration is a time.Duration that unmarshals from strings like "15m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file or field is given.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		CORSOrigins: []string{"*"},
		Database: Database{
			Driver: DriverSQLite,
			DSN:    "./data/dosing.db",
		},
		Refresher: Refresher{
			Enabled:  true,
			Interval: Duration(15 * time.Minute),
		},
	}
}

// Load reads a YAML configuration file, overlaying it on Default.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.Database.Driver != DriverMemory && c.Database.DSN == "" {
		return fmt.Errorf("database dsn required for driver %q", c.Database.Driver)
	}
	if c.Refresher.Enabled && c.Refresher.Interval <= 0 {
		return fmt.Errorf("refresher interval must be positive, got %v", c.Refresher.Interval.Duration())
	}
	return nil
}
