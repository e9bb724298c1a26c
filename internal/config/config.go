// Package config provides configuration loading for the fleetstock server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Events EventsConfig `yaml:"events"`
	Units  []UnitConfig `yaml:"units"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address
	Addr string `yaml:"addr"`
}

type MySQLConfig struct {
	// DSN enables the durable MySQL store when set; empty runs in-memory
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	// Addr enables request dedup and transfer event fan-out when set
	Addr string `yaml:"addr"`
}

type EventsConfig struct {
	// Buffer is the transfer event channel capacity
	Buffer int `yaml:"buffer"`
	// Workers is the number of goroutines publishing events
	Workers int `yaml:"workers"`
}

// UnitConfig describes one mobile unit of the fleet.
type UnitConfig struct {
	ID                 string `yaml:"id"`
	DisplayName        string `yaml:"displayName"`
	AssignedTechnician string `yaml:"assignedTechnician"`
	OperationalStatus  string `yaml:"operationalStatus"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Events: EventsConfig{Buffer: 1024, Workers: 4},
	}
}

// Load reads a YAML config file over the defaults. A missing path returns
// the defaults unchanged. Environment variables MYSQL_DSN and REDIS_ADDR
// override their file counterparts.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		cfg.MySQL.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Events.Buffer <= 0 {
		return fmt.Errorf("events.buffer must be positive")
	}
	if c.Events.Workers <= 0 {
		return fmt.Errorf("events.workers must be positive")
	}
	seen := make(map[string]bool)
	for _, u := range c.Units {
		if u.ID == "" {
			return fmt.Errorf("unit id is required")
		}
		if u.ID == domain.LocationWarehouse {
			return fmt.Errorf("unit id %q is reserved", domain.LocationWarehouse)
		}
		if seen[u.ID] {
			return fmt.Errorf("duplicate unit id %q", u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}

// MobileUnits converts the configured fleet into domain reference data.
func (c *Config) MobileUnits() []domain.MobileUnit {
	units := make([]domain.MobileUnit, 0, len(c.Units))
	for _, u := range c.Units {
		status := domain.UnitStatus(u.OperationalStatus)
		if status == "" {
			status = domain.UnitStatusActive
		}
		units = append(units, domain.MobileUnit{
			ID:                 u.ID,
			DisplayName:        u.DisplayName,
			AssignedTechnician: u.AssignedTechnician,
			OperationalStatus:  status,
		})
	}
	return units
}
