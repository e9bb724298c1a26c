package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fieldstack/fleetstock/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Events.Buffer != 1024 || cfg.Events.Workers != 4 {
		t.Errorf("events = %+v", cfg.Events)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
mysql:
  dsn: "root:root@tcp(localhost:3306)/fleetstock?parseTime=true"
units:
  - id: U1
    displayName: Van 1
    assignedTechnician: Sam
    operationalStatus: in_service
  - id: U2
    displayName: Van 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.MySQL.DSN == "" {
		t.Error("dsn not loaded")
	}

	units := cfg.MobileUnits()
	if len(units) != 2 {
		t.Fatalf("units = %+v", units)
	}
	if units[0].OperationalStatus != domain.UnitStatusInService {
		t.Errorf("U1 status = %s", units[0].OperationalStatus)
	}
	// Status defaults to active when omitted.
	if units[1].OperationalStatus != domain.UnitStatusActive {
		t.Errorf("U2 status = %s", units[1].OperationalStatus)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MYSQL_DSN", "env-dsn")
	t.Setenv("REDIS_ADDR", "env-addr")

	path := writeConfig(t, `
mysql:
  dsn: "file-dsn"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MySQL.DSN != "env-dsn" || cfg.Redis.Addr != "env-addr" {
		t.Errorf("env override not applied: %+v", cfg)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero buffer", func(c *Config) { c.Events.Buffer = 0 }},
		{"zero workers", func(c *Config) { c.Events.Workers = 0 }},
		{"empty unit id", func(c *Config) { c.Units = []UnitConfig{{}} }},
		{"reserved unit id", func(c *Config) { c.Units = []UnitConfig{{ID: "warehouse"}} }},
		{"duplicate unit id", func(c *Config) { c.Units = []UnitConfig{{ID: "U1"}, {ID: "U1"}} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
