package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/resq112/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `feed:
  endpoint: "http://localhost:8080/api/emergency"
  poll_interval_seconds: 5
rosters:
  endpoints:
    medical: "http://localhost:8080/api/ambulances"
    police: "http://localhost:8080/api/police"
dispatch:
  radius_meters: 250
  confirmation: "auto"
  log_endpoints:
    medical: "http://localhost:8080/api/dispatch/ambulance"
audit:
  backend: "sqlite"
  path: "dispatch.db"
metrics:
  prom_address: ":9091"
api:
  address: ":8090"
  token: "secret"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"feed.endpoint", cfg.Feed.Endpoint, "http://localhost:8080/api/emergency"},
		{"feed.poll_interval_seconds", cfg.Feed.PollIntervalSeconds, 5},
		{"rosters.medical", cfg.Rosters.ByType()[model.ResourceMedical], "http://localhost:8080/api/ambulances"},
		{"rosters.police", cfg.Rosters.ByType()[model.ResourcePolice], "http://localhost:8080/api/police"},
		{"dispatch.radius_meters", cfg.Dispatch.RadiusMeters, 250.0},
		{"dispatch.confirmation", cfg.Dispatch.Confirmation, "auto"},
		{"dispatch.log.medical", cfg.Dispatch.LogEndpointsByType()[model.ResourceMedical], "http://localhost:8080/api/dispatch/ambulance"},
		{"audit.backend", cfg.Audit.Backend, "sqlite"},
		{"audit.path", cfg.Audit.Path, "dispatch.db"},
		{"metrics.prom_address", cfg.Metrics.PromAddress, ":9091"},
		{"api.address", cfg.API.Address, ":8090"},
		{"api.token", cfg.API.Token, "secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"feed":{"endpoint":"http://localhost:8080/api/emergency"},"rosters":{"endpoints":{"fire":"http://localhost:8080/api/firetrucks"}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Feed.PollIntervalSeconds != 10 {
		t.Errorf("expected default poll interval, got %d", cfg.Feed.PollIntervalSeconds)
	}
	if cfg.Dispatch.RadiusMeters != 200 {
		t.Errorf("expected default radius, got %v", cfg.Dispatch.RadiusMeters)
	}
	if cfg.Dispatch.Confirmation != "auto" {
		t.Errorf("expected auto confirmation, got %s", cfg.Dispatch.Confirmation)
	}
	if cfg.Audit.Backend != "jsonl" {
		t.Errorf("expected jsonl backend, got %s", cfg.Audit.Backend)
	}
	if cfg.API.Address != ":8090" {
		t.Errorf("expected default api address, got %s", cfg.API.Address)
	}
}

func TestLoadRejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `feed:
  endpoint: "http://localhost:8080/api/emergency"
rosters:
  endpoints:
    submarine: "http://localhost:8080/api/submarines"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown resource type error")
	}
}
