package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, errLoad := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Addr != ":3001" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.UsageSync.Interval != 15*time.Minute {
		t.Fatalf("unexpected interval %v", cfg.UsageSync.Interval)
	}
}

func TestLoadParsesVendors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  addr: ":8080"
database:
  dsn: ":memory:"
vendors:
  - id: di-1
    name: DataImpulse
    slug: dataimpulse
    enabled: true
    auth_type: custom
    token_endpoint: https://api.example.com/reseller/user/token/get
    api_base_url: https://api.example.com
    credentials:
      login: reseller
      password: hunter2
`)
	if errWrite := os.WriteFile(path, content, 0644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if len(cfg.Vendors) != 1 {
		t.Fatalf("expected 1 vendor, got %d", len(cfg.Vendors))
	}
	v := cfg.Vendors[0]
	if v.ID != "di-1" || v.Slug != "dataimpulse" {
		t.Fatalf("unexpected vendor %+v", v)
	}
	if v.Credentials["password"] != "hunter2" {
		t.Fatalf("credentials not parsed: %+v", v.Credentials)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROXYDASH_SERVER_ADDR", ":9999")
	cfg, errLoad := Load("")
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("env override not applied, addr %q", cfg.Server.Addr)
	}
}

func TestValidateRejectsDuplicateVendorID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
vendors:
  - id: v1
    slug: dataimpulse
  - id: v1
    slug: dataimpulse
`)
	if errWrite := os.WriteFile(path, content, 0644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	if _, errLoad := Load(path); errLoad == nil {
		t.Fatalf("expected duplicate vendor id error")
	}
}
