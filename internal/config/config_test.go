package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("http_port = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown_timeout = %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Backend != "file" || cfg.Store.HTTPPort != 5000 {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Editor.StoreURL != "http://localhost:5000" {
		t.Errorf("store_url = %q", cfg.Editor.StoreURL)
	}
	if cfg.Auth.Enabled() {
		t.Error("auth should be disabled by default")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  http_port: 9090
store:
  backend: postgres
database:
  host: db
  user: svc
  password: pw
  database: runs
auth:
  jwt_secret_env: TEST_SCRIPTSYNTH_SECRET
  token_ttl: 2m
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCRIPTSYNTH_STORE_DIR", "/var/lib/scriptsynth")
	t.Setenv("TEST_SCRIPTSYNTH_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port = %d, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.Dir != "/var/lib/scriptsynth" {
		t.Errorf("dir = %q, want env override", cfg.Store.Dir)
	}
	if got := cfg.Database.DSN(); got != "postgres://svc:pw@db:5432/runs?sslmode=disable" {
		t.Errorf("DSN = %q", got)
	}
	if cfg.Auth.TokenTTL != 2*time.Minute {
		t.Errorf("token_ttl = %s", cfg.Auth.TokenTTL)
	}
	if !cfg.Auth.Enabled() || !cfg.Auth.IsProductionReady() {
		t.Error("auth should be enabled with a production secret")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
