package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "WORKER_COUNT", "JOB_TTL", "RENDER_TIMEOUT", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.DBDriver)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %s", cfg.JobTTL)
	}
	if !cfg.AutoMigrate {
		t.Error("expected auto-migrate on by default")
	}
}

func TestLoad_OverridesAndClamps(t *testing.T) {
	t.Setenv("DB_DRIVER", "REST")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("RENDER_TIMEOUT", "5s")
	t.Setenv("MAX_BODY_BYTES", "not-a-number")
	cfg := Load()
	if cfg.DBDriver != DriverREST {
		t.Errorf("expected rest driver, got %q", cfg.DBDriver)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.RenderTimeout != 5*time.Second {
		t.Errorf("expected 5s render timeout, got %s", cfg.RenderTimeout)
	}
	if cfg.MaxBodyBytes != 10485760 {
		t.Errorf("expected default body limit, got %d", cfg.MaxBodyBytes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{APIKey: "k", DBDriver: DriverSQLite, DatabaseURL: "file:x.db"}, false},
		{"missing api key", Config{DBDriver: DriverSQLite, DatabaseURL: "file:x.db"}, true},
		{"rest without url", Config{APIKey: "k", DBDriver: DriverREST, RESTAPIKey: "r"}, true},
		{"rest ok", Config{APIKey: "k", DBDriver: DriverREST, RESTURL: "http://x", RESTAPIKey: "r"}, false},
		{"unknown driver", Config{APIKey: "k", DBDriver: "mysql", DatabaseURL: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("COMPANY_NAME=Acme Advisors\nPORT=9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COMPANY_NAME", "")
	os.Unsetenv("COMPANY_NAME")
	t.Setenv("PORT", "7000")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	cfg := Load()
	if cfg.CompanyName != "Acme Advisors" {
		t.Errorf("expected company from .env, got %q", cfg.CompanyName)
	}
	if cfg.Port != "7000" {
		t.Errorf("expected existing PORT to win, got %q", cfg.Port)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
