package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Port)
	}
	if cfg.DBPath != "ownervote.db" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("expected 30s sweep, got %v", cfg.SweepInterval)
	}
	if cfg.RejectDuplicateBallots {
		t.Error("expected duplicate ballots to be allowed by default")
	}
	if cfg.Addr() != ":8081" {
		t.Errorf("unexpected addr %q", cfg.Addr())
	}
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvSweepInterval, "5s")
	t.Setenv(EnvRejectDuplicateBallots, "true")
	t.Setenv(EnvRegistryURL, "http://registry.local")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvAdminToken, "s3cret")

	cfg, err := Parse(nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected port from env, got %d", cfg.Port)
	}
	if cfg.SweepInterval != 5*time.Second {
		t.Errorf("expected 5s sweep, got %v", cfg.SweepInterval)
	}
	if !cfg.RejectDuplicateBallots {
		t.Error("expected reject duplicates from env")
	}
	if cfg.RegistryURL != "http://registry.local" {
		t.Errorf("unexpected registry url %q", cfg.RegistryURL)
	}
	if cfg.AdminToken != "s3cret" {
		t.Errorf("unexpected admin token %q", cfg.AdminToken)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("unexpected log format %q", cfg.LogFormat)
	}
}

func TestParse_FlagsBeatEnvironment(t *testing.T) {
	t.Setenv(EnvPort, "9090")

	cfg, err := Parse([]string{"-port", "7070", "-db", "/tmp/x.db"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("expected flag to win, got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Errorf("unexpected db path %q", cfg.DBPath)
	}
}

func TestParse_MalformedEnvFallsBack(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")
	t.Setenv(EnvSweepInterval, "soon")

	cfg, err := Parse(nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8081 || cfg.SweepInterval != 30*time.Second {
		t.Errorf("expected defaults, got port=%d sweep=%v", cfg.Port, cfg.SweepInterval)
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"port too high", []string{"-port", "70000"}, ErrInvalidPort},
		{"zero sweep", []string{"-sweep", "0s"}, ErrInvalidSweepInterval},
		{"empty db", []string{"-db", ""}, ErrMissingDBPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, io.Discard)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	if _, err := Parse([]string{"-adminpw", "x"}, io.Discard); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvDBPath+"=from-dotenv.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv(EnvDBPath)
	})

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "from-dotenv.db" {
		t.Errorf("expected db path from .env, got %q", cfg.DBPath)
	}
}
