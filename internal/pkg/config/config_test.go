package config

import (
	"strings"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("REGRID_SERVER_PORT", "9090")
	t.Setenv("REGRID_RESAMPLE_WORKERS", "3")
	t.Setenv("REGRID_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: expected 9090, got %d", cfg.Server.Port)
	}
	if cfg.Resample.Workers != 3 {
		t.Errorf("workers: expected 3, got %d", cfg.Resample.Workers)
	}
	if cfg.Resample.DefaultResolution != 0.25 {
		t.Errorf("default resolution: expected 0.25, got %v", cfg.Resample.DefaultResolution)
	}
	if cfg.Log.Level != "info" || cfg.Catalog.Path != "" {
		t.Errorf("defaults: got log.level=%q catalog.path=%q", cfg.Log.Level, cfg.Catalog.Path)
	}
	origins := cfg.Server.AllowedOrigins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("origins: got %v", origins)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:   ServerConfig{Port: 8080},
		Log:      LogConfig{Level: "debug", Format: "json"},
		Resample: ResampleConfig{Workers: 1, MaxTargetCells: 10, DefaultResolution: 1},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := valid
	bad.Server.Port = 0
	bad.Log.Format = "xml"
	bad.Resample.DefaultResolution = 0
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "log.format", "resample.default_resolution"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestAllowedOrigins_Empty(t *testing.T) {
	if got := (ServerConfig{}).AllowedOrigins(); len(got) != 0 {
		t.Errorf("expected no origins, got %v", got)
	}
}
