package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port    int    `env:"TEST_PORT" envDefault:"123"`
	DevMode bool   `env:"TEST_DEV_MODE"`
	Secret  string `env:"TEST_SECRET"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("port = %d, want 123", cfg.Port)
	}
}

func TestParseEnvUsesPrefix(t *testing.T) {
	t.Setenv("MARKETPLACE_TEST_SECRET", "s3cret")
	t.Setenv("MARKETPLACE_TEST_DEV_MODE", "true")
	t.Setenv("TEST_SECRET", "ignored")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Secret != "s3cret" {
		t.Fatalf("secret = %q, want %q", cfg.Secret, "s3cret")
	}
	if !cfg.DevMode {
		t.Fatal("expected dev mode from prefixed variable")
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("MARKETPLACE_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
