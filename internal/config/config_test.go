package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is empty")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/curex40")
	setEnv(t, "ENV", "test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.JWTTTLHours != 24 {
		t.Errorf("expected default token TTL 24h, got %d", cfg.JWTTTLHours)
	}
}

func TestValidate_JWTSecretRequiredOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", JWTTTLHours: 24}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}
}

func TestValidate_JWTSecretTooShort(t *testing.T) {
	cfg := &Config{Env: "production", JWTSecret: "short", JWTTTLHours: 24}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short JWT_SECRET")
	}
}

func TestValidate_DevModeWithoutSecret(t *testing.T) {
	cfg := &Config{Env: "development", JWTTTLHours: 24}
	if err := cfg.Validate(); err != nil {
		t.Errorf("dev mode should not require JWT_SECRET: %v", err)
	}
}

func TestValidate_TaxRateBounds(t *testing.T) {
	cfg := &Config{Env: "development", JWTTTLHours: 24, TaxRate: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for tax rate >= 1")
	}
	cfg.TaxRate = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative tax rate")
	}
}
