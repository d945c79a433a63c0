package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Storage.Driver != StorageDriverSQLite {
		t.Fatalf("expected sqlite default driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Cart.Namespace != "ob" {
		t.Fatalf("unexpected cart namespace %q", cfg.Cart.Namespace)
	}
	if cfg.Tracking.TickInterval != 750*time.Millisecond {
		t.Fatalf("expected 750ms tick interval, got %v", cfg.Tracking.TickInterval)
	}
	if cfg.Remote.Configured() {
		t.Fatal("remote should be unconfigured by default (demo mode)")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RedisDriverRequiresURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "redis")

	if _, err := Load(); err == nil {
		t.Fatal("expected redis driver without url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverRedis {
		t.Fatalf("unexpected driver %q", cfg.Storage.Driver)
	}
}

func TestLoad_UnknownDriverRejected(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "dynamo")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown storage driver to fail")
	}
}

func TestRemoteConfigured(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRemoteAPIBase, "https://api.oceanbites.dev")
	t.Setenv(EnvRemoteStream, "wss://stream.oceanbites.dev/orders")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Remote.Configured() || !cfg.Remote.StreamConfigured() {
		t.Fatalf("expected remote endpoints to be configured: %+v", cfg.Remote)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8080")
	os.Unsetenv(EnvStorageDriver)
	os.Unsetenv(EnvRedisURL)
	os.Unsetenv(EnvRemoteAPIBase)
	os.Unsetenv(EnvRemoteStream)
}
