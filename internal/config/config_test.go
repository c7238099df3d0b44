package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.ExhaustiveRoomLimit != 20 {
		t.Errorf("expected room limit 20, got %d", cfg.Engine.ExhaustiveRoomLimit)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Engine.Workers)
	}
}

func TestSaveThenLoadKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tripcost.json")

	cfg := Default()
	cfg.Engine.Workers = 9
	cfg.Storage.Backend = "memory"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Engine.Workers != 9 {
		t.Errorf("expected 9 workers, got %d", loaded.Engine.Workers)
	}
	if loaded.Storage.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", loaded.Storage.Backend)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRIPCOST_WORKERS", "2")
	t.Setenv("TRIPCOST_REDIS_ADDR", "cache:6379")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Engine.Workers)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("expected redis cache on cache:6379, got %+v", cfg.Cache)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
