package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetInventoryPath(); got != "/etc/fibron/inventory.yaml" {
		t.Errorf("GetInventoryPath() default = %q", got)
	}
	if got := s.GetAuditLogPath(); got != "/var/log/fibron/audit.jsonl" {
		t.Errorf("GetAuditLogPath() default = %q", got)
	}
	if got := s.GetRedisAddr(); got != "127.0.0.1:6379" {
		t.Errorf("GetRedisAddr() default = %q", got)
	}
}

func TestSettings_ActorFallback(t *testing.T) {
	s := &Settings{DefaultActor: "noc-team"}
	if got := s.GetActor(); got != "noc-team" {
		t.Errorf("GetActor() = %q", got)
	}

	s.Clear()
	t.Setenv("USER", "jdoe")
	if got := s.GetActor(); got != "jdoe" {
		t.Errorf("GetActor() with USER set = %q", got)
	}

	t.Setenv("USER", "")
	if got := s.GetActor(); got != "unknown" {
		t.Errorf("GetActor() with no USER = %q", got)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	original := &Settings{
		DefaultActor:  "noc",
		InventoryPath: "/srv/fibron/inventory.yaml",
		AuditLogPath:  "/srv/fibron/audit.jsonl",
		RedisAddr:     "10.1.1.5:6379",
	}

	if err := original.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("loaded settings = %+v, want %+v", loaded, original)
	}
}

func TestSettings_LoadNonExistent(t *testing.T) {
	s, err := LoadFrom("/nonexistent/path/settings.json")
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s == nil || s.DefaultActor != "" {
		t.Error("LoadFrom() non-existent should return empty settings")
	}
}

func TestSettings_LoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("invalid json {"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() with invalid JSON should error")
	}
}

func TestSettings_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "nested", "settings.json")

	s := &Settings{DefaultActor: "noc"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() should create directories: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("SaveTo() should have created the file")
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{DefaultActor: "noc", RedisAddr: "x:1"}
	s.Clear()
	if *s != (Settings{}) {
		t.Error("Clear() should reset all fields")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	path := DefaultSettingsPath()
	if path == "" {
		t.Error("DefaultSettingsPath() should not be empty")
	}
	if !filepath.IsAbs(path) && path != "fibron_settings.json" {
		t.Errorf("DefaultSettingsPath() should be absolute or fallback, got %q", path)
	}
}
