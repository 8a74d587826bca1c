// Package settings manages persistent user settings for the fibron CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Settings holds persistent user preferences
type Settings struct {
	// DefaultActor is the actor recorded when --actor is not specified
	DefaultActor string `json:"default_actor,omitempty"`

	// InventoryPath overrides the default inventory location
	InventoryPath string `json:"inventory_path,omitempty"`

	// AuditLogPath overrides the default audit log location
	AuditLogPath string `json:"audit_log_path,omitempty"`

	// RedisAddr is the lock backend address
	RedisAddr string `json:"redis_addr,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "fibron_settings.json"
	}
	return filepath.Join(home, ".fibron", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetActor returns the default actor (with fallback to the OS user)
func (s *Settings) GetActor() string {
	if s.DefaultActor != "" {
		return s.DefaultActor
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// GetInventoryPath returns the inventory path (with fallback)
func (s *Settings) GetInventoryPath() string {
	if s.InventoryPath != "" {
		return s.InventoryPath
	}
	return "/etc/fibron/inventory.yaml"
}

// GetAuditLogPath returns the audit log path (with fallback)
func (s *Settings) GetAuditLogPath() string {
	if s.AuditLogPath != "" {
		return s.AuditLogPath
	}
	return "/var/log/fibron/audit.jsonl"
}

// GetRedisAddr returns the lock backend address (with fallback)
func (s *Settings) GetRedisAddr() string {
	if s.RedisAddr != "" {
		return s.RedisAddr
	}
	return "127.0.0.1:6379"
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
