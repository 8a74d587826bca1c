// Package spec loads and validates the device inventory file.
package spec

// InventoryFile is the top-level structure of inventory.yaml.
type InventoryFile struct {
	Devices []DeviceSpec `yaml:"devices"`
}

// DeviceSpec describes one managed device in the inventory.
type DeviceSpec struct {
	Name      string `yaml:"name"`
	Vendor    string `yaml:"vendor"`
	Address   string `yaml:"address"`
	Port      int    `yaml:"port,omitempty"` // 0 = transport default
	Transport string `yaml:"transport"`
	Enabled   *bool  `yaml:"enabled,omitempty"` // nil = true

	// CredentialRef: "env:VAR" (user:pass from environment) or "inline".
	CredentialRef string `yaml:"credential_ref,omitempty"`

	// Inline credentials — lab use only, never logged.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}
