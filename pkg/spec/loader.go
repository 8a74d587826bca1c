package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// InventoryPath is the default inventory location.
var InventoryPath = "/etc/fibron/inventory.yaml"

// Loader reads and validates the device inventory.
type Loader struct {
	path    string
	devices map[string]*device.Device
}

// NewLoader creates a loader for the given inventory path. An empty path
// uses InventoryPath.
func NewLoader(path string) *Loader {
	if path == "" {
		path = InventoryPath
	}
	return &Loader{
		path:    path,
		devices: make(map[string]*device.Device),
	}
}

// Load parses the inventory file and validates every device entry.
func (l *Loader) Load() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("reading inventory %s: %w", l.path, err)
	}
	return l.LoadBytes(data)
}

// LoadBytes parses inventory content. Exposed for tests and embedded use.
func (l *Loader) LoadBytes(data []byte) error {
	var file InventoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing inventory: %w", err)
	}

	if len(file.Devices) == 0 {
		return fmt.Errorf("%w: inventory has no devices", util.ErrInvalidConfig)
	}

	devices := make(map[string]*device.Device, len(file.Devices))
	for i, ds := range file.Devices {
		d, err := buildDevice(ds)
		if err != nil {
			return fmt.Errorf("%w: device %d (%s): %v", util.ErrInvalidConfig, i, ds.Name, err)
		}
		if _, dup := devices[d.Name]; dup {
			return fmt.Errorf("%w: duplicate device name %q", util.ErrInvalidConfig, d.Name)
		}
		devices[d.Name] = d
	}

	l.devices = devices
	return nil
}

func buildDevice(ds DeviceSpec) (*device.Device, error) {
	if ds.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if ds.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	vendor, err := device.ParseVendor(ds.Vendor)
	if err != nil {
		return nil, err
	}
	transport, err := device.ParseTransport(ds.Transport)
	if err != nil {
		return nil, err
	}
	if err := validateTransport(vendor, transport); err != nil {
		return nil, err
	}

	port := ds.Port
	if port == 0 {
		port = defaultPort(transport)
	}

	d := device.New(ds.Name, vendor, ds.Address, port, transport, device.Credentials{
		Username: ds.Username,
		Password: ds.Password,
	})
	if ds.CredentialRef != "" {
		d.CredentialRef = ds.CredentialRef
	}
	if ds.Enabled != nil {
		d.Enabled = *ds.Enabled
	}
	return d, nil
}

// validateTransport rejects vendor/transport pairings the engine cannot
// drive: the binary API is RouterOS-only, and RouterOS is API-only.
func validateTransport(v device.Vendor, t device.Transport) error {
	if v == device.VendorRouterOS && t != device.TransportAPI {
		return fmt.Errorf("vendor %s requires transport api", v)
	}
	if v != device.VendorRouterOS && t == device.TransportAPI {
		return fmt.Errorf("vendor %s does not support transport api", v)
	}
	return nil
}

func defaultPort(t device.Transport) int {
	switch t {
	case device.TransportAPI:
		return 8728
	case device.TransportSSH:
		return 22
	case device.TransportTelnet:
		return 23
	}
	return 0
}

// Device returns a device by name.
func (l *Loader) Device(name string) (*device.Device, error) {
	d, ok := l.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: device %q not in inventory", util.ErrNotFound, name)
	}
	return d, nil
}

// Devices returns all loaded devices keyed by name.
func (l *Loader) Devices() map[string]*device.Device {
	return l.devices
}
