// Package device defines the managed-equipment model: identity, vendor
// tagging, transport addressing and credential resolution.
package device

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Vendor identifies a supported equipment family. The set is closed:
// adding a vendor means adding a command builder variant, not editing a
// dispatch table.
type Vendor string

const (
	VendorHuaweiOLT Vendor = "huawei-olt"
	VendorZTEOLT    Vendor = "zte-olt"
	VendorVSOLOLT   Vendor = "vsol-olt"
	VendorRouterOS  Vendor = "routeros"
)

// Vendors lists every supported vendor tag.
func Vendors() []Vendor {
	return []Vendor{VendorHuaweiOLT, VendorZTEOLT, VendorVSOLOLT, VendorRouterOS}
}

// ParseVendor validates a vendor tag string.
func ParseVendor(s string) (Vendor, error) {
	v := Vendor(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Vendors() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vendor %q", s)
}

// Transport identifies how commands reach the device.
type Transport string

const (
	TransportAPI    Transport = "api" // binary request/response API
	TransportSSH    Transport = "ssh"
	TransportTelnet Transport = "telnet"
)

// ParseTransport validates a transport kind string.
func ParseTransport(s string) (Transport, error) {
	t := Transport(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TransportAPI, TransportSSH, TransportTelnet:
		return t, nil
	}
	return "", fmt.Errorf("unknown transport %q", s)
}

// Credentials are resolved at connect time and never logged.
type Credentials struct {
	Username string
	Password string
}

// Device is one managed piece of network equipment. Fields are set from
// the inventory at load time; LastSeen is the only field mutated during
// normal operation.
type Device struct {
	Name      string
	Vendor    Vendor
	Address   string
	Port      int
	Transport Transport
	Enabled   bool

	// CredentialRef names the credential source: "env:VAR" resolves
	// user:pass from the environment variable, "inline" uses the
	// inventory's user/pass fields (lab use only).
	CredentialRef string

	inlineCreds Credentials

	mu       sync.Mutex
	lastSeen time.Time
}

// New creates a device with inline credentials. Inventory loading is the
// usual path; this constructor serves tests and programmatic use.
func New(name string, vendor Vendor, address string, port int, transport Transport, creds Credentials) *Device {
	return &Device{
		Name:          name,
		Vendor:        vendor,
		Address:       address,
		Port:          port,
		Transport:     transport,
		Enabled:       true,
		CredentialRef: "inline",
		inlineCreds:   creds,
	}
}

// Addr returns the host:port dial target.
func (d *Device) Addr() string {
	return fmt.Sprintf("%s:%d", d.Address, d.Port)
}

// ResolveCredentials resolves the device's credential reference. The
// "env:VAR" form expects the variable to hold "user:password".
func (d *Device) ResolveCredentials() (Credentials, error) {
	ref := d.CredentialRef
	switch {
	case ref == "" || ref == "inline":
		return d.inlineCreds, nil
	case strings.HasPrefix(ref, "env:"):
		raw := os.Getenv(strings.TrimPrefix(ref, "env:"))
		if raw == "" {
			return Credentials{}, fmt.Errorf("credential ref %s: environment variable empty", ref)
		}
		user, pass, ok := strings.Cut(raw, ":")
		if !ok {
			return Credentials{}, fmt.Errorf("credential ref %s: expected user:password", ref)
		}
		return Credentials{Username: user, Password: pass}, nil
	}
	return Credentials{}, fmt.Errorf("unsupported credential ref %q", ref)
}

// SetInlineCredentials stores credentials for the "inline" ref, used when
// an operator supplies a password interactively.
func (d *Device) SetInlineCredentials(c Credentials) {
	d.inlineCreds = c
	d.CredentialRef = "inline"
}

// TouchLastSeen records a successful connection handshake.
func (d *Device) TouchLastSeen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSeen = time.Now()
}

// LastSeen returns the time of the last successful handshake, zero if the
// device has never been reached.
func (d *Device) LastSeen() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen
}

// IsOLT reports whether the device is an optical-line terminal.
func (d *Device) IsOLT() bool {
	switch d.Vendor {
	case VendorHuaweiOLT, VendorZTEOLT, VendorVSOLOLT:
		return true
	}
	return false
}
