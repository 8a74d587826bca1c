package device

import (
	"testing"
)

func TestParseVendor(t *testing.T) {
	v, err := ParseVendor("  Huawei-OLT ")
	if err != nil {
		t.Fatalf("ParseVendor: %v", err)
	}
	if v != VendorHuaweiOLT {
		t.Errorf("ParseVendor = %q", v)
	}
	if _, err := ParseVendor("cisco"); err == nil {
		t.Error("expected error for unknown vendor")
	}
}

func TestParseTransport(t *testing.T) {
	for _, s := range []string{"api", "ssh", "telnet"} {
		if _, err := ParseTransport(s); err != nil {
			t.Errorf("ParseTransport(%q): %v", s, err)
		}
	}
	if _, err := ParseTransport("snmp"); err == nil {
		t.Error("expected error for unsupported transport")
	}
}

func TestResolveCredentialsEnv(t *testing.T) {
	t.Setenv("FIBRON_TEST_CRED", "admin:s3cret")

	d := New("olt-ny-01", VendorHuaweiOLT, "10.0.0.1", 23, TransportTelnet, Credentials{})
	d.CredentialRef = "env:FIBRON_TEST_CRED"

	creds, err := d.ResolveCredentials()
	if err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if creds.Username != "admin" || creds.Password != "s3cret" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestResolveCredentialsEnvMissing(t *testing.T) {
	d := New("olt-ny-01", VendorHuaweiOLT, "10.0.0.1", 23, TransportTelnet, Credentials{})
	d.CredentialRef = "env:FIBRON_TEST_CRED_UNSET"
	if _, err := d.ResolveCredentials(); err == nil {
		t.Error("expected error for empty env credential")
	}
}

func TestResolveCredentialsMalformedEnv(t *testing.T) {
	t.Setenv("FIBRON_TEST_CRED_BAD", "no-separator")

	d := New("olt-ny-01", VendorHuaweiOLT, "10.0.0.1", 23, TransportTelnet, Credentials{})
	d.CredentialRef = "env:FIBRON_TEST_CRED_BAD"
	if _, err := d.ResolveCredentials(); err == nil {
		t.Error("expected error for malformed env credential")
	}
}

func TestLastSeen(t *testing.T) {
	d := New("rtr-core", VendorRouterOS, "10.0.0.2", 8728, TransportAPI, Credentials{})
	if !d.LastSeen().IsZero() {
		t.Error("LastSeen should start zero")
	}
	d.TouchLastSeen()
	if d.LastSeen().IsZero() {
		t.Error("LastSeen should be set after TouchLastSeen")
	}
}

func TestIsOLT(t *testing.T) {
	olt := New("olt", VendorZTEOLT, "10.0.0.1", 23, TransportTelnet, Credentials{})
	rtr := New("rtr", VendorRouterOS, "10.0.0.2", 8728, TransportAPI, Credentials{})
	if !olt.IsOLT() || rtr.IsOLT() {
		t.Error("IsOLT misclassified")
	}
}
