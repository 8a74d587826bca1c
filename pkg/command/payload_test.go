package command

import (
	"strings"
	"testing"
)

func TestCanonicalKeyOrderIndependent(t *testing.T) {
	a := Payload{"onu": 5, "frame": 1, "serial": "AB12CD34"}
	b := Payload{"serial": "AB12CD34", "frame": 1, "onu": 5}
	if a.Canonical() != b.Canonical() {
		t.Errorf("canonical forms differ:\n%s\n%s", a.Canonical(), b.Canonical())
	}
}

func TestCanonicalNormalizesNumbers(t *testing.T) {
	a := Payload{"vlan": 120}
	b := Payload{"vlan": 120.0} // JSON decoding form
	if a.Canonical() != b.Canonical() {
		t.Errorf("int and float64 forms differ: %q vs %q", a.Canonical(), b.Canonical())
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	p := Payload{"frame": 1, "slot": 1, "pon": 1, "onu": 5, "serial": "AB12CD34", "vlan": 120}

	k1 := Fingerprint("olt-ny-01", "authorize_onu", p)
	k2 := Fingerprint("olt-ny-01", "authorize_onu", p)
	if k1 != k2 {
		t.Error("identical intent must produce identical keys")
	}

	// One differing payload field produces a different key.
	q := Payload{"frame": 1, "slot": 1, "pon": 1, "onu": 6, "serial": "AB12CD34", "vlan": 120}
	if Fingerprint("olt-ny-01", "authorize_onu", q) == k1 {
		t.Error("differing payload must produce a different key")
	}

	// So do differing device and differing operation.
	if Fingerprint("olt-ny-02", "authorize_onu", p) == k1 {
		t.Error("differing device must produce a different key")
	}
	if Fingerprint("olt-ny-01", "deauthorize_onu", p) == k1 {
		t.Error("differing operation must produce a different key")
	}
}

func TestFingerprintShape(t *testing.T) {
	k := Fingerprint("d", "op", Payload{})
	if len(k) != 64 || strings.ToLower(k) != k {
		t.Errorf("fingerprint should be lowercase hex sha256, got %q", k)
	}
}

func TestIntCoercion(t *testing.T) {
	p := Payload{"a": "42", "b": 7.0, "c": int64(9), "d": "x"}
	if n, err := p.Int("a"); err != nil || n != 42 {
		t.Errorf("Int(a) = %d, %v", n, err)
	}
	if n, err := p.Int("b"); err != nil || n != 7 {
		t.Errorf("Int(b) = %d, %v", n, err)
	}
	if n, err := p.Int("c"); err != nil || n != 9 {
		t.Errorf("Int(c) = %d, %v", n, err)
	}
	if _, err := p.Int("d"); err == nil {
		t.Error("Int(d) should fail")
	}
	if _, err := p.Int("missing"); err == nil {
		t.Error("Int(missing) should fail")
	}
}

func TestStringTrimming(t *testing.T) {
	p := Payload{"s": "  padded  ", "empty": "   "}
	if s, err := p.String("s"); err != nil || s != "padded" {
		t.Errorf("String(s) = %q, %v", s, err)
	}
	if _, err := p.String("empty"); err == nil {
		t.Error("whitespace-only string should fail")
	}
	if got := p.StringOr("missing", "fallback"); got != "fallback" {
		t.Errorf("StringOr = %q", got)
	}
}
