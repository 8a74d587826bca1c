package lock

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fibron-net/fibron/pkg/command"
)

func TestKeyDeterminism(t *testing.T) {
	a := Key("olt-ny-01", "authorize_onu", command.Payload{"onu": 5, "vlan": 120})
	b := Key("olt-ny-01", "authorize_onu", command.Payload{"vlan": 120, "onu": 5})
	if a != b {
		t.Errorf("identical intent must yield identical keys:\n%s\n%s", a, b)
	}
	if !strings.HasPrefix(a, keyPrefix) {
		t.Errorf("key missing namespace prefix: %s", a)
	}

	c := Key("olt-ny-02", "authorize_onu", command.Payload{"onu": 5, "vlan": 120})
	if a == c {
		t.Error("differing device must yield a different key")
	}
	d := Key("olt-ny-01", "authorize_onu", command.Payload{"onu": 5, "vlan": 121})
	if a == d {
		t.Error("differing payload must yield a different key")
	}
}

func TestKeyNormalizesNumericForms(t *testing.T) {
	// Payloads arriving via JSON decode to float64.
	a := Key("d", "op", command.Payload{"vlan": 120})
	b := Key("d", "op", command.Payload{"vlan": 120.0})
	if a != b {
		t.Error("int and float64 payload forms must collide on the same key")
	}
}

func TestTryAcquireFailsOpenWhenBackendDown(t *testing.T) {
	// Nothing listens on this port; every command errors immediately.
	m := NewManager("127.0.0.1:1", time.Minute)
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := m.TryAcquire(ctx, Key("d", "op", command.Payload{}), "op")
	if err != nil {
		t.Fatalf("backend failure must fail open, got %v", err)
	}
	if !h.Unprotected {
		t.Error("handle must be flagged Unprotected")
	}

	if err := m.Release(ctx, h); err != nil {
		t.Errorf("releasing an unprotected handle must be a no-op: %v", err)
	}
}

func TestReleaseNilHandle(t *testing.T) {
	m := NewManager("127.0.0.1:1", time.Minute)
	defer m.Close()

	if err := m.Release(context.Background(), nil); err != nil {
		t.Errorf("nil handle release: %v", err)
	}
}
