package command

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

func authorizePayload() Payload {
	return Payload{
		"frame":  1,
		"slot":   1,
		"pon":    1,
		"onu":    5,
		"serial": "AB12CD34",
		"vlan":   120,
	}
}

func TestHuaweiAuthorizeONUGolden(t *testing.T) {
	b, err := ForVendor(device.VendorHuaweiOLT)
	if err != nil {
		t.Fatal(err)
	}

	set, err := b.Build("authorize_onu", authorizePayload())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{
		"enable",
		"config",
		"interface gpon 1/1/1",
		"ont add 5 sn-auth AB12CD34 omci ont-lineprofile-name ftth-default ont-srvprofile-name ftth-default",
		"ont port native-vlan 5 eth 1 vlan 120",
		"quit",
		"service-port vlan 120 gpon 1/1/1 ont 5 gemport 1 multi-service user-vlan 120",
		"save",
	}
	if !reflect.DeepEqual(set.Commands, want) {
		t.Errorf("commands:\n got %q\nwant %q", set.Commands, want)
	}

	if !set.Reversible() {
		t.Fatal("authorize_onu must be reversible")
	}
	joined := strings.Join(set.Rollback, "\n")
	for _, frag := range []string{"undo service-port", "ont delete 5", "save"} {
		if !strings.Contains(joined, frag) {
			t.Errorf("rollback missing %q:\n%s", frag, joined)
		}
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	b, _ := ForVendor(device.VendorHuaweiOLT)

	first, err := b.Build("authorize_onu", authorizePayload())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Build("authorize_onu", authorizePayload())
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(again.Commands, first.Commands) {
			t.Fatal("regeneration with identical payload must be byte-identical")
		}
		if !reflect.DeepEqual(again.Rollback, first.Rollback) {
			t.Fatal("rollback regeneration must be byte-identical")
		}
	}
}

func TestNumericCoercionMatchesJSONPayloads(t *testing.T) {
	// Payloads decoded from JSON carry float64; native callers pass int.
	// Both must produce identical commands.
	b, _ := ForVendor(device.VendorVSOLOLT)

	asInts := Payload{"slot": 2, "pon": 8, "onu": 17, "serial": "VSOL0042", "vlan": 300}
	asJSON := Payload{"slot": 2.0, "pon": 8.0, "onu": 17.0, "serial": " VSOL0042 ", "vlan": 300.0}

	s1, err := b.Build("authorize_onu", asInts)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := b.Build("authorize_onu", asJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s1.Commands, s2.Commands) {
		t.Errorf("coercion mismatch:\n int: %q\njson: %q", s1.Commands, s2.Commands)
	}
}

func TestUnknownActionFailsGeneration(t *testing.T) {
	for _, v := range device.Vendors() {
		b, err := ForVendor(v)
		if err != nil {
			t.Fatalf("ForVendor(%s): %v", v, err)
		}
		if _, err := b.Build("format_disk", Payload{}); !errors.Is(err, util.ErrGeneration) {
			t.Errorf("%s: want ErrGeneration for unknown action, got %v", v, err)
		}
	}
}

func TestUnknownVendor(t *testing.T) {
	if _, err := ForVendor(device.Vendor("cisco")); !errors.Is(err, util.ErrGeneration) {
		t.Errorf("want ErrGeneration, got %v", err)
	}
}

func TestMissingRequiredFieldFailsGeneration(t *testing.T) {
	b, _ := ForVendor(device.VendorHuaweiOLT)

	p := authorizePayload()
	delete(p, "serial")
	if _, err := b.Build("authorize_onu", p); !errors.Is(err, util.ErrGeneration) {
		t.Errorf("want ErrGeneration for missing serial, got %v", err)
	}

	p = authorizePayload()
	delete(p, "pon")
	if _, err := b.Build("authorize_onu", p); !errors.Is(err, util.ErrGeneration) {
		t.Errorf("want ErrGeneration for missing pon, got %v", err)
	}
}

func TestUnrecognizedKeysIgnored(t *testing.T) {
	b, _ := ForVendor(device.VendorHuaweiOLT)

	p := authorizePayload()
	p["comment"] = "ticket-4912"
	p["speed_tier"] = 100

	set, err := b.Build("authorize_onu", p)
	if err != nil {
		t.Fatalf("Build with extra keys: %v", err)
	}
	for _, cmd := range set.Commands {
		if strings.Contains(cmd, "ticket-4912") {
			t.Errorf("unrecognized key leaked into command %q", cmd)
		}
	}
}

func TestZTEAuthorizeReferencesCoordinates(t *testing.T) {
	b, _ := ForVendor(device.VendorZTEOLT)
	set, err := b.Build("authorize_onu", authorizePayload())
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(set.Commands, "\n")
	for _, frag := range []string{"gpon-olt_1/1/1", "sn AB12CD34", "vlan 120", "write"} {
		if !strings.Contains(joined, frag) {
			t.Errorf("ZTE commands missing %q:\n%s", frag, joined)
		}
	}
}

func TestRouterOSDisableUser(t *testing.T) {
	b, _ := ForVendor(device.VendorRouterOS)
	set, err := b.Build("disable_pppoe_user", Payload{"user": "sub-1042"})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Commands) != 2 {
		t.Fatalf("commands = %q", set.Commands)
	}
	if set.Commands[0] != "/ppp/secret/set =disabled=yes =numbers=sub-1042" {
		t.Errorf("command = %q", set.Commands[0])
	}
	if !set.Reversible() {
		t.Error("disable_pppoe_user must be reversible")
	}
	if set.Rollback[0] != "/ppp/secret/set =disabled=no =numbers=sub-1042" {
		t.Errorf("rollback = %q", set.Rollback[0])
	}
}

func TestRebootOLTAcrossVendors(t *testing.T) {
	// Chassis reboot is a maintenance action on every OLT vendor and
	// needs no PON coordinates.
	for _, v := range []device.Vendor{device.VendorHuaweiOLT, device.VendorZTEOLT, device.VendorVSOLOLT} {
		b, err := ForVendor(v)
		if err != nil {
			t.Fatalf("ForVendor(%s): %v", v, err)
		}

		found := false
		for _, a := range b.Actions() {
			if a == "reboot_olt" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: reboot_olt missing from Actions()", v)
		}

		set, err := b.Build("reboot_olt", Payload{})
		if err != nil {
			t.Errorf("%s: Build(reboot_olt): %v", v, err)
			continue
		}
		if set.Category != CategoryMaintenance {
			t.Errorf("%s: category = %s, want maintenance", v, set.Category)
		}
		if set.Reversible() {
			t.Errorf("%s: reboot_olt must be irreversible", v)
		}
		if len(set.Commands) == 0 {
			t.Errorf("%s: reboot_olt produced no commands", v)
		}
	}
}

func TestReadOnlyAndIrreversibleClassification(t *testing.T) {
	huawei, _ := ForVendor(device.VendorHuaweiOLT)

	status, err := huawei.Build("onu_status", authorizePayload())
	if err != nil {
		t.Fatal(err)
	}
	if !status.ReadOnly() || status.Reversible() {
		t.Error("onu_status must be read-only and irreversible")
	}

	reboot, err := huawei.Build("reboot_onu", authorizePayload())
	if err != nil {
		t.Fatal(err)
	}
	if reboot.ReadOnly() || reboot.Reversible() {
		t.Error("reboot_onu must be a mutating, irreversible maintenance action")
	}
}
