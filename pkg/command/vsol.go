package command

import (
	"fmt"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// vsolBuilder generates V1600G-style CLI for V-SOL OLTs. V-SOL addresses
// PON ports as <slot>/<pon> and provisions the ONU, its T-CONT/GEM
// bindings and the VLAN service-port inside the gpon interface context.
type vsolBuilder struct{}

func (vsolBuilder) Vendor() device.Vendor { return device.VendorVSOLOLT }

func (vsolBuilder) Actions() []string {
	return []string{"authorize_onu", "deauthorize_onu", "onu_status", "reboot_olt", "reboot_onu"}
}

func (b vsolBuilder) Build(action string, p Payload) (*Set, error) {
	vendor := string(b.Vendor())

	// Chassis reboot takes no PON coordinates.
	if action == "reboot_olt" {
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryMaintenance,
			Commands: []string{"enable", "reboot"},
		}, nil
	}

	slot, err := p.Int("slot")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}
	pon, err := p.Int("pon")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}
	onu, err := p.Int("onu")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}
	port := fmt.Sprintf("%d/%d", slot, pon)

	switch action {
	case "authorize_onu":
		serial, err := p.String("serial")
		if err != nil {
			return nil, util.NewGenerationError(vendor, action, err.Error())
		}
		vlan, err := p.Int("vlan")
		if err != nil {
			return nil, util.NewGenerationError(vendor, action, err.Error())
		}
		profile := p.StringOr("line_profile", "Default")

		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface gpon %s", port),
				fmt.Sprintf("onu add %d profile %s sn %s", onu, profile, serial),
				fmt.Sprintf("onu %d tcont 1", onu),
				fmt.Sprintf("onu %d gemport 1 tcont 1", onu),
				fmt.Sprintf("onu %d service-port 1 gemport 1 uservlan %d vlan %d new_cos 0", onu, vlan, vlan),
				fmt.Sprintf("onu %d portvlan eth 1 mode tag vlan %d", onu, vlan),
				"exit",
				"write",
			},
			Rollback: []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface gpon %s", port),
				fmt.Sprintf("no onu %d", onu),
				"exit",
				"write",
			},
		}, nil

	case "deauthorize_onu":
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface gpon %s", port),
				fmt.Sprintf("no onu %d", onu),
				"exit",
				"write",
			},
		}, nil

	case "reboot_onu":
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryMaintenance,
			Commands: []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface gpon %s", port),
				fmt.Sprintf("onu %d reboot", onu),
				"exit",
			},
		}, nil

	case "onu_status":
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryQuery,
			Commands: []string{
				"enable",
				"configure terminal",
				fmt.Sprintf("interface gpon %s", port),
				fmt.Sprintf("show onu %d info", onu),
				fmt.Sprintf("show onu %d optical-transceiver-diagnosis", onu),
				"exit",
			},
		}, nil
	}

	return nil, util.NewGenerationError(vendor, action, "unknown action")
}
