package command

import (
	"fmt"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// huaweiBuilder generates MA5600T-style CLI for Huawei OLTs. Templates
// always start from user view (enable + config) and end with a save so a
// reconnecting session never depends on leftover mode state.
type huaweiBuilder struct{}

func (huaweiBuilder) Vendor() device.Vendor { return device.VendorHuaweiOLT }

func (huaweiBuilder) Actions() []string {
	return []string{"authorize_onu", "deauthorize_onu", "onu_status", "reboot_olt", "reboot_onu"}
}

func (b huaweiBuilder) Build(action string, p Payload) (*Set, error) {
	switch action {
	case "authorize_onu":
		return b.authorizeONU(p)
	case "deauthorize_onu":
		return b.deauthorizeONU(p)
	case "reboot_onu":
		return b.rebootONU(p)
	case "onu_status":
		return b.onuStatus(p)
	case "reboot_olt":
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryMaintenance,
			Commands: []string{"enable", "reboot"},
		}, nil
	}
	return nil, util.NewGenerationError(string(b.Vendor()), action, "unknown action")
}

// ponCoords extracts and formats the frame/slot/pon interface address.
func ponCoords(vendor, action string, p Payload) (frame, slot, pon int, err error) {
	if frame, err = p.Int("frame"); err != nil {
		return 0, 0, 0, util.NewGenerationError(vendor, action, err.Error())
	}
	if slot, err = p.Int("slot"); err != nil {
		return 0, 0, 0, util.NewGenerationError(vendor, action, err.Error())
	}
	if pon, err = p.Int("pon"); err != nil {
		return 0, 0, 0, util.NewGenerationError(vendor, action, err.Error())
	}
	return frame, slot, pon, nil
}

func (b huaweiBuilder) authorizeONU(p Payload) (*Set, error) {
	const action = "authorize_onu"
	vendor := string(b.Vendor())

	frame, slot, pon, err := ponCoords(vendor, action, p)
	if err != nil {
		return nil, err
	}
	onu, err := p.Int("onu")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}
	serial, err := p.String("serial")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}
	vlan, err := p.Int("vlan")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}
	lineProfile := p.StringOr("line_profile", "ftth-default")
	srvProfile := p.StringOr("srv_profile", "ftth-default")

	iface := fmt.Sprintf("%d/%d/%d", frame, slot, pon)

	return &Set{
		Vendor:   b.Vendor(),
		Action:   action,
		Category: CategoryProvisioning,
		Commands: []string{
			"enable",
			"config",
			fmt.Sprintf("interface gpon %s", iface),
			fmt.Sprintf("ont add %d sn-auth %s omci ont-lineprofile-name %s ont-srvprofile-name %s",
				onu, serial, lineProfile, srvProfile),
			fmt.Sprintf("ont port native-vlan %d eth 1 vlan %d", onu, vlan),
			"quit",
			fmt.Sprintf("service-port vlan %d gpon %s ont %d gemport 1 multi-service user-vlan %d",
				vlan, iface, onu, vlan),
			"save",
		},
		Rollback: []string{
			"enable",
			"config",
			fmt.Sprintf("undo service-port vlan %d gpon %s ont %d", vlan, iface, onu),
			fmt.Sprintf("interface gpon %s", iface),
			fmt.Sprintf("ont delete %d", onu),
			"quit",
			"save",
		},
	}, nil
}

func (b huaweiBuilder) deauthorizeONU(p Payload) (*Set, error) {
	const action = "deauthorize_onu"
	vendor := string(b.Vendor())

	frame, slot, pon, err := ponCoords(vendor, action, p)
	if err != nil {
		return nil, err
	}
	onu, err := p.Int("onu")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}

	iface := fmt.Sprintf("%d/%d/%d", frame, slot, pon)

	set := &Set{
		Vendor:   b.Vendor(),
		Action:   action,
		Category: CategoryProvisioning,
		Commands: []string{
			"enable",
			"config",
			fmt.Sprintf("interface gpon %s", iface),
			fmt.Sprintf("ont delete %d", onu),
			"quit",
			"save",
		},
	}

	// Deauthorization is reversible only when the caller supplies the
	// full re-authorization parameters.
	if serial, err := p.String("serial"); err == nil {
		if vlan, err := p.Int("vlan"); err == nil {
			set.Rollback = []string{
				"enable",
				"config",
				fmt.Sprintf("interface gpon %s", iface),
				fmt.Sprintf("ont add %d sn-auth %s omci ont-lineprofile-name %s ont-srvprofile-name %s",
					onu, serial, p.StringOr("line_profile", "ftth-default"), p.StringOr("srv_profile", "ftth-default")),
				"quit",
				fmt.Sprintf("service-port vlan %d gpon %s ont %d gemport 1 multi-service user-vlan %d",
					vlan, iface, onu, vlan),
				"save",
			}
		}
	}

	return set, nil
}

func (b huaweiBuilder) rebootONU(p Payload) (*Set, error) {
	const action = "reboot_onu"
	vendor := string(b.Vendor())

	frame, slot, pon, err := ponCoords(vendor, action, p)
	if err != nil {
		return nil, err
	}
	onu, err := p.Int("onu")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}

	return &Set{
		Vendor:   b.Vendor(),
		Action:   action,
		Category: CategoryMaintenance,
		Commands: []string{
			"enable",
			"config",
			fmt.Sprintf("interface gpon %d/%d/%d", frame, slot, pon),
			fmt.Sprintf("ont reboot %d", onu),
			"quit",
		},
	}, nil
}

func (b huaweiBuilder) onuStatus(p Payload) (*Set, error) {
	const action = "onu_status"
	vendor := string(b.Vendor())

	frame, slot, pon, err := ponCoords(vendor, action, p)
	if err != nil {
		return nil, err
	}
	onu, err := p.Int("onu")
	if err != nil {
		return nil, util.NewGenerationError(vendor, action, err.Error())
	}

	return &Set{
		Vendor:   b.Vendor(),
		Action:   action,
		Category: CategoryQuery,
		Commands: []string{
			"enable",
			fmt.Sprintf("display ont info %d %d %d %d", frame, slot, pon, onu),
			fmt.Sprintf("display ont optical-info %d/%d/%d %d", frame, slot, pon, onu),
		},
	}, nil
}
