package command

import (
	"fmt"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// zteBuilder generates C3xx-style CLI for ZTE OLTs. ZTE addresses the
// OLT-side PON port as gpon-olt_<frame>/<slot>/<pon> and the subscriber
// side as gpon-onu_<frame>/<slot>/<pon>:<onu>.
type zteBuilder struct{}

func (zteBuilder) Vendor() device.Vendor { return device.VendorZTEOLT }

func (zteBuilder) Actions() []string {
	return []string{"authorize_onu", "deauthorize_onu", "onu_status", "reboot_olt", "reboot_onu"}
}

func (b zteBuilder) Build(action string, p Payload) (*Set, error) {
	vendor := string(b.Vendor())

	needsCoords := func() (iface string, onu int, err error) {
		frame, slot, pon, err := ponCoords(vendor, action, p)
		if err != nil {
			return "", 0, err
		}
		onu, err = p.Int("onu")
		if err != nil {
			return "", 0, util.NewGenerationError(vendor, action, err.Error())
		}
		return fmt.Sprintf("%d/%d/%d", frame, slot, pon), onu, nil
	}

	switch action {
	case "authorize_onu":
		iface, onu, err := needsCoords()
		if err != nil {
			return nil, err
		}
		serial, err := p.String("serial")
		if err != nil {
			return nil, util.NewGenerationError(vendor, action, err.Error())
		}
		vlan, err := p.Int("vlan")
		if err != nil {
			return nil, util.NewGenerationError(vendor, action, err.Error())
		}
		profile := p.StringOr("line_profile", "ZTE-GPON")

		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				"configure terminal",
				fmt.Sprintf("interface gpon-olt_%s", iface),
				fmt.Sprintf("onu %d type %s sn %s", onu, profile, serial),
				"exit",
				fmt.Sprintf("interface gpon-onu_%s:%d", iface, onu),
				fmt.Sprintf("service-port 1 vport 1 user-vlan %d vlan %d", vlan, vlan),
				"exit",
				"exit",
				"write",
			},
			Rollback: []string{
				"configure terminal",
				fmt.Sprintf("interface gpon-olt_%s", iface),
				fmt.Sprintf("no onu %d", onu),
				"exit",
				"exit",
				"write",
			},
		}, nil

	case "deauthorize_onu":
		iface, onu, err := needsCoords()
		if err != nil {
			return nil, err
		}
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				"configure terminal",
				fmt.Sprintf("interface gpon-olt_%s", iface),
				fmt.Sprintf("no onu %d", onu),
				"exit",
				"exit",
				"write",
			},
		}, nil

	case "reboot_onu":
		iface, onu, err := needsCoords()
		if err != nil {
			return nil, err
		}
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryMaintenance,
			Commands: []string{
				fmt.Sprintf("pon-onu-mng gpon-onu_%s:%d", iface, onu),
				"reboot",
				"exit",
			},
		}, nil

	case "reboot_olt":
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryMaintenance,
			Commands: []string{"reload"},
		}, nil

	case "onu_status":
		iface, onu, err := needsCoords()
		if err != nil {
			return nil, err
		}
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryQuery,
			Commands: []string{
				fmt.Sprintf("show gpon onu detail-info gpon-onu_%s:%d", iface, onu),
				fmt.Sprintf("show pon power attenuation gpon-onu_%s:%d", iface, onu),
			},
		}, nil
	}

	return nil, util.NewGenerationError(vendor, action, "unknown action")
}
