package command

import (
	"fmt"

	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// routerosBuilder generates binary-API sentences for RouterOS routers.
// Each command string is one API sentence: a command word followed by
// attribute words, whitespace-separated for the transport to split.
type routerosBuilder struct{}

func (routerosBuilder) Vendor() device.Vendor { return device.VendorRouterOS }

func (routerosBuilder) Actions() []string {
	return []string{"disable_pppoe_user", "enable_pppoe_user", "kick_pppoe_session", "reboot_router", "set_queue_limit"}
}

func (b routerosBuilder) Build(action string, p Payload) (*Set, error) {
	vendor := string(b.Vendor())

	user := func() (string, error) {
		u, err := p.String("user")
		if err != nil {
			return "", util.NewGenerationError(vendor, action, err.Error())
		}
		return u, nil
	}

	switch action {
	case "disable_pppoe_user":
		u, err := user()
		if err != nil {
			return nil, err
		}
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				fmt.Sprintf("/ppp/secret/set =disabled=yes =numbers=%s", u),
				fmt.Sprintf("/ppp/active/remove =numbers=%s", u),
			},
			Rollback: []string{
				fmt.Sprintf("/ppp/secret/set =disabled=no =numbers=%s", u),
			},
		}, nil

	case "enable_pppoe_user":
		u, err := user()
		if err != nil {
			return nil, err
		}
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				fmt.Sprintf("/ppp/secret/set =disabled=no =numbers=%s", u),
			},
			Rollback: []string{
				fmt.Sprintf("/ppp/secret/set =disabled=yes =numbers=%s", u),
			},
		}, nil

	case "kick_pppoe_session":
		u, err := user()
		if err != nil {
			return nil, err
		}
		// The subscriber re-dials on their own; there is nothing to undo.
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategorySession,
			Commands: []string{
				fmt.Sprintf("/ppp/active/remove =numbers=%s", u),
			},
		}, nil

	case "set_queue_limit":
		u, err := user()
		if err != nil {
			return nil, err
		}
		rate, err := p.String("rate_limit")
		if err != nil {
			return nil, util.NewGenerationError(vendor, action, err.Error())
		}
		// The previous limit is not known at generation time, so this is
		// not auto-reversible.
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryProvisioning,
			Commands: []string{
				fmt.Sprintf("/queue/simple/set =max-limit=%s =numbers=%s", rate, u),
			},
		}, nil

	case "reboot_router":
		return &Set{
			Vendor:   b.Vendor(),
			Action:   action,
			Category: CategoryMaintenance,
			Commands: []string{
				"/system/reboot",
			},
		}, nil
	}

	return nil, util.NewGenerationError(vendor, action, "unknown action")
}
