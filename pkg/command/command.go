// Package command generates vendor-native command sets for the fixed set
// of supported actions. Builders form a closed set of variants, one per
// vendor family; adding a vendor means adding a variant, not editing
// dispatch tables at call sites.
//
// Generation is deterministic: the same (vendor, action, payload) always
// yields a byte-identical command list.
package command

import (
	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/util"
)

// Category tags a command set for ledger grouping and rollback policy.
type Category string

const (
	CategoryProvisioning Category = "provisioning" // subscriber/ONU changes, auto-rollback eligible
	CategorySession      Category = "session"      // session kicks, transient
	CategoryMaintenance  Category = "maintenance"  // reboots and other one-way operations
	CategoryQuery        Category = "query"        // read-only
)

// Set is an ordered sequence of vendor-native command strings for one
// action, paired with the rollback commands that undo it when the action
// is reversible.
type Set struct {
	Vendor   device.Vendor
	Action   string
	Category Category
	Commands []string

	// Rollback undoes the effect of Commands. Empty when the action is
	// irreversible (reboots, session kicks) or read-only.
	Rollback []string
}

// Reversible reports whether the set carries rollback commands.
func (s *Set) Reversible() bool {
	return len(s.Rollback) > 0
}

// ReadOnly reports whether the action mutates device state.
func (s *Set) ReadOnly() bool {
	return s.Category == CategoryQuery
}

// Builder maps actions to fixed, ordered command templates for one
// vendor family.
type Builder interface {
	Vendor() device.Vendor

	// Build generates the command set for an action. Unknown actions and
	// missing required payload fields fail with a GenerationError; there
	// is no partial or best-effort generation.
	Build(action string, p Payload) (*Set, error)

	// Actions lists the actions this vendor supports, sorted.
	Actions() []string
}

// ForVendor returns the builder variant for a vendor tag.
func ForVendor(v device.Vendor) (Builder, error) {
	switch v {
	case device.VendorHuaweiOLT:
		return huaweiBuilder{}, nil
	case device.VendorZTEOLT:
		return zteBuilder{}, nil
	case device.VendorVSOLOLT:
		return vsolBuilder{}, nil
	case device.VendorRouterOS:
		return routerosBuilder{}, nil
	}
	return nil, util.NewGenerationError(string(v), "", "unknown vendor")
}
