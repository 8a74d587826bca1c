// Package engine orchestrates command generation and execution against
// fleet devices: run-mode gating, idempotency locking, pooled
// connections, change ledgering, and audit.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/fibron-net/fibron/pkg/audit"
	"github.com/fibron-net/fibron/pkg/command"
	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/ledger"
	"github.com/fibron-net/fibron/pkg/lock"
	"github.com/fibron-net/fibron/pkg/pool"
	"github.com/fibron-net/fibron/pkg/spec"
	"github.com/fibron-net/fibron/pkg/transport"
	"github.com/fibron-net/fibron/pkg/util"
)

// Commands beyond this count per execution are refused outright.
const maxCommandsPerExecution = 64

const probeTimeout = 5 * time.Second

// RunMode selects how much of an execution actually happens.
type RunMode string

const (
	// RunModeSimulate renders commands without any device contact.
	RunModeSimulate RunMode = "simulate"

	// RunModeDryRun probes reachability and renders commands, but
	// sends nothing.
	RunModeDryRun RunMode = "dry-run"

	// RunModeLive sends commands to the device.
	RunModeLive RunMode = "live"
)

// ParseRunMode validates a run mode string.
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(s) {
	case RunModeSimulate, RunModeDryRun, RunModeLive:
		return RunMode(s), nil
	}
	return "", fmt.Errorf("unknown run mode %q: %w", s, util.ErrInvalidConfig)
}

// Request describes one execution intent.
type Request struct {
	Device  string
	Action  string
	Payload command.Payload
	RunMode RunMode
	Actor   string

	// LiveConfirm must be set by the caller for live executions.
	// It is the caller's assertion that a human confirmed the change.
	LiveConfirm bool
}

// Result reports what an execution did.
type Result struct {
	ChangeID    string
	Device      string
	Action      string
	RunMode     RunMode
	Commands    []string
	Transcript  string
	Reachable   bool
	Applied     bool
	RolledBack  bool
	Unprotected bool
	Duration    time.Duration

	// ErrorClass is the stable classification label of the failure,
	// empty on success.
	ErrorClass string
}

// Locker is the idempotency lock surface the engine needs.
// *lock.Manager implements it; tests substitute fakes.
type Locker interface {
	TryAcquire(ctx context.Context, key, operation string) (*lock.Handle, error)
	Release(ctx context.Context, h *lock.Handle) error
}

// Engine wires the inventory, pool, ledger, lock manager, and audit
// logger into one execution path.
type Engine struct {
	inventory *spec.Loader
	pool      *pool.Pool
	ledger    *ledger.Ledger
	locks     Locker
	audit     audit.Logger

	// probe is swappable for tests.
	probe func(addr string, timeout time.Duration) error
}

// New creates an engine. locks may be nil, in which case live
// executions run without fleet-wide idempotency protection.
func New(inventory *spec.Loader, p *pool.Pool, l *ledger.Ledger, locks Locker, auditLog audit.Logger) *Engine {
	if auditLog == nil {
		auditLog = audit.NewMemoryLogger(0)
	}
	return &Engine{
		inventory: inventory,
		pool:      p,
		ledger:    l,
		locks:     locks,
		audit:     auditLog,
		probe:     transport.Probe,
	}
}

// Ledger exposes the change ledger for querying.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Generate resolves the device's vendor and builds the command set for
// an action. No device contact happens here.
func (e *Engine) Generate(deviceName, action string, payload command.Payload) (*device.Device, *command.Set, error) {
	dev, err := e.inventory.Device(deviceName)
	if err != nil {
		return nil, nil, err
	}

	builder, err := command.ForVendor(dev.Vendor)
	if err != nil {
		return nil, nil, err
	}
	set, err := builder.Build(action, payload)
	if err != nil {
		return nil, nil, err
	}
	return dev, set, nil
}
