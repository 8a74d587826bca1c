// Package util provides logging helpers and the engine's error taxonomy.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for the execution pipeline. Callers classify outcomes
// with errors.Is against these.
var (
	ErrPoolExhausted    = errors.New("connection pool exhausted")
	ErrConnection       = errors.New("device connection failed")
	ErrGeneration       = errors.New("command generation failed")
	ErrExecution        = errors.New("command execution failed")
	ErrLockBusy         = errors.New("operation already in flight")
	ErrRollbackFailed   = errors.New("rollback failed")
	ErrLiveNotConfirmed = errors.New("live execution not confirmed")
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// PoolExhaustedError reports a checkout that timed out waiting for a free
// connection. Retryable by the caller after backoff; not a device fault.
type PoolExhaustedError struct {
	Device  string
	Max     int
	Timeout string
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("pool exhausted for %s: %d connections in use, waited %s", e.Device, e.Max, e.Timeout)
}

func (e *PoolExhaustedError) Unwrap() error {
	return ErrPoolExhausted
}

// ConnectionError represents a transport-level failure: unreachable host,
// rejected credentials, or a timed-out handshake. Never retried
// automatically for live executions.
type ConnectionError struct {
	Device string
	Addr   string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s (%s): %v", e.Device, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return ErrConnection
}

// NewConnectionError wraps a transport failure with device context.
func NewConnectionError(device, addr string, err error) *ConnectionError {
	return &ConnectionError{Device: device, Addr: addr, Err: err}
}

// GenerationError reports an unknown vendor, an unknown action for a
// vendor, or a missing required payload field. Always a caller fault,
// never retried.
type GenerationError struct {
	Vendor string
	Action string
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %s commands for action %q: %s", e.Vendor, e.Action, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return ErrGeneration
}

// NewGenerationError creates a generation error.
func NewGenerationError(vendor, action, reason string) *GenerationError {
	return &GenerationError{Vendor: vendor, Action: action, Reason: reason}
}

// ExecutionError reports a command that failed after the device accepted
// the connection. Transcript holds whatever output was captured up to the
// failure point.
type ExecutionError struct {
	Device     string
	Command    string
	Transcript string
	Err        error
}

func (e *ExecutionError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("executing %q on %s: %v", e.Command, e.Device, e.Err)
	}
	return fmt.Sprintf("executing commands on %s: %v", e.Device, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return ErrExecution
}

// LockBusyError means another execution with the identical idempotency key
// is in flight. Callers should treat this as "already handled", not as a
// user-facing failure.
type LockBusyError struct {
	Key       string
	Operation string
}

func (e *LockBusyError) Error() string {
	return fmt.Sprintf("operation %s already in flight (key %s)", e.Operation, e.Key)
}

func (e *LockBusyError) Unwrap() error {
	return ErrLockBusy
}

// RollbackError is the most severe category: the change failed AND the
// rollback errored, leaving the device in an unknown intermediate state.
// Surfaced loudly, never retried automatically.
type RollbackError struct {
	Device   string
	ChangeID string
	Err      error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of change %s on %s failed: %v", e.ChangeID, e.Device, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return ErrRollbackFailed
}

// Classify maps an error to a short stable label for audit records and
// API responses. Unrecognized errors classify as "internal".
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPoolExhausted):
		return "pool-exhausted"
	case errors.Is(err, ErrConnection):
		return "connection-error"
	case errors.Is(err, ErrGeneration):
		return "generation-error"
	case errors.Is(err, ErrExecution):
		return "execution-error"
	case errors.Is(err, ErrLockBusy):
		return "lock-busy"
	case errors.Is(err, ErrRollbackFailed):
		return "rollback-failed"
	case errors.Is(err, ErrLiveNotConfirmed):
		return "not-confirmed"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	default:
		return "internal"
	}
}
