// Package audit records every command execution, ledgered or not.
//
// The file logger is the durable artifact of the system; the memory
// logger is best-effort and documented as such.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one execution's audit record. Credentials and full transcripts
// never appear here; errors are truncated by the engine before logging.
type Event struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	Actor        string        `json:"actor"`
	Device       string        `json:"device"`
	Vendor       string        `json:"vendor"`
	Action       string        `json:"action,omitempty"`
	RunMode      string        `json:"run_mode"`
	CommandCount int           `json:"command_count"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	ErrorClass   string        `json:"error_class,omitempty"`
	Duration     time.Duration `json:"duration"`
	ChangeID     string        `json:"change_id,omitempty"`
}

// NewEvent stamps identity and time onto an event.
func NewEvent() *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}

// Filter defines criteria for querying audit events.
type Filter struct {
	Device      string
	Actor       string
	RunMode     string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

func (f Filter) matches(e *Event) bool {
	if f.Device != "" && e.Device != f.Device {
		return false
	}
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.RunMode != "" && e.RunMode != f.RunMode {
		return false
	}
	if !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime) {
		return false
	}
	if f.SuccessOnly && !e.Success {
		return false
	}
	if f.FailureOnly && e.Success {
		return false
	}
	return true
}
