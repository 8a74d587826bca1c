// Package ledger tracks applied changes per device so that reversible
// changes can be rolled back later. The ledger is in-memory and
// best-effort; the audit log is the durable record.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a change entry.
type Status string

const (
	StatusDryRun         Status = "dry-run"
	StatusInProgress     Status = "in-progress"
	StatusApplied        Status = "applied"
	StatusFailed         Status = "failed"
	StatusRolledBack     Status = "rolled-back"
	StatusRollbackFailed Status = "rollback-failed"
)

// Terminal reports whether no further transition is expected. Applied
// entries stay open for rollback.
func (s Status) Terminal() bool {
	switch s {
	case StatusDryRun, StatusFailed, StatusRolledBack, StatusRollbackFailed:
		return true
	}
	return false
}

// Entry records one change against one device.
type Entry struct {
	ID         string    `json:"id"`
	Device     string    `json:"device"`
	Vendor     string    `json:"vendor"`
	Action     string    `json:"action"`
	Category   string    `json:"category"`
	Actor      string    `json:"actor"`
	Status     Status    `json:"status"`
	Commands   []string  `json:"commands"`
	Rollback   []string  `json:"rollback,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// Reversible reports whether the entry carries rollback commands.
func (e *Entry) Reversible() bool {
	return len(e.Rollback) > 0
}

// clone returns an independent copy. The ledger hands out clones so
// that readers never race with later status transitions.
func (e *Entry) clone() *Entry {
	c := *e
	c.Commands = append([]string(nil), e.Commands...)
	c.Rollback = append([]string(nil), e.Rollback...)
	return &c
}

// newChangeID produces an ID that sorts by creation time. The UUID
// suffix disambiguates entries created in the same millisecond.
func newChangeID(now time.Time) string {
	return fmt.Sprintf("chg-%s-%s", now.UTC().Format("20060102T150405.000"), uuid.NewString()[:8])
}
