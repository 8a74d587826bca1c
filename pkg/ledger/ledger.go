package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/fibron-net/fibron/pkg/util"
)

const (
	// DefaultRetention is how many entries are kept per device.
	DefaultRetention = 200

	// MaxPageSize bounds a single List call.
	MaxPageSize = 500
)

// Ledger is a per-device change log, newest entry first.
type Ledger struct {
	mu        sync.RWMutex
	retention int
	byDevice  map[string][]*Entry
	byID      map[string]*Entry
}

// New creates a ledger with the given per-device retention.
// retention <= 0 selects DefaultRetention.
func New(retention int) *Ledger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Ledger{
		retention: retention,
		byDevice:  map[string][]*Entry{},
		byID:      map[string]*Entry{},
	}
}

// Register creates a new entry at the head of the device's log and
// returns a snapshot of it. The oldest entry is evicted when the
// device log is full.
func (l *Ledger) Register(device, vendor, action, category, actor string, commands, rollback []string, status Status) *Entry {
	now := time.Now().UTC()
	e := &Entry{
		ID:        newChangeID(now),
		Device:    device,
		Vendor:    vendor,
		Action:    action,
		Category:  category,
		Actor:     actor,
		Status:    status,
		Commands:  append([]string(nil), commands...),
		Rollback:  append([]string(nil), rollback...),
		CreatedAt: now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	log := append([]*Entry{e}, l.byDevice[device]...)
	if len(log) > l.retention {
		for _, old := range log[l.retention:] {
			delete(l.byID, old.ID)
		}
		log = log[:l.retention]
	}
	l.byDevice[device] = log
	l.byID[e.ID] = e
	return e.clone()
}

// Resolve transitions an entry to a new status and stamps the
// resolution time. Unknown IDs return ErrNotFound.
func (l *Ledger) Resolve(id string, status Status, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byID[id]
	if !ok {
		return util.ErrNotFound
	}
	e.Status = status
	e.Error = errMsg
	e.ResolvedAt = time.Now().UTC()
	return nil
}

// Get returns the entry with the given ID.
func (l *Ledger) Get(id string) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.byID[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return e.clone(), nil
}

// ListFilter narrows a List call. Zero values match everything.
type ListFilter struct {
	Device string
	Status Status
	Limit  int
}

// List returns entries newest-first. Results are capped at MaxPageSize
// even when the filter asks for more.
func (l *Ledger) List(filter ListFilter) []*Entry {
	limit := filter.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*Entry
	if filter.Device != "" {
		out = l.collect(l.byDevice[filter.Device], filter.Status, limit)
	} else {
		// Device logs are individually ordered; merge then re-sort.
		for _, log := range l.byDevice {
			out = append(out, l.collect(log, filter.Status, limit)...)
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		if len(out) > limit {
			out = out[:limit]
		}
	}
	return out
}

func (l *Ledger) collect(log []*Entry, status Status, limit int) []*Entry {
	var out []*Entry
	for _, e := range log {
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e.clone())
		if len(out) >= limit {
			break
		}
	}
	return out
}
