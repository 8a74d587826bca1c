package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fibron-net/fibron/pkg/util"
)

func register(l *Ledger, device string, status Status) *Entry {
	return l.Register(device, "huawei-olt", "authorize_onu", "provisioning", "noc",
		[]string{"enable", "config"}, []string{"undo"}, status)
}

func TestRegisterAndGet(t *testing.T) {
	l := New(0)
	e := register(l, "olt-ny-01", StatusInProgress)

	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatal("entry must carry an ID and creation time")
	}
	got, err := l.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Device != "olt-ny-01" || got.Status != StatusInProgress {
		t.Errorf("entry = %+v", got)
	}

	if _, err := l.Get("chg-nope"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestRetentionEvictsOldest(t *testing.T) {
	l := New(3)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, register(l, "d", StatusApplied).ID)
	}

	entries := l.List(ListFilter{Device: "d"})
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want retention of 3", len(entries))
	}
	// Oldest two are gone, including their ID index.
	for _, id := range ids[:2] {
		if _, err := l.Get(id); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("evicted entry %s still resolvable: %v", id, err)
		}
	}
	if _, err := l.Get(ids[4]); err != nil {
		t.Errorf("newest entry must survive: %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	l := New(0)
	first := register(l, "d", StatusApplied)
	second := register(l, "d", StatusFailed)

	entries := l.List(ListFilter{Device: "d"})
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Error("entries must be newest-first")
	}
}

func TestListStatusFilterAndLimit(t *testing.T) {
	l := New(0)
	for i := 0; i < 4; i++ {
		register(l, "d", StatusApplied)
	}
	register(l, "d", StatusFailed)

	applied := l.List(ListFilter{Device: "d", Status: StatusApplied})
	if len(applied) != 4 {
		t.Errorf("status filter returned %d entries", len(applied))
	}
	capped := l.List(ListFilter{Device: "d", Limit: 2})
	if len(capped) != 2 {
		t.Errorf("limit returned %d entries", len(capped))
	}
}

func TestListAcrossDevices(t *testing.T) {
	l := New(0)
	for i := 0; i < 3; i++ {
		register(l, fmt.Sprintf("dev-%d", i), StatusApplied)
	}

	all := l.List(ListFilter{})
	if len(all) != 3 {
		t.Fatalf("got %d entries across devices", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Error("merged list must be newest-first")
		}
	}
}

func TestResolveTransitions(t *testing.T) {
	l := New(0)
	e := register(l, "d", StatusInProgress)

	if err := l.Resolve(e.ID, StatusApplied, ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, _ := l.Get(e.ID)
	if got.Status != StatusApplied || got.ResolvedAt.IsZero() {
		t.Errorf("entry after resolve = %+v", got)
	}

	if err := l.Resolve("chg-nope", StatusFailed, "boom"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestQueriesReturnSnapshots(t *testing.T) {
	l := New(0)
	e := register(l, "d", StatusInProgress)

	got, err := l.Get(e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	listed := l.List(ListFilter{Device: "d"})

	if err := l.Resolve(e.ID, StatusApplied, ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if e.Status != StatusInProgress || got.Status != StatusInProgress || listed[0].Status != StatusInProgress {
		t.Error("a later transition must not leak into earlier query results")
	}

	// Nor may a caller's mutation of a returned entry corrupt the log.
	got.Status = StatusFailed
	got.Commands[0] = "mangled"
	fresh, _ := l.Get(e.ID)
	if fresh.Status != StatusApplied || fresh.Commands[0] != "enable" {
		t.Errorf("ledger entry mutated through a query result: %+v", fresh)
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Status{StatusDryRun, StatusFailed, StatusRolledBack, StatusRollbackFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusInProgress, StatusApplied} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestReversible(t *testing.T) {
	l := New(0)
	e := l.Register("d", "routeros", "kick_pppoe_session", "session", "noc",
		[]string{"/ppp/active/remove =numbers=u"}, nil, StatusApplied)
	if e.Reversible() {
		t.Error("entry without rollback commands must not be reversible")
	}
}
