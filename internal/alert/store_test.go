package alert

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"fleetops-sim/internal/fleet"
)

func testStore(opts Options) (*Store, *time.Time) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	opts.Now = func() time.Time { return now }
	return NewStore(opts), &now
}

func mkAlert(id string, typ Type, sev Severity, robots ...string) Alert {
	return Alert{
		ID:             id,
		Type:           typ,
		Severity:       sev,
		Title:          "test " + id,
		AffectedRobots: robots,
	}
}

func TestUpsertDeduplicatesByTypeAndRobotSet(t *testing.T) {
	s, _ := testStore(Options{})

	if inserted := s.Upsert(mkAlert("a1", TypeDeadlock, SeverityCritical, "R-1", "R-2")); !inserted {
		t.Fatalf("first upsert should insert")
	}
	// same pair in reverse order must match the existing alert
	if inserted := s.Upsert(mkAlert("a2", TypeDeadlock, SeverityCritical, "R-2", "R-1")); inserted {
		t.Fatalf("repeated detection should refresh, not insert")
	}

	active := s.Active()
	if len(active) != 1 {
		t.Fatalf("expected 1 active alert, got %d", len(active))
	}
	if active[0].ID != "a1" {
		t.Errorf("refresh must keep the original alert id, got %s", active[0].ID)
	}
}

func TestUpsertRefreshUpdatesLastSeen(t *testing.T) {
	s, now := testStore(Options{})

	s.Upsert(mkAlert("a1", TypeCongestion, SeverityWarning, "R-1", "R-2", "R-3"))
	created := s.Active()[0].LastSeen

	*now = now.Add(5 * time.Second)
	s.Upsert(mkAlert("a2", TypeCongestion, SeverityWarning, "R-1", "R-2", "R-3"))

	got := s.Active()[0]
	if !got.LastSeen.After(created) {
		t.Errorf("LastSeen not refreshed: %v", got.LastSeen)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt must not change on refresh")
	}
}

func TestUpsertEscalatesSeverity(t *testing.T) {
	s, _ := testStore(Options{})

	s.Upsert(mkAlert("a1", TypeBatteryCritical, SeverityWarning, "R-1"))
	s.Upsert(mkAlert("a2", TypeBatteryCritical, SeverityCritical, "R-1"))

	if got := s.Active()[0].Severity; got != SeverityCritical {
		t.Errorf("severity should escalate to critical, got %s", got)
	}
}

func TestSweepAutoResolvesAfterDebounce(t *testing.T) {
	s, _ := testStore(Options{ResolveAfter: 3})

	s.Upsert(mkAlert("a1", TypeCollisionCourse, SeverityWarning, "R-1", "R-2"))
	fp := Fingerprint(TypeCollisionCourse, []string{"R-1", "R-2"})

	// condition still present: no resolution however many sweeps
	for i := 0; i < 5; i++ {
		s.Sweep(map[string]struct{}{fp: {}})
	}
	if len(s.Active()) != 1 {
		t.Fatalf("alert resolved while condition still present")
	}

	// condition absent for fewer ticks than the debounce window
	s.Sweep(map[string]struct{}{})
	s.Sweep(map[string]struct{}{})
	if len(s.Active()) != 1 {
		t.Fatalf("alert resolved before debounce window elapsed")
	}

	// a single reappearance resets the counter
	s.Sweep(map[string]struct{}{fp: {}})
	s.Sweep(map[string]struct{}{})
	s.Sweep(map[string]struct{}{})
	if len(s.Active()) != 1 {
		t.Fatalf("miss counter not reset by reappearance")
	}

	s.Sweep(map[string]struct{}{})
	if len(s.Active()) != 0 {
		t.Fatalf("alert should auto-resolve after %d absent ticks", 3)
	}

	got, ok := s.Get("a1")
	if !ok {
		t.Fatalf("resolved alert should be retained")
	}
	if !got.Resolved || got.Severity != SeverityResolved || got.ResolvedAt == nil {
		t.Errorf("resolved alert not marked properly: %+v", got)
	}
}

func TestResolvedAlertsPurgedAfterRetention(t *testing.T) {
	s, _ := testStore(Options{ResolveAfter: 1, RetainTicks: 2})

	s.Upsert(mkAlert("a1", TypePathBlocked, SeverityWarning, "R-1", "R-2"))
	s.Sweep(map[string]struct{}{}) // resolves
	if _, ok := s.Get("a1"); !ok {
		t.Fatalf("alert should linger after resolution")
	}
	s.Sweep(map[string]struct{}{})
	s.Sweep(map[string]struct{}{})
	s.Sweep(map[string]struct{}{})
	if _, ok := s.Get("a1"); ok {
		t.Fatalf("resolved alert should be purged after retention window")
	}
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	s, now := testStore(Options{})
	s.Upsert(mkAlert("a1", TypeRobotError, SeverityCritical, "R-1"))

	if err := s.Acknowledge("a1"); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	first, _ := s.Get("a1")

	*now = now.Add(time.Minute)
	if err := s.Acknowledge("a1"); err != nil {
		t.Fatalf("second acknowledge: %v", err)
	}
	second, _ := s.Get("a1")
	if !second.AcknowledgedAt.Equal(*first.AcknowledgedAt) {
		t.Errorf("second acknowledge must not move the timestamp")
	}
}

func TestResolveUnknownIDFails(t *testing.T) {
	s, _ := testStore(Options{})
	if err := s.Resolve("nope"); !errors.Is(err, fleet.ErrUnknownAlert) {
		t.Errorf("expected ErrUnknownAlert, got %v", err)
	}
	if err := s.Acknowledge("nope"); !errors.Is(err, fleet.ErrUnknownAlert) {
		t.Errorf("expected ErrUnknownAlert, got %v", err)
	}
}

func TestResolveTwiceIsNoOp(t *testing.T) {
	s, now := testStore(Options{})
	s.Upsert(mkAlert("a1", TypeCongestion, SeverityWarning, "R-1"))

	if err := s.Resolve("a1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	first, _ := s.Get("a1")

	*now = now.Add(time.Minute)
	if err := s.Resolve("a1"); err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	second, _ := s.Get("a1")
	if !second.ResolvedAt.Equal(*first.ResolvedAt) {
		t.Errorf("second resolve must not move the timestamp")
	}
}

func TestActiveOrderedBySeverityThenRecency(t *testing.T) {
	s, now := testStore(Options{})

	s.Upsert(mkAlert("w-old", TypeCongestion, SeverityWarning, "R-1"))
	*now = now.Add(time.Second)
	s.Upsert(mkAlert("c-old", TypeDeadlock, SeverityCritical, "R-2", "R-3"))
	*now = now.Add(time.Second)
	s.Upsert(mkAlert("w-new", TypePathBlocked, SeverityWarning, "R-4", "R-5"))
	*now = now.Add(time.Second)
	s.Upsert(mkAlert("c-new", TypeRobotError, SeverityCritical, "R-6"))

	got := s.Active()
	want := []string{"c-new", "c-old", "w-new", "w-old"}
	if len(got) != len(want) {
		t.Fatalf("expected %d alerts, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: want %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestMaxActiveEviction(t *testing.T) {
	s, now := testStore(Options{MaxActive: 3})

	s.Upsert(mkAlert("keep-crit", TypeDeadlock, SeverityCritical, "R-1", "R-2"))
	*now = now.Add(time.Second)
	s.Upsert(mkAlert("evict-me", TypeCongestion, SeverityWarning, "R-3"))
	*now = now.Add(time.Second)
	s.Upsert(mkAlert("keep-warn", TypePathBlocked, SeverityWarning, "R-4", "R-5"))
	*now = now.Add(time.Second)

	// store is full; the oldest non-critical alert makes room
	s.Upsert(mkAlert("new", TypeRobotError, SeverityCritical, "R-6"))

	if _, ok := s.Get("evict-me"); ok {
		t.Errorf("oldest non-critical alert should have been evicted")
	}
	if _, ok := s.Get("keep-crit"); !ok {
		t.Errorf("critical alert must survive eviction")
	}
	if len(s.Active()) != 3 {
		t.Errorf("active count should stay at cap, got %d", len(s.Active()))
	}
}

func TestActiveReturnsCopies(t *testing.T) {
	s, _ := testStore(Options{})
	s.Upsert(mkAlert("a1", TypeCongestion, SeverityWarning, "R-1", "R-2"))

	got := s.Active()
	got[0].Title = "mutated"
	got[0].AffectedRobots[0] = "X-9"

	again := s.Active()
	if again[0].Title == "mutated" || again[0].AffectedRobots[0] == "X-9" {
		t.Errorf("Active must return copies, store was mutated")
	}
}

func TestFingerprintOrderInsensitive(t *testing.T) {
	a := Fingerprint(TypeDeadlock, []string{"R-2", "R-1"})
	b := Fingerprint(TypeDeadlock, []string{"R-1", "R-2"})
	if a != b {
		t.Errorf("fingerprint should ignore robot order: %s vs %s", a, b)
	}
	if c := Fingerprint(TypePathBlocked, []string{"R-1", "R-2"}); c == a {
		t.Errorf("different types must not collide")
	}
}

func TestManyFingerprintsStayDistinct(t *testing.T) {
	s, _ := testStore(Options{MaxActive: 100})
	for i := 0; i < 20; i++ {
		s.Upsert(mkAlert(fmt.Sprintf("a%d", i), TypeRobotError, SeverityCritical, fmt.Sprintf("R-%d", i)))
	}
	if len(s.Active()) != 20 {
		t.Errorf("distinct robot sets must produce distinct alerts, got %d", len(s.Active()))
	}
}
