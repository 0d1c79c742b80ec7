package sim

import (
	"context"
	"testing"
	"time"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"
)

type batchOnlyWriter struct {
	batches int
	singles int
	rows    []fleet.StateRow
}

func (w *batchOnlyWriter) WriteState(row fleet.StateRow) error {
	w.singles++
	w.rows = append(w.rows, row)
	return nil
}

func (w *batchOnlyWriter) WriteStates(rows []fleet.StateRow) error {
	w.batches++
	w.rows = append(w.rows, rows...)
	return nil
}

type stubEvaluator struct {
	calls int
	last  []fleet.Robot
}

func (e *stubEvaluator) Evaluate(robots []fleet.Robot) {
	e.calls++
	e.last = robots
}

type stubAlertSource struct {
	alerts []alert.Alert
}

func (s *stubAlertSource) Active() []alert.Alert { return s.alerts }

type recordingBroadcaster struct {
	calls  int
	robots int
	alerts int
}

func (b *recordingBroadcaster) Broadcast(robots []fleet.Robot, alerts []alert.Alert) {
	b.calls++
	b.robots = len(robots)
	b.alerts = len(alerts)
}

type panickyBroadcaster struct{}

func (panickyBroadcaster) Broadcast([]fleet.Robot, []alert.Alert) {
	panic("observer exploded")
}

func TestStepPrefersBatchWrites(t *testing.T) {
	w := &batchOnlyWriter{}
	s := newTestSimulator(testConfig(), w)

	s.Step(context.Background())

	if w.batches != 1 {
		t.Errorf("expected a single batch write, got %d", w.batches)
	}
	if w.singles != 0 {
		t.Errorf("batch-capable writer should not get per-row writes")
	}
	if len(w.rows) != 4 {
		t.Errorf("expected 4 rows, got %d", len(w.rows))
	}
}

func TestStepRunsEngineOnSnapshot(t *testing.T) {
	s := newTestSimulator(testConfig(), nil)
	ev := &stubEvaluator{}
	s.SetEvaluator(ev)

	s.Step(context.Background())

	if ev.calls != 1 {
		t.Fatalf("engine not invoked")
	}
	if len(ev.last) != 4 {
		t.Fatalf("engine should see the full fleet, got %d", len(ev.last))
	}
	// mutating what the engine saw must not touch simulator state
	ev.last[0].Battery = -50
	got, _ := s.Robot(ev.last[0].ID)
	if got.Battery == -50 {
		t.Errorf("engine received live state instead of a copy")
	}
}

func TestStepWritesAlertRows(t *testing.T) {
	cfg := testConfig()
	layout := BuildLayout(cfg.Facility)
	aw := &MockAlertWriter{}
	s := NewSimulator("warehouse-test", cfg, layout, nil, aw, 500*time.Millisecond)
	s.SetAlertSource(&stubAlertSource{alerts: []alert.Alert{
		{ID: "a1", Type: alert.TypeDeadlock, Severity: alert.SeverityCritical, AffectedRobots: []string{"AR-001", "AR-002"}},
	}})

	s.Step(context.Background())

	if len(aw.Rows) != 1 {
		t.Fatalf("expected 1 alert row, got %d", len(aw.Rows))
	}
	if aw.Rows[0].AlertID != "a1" || aw.Rows[0].FleetID != "warehouse-test" {
		t.Errorf("alert row malformed: %+v", aw.Rows[0])
	}
	if aw.Rows[0].Robots != "AR-001,AR-002" {
		t.Errorf("robot list not joined: %q", aw.Rows[0].Robots)
	}
}

func TestBroadcasterPanicDoesNotStopTheLoop(t *testing.T) {
	s := newTestSimulator(testConfig(), nil)
	healthy := &recordingBroadcaster{}
	s.AddBroadcaster(panickyBroadcaster{})
	s.AddBroadcaster(healthy)

	s.Step(context.Background())

	if healthy.calls != 1 {
		t.Fatalf("panicking broadcaster starved the healthy one")
	}
	if healthy.robots != 4 {
		t.Errorf("broadcast payload incomplete: %d robots", healthy.robots)
	}

	// the loop keeps ticking afterwards
	s.Step(context.Background())
	if healthy.calls != 2 || s.TickCount() != 2 {
		t.Errorf("loop did not continue after broadcaster panic")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := newTestSimulator(testConfig(), nil)
	s.tickInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancellation")
	}
	if s.TickCount() == 0 {
		t.Errorf("loop never ticked")
	}
}
