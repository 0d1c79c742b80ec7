package conflict

import (
	"fmt"
	"testing"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/facility"
	"fleetops-sim/internal/fleet"
)

func testEngine(t *testing.T) (*Engine, *alert.Store) {
	t.Helper()
	store := alert.NewStore(alert.Options{ResolveAfter: 3})
	return NewEngine(DefaultConfig(), facility.Default(), store, nil), store
}

func movingRobot(id string, x, y, heading, speed float64) fleet.Robot {
	pos := fleet.Position{X: x, Y: y}
	return fleet.Robot{
		ID:       id,
		Vendor:   fleet.VendorAmazon,
		Position: pos,
		Heading:  heading,
		Speed:    speed,
		Battery:  80,
		Status:   fleet.StatusActive,
		Zone:     "Zone A",
		Task: &fleet.Task{
			ID:          "T-" + id,
			Type:        "transport",
			Destination: fleet.Position{X: x + 20, Y: y},
			Status:      fleet.TaskInProgress,
		},
	}
}

func alertsOfType(store *alert.Store, typ alert.Type) []alert.Alert {
	var out []alert.Alert
	for _, a := range store.Active() {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestHeadOnCollisionCourseDetected(t *testing.T) {
	e, store := testEngine(t)

	// Two robots closing head-on at 1 unit/s, 4 units apart: they meet
	// after ~2 seconds, well inside the projection horizon.
	r1 := movingRobot("R-1", 0, 0, 0, 1)
	r2 := movingRobot("R-2", 4, 0, 180, 1)
	e.Evaluate([]fleet.Robot{r1, r2})

	got := alertsOfType(store, alert.TypeCollisionCourse)
	if len(got) != 1 {
		t.Fatalf("expected 1 collision alert, got %d", len(got))
	}
	a := got[0]
	if a.Severity != alert.SeverityWarning {
		t.Errorf("collision course should be a warning, got %s", a.Severity)
	}
	if len(a.AffectedRobots) != 2 {
		t.Errorf("expected both robots affected: %v", a.AffectedRobots)
	}
}

func TestCollisionDetectionIsSymmetric(t *testing.T) {
	e1, s1 := testEngine(t)
	e2, s2 := testEngine(t)

	r1 := movingRobot("R-1", 0, 0, 0, 1)
	r2 := movingRobot("R-2", 4, 0, 180, 1)

	e1.Evaluate([]fleet.Robot{r1, r2})
	e2.Evaluate([]fleet.Robot{r2, r1})

	a1 := alertsOfType(s1, alert.TypeCollisionCourse)
	a2 := alertsOfType(s2, alert.TypeCollisionCourse)
	if len(a1) != 1 || len(a2) != 1 {
		t.Fatalf("expected one alert each, got %d and %d", len(a1), len(a2))
	}
	fp1 := alert.Fingerprint(a1[0].Type, a1[0].AffectedRobots)
	fp2 := alert.Fingerprint(a2[0].Type, a2[0].AffectedRobots)
	if fp1 != fp2 {
		t.Errorf("evaluation order changed the finding: %s vs %s", fp1, fp2)
	}
}

func TestDivergingRobotsNotFlagged(t *testing.T) {
	e, store := testEngine(t)

	// close together but moving apart
	r1 := movingRobot("R-1", 0, 0, 180, 1)
	r2 := movingRobot("R-2", 4, 0, 0, 1)
	e.Evaluate([]fleet.Robot{r1, r2})

	if got := alertsOfType(store, alert.TypeCollisionCourse); len(got) != 0 {
		t.Errorf("diverging robots must not be flagged: %+v", got)
	}
}

func TestStationaryRobotsNotOnCollisionCourse(t *testing.T) {
	e, store := testEngine(t)

	r1 := movingRobot("R-1", 0, 0, 0, 0)
	r2 := movingRobot("R-2", 3, 0, 180, 0)
	r1.Speed, r2.Speed = 0, 0
	e.Evaluate([]fleet.Robot{r1, r2})

	if got := alertsOfType(store, alert.TypeCollisionCourse); len(got) != 0 {
		t.Errorf("stationary robots cannot be on a collision course")
	}
}

func TestDeadlockRequiresGracePeriod(t *testing.T) {
	e, store := testEngine(t)

	// stopped, facing each other's position, 2 units apart
	r1 := movingRobot("R-1", 10, 10, 0, 0)
	r1.Task.Destination = fleet.Position{X: 14, Y: 10}
	r2 := movingRobot("R-2", 12, 10, 180, 0)
	r2.Task.Destination = fleet.Position{X: 6, Y: 10}
	snap := []fleet.Robot{r1, r2}

	grace := DefaultConfig().DeadlockGraceTicks
	for i := 0; i < grace; i++ {
		e.Evaluate(snap)
		if got := alertsOfType(store, alert.TypeDeadlock); len(got) != 0 {
			t.Fatalf("deadlock raised after %d ticks, grace is %d", i+1, grace)
		}
	}
	e.Evaluate(snap)
	if got := alertsOfType(store, alert.TypeDeadlock); len(got) != 1 {
		t.Fatalf("deadlock should be raised once grace elapsed, got %d", len(got))
	}
}

func TestDeadlockGraceResetsWhenPairSeparates(t *testing.T) {
	e, store := testEngine(t)

	r1 := movingRobot("R-1", 10, 10, 0, 0)
	r1.Task.Destination = fleet.Position{X: 14, Y: 10}
	r2 := movingRobot("R-2", 12, 10, 180, 0)
	r2.Task.Destination = fleet.Position{X: 6, Y: 10}
	blocked := []fleet.Robot{r1, r2}

	grace := DefaultConfig().DeadlockGraceTicks
	for i := 0; i < grace; i++ {
		e.Evaluate(blocked)
	}

	// pair separates for one tick
	moved := movingRobot("R-2", 25, 25, 180, 1)
	e.Evaluate([]fleet.Robot{r1, moved})

	// blocking resumes: the counter must start over
	e.Evaluate(blocked)
	if got := alertsOfType(store, alert.TypeDeadlock); len(got) != 0 {
		t.Errorf("grace counter should reset after the pair separates")
	}
}

func TestDeadlockTakesPrecedenceOverPathBlocked(t *testing.T) {
	e, store := testEngine(t)

	// r2 is errored in r1's path while both mutually block each other, so
	// the pair qualifies for both rules once the grace window passes.
	r1 := movingRobot("R-1", 10, 10, 0, 0)
	r1.Task.Destination = fleet.Position{X: 14, Y: 10}
	r2 := movingRobot("R-2", 12, 10, 180, 0)
	r2.Status = fleet.StatusError
	r2.Task.Destination = fleet.Position{X: 6, Y: 10}
	snap := []fleet.Robot{r1, r2}

	// run past the grace window plus the debounce window, so the
	// path_blocked alert raised while the deadlock was still maturing has
	// auto-resolved by the time we assert
	for i := 0; i < DefaultConfig().DeadlockGraceTicks+4; i++ {
		e.Evaluate(snap)
	}

	if got := alertsOfType(store, alert.TypeDeadlock); len(got) != 1 {
		t.Fatalf("expected deadlock alert, got %d", len(got))
	}
	if got := alertsOfType(store, alert.TypePathBlocked); len(got) != 0 {
		t.Errorf("path_blocked must yield to deadlock for the same pair")
	}
}

func TestPathBlockedByIdleRobot(t *testing.T) {
	e, store := testEngine(t)

	mover := movingRobot("R-1", 10, 10, 0, 1)
	mover.Task.Destination = fleet.Position{X: 20, Y: 10}
	blocker := fleet.Robot{
		ID:       "R-2",
		Vendor:   fleet.VendorBalyo,
		Position: fleet.Position{X: 14, Y: 10},
		Status:   fleet.StatusIdle,
		Battery:  70,
		Zone:     "Zone B",
	}
	e.Evaluate([]fleet.Robot{mover, blocker})

	got := alertsOfType(store, alert.TypePathBlocked)
	if len(got) != 1 {
		t.Fatalf("expected path_blocked alert, got %d", len(got))
	}
	if got[0].Severity != alert.SeverityWarning {
		t.Errorf("path_blocked should be a warning")
	}
}

func TestBatteryThresholds(t *testing.T) {
	cases := []struct {
		name    string
		battery float64
		status  fleet.Status
		hasTask bool
		want    int
		waneSev alert.Severity
	}{
		{"critical at 10", 10, fleet.StatusActive, true, 1, alert.SeverityCritical},
		{"warning at 12", 12, fleet.StatusActive, true, 1, alert.SeverityWarning},
		{"healthy at 20", 20, fleet.StatusActive, true, 0, ""},
		{"charging exempt", 5, fleet.StatusCharging, true, 0, ""},
		{"no task no alert", 8, fleet.StatusIdle, false, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, store := testEngine(t)
			r := movingRobot("R-1", 10, 10, 0, 1)
			r.Battery = tc.battery
			r.Status = tc.status
			if !tc.hasTask {
				r.Task = nil
			}
			e.Evaluate([]fleet.Robot{r})

			got := alertsOfType(store, alert.TypeBatteryCritical)
			if len(got) != tc.want {
				t.Fatalf("want %d battery alerts, got %d", tc.want, len(got))
			}
			if tc.want == 1 && got[0].Severity != tc.waneSev {
				t.Errorf("want severity %s, got %s", tc.waneSev, got[0].Severity)
			}
		})
	}
}

func TestCongestionScalesWithZoneArea(t *testing.T) {
	e, store := testEngine(t)

	// Zone A is 13x14 = 182 units²; at 0.035 robots/unit² the limit is
	// ~6.4, so seven robots tip it over.
	var robots []fleet.Robot
	for i := 0; i < 7; i++ {
		r := movingRobot(fmt.Sprintf("R-%d", i), float64(2+i), 5, 0, 1)
		robots = append(robots, r)
	}
	e.Evaluate(robots)

	got := alertsOfType(store, alert.TypeCongestion)
	if len(got) != 1 {
		t.Fatalf("expected congestion alert for Zone A, got %d", len(got))
	}
	if len(got[0].AffectedRobots) != 7 {
		t.Errorf("all zone occupants should be listed, got %d", len(got[0].AffectedRobots))
	}
}

func TestNoCongestionBelowDensityLimit(t *testing.T) {
	e, store := testEngine(t)

	var robots []fleet.Robot
	for i := 0; i < 6; i++ {
		robots = append(robots, movingRobot(fmt.Sprintf("R-%d", i), float64(2+i), 5, 0, 1))
	}
	e.Evaluate(robots)

	if got := alertsOfType(store, alert.TypeCongestion); len(got) != 0 {
		t.Errorf("six robots in Zone A are under the limit: %+v", got)
	}
}

func TestErroredRobotRaisesCriticalAlert(t *testing.T) {
	e, store := testEngine(t)

	r := movingRobot("R-1", 10, 10, 0, 0)
	r.Status = fleet.StatusError
	r.LastErr = &fleet.ErrorInfo{Code: "E-3001", Name: "Lift Mechanism Jam"}
	e.Evaluate([]fleet.Robot{r})

	got := alertsOfType(store, alert.TypeRobotError)
	if len(got) != 1 {
		t.Fatalf("expected robot error alert, got %d", len(got))
	}
	if got[0].Severity != alert.SeverityCritical {
		t.Errorf("robot errors are critical, got %s", got[0].Severity)
	}
	if got[0].SuggestedAction == "" {
		t.Errorf("error alert should carry a suggested action")
	}
}

func TestRuleFailureDoesNotAbortEvaluation(t *testing.T) {
	// A zone with zero area makes the congestion rule fail; everything
	// else must still be evaluated.
	layout := facility.New(40, 30,
		map[string]facility.Rect{
			"Broken": {XMin: 5, XMax: 5, YMin: 5, YMax: 5},
		},
		map[string]fleet.Position{"Station 1": {X: 3, Y: 3}, "Station 2": {X: 30, Y: 20}},
		map[string]fleet.Position{"Charger C1": {X: 1, Y: 1}},
	)
	store := alert.NewStore(alert.Options{})
	e := NewEngine(DefaultConfig(), layout, store, nil)

	inBroken := movingRobot("R-1", 5, 5, 0, 0)
	inBroken.Zone = "Broken"
	errored := movingRobot("R-2", 20, 20, 0, 0)
	errored.Status = fleet.StatusError
	errored.Zone = "Broken"

	e.Evaluate([]fleet.Robot{inBroken, errored})

	if got := alertsOfType(store, alert.TypeRobotError); len(got) != 1 {
		t.Errorf("error rule should still run when congestion rule fails, got %d alerts", len(got))
	}
}

func TestRepeatedEvaluationDoesNotDuplicate(t *testing.T) {
	e, store := testEngine(t)

	r1 := movingRobot("R-1", 0, 0, 0, 1)
	r2 := movingRobot("R-2", 4, 0, 180, 1)
	snap := []fleet.Robot{r1, r2}

	for i := 0; i < 10; i++ {
		e.Evaluate(snap)
	}
	if got := alertsOfType(store, alert.TypeCollisionCourse); len(got) != 1 {
		t.Errorf("persistent condition must map to a single alert, got %d", len(got))
	}
}

func TestConditionClearedAutoResolves(t *testing.T) {
	e, store := testEngine(t)

	r1 := movingRobot("R-1", 0, 0, 0, 1)
	r2 := movingRobot("R-2", 4, 0, 180, 1)
	e.Evaluate([]fleet.Robot{r1, r2})
	if len(store.Active()) == 0 {
		t.Fatalf("setup: expected an active alert")
	}

	// robots far apart, condition gone; ResolveAfter is 3 in testEngine
	calm := []fleet.Robot{
		movingRobot("R-1", 0, 0, 180, 1),
		movingRobot("R-2", 35, 25, 0, 1),
	}
	for i := 0; i < 3; i++ {
		e.Evaluate(calm)
	}
	if got := alertsOfType(store, alert.TypeCollisionCourse); len(got) != 0 {
		t.Errorf("alert should auto-resolve after condition stays clear")
	}
}
