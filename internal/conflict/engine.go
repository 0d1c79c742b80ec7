// Conflict detection engine: per-tick sweep over a fleet snapshot that
// flags collision courses, deadlocks, congestion, path blockages, and
// battery-critical conditions.
package conflict

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/facility"
	"fleetops-sim/internal/fleet"
)

// Config holds detection thresholds. Distances are in grid units, times
// in seconds, debounce windows in ticks.
type Config struct {
	ProximityRadius    float64
	CollisionHorizonS  float64
	CollisionStepS     float64
	CollisionThreshold float64
	DeadlockDistance   float64
	DeadlockGraceTicks int
	CongestionDensity  float64
	BlockageLookahead  float64
	CorridorWidth      float64
	BatteryWarn        float64
	BatteryCritical    float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		ProximityRadius:    5,
		CollisionHorizonS:  12,
		CollisionStepS:     1,
		CollisionThreshold: 2,
		DeadlockDistance:   3,
		DeadlockGraceTicks: 6,
		CongestionDensity:  0.035,
		BlockageLookahead:  10,
		CorridorWidth:      1.5,
		BatteryWarn:        15,
		BatteryCritical:    10,
	}
}

// Engine evaluates a robot snapshot each tick and maintains the alert
// store. It keeps only small debounce counters between ticks; detection
// itself is a pure function of the snapshot.
type Engine struct {
	cfg    Config
	layout *facility.Layout
	store  *alert.Store
	log    *slog.Logger

	// consecutive ticks each robot pair has looked mutually deadlocked
	pairStops map[string]int
}

// NewEngine creates an engine writing into the given alert store.
func NewEngine(cfg Config, layout *facility.Layout, store *alert.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		layout:    layout,
		store:     store,
		log:       log,
		pairStops: make(map[string]int),
	}
}

type rule struct {
	name string
	fn   func([]fleet.Robot) ([]alert.Alert, error)
}

// Evaluate runs every detection rule against the snapshot and reconciles
// the alert store: new findings are upserted, findings matching existing
// unresolved alerts refresh them, and alerts whose condition stayed absent
// for the debounce window auto-resolve. A failing rule is logged and
// skipped for this tick; the other rules still run.
func (e *Engine) Evaluate(robots []fleet.Robot) {
	rules := []rule{
		{"robot_errors", e.checkRobotErrors},
		{"deadlock", e.checkDeadlocks},
		{"collision_course", e.checkCollisionCourses},
		{"congestion", e.checkCongestion},
		{"battery_critical", e.checkBatteryCritical},
		{"path_blocked", e.checkPathBlocked},
	}

	var findings []alert.Alert
	for _, r := range rules {
		out, err := e.runRule(r, robots)
		if err != nil {
			e.log.Warn("conflict rule skipped", "rule", r.name, "err", err)
			continue
		}
		findings = append(findings, out...)
	}

	findings = applyPrecedence(findings)

	current := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		current[alert.Fingerprint(f.Type, f.AffectedRobots)] = struct{}{}
		e.store.Upsert(f)
	}
	e.store.Sweep(current)
}

// runRule isolates a single rule so a panic cannot abort the evaluation.
func (e *Engine) runRule(r rule, robots []fleet.Robot) (out []alert.Alert, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("rule panicked: %v", rec)
		}
	}()
	return r.fn(robots)
}

// applyPrecedence drops path_blocked findings for robot pairs that also
// produced a deadlock finding this tick: mutual blocking is reported as
// the deadlock, one-sided blocking stays path_blocked.
func applyPrecedence(findings []alert.Alert) []alert.Alert {
	deadlocked := make(map[string]struct{})
	for _, f := range findings {
		if f.Type == alert.TypeDeadlock {
			deadlocked[alert.Fingerprint(alert.TypePathBlocked, f.AffectedRobots)] = struct{}{}
		}
	}
	if len(deadlocked) == 0 {
		return findings
	}
	out := findings[:0]
	for _, f := range findings {
		if f.Type == alert.TypePathBlocked {
			if _, drop := deadlocked[alert.Fingerprint(f.Type, f.AffectedRobots)]; drop {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func newAlert(t alert.Type, sev alert.Severity, title, desc, action string, robots []string, pos *fleet.Position) alert.Alert {
	return alert.Alert{
		ID:              uuid.New().String()[:8],
		Type:            t,
		Severity:        sev,
		Title:           title,
		Description:     desc,
		SuggestedAction: action,
		AffectedRobots:  robots,
		Position:        pos,
	}
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
