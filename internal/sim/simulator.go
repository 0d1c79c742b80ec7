// Simulator owning the authoritative robot fleet state.
package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/config"
	"fleetops-sim/internal/facility"
	"fleetops-sim/internal/fleet"
)

// StateWriter receives per-tick robot state rows.
type StateWriter interface {
	WriteState(fleet.StateRow) error
}

// AlertWriter receives alert rows.
type AlertWriter interface {
	WriteAlert(alert.Row) error
}

// Optional: writers can also support batch mode
type batchStateWriter interface {
	WriteStates([]fleet.StateRow) error
}

type batchAlertWriter interface {
	WriteAlerts([]alert.Row) error
}

// Evaluator is the conflict engine hook invoked after every tick.
type Evaluator interface {
	Evaluate(robots []fleet.Robot)
}

// AlertSource provides the ordered active alerts for publishing.
type AlertSource interface {
	Active() []alert.Alert
}

// Broadcaster pushes a fleet update to connected observers. A broadcaster
// must isolate its own observers; the tick loop additionally recovers
// around each call so one broken broadcaster cannot stall the loop.
type Broadcaster interface {
	Broadcast(robots []fleet.Robot, alerts []alert.Alert)
}

// Simulator advances the fleet once per tick. It is the single writer of
// robot state; every outside reader goes through Snapshot().
type Simulator struct {
	mu      sync.Mutex
	fleetID string
	cfg     *config.SimulationConfig
	layout  *facility.Layout

	robots map[string]*fleet.Robot
	order  []string // stable iteration order

	queues     map[string][]TaskSpec
	errorUntil map[string]time.Time

	taskCounter int
	tickCount   int

	tickInterval time.Duration
	writer       StateWriter
	alertWriter  AlertWriter

	engine       Evaluator
	alerts       AlertSource
	broadcasters []Broadcaster

	rand *rand.Rand
	now  func() time.Time
}

// BuildLayout converts the facility section of the config into a layout.
func BuildLayout(fc config.FacilityConfig) *facility.Layout {
	zones := make(map[string]facility.Rect, len(fc.Zones))
	for _, z := range fc.Zones {
		zones[z.Name] = facility.Rect{XMin: z.XMin, XMax: z.XMax, YMin: z.YMin, YMax: z.YMax}
	}
	stations := make(map[string]fleet.Position, len(fc.Stations))
	for _, s := range fc.Stations {
		stations[s.Name] = fleet.Position{X: s.X, Y: s.Y}
	}
	chargers := make(map[string]fleet.Position, len(fc.Chargers))
	for _, c := range fc.Chargers {
		chargers[c.Name] = fleet.Position{X: c.X, Y: c.Y}
	}
	return facility.New(fc.Width, fc.Height, zones, stations, chargers)
}

// NewSimulator initializes robots from the fleet config. A zero seed
// derives one from the clock, keeping startup "deterministic-ish".
func NewSimulator(fleetID string, cfg *config.SimulationConfig, layout *facility.Layout, writer StateWriter, alertWriter AlertWriter, tickInterval time.Duration) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Simulator{
		fleetID:      fleetID,
		cfg:          cfg,
		layout:       layout,
		robots:       make(map[string]*fleet.Robot),
		queues:       make(map[string][]TaskSpec),
		errorUntil:   make(map[string]time.Time),
		tickInterval: tickInterval,
		writer:       writer,
		alertWriter:  alertWriter,
		rand:         rand.New(rand.NewSource(seed)),
		now:          time.Now,
	}
	s.initFleet()
	return s
}

func (s *Simulator) initFleet() {
	for _, fc := range s.cfg.Fleets {
		vendor := fleet.Vendor(fc.Vendor)
		cap := fleet.CapabilityFor(vendor)
		for i := 0; i < fc.Count; i++ {
			id := fmt.Sprintf("%s-%03d", fc.Name, i+1)
			pos := s.layout.Clamp(fleet.Position{
				X: s.rand.Float64() * s.layout.Width,
				Y: s.rand.Float64() * s.layout.Height,
			})
			batMin, batMax := fc.BatteryMin, fc.BatteryMax
			if batMax <= batMin {
				batMin, batMax = 40, 100
			}
			r := &fleet.Robot{
				ID:       id,
				Name:     id,
				Vendor:   vendor,
				Model:    cap.Model,
				Position: pos,
				Heading:  s.rand.Float64() * 360,
				Battery:  batMin + s.rand.Float64()*(batMax-batMin),
				Status:   fleet.StatusIdle,
				Zone:     s.layout.ZoneFor(pos),
			}
			s.robots[id] = r
			s.order = append(s.order, id)
		}
	}
	sort.Strings(s.order)

	// start roughly half the fleet on tasks right away
	for i, id := range s.order {
		if i%2 == 0 {
			s.startRandomTask(s.robots[id])
		}
	}
}

func (s *Simulator) nextTaskID() string {
	s.taskCounter++
	return fmt.Sprintf("T-%04d", s.taskCounter)
}

// Snapshot returns deep copies of all robot states ordered by id. Never a
// live reference; callers cannot race the next tick's mutation.
func (s *Simulator) Snapshot() []fleet.Robot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() []fleet.Robot {
	out := make([]fleet.Robot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.robots[id].Clone())
	}
	return out
}

// Robot returns a deep copy of a single robot's state.
func (s *Simulator) Robot(id string) (fleet.Robot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.robots[id]
	if !ok {
		return fleet.Robot{}, fleet.ErrUnknownRobot
	}
	return r.Clone(), nil
}

// TickCount returns the number of completed ticks.
func (s *Simulator) TickCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickCount
}

// TickInterval returns the configured tick cadence.
func (s *Simulator) TickInterval() time.Duration {
	return s.tickInterval
}

// Layout returns the facility layout (immutable after construction).
func (s *Simulator) Layout() *facility.Layout {
	return s.layout
}

// FleetID returns the fleet identity used in sink rows.
func (s *Simulator) FleetID() string {
	return s.fleetID
}

// SetEvaluator attaches the conflict engine run after each tick.
func (s *Simulator) SetEvaluator(e Evaluator) {
	s.engine = e
}

// SetAlertSource attaches the store queried for active alerts at publish.
func (s *Simulator) SetAlertSource(src AlertSource) {
	s.alerts = src
}

// AddBroadcaster registers an observer publisher.
func (s *Simulator) AddBroadcaster(b Broadcaster) {
	s.broadcasters = append(s.broadcasters, b)
}

// Summary aggregates fleet status counts.
type Summary struct {
	Total    int            `json:"total_robots"`
	Active   int            `json:"active"`
	Idle     int            `json:"idle"`
	Error    int            `json:"error"`
	Charging int            `json:"charging"`
	Offline  int            `json:"offline"`
	Vendors  map[string]int `json:"vendors"`
	Ticks    int            `json:"tick_count"`
}

// Summarize returns fleet-wide status counts.
func (s *Simulator) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{Total: len(s.robots), Vendors: make(map[string]int), Ticks: s.tickCount}
	for _, r := range s.robots {
		switch r.Status {
		case fleet.StatusActive:
			sum.Active++
		case fleet.StatusIdle:
			sum.Idle++
		case fleet.StatusError:
			sum.Error++
		case fleet.StatusCharging:
			sum.Charging++
		case fleet.StatusOffline:
			sum.Offline++
		}
		sum.Vendors[string(r.Vendor)]++
	}
	return sum
}
