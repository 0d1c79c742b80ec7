// Core robot and task types shared across the simulator and conflict engine.
package fleet

import (
	"math"
	"time"
)

// Position is a point on the warehouse grid, in grid units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance to another position.
func (p Position) Distance(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Status is the operational state of a robot.
type Status string

const (
	StatusActive   Status = "active"
	StatusIdle     Status = "idle"
	StatusError    Status = "error"
	StatusCharging Status = "charging"
	StatusOffline  Status = "offline"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task is a unit of work owned by a single robot.
type Task struct {
	ID          string     `json:"task_id"`
	Type        string     `json:"task_type"`
	FromStation string     `json:"from_station"`
	ToStation   string     `json:"to_station"`
	Destination Position   `json:"destination"`
	Status      TaskStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ETASeconds  float64    `json:"eta_seconds"`
}

// ErrorInfo describes the robot's most recent fault.
type ErrorInfo struct {
	Code        string    `json:"error_code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	At          time.Time `json:"timestamp"`
	Resolved    bool      `json:"resolved"`
}

// Activity is one entry in a robot's recent activity log.
type Activity struct {
	At          time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Kind        string    `json:"type"`
}

// Stats accumulates per-robot counters over the simulation lifetime.
type Stats struct {
	TasksCompleted int       `json:"tasks_completed"`
	Distance       float64   `json:"distance"`
	ErrorCount     int       `json:"error_count"`
	ErrorSeconds   float64   `json:"error_seconds"`
	ChargeSeconds  float64   `json:"charge_seconds"`
	TaskSeconds    []float64 `json:"-"`
}

// Robot holds the unified state of one simulated robot.
type Robot struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Vendor   Vendor     `json:"vendor"`
	Model    string     `json:"model"`
	Position Position   `json:"position"`
	Heading  float64    `json:"heading"` // degrees, 0-360
	Speed    float64    `json:"speed"`   // grid units per second
	Battery  float64    `json:"battery"` // percent, 0-100
	Status   Status     `json:"status"`
	Zone     string     `json:"zone"`
	Task     *Task      `json:"current_task,omitempty"`
	LastErr  *ErrorInfo `json:"last_error,omitempty"`
	Trail    []Position `json:"trail"`
	Activity []Activity `json:"recent_activity"`
	Stats    Stats      `json:"stats"`
}

// Moving reports whether the robot is effectively in motion.
func (r *Robot) Moving() bool {
	return r.Speed > 0.05
}

// Clone returns a deep copy safe to hand to readers outside the tick loop.
func (r *Robot) Clone() Robot {
	c := *r
	if r.Task != nil {
		t := *r.Task
		if r.Task.CompletedAt != nil {
			at := *r.Task.CompletedAt
			t.CompletedAt = &at
		}
		c.Task = &t
	}
	if r.LastErr != nil {
		e := *r.LastErr
		c.LastErr = &e
	}
	c.Trail = append([]Position(nil), r.Trail...)
	c.Activity = append([]Activity(nil), r.Activity...)
	c.Stats.TaskSeconds = append([]float64(nil), r.Stats.TaskSeconds...)
	return c
}
