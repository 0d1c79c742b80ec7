package sim

import (
	"fmt"

	"fleetops-sim/internal/fleet"
)

// TaskSpec is an operator-submitted task request. Empty stations are
// filled with a random pair from the layout.
type TaskSpec struct {
	Type        string `json:"task_type"`
	FromStation string `json:"from_station"`
	ToStation   string `json:"to_station"`
}

// AssignTask gives a robot a task. An idle robot starts immediately; an
// active or charging robot has the task queued behind its current work.
// Robots in error or offline state reject the command outright.
func (s *Simulator) AssignTask(robotID string, spec TaskSpec) (queued bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.robots[robotID]
	if !ok {
		return false, fmt.Errorf("assign task: %w: %s", fleet.ErrUnknownRobot, robotID)
	}
	def, ok := fleet.TaskDefByID(spec.Type)
	if !ok {
		return false, fmt.Errorf("assign task: unknown task type %q", spec.Type)
	}
	if !fleet.VendorCanExecute(r.Vendor, def.ID) {
		return false, fmt.Errorf("assign task: %w: %s cannot run %s", fleet.ErrInvalidVendorTask, r.Vendor, def.ID)
	}

	switch r.Status {
	case fleet.StatusIdle:
		s.startTask(r, def.ID, spec.FromStation, spec.ToStation, s.now())
		return false, nil
	case fleet.StatusActive, fleet.StatusCharging:
		max := s.cfg.Behavior.QueueCapacity
		if max <= 0 {
			max = 4
		}
		if len(s.queues[robotID]) >= max {
			return false, fmt.Errorf("assign task: %w: queue full for %s", fleet.ErrRobotBusy, robotID)
		}
		s.queues[robotID] = append(s.queues[robotID], spec)
		return true, nil
	default:
		return false, fmt.Errorf("assign task: %w: %s is %s", fleet.ErrRobotBusy, robotID, r.Status)
	}
}

// QueuedTasks returns a copy of a robot's pending task queue.
func (s *Simulator) QueuedTasks(robotID string) []TaskSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TaskSpec(nil), s.queues[robotID]...)
}

// SendToCharging cancels the robot's current work and routes it to the
// nearest charger.
func (s *Simulator) SendToCharging(robotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.robots[robotID]
	if !ok {
		return fmt.Errorf("send to charging: %w: %s", fleet.ErrUnknownRobot, robotID)
	}
	switch r.Status {
	case fleet.StatusError, fleet.StatusOffline:
		return fmt.Errorf("send to charging: %w: %s is %s", fleet.ErrRobotBusy, robotID, r.Status)
	case fleet.StatusCharging:
		return nil
	}
	if name, _, _ := s.layout.NearestCharger(r.Position); name == "" {
		return fmt.Errorf("send to charging: no chargers in layout")
	}
	now := s.now()
	if r.Task != nil {
		s.cancelTask(r, "operator command", now)
	}
	s.seekCharger(r, now)
	return nil
}

// ClearError resolves a robot's error state immediately. A no-op for
// robots not in error.
func (s *Simulator) ClearError(robotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.robots[robotID]
	if !ok {
		return fmt.Errorf("clear error: %w: %s", fleet.ErrUnknownRobot, robotID)
	}
	if r.Status != fleet.StatusError {
		return nil
	}
	delete(s.errorUntil, r.ID)
	s.clearErrorLocked(r, s.now())
	return nil
}

// PauseRobot takes a robot offline. Its current task is cancelled and
// its queue dropped.
func (s *Simulator) PauseRobot(robotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.robots[robotID]
	if !ok {
		return fmt.Errorf("pause: %w: %s", fleet.ErrUnknownRobot, robotID)
	}
	if r.Status == fleet.StatusOffline {
		return nil
	}
	now := s.now()
	if r.Task != nil {
		s.cancelTask(r, "robot paused", now)
	}
	delete(s.queues, robotID)
	delete(s.errorUntil, robotID)
	r.Status = fleet.StatusOffline
	r.Speed = 0
	s.appendActivity(r, "taken offline", "command", now)
	return nil
}

// ResumeRobot brings a paused robot back as idle.
func (s *Simulator) ResumeRobot(robotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.robots[robotID]
	if !ok {
		return fmt.Errorf("resume: %w: %s", fleet.ErrUnknownRobot, robotID)
	}
	if r.Status != fleet.StatusOffline {
		return nil
	}
	r.Status = fleet.StatusIdle
	s.appendActivity(r, "back online", "command", s.now())
	return nil
}
