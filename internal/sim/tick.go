package sim

import (
	"fmt"
	"math"
	"time"

	"fleetops-sim/internal/errorkb"
	"fleetops-sim/internal/fleet"
)

const (
	arriveRadius     = 1.0
	idleDrainFactor  = 0.3
	lowBatterySeek   = 15.0
	chargerDockRange = 2.0
	fullCharge       = 95.0
	activityLogCap   = 20
	speedJitter      = 0.15
)

// tick advances every robot by dt seconds. Caller holds s.mu.
func (s *Simulator) tick(dt float64) {
	now := s.now()
	for _, id := range s.order {
		r := s.robots[id]
		s.appendTrail(r)

		switch r.Status {
		case fleet.StatusOffline:
			continue
		case fleet.StatusError:
			r.Stats.ErrorSeconds += dt
			s.maybeResolveError(r, now)
			continue
		}

		s.updateBattery(r, dt, now)

		switch r.Status {
		case fleet.StatusCharging:
			continue
		case fleet.StatusActive:
			s.moveRobot(r, dt, now)
		case fleet.StatusIdle:
			if s.rand.Float64() < s.cfg.Behavior.TaskAssignProb {
				s.startRandomTask(r)
			}
		}

		s.maybeInjectError(r, now)
	}
}

func (s *Simulator) appendTrail(r *fleet.Robot) {
	cap := s.cfg.Behavior.TrailLength
	if cap <= 0 {
		cap = 60
	}
	r.Trail = append(r.Trail, r.Position)
	if len(r.Trail) > cap {
		r.Trail = r.Trail[len(r.Trail)-cap:]
	}
}

func (s *Simulator) updateBattery(r *fleet.Robot, dt float64, now time.Time) {
	cap := fleet.CapabilityFor(r.Vendor)

	if r.Status == fleet.StatusCharging {
		r.Battery = math.Min(100, r.Battery+cap.ChargePerMinute*dt/60)
		r.Stats.ChargeSeconds += dt
		if r.Battery >= fullCharge {
			r.Status = fleet.StatusIdle
			r.Speed = 0
			s.appendActivity(r, "charge complete", "charging", now)
		}
		return
	}

	drain := cap.DrainPerMinute * dt / 60
	if r.Status == fleet.StatusIdle {
		drain *= idleDrainFactor
	}
	r.Battery = math.Max(0, r.Battery-drain)

	// Below the seek threshold the robot abandons its work and heads for
	// the nearest charger on its own.
	if r.Battery < lowBatterySeek && r.Status != fleet.StatusCharging {
		s.seekCharger(r, now)
	}
}

func (s *Simulator) seekCharger(r *fleet.Robot, now time.Time) {
	name, pos, _ := s.layout.NearestCharger(r.Position)
	if name == "" {
		return
	}
	if r.Position.Distance(pos) <= chargerDockRange {
		if r.Task != nil && r.Task.Type != "charging" {
			s.cancelTask(r, "low battery", now)
		}
		r.Task = nil
		r.Status = fleet.StatusCharging
		r.Speed = 0
		s.appendActivity(r, fmt.Sprintf("docked at %s", name), "charging", now)
		return
	}
	if r.Task != nil && r.Task.Type == "charging" {
		return // already en route
	}
	if r.Task != nil {
		s.cancelTask(r, "low battery", now)
	}
	r.Task = &fleet.Task{
		ID:          s.nextTaskID(),
		Type:        "charging",
		ToStation:   name,
		Destination: pos,
		Status:      fleet.TaskInProgress,
		StartedAt:   now,
	}
	r.Status = fleet.StatusActive
	r.Speed = 1.0
	s.appendActivity(r, fmt.Sprintf("heading to %s (battery %.0f%%)", name, r.Battery), "charging", now)
}

func (s *Simulator) moveRobot(r *fleet.Robot, dt float64, now time.Time) {
	if r.Task == nil {
		r.Status = fleet.StatusIdle
		r.Speed = 0
		return
	}
	dest := r.Task.Destination
	dist := r.Position.Distance(dest)
	if dist <= arriveRadius {
		s.completeTask(r, now)
		return
	}

	speed := r.Speed
	if speed <= 0 {
		speed = 1.0
	}
	speed += (s.rand.Float64()*2 - 1) * speedJitter
	if speed < 0.2 {
		speed = 0.2
	}

	step := speed * dt
	if step > dist {
		step = dist
	}
	dx, dy := dest.X-r.Position.X, dest.Y-r.Position.Y
	r.Heading = math.Atan2(dy, dx) * 180 / math.Pi
	r.Position = s.layout.Clamp(fleet.Position{
		X: r.Position.X + dx/dist*step,
		Y: r.Position.Y + dy/dist*step,
	})
	r.Zone = s.layout.ZoneFor(r.Position)
	r.Speed = speed
	r.Stats.Distance += step
	if speed > 0 {
		r.Task.ETASeconds = r.Position.Distance(dest) / speed
	}
}

func (s *Simulator) startRandomTask(r *fleet.Robot) {
	defs := fleet.TasksForVendor(r.Vendor)
	if len(defs) == 0 {
		return
	}
	def := defs[s.rand.Intn(len(defs))]
	from, to := s.layout.RandomStationPair(s.rand)
	s.startTask(r, def.ID, from, to, s.now())
}

func (s *Simulator) startTask(r *fleet.Robot, taskType, from, to string, now time.Time) *fleet.Task {
	dest, ok := s.layout.Station(to)
	if !ok {
		from, to = s.layout.RandomStationPair(s.rand)
		dest, _ = s.layout.Station(to)
	}
	cap := fleet.CapabilityFor(r.Vendor)
	speed := cap.SpeedMin + s.rand.Float64()*(cap.SpeedMax-cap.SpeedMin)
	t := &fleet.Task{
		ID:          s.nextTaskID(),
		Type:        taskType,
		FromStation: from,
		ToStation:   to,
		Destination: dest,
		Status:      fleet.TaskInProgress,
		StartedAt:   now,
	}
	r.Task = t
	r.Status = fleet.StatusActive
	r.Speed = speed
	if speed > 0 {
		t.ETASeconds = r.Position.Distance(dest) / speed
	}
	s.appendActivity(r, fmt.Sprintf("started %s %s -> %s", taskType, from, to), "task", now)
	return t
}

func (s *Simulator) completeTask(r *fleet.Robot, now time.Time) {
	t := r.Task
	t.Status = fleet.TaskCompleted
	t.CompletedAt = &now
	r.Stats.TasksCompleted++
	r.Stats.TaskSeconds = append(r.Stats.TaskSeconds, now.Sub(t.StartedAt).Seconds())
	r.Task = nil
	r.Status = fleet.StatusIdle
	r.Speed = 0
	s.appendActivity(r, fmt.Sprintf("completed %s at %s", t.Type, t.ToStation), "task", now)

	if q := s.queues[r.ID]; len(q) > 0 {
		next := q[0]
		s.queues[r.ID] = q[1:]
		s.startTask(r, next.Type, next.FromStation, next.ToStation, now)
	}
}

func (s *Simulator) cancelTask(r *fleet.Robot, reason string, now time.Time) {
	if r.Task == nil {
		return
	}
	r.Task.Status = fleet.TaskCancelled
	s.appendActivity(r, fmt.Sprintf("cancelled %s (%s)", r.Task.Type, reason), "task", now)
	r.Task = nil
}

func (s *Simulator) maybeInjectError(r *fleet.Robot, now time.Time) {
	cap := fleet.CapabilityFor(r.Vendor)
	if s.rand.Float64() >= cap.ErrorProbPerTick {
		return
	}
	entry := errorkb.Random(r.Vendor, s.rand)
	r.Status = fleet.StatusError
	r.Speed = 0
	r.LastErr = &fleet.ErrorInfo{
		Code:        entry.Code,
		Name:        entry.Name,
		Description: entry.Description,
		Severity:    string(entry.Severity),
		At:          now,
	}
	r.Stats.ErrorCount++

	minS, maxS := s.cfg.Behavior.ErrorResolveMinS, s.cfg.Behavior.ErrorResolveMaxS
	if maxS <= minS {
		minS, maxS = 10, 60
	}
	hold := time.Duration((minS + s.rand.Float64()*(maxS-minS)) * float64(time.Second))
	s.errorUntil[r.ID] = now.Add(hold)
	s.appendActivity(r, fmt.Sprintf("error %s: %s", entry.Code, entry.Name), "error", now)
}

func (s *Simulator) maybeResolveError(r *fleet.Robot, now time.Time) {
	until, ok := s.errorUntil[r.ID]
	if !ok || now.Before(until) {
		return
	}
	delete(s.errorUntil, r.ID)
	s.clearErrorLocked(r, now)
}

func (s *Simulator) clearErrorLocked(r *fleet.Robot, now time.Time) {
	if r.LastErr != nil {
		r.LastErr.Resolved = true
	}
	if r.Task != nil {
		r.Status = fleet.StatusActive
	} else {
		r.Status = fleet.StatusIdle
	}
	s.appendActivity(r, "error resolved", "error", now)
}

// appendActivity prepends to the bounded per-robot activity log.
func (s *Simulator) appendActivity(r *fleet.Robot, desc, kind string, now time.Time) {
	entry := fleet.Activity{At: now, Kind: kind, Description: desc}
	r.Activity = append([]fleet.Activity{entry}, r.Activity...)
	if len(r.Activity) > activityLogCap {
		r.Activity = r.Activity[:activityLogCap]
	}
}
