package conflict

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/errorkb"
	"fleetops-sim/internal/facility"
	"fleetops-sim/internal/fleet"
)

// checkRobotErrors raises a critical alert for every robot currently in
// the error state, so the alert feed mirrors the fleet's fault count.
func (e *Engine) checkRobotErrors(robots []fleet.Robot) ([]alert.Alert, error) {
	var out []alert.Alert
	for _, r := range robots {
		if r.Status != fleet.StatusError {
			continue
		}
		code, name := "UNKNOWN", "Unknown error"
		if r.LastErr != nil {
			code, name = r.LastErr.Code, r.LastErr.Name
		}
		action := fmt.Sprintf("Clear the error on %s or send a technician to (%.0f, %.0f) in %s.",
			r.ID, r.Position.X, r.Position.Y, r.Zone)
		if entry, ok := errorkb.Lookup(code); ok && len(entry.Remediation) > 0 {
			action = fmt.Sprintf("%s %s", action, entry.Remediation[0]+".")
		}
		pos := r.Position
		out = append(out, newAlert(
			alert.TypeRobotError,
			alert.SeverityCritical,
			fmt.Sprintf("Error: %s (%s)", r.ID, name),
			fmt.Sprintf("%s (%s) is in ERROR state with code %s (%s). Battery: %.0f%%, Zone: %s.",
				r.ID, r.Vendor, code, name, r.Battery, r.Zone),
			action,
			[]string{r.ID},
			&pos,
		))
	}
	return out, nil
}

// checkDeadlocks flags pairs of stationary robots that mutually block each
// other's route. The condition must persist for the grace window before a
// finding is produced, so transient stops do not flap.
func (e *Engine) checkDeadlocks(robots []fleet.Robot) ([]alert.Alert, error) {
	var out []alert.Alert
	seen := make(map[string]struct{})

	var candidates []fleet.Robot
	for _, r := range robots {
		if !r.Moving() && r.Task != nil && r.Status != fleet.StatusOffline && r.Status != fleet.StatusCharging {
			candidates = append(candidates, r)
		}
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			r1, r2 := candidates[i], candidates[j]
			if r1.Position.Distance(r2.Position) > e.cfg.DeadlockDistance {
				continue
			}
			if !e.onRoute(r1, r2.Position) || !e.onRoute(r2, r1.Position) {
				continue
			}
			key := pairKey(r1.ID, r2.ID)
			seen[key] = struct{}{}
			e.pairStops[key]++
			if e.pairStops[key] <= e.cfg.DeadlockGraceTicks {
				continue
			}
			pos := r1.Position
			out = append(out, newAlert(
				alert.TypeDeadlock,
				alert.SeverityCritical,
				fmt.Sprintf("Deadlock: %s and %s", r1.ID, r2.ID),
				fmt.Sprintf("%s (%s) and %s (%s) are blocking each other near (%.0f, %.0f). Neither robot can proceed to its destination.",
					r1.ID, r1.Vendor, r2.ID, r2.Vendor, r1.Position.X, r1.Position.Y),
				fmt.Sprintf("Override %s to reverse 3 meters, then let %s proceed. Alternatively, cancel one robot's task.",
					r2.ID, r1.ID),
				[]string{r1.ID, r2.ID},
				&pos,
			))
		}
	}

	// reset grace counters for pairs no longer in a blocking posture
	for key := range e.pairStops {
		if _, ok := seen[key]; !ok {
			delete(e.pairStops, key)
		}
	}
	return out, nil
}

// onRoute reports whether p lies inside the narrow corridor between the
// robot and its task destination, truncated at the blockage lookahead.
func (e *Engine) onRoute(r fleet.Robot, p fleet.Position) bool {
	if r.Task == nil {
		return false
	}
	end := facility.ProjectAlong(r.Position, r.Task.Destination, e.cfg.BlockageLookahead)
	return facility.PointSegmentDistance(p, r.Position, end) < e.cfg.CorridorWidth
}

// checkCollisionCourses projects pairs of moving robots forward along
// their current heading and flags pairs whose projected separation drops
// below the collision threshold within the horizon.
func (e *Engine) checkCollisionCourses(robots []fleet.Robot) ([]alert.Alert, error) {
	var active []fleet.Robot
	for _, r := range robots {
		if r.Status == fleet.StatusActive && r.Moving() {
			active = append(active, r)
		}
	}

	var out []alert.Alert
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			r1, r2 := active[i], active[j]
			if r1.Position.Distance(r2.Position) > e.cfg.ProximityRadius {
				continue
			}
			if eta, at, ok := e.projectIntersection(r1, r2); ok {
				ids := []string{r1.ID, r2.ID}
				sort.Strings(ids)
				out = append(out, newAlert(
					alert.TypeCollisionCourse,
					alert.SeverityWarning,
					fmt.Sprintf("Potential collision: %s and %s", ids[0], ids[1]),
					fmt.Sprintf("%s and %s are on a collision course. Estimated intersection in ~%.0fs near (%.0f, %.0f).",
						ids[0], ids[1], eta, at.X, at.Y),
					fmt.Sprintf("Pause %s for %.0f seconds to let %s clear the intersection.", r2.ID, eta, r1.ID),
					ids,
					&at,
				))
			}
		}
	}
	return out, nil
}

func (e *Engine) projectIntersection(r1, r2 fleet.Robot) (float64, fleet.Position, bool) {
	for t := e.cfg.CollisionStepS; t <= e.cfg.CollisionHorizonS; t += e.cfg.CollisionStepS {
		p1 := projectPosition(r1, t)
		p2 := projectPosition(r2, t)
		if p1.Distance(p2) < e.cfg.CollisionThreshold {
			return t, p1, true
		}
	}
	return 0, fleet.Position{}, false
}

func projectPosition(r fleet.Robot, t float64) fleet.Position {
	rad := r.Heading * math.Pi / 180
	return fleet.Position{
		X: r.Position.X + math.Cos(rad)*r.Speed*t,
		Y: r.Position.Y + math.Sin(rad)*r.Speed*t,
	}
}

// checkCongestion flags zones whose robot density exceeds the configured
// limit. The threshold scales with zone area, so a small buffer zone
// saturates before a large storage zone.
func (e *Engine) checkCongestion(robots []fleet.Robot) ([]alert.Alert, error) {
	byZone := make(map[string][]string)
	for _, r := range robots {
		if r.Status == fleet.StatusOffline {
			continue
		}
		byZone[r.Zone] = append(byZone[r.Zone], r.ID)
	}

	var out []alert.Alert
	for zone, ids := range byZone {
		rect, ok := e.layout.Zones[zone]
		if !ok {
			continue
		}
		area := rect.Area()
		if area <= 0 {
			return nil, fmt.Errorf("zone %q has non-positive area", zone)
		}
		if float64(len(ids))/area <= e.cfg.CongestionDensity {
			continue
		}
		sort.Strings(ids)
		listed := ids
		suffix := ""
		if len(listed) > 5 {
			listed = listed[:5]
			suffix = "..."
		}
		out = append(out, newAlert(
			alert.TypeCongestion,
			alert.SeverityWarning,
			fmt.Sprintf("Congestion in %s", zone),
			fmt.Sprintf("%s has %d robots, exceeding its density limit. Robots: %s%s. Expected wait times may increase.",
				zone, len(ids), strings.Join(listed, ", "), suffix),
			"Reroute 2-3 robots to adjacent zones to reduce density.",
			ids,
			nil,
		))
	}
	return out, nil
}

// checkBatteryCritical flags robots running a task on a battery that is
// unlikely to cover both the task and a trip to a charger. Severity
// escalates as the battery approaches zero.
func (e *Engine) checkBatteryCritical(robots []fleet.Robot) ([]alert.Alert, error) {
	var out []alert.Alert
	for _, r := range robots {
		if r.Status == fleet.StatusCharging || r.Status == fleet.StatusOffline {
			continue
		}
		if r.Task == nil || r.Battery >= e.cfg.BatteryWarn {
			continue
		}
		sev := alert.SeverityWarning
		if r.Battery <= e.cfg.BatteryCritical {
			sev = alert.SeverityCritical
		}
		_, _, chargerDist := e.layout.NearestCharger(r.Position)
		pos := r.Position
		out = append(out, newAlert(
			alert.TypeBatteryCritical,
			sev,
			fmt.Sprintf("Battery critical: %s (%.0f%%)", r.ID, r.Battery),
			fmt.Sprintf("%s (%s) has %.0f%% battery and an active task. It may not complete the task and reach a charging station. Nearest charger is %.0f units away.",
				r.ID, r.Vendor, r.Battery, chargerDist),
			fmt.Sprintf("Send %s directly to the charging station %.0f units away. Abort the current task first.",
				r.ID, chargerDist),
			[]string{r.ID},
			&pos,
		))
	}
	return out, nil
}

// checkPathBlocked flags active robots whose straight-line route to the
// task destination is obstructed by an idle or errored robot within the
// lookahead distance.
func (e *Engine) checkPathBlocked(robots []fleet.Robot) ([]alert.Alert, error) {
	var out []alert.Alert
	for _, r := range robots {
		if r.Status != fleet.StatusActive || r.Task == nil {
			continue
		}
		for _, other := range robots {
			if other.ID == r.ID {
				continue
			}
			if other.Status != fleet.StatusIdle && other.Status != fleet.StatusError {
				continue
			}
			if r.Position.Distance(other.Position) > e.cfg.BlockageLookahead {
				continue
			}
			if !e.onRoute(r, other.Position) {
				continue
			}
			state := "idle"
			if other.Status == fleet.StatusError {
				state = "in error state"
			}
			pos := other.Position
			out = append(out, newAlert(
				alert.TypePathBlocked,
				alert.SeverityWarning,
				fmt.Sprintf("Path blocked: %s by %s", r.ID, other.ID),
				fmt.Sprintf("%s (%s) cannot proceed: its path is blocked by %s (%s) at (%.0f, %.0f), which is %s.",
					r.ID, r.Vendor, other.ID, other.Vendor, other.Position.X, other.Position.Y, state),
				fmt.Sprintf("Move %s out of the way: assign it a new task or send it to a parking zone.", other.ID),
				[]string{r.ID, other.ID},
				&pos,
			))
			break // one blocker per robot
		}
	}
	return out, nil
}
