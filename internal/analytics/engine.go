// Read-only fleet analytics computed from simulator snapshots.
package analytics

import (
	"math"
	"sort"
	"time"

	"fleetops-sim/internal/facility"
	"fleetops-sim/internal/fleet"
)

// Source is the simulator surface analytics reads from. Snapshots are
// deep copies, so reports never race the tick loop.
type Source interface {
	Snapshot() []fleet.Robot
	TickCount() int
	TickInterval() time.Duration
	Layout() *facility.Layout
}

// Engine computes aggregate reports over the current fleet state.
type Engine struct {
	src Source
}

// New creates an analytics engine over a snapshot source.
func New(src Source) *Engine {
	return &Engine{src: src}
}

// ErrorCount is one entry in the top-errors list.
type ErrorCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailySummary holds fleet-wide KPIs since startup.
type DailySummary struct {
	TotalTasks      int          `json:"total_tasks"`
	TotalDistanceKM float64      `json:"total_distance_km"`
	AvgTaskTimeMin  float64      `json:"avg_task_time_min"`
	UptimePercent   float64      `json:"uptime_percent"`
	TopErrors       []ErrorCount `json:"top_errors"`
}

// gridToKM converts grid units to kilometers, approximating one grid
// unit as 25 meters of warehouse floor.
const gridToKM = 0.025

// DailySummary computes today's fleet-wide KPIs.
func (e *Engine) DailySummary() DailySummary {
	robots := e.src.Snapshot()
	elapsed := float64(e.src.TickCount()) * e.src.TickInterval().Seconds()

	var totalTasks int
	var totalDistance, errorSeconds, chargeSeconds float64
	var taskTimes []float64
	errCounts := map[string]ErrorCount{}
	for _, r := range robots {
		totalTasks += r.Stats.TasksCompleted
		totalDistance += r.Stats.Distance
		errorSeconds += r.Stats.ErrorSeconds
		chargeSeconds += r.Stats.ChargeSeconds
		taskTimes = append(taskTimes, r.Stats.TaskSeconds...)
		if r.LastErr != nil {
			c := errCounts[r.LastErr.Code]
			c.Code = r.LastErr.Code
			c.Name = r.LastErr.Name
			c.Count++
			errCounts[r.LastErr.Code] = c
		}
	}

	top := make([]ErrorCount, 0, len(errCounts))
	for _, c := range errCounts {
		top = append(top, c)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Code < top[j].Code
	})
	if len(top) > 5 {
		top = top[:5]
	}

	return DailySummary{
		TotalTasks:      totalTasks,
		TotalDistanceKM: round1(totalDistance * gridToKM),
		AvgTaskTimeMin:  round1(avgMinutes(taskTimes)),
		UptimePercent:   round1(uptime(elapsed, len(robots), errorSeconds, chargeSeconds)),
		TopErrors:       top,
	}
}

// VendorMetrics compares one vendor's share of the fleet.
type VendorMetrics struct {
	Vendor           string  `json:"vendor"`
	RobotCount       int     `json:"robot_count"`
	TotalTasks       int     `json:"total_tasks"`
	TasksPerRobot    float64 `json:"tasks_per_robot"`
	AvgTaskTimeMin   float64 `json:"avg_task_time_min"`
	TotalErrors      int     `json:"total_errors"`
	ErrorRatePercent float64 `json:"error_rate_percent"`
	UptimePercent    float64 `json:"uptime_percent"`
	AvgBattery       float64 `json:"avg_battery"`
}

// VendorComparison aggregates performance per vendor, ordered by the
// canonical vendor list.
func (e *Engine) VendorComparison() []VendorMetrics {
	robots := e.src.Snapshot()
	elapsed := float64(e.src.TickCount()) * e.src.TickInterval().Seconds()

	groups := map[fleet.Vendor][]fleet.Robot{}
	for _, r := range robots {
		groups[r.Vendor] = append(groups[r.Vendor], r)
	}

	var out []VendorMetrics
	for _, v := range fleet.Vendors() {
		grp := groups[v]
		if len(grp) == 0 {
			continue
		}
		var totalTasks, totalErrors int
		var errorSeconds, chargeSeconds, battery float64
		var taskTimes []float64
		for _, r := range grp {
			totalTasks += r.Stats.TasksCompleted
			totalErrors += r.Stats.ErrorCount
			errorSeconds += r.Stats.ErrorSeconds
			chargeSeconds += r.Stats.ChargeSeconds
			battery += r.Battery
			taskTimes = append(taskTimes, r.Stats.TaskSeconds...)
		}
		errRate := 0.0
		if totalTasks > 0 {
			errRate = float64(totalErrors) / float64(totalTasks) * 100
		}
		out = append(out, VendorMetrics{
			Vendor:           string(v),
			RobotCount:       len(grp),
			TotalTasks:       totalTasks,
			TasksPerRobot:    round1(float64(totalTasks) / float64(len(grp))),
			AvgTaskTimeMin:   round1(avgMinutes(taskTimes)),
			TotalErrors:      totalErrors,
			ErrorRatePercent: round1(errRate),
			UptimePercent:    round1(uptime(elapsed, len(grp), errorSeconds, chargeSeconds)),
			AvgBattery:       math.Round(battery / float64(len(grp))),
		})
	}
	return out
}

// RobotPerformance is one row of the per-robot performance table.
type RobotPerformance struct {
	RobotID        string  `json:"robot_id"`
	Vendor         string  `json:"vendor"`
	TasksCompleted int     `json:"tasks_completed"`
	AvgTaskTimeMin float64 `json:"avg_task_time_min"`
	ErrorCount     int     `json:"error_count"`
	UptimePercent  float64 `json:"uptime_percent"`
	TopPerformer   bool    `json:"is_top_performer"`
	NeedsAttention bool    `json:"needs_attention"`
}

// RobotPerformance returns the per-robot table sorted by tasks completed
// descending. Top performers are within 10% of the fleet's best.
func (e *Engine) RobotPerformance() []RobotPerformance {
	robots := e.src.Snapshot()
	elapsed := float64(e.src.TickCount()) * e.src.TickInterval().Seconds()

	maxTasks := 0
	for _, r := range robots {
		if r.Stats.TasksCompleted > maxTasks {
			maxTasks = r.Stats.TasksCompleted
		}
	}

	out := make([]RobotPerformance, 0, len(robots))
	for _, r := range robots {
		up := uptime(elapsed, 1, r.Stats.ErrorSeconds, r.Stats.ChargeSeconds)
		out = append(out, RobotPerformance{
			RobotID:        r.ID,
			Vendor:         string(r.Vendor),
			TasksCompleted: r.Stats.TasksCompleted,
			AvgTaskTimeMin: round1(avgMinutes(r.Stats.TaskSeconds)),
			ErrorCount:     r.Stats.ErrorCount,
			UptimePercent:  round1(up),
			TopPerformer:   maxTasks > 0 && float64(r.Stats.TasksCompleted) >= float64(maxTasks)*0.9,
			NeedsAttention: r.Stats.ErrorCount >= 3 || up < 90,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TasksCompleted != out[j].TasksCompleted {
			return out[i].TasksCompleted > out[j].TasksCompleted
		}
		return out[i].RobotID < out[j].RobotID
	})
	return out
}

// ZoneMetrics is per-zone activity for the facility view.
type ZoneMetrics struct {
	Zone           string  `json:"zone"`
	TaskCount      int     `json:"task_count"`
	ErrorCount     int     `json:"error_count"`
	AvgWaitTimeMin float64 `json:"avg_wait_time_min"`
	RobotCount     int     `json:"robot_count"`
	ActivityLevel  string  `json:"activity_level"`
}

// ZoneAnalysis returns per-zone occupancy and activity, ordered by zone
// name.
func (e *Engine) ZoneAnalysis() []ZoneMetrics {
	robots := e.src.Snapshot()
	layout := e.src.Layout()

	names := make([]string, 0, len(layout.Zones))
	for name := range layout.Zones {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ZoneMetrics, 0, len(names))
	for _, name := range names {
		rect := layout.Zones[name]
		var count, tasks, errs int
		for _, r := range robots {
			if !rect.Contains(r.Position) {
				continue
			}
			count++
			tasks += r.Stats.TasksCompleted
			if r.Status == fleet.StatusError {
				errs++
			}
		}
		out = append(out, ZoneMetrics{
			Zone:           name,
			TaskCount:      tasks,
			ErrorCount:     errs,
			AvgWaitTimeMin: round1(0.5 + float64(count)*0.4),
			RobotCount:     count,
			ActivityLevel:  activityLevel(count),
		})
	}
	return out
}

func activityLevel(robots int) string {
	switch {
	case robots >= 6:
		return "very_high"
	case robots >= 4:
		return "high"
	case robots >= 2:
		return "medium"
	default:
		return "low"
	}
}

func avgMinutes(seconds []float64) float64 {
	if len(seconds) == 0 {
		return 0
	}
	var sum float64
	for _, s := range seconds {
		sum += s
	}
	return sum / float64(len(seconds)) / 60
}

// uptime is the share of robot-time spent neither errored nor charging.
func uptime(elapsed float64, robots int, errorSeconds, chargeSeconds float64) float64 {
	total := elapsed * float64(robots)
	if total <= 0 {
		return 100
	}
	up := (total - errorSeconds - chargeSeconds) / total * 100
	return math.Max(0, up)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
