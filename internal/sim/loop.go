package sim

import (
	"context"
	"log/slog"
	"time"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"
	"fleetops-sim/internal/logging"
)

// Run drives the tick loop until ctx is cancelled. One step per tick:
// advance the fleet, run the conflict engine, publish state and alerts.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	log := logging.FromContext(ctx)
	log.Info("simulation loop started",
		"fleet", s.fleetID,
		"robots", len(s.robots),
		"tick", s.tickInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("simulation loop stopped", "ticks", s.TickCount())
			return
		case <-ticker.C:
			s.Step(ctx)
		}
	}
}

// Step runs exactly one tick. Exported so tests and the print-only mode
// can drive the loop without a ticker.
func (s *Simulator) Step(ctx context.Context) {
	dt := s.tickInterval.Seconds()

	s.mu.Lock()
	s.tickCount++
	s.tick(dt)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	// Engine and store see copies only; the next tick cannot race them.
	if s.engine != nil {
		s.engine.Evaluate(snap)
	}
	var active []alert.Alert
	if s.alerts != nil {
		active = s.alerts.Active()
	}

	s.publish(ctx, snap, active)
}

func (s *Simulator) publish(ctx context.Context, robots []fleet.Robot, alerts []alert.Alert) {
	log := logging.FromContext(ctx)
	ts := s.now()

	if s.writer != nil {
		rows := make([]fleet.StateRow, 0, len(robots))
		for _, r := range robots {
			rows = append(rows, fleet.StateRowFrom(s.fleetID, r, ts))
		}
		if bw, ok := s.writer.(batchStateWriter); ok {
			if err := bw.WriteStates(rows); err != nil {
				log.Error("state batch write failed", "error", err)
			}
		} else {
			for _, row := range rows {
				if err := s.writer.WriteState(row); err != nil {
					log.Error("state write failed", "robot", row.RobotID, "error", err)
				}
			}
		}
	}

	if s.alertWriter != nil && len(alerts) > 0 {
		rows := make([]alert.Row, 0, len(alerts))
		for _, a := range alerts {
			rows = append(rows, alert.RowFrom(s.fleetID, a, ts))
		}
		if bw, ok := s.alertWriter.(batchAlertWriter); ok {
			if err := bw.WriteAlerts(rows); err != nil {
				log.Error("alert batch write failed", "error", err)
			}
		} else {
			for _, row := range rows {
				if err := s.alertWriter.WriteAlert(row); err != nil {
					log.Error("alert write failed", "alert", row.AlertID, "error", err)
				}
			}
		}
	}

	for _, b := range s.broadcasters {
		s.broadcast(log, b, robots, alerts)
	}
}

// broadcast isolates one broadcaster; a panic there is logged, not fatal.
func (s *Simulator) broadcast(log *slog.Logger, b Broadcaster, robots []fleet.Robot, alerts []alert.Alert) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("broadcaster panicked", "panic", rec)
		}
	}()
	b.Broadcast(robots, alerts)
}
