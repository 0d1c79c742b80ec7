// Telemetry row with greptime tags
package fleet

import (
	"os"
	"time"
)

// StateRow is one robot state record for downstream sinks.
type StateRow struct {
	FleetID   string    `json:"fleet_id"` // TAG
	RobotID   string    `json:"robot_id"` // TAG
	Vendor    string    `json:"vendor"`   // TAG
	X         float64   `json:"x"`        // FIELD
	Y         float64   `json:"y"`        // FIELD
	Heading   float64   `json:"heading"`  // FIELD
	Speed     float64   `json:"speed"`    // FIELD
	Battery   float64   `json:"battery"`  // FIELD
	Status    string    `json:"status"`   // FIELD
	Zone      string    `json:"zone"`     // FIELD
	TaskID    string    `json:"task_id"`  // FIELD
	Timestamp time.Time `json:"ts"`       // TIME INDEX
}

// StateTableName is the sink table for robot state rows. Defaults to
// "robot_state", overridable via the ROBOT_STATE_TABLE environment variable.
var StateTableName = func() string {
	if env := os.Getenv("ROBOT_STATE_TABLE"); env != "" {
		return env
	}
	return "robot_state"
}()

func (StateRow) TableName() string {
	return StateTableName
}

// StateRowFrom flattens a robot snapshot into a sink row.
func StateRowFrom(fleetID string, r Robot, ts time.Time) StateRow {
	taskID := ""
	if r.Task != nil {
		taskID = r.Task.ID
	}
	return StateRow{
		FleetID:   fleetID,
		RobotID:   r.ID,
		Vendor:    string(r.Vendor),
		X:         r.Position.X,
		Y:         r.Position.Y,
		Heading:   r.Heading,
		Speed:     r.Speed,
		Battery:   r.Battery,
		Status:    string(r.Status),
		Zone:      r.Zone,
		TaskID:    taskID,
		Timestamp: ts,
	}
}
