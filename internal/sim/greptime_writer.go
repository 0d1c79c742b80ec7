package sim

import (
	"context"
	"net"
	"strconv"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeDBWriter writes state and alert rows to GreptimeDB via the
// ingester client.
type GreptimeDBWriter struct {
	client     *greptime.Client
	db         string
	stateTable string
	alertTable string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer. Tables are
// auto-created by GreptimeDB on first write (the gRPC ingester client
// has no SQL/DDL surface).
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = endpoint
		portStr = ""
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		cfg = cfg.WithPort(port)
	}

	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &GreptimeDBWriter{
		client:     client,
		db:         database,
		stateTable: fleet.StateTableName,
		alertTable: alert.AlertTableName,
	}, nil
}

// WriteState inserts a single state row.
func (w *GreptimeDBWriter) WriteState(row fleet.StateRow) error {
	return w.WriteStates([]fleet.StateRow{row})
}

// WriteStates inserts multiple state rows.
func (w *GreptimeDBWriter) WriteStates(rows []fleet.StateRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("fleet_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("robot_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("vendor", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("x", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("y", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("heading", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("speed", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("battery", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("status", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("zone", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("task_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(
			r.FleetID,
			r.RobotID,
			r.Vendor,
			r.X,
			r.Y,
			r.Heading,
			r.Speed,
			r.Battery,
			r.Status,
			r.Zone,
			r.TaskID,
			r.Timestamp,
		); err != nil {
			return err
		}
	}

	_, err = w.client.Write(ctx, tbl)
	return err
}

// WriteAlert inserts a single alert row.
func (w *GreptimeDBWriter) WriteAlert(row alert.Row) error {
	return w.WriteAlerts([]alert.Row{row})
}

// WriteAlerts inserts multiple alert rows.
func (w *GreptimeDBWriter) WriteAlerts(rows []alert.Row) error {
	if len(rows) == 0 {
		return nil
	}

	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(w.alertTable)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("fleet_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("alert_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("alert_type", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("severity", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("robots", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("title", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("resolved", types.BOOLEAN); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	for _, r := range rows {
		if err := tbl.AddRow(
			r.FleetID,
			r.AlertID,
			r.AlertType,
			r.Severity,
			r.Robots,
			r.Title,
			r.Resolved,
			r.Timestamp,
		); err != nil {
			return err
		}
	}

	_, err = w.client.Write(ctx, tbl)
	return err
}
