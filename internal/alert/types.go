// Alert types produced by the conflict engine.
package alert

import (
	"os"
	"sort"
	"strings"
	"time"

	"fleetops-sim/internal/fleet"
)

// Type identifies the condition an alert reports.
type Type string

const (
	TypeDeadlock        Type = "deadlock"
	TypeCollisionCourse Type = "collision_course"
	TypeCongestion      Type = "congestion"
	TypeBatteryCritical Type = "battery_critical"
	TypePathBlocked     Type = "path_blocked"
	TypeRobotError      Type = "error"
)

// Severity ranks alerts for display ordering.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityResolved Severity = "resolved"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	case SeverityResolved:
		return 3
	}
	return 4
}

// Alert is one user-facing conflict notification.
type Alert struct {
	ID              string          `json:"id"`
	Type            Type            `json:"alert_type"`
	Severity        Severity        `json:"severity"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	AffectedRobots  []string        `json:"affected_robots"`
	SuggestedAction string          `json:"suggested_action"`
	Position        *fleet.Position `json:"position,omitempty"`
	Acknowledged    bool            `json:"acknowledged"`
	Resolved        bool            `json:"resolved"`
	CreatedAt       time.Time       `json:"created_at"`
	LastSeen        time.Time       `json:"last_seen"`
	AcknowledgedAt  *time.Time      `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
}

// Fingerprint keys an alert by condition type and the robots involved,
// order-insensitive. At most one unresolved alert exists per fingerprint.
func Fingerprint(t Type, robots []string) string {
	ids := append([]string(nil), robots...)
	sort.Strings(ids)
	return string(t) + ":" + strings.Join(ids, "-")
}

func (a *Alert) fingerprint() string {
	return Fingerprint(a.Type, a.AffectedRobots)
}

func (a *Alert) clone() Alert {
	c := *a
	c.AffectedRobots = append([]string(nil), a.AffectedRobots...)
	if a.Position != nil {
		p := *a.Position
		c.Position = &p
	}
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return c
}

// Row is one alert record for downstream sinks.
type Row struct {
	FleetID   string    `json:"fleet_id"`   // TAG
	AlertID   string    `json:"alert_id"`   // TAG
	AlertType string    `json:"alert_type"` // TAG
	Severity  string    `json:"severity"`   // FIELD
	Robots    string    `json:"robots"`     // FIELD
	Title     string    `json:"title"`      // FIELD
	Resolved  bool      `json:"resolved"`   // FIELD
	Timestamp time.Time `json:"ts"`         // TIME INDEX
}

// AlertTableName is the sink table for alert rows. Defaults to
// "fleet_alerts", overridable via the FLEET_ALERT_TABLE environment variable.
var AlertTableName = func() string {
	if env := os.Getenv("FLEET_ALERT_TABLE"); env != "" {
		return env
	}
	return "fleet_alerts"
}()

func (Row) TableName() string {
	return AlertTableName
}

// RowFrom flattens an alert into a sink row.
func RowFrom(fleetID string, a Alert, ts time.Time) Row {
	return Row{
		FleetID:   fleetID,
		AlertID:   a.ID,
		AlertType: string(a.Type),
		Severity:  string(a.Severity),
		Robots:    strings.Join(a.AffectedRobots, ","),
		Title:     a.Title,
		Resolved:  a.Resolved,
		Timestamp: ts,
	}
}
