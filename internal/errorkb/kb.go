// Vendor error-code knowledge base with plain-English remediation.
package errorkb

import (
	"math/rand"
	"strings"

	"fleetops-sim/internal/fleet"
)

// Severity classifies an error code.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Entry documents one vendor error code.
type Entry struct {
	Code            string       `json:"code"`
	Vendor          fleet.Vendor `json:"vendor"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	CommonCauses    []string     `json:"common_causes"`
	Remediation     []string     `json:"remediation_steps"`
	Severity        Severity     `json:"severity"`
	AutoRecoverable bool         `json:"auto_recoverable"`
	Related         []string     `json:"related_errors"`
	Keywords        []string     `json:"keywords"`
}

var entries = []Entry{
	// Amazon
	{
		Code:        "E-1001",
		Vendor:      fleet.VendorAmazon,
		Name:        "Emergency Stop Activated",
		Description: "The robot's emergency stop was triggered and all motion halted pending a manual reset.",
		CommonCauses: []string{
			"Operator pressed the physical e-stop button",
			"External safety system triggered a stop",
			"Safety scanner detected a person too close at speed",
		},
		Remediation: []string{
			"Clear the area around the robot",
			"Release the e-stop button (twist to release)",
			"Press reset on the control panel",
		},
		Severity: SeverityCritical,
		Related:  []string{"E-5001"},
		Keywords: []string{"emergency", "stop", "e-stop", "safety"},
	},
	{
		Code:        "E-2001",
		Vendor:      fleet.VendorAmazon,
		Name:        "Obstacle Detected",
		Description: "LiDAR detected an obstacle in the robot's path; the robot paused and will resume if the path clears.",
		CommonCauses: []string{
			"A physical object is in the path",
			"A person or another robot is temporarily in the way",
			"Dirty or misaligned LiDAR",
		},
		Remediation: []string{
			"Check the robot's immediate path for obstacles",
			"Clean the sensors if no obstacle is visible",
		},
		Severity:        SeverityWarning,
		AutoRecoverable: true,
		Related:         []string{"E-4012"},
		Keywords:        []string{"obstacle", "blocked", "lidar", "sensor"},
	},
	{
		Code:        "E-3001",
		Vendor:      fleet.VendorAmazon,
		Name:        "Navigation Lost",
		Description: "The robot lost localization and cannot place itself on the facility map.",
		CommonCauses: []string{
			"Floor markers obscured or damaged",
			"Facility layout changed since last map update",
		},
		Remediation: []string{
			"Drive the robot to a known reference marker",
			"Re-run localization from the dashboard",
		},
		Severity: SeverityCritical,
		Keywords: []string{"navigation", "lost", "localization", "map"},
	},
	{
		Code:        "E-4012",
		Vendor:      fleet.VendorAmazon,
		Name:        "Path Blocked Timeout",
		Description: "The robot waited for a blocked path to clear longer than the timeout and needs intervention.",
		CommonCauses: []string{
			"Another robot is stuck in the path",
			"A permanent obstacle was placed in the corridor",
		},
		Remediation: []string{
			"Move the blocking object or robot",
			"Reroute the robot via the dashboard",
		},
		Severity:        SeverityWarning,
		AutoRecoverable: true,
		Related:         []string{"E-2001"},
		Keywords:        []string{"path", "blocked", "timeout", "corridor"},
	},
	{
		Code:        "E-5001",
		Vendor:      fleet.VendorAmazon,
		Name:        "Drive Motor Fault",
		Description: "A drive motor reported an overcurrent or encoder fault and the robot stopped.",
		CommonCauses: []string{
			"Overloaded pod or payload",
			"Worn drive assembly",
		},
		Remediation: []string{
			"Remove the payload and test drive motion",
			"Schedule drive assembly maintenance",
		},
		Severity: SeverityCritical,
		Related:  []string{"E-1001"},
		Keywords: []string{"motor", "drive", "fault", "overcurrent"},
	},
	// Balyo
	{
		Code:        "ESTOP",
		Vendor:      fleet.VendorBalyo,
		Name:        "Emergency Stop",
		Description: "The truck's emergency circuit opened and all motion stopped.",
		CommonCauses: []string{
			"E-stop pressed on the truck or a remote station",
			"Safety curtain breached",
		},
		Remediation: []string{
			"Close the emergency circuit",
			"Acknowledge the fault on the onboard HMI",
		},
		Severity: SeverityCritical,
		Keywords: []string{"emergency", "stop", "safety"},
	},
	{
		Code:        "PATH_BLOCKED",
		Vendor:      fleet.VendorBalyo,
		Name:        "Path Blocked",
		Description: "The truck's safety scanner sees an obstruction on the planned route.",
		CommonCauses: []string{
			"Pallet or debris left in the aisle",
			"Another vehicle halted in the route",
		},
		Remediation: []string{
			"Clear the obstruction",
			"The truck resumes automatically once the scanner clears",
		},
		Severity:        SeverityWarning,
		AutoRecoverable: true,
		Keywords:        []string{"path", "blocked", "scanner", "aisle"},
	},
	{
		Code:        "BATT_CRITICAL",
		Vendor:      fleet.VendorBalyo,
		Name:        "Battery Critical",
		Description: "Battery below the critical threshold; the truck stopped to protect the cells.",
		CommonCauses: []string{
			"Missed charging window",
			"Battery capacity degradation",
		},
		Remediation: []string{
			"Tow or drive the truck to a charger",
			"Review battery health if this recurs",
		},
		Severity: SeverityWarning,
		Keywords: []string{"battery", "critical", "charge", "power"},
	},
	{
		Code:        "NAV_LOST",
		Vendor:      fleet.VendorBalyo,
		Name:        "Navigation Lost",
		Description: "Laser guidance lost its reflector fix and the truck cannot localize.",
		CommonCauses: []string{
			"Reflectors moved or obscured",
			"Racking changes since the survey",
		},
		Remediation: []string{
			"Drive manually to a surveyed position",
			"Re-initialize guidance",
		},
		Severity: SeverityCritical,
		Keywords: []string{"navigation", "lost", "laser", "reflector"},
	},
	// Gemini
	{
		Code:        "0x8001",
		Vendor:      fleet.VendorGemini,
		Name:        "Not-Halt ausgelöst",
		Description: "Emergency stop raised on a Gemini unit; motion inhibited until manually cleared.",
		CommonCauses: []string{
			"E-stop pressed",
			"Safety PLC interlock opened",
		},
		Remediation: []string{
			"Reset the e-stop",
			"Clear the interlock on the safety PLC",
		},
		Severity: SeverityCritical,
		Keywords: []string{"emergency", "stop", "halt"},
	},
	{
		Code:        "0x8008",
		Vendor:      fleet.VendorGemini,
		Name:        "Fahrweg blockiert",
		Description: "The planned route is obstructed and the unit timed out waiting for it to clear.",
		CommonCauses: []string{
			"Obstruction in the travel corridor",
			"Stalled unit ahead",
		},
		Remediation: []string{
			"Clear the corridor",
			"Resume the unit from the dashboard",
		},
		Severity:        SeverityWarning,
		AutoRecoverable: true,
		Keywords:        []string{"path", "blocked", "route"},
	},
	{
		Code:        "0x800C",
		Vendor:      fleet.VendorGemini,
		Name:        "Antriebsfehler",
		Description: "Drive controller fault; the unit stopped and requires a technician check.",
		CommonCauses: []string{
			"Drive controller overtemperature",
			"Encoder signal loss",
		},
		Remediation: []string{
			"Power-cycle the drive controller",
			"Inspect the encoder cabling",
		},
		Severity: SeverityCritical,
		Keywords: []string{"motor", "drive", "fault"},
	},
}

var byCode = func() map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Code] = e
	}
	return m
}()

// Cross-vendor groups of equivalent error conditions.
var equivalents = map[string][]string{
	"emergency_stop": {"E-1001", "ESTOP", "0x8001"},
	"path_blocked":   {"E-4012", "PATH_BLOCKED", "0x8008"},
	"motor_fault":    {"E-5001", "0x800C"},
	"navigation":     {"E-3001", "NAV_LOST"},
}

// All returns every entry in the knowledge base.
func All() []Entry {
	return append([]Entry(nil), entries...)
}

// Lookup finds an entry by exact code.
func Lookup(code string) (Entry, bool) {
	e, ok := byCode[code]
	return e, ok
}

// ByVendor lists all entries for one vendor.
func ByVendor(v fleet.Vendor) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Vendor == v {
			out = append(out, e)
		}
	}
	return out
}

// Search matches entries by code, name, vendor, keyword, or description.
func Search(query string) []Entry {
	q := strings.ToLower(query)
	var out []Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Code), q) ||
			strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(string(e.Vendor)), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			keywordMatch(e.Keywords, q) {
			out = append(out, e)
		}
	}
	return out
}

func keywordMatch(keywords []string, q string) bool {
	for _, kw := range keywords {
		if strings.Contains(kw, q) {
			return true
		}
	}
	return false
}

// Equivalent returns the same error condition as reported by other vendors.
func Equivalent(code string) []Entry {
	for _, codes := range equivalents {
		for _, c := range codes {
			if c != code {
				continue
			}
			var out []Entry
			for _, other := range codes {
				if other == code {
					continue
				}
				if e, ok := byCode[other]; ok {
					out = append(out, e)
				}
			}
			return out
		}
	}
	return nil
}

// Random picks a non-info entry for a vendor, used for fault injection.
func Random(v fleet.Vendor, r *rand.Rand) Entry {
	var pool []Entry
	for _, e := range entries {
		if e.Vendor == v && e.Severity != SeverityInfo {
			pool = append(pool, e)
		}
	}
	if len(pool) == 0 {
		pool = entries
	}
	return pool[r.Intn(len(pool))]
}
