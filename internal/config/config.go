// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ZoneConfig defines one named rectangular zone of the warehouse grid.
type ZoneConfig struct {
	Name string  `yaml:"name"`
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// PointConfig is a named facility point (station or charger).
type PointConfig struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// FacilityConfig describes the warehouse floor.
type FacilityConfig struct {
	Width    float64       `yaml:"width"`
	Height   float64       `yaml:"height"`
	Zones    []ZoneConfig  `yaml:"zones"`
	Stations []PointConfig `yaml:"stations"`
	Chargers []PointConfig `yaml:"chargers"`
}

// FleetConfig defines one group of robots of the same vendor.
type FleetConfig struct {
	Name       string  `yaml:"name"`
	Vendor     string  `yaml:"vendor"`
	Count      int     `yaml:"count"`
	BatteryMin float64 `yaml:"battery_min"`
	BatteryMax float64 `yaml:"battery_max"`
}

// BehaviorConfig tunes per-tick simulator behavior.
type BehaviorConfig struct {
	TaskAssignProb   float64 `yaml:"task_assign_prob"`
	TrailLength      int     `yaml:"trail_length"`
	QueueCapacity    int     `yaml:"queue_capacity"`
	ErrorResolveMinS float64 `yaml:"error_resolve_min_s"`
	ErrorResolveMaxS float64 `yaml:"error_resolve_max_s"`
}

// EngineConfig holds conflict-detection thresholds.
type EngineConfig struct {
	ProximityRadius     float64 `yaml:"proximity_radius"`
	CollisionHorizonS   float64 `yaml:"collision_horizon_s"`
	CollisionStepS      float64 `yaml:"collision_step_s"`
	CollisionThreshold  float64 `yaml:"collision_threshold"`
	DeadlockDistance    float64 `yaml:"deadlock_distance"`
	DeadlockGraceTicks  int     `yaml:"deadlock_grace_ticks"`
	CongestionDensity   float64 `yaml:"congestion_density"`
	BlockageLookahead   float64 `yaml:"blockage_lookahead"`
	CorridorWidth       float64 `yaml:"corridor_width"`
	BatteryWarn         float64 `yaml:"battery_warn"`
	BatteryCritical     float64 `yaml:"battery_critical"`
	ResolveAfterTicks   int     `yaml:"resolve_after_ticks"`
	MaxActiveAlerts     int     `yaml:"max_active_alerts"`
	ResolvedRetainTicks int     `yaml:"resolved_retain_ticks"`
}

// SimulationConfig is the root configuration.
type SimulationConfig struct {
	FleetID  string         `yaml:"fleet_id"`
	Seed     int64          `yaml:"seed"`
	Facility FacilityConfig `yaml:"facility"`
	Fleets   []FleetConfig  `yaml:"fleets"`
	Behavior BehaviorConfig `yaml:"behavior"`
	Engine   EngineConfig   `yaml:"engine"`
}

// Default returns the stock configuration used when fields are omitted:
// the 40x30 six-zone floor with 24 robots across three vendors.
func Default() *SimulationConfig {
	return &SimulationConfig{
		FleetID: "warehouse-01",
		Seed:    0,
		Facility: FacilityConfig{
			Width:  40,
			Height: 30,
			Zones: []ZoneConfig{
				{Name: "Zone A", XMin: 0, XMax: 13, YMin: 0, YMax: 14},
				{Name: "Zone B", XMin: 14, XMax: 26, YMin: 0, YMax: 14},
				{Name: "Zone C", XMin: 27, XMax: 39, YMin: 0, YMax: 14},
				{Name: "Zone D", XMin: 0, XMax: 13, YMin: 15, YMax: 29},
				{Name: "Zone E", XMin: 14, XMax: 26, YMin: 15, YMax: 29},
				{Name: "Zone F", XMin: 27, XMax: 39, YMin: 15, YMax: 29},
			},
			Stations: defaultStations(),
			Chargers: []PointConfig{
				{Name: "Charger C1", X: 1, Y: 1},
				{Name: "Charger C2", X: 20, Y: 1},
				{Name: "Charger C3", X: 38, Y: 1},
				{Name: "Charger C4", X: 1, Y: 28},
				{Name: "Charger C5", X: 20, Y: 28},
				{Name: "Charger C6", X: 38, Y: 28},
			},
		},
		Fleets: []FleetConfig{
			{Name: "AR", Vendor: "Amazon", Count: 8, BatteryMin: 40, BatteryMax: 100},
			{Name: "BALYO", Vendor: "Balyo", Count: 12, BatteryMin: 40, BatteryMax: 100},
			{Name: "GEM", Vendor: "Gemini", Count: 4, BatteryMin: 30, BatteryMax: 90},
		},
		Behavior: BehaviorConfig{
			TaskAssignProb:   0.05,
			TrailLength:      60,
			QueueCapacity:    4,
			ErrorResolveMinS: 10,
			ErrorResolveMaxS: 60,
		},
		Engine: EngineConfig{
			ProximityRadius:     5,
			CollisionHorizonS:   12,
			CollisionStepS:      1,
			CollisionThreshold:  2,
			DeadlockDistance:    3,
			DeadlockGraceTicks:  6,
			CongestionDensity:   0.035,
			BlockageLookahead:   10,
			CorridorWidth:       1.5,
			BatteryWarn:         15,
			BatteryCritical:     10,
			ResolveAfterTicks:   6,
			MaxActiveAlerts:     8,
			ResolvedRetainTicks: 60,
		},
	}
}

func defaultStations() []PointConfig {
	coords := [][2]float64{
		{3, 3}, {10, 3}, {17, 3}, {24, 3}, {31, 3}, {37, 3},
		{3, 12}, {10, 12}, {17, 12}, {24, 12}, {31, 12}, {37, 12},
		{3, 20}, {10, 20}, {17, 20}, {24, 20}, {31, 20}, {37, 20},
		{3, 27}, {10, 27},
	}
	out := make([]PointConfig, len(coords))
	for i, c := range coords {
		out[i] = PointConfig{Name: fmt.Sprintf("Station %d", i+1), X: c[0], Y: c[1]}
	}
	return out
}

// Load reads a YAML config, validating it against the CUE schema first.
// Omitted fields keep their defaults.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Facility.Zones) == 0 {
		return nil, fmt.Errorf("config %s: no zones defined", configPath)
	}
	if len(cfg.Facility.Stations) < 2 {
		return nil, fmt.Errorf("config %s: at least two stations required", configPath)
	}
	if len(cfg.Fleets) == 0 {
		return nil, fmt.Errorf("config %s: no fleets defined", configPath)
	}
	return cfg, nil
}
