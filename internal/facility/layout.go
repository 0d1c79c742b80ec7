// Warehouse floor layout: grid, zones, stations, chargers.
package facility

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"fleetops-sim/internal/fleet"
)

// Rect is an axis-aligned rectangular region of the grid.
type Rect struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Contains reports whether a position falls inside the rectangle.
func (r Rect) Contains(p fleet.Position) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// Area returns the rectangle area in grid units squared.
func (r Rect) Area() float64 {
	return (r.XMax - r.XMin) * (r.YMax - r.YMin)
}

// Layout describes the warehouse floor the fleet operates on.
type Layout struct {
	Width    float64
	Height   float64
	Zones    map[string]Rect
	Stations map[string]fleet.Position
	Chargers map[string]fleet.Position

	stationNames []string
}

// New builds a layout and precomputes the station name index.
func New(width, height float64, zones map[string]Rect, stations, chargers map[string]fleet.Position) *Layout {
	l := &Layout{
		Width:    width,
		Height:   height,
		Zones:    zones,
		Stations: stations,
		Chargers: chargers,
	}
	for name := range stations {
		l.stationNames = append(l.stationNames, name)
	}
	sort.Strings(l.stationNames)
	return l
}

// Default returns the stock 40x30 floor with six zones, twenty stations,
// and six chargers.
func Default() *Layout {
	zones := map[string]Rect{
		"Zone A": {XMin: 0, XMax: 13, YMin: 0, YMax: 14},
		"Zone B": {XMin: 14, XMax: 26, YMin: 0, YMax: 14},
		"Zone C": {XMin: 27, XMax: 39, YMin: 0, YMax: 14},
		"Zone D": {XMin: 0, XMax: 13, YMin: 15, YMax: 29},
		"Zone E": {XMin: 14, XMax: 26, YMin: 15, YMax: 29},
		"Zone F": {XMin: 27, XMax: 39, YMin: 15, YMax: 29},
	}
	coords := []fleet.Position{
		{X: 3, Y: 3}, {X: 10, Y: 3}, {X: 17, Y: 3}, {X: 24, Y: 3}, {X: 31, Y: 3}, {X: 37, Y: 3},
		{X: 3, Y: 12}, {X: 10, Y: 12}, {X: 17, Y: 12}, {X: 24, Y: 12}, {X: 31, Y: 12}, {X: 37, Y: 12},
		{X: 3, Y: 20}, {X: 10, Y: 20}, {X: 17, Y: 20}, {X: 24, Y: 20}, {X: 31, Y: 20}, {X: 37, Y: 20},
		{X: 3, Y: 27}, {X: 10, Y: 27},
	}
	stations := make(map[string]fleet.Position, len(coords))
	for i, p := range coords {
		stations[fmt.Sprintf("Station %d", i+1)] = p
	}
	chargers := map[string]fleet.Position{
		"Charger C1": {X: 1, Y: 1},
		"Charger C2": {X: 20, Y: 1},
		"Charger C3": {X: 38, Y: 1},
		"Charger C4": {X: 1, Y: 28},
		"Charger C5": {X: 20, Y: 28},
		"Charger C6": {X: 38, Y: 28},
	}
	return New(40, 30, zones, stations, chargers)
}

// ZoneFor returns the name of the zone containing p, or "Unknown".
func (l *Layout) ZoneFor(p fleet.Position) string {
	for name, r := range l.Zones {
		if r.Contains(p) {
			return name
		}
	}
	return "Unknown"
}

// NearestCharger finds the charging station closest to p.
func (l *Layout) NearestCharger(p fleet.Position) (string, fleet.Position, float64) {
	bestName := ""
	var bestPos fleet.Position
	bestDist := math.Inf(1)
	for name, pos := range l.Chargers {
		if d := p.Distance(pos); d < bestDist {
			bestName, bestPos, bestDist = name, pos, d
		}
	}
	return bestName, bestPos, bestDist
}

// RandomStationPair picks two distinct stations using the provided source.
// A layout with fewer than two stations yields an empty pair.
func (l *Layout) RandomStationPair(r *rand.Rand) (string, string) {
	if len(l.stationNames) < 2 {
		return "", ""
	}
	from := l.stationNames[r.Intn(len(l.stationNames))]
	to := from
	for to == from {
		to = l.stationNames[r.Intn(len(l.stationNames))]
	}
	return from, to
}

// Station returns a station position by name, falling back to chargers.
func (l *Layout) Station(name string) (fleet.Position, bool) {
	if p, ok := l.Stations[name]; ok {
		return p, true
	}
	p, ok := l.Chargers[name]
	return p, ok
}

// Clamp keeps a position inside the grid bounds.
func (l *Layout) Clamp(p fleet.Position) fleet.Position {
	return fleet.Position{
		X: math.Max(0, math.Min(l.Width-1, p.X)),
		Y: math.Max(0, math.Min(l.Height-1, p.Y)),
	}
}
