package facility

import "fleetops-sim/internal/fleet"

// PointSegmentDistance returns the shortest distance from p to the segment
// between a and b.
func PointSegmentDistance(p, a, b fleet.Position) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := fleet.Position{X: a.X + t*abx, Y: a.Y + t*aby}
	return p.Distance(closest)
}

// ProjectAlong truncates the segment from a toward b at maxLen and returns
// the truncated endpoint. Used for lookahead-limited path checks.
func ProjectAlong(a, b fleet.Position, maxLen float64) fleet.Position {
	d := a.Distance(b)
	if d <= maxLen || d == 0 {
		return b
	}
	f := maxLen / d
	return fleet.Position{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f}
}
