package alert

import (
	"sort"
	"sync"
	"time"

	"fleetops-sim/internal/fleet"
)

// Options tunes the store's lifecycle behavior.
type Options struct {
	// MaxActive caps the number of unresolved alerts kept at once.
	MaxActive int
	// ResolveAfter is the number of consecutive ticks a condition must be
	// absent before its alert auto-resolves.
	ResolveAfter int
	// RetainTicks controls how long resolved alerts linger before removal.
	RetainTicks int
	// Now is injectable for tests.
	Now func() time.Time
}

// Store is the in-memory alert lifecycle manager. The conflict engine
// upserts findings and sweeps stale fingerprints every tick; acknowledge
// and resolve are explicit operator actions.
type Store struct {
	mu          sync.Mutex
	alerts      map[string]*Alert // by fingerprint
	miss        map[string]int    // consecutive ticks condition was absent
	resolvedAge map[string]int    // ticks since resolution
	opts        Options
}

// NewStore creates a store. Zero option fields get sensible defaults.
func NewStore(opts Options) *Store {
	if opts.MaxActive <= 0 {
		opts.MaxActive = 8
	}
	if opts.ResolveAfter <= 0 {
		opts.ResolveAfter = 6
	}
	if opts.RetainTicks <= 0 {
		opts.RetainTicks = 60
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		alerts:      make(map[string]*Alert),
		miss:        make(map[string]int),
		resolvedAge: make(map[string]int),
		opts:        opts,
	}
}

// Upsert inserts a new alert or refreshes the matching unresolved one.
// Matching is by (type, sorted robot-id set); a repeated detection updates
// LastSeen and may escalate severity, never duplicates. Returns true when
// a new alert was inserted.
func (s *Store) Upsert(a Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp := a.fingerprint()
	if existing, ok := s.alerts[fp]; ok && !existing.Resolved {
		existing.LastSeen = s.opts.Now()
		if severityRank(a.Severity) < severityRank(existing.Severity) {
			existing.Severity = a.Severity
		}
		existing.Description = a.Description
		existing.SuggestedAction = a.SuggestedAction
		if a.Position != nil {
			p := *a.Position
			existing.Position = &p
		}
		s.miss[fp] = 0
		return false
	}

	if s.activeCountLocked() >= s.opts.MaxActive {
		s.evictLocked()
	}

	now := s.opts.Now()
	a.CreatedAt = now
	a.LastSeen = now
	sort.Strings(a.AffectedRobots)
	s.alerts[fp] = &a
	s.miss[fp] = 0
	return true
}

// Sweep advances the debounce counters. current holds the fingerprints of
// every condition detected this tick; any unresolved alert absent from it
// for ResolveAfter consecutive ticks auto-resolves. Resolved alerts are
// purged after RetainTicks.
func (s *Store) Sweep(current map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	for fp, a := range s.alerts {
		if a.Resolved {
			s.resolvedAge[fp]++
			if s.resolvedAge[fp] > s.opts.RetainTicks {
				delete(s.alerts, fp)
				delete(s.resolvedAge, fp)
				delete(s.miss, fp)
			}
			continue
		}
		if _, ok := current[fp]; ok {
			s.miss[fp] = 0
			continue
		}
		s.miss[fp]++
		if s.miss[fp] >= s.opts.ResolveAfter {
			s.resolveLocked(a, now)
		}
	}
}

// Acknowledge marks an alert as seen by an operator. Idempotent.
func (s *Store) Acknowledge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byIDLocked(id)
	if a == nil {
		return fleet.ErrUnknownAlert
	}
	if !a.Acknowledged {
		a.Acknowledged = true
		t := s.opts.Now()
		a.AcknowledgedAt = &t
	}
	return nil
}

// Resolve marks an alert resolved. Resolving an already-resolved alert is
// a no-op, not an error.
func (s *Store) Resolve(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.byIDLocked(id)
	if a == nil {
		return fleet.ErrUnknownAlert
	}
	if !a.Resolved {
		s.resolveLocked(a, s.opts.Now())
	}
	return nil
}

// Active returns unresolved alerts ordered by severity (critical first)
// then recency (newest first), capped at MaxActive. Returned values are
// copies.
func (s *Store) Active() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Alert
	for _, a := range s.alerts {
		if !a.Resolved {
			out = append(out, a.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > s.opts.MaxActive {
		out = out[:s.opts.MaxActive]
	}
	return out
}

// Get returns a copy of the alert with the given id.
func (s *Store) Get(id string) (Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a := s.byIDLocked(id); a != nil {
		return a.clone(), true
	}
	return Alert{}, false
}

func (s *Store) byIDLocked(id string) *Alert {
	for _, a := range s.alerts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Store) resolveLocked(a *Alert, now time.Time) {
	a.Resolved = true
	a.Severity = SeverityResolved
	t := now
	a.ResolvedAt = &t
	s.resolvedAge[a.fingerprint()] = 0
}

func (s *Store) activeCountLocked() int {
	n := 0
	for _, a := range s.alerts {
		if !a.Resolved {
			n++
		}
	}
	return n
}

// evictLocked drops the oldest resolved alert, or failing that the oldest
// non-critical one, to make room for a new insert.
func (s *Store) evictLocked() {
	var victim string
	var victimAt time.Time
	for fp, a := range s.alerts {
		if !a.Resolved {
			continue
		}
		if victim == "" || a.CreatedAt.Before(victimAt) {
			victim, victimAt = fp, a.CreatedAt
		}
	}
	if victim == "" {
		for fp, a := range s.alerts {
			if a.Severity == SeverityCritical {
				continue
			}
			if victim == "" || a.CreatedAt.Before(victimAt) {
				victim, victimAt = fp, a.CreatedAt
			}
		}
	}
	if victim != "" {
		delete(s.alerts, victim)
		delete(s.miss, victim)
		delete(s.resolvedAge, victim)
	}
}
