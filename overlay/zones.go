// Package overlay arbitrates a small fixed set of mutually exclusive
// screen zones among competing, TTL-bounded overlay requests.
package overlay

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Renderer clears an overlay's visible payload when its zone is lost to
// eviction or TTL expiry.
type Renderer interface {
	Clear(key string)
}

// ZoneEntry records one live zone occupancy.
type ZoneEntry struct {
	Zone      string
	Timestamp time.Time
}

// Allocator assigns overlay keys to zones. The key→zone map is injective
// at every instant: no two live keys share a zone.
type Allocator struct {
	mu       sync.Mutex
	zones    []string
	prefs    map[string][]string
	entries  map[string]ZoneEntry
	timers   map[string]*time.Timer
	renderer Renderer

	// gens counts expiry schedules per key. A fired timer callback that
	// lost the lock race to a refresh sees a newer generation and stands
	// down. Never reset, so stale callbacks can never collide with a
	// reused key.
	gens map[string]uint64

	now func() time.Time
}

// NewAllocator creates an allocator over a fixed zone inventory and
// per-kind preference lists.
func NewAllocator(zones []string, prefs map[string][]string, r Renderer) *Allocator {
	return &Allocator{
		zones:    append([]string(nil), zones...),
		prefs:    prefs,
		entries:  make(map[string]ZoneEntry),
		timers:   make(map[string]*time.Timer),
		gens:     make(map[string]uint64),
		renderer: r,
		now:      time.Now,
	}
}

// kindOf derives the overlay kind from its key: "card:123" → "card",
// anything else is its own kind.
func kindOf(key string) string {
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		return key[:idx]
	}
	return key
}

// Allocate assigns key to a zone and returns it. An existing occupancy is
// sticky: the same zone comes back with a refreshed timestamp. Under full
// contention the oldest compatible occupant is evicted. A non-zero ttl
// auto-releases the zone after expiry.
func (a *Allocator) Allocate(key, requestedZone string, ttl time.Duration) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry, ok := a.entries[key]; ok {
		entry.Timestamp = a.now()
		a.entries[key] = entry
		a.scheduleExpiry(key, ttl)
		return entry.Zone
	}

	candidates := a.candidateZones(key, requestedZone)

	occupied := make(map[string]string, len(a.entries))
	for k, e := range a.entries {
		occupied[e.Zone] = k
	}

	for _, zone := range candidates {
		if _, taken := occupied[zone]; !taken {
			a.assign(key, zone, ttl)
			return zone
		}
	}

	// All candidates occupied: evict the oldest compatible occupant.
	var victim string
	var victimZone string
	for _, zone := range candidates {
		k, taken := occupied[zone]
		if !taken {
			continue
		}
		if victim == "" || a.entries[k].Timestamp.Before(a.entries[victim].Timestamp) {
			victim, victimZone = k, zone
		}
	}

	if victim == "" {
		// Inconsistent state: force the first preferred zone and accept
		// visual overlap over refusing the request.
		zone := candidates[0]
		log.Printf("⚠️  Zone inventory inconsistent, forcing %s for %s", zone, key)
		a.assign(key, zone, ttl)
		return zone
	}

	a.evict(victim)
	a.assign(key, victimZone, ttl)
	return victimZone
}

// Release removes key's occupancy. Idempotent.
func (a *Allocator) Release(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release(key)
}

// ReleaseKind releases every live key of the given kind.
func (a *Allocator) ReleaseKind(kind string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.entries {
		if kindOf(key) == kind {
			a.release(key)
		}
	}
}

// Clear evicts every live occupancy and clears their payloads.
func (a *Allocator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key := range a.entries {
		a.evict(key)
	}
}

// Zone reports key's current zone, if any.
func (a *Allocator) Zone(key string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[key]
	return entry.Zone, ok
}

// Entries returns a snapshot of the live key→zone map.
func (a *Allocator) Entries() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := make(map[string]string, len(a.entries))
	for k, e := range a.entries {
		snapshot[k] = e.Zone
	}
	return snapshot
}

// candidateZones builds the ordered zone candidate list: the requested
// zone first when given, then the kind's preference list, then any
// remaining zones. Callers hold a.mu.
func (a *Allocator) candidateZones(key, requestedZone string) []string {
	candidates := make([]string, 0, len(a.zones)+1)
	seen := make(map[string]bool, len(a.zones)+1)

	add := func(zone string) {
		if zone != "" && !seen[zone] {
			seen[zone] = true
			candidates = append(candidates, zone)
		}
	}

	add(requestedZone)
	for _, zone := range a.prefs[kindOf(key)] {
		add(zone)
	}
	if len(candidates) == 0 {
		for _, zone := range a.zones {
			add(zone)
		}
	}
	return candidates
}

// assign records the occupancy and schedules its expiry. Callers hold a.mu.
func (a *Allocator) assign(key, zone string, ttl time.Duration) {
	a.entries[key] = ZoneEntry{Zone: zone, Timestamp: a.now()}
	a.scheduleExpiry(key, ttl)
}

// scheduleExpiry replaces key's auto-expiry timer: lookup-and-cancel, then
// rearm when ttl is non-zero. The generation bump also invalidates a timer
// that already fired and is waiting on the lock, which Stop cannot reach.
// Callers hold a.mu.
func (a *Allocator) scheduleExpiry(key string, ttl time.Duration) {
	a.gens[key]++
	if t, ok := a.timers[key]; ok {
		t.Stop()
		delete(a.timers, key)
	}
	if ttl <= 0 {
		return
	}
	gen := a.gens[key]
	a.timers[key] = time.AfterFunc(ttl, func() { a.expire(key, gen) })
}

// expire releases the zone and clears the payload when a TTL fires. A
// generation mismatch means the occupancy was refreshed or replaced after
// this timer fired; the newer schedule wins.
func (a *Allocator) expire(key string, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gens[key] != gen {
		return
	}
	if _, ok := a.entries[key]; !ok {
		return
	}
	a.evict(key)
}

// evict releases key and clears its visible payload. Callers hold a.mu.
func (a *Allocator) evict(key string) {
	a.release(key)
	if a.renderer != nil {
		a.renderer.Clear(key)
	}
}

// release drops the mapping and any pending timer. Callers hold a.mu.
func (a *Allocator) release(key string) {
	if t, ok := a.timers[key]; ok {
		t.Stop()
		delete(a.timers, key)
	}
	delete(a.entries, key)
}
