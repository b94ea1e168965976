// Package threat implements per-NPC threat tables: weighted target
// preference built from damage attribution, decayed over time, and seeded
// across allies by pack assist.
package threat

import (
	"sort"
	"time"
)

// Table is one NPC's threat bookkeeping: a non-negative weight per entity
// plus the timestamps decay arithmetic needs. It is not safe for concurrent
// use; the owning NPC manager must serialise access.
type Table struct {
	weights map[string]float64
	// LastAggroAt is when threat last increased from damage.
	LastAggroAt time.Time
	lastDecayAt time.Time
}

// NewTable creates an empty Table whose decay clock starts at now.
func NewTable(now time.Time) *Table {
	return &Table{
		weights:     make(map[string]float64),
		lastDecayAt: now,
	}
}

// AddThreat adds amount to the entity's bucket and stamps LastAggroAt.
// Non-positive amounts and empty entity ids are ignored.
//
// Postcondition: Threat(entityID) increases by amount when amount > 0.
func (t *Table) AddThreat(entityID string, amount float64, now time.Time) {
	if entityID == "" || amount <= 0 {
		return
	}
	t.weights[entityID] += amount
	t.LastAggroAt = now
}

// SetThreat overwrites the entity's bucket, used by pack-assist seeding.
// Non-positive values remove the bucket.
func (t *Table) SetThreat(entityID string, value float64, now time.Time) {
	if entityID == "" {
		return
	}
	if value <= 0 {
		delete(t.weights, entityID)
		return
	}
	t.weights[entityID] = value
	t.LastAggroAt = now
}

// Threat returns the entity's current weight, or 0 when absent.
func (t *Table) Threat(entityID string) float64 {
	return t.weights[entityID]
}

// Has reports whether the entity holds a bucket.
func (t *Table) Has(entityID string) bool {
	_, ok := t.weights[entityID]
	return ok
}

// Remove deletes the entity's bucket (despawn, disconnect, leave range).
func (t *Table) Remove(entityID string) {
	delete(t.weights, entityID)
}

// Clear empties the table (NPC death or reset).
func (t *Table) Clear() {
	t.weights = make(map[string]float64)
}

// Len returns the number of live buckets.
func (t *Table) Len() int { return len(t.weights) }

// TopTarget returns the entity id with the highest weight. Ties break by
// lexically smallest id so target selection is deterministic under test.
//
// Postcondition: Returns ("", false) iff the table is empty.
func (t *Table) TopTarget() (string, bool) {
	best := ""
	bestWeight := -1.0
	for id, w := range t.weights {
		if w > bestWeight || (w == bestWeight && id < best) {
			best = id
			bestWeight = w
		}
	}
	return best, best != ""
}

// Entry is one (entity, weight) snapshot row.
type Entry struct {
	EntityID string
	Weight   float64
}

// Entries returns a snapshot of all buckets sorted by descending weight
// (ties by id), suitable for logging and debugging.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.weights))
	for id, w := range t.weights {
		out = append(out, Entry{EntityID: id, Weight: w})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Weight == out[b].Weight {
			return out[a].EntityID < out[b].EntityID
		}
		return out[a].Weight > out[b].Weight
	})
	return out
}
