package effect

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// SourceRef identifies what applied an effect instance.
type SourceRef struct {
	// Kind is the source category, e.g. "player", "npc", "item", "proc".
	Kind string
	// ID is the source entity or item identifier.
	ID string
}

// Instance is one applied status effect occupying a stacking bucket.
//
// Invariant: an Instance whose expiry has passed is logically absent even if
// not yet removed from the set; all readers filter through Expired.
type Instance struct {
	// ID uniquely identifies this application.
	ID string
	// Def is the static definition this instance was applied from.
	Def *Def
	// Source identifies what applied the effect.
	Source SourceRef
	// AppliedAt is when the instance was first applied.
	AppliedAt time.Time
	// ExpiresAt is when the instance lapses; zero value means unbounded.
	ExpiresAt time.Time
	// Stacks is the current stack count, always >= 1.
	Stacks int
	// AbsorbRemaining is the remaining shield capacity for absorb effects.
	AbsorbRemaining int
	// LastTickAt is the most recent consumed tick boundary for DOT/HOT payloads.
	LastTickAt time.Time
	// TicksRemaining counts down periodic ticks; -1 means unlimited until expiry.
	TicksRemaining int
}

// Expired reports whether the instance is logically absent at now.
//
// Postcondition: Returns false for unbounded instances (zero ExpiresAt).
func (i *Instance) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ActiveSet tracks all status effects currently applied to one combatant,
// keyed by stacking bucket. It is not safe for concurrent use; the caller
// must serialise access.
type ActiveSet struct {
	instances map[string]*Instance
	dr        *DRTracker
}

// NewActiveSet creates an empty ActiveSet using drCfg for crowd-control
// diminishing returns.
func NewActiveSet(drCfg DRConfig) *ActiveSet {
	return &ActiveSet{
		instances: make(map[string]*Instance),
		dr:        NewDRTracker(drCfg),
	}
}

// Active returns all instances with expiry after now, sorted by application
// time (oldest first). Expired entries are not mutated by this read; removal
// happens on the next mutating call.
//
// Postcondition: Every returned instance satisfies !Expired(now).
func (s *ActiveSet) Active(now time.Time) []*Instance {
	out := make([]*Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		if inst.Expired(now) {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].AppliedAt.Equal(out[b].AppliedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].AppliedAt.Before(out[b].AppliedAt)
	})
	return out
}

// Get returns the live instance in the bucket for key, or (nil, false) if the
// bucket is empty or its occupant has expired.
func (s *ActiveSet) Get(key string, now time.Time) (*Instance, bool) {
	inst, ok := s.instances[key]
	if !ok || inst.Expired(now) {
		return nil, false
	}
	return inst, true
}

// Has reports whether a live instance of the effect with id is present at now.
func (s *ActiveSet) Has(id string, now time.Time) bool {
	for _, inst := range s.instances {
		if inst.Def.ID == id && !inst.Expired(now) {
			return true
		}
	}
	return false
}

// HasTag reports whether any live instance carries tag at now.
func (s *ActiveSet) HasTag(tag string, now time.Time) bool {
	for _, inst := range s.instances {
		if !inst.Expired(now) && inst.Def.HasTag(tag) {
			return true
		}
	}
	return false
}

// Remove deletes the instance occupying the bucket for key.
// If the bucket is empty, Remove is a no-op.
func (s *ActiveSet) Remove(key string) {
	delete(s.instances, key)
}

// sweepExpired garbage-collects instances whose expiry has passed.
// Called from mutating operations only, never from reads.
func (s *ActiveSet) sweepExpired(now time.Time) {
	for key, inst := range s.instances {
		if inst.Expired(now) {
			delete(s.instances, key)
		}
	}
}

// newInstanceID returns a fresh unique instance identifier.
func newInstanceID() string {
	return uuid.NewString()
}
