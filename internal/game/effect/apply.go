package effect

import (
	"fmt"
	"time"
)

// ApplyResult reports what an Apply call did.
type ApplyResult struct {
	// Applied is true when a new instance was created.
	Applied bool
	// Refreshed is true when an existing instance was refreshed or stacked.
	Refreshed bool
	// BlockedReason is non-empty when the application was denied, e.g.
	// BlockedImmune for a DR ladder at zero.
	BlockedReason string
	// DRMultiplier is the diminishing-returns scale applied to the effect's
	// duration; 1 for ungated effects.
	DRMultiplier float64
	// Instance is the live instance occupying the bucket after the call,
	// nil when the application was denied.
	Instance *Instance
}

// Apply applies def to this set's owner, resolving the stacking bucket by
// stacking group (falling back to the effect ID).
//
// DR-gated effects are checked against the diminishing-returns ladder first;
// a ladder at zero denies the application with BlockedImmune and mutates
// nothing. A non-zero multiplier scales the effect's duration.
//
// Stacking semantics: StackingRefresh replaces expiry and resets stacks,
// StackingStack increments stacks up to MaxStacks and extends expiry,
// StackingIgnore is a no-op while an instance is present.
//
// Precondition: def must not be nil and must validate.
// Postcondition: On denial the set is byte-for-byte unchanged.
func (s *ActiveSet) Apply(def *Def, src SourceRef, now time.Time) (ApplyResult, error) {
	if def == nil {
		return ApplyResult{}, fmt.Errorf("effect.Apply: def must not be nil")
	}

	mult := s.dr.Preview(def, now)
	if mult == 0 {
		return ApplyResult{BlockedReason: BlockedImmune, DRMultiplier: 0}, nil
	}

	s.sweepExpired(now)

	var expiresAt time.Time
	if def.Duration > 0 {
		scaled := time.Duration(float64(def.Duration) * mult)
		expiresAt = now.Add(scaled)
	}

	key := def.BucketKey()
	if existing, ok := s.instances[key]; ok {
		switch def.Stacking {
		case StackingIgnore:
			return ApplyResult{Instance: existing, DRMultiplier: mult}, nil
		case StackingRefresh:
			existing.ExpiresAt = expiresAt
			existing.Stacks = 1
			if def.Absorb != nil {
				existing.AbsorbRemaining = def.Absorb.Amount
			}
			resetPeriodic(existing, def, now)
			s.dr.Record(def, now)
			return ApplyResult{Refreshed: true, Instance: existing, DRMultiplier: mult}, nil
		case StackingStack:
			maxStacks := def.MaxStacks
			if maxStacks <= 0 {
				maxStacks = 1
			}
			if existing.Stacks < maxStacks {
				existing.Stacks++
			}
			// Unbounded (zero) expiry always wins; otherwise keep the later one.
			if expiresAt.IsZero() || existing.ExpiresAt.IsZero() {
				existing.ExpiresAt = time.Time{}
			} else if expiresAt.After(existing.ExpiresAt) {
				existing.ExpiresAt = expiresAt
			}
			s.dr.Record(def, now)
			return ApplyResult{Refreshed: true, Instance: existing, DRMultiplier: mult}, nil
		default:
			return ApplyResult{}, fmt.Errorf("effect.Apply: unknown stacking policy %q", def.Stacking)
		}
	}

	inst := &Instance{
		ID:        newInstanceID(),
		Def:       def,
		Source:    src,
		AppliedAt: now,
		ExpiresAt: expiresAt,
		Stacks:    1,
	}
	if def.Absorb != nil {
		inst.AbsorbRemaining = def.Absorb.Amount
	}
	resetPeriodic(inst, def, now)
	s.instances[key] = inst
	s.dr.Record(def, now)
	return ApplyResult{Applied: true, Instance: inst, DRMultiplier: mult}, nil
}

// resetPeriodic initialises the DOT/HOT bookkeeping for a fresh application.
func resetPeriodic(inst *Instance, def *Def, now time.Time) {
	payload := def.DOT
	if payload == nil {
		payload = def.HOT
	}
	if payload == nil {
		inst.TicksRemaining = 0
		return
	}
	inst.LastTickAt = now
	if payload.Ticks > 0 {
		inst.TicksRemaining = payload.Ticks
	} else {
		inst.TicksRemaining = -1
	}
}
