package effect

import (
	"math"
	"time"
)

// DamageOutcome reports how one packet of incoming damage was resolved
// against the target's modifiers and absorb shields.
type DamageOutcome struct {
	// Raw is the pre-modifier amount supplied by the caller.
	Raw int
	// Modified is the amount after damage-taken modifiers.
	Modified int
	// Absorbed is the portion consumed by absorb shields.
	Absorbed int
	// HPLost is the final amount to subtract from the target's hit points.
	HPLost int
	// ShieldsDepleted lists effect IDs of shields removed by this packet.
	ShieldsDepleted []string
}

// DamageTakenScale returns the stack-weighted multiplier and flat adjustment
// the target's active effects apply to incoming damage at now.
func (s *ActiveSet) DamageTakenScale(now time.Time) (pct float64, flat int) {
	for _, inst := range s.Active(now) {
		pct += inst.Def.Modifiers.DamageTakenPct * float64(inst.Stacks)
		flat += inst.Def.Modifiers.DamageTakenFlat * inst.Stacks
	}
	return pct, flat
}

// DamageDealtScale returns the stack-weighted multiplier and flat adjustment
// the owner's active effects apply to outgoing damage at now.
func (s *ActiveSet) DamageDealtScale(now time.Time) (pct float64, flat int) {
	for _, inst := range s.Active(now) {
		pct += inst.Def.Modifiers.DamageDealtPct * float64(inst.Stacks)
		flat += inst.Def.Modifiers.DamageDealtFlat * inst.Stacks
	}
	return pct, flat
}

// ApplyIncomingDamage resolves raw incoming damage against the target's
// damage-taken modifiers and absorb shields, in that order: the modifier
// scales the amount first, the result is then offset against shields in
// application order (oldest first), and a shield bucket is removed exactly
// when its capacity reaches zero. The returned HPLost is what the caller
// subtracts from the target's hit points; this set never owns HP.
//
// Precondition: raw >= 0.
// Postcondition: outcome.HPLost == outcome.Modified - outcome.Absorbed.
func (s *ActiveSet) ApplyIncomingDamage(raw int, now time.Time) DamageOutcome {
	s.sweepExpired(now)

	pct, flat := s.DamageTakenScale(now)
	modified := int(math.Round(float64(raw)*(1+pct/100))) + flat
	if modified < 0 {
		modified = 0
	}

	outcome := DamageOutcome{Raw: raw, Modified: modified}

	remaining := modified
	for _, inst := range s.Active(now) {
		if remaining == 0 {
			break
		}
		if inst.AbsorbRemaining <= 0 {
			continue
		}
		consumed := remaining
		if consumed > inst.AbsorbRemaining {
			consumed = inst.AbsorbRemaining
		}
		inst.AbsorbRemaining -= consumed
		remaining -= consumed
		outcome.Absorbed += consumed
		if inst.AbsorbRemaining == 0 {
			outcome.ShieldsDepleted = append(outcome.ShieldsDepleted, inst.Def.ID)
			s.removeInstance(inst)
		}
	}

	outcome.HPLost = remaining
	return outcome
}

// removeInstance deletes inst from whichever bucket holds it.
func (s *ActiveSet) removeInstance(inst *Instance) {
	for key, candidate := range s.instances {
		if candidate == inst {
			delete(s.instances, key)
			return
		}
	}
}
