package effect

import "time"

// TickFunc receives one periodic tick: the instance that fired and the
// per-tick amount (damage for DOTs, healing for HOTs).
type TickFunc func(inst *Instance, amount int)

// TickDots advances all damage-over-time payloads to now, invoking applyFn
// once per whole elapsed tick interval.
//
// Invariant: a tick boundary at or after the instance's expiry never fires,
// even when now is past it.
//
// Postcondition: Expired instances are removed from the set.
func (s *ActiveSet) TickDots(now time.Time, applyFn TickFunc) {
	s.tickPeriodic(now, applyFn, func(d *Def) *PeriodicDef { return d.DOT })
}

// TickHots advances all heal-over-time payloads to now, invoking applyFn
// once per whole elapsed tick interval. Same boundary invariant as TickDots.
func (s *ActiveSet) TickHots(now time.Time, applyFn TickFunc) {
	s.tickPeriodic(now, applyFn, func(d *Def) *PeriodicDef { return d.HOT })
}

func (s *ActiveSet) tickPeriodic(now time.Time, applyFn TickFunc, payload func(*Def) *PeriodicDef) {
	for _, inst := range s.Active(now) {
		p := payload(inst.Def)
		if p == nil || inst.TicksRemaining == 0 {
			continue
		}

		elapsed := now.Sub(inst.LastTickAt)
		if elapsed < p.TickInterval {
			continue
		}
		intervals := int(elapsed / p.TickInterval)

		fired := 0
		for k := 1; k <= intervals; k++ {
			boundary := inst.LastTickAt.Add(time.Duration(k) * p.TickInterval)
			// A tick scheduled at or past expiry must not fire.
			if !inst.ExpiresAt.IsZero() && !boundary.Before(inst.ExpiresAt) {
				break
			}
			if inst.TicksRemaining == 0 {
				break
			}
			applyFn(inst, p.PerTick)
			fired++
			if inst.TicksRemaining > 0 {
				inst.TicksRemaining--
			}
		}
		inst.LastTickAt = inst.LastTickAt.Add(time.Duration(fired) * p.TickInterval)
	}
	s.sweepExpired(now)
}
