package threat

import "time"

// Role classifies an entity for decay purposes. Threat against tanks decays
// slower, against damage dealers faster; healers and unknowns are neutral.
type Role string

const (
	RoleTank    Role = "tank"
	RoleDPS     Role = "dps"
	RoleHealer  Role = "healer"
	RoleUnknown Role = ""
)

// TargetStatus reports whether a threat target is still a valid combatant
// from the NPC's point of view.
type TargetStatus struct {
	Valid bool
	// Reason is a short code such as "out_of_room" when Valid is false.
	Reason string
}

// DecayConfig tunes the threat decay policy.
type DecayConfig struct {
	// PerSec is the base weight removed per whole elapsed second.
	PerSec float64
	// PruneBelow removes buckets whose weight falls to or below it.
	PruneBelow float64
	// TankMultiplier scales decay against tanks (slower when < 1).
	TankMultiplier float64
	// DPSMultiplier scales decay against damage dealers.
	DPSMultiplier float64
	// HealerMultiplier scales decay against healers and unknown roles.
	HealerMultiplier float64
	// OutOfSightMultiplier further scales decay when the target is invalid.
	OutOfSightMultiplier float64
}

// DefaultDecayConfig returns the standard decay policy.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{
		PerSec:               10,
		PruneBelow:           0,
		TankMultiplier:       0.5,
		DPSMultiplier:        2,
		HealerMultiplier:     1,
		OutOfSightMultiplier: 3,
	}
}

// roleMultiplier maps a role onto its configured decay scale.
func (c DecayConfig) roleMultiplier(role Role) float64 {
	switch role {
	case RoleTank:
		return c.TankMultiplier
	case RoleDPS:
		return c.DPSMultiplier
	default:
		return c.HealerMultiplier
	}
}

// DecayOptions carries the per-call context for one Decay pass.
type DecayOptions struct {
	// Now is the caller-supplied timestamp; the table never reads a clock.
	Now time.Time
	// RoleFor resolves an entity's decay role; nil means all RoleUnknown.
	RoleFor func(entityID string) Role
	// ValidateTarget reports target validity; nil means all targets valid.
	ValidateTarget func(entityID string) TargetStatus
}

// Decay applies whole-second threat decay since the last pass. The per-second
// rate composes multiplicatively: base, then role multiplier, then the
// out-of-sight multiplier for invalid targets. Buckets whose weight falls to
// or below PruneBelow are removed.
//
// The decay clock advances only by the whole seconds consumed, preserving any
// sub-second remainder for the next call.
//
// Postcondition: Returns the entity ids pruned by this pass.
func (t *Table) Decay(cfg DecayConfig, opts DecayOptions) []string {
	seconds := int(opts.Now.Sub(t.lastDecayAt) / time.Second)
	if seconds <= 0 {
		return nil
	}
	t.lastDecayAt = t.lastDecayAt.Add(time.Duration(seconds) * time.Second)

	var pruned []string
	for id, weight := range t.weights {
		rate := cfg.PerSec
		if opts.RoleFor != nil {
			rate *= cfg.roleMultiplier(opts.RoleFor(id))
		} else {
			rate *= cfg.HealerMultiplier
		}
		if opts.ValidateTarget != nil {
			if status := opts.ValidateTarget(id); !status.Valid {
				rate *= cfg.OutOfSightMultiplier
			}
		}

		remaining := weight - rate*float64(seconds)
		if remaining <= cfg.PruneBelow {
			delete(t.weights, id)
			pruned = append(pruned, id)
			continue
		}
		t.weights[id] = remaining
	}
	return pruned
}
