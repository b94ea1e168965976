package npc

import (
	"time"

	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// GateSettings is a prototype gate profile with durations parsed, copied onto
// the instance at spawn time.
type GateSettings struct {
	HPThreshold           float64
	CastTime              time.Duration
	Cooldown              time.Duration
	Waves                 int
	WaveInterval          time.Duration
	WaveCap               int
	Radius                float64
	SeedMultiplier        float64
	CancelDamageThreshold int
	CancelOnCC            bool
}

// Instance is a live NPC occupying a room. It owns the NPC's threat table;
// the combatant runtime state lives in the entity registry.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// PrototypeID is the source prototype's id.
	PrototypeID string
	// Proto is the read-only source prototype.
	Proto *Prototype
	// Combatant is this instance's runtime combat state.
	Combatant *entity.Combatant
	// Threat is this instance's target table, destroyed with the instance.
	Threat *threat.Table
	// Gate is the parsed gate-for-help profile; nil means the NPC never gates.
	Gate *GateSettings
	// RespawnDelay is the parsed respawn delay; zero means no respawn.
	RespawnDelay time.Duration
}

func newInstance(id string, proto *Prototype, c *entity.Combatant, now time.Time) *Instance {
	inst := &Instance{
		ID:          id,
		PrototypeID: proto.ID,
		Proto:       proto,
		Combatant:   c,
		Threat:      threat.NewTable(now),
	}
	if proto.RespawnDelay != "" {
		inst.RespawnDelay, _ = time.ParseDuration(proto.RespawnDelay)
	}
	if g := proto.Gate; g != nil {
		castTime, _ := time.ParseDuration(g.CastTime)
		cooldown, _ := time.ParseDuration(g.Cooldown)
		waveInterval, _ := time.ParseDuration(g.WaveInterval)
		inst.Gate = &GateSettings{
			HPThreshold:           g.HPThreshold,
			CastTime:              castTime,
			Cooldown:              cooldown,
			Waves:                 g.Waves,
			WaveInterval:          waveInterval,
			WaveCap:               g.WaveCap,
			Radius:                g.Radius,
			SeedMultiplier:        g.SeedMultiplier,
			CancelDamageThreshold: g.CancelDamageThreshold,
			CancelOnCC:            g.CancelOnCC,
		}
	}
	return inst
}

// RoomID returns the instance's current room.
func (i *Instance) RoomID() string { return i.Combatant.RoomID }

// IsDead reports whether the instance has zero or fewer hit points.
func (i *Instance) IsDead() bool { return i.Combatant.IsDead() }

// HasTag reports whether the instance's prototype carries the given tag.
func (i *Instance) HasTag(tag string) bool { return i.Proto.HasTag(tag) }

// HealthDescription returns a visible health state string suitable for
// examine output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	if i.Combatant.CurrentHP <= 0 {
		return "dead"
	}
	pct := i.Combatant.HPPercent()
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
