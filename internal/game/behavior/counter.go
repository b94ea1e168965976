package behavior

import (
	"time"

	"github.com/duskhaven/mudcore/internal/game/npc"
)

// TrainingTag marks prototypes that absorb hits without any reaction:
// no counter-attacks and no crime registration, regardless of other flags.
const TrainingTag = "training"

// Crowd-control tags that keep an NPC from striking back while active.
var counterSuppressingTags = []string{"stun", "fear"}

// CounterIntent is a requested retaliation strike. The combat engine
// executes it through the normal attack pipeline; this package never deals
// damage itself.
type CounterIntent struct {
	AttackerID string
	TargetID   string
	// Damage is the dice expression from the NPC's prototype.
	Damage string
}

// CounterAttack decides whether inst strikes back at attackerID after being
// hit. Training-tagged prototypes never retaliate; that exemption is checked
// before anything else and cannot be configured away.
//
// Postcondition: Returns (intent, true) iff the NPC is alive, able to act,
// and its prototype declares counter damage.
func CounterAttack(inst *npc.Instance, attackerID string, now time.Time) (CounterIntent, bool) {
	if inst == nil || inst.HasTag(TrainingTag) {
		return CounterIntent{}, false
	}
	if attackerID == "" || inst.IsDead() || inst.Proto.Damage == "" {
		return CounterIntent{}, false
	}
	for _, tag := range counterSuppressingTags {
		if inst.Combatant.Effects.HasTag(tag, now) {
			return CounterIntent{}, false
		}
	}
	return CounterIntent{
		AttackerID: inst.ID,
		TargetID:   attackerID,
		Damage:     inst.Proto.Damage,
	}, true
}
