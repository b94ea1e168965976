// Package behavior provides NPC social reactions to combat events:
// gate-for-help casts, gear proc evaluation, and counter-attack intents.
package behavior

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/game/npc"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// WaveResult reports one recruitment wave fired by a completed gate cast.
type WaveResult struct {
	CasterID string
	// Wave is the 1-based wave number.
	Wave int
	// Recruited lists ally ids whose threat tables were seeded.
	Recruited []string
}

type gateCast struct {
	inst          *npc.Instance
	attackerID    string
	triggerThreat float64
	startedAt     time.Time
	completesAt   time.Time
	completed     bool
	wavesFired    int
	nextWaveAt    time.Time
	recruited     map[string]bool
}

// GateEngine runs gate-for-help casts: a wounded gater NPC begins a visible
// timed cast that, on natural completion, recruits allies from an expanded
// radius across discrete waves. Interruption removes the cast entirely, so
// no wave can fire afterwards regardless of how late Tick is driven.
type GateEngine struct {
	mu        sync.Mutex
	provider  threat.AllyProvider
	assistCfg threat.AssistConfig
	casts     map[string]*gateCast
	logger    *zap.Logger
}

// NewGateEngine creates a GateEngine. assistCfg supplies the base seed
// calculation that gate waves boost. A nil logger is replaced with a no-op.
//
// Precondition: provider must be non-nil.
func NewGateEngine(provider threat.AllyProvider, assistCfg threat.AssistConfig, logger *zap.Logger) *GateEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateEngine{
		provider:  provider,
		assistCfg: assistCfg,
		casts:     make(map[string]*gateCast),
		logger:    logger,
	}
}

// MaybeStart begins a gate cast for inst if its profile allows one: the NPC
// gates, is wounded to its HP threshold, is off cooldown, and is not already
// casting.
//
// Postcondition: Returns true iff a new cast started; the gate cooldown is
// stamped at cast start.
func (g *GateEngine) MaybeStart(inst *npc.Instance, attackerID string, triggerThreat float64, now time.Time) bool {
	if inst == nil || inst.Gate == nil || attackerID == "" || inst.IsDead() {
		return false
	}
	if inst.Combatant.HPPercent() > inst.Gate.HPThreshold {
		return false
	}
	if inst.Combatant.OnCooldown(gateCooldownKey, now) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, casting := g.casts[inst.ID]; casting {
		return false
	}

	inst.Combatant.StartCooldown(gateCooldownKey, inst.Gate.Cooldown, now)
	g.casts[inst.ID] = &gateCast{
		inst:          inst,
		attackerID:    attackerID,
		triggerThreat: triggerThreat,
		startedAt:     now,
		completesAt:   now.Add(inst.Gate.CastTime),
		recruited:     map[string]bool{inst.ID: true},
	}
	g.logger.Info("gate cast started",
		zap.String("caster", inst.ID),
		zap.String("attacker", attackerID),
		zap.Time("completes_at", g.casts[inst.ID].completesAt),
	)
	return true
}

const gateCooldownKey = "gate_for_help"

// Casting reports whether npcID has a cast in flight (including the wave
// phase after completion).
func (g *GateEngine) Casting(npcID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.casts[npcID]
	return ok
}

// OnCasterDamaged interrupts npcID's cast when a single hit meets the
// profile's damage threshold. Waves already owed by a completed cast are
// not cancelable.
//
// Postcondition: Returns true exactly once per interrupted cast; the caller
// broadcasts the interrupt message.
func (g *GateEngine) OnCasterDamaged(npcID string, amount int, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cast, ok := g.casts[npcID]
	if !ok || cast.completed {
		return false
	}
	threshold := cast.inst.Gate.CancelDamageThreshold
	if threshold <= 0 || amount < threshold {
		return false
	}
	return g.interruptLocked(cast, "damage", now)
}

// OnCasterCrowdControlled interrupts npcID's cast when the profile cancels
// on crowd control.
//
// Postcondition: Returns true exactly once per interrupted cast.
func (g *GateEngine) OnCasterCrowdControlled(npcID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cast, ok := g.casts[npcID]
	if !ok || cast.completed || !cast.inst.Gate.CancelOnCC {
		return false
	}
	return g.interruptLocked(cast, "crowd_control", now)
}

func (g *GateEngine) interruptLocked(cast *gateCast, cause string, now time.Time) bool {
	delete(g.casts, cast.inst.ID)
	g.logger.Info("gate cast interrupted",
		zap.String("caster", cast.inst.ID),
		zap.String("cause", cause),
		zap.Duration("into_cast", now.Sub(cast.startedAt)),
	)
	return true
}

// OnCasterDied drops npcID's cast, including any waves still owed by a
// completed one. A dead caster recruits nobody.
func (g *GateEngine) OnCasterDied(npcID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.casts, npcID)
}

// Tick advances every cast: casts whose completion timestamp has passed fire
// their owed recruitment waves, at most one wave per owed interval, and are
// removed after the final wave.
//
// Postcondition: Returns the waves fired during this call in caster order.
func (g *GateEngine) Tick(now time.Time) []WaveResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	var results []WaveResult
	for id, cast := range g.casts {
		if !cast.completed {
			if now.Before(cast.completesAt) {
				continue
			}
			cast.completed = true
			cast.nextWaveAt = cast.completesAt
		}
		for cast.wavesFired < cast.inst.Gate.Waves && !now.Before(cast.nextWaveAt) {
			results = append(results, g.fireWaveLocked(cast, now))
			cast.wavesFired++
			cast.nextWaveAt = cast.nextWaveAt.Add(cast.inst.Gate.WaveInterval)
		}
		if cast.wavesFired >= cast.inst.Gate.Waves {
			delete(g.casts, id)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CasterID != results[j].CasterID {
			return results[i].CasterID < results[j].CasterID
		}
		return results[i].Wave < results[j].Wave
	})
	return results
}

func (g *GateEngine) fireWaveLocked(cast *gateCast, now time.Time) WaveResult {
	gate := cast.inst.Gate
	seed := g.assistCfg.Seed(cast.triggerThreat) * gate.SeedMultiplier

	result := WaveResult{CasterID: cast.inst.ID, Wave: cast.wavesFired + 1}
	for _, allyID := range g.provider.AlliesNear(cast.inst.ID, gate.Radius, false) {
		if len(result.Recruited) >= gate.WaveCap {
			break
		}
		if cast.recruited[allyID] {
			continue
		}
		table, ok := g.provider.TableFor(allyID)
		if !ok {
			continue
		}
		table.AddThreat(cast.attackerID, seed, now)
		cast.recruited[allyID] = true
		result.Recruited = append(result.Recruited, allyID)
	}
	g.logger.Debug("gate wave fired",
		zap.String("caster", cast.inst.ID),
		zap.Int("wave", result.Wave),
		zap.Int("recruited", len(result.Recruited)),
	)
	return result
}
