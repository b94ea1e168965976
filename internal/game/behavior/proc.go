package behavior

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/game/dice"
	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/item"
)

// DamageScripter runs a Lua damage hook for a scripted proc.
type DamageScripter interface {
	// ProcDamage evaluates the named script with the item owner's and the
	// payload recipient's levels and returns the damage amount.
	ProcDamage(script string, ownerLevel, recipientLevel int) (int, error)
}

// ProcConfig tunes proc evaluation.
type ProcConfig struct {
	// ChainEnabled is the engine-wide switch for proc chaining. A proc
	// chains only when this is set and the proc itself opts in.
	ChainEnabled bool
	// MaxChainDepth bounds recursive chains.
	MaxChainDepth int
}

// DefaultProcConfig returns the standard proc policy: chaining off.
func DefaultProcConfig() ProcConfig {
	return ProcConfig{MaxChainDepth: 2}
}

// ProcResult reports one proc activation.
type ProcResult struct {
	ItemID  string
	Trigger string
	// RecipientID is the combatant the proc payload landed on.
	RecipientID string
	// Damage is the flat damage dealt; zero for effect procs.
	Damage int
	// EffectID is the applied status effect; empty for damage procs.
	EffectID string
	// Chained marks activations produced by chain evaluation.
	Chained bool
}

// ProcEngine evaluates gear procs on combat events. Activation state (item
// internal cooldowns) lives here, keyed by owner and item, so prototype and
// item definitions stay read-only.
type ProcEngine struct {
	items   *item.Registry
	effects *effect.Registry
	scripts DamageScripter
	cfg     ProcConfig
	src     dice.Source
	logger  *zap.Logger

	mu  sync.Mutex
	icd map[string]time.Time // ownerID+"/"+itemID → ready-at
}

// NewProcEngine creates a ProcEngine. scripts may be nil, in which case
// scripted procs fall back to their dice expression or are skipped. A nil
// logger is replaced with a no-op.
//
// Precondition: items, effects and src must be non-nil.
func NewProcEngine(items *item.Registry, effects *effect.Registry, scripts DamageScripter, cfg ProcConfig, src dice.Source, logger *zap.Logger) *ProcEngine {
	if cfg.MaxChainDepth < 1 {
		cfg.MaxChainDepth = DefaultProcConfig().MaxChainDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcEngine{
		items:   items,
		effects: effects,
		scripts: scripts,
		cfg:     cfg,
		src:     src,
		icd:     make(map[string]time.Time),
		logger:  logger,
	}
}

// OnHit evaluates the attacker's on-hit procs after a landed attack.
//
// Postcondition: Returns every activation, including chained ones, in
// evaluation order. Payloads have already been applied to their recipients.
func (e *ProcEngine) OnHit(attacker, defender *entity.Combatant, now time.Time) []ProcResult {
	return e.evaluate(item.TriggerOnHit, attacker, attacker, defender, 0, now)
}

// OnBeingHit evaluates the defender's retaliation procs after being struck.
func (e *ProcEngine) OnBeingHit(attacker, defender *entity.Combatant, now time.Time) []ProcResult {
	return e.evaluate(item.TriggerOnBeingHit, defender, attacker, defender, 0, now)
}

// evaluate rolls every matching proc on the owner's equipment. attacker and
// defender are the original attack's parties; ApplyTo resolves against them
// regardless of which side owns the item.
func (e *ProcEngine) evaluate(trigger string, owner, attacker, defender *entity.Combatant, depth int, now time.Time) []ProcResult {
	if owner == nil || attacker == nil || defender == nil {
		return nil
	}

	var results []ProcResult
	for _, itemID := range owner.Equipment {
		def, ok := e.items.Get(itemID)
		if !ok {
			continue
		}
		for i := range def.Procs {
			proc := &def.Procs[i]
			if proc.Trigger != trigger {
				continue
			}
			if e.onICD(owner.ID, itemID, now) {
				continue
			}
			if e.src.Float64() >= proc.Chance {
				continue
			}
			e.stampICD(owner.ID, itemID, proc.ICD, now)

			recipient := defender
			if proc.ApplyTo == item.ApplyToAttacker {
				recipient = attacker
			}
			result, ok := e.fire(proc, itemID, trigger, owner, recipient, depth > 0, now)
			if !ok {
				continue
			}
			results = append(results, result)

			// A damage proc is itself a hit on the recipient and may chain
			// into the recipient's retaliation procs.
			if result.Damage > 0 && e.cfg.ChainEnabled && proc.AllowChain && depth+1 < e.cfg.MaxChainDepth {
				chained := e.evaluate(item.TriggerOnBeingHit, recipient, owner, recipient, depth+1, now)
				for j := range chained {
					chained[j].Chained = true
				}
				results = append(results, chained...)
			}
		}
	}
	return results
}

func (e *ProcEngine) fire(proc *item.ProcDef, itemID, trigger string, owner, recipient *entity.Combatant, chained bool, now time.Time) (ProcResult, bool) {
	result := ProcResult{
		ItemID:      itemID,
		Trigger:     trigger,
		RecipientID: recipient.ID,
		Chained:     chained,
	}
	switch {
	case proc.EffectID != "":
		def, ok := e.effects.Get(proc.EffectID)
		if !ok {
			e.logger.Warn("proc references unknown effect",
				zap.String("item", itemID),
				zap.String("effect", proc.EffectID),
			)
			return ProcResult{}, false
		}
		if _, err := recipient.Effects.Apply(def, effect.SourceRef{Kind: "item", ID: itemID}, now); err != nil {
			return ProcResult{}, false
		}
		result.EffectID = proc.EffectID
	default:
		amount, ok := e.procDamage(proc, itemID, owner, recipient)
		if !ok || amount <= 0 {
			return ProcResult{}, false
		}
		outcome := recipient.Effects.ApplyIncomingDamage(amount, now)
		recipient.ApplyDamage(outcome.HPLost)
		result.Damage = amount
	}
	return result, true
}

func (e *ProcEngine) procDamage(proc *item.ProcDef, itemID string, owner, recipient *entity.Combatant) (int, bool) {
	if proc.Script != "" && e.scripts != nil {
		amount, err := e.scripts.ProcDamage(proc.Script, owner.Level, recipient.Level)
		if err == nil {
			return amount, true
		}
		e.logger.Warn("proc script failed, falling back to dice",
			zap.String("item", itemID),
			zap.String("script", proc.Script),
			zap.Error(err),
		)
	}
	if proc.Damage == "" {
		return 0, false
	}
	roll, err := dice.RollExpr(proc.Damage, e.src)
	if err != nil {
		return 0, false
	}
	return roll.Total(), true
}

func (e *ProcEngine) onICD(ownerID, itemID string, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	readyAt, ok := e.icd[ownerID+"/"+itemID]
	return ok && now.Before(readyAt)
}

func (e *ProcEngine) stampICD(ownerID, itemID string, icd time.Duration, now time.Time) {
	if icd <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.icd[ownerID+"/"+itemID] = now.Add(icd)
}
