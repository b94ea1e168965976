package combat

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/game/behavior"
	"github.com/duskhaven/mudcore/internal/game/crime"
	"github.com/duskhaven/mudcore/internal/game/dice"
	"github.com/duskhaven/mudcore/internal/game/duel"
	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/npc"
	"github.com/duskhaven/mudcore/internal/game/region"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// UnarmedDamage is the fallback damage expression when neither the attack
// options nor the attacker's prototype declare one.
const UnarmedDamage = "1d2"

// Additional gameplay denial strings beyond the policy's.
const (
	DenyAttackerDead = "You cannot fight while dead."
	DenyTargetDead   = "Target is already dead."
	DenyNotReady     = "That ability is not ready."
	DenyNoPower      = "You do not have the strength for that."
)

// AttackOptions tune one attack beyond the basic swing.
type AttackOptions struct {
	// Damage overrides the attacker's damage dice expression.
	Damage string
	// PowerResource and PowerCost gate the attack on a resource spend.
	PowerResource string
	PowerCost     int
	// CooldownKey and Cooldown gate and stamp an ability cooldown.
	CooldownKey string
	Cooldown    time.Duration
	// Rider is a status effect applied to the target on a landed hit.
	// DR-gated riders deny the whole attack before any spend when the
	// target is immune.
	Rider *effect.Def
	// AllowRiposte lets a parrying defender counter-strike.
	AllowRiposte bool
	// Policy is forwarded to the damage policy check.
	Policy duel.CheckOptions
}

// CounterReport describes a defender's retaliation strike.
type CounterReport struct {
	AttackerID string
	Hit        Result
	Damage     effect.DamageOutcome
	TargetDied bool
}

// AttackReport is the full outcome of one ExecuteAttack call.
type AttackReport struct {
	Allowed bool
	// DenyLabel and DenyReason are set when the attack was refused; a
	// refused attack mutated nothing.
	DenyLabel  string
	DenyReason string

	Hit    Result
	Damage effect.DamageOutcome
	// RiderResult is the rider application outcome, when a rider was given.
	RiderResult *effect.ApplyResult
	Procs       []behavior.ProcResult
	// Crime is the guard response when the hit registered as a crime.
	Crime *crime.Response
	// AssistSeeded lists pack allies whose threat was seeded by this hit.
	AssistSeeded []string
	// GateStarted and GateInterrupted report gate-for-help transitions.
	GateStarted     bool
	GateInterrupted bool
	// Counter is the NPC retaliation, when one fired.
	Counter    *CounterReport
	TargetDied bool
}

// Deps wires the engine's collaborators. Registry, NPCs, Policy and Source
// are required; the rest degrade to no-ops when nil.
type Deps struct {
	Registry *entity.Registry
	NPCs     *npc.Manager
	Policy   *duel.Policy
	Source   dice.Source

	Duels    *duel.Service
	Crimes   *crime.Recorder
	Regions  *region.Provider
	Procs    *behavior.ProcEngine
	Gates    *behavior.GateEngine
	Assister *threat.Assister
	Respawns *npc.RespawnManager

	DecayConfig threat.DecayConfig
	// CCTags marks rider tags that count as crowd control for gate
	// interruption; defaults to the DR config's tag set.
	CCTags []string
	Logger *zap.Logger
}

// Engine executes attacks end to end: permission, gates, hit resolution,
// damage, riders, procs, crime, threat, and NPC reactions. It mutates
// combatant state but never owns combatant lifecycle.
type Engine struct {
	deps Deps
}

// NewEngine validates deps and creates an Engine.
//
// Precondition: Registry, NPCs, Policy and Source must be non-nil.
func NewEngine(deps Deps) (*Engine, error) {
	switch {
	case deps.Registry == nil:
		return nil, fmt.Errorf("combat.NewEngine: Registry is required")
	case deps.NPCs == nil:
		return nil, fmt.Errorf("combat.NewEngine: NPCs is required")
	case deps.Policy == nil:
		return nil, fmt.Errorf("combat.NewEngine: Policy is required")
	case deps.Source == nil:
		return nil, fmt.Errorf("combat.NewEngine: Source is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if len(deps.CCTags) == 0 {
		deps.CCTags = effect.DefaultDRConfig().Tags
	}
	if deps.DecayConfig.PerSec == 0 {
		deps.DecayConfig = threat.DefaultDecayConfig()
	}
	return &Engine{deps: deps}, nil
}

// ExecuteAttack runs the full attack pipeline from attackerID against
// targetID. Denial gates run strictly before any mutation: a refused attack
// spends no power, starts no cooldown, and touches no shared state.
//
// Precondition: both ids must resolve in the entity registry.
// Postcondition: Returns a non-nil report; report.Allowed is false with a
// stable DenyReason for every refusal.
func (e *Engine) ExecuteAttack(attackerID, targetID string, opts AttackOptions, now time.Time) (*AttackReport, error) {
	attacker, ok := e.deps.Registry.Get(attackerID)
	if !ok {
		return nil, fmt.Errorf("attacker %q not found", attackerID)
	}
	target, ok := e.deps.Registry.Get(targetID)
	if !ok {
		return nil, fmt.Errorf("target %q not found", targetID)
	}

	if attacker.IsDead() {
		return deny("attacker_dead", DenyAttackerDead), nil
	}
	if target.IsDead() {
		return deny("target_dead", DenyTargetDead), nil
	}

	verdict := e.deps.Policy.Check(attacker, target, opts.Policy)
	if !verdict.Allowed {
		return deny(verdict.Label, verdict.Reason), nil
	}

	// DR immunity denies before any resource is spent or cooldown started.
	if opts.Rider != nil && target.Effects.PreviewDR(opts.Rider, now) == 0 {
		return deny("cc_immune", duel.DenyImmune), nil
	}
	if opts.CooldownKey != "" && attacker.OnCooldown(opts.CooldownKey, now) {
		return deny("cooldown", DenyNotReady), nil
	}
	if opts.PowerCost > 0 && !attacker.CanSpendPower(opts.PowerResource, opts.PowerCost) {
		return deny("power", DenyNoPower), nil
	}

	// All gates passed: commit costs.
	if opts.PowerCost > 0 {
		attacker.SpendPower(opts.PowerResource, opts.PowerCost)
	}
	if opts.CooldownKey != "" {
		attacker.StartCooldown(opts.CooldownKey, opts.Cooldown, now)
	}

	report := &AttackReport{Allowed: true}
	report.Hit = ResolvePhysicalHit(Input{
		AttackerLevel:     attacker.Level,
		DefenderLevel:     target.Level,
		WeaponSkillPoints: attacker.WeaponSkillPoints,
		AllowRiposte:      opts.AllowRiposte,
	}, e.deps.Source)

	if report.Hit.Outcome.Landed() {
		e.applyHit(attacker, target, opts, report, now)
	}
	e.npcReactions(attacker, target, report, now)

	e.deps.Logger.Debug("attack resolved",
		zap.String("attacker", attackerID),
		zap.String("target", targetID),
		zap.String("outcome", report.Hit.Outcome.String()),
		zap.Int("hp_lost", report.Damage.HPLost),
	)
	return report, nil
}

func deny(label, reason string) *AttackReport {
	return &AttackReport{DenyLabel: label, DenyReason: reason}
}

// applyHit deals damage and applies the rider, procs, and crime bookkeeping
// for a landed hit.
func (e *Engine) applyHit(attacker, target *entity.Combatant, opts AttackOptions, report *AttackReport, now time.Time) {
	raw := e.rollDamage(attacker, opts, report.Hit, now)
	report.Damage = target.Effects.ApplyIncomingDamage(raw, now)
	target.ApplyDamage(report.Damage.HPLost)

	if opts.Rider != nil {
		src := effect.SourceRef{Kind: sourceKind(attacker), ID: attacker.ID}
		res, err := target.Effects.Apply(opts.Rider, src, now)
		if err == nil {
			report.RiderResult = &res
			if (res.Applied || res.Refreshed) && e.deps.Gates != nil && e.isCC(opts.Rider) {
				if e.deps.Gates.OnCasterCrowdControlled(target.ID, now) {
					report.GateInterrupted = true
				}
			}
		}
	}

	if e.deps.Procs != nil {
		report.Procs = append(report.Procs, e.deps.Procs.OnHit(attacker, target, now)...)
		report.Procs = append(report.Procs, e.deps.Procs.OnBeingHit(attacker, target, now)...)
	}

	report.TargetDied = target.IsDead()
	e.recordCrime(attacker, target, report, now)
	if report.TargetDied {
		e.onDeath(target, now)
	}
}

// rollDamage rolls the attack's damage expression once per strike and scales
// the sum by the attacker's damage-dealt modifiers; crits double the total.
func (e *Engine) rollDamage(attacker *entity.Combatant, opts AttackOptions, hit Result, now time.Time) int {
	expr := opts.Damage
	if expr == "" {
		if inst, ok := e.deps.NPCs.Get(attacker.ID); ok && inst.Proto.Damage != "" {
			expr = inst.Proto.Damage
		}
	}
	if expr == "" {
		expr = UnarmedDamage
	}

	total := 0
	for i := 0; i < hit.Strikes; i++ {
		roll, err := dice.RollExpr(expr, e.deps.Source)
		if err != nil {
			e.deps.Logger.Warn("bad damage expression", zap.String("expr", expr), zap.Error(err))
			return 0
		}
		total += roll.Total()
	}

	pct, flat := attacker.Effects.DamageDealtScale(now)
	total = int(math.Round(float64(total)*(1+pct/100))) + flat
	if hit.Crit {
		total *= 2
	}
	if total < 0 {
		total = 0
	}
	return total
}

func (e *Engine) isCC(def *effect.Def) bool {
	for _, tag := range e.deps.CCTags {
		if def.HasTag(tag) {
			return true
		}
	}
	return false
}

func sourceKind(c *entity.Combatant) string {
	if c.IsPlayer() {
		return "player"
	}
	return "npc"
}

// recordCrime books the hit against the attacker's wanted state when the
// target is a protected NPC.
func (e *Engine) recordCrime(attacker, target *entity.Combatant, report *AttackReport, now time.Time) {
	if e.deps.Crimes == nil || !attacker.IsPlayer() {
		return
	}
	inst, ok := e.deps.NPCs.Get(target.ID)
	if !ok {
		return
	}
	profile := inst.Proto.GuardProfile
	if profile == "" && e.deps.Regions != nil {
		profile = e.deps.Regions.GuardProfileFor(target.RoomID)
	}
	victim := &crime.VictimInfo{Tags: inst.Proto.Tags, GuardProfile: profile}
	details := crime.Details{Lethal: report.TargetDied, NewHP: target.CurrentHP}
	if resp, recorded := e.deps.Crimes.RecordAgainst(victim, &attacker.Crime, details, now); recorded {
		report.Crime = &resp
	}
}

// npcReactions runs the defender's social responses: gate interruption by
// damage, threat attribution, pack assist, gate-for-help, and the counter
// strike. Counter strikes never cascade into further counters.
func (e *Engine) npcReactions(attacker, target *entity.Combatant, report *AttackReport, now time.Time) {
	inst, ok := e.deps.NPCs.Get(target.ID)
	if !ok {
		return
	}

	if report.Damage.HPLost > 0 && e.deps.Gates != nil {
		if e.deps.Gates.OnCasterDamaged(inst.ID, report.Damage.HPLost, now) {
			report.GateInterrupted = true
		}
	}

	if report.TargetDied {
		return
	}

	threatAmount := float64(report.Damage.Modified)
	if threatAmount > 0 {
		inst.Threat.AddThreat(attacker.ID, threatAmount, now)
		if e.deps.Assister != nil {
			report.AssistSeeded = e.deps.Assister.OnDamaged(inst.ID, attacker.ID, threatAmount, now)
		}
		if e.deps.Gates != nil && !report.GateInterrupted {
			report.GateStarted = e.deps.Gates.MaybeStart(inst, attacker.ID, threatAmount, now)
		}
	}

	if report.Hit.Outcome.Landed() || report.Hit.Riposte {
		if intent, ok := behavior.CounterAttack(inst, attacker.ID, now); ok {
			report.Counter = e.executeCounter(inst, attacker, intent, now)
		}
	}
}

// executeCounter resolves an NPC retaliation strike through the hit resolver
// and damage pipeline, with no riders, procs, or further reactions.
func (e *Engine) executeCounter(inst *npc.Instance, target *entity.Combatant, intent behavior.CounterIntent, now time.Time) *CounterReport {
	report := &CounterReport{AttackerID: inst.ID}
	report.Hit = ResolvePhysicalHit(Input{
		AttackerLevel:     inst.Combatant.Level,
		DefenderLevel:     target.Level,
		WeaponSkillPoints: inst.Combatant.WeaponSkillPoints,
	}, e.deps.Source)
	if !report.Hit.Outcome.Landed() {
		return report
	}

	total := 0
	for i := 0; i < report.Hit.Strikes; i++ {
		roll, err := dice.RollExpr(intent.Damage, e.deps.Source)
		if err != nil {
			return report
		}
		total += roll.Total()
	}
	pct, flat := inst.Combatant.Effects.DamageDealtScale(now)
	total = int(math.Round(float64(total)*(1+pct/100))) + flat
	if report.Hit.Crit {
		total *= 2
	}
	if total < 0 {
		total = 0
	}

	report.Damage = target.Effects.ApplyIncomingDamage(total, now)
	target.ApplyDamage(report.Damage.HPLost)
	report.TargetDied = target.IsDead()
	if report.TargetDied {
		e.onDeath(target, now)
	}
	return report
}

// onDeath performs the engine's own bookkeeping for a death: duels end, NPC
// threat tables clear, in-flight gate casts are dropped, and the corpse is
// despawned with a respawn scheduled when the prototype respawns.
func (e *Engine) onDeath(victim *entity.Combatant, now time.Time) {
	if e.deps.Duels != nil && victim.IsPlayer() {
		e.deps.Duels.EndFor(victim.ID, "death", now)
	}
	inst, ok := e.deps.NPCs.Get(victim.ID)
	if !ok {
		return
	}
	inst.Threat.Clear()
	if e.deps.Gates != nil {
		e.deps.Gates.OnCasterDied(inst.ID)
	}
	roomID := inst.RoomID()
	if e.deps.Respawns != nil {
		delay := e.deps.Respawns.ResolvedDelay(inst.PrototypeID, roomID)
		e.deps.Respawns.Schedule(inst.PrototypeID, roomID, now, delay)
	}
	if err := e.deps.NPCs.Remove(inst.ID); err != nil {
		e.deps.Logger.Warn("despawn failed", zap.String("npc", inst.ID), zap.Error(err))
	}
}

// Tick advances all time-driven combat state to now: DOT and HOT payloads on
// every combatant, threat decay on every NPC table, gate-for-help waves, and
// duel expiry.
//
// Postcondition: Returns the gate waves fired during this call.
func (e *Engine) Tick(now time.Time) []behavior.WaveResult {
	for _, c := range e.deps.Registry.All() {
		target := c
		target.Effects.TickDots(now, func(_ *effect.Instance, amount int) {
			outcome := target.Effects.ApplyIncomingDamage(amount, now)
			target.ApplyDamage(outcome.HPLost)
			if target.IsDead() {
				e.onDeath(target, now)
			}
		})
		target.Effects.TickHots(now, func(_ *effect.Instance, amount int) {
			target.Heal(amount)
		})
	}

	for _, inst := range e.deps.NPCs.All() {
		inst.Threat.Decay(e.deps.DecayConfig, threat.DecayOptions{
			Now:            now,
			RoleFor:        e.deps.NPCs.RoleFor,
			ValidateTarget: e.deps.NPCs.ValidateTargetFor(inst.ID),
		})
	}

	var waves []behavior.WaveResult
	if e.deps.Gates != nil {
		waves = e.deps.Gates.Tick(now)
	}
	if e.deps.Duels != nil {
		e.deps.Duels.Tick(now)
	}
	return waves
}
