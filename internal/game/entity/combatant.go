// Package entity provides combatant runtime state and the registry that
// tracks live combatants and their room membership.
package entity

import (
	"time"

	"github.com/duskhaven/mudcore/internal/game/crime"
	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// Kind distinguishes player combatants from NPC combatants.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

// Combatant is one live participant in combat: a player character or an
// NPC instance. The combat engine mutates its fields but never owns its
// lifecycle; the session or NPC manager that created it does.
type Combatant struct {
	ID    string
	Kind  Kind
	Name  string
	Level int

	MaxHP     int
	CurrentHP int
	// Dead marks a permanently killed combatant.
	Dead bool

	RoomID  string
	GuildID string
	Role    threat.Role

	// WeaponSkillPoints feeds hit resolution familiarity.
	WeaponSkillPoints int
	// Equipment lists equipped item template ids for proc evaluation.
	Equipment []string
	// ServiceProtected grants unconditional damage immunity (staff, event
	// NPCs) unless a policy check explicitly ignores it.
	ServiceProtected bool

	// Effects is the combatant's status effect set.
	Effects *effect.ActiveSet
	// Cooldowns maps ability keys to their ready-at timestamps.
	Cooldowns map[string]time.Time
	// Power maps resource names (mana, fury) to current values.
	Power map[string]int
	// Crime is the wanted-state bookkeeping, mutated only by the crime package.
	Crime crime.State
}

// NewCombatant creates a Combatant with initialised maps and a fresh effect
// set using drCfg.
//
// Precondition: id must be non-empty; maxHP >= 1.
func NewCombatant(id string, kind Kind, name string, level, maxHP int, drCfg effect.DRConfig) *Combatant {
	return &Combatant{
		ID:        id,
		Kind:      kind,
		Name:      name,
		Level:     level,
		MaxHP:     maxHP,
		CurrentHP: maxHP,
		Effects:   effect.NewActiveSet(drCfg),
		Cooldowns: make(map[string]time.Time),
		Power:     make(map[string]int),
	}
}

// IsPlayer reports whether this combatant is a player character.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// IsDead reports whether this combatant is dead.
//
// Postcondition: Returns true iff Dead is set or CurrentHP <= 0.
func (c *Combatant) IsDead() bool {
	return c.Dead || c.CurrentHP <= 0
}

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0.
func (c *Combatant) ApplyDamage(amount int) {
	c.CurrentHP -= amount
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
}

// Heal raises CurrentHP by amount, capped at MaxHP. Dead combatants are
// not healed.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP <= MaxHP.
func (c *Combatant) Heal(amount int) {
	if c.IsDead() {
		return
	}
	c.CurrentHP += amount
	if c.CurrentHP > c.MaxHP {
		c.CurrentHP = c.MaxHP
	}
}

// HPPercent returns current HP as a fraction of max in [0, 1].
func (c *Combatant) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.CurrentHP) / float64(c.MaxHP)
}

// OnCooldown reports whether the ability key is still cooling down at now.
func (c *Combatant) OnCooldown(key string, now time.Time) bool {
	readyAt, ok := c.Cooldowns[key]
	return ok && now.Before(readyAt)
}

// StartCooldown stamps the ability key as ready again after d.
func (c *Combatant) StartCooldown(key string, d time.Duration, now time.Time) {
	c.Cooldowns[key] = now.Add(d)
}

// CanSpendPower reports whether the resource holds at least amount.
func (c *Combatant) CanSpendPower(resource string, amount int) bool {
	return c.Power[resource] >= amount
}

// SpendPower deducts amount from the resource.
//
// Postcondition: Returns false and mutates nothing when the resource is
// insufficient.
func (c *Combatant) SpendPower(resource string, amount int) bool {
	if !c.CanSpendPower(resource, amount) {
		return false
	}
	c.Power[resource] -= amount
	return true
}

// Allied reports whether two combatants count as allies for friendly-fire
// purposes: both players sharing a non-empty guild.
func Allied(a, b *Combatant) bool {
	if a == nil || b == nil {
		return false
	}
	return a.IsPlayer() && b.IsPlayer() && a.GuildID != "" && a.GuildID == b.GuildID
}
