package duel

import (
	"go.uber.org/zap"

	"github.com/duskhaven/mudcore/internal/game/entity"
)

// Mode classifies a damage attempt.
type Mode string

const (
	ModePvE Mode = "pve"
	ModePvP Mode = "pvp"
)

// Stable user-facing denial strings; upstream formatting asserts on these.
const (
	DenyImmune       = "Target is immune."
	DenyNoCombat     = "You cannot attack here."
	DenyFriendlyFire = "You cannot attack your ally."
	DenyNoPvP        = "You cannot attack other players here."
)

// Verdict is the structured outcome of a damage permission check.
type Verdict struct {
	Allowed bool
	Mode    Mode
	// Label names the rule that decided the verdict, e.g. "duel", "open_pvp",
	// "service_protection".
	Label string
	// Reason is the user-facing denial string; empty when Allowed.
	Reason string
}

// RegionFlags is the region collaborator consulted for combat permission.
// The second return reports whether the region gave a signal at all; callers
// fall back to defaults when it is false.
type RegionFlags interface {
	CombatEnabled(roomID string) (enabled, ok bool)
	PvPEnabled(roomID string) (enabled, ok bool)
}

// DuelChecker is the slice of the duel service the policy needs.
type DuelChecker interface {
	ActiveBetween(a, b string) bool
}

// CheckOptions tune a single permission check.
type CheckOptions struct {
	// IgnoreServiceProtection bypasses defender immunity (admin commands).
	IgnoreServiceProtection bool
	// CombatOverride, when non-nil, wins over any region combat flag.
	CombatOverride *bool
}

// Policy is the single arbitration point for damage permission. Denials are
// final; a denied attack must be a complete no-op upstream.
type Policy struct {
	regions RegionFlags
	duels   DuelChecker
	logger  *zap.Logger
}

// NewPolicy creates a Policy. regions may be nil (no region signal); duels
// may be nil (no duels ever active); a nil logger is replaced with a no-op.
func NewPolicy(regions RegionFlags, duels DuelChecker, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{regions: regions, duels: duels, logger: logger}
}

// Check arbitrates whether attacker may damage defender in the defender's
// room. Rules compose in order: service protection, region combat flag,
// then the PvP gate. Ambiguous context fails closed for PvP and open for PvE.
//
// Precondition: attacker and defender must be non-nil; a nil party denies.
// Postcondition: Returns a Verdict with a stable Reason string on denial.
// Check never mutates either combatant.
func (p *Policy) Check(attacker, defender *entity.Combatant, opts CheckOptions) Verdict {
	if attacker == nil || defender == nil {
		return Verdict{Allowed: false, Label: "invalid", Reason: DenyNoCombat}
	}

	mode := ModePvE
	if attacker.IsPlayer() && defender.IsPlayer() {
		mode = ModePvP
	}

	if defender.ServiceProtected && !opts.IgnoreServiceProtection {
		return Verdict{Allowed: false, Mode: mode, Label: "service_protection", Reason: DenyImmune}
	}

	roomID := defender.RoomID
	combatEnabled, haveSignal := p.combatSignal(roomID, opts)
	if haveSignal && !combatEnabled {
		return Verdict{Allowed: false, Mode: mode, Label: "combat_disabled", Reason: DenyNoCombat}
	}

	if mode == ModePvE {
		// No signal defaults to allowed for PvE.
		return Verdict{Allowed: true, Mode: mode, Label: "pve"}
	}

	// PvP gate. An active duel always allows, even between allies.
	if p.duels != nil && p.duels.ActiveBetween(attacker.ID, defender.ID) {
		return Verdict{Allowed: true, Mode: mode, Label: "duel"}
	}
	if enabled, ok := p.pvpSignal(roomID); ok && enabled {
		if entity.Allied(attacker, defender) {
			return Verdict{Allowed: false, Mode: mode, Label: "friendly_fire", Reason: DenyFriendlyFire}
		}
		return Verdict{Allowed: true, Mode: mode, Label: "open_pvp"}
	}
	// No duel and no open-PvP region: fail closed.
	return Verdict{Allowed: false, Mode: mode, Label: "pvp_disabled", Reason: DenyNoPvP}
}

func (p *Policy) combatSignal(roomID string, opts CheckOptions) (enabled, ok bool) {
	if opts.CombatOverride != nil {
		return *opts.CombatOverride, true
	}
	if p.regions == nil {
		return false, false
	}
	return p.regions.CombatEnabled(roomID)
}

func (p *Policy) pvpSignal(roomID string) (enabled, ok bool) {
	if p.regions == nil {
		return false, false
	}
	return p.regions.PvPEnabled(roomID)
}
