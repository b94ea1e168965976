// Package combat implements physical hit resolution and the attack pipeline
// for the Duskhaven combat engine.
package combat

// Outcome is the result tier of a physical attack.
type Outcome int

const (
	// OutcomeHit is a clean landed strike.
	OutcomeHit Outcome = iota
	// OutcomeMiss is a whiffed attack; no avoidance roll occurs.
	OutcomeMiss
	// OutcomeDodge is a defender full-avoid.
	OutcomeDodge
	// OutcomeParry is a defender deflection; may grant a riposte.
	OutcomeParry
	// OutcomeBlock is a defender shield stop.
	OutcomeBlock
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeDodge:
		return "dodge"
	case OutcomeParry:
		return "parry"
	case OutcomeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Landed reports whether the attack connects and deals damage.
//
// Postcondition: Returns true iff o == OutcomeHit.
func (o Outcome) Landed() bool { return o == OutcomeHit }

// WeaponSkillCap returns the maximum weapon skill points usable at level.
// Points above the cap contribute nothing to familiarity.
//
// Precondition: level >= 1.
// Postcondition: Returns level * 5.
func WeaponSkillCap(level int) int {
	return level * 5
}

// Familiarity returns the attacker's weapon familiarity in [0, 1]:
// skill points divided by the level-derived cap, clamped at 1.
//
// Precondition: level >= 1; points >= 0.
func Familiarity(points, level int) float64 {
	capPts := WeaponSkillCap(level)
	if capPts <= 0 {
		return 0
	}
	f := float64(points) / float64(capPts)
	if f > 1 {
		return 1
	}
	return f
}
