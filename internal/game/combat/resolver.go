package combat

import "github.com/duskhaven/mudcore/internal/game/dice"

// Chance curve constants for physical hit resolution. Familiarity is the
// weapon-skill ratio in [0, 1]; levelDelta is defender level minus attacker
// level (positive when the defender outlevels the attacker).
const (
	baseHitChance       = 0.80
	hitFamiliarityBonus = 0.15
	hitLevelDeltaStep   = 0.02
	minHitChance        = 0.05
	maxHitChance        = 0.99

	baseAvoidBand       = 0.05
	avoidLevelDeltaStep = 0.05
	avoidFamiliarityCut = 0.5

	baseDoubleChance       = 0.05
	doubleFamiliarityBonus = 0.15
	baseTripleChance       = 0.01
	tripleFamiliarityBonus = 0.04

	baseCritChance       = 0.05
	critFamiliarityBonus = 0.10
)

// Input carries everything ResolvePhysicalHit needs. The RNG source is
// injected so tests can force any branch deterministically.
type Input struct {
	AttackerLevel     int
	DefenderLevel     int
	WeaponSkillPoints int
	// AllowRiposte permits a parry outcome to grant the defender a riposte.
	AllowRiposte bool
}

// Result is the outcome of one physical attack resolution.
type Result struct {
	Outcome Outcome
	// Strikes is 1, 2, or 3 for landed hits; 0 otherwise.
	Strikes int
	// Crit is true when the landed hit is a critical strike.
	Crit bool
	// Riposte is true when a parry grants the defender a counter-strike.
	Riposte bool
}

// ResolvePhysicalHit resolves one physical attack as a pure function of its
// inputs and the injected RNG source.
//
// The roll order is a fixed contract:
//  1. hit/miss roll;
//  2. if hit, one avoidance roll partitioning [0, 1) into dodge/parry/block
//     bands sized by level delta and attacker familiarity; the parry band
//     sets Riposte when in.AllowRiposte;
//  3. multi-strike roll (triple checked before double);
//  4. crit roll, independent of the others.
//
// Precondition: in.AttackerLevel >= 1; in.DefenderLevel >= 1; src non-nil.
// Postcondition: Result.Strikes >= 1 iff Outcome == OutcomeHit.
func ResolvePhysicalHit(in Input, src dice.Source) Result {
	familiarity := Familiarity(in.WeaponSkillPoints, in.AttackerLevel)
	levelDelta := float64(in.DefenderLevel - in.AttackerLevel)

	// Roll 1: hit or miss.
	hitChance := clamp(
		baseHitChance+hitFamiliarityBonus*familiarity-hitLevelDeltaStep*levelDelta,
		minHitChance, maxHitChance,
	)
	if src.Float64() >= hitChance {
		return Result{Outcome: OutcomeMiss}
	}

	// Roll 2: defender avoidance bands, in dodge/parry/block order.
	band := avoidBand(levelDelta, familiarity)
	avoidRoll := src.Float64()
	switch {
	case avoidRoll < band:
		return Result{Outcome: OutcomeDodge}
	case avoidRoll < 2*band:
		return Result{Outcome: OutcomeParry, Riposte: in.AllowRiposte}
	case avoidRoll < 3*band:
		return Result{Outcome: OutcomeBlock}
	}

	// Roll 3: multi-strike.
	strikes := 1
	tripleChance := baseTripleChance + tripleFamiliarityBonus*familiarity
	doubleChance := baseDoubleChance + doubleFamiliarityBonus*familiarity
	strikeRoll := src.Float64()
	switch {
	case strikeRoll < tripleChance:
		strikes = 3
	case strikeRoll < tripleChance+doubleChance:
		strikes = 2
	}

	// Roll 4: crit, independent.
	critChance := baseCritChance + critFamiliarityBonus*familiarity
	crit := src.Float64() < critChance

	return Result{Outcome: OutcomeHit, Strikes: strikes, Crit: crit}
}

// avoidBand returns the width of each single avoidance band (dodge, parry,
// block are equal-width). Defender level advantage widens the bands; attacker
// familiarity narrows them.
//
// Postcondition: Returns a value in [0, 1/3).
func avoidBand(levelDelta, familiarity float64) float64 {
	band := baseAvoidBand * (1 + avoidLevelDeltaStep*levelDelta) * (1 - avoidFamiliarityCut*familiarity)
	if band < 0 {
		return 0
	}
	if band >= 1.0/3 {
		return 0.33
	}
	return band
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
