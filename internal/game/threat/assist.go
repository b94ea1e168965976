package threat

import (
	"time"

	"go.uber.org/zap"
)

// AssistConfig tunes pack-assist seeding.
type AssistConfig struct {
	// Radius is the ally notification range, in room-grid units.
	Radius float64
	// SharePct is the percentage of the triggering threat seeded to allies.
	SharePct float64
	// MinSeed and MaxSeed clamp the computed seed.
	MinSeed float64
	MaxSeed float64
	// MinDelta suppresses the bump when an ally's existing threat on the
	// attacker already exceeds the candidate seed by at least this much.
	MinDelta float64
	// SameGroupOnly restricts assists to allies sharing the victim's group.
	SameGroupOnly bool
}

// DefaultAssistConfig returns the standard pack-assist policy.
func DefaultAssistConfig() AssistConfig {
	return AssistConfig{
		Radius:   20,
		SharePct: 30,
		MinSeed:  1,
		MaxSeed:  50,
		MinDelta: 5,
	}
}

// Seed returns the clamped assist seed for a triggering threat amount.
//
// Postcondition: Returns a value in [MinSeed, MaxSeed].
func (c AssistConfig) Seed(triggerThreat float64) float64 {
	seed := triggerThreat * c.SharePct / 100
	if seed < c.MinSeed {
		seed = c.MinSeed
	}
	if seed > c.MaxSeed {
		seed = c.MaxSeed
	}
	return seed
}

// AllyProvider resolves which allies hear a pack-assist call and exposes
// their threat tables. The NPC manager implements this.
type AllyProvider interface {
	// AlliesNear returns ally NPC ids within radius of npcID, optionally
	// restricted to the same group.
	AlliesNear(npcID string, radius float64, sameGroupOnly bool) []string
	// TableFor returns the threat table owned by the given NPC.
	TableFor(npcID string) (*Table, bool)
}

// Assister broadcasts threat seeds to nearby allies when an NPC takes damage.
type Assister struct {
	cfg      AssistConfig
	provider AllyProvider
	logger   *zap.Logger
}

// NewAssister creates an Assister. A nil logger is replaced with a no-op.
//
// Precondition: provider must be non-nil.
func NewAssister(cfg AssistConfig, provider AllyProvider, logger *zap.Logger) *Assister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assister{cfg: cfg, provider: provider, logger: logger}
}

// OnDamaged seeds threat against attackerID into allies near victimID after
// the victim accrued triggerThreat from one damage event. Allies whose
// existing threat on the attacker already exceeds the candidate seed by the
// configured minimum delta are skipped, preventing repeated notifications
// from inflating an already-dominant value.
//
// Postcondition: Returns the ids of allies whose tables were seeded.
func (a *Assister) OnDamaged(victimID, attackerID string, triggerThreat float64, now time.Time) []string {
	if attackerID == "" || triggerThreat <= 0 {
		return nil
	}
	seed := a.cfg.Seed(triggerThreat)

	var seeded []string
	for _, allyID := range a.provider.AlliesNear(victimID, a.cfg.Radius, a.cfg.SameGroupOnly) {
		if allyID == victimID {
			continue
		}
		table, ok := a.provider.TableFor(allyID)
		if !ok {
			continue
		}
		existing := table.Threat(attackerID)
		if existing >= seed+a.cfg.MinDelta {
			continue
		}
		table.AddThreat(attackerID, seed, now)
		seeded = append(seeded, allyID)
		a.logger.Debug("pack assist seeded",
			zap.String("victim", victimID),
			zap.String("ally", allyID),
			zap.String("attacker", attackerID),
			zap.Float64("seed", seed),
		)
	}
	return seeded
}
