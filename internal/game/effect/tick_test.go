package effect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/effect"
)

func regrowth() *effect.Def {
	return &effect.Def{
		ID:       "regrowth",
		Name:     "Regrowth",
		Stacking: effect.StackingRefresh,
		Duration: 9 * time.Second,
		Tags:     []string{"magic", "heal"},
		HOT:      &effect.PeriodicDef{TickInterval: 3 * time.Second, PerTick: 5},
	}
}

func TestTickDots_WholeIntervalsOnly(t *testing.T) {
	s := newSet()
	_, err := s.Apply(rend(), effect.SourceRef{}, t0) // 3s interval, 4 per tick, 12s duration
	require.NoError(t, err)

	var total int
	s.TickDots(t0.Add(2*time.Second), func(_ *effect.Instance, amount int) { total += amount })
	assert.Zero(t, total, "no whole interval elapsed yet")

	s.TickDots(t0.Add(7*time.Second), func(_ *effect.Instance, amount int) { total += amount })
	assert.Equal(t, 8, total, "two whole intervals at 7s elapsed")
}

func TestTickDots_SubIntervalRemainderPreserved(t *testing.T) {
	s := newSet()
	_, err := s.Apply(rend(), effect.SourceRef{}, t0)
	require.NoError(t, err)

	var ticks int
	s.TickDots(t0.Add(5*time.Second), func(_ *effect.Instance, _ int) { ticks++ })
	require.Equal(t, 1, ticks)

	// lastTickAt advanced to t0+3s; the next boundary is t0+6s.
	s.TickDots(t0.Add(6*time.Second), func(_ *effect.Instance, _ int) { ticks++ })
	assert.Equal(t, 2, ticks)
}

func TestTickDots_NeverFiresAtOrPastExpiry(t *testing.T) {
	s := newSet()
	def := rend()
	def.Duration = 6 * time.Second // boundaries at 3s and 6s; 6s is the expiry
	_, err := s.Apply(def, effect.SourceRef{}, t0)
	require.NoError(t, err)

	var ticks int
	s.TickDots(t0.Add(20*time.Second), func(_ *effect.Instance, _ int) { ticks++ })
	assert.Equal(t, 1, ticks, "boundary at expiry must not fire")
	assert.Empty(t, s.Active(t0.Add(20*time.Second)), "expired instance swept by the tick")
}

func TestTickDots_TickCountLimit(t *testing.T) {
	s := newSet()
	def := rend()
	def.Duration = 0 // unbounded
	def.DOT.Ticks = 2
	_, err := s.Apply(def, effect.SourceRef{}, t0)
	require.NoError(t, err)

	var ticks int
	s.TickDots(t0.Add(time.Minute), func(_ *effect.Instance, _ int) { ticks++ })
	assert.Equal(t, 2, ticks)

	s.TickDots(t0.Add(2*time.Minute), func(_ *effect.Instance, _ int) { ticks++ })
	assert.Equal(t, 2, ticks, "exhausted payload must not fire again")
}

func TestTickHots_HealsPerInterval(t *testing.T) {
	s := newSet()
	_, err := s.Apply(regrowth(), effect.SourceRef{}, t0) // 3s interval, 9s duration
	require.NoError(t, err)

	var healed int
	s.TickHots(t0.Add(9*time.Second), func(_ *effect.Instance, amount int) { healed += amount })
	// Boundaries at 3s and 6s fire; 9s coincides with expiry and must not.
	assert.Equal(t, 10, healed)
}

func TestTickDots_IgnoresHotPayloads(t *testing.T) {
	s := newSet()
	_, err := s.Apply(regrowth(), effect.SourceRef{}, t0)
	require.NoError(t, err)

	var fired int
	s.TickDots(t0.Add(time.Minute), func(_ *effect.Instance, _ int) { fired++ })
	assert.Zero(t, fired)
}
