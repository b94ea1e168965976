package effect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/effect"
)

func debuff(id string, tags ...string) *effect.Def {
	return &effect.Def{
		ID:       id,
		Name:     id,
		Stacking: effect.StackingRefresh,
		Duration: time.Minute,
		Tags:     tags,
	}
}

func applyAll(t *testing.T, s *effect.ActiveSet, defs ...*effect.Def) {
	t.Helper()
	for i, def := range defs {
		_, err := s.Apply(def, effect.SourceRef{}, t0.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, err)
	}
}

func TestCleanseByTags_RemovesMatching(t *testing.T) {
	s := newSet()
	applyAll(t, s,
		debuff("poison_fang", "poison"),
		debuff("weakness", "curse"),
		debuff("haste", "magic", "buff"),
	)

	res := s.CleanseByTags([]string{"poison", "curse"}, effect.CleanseFilter{}, 0, t0.Add(time.Second))
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, res.Removed)
	assert.ElementsMatch(t, []string{"poison_fang", "weakness"}, res.RemovedIDs)
	assert.True(t, s.Has("haste", t0.Add(time.Second)))
}

func TestCleanseByTags_NothingMatched(t *testing.T) {
	s := newSet()
	applyAll(t, s, debuff("haste", "magic", "buff"))

	res := s.CleanseByTags([]string{"poison"}, effect.CleanseFilter{}, 0, t0.Add(time.Second))
	assert.Zero(t, res.Matched)
	assert.Zero(t, res.Removed)
}

func TestCleanseByTags_ProtectedBlocks(t *testing.T) {
	s := newSet()
	applyAll(t, s,
		debuff("poison_fang", "poison"),
		debuff("soul_rot", "poison", "unremovable"),
	)

	res := s.CleanseByTags([]string{"poison"}, effect.CleanseFilter{
		Protected: []string{"unremovable"},
	}, 0, t0.Add(time.Second))
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 1, res.BlockedByProtected)
	assert.True(t, s.Has("soul_rot", t0.Add(time.Second)))
}

func TestCleanseByTags_RequireAndExclude(t *testing.T) {
	s := newSet()
	applyAll(t, s,
		debuff("poison_fang", "poison", "physical"),
		debuff("venom_cloud", "poison", "magic"),
		debuff("blight", "poison", "magic", "boss"),
	)

	res := s.CleanseByTags([]string{"poison"}, effect.CleanseFilter{
		Require: []string{"magic"},
		Exclude: []string{"boss"},
	}, 0, t0.Add(time.Second))
	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 1, res.BlockedByRequire)
	assert.Equal(t, 1, res.BlockedByExclude)
	assert.Equal(t, []string{"venom_cloud"}, res.RemovedIDs)
}

func TestCleanseByTags_MaxToRemove_PriorityFirst(t *testing.T) {
	s := newSet()
	applyAll(t, s,
		debuff("slow_rot", "poison"),
		debuff("deadly_toxin", "poison", "lethal"),
		debuff("itch", "poison"),
	)

	res := s.CleanseByTags([]string{"poison"}, effect.CleanseFilter{
		Priority: []string{"lethal"},
	}, 1, t0.Add(time.Second))
	assert.Equal(t, 3, res.Matched)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{"deadly_toxin"}, res.RemovedIDs, "priority tag removed first")
}

func TestCleanseByTags_ExpiredNotCounted(t *testing.T) {
	s := newSet()
	short := debuff("fading", "poison")
	short.Duration = time.Second
	applyAll(t, s, short, debuff("lasting", "poison"))

	res := s.CleanseByTags([]string{"poison"}, effect.CleanseFilter{}, 0, t0.Add(5*time.Second))
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, []string{"lasting"}, res.RemovedIDs)
}
