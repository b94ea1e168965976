package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPlayer(id string) *entity.Combatant {
	return entity.NewCombatant(id, entity.KindPlayer, id, 5, 100, effect.DefaultDRConfig())
}

func newNPC(id string) *entity.Combatant {
	return entity.NewCombatant(id, entity.KindNPC, id, 5, 60, effect.DefaultDRConfig())
}

func TestCombatant_DamageAndHeal(t *testing.T) {
	c := newPlayer("hero")
	c.ApplyDamage(30)
	assert.Equal(t, 70, c.CurrentHP)

	c.ApplyDamage(500)
	assert.Equal(t, 0, c.CurrentHP)
	assert.True(t, c.IsDead())

	// A dead combatant does not heal.
	c.Heal(10)
	assert.Equal(t, 0, c.CurrentHP)

	c = newPlayer("hero2")
	c.ApplyDamage(10)
	c.Heal(50)
	assert.Equal(t, 100, c.CurrentHP, "heal never exceeds max")
}

func TestCombatant_DeadFlag(t *testing.T) {
	c := newPlayer("hero")
	assert.False(t, c.IsDead())
	c.Dead = true
	assert.True(t, c.IsDead())
	assert.Equal(t, 100, c.CurrentHP)
}

func TestCombatant_Cooldowns(t *testing.T) {
	c := newNPC("wolf")
	assert.False(t, c.OnCooldown("howl", t0))

	c.StartCooldown("howl", 10*time.Second, t0)
	assert.True(t, c.OnCooldown("howl", t0.Add(9*time.Second)))
	assert.False(t, c.OnCooldown("howl", t0.Add(10*time.Second)))
}

func TestCombatant_Power(t *testing.T) {
	c := newPlayer("mage")
	c.Power["mana"] = 20

	assert.False(t, c.SpendPower("mana", 25))
	assert.Equal(t, 20, c.Power["mana"], "failed spend mutates nothing")

	assert.True(t, c.SpendPower("mana", 15))
	assert.Equal(t, 5, c.Power["mana"])
}

func TestAllied(t *testing.T) {
	a := newPlayer("a")
	b := newPlayer("b")
	assert.False(t, entity.Allied(a, b), "no guild means no alliance")

	a.GuildID = "crows"
	b.GuildID = "crows"
	assert.True(t, entity.Allied(a, b))

	n := newNPC("wolf")
	n.GuildID = "crows"
	assert.False(t, entity.Allied(a, n), "npcs never count as guild allies")
	assert.False(t, entity.Allied(a, nil))
}

func TestRegistry_AddGetRemove(t *testing.T) {
	reg := entity.NewRegistry()
	c := newPlayer("hero")
	c.RoomID = "square"

	require.NoError(t, reg.Add(c))
	require.Error(t, reg.Add(c), "duplicate ids are rejected")

	got, ok := reg.Get("hero")
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.True(t, reg.Remove("hero"))
	assert.False(t, reg.Remove("hero"))
	_, ok = reg.Get("hero")
	assert.False(t, ok)
}

func TestRegistry_RoomIndex(t *testing.T) {
	reg := entity.NewRegistry()
	a := newPlayer("a")
	a.RoomID = "square"
	b := newNPC("b")
	b.RoomID = "square"
	c := newNPC("c")
	c.RoomID = "tavern"
	for _, cb := range []*entity.Combatant{c, b, a} {
		require.NoError(t, reg.Add(cb))
	}

	inSquare := reg.InRoom("square")
	require.Len(t, inSquare, 2)
	assert.Equal(t, "a", inSquare[0].ID, "room listing is sorted by id")
	assert.Equal(t, "b", inSquare[1].ID)

	require.True(t, reg.Move("b", "tavern"))
	assert.Len(t, reg.InRoom("square"), 1)
	assert.Len(t, reg.InRoom("tavern"), 2)

	reg.Remove("c")
	assert.Len(t, reg.InRoom("tavern"), 1)
	assert.Equal(t, 2, reg.Len())
}
