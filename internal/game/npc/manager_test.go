package npc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/npc"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newManager() (*npc.Manager, *entity.Registry) {
	reg := entity.NewRegistry()
	return npc.NewManager(reg, effect.DefaultDRConfig()), reg
}

func wolfProto() *npc.Prototype {
	return &npc.Prototype{
		ID: "gray_wolf", Name: "Gray Wolf", Level: 3, MaxHP: 40,
		Role: "dps", Group: "wolfpack",
	}
}

func TestManager_SpawnAndRemove(t *testing.T) {
	mgr, reg := newManager()

	inst, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)

	assert.Equal(t, "forest", inst.RoomID())
	assert.Equal(t, 40, inst.Combatant.CurrentHP)
	assert.Equal(t, threat.RoleDPS, inst.Combatant.Role)
	require.NotNil(t, inst.Threat)

	// The combatant is registered for room and policy lookups.
	c, ok := reg.Get(inst.ID)
	require.True(t, ok)
	assert.Same(t, inst.Combatant, c)

	require.NoError(t, mgr.Remove(inst.ID))
	_, ok = reg.Get(inst.ID)
	assert.False(t, ok, "remove unregisters the combatant")
	require.Error(t, mgr.Remove(inst.ID))
}

type protectedRooms map[string]bool

func (p protectedRooms) ServiceProtectedRoom(roomID string) bool { return p[roomID] }

func TestManager_SpawnAppliesRoomProtection(t *testing.T) {
	mgr, _ := newManager()
	mgr.SetRoomProtection(protectedRooms{"temple": true})

	shielded, err := mgr.Spawn(wolfProto(), "temple", t0)
	require.NoError(t, err)
	assert.True(t, shielded.Combatant.ServiceProtected)

	exposed, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)
	assert.False(t, exposed.Combatant.ServiceProtected)
}

func TestManager_UniqueInstanceIDs(t *testing.T) {
	mgr, _ := newManager()
	a, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)
	b, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, mgr.InstancesInRoom("forest"), 2)
}

func TestManager_Move(t *testing.T) {
	mgr, reg := newManager()
	inst, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)

	require.NoError(t, mgr.Move(inst.ID, "clearing"))
	assert.Equal(t, "clearing", inst.RoomID())
	assert.Empty(t, mgr.InstancesInRoom("forest"))
	assert.Len(t, reg.InRoom("clearing"), 1)
}

func TestManager_FindInRoom(t *testing.T) {
	mgr, _ := newManager()
	_, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)

	found := mgr.FindInRoom("forest", "gray")
	require.NotNil(t, found)
	assert.Equal(t, "Gray Wolf", found.Combatant.Name)
	assert.Nil(t, mgr.FindInRoom("forest", "bear"))
}

func TestManager_AlliesNear_SameRoomAndHops(t *testing.T) {
	mgr, _ := newManager()
	mgr.LinkRooms("den", "forest")
	mgr.LinkRooms("forest", "clearing")

	victim, err := mgr.Spawn(wolfProto(), "den", t0)
	require.NoError(t, err)
	near, err := mgr.Spawn(wolfProto(), "den", t0)
	require.NoError(t, err)
	oneHop, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)
	twoHops, err := mgr.Spawn(wolfProto(), "clearing", t0)
	require.NoError(t, err)

	// Radius 10 reaches one hop of the room graph.
	allies := mgr.AlliesNear(victim.ID, 10, false)
	assert.ElementsMatch(t, []string{near.ID, oneHop.ID}, allies)
	assert.NotContains(t, allies, twoHops.ID)

	// Radius 20 reaches two hops.
	allies = mgr.AlliesNear(victim.ID, 20, false)
	assert.Contains(t, allies, twoHops.ID)

	// Radius below one hop still covers the victim's own room.
	allies = mgr.AlliesNear(victim.ID, 5, false)
	assert.Equal(t, []string{near.ID}, allies)

	assert.Empty(t, mgr.AlliesNear(victim.ID, 0, false))
	assert.Empty(t, mgr.AlliesNear("missing", 20, false))
}

func TestManager_AlliesNear_GroupFilterAndDead(t *testing.T) {
	mgr, _ := newManager()

	victim, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)
	packmate, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)

	boar := wolfProto()
	boar.ID = "boar"
	boar.Name = "Wild Boar"
	boar.Group = "boars"
	outsider, err := mgr.Spawn(boar, "forest", t0)
	require.NoError(t, err)

	allies := mgr.AlliesNear(victim.ID, 10, true)
	assert.Equal(t, []string{packmate.ID}, allies, "group filter excludes other packs")

	allies = mgr.AlliesNear(victim.ID, 10, false)
	assert.ElementsMatch(t, []string{packmate.ID, outsider.ID}, allies)

	packmate.Combatant.ApplyDamage(100)
	allies = mgr.AlliesNear(victim.ID, 10, true)
	assert.Empty(t, allies, "dead allies never assist")
}

func TestManager_TableForAndRoleFor(t *testing.T) {
	mgr, reg := newManager()
	inst, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)

	table, ok := mgr.TableFor(inst.ID)
	require.True(t, ok)
	assert.Same(t, inst.Threat, table)
	_, ok = mgr.TableFor("missing")
	assert.False(t, ok)

	assert.Equal(t, threat.RoleDPS, mgr.RoleFor(inst.ID))
	assert.Equal(t, threat.RoleUnknown, mgr.RoleFor("missing"))

	hero := entity.NewCombatant("hero", entity.KindPlayer, "Hero", 5, 100, effect.DefaultDRConfig())
	hero.Role = threat.RoleTank
	require.NoError(t, reg.Add(hero))
	assert.Equal(t, threat.RoleTank, mgr.RoleFor("hero"))
}

func TestManager_ValidateTargetFor(t *testing.T) {
	mgr, reg := newManager()
	inst, err := mgr.Spawn(wolfProto(), "forest", t0)
	require.NoError(t, err)

	hero := entity.NewCombatant("hero", entity.KindPlayer, "Hero", 5, 100, effect.DefaultDRConfig())
	hero.RoomID = "forest"
	require.NoError(t, reg.Add(hero))

	validate := mgr.ValidateTargetFor(inst.ID)
	assert.True(t, validate("hero").Valid)

	reg.Move("hero", "town")
	status := validate("hero")
	assert.False(t, status.Valid)
	assert.Equal(t, "out_of_room", status.Reason)

	hero.Dead = true
	reg.Move("hero", "forest")
	assert.Equal(t, "dead", validate("hero").Reason)

	assert.Equal(t, "missing", validate("nobody").Reason)
}
