package npc_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/npc"
)

func writeWorld(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const forestWorldYAML = `
rooms:
  - id: den
    exits: [forest]
    spawns:
      - prototype: wolf
        max: 2
        respawn_delay: 45s
  - id: forest
    exits: [clearing]
  - id: clearing
`

func TestLoadWorld(t *testing.T) {
	world, err := npc.LoadWorld(writeWorld(t, forestWorldYAML))
	require.NoError(t, err)
	require.Len(t, world.Rooms, 3)

	spawns := world.SpawnMap()
	require.Len(t, spawns["den"], 1)
	assert.Equal(t, "wolf", spawns["den"][0].PrototypeID)
	assert.Equal(t, 2, spawns["den"][0].Max)
	assert.Equal(t, 45*time.Second, spawns["den"][0].RespawnDelay)
	assert.Empty(t, spawns["forest"])
}

func TestLoadWorld_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "duplicate room",
			body: "rooms:\n  - id: den\n  - id: den\n",
			want: "duplicate room",
		},
		{
			name: "unknown exit",
			body: "rooms:\n  - id: den\n    exits: [nowhere]\n",
			want: "is not defined",
		},
		{
			name: "spawn without prototype",
			body: "rooms:\n  - id: den\n    spawns:\n      - max: 1\n",
			want: "empty prototype",
		},
		{
			name: "zero spawn cap",
			body: "rooms:\n  - id: den\n    spawns:\n      - prototype: wolf\n        max: 0\n",
			want: "max must be >= 1",
		},
		{
			name: "bad respawn delay",
			body: "rooms:\n  - id: den\n    spawns:\n      - prototype: wolf\n        max: 1\n        respawn_delay: soon\n",
			want: "respawn_delay",
		},
		{
			name: "unknown field",
			body: "rooms:\n  - id: den\n    exists: [den]\n",
			want: "exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := npc.LoadWorld(writeWorld(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWorldDef_Link(t *testing.T) {
	world, err := npc.LoadWorld(writeWorld(t, forestWorldYAML))
	require.NoError(t, err)

	mgr := npc.NewManager(entity.NewRegistry(), effect.DefaultDRConfig())
	world.Link(mgr)

	proto := &npc.Prototype{ID: "wolf", Name: "Gray Wolf", Level: 3, MaxHP: 40, Group: "wolfpack"}
	victim, err := mgr.Spawn(proto, "den", t0)
	require.NoError(t, err)
	twoHops, err := mgr.Spawn(proto, "clearing", t0)
	require.NoError(t, err)

	// den to forest to clearing: two hops resolve at radius 20 via the linked graph.
	assert.Contains(t, mgr.AlliesNear(victim.ID, 20, false), twoHops.ID)
	assert.NotContains(t, mgr.AlliesNear(victim.ID, 10, false), twoHops.ID)
}
