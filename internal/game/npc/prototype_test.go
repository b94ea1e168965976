package npc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/npc"
)

const wolfYAML = `
id: gray_wolf
name: Gray Wolf
description: A lean gray wolf with hungry eyes.
level: 3
max_hp: 40
role: dps
tags: [beast]
group: wolfpack
damage: 1d6+1
weapon_skill_points: 12
respawn_delay: 5m
equipment: [serpent_fang]
`

const gaterYAML = `
id: gnoll_flag_runner
name: Gnoll Flag Runner
level: 6
max_hp: 80
role: dps
group: gnolls
damage: 1d8
gate:
  hp_threshold: 0.5
  cast_time: 6s
  cooldown: 60s
  waves: 2
  wave_interval: 2s
  wave_cap: 3
  radius: 40
  seed_multiplier: 2.0
  cancel_damage_threshold: 25
  cancel_on_cc: true
`

func TestLoadPrototypeFromBytes(t *testing.T) {
	proto, err := npc.LoadPrototypeFromBytes([]byte(wolfYAML))
	require.NoError(t, err)

	assert.Equal(t, "gray_wolf", proto.ID)
	assert.Equal(t, 40, proto.MaxHP)
	assert.Equal(t, "dps", proto.Role)
	assert.Equal(t, "wolfpack", proto.Group)
	assert.True(t, proto.HasTag("beast"))
	assert.False(t, proto.HasTag("training"))
	assert.Equal(t, []string{"serpent_fang"}, proto.Equipment)
	assert.Nil(t, proto.Gate)
}

func TestLoadPrototypeFromBytes_Gate(t *testing.T) {
	proto, err := npc.LoadPrototypeFromBytes([]byte(gaterYAML))
	require.NoError(t, err)

	require.NotNil(t, proto.Gate)
	assert.Equal(t, 0.5, proto.Gate.HPThreshold)
	assert.Equal(t, "6s", proto.Gate.CastTime)
	assert.Equal(t, 2, proto.Gate.Waves)
	assert.Equal(t, 3, proto.Gate.WaveCap)
	assert.Equal(t, 40.0, proto.Gate.Radius)
	assert.True(t, proto.Gate.CancelOnCC)
}

func TestLoadPrototypeFromBytes_RejectsUnknownFields(t *testing.T) {
	_, err := npc.LoadPrototypeFromBytes([]byte(`
id: gnoll
name: Gnoll
level: 3
max_hp: 30
gate:
  hp_threshold: 0.5
  cast_time: 6s
  cooldown: 60s
  waves: 1
  wave_interval: 2s
  wave_cap: 1
  radius: 40
  seed_multiplier: 2
  cancel_damage_treshold: 25
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancel_damage_treshold")
}

func TestPrototype_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*npc.Prototype)
		wantErr string
	}{
		{"valid", func(p *npc.Prototype) {}, ""},
		{"empty id", func(p *npc.Prototype) { p.ID = "" }, "id must not be empty"},
		{"empty name", func(p *npc.Prototype) { p.Name = "" }, "name must not be empty"},
		{"bad level", func(p *npc.Prototype) { p.Level = 0 }, "level must be >= 1"},
		{"bad hp", func(p *npc.Prototype) { p.MaxHP = 0 }, "max_hp must be >= 1"},
		{"bad role", func(p *npc.Prototype) { p.Role = "bard" }, "unknown role"},
		{"bad damage", func(p *npc.Prototype) { p.Damage = "1dfour" }, "damage"},
		{"bad respawn", func(p *npc.Prototype) { p.RespawnDelay = "soon" }, "respawn_delay"},
		{"bad gate threshold", func(p *npc.Prototype) {
			p.Gate = &npc.GateProfile{HPThreshold: 2, CastTime: "6s", Cooldown: "60s", Waves: 1, WaveInterval: "2s", WaveCap: 1, Radius: 40, SeedMultiplier: 2}
		}, "hp_threshold"},
		{"bad gate duration", func(p *npc.Prototype) {
			p.Gate = &npc.GateProfile{HPThreshold: 0.5, CastTime: "soon", Cooldown: "60s", Waves: 1, WaveInterval: "2s", WaveCap: 1, Radius: 40, SeedMultiplier: 2}
		}, "cast_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &npc.Prototype{ID: "p", Name: "P", Level: 1, MaxHP: 10}
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
