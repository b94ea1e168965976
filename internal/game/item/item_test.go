package item_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhaven/mudcore/internal/game/item"
)

const fangYAML = `id: serpent_fang
name: Serpent Fang
slot: weapon
procs:
  - trigger: on_hit
    chance: 0.15
    icd: 6s
    effect_id: serpent_venom
    apply_to: target
`

const thornmailYAML = `id: thornmail
name: Thornmail
slot: chest
procs:
  - trigger: on_being_hit
    chance: 1.0
    icd: 1s
    damage: 1d4+1
    apply_to: attacker
    allow_chain: true
`

func TestLoadDefFromBytes_EffectProc(t *testing.T) {
	def, err := item.LoadDefFromBytes([]byte(fangYAML))
	require.NoError(t, err)
	assert.Equal(t, "serpent_fang", def.ID)
	require.Len(t, def.Procs, 1)
	p := def.Procs[0]
	assert.Equal(t, item.TriggerOnHit, p.Trigger)
	assert.Equal(t, 0.15, p.Chance)
	assert.Equal(t, 6*time.Second, p.ICD)
	assert.Equal(t, "serpent_venom", p.EffectID)
	assert.Equal(t, item.ApplyToTarget, p.ApplyTo)
	assert.False(t, p.AllowChain)
}

func TestLoadDefFromBytes_DamageProc(t *testing.T) {
	def, err := item.LoadDefFromBytes([]byte(thornmailYAML))
	require.NoError(t, err)
	require.Len(t, def.Procs, 1)
	assert.Equal(t, "1d4+1", def.Procs[0].Damage)
	assert.True(t, def.Procs[0].AllowChain)
}

func TestProcDef_Validate(t *testing.T) {
	cases := []struct {
		name string
		proc item.ProcDef
		ok   bool
	}{
		{"valid damage", item.ProcDef{Trigger: item.TriggerOnHit, Chance: 0.5, Damage: "1d6", ApplyTo: item.ApplyToTarget}, true},
		{"valid effect", item.ProcDef{Trigger: item.TriggerOnBeingHit, Chance: 1, EffectID: "x", ApplyTo: item.ApplyToAttacker}, true},
		{"bad trigger", item.ProcDef{Trigger: "on_crit", Chance: 0.5, Damage: "1d6", ApplyTo: item.ApplyToTarget}, false},
		{"chance above one", item.ProcDef{Trigger: item.TriggerOnHit, Chance: 1.5, Damage: "1d6", ApplyTo: item.ApplyToTarget}, false},
		{"both payloads", item.ProcDef{Trigger: item.TriggerOnHit, Chance: 0.5, Damage: "1d6", EffectID: "x", ApplyTo: item.ApplyToTarget}, false},
		{"no payload", item.ProcDef{Trigger: item.TriggerOnHit, Chance: 0.5, ApplyTo: item.ApplyToTarget}, false},
		{"bad dice expr", item.ProcDef{Trigger: item.TriggerOnHit, Chance: 0.5, Damage: "six", ApplyTo: item.ApplyToTarget}, false},
		{"bad apply_to", item.ProcDef{Trigger: item.TriggerOnHit, Chance: 0.5, Damage: "1d6", ApplyTo: "room"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.proc.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := item.NewRegistry()
	def, err := item.LoadDefFromBytes([]byte(fangYAML))
	require.NoError(t, err)
	require.NoError(t, reg.Register(def))
	assert.Error(t, reg.Register(def))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fang.yaml"), []byte(fangYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thornmail.yml"), []byte(thornmailYAML), 0o644))

	reg, err := item.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, reg.All(), 2)

	def, ok := reg.Get("thornmail")
	require.True(t, ok)
	assert.Equal(t, "Thornmail", def.Name)
}

func TestLoadDefFromBytes_UnknownFieldRejected(t *testing.T) {
	_, err := item.LoadDefFromBytes([]byte("id: x\nname: X\nrarity: epic\n"))
	assert.Error(t, err)
}
