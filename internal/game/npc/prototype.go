// Package npc provides NPC prototype definitions and live instance management.
package npc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/duskhaven/mudcore/internal/game/dice"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// GateProfile configures an NPC's gate-for-help cast. All duration fields are
// Go duration strings (e.g. "6s") validated at load time.
type GateProfile struct {
	// HPThreshold is the HP fraction at or below which the cast may begin.
	HPThreshold float64 `yaml:"hp_threshold"`
	CastTime    string  `yaml:"cast_time"`
	Cooldown    string  `yaml:"cooldown"`
	// Waves is the number of discrete recruitment pulses after completion.
	Waves        int    `yaml:"waves"`
	WaveInterval string `yaml:"wave_interval"`
	// WaveCap limits recruits per wave.
	WaveCap int `yaml:"wave_cap"`
	// Radius is the expanded recruitment range, wider than pack assist.
	Radius float64 `yaml:"radius"`
	// SeedMultiplier boosts the threat seeded into each recruit.
	SeedMultiplier float64 `yaml:"seed_multiplier"`
	// CancelDamageThreshold interrupts the cast when a single hit deals at
	// least this much damage. Zero disables damage interrupts.
	CancelDamageThreshold int `yaml:"cancel_damage_threshold"`
	// CancelOnCC interrupts the cast when crowd control lands on the caster.
	CancelOnCC bool `yaml:"cancel_on_cc"`
}

// Validate checks gate invariants.
func (g *GateProfile) Validate() error {
	if g.HPThreshold <= 0 || g.HPThreshold > 1 {
		return fmt.Errorf("gate: hp_threshold must be in (0, 1]")
	}
	for name, s := range map[string]string{
		"cast_time":     g.CastTime,
		"cooldown":      g.Cooldown,
		"wave_interval": g.WaveInterval,
	} {
		if s == "" {
			return fmt.Errorf("gate: %s must be set", name)
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("gate: %s %q is not a valid duration: %w", name, s, err)
		}
	}
	if g.Waves < 1 {
		return fmt.Errorf("gate: waves must be >= 1")
	}
	if g.WaveCap < 1 {
		return fmt.Errorf("gate: wave_cap must be >= 1")
	}
	if g.Radius <= 0 {
		return fmt.Errorf("gate: radius must be > 0")
	}
	if g.SeedMultiplier <= 0 {
		return fmt.Errorf("gate: seed_multiplier must be > 0")
	}
	return nil
}

// Prototype defines a reusable NPC archetype loaded from YAML.
type Prototype struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	MaxHP       int    `yaml:"max_hp"`
	// Role drives threat decay multipliers: "tank", "dps", "healer" or empty.
	Role string `yaml:"role"`
	// Tags carries behavior markers such as "training", "guard",
	// "law_protected" or the legacy protection tags.
	Tags []string `yaml:"tags"`
	// Group restricts pack assist when same-group filtering is enabled.
	Group string `yaml:"group"`
	// GuardProfile names the guard-response tier ("village", "town", "city").
	GuardProfile string `yaml:"guard_profile"`
	// Damage is the counter-attack damage dice expression, e.g. "1d6+2".
	Damage string `yaml:"damage"`
	// WeaponSkillPoints feeds hit resolution when this NPC attacks.
	WeaponSkillPoints int `yaml:"weapon_skill_points"`
	// RespawnDelay is the duration string before a dead NPC of this prototype
	// respawns. Empty means the NPC does not respawn.
	RespawnDelay string `yaml:"respawn_delay"`
	// Equipment lists item template ids whose procs this NPC carries.
	Equipment []string `yaml:"equipment"`
	// Gate enables gate-for-help; nil means this NPC never gates.
	Gate *GateProfile `yaml:"gate"`
}

// Validate checks that the prototype satisfies basic invariants.
//
// Precondition: p must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, Role is recognized, and all dice and duration strings parse;
// returns an error on the first violation otherwise.
func (p *Prototype) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("npc prototype: id must not be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("npc prototype %q: name must not be empty", p.ID)
	}
	if p.Level < 1 {
		return fmt.Errorf("npc prototype %q: level must be >= 1", p.ID)
	}
	if p.MaxHP < 1 {
		return fmt.Errorf("npc prototype %q: max_hp must be >= 1", p.ID)
	}
	switch threat.Role(p.Role) {
	case threat.RoleUnknown, threat.RoleTank, threat.RoleDPS, threat.RoleHealer:
	default:
		return fmt.Errorf("npc prototype %q: unknown role %q", p.ID, p.Role)
	}
	if p.Damage != "" {
		if _, err := dice.Parse(p.Damage); err != nil {
			return fmt.Errorf("npc prototype %q: damage %q: %w", p.ID, p.Damage, err)
		}
	}
	if p.RespawnDelay != "" {
		if _, err := time.ParseDuration(p.RespawnDelay); err != nil {
			return fmt.Errorf("npc prototype %q: respawn_delay %q is not a valid duration: %w", p.ID, p.RespawnDelay, err)
		}
	}
	if p.Gate != nil {
		if err := p.Gate.Validate(); err != nil {
			return fmt.Errorf("npc prototype %q: %w", p.ID, err)
		}
	}
	return nil
}

// HasTag reports whether the prototype carries the given tag.
func (p *Prototype) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// LoadPrototypeFromBytes parses a single NPC prototype from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Prototype.
// Postcondition: Returns a validated *Prototype, or an error. Duration
// strings, if non-empty, are guaranteed to be valid Go duration strings.
func LoadPrototypeFromBytes(data []byte) (*Prototype, error) {
	var proto Prototype
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&proto); err != nil {
		return nil, fmt.Errorf("parsing prototype YAML: %w", err)
	}
	if err := proto.Validate(); err != nil {
		return nil, err
	}
	return &proto, nil
}

// LoadPrototypes reads all *.yaml files in dir and returns the parsed
// prototypes keyed by id.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all prototypes or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadPrototypes(dir string) (map[string]*Prototype, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	protos := make(map[string]*Prototype)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		proto, err := LoadPrototypeFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := protos[proto.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate prototype id %q", path, proto.ID)
		}
		protos[proto.ID] = proto
	}
	return protos, nil
}
