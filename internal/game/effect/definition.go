// Package effect implements the status effect engine: buffs, debuffs,
// damage- and heal-over-time payloads, absorb shields, tag-based cleansing,
// and crowd-control diminishing returns.
package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Stacking policies controlling what happens when an effect is applied while
// an instance already occupies the same bucket.
const (
	// StackingRefresh replaces the existing instance's expiry and stack count.
	StackingRefresh = "refresh"
	// StackingStack increments the stack count up to MaxStacks and extends expiry.
	StackingStack = "stack"
	// StackingIgnore leaves the existing instance untouched.
	StackingIgnore = "ignore"
)

// Modifiers holds the numeric adjustments an active effect contributes.
// Percentages are whole numbers: 100 means +100%.
type Modifiers struct {
	DamageDealtPct  float64
	DamageTakenPct  float64
	DamageDealtFlat int
	DamageTakenFlat int
}

// AbsorbDef declares an absorb shield payload: incoming damage is consumed
// up to Amount before HP loss occurs.
type AbsorbDef struct {
	Amount int
}

// PeriodicDef declares a DOT or HOT payload.
type PeriodicDef struct {
	// TickInterval is the time between tick boundaries.
	TickInterval time.Duration
	// PerTick is the damage (DOT) or healing (HOT) amount applied per tick.
	PerTick int
	// Ticks is the total number of ticks; 0 means unlimited until expiry.
	Ticks int
}

// Def is the static definition of a status effect.
type Def struct {
	ID   string
	Name string
	// Stacking is one of StackingRefresh, StackingStack, StackingIgnore.
	Stacking string
	// StackingGroup is the co-stacking dedupe key; effects sharing a group
	// occupy the same bucket. Empty means the bucket key is the effect ID.
	StackingGroup string
	// MaxStacks caps stack count for StackingStack; 0 means unstackable (1).
	MaxStacks int
	// Duration is how long an application lasts; 0 means unbounded.
	Duration time.Duration
	// Tags drive cleanse/dispel targeting, DR gating, and behavior gates.
	Tags      []string
	Modifiers Modifiers
	Absorb    *AbsorbDef
	DOT       *PeriodicDef
	HOT       *PeriodicDef
}

// BucketKey returns the stacking bucket this effect occupies.
//
// Postcondition: Returns StackingGroup if non-empty, else ID.
func (d *Def) BucketKey() string {
	if d.StackingGroup != "" {
		return d.StackingGroup
	}
	return d.ID
}

// HasTag reports whether tag is present in d.Tags.
func (d *Def) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate checks that the definition satisfies basic invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID is non-empty, Stacking is a known policy,
// and any periodic payload has a positive tick interval and per-tick amount.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("effect def: id must not be empty")
	}
	switch d.Stacking {
	case StackingRefresh, StackingStack, StackingIgnore:
	case "":
		return fmt.Errorf("effect def %q: stacking must not be empty", d.ID)
	default:
		return fmt.Errorf("effect def %q: unknown stacking policy %q", d.ID, d.Stacking)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("effect def %q: max_stacks must be >= 0", d.ID)
	}
	if d.Duration < 0 {
		return fmt.Errorf("effect def %q: duration must be >= 0", d.ID)
	}
	for name, p := range map[string]*PeriodicDef{"dot": d.DOT, "hot": d.HOT} {
		if p == nil {
			continue
		}
		if p.TickInterval <= 0 {
			return fmt.Errorf("effect def %q: %s tick_interval must be > 0", d.ID, name)
		}
		if p.PerTick <= 0 {
			return fmt.Errorf("effect def %q: %s per_tick must be > 0", d.ID, name)
		}
		if p.Ticks < 0 {
			return fmt.Errorf("effect def %q: %s ticks must be >= 0", d.ID, name)
		}
	}
	if d.Absorb != nil && d.Absorb.Amount <= 0 {
		return fmt.Errorf("effect def %q: absorb amount must be > 0", d.ID)
	}
	return nil
}

// defDoc is the YAML document shape for a Def. Durations are strings
// (e.g. "12s") parsed with time.ParseDuration during conversion.
type defDoc struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Stacking      string   `yaml:"stacking"`
	StackingGroup string   `yaml:"stacking_group"`
	MaxStacks     int      `yaml:"max_stacks"`
	Duration      string   `yaml:"duration"`
	Tags          []string `yaml:"tags"`
	Modifiers     struct {
		DamageDealtPct  float64 `yaml:"damage_dealt_pct"`
		DamageTakenPct  float64 `yaml:"damage_taken_pct"`
		DamageDealtFlat int     `yaml:"damage_dealt_flat"`
		DamageTakenFlat int     `yaml:"damage_taken_flat"`
	} `yaml:"modifiers"`
	Absorb *struct {
		Amount int `yaml:"amount"`
	} `yaml:"absorb"`
	DOT *periodicDoc `yaml:"dot"`
	HOT *periodicDoc `yaml:"hot"`
}

type periodicDoc struct {
	TickInterval string `yaml:"tick_interval"`
	PerTick      int    `yaml:"per_tick"`
	Ticks        int    `yaml:"ticks"`
}

// toDef converts the YAML document into a validated Def.
func (doc *defDoc) toDef() (*Def, error) {
	def := &Def{
		ID:            doc.ID,
		Name:          doc.Name,
		Stacking:      doc.Stacking,
		StackingGroup: doc.StackingGroup,
		MaxStacks:     doc.MaxStacks,
		Tags:          doc.Tags,
		Modifiers: Modifiers{
			DamageDealtPct:  doc.Modifiers.DamageDealtPct,
			DamageTakenPct:  doc.Modifiers.DamageTakenPct,
			DamageDealtFlat: doc.Modifiers.DamageDealtFlat,
			DamageTakenFlat: doc.Modifiers.DamageTakenFlat,
		},
	}
	if doc.Duration != "" {
		d, err := time.ParseDuration(doc.Duration)
		if err != nil {
			return nil, fmt.Errorf("effect def %q: duration %q: %w", doc.ID, doc.Duration, err)
		}
		def.Duration = d
	}
	if doc.Absorb != nil {
		def.Absorb = &AbsorbDef{Amount: doc.Absorb.Amount}
	}
	for name, pair := range map[string]struct {
		src *periodicDoc
		dst **PeriodicDef
	}{
		"dot": {doc.DOT, &def.DOT},
		"hot": {doc.HOT, &def.HOT},
	} {
		if pair.src == nil {
			continue
		}
		interval, err := time.ParseDuration(pair.src.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("effect def %q: %s tick_interval %q: %w", doc.ID, name, pair.src.TickInterval, err)
		}
		*pair.dst = &PeriodicDef{
			TickInterval: interval,
			PerTick:      pair.src.PerTick,
			Ticks:        pair.src.Ticks,
		}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Registry holds all known effect Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Defs.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDefFromBytes parses a single effect definition from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Def document.
// Postcondition: Returns a validated *Def, or an error.
func LoadDefFromBytes(data []byte) (*Def, error) {
	var doc defDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing effect YAML: %w", err)
	}
	return doc.toDef()
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def,
// and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		def, err := LoadDefFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		reg.Register(def)
	}
	return reg, nil
}
