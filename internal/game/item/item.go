// Package item provides equipment templates carrying gear-proc definitions,
// loaded from YAML and indexed by a Registry.
package item

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/duskhaven/mudcore/internal/game/dice"
)

// Proc trigger constants for ProcDef.Trigger.
const (
	// TriggerOnHit fires from the attacker's equipment when their attack lands.
	TriggerOnHit = "on_hit"
	// TriggerOnBeingHit fires from the defender's equipment when they are struck.
	TriggerOnBeingHit = "on_being_hit"
)

// Proc target constants for ProcDef.ApplyTo.
const (
	ApplyToAttacker = "attacker"
	ApplyToTarget   = "target"
)

// ProcDef declares one gear-triggered secondary effect. Read-only to the
// combat engine.
type ProcDef struct {
	// Trigger is TriggerOnHit or TriggerOnBeingHit.
	Trigger string
	// Chance is the independent activation probability in [0, 1].
	Chance float64
	// ICD is the item-level internal cooldown between activations.
	ICD time.Duration
	// Damage is a dice expression ("1d6+2") for flat bonus damage; empty
	// when the proc applies an effect instead.
	Damage string
	// EffectID references a status effect definition to apply; empty when
	// the proc deals flat damage.
	EffectID string
	// ApplyTo selects who receives the proc: attacker or target.
	ApplyTo string
	// AllowChain opts this proc into chain evaluation; chaining also needs
	// the engine-wide flag.
	AllowChain bool
	// Script names an optional Lua damage hook overriding the dice expression.
	Script string
}

// Validate checks the proc declaration.
//
// Postcondition: returns nil iff trigger, chance, target, and payload are valid.
func (p *ProcDef) Validate() error {
	var errs []error
	if p.Trigger != TriggerOnHit && p.Trigger != TriggerOnBeingHit {
		errs = append(errs, fmt.Errorf("trigger must be %s or %s; got %q", TriggerOnHit, TriggerOnBeingHit, p.Trigger))
	}
	if p.Chance < 0 || p.Chance > 1 {
		errs = append(errs, fmt.Errorf("chance must be in [0, 1]; got %v", p.Chance))
	}
	if p.ICD < 0 {
		errs = append(errs, errors.New("icd must be >= 0"))
	}
	if p.ApplyTo != ApplyToAttacker && p.ApplyTo != ApplyToTarget {
		errs = append(errs, fmt.Errorf("apply_to must be %s or %s; got %q", ApplyToAttacker, ApplyToTarget, p.ApplyTo))
	}
	hasPayload := 0
	if p.Damage != "" {
		if _, err := dice.Parse(p.Damage); err != nil {
			errs = append(errs, fmt.Errorf("damage expression: %w", err))
		}
		hasPayload++
	}
	if p.EffectID != "" {
		hasPayload++
	}
	if p.Script != "" {
		hasPayload++
	}
	if hasPayload != 1 {
		errs = append(errs, errors.New("exactly one of damage, effect_id, script is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("proc validation failed: %v", errs)
	}
	return nil
}

// Def defines the static properties of an equippable item.
type Def struct {
	ID          string
	Name        string
	Description string
	// Slot is a free-form equipment slot label ("weapon", "chest", ...).
	Slot  string
	Procs []ProcDef
}

// Validate checks that the Def satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields and procs are valid.
func (d *Def) Validate() error {
	if d.ID == "" {
		return errors.New("item: ID must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("item %q: Name must not be empty", d.ID)
	}
	for i := range d.Procs {
		if err := d.Procs[i].Validate(); err != nil {
			return fmt.Errorf("item %q: proc %d: %w", d.ID, i, err)
		}
	}
	return nil
}

// defDoc is the YAML document shape; proc ICDs are duration strings.
type defDoc struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Slot        string `yaml:"slot"`
	Procs       []struct {
		Trigger    string  `yaml:"trigger"`
		Chance     float64 `yaml:"chance"`
		ICD        string  `yaml:"icd"`
		Damage     string  `yaml:"damage"`
		EffectID   string  `yaml:"effect_id"`
		ApplyTo    string  `yaml:"apply_to"`
		AllowChain bool    `yaml:"allow_chain"`
		Script     string  `yaml:"script"`
	} `yaml:"procs"`
}

// LoadDefFromBytes parses a single item definition from raw YAML bytes.
//
// Postcondition: Returns a validated *Def, or an error.
func LoadDefFromBytes(data []byte) (*Def, error) {
	var doc defDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing item YAML: %w", err)
	}

	def := &Def{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Slot:        doc.Slot,
	}
	for i, p := range doc.Procs {
		var icd time.Duration
		if p.ICD != "" {
			parsed, err := time.ParseDuration(p.ICD)
			if err != nil {
				return nil, fmt.Errorf("item %q: proc %d icd %q: %w", doc.ID, i, p.ICD, err)
			}
			icd = parsed
		}
		def.Procs = append(def.Procs, ProcDef{
			Trigger:    p.Trigger,
			Chance:     p.Chance,
			ICD:        icd,
			Damage:     p.Damage,
			EffectID:   p.EffectID,
			ApplyTo:    p.ApplyTo,
			AllowChain: p.AllowChain,
			Script:     p.Script,
		})
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Registry holds all loaded item definitions indexed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry returns an empty Registry.
//
// Postcondition: the internal map is initialised.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Get(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) Register(d *Def) error {
	if _, exists := r.defs[d.ID]; exists {
		return fmt.Errorf("item: Registry.Register: item ID %q already registered", d.ID)
	}
	r.defs[d.ID] = d
	return nil
}

// Get returns the Def for the given id and whether it was found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns all registered Defs in unspecified order.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads all *.yaml and *.yml files from dir and returns a
// populated Registry.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns a Registry with all valid defs or the first error.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("item.LoadDirectory: cannot read directory %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("item.LoadDirectory: cannot read file %q: %w", path, err)
		}
		def, err := LoadDefFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("item.LoadDirectory: invalid item in %q: %w", path, err)
		}
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
