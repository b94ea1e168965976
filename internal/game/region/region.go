// Package region provides region definitions with combat permission flags
// and the provider consulted by the damage policy.
package region

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Def defines a region: a named group of rooms sharing combat flags.
type Def struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Rooms lists the room ids belonging to this region.
	Rooms []string `yaml:"rooms"`
	// CombatEnabled permits any combat inside the region.
	CombatEnabled bool `yaml:"combat_enabled"`
	// PvPEnabled permits open player-versus-player combat.
	PvPEnabled bool `yaml:"pvp_enabled"`
	// ServiceProtected marks every NPC spawned in the region as immune.
	ServiceProtected bool `yaml:"service_protected"`
	// GuardProfile is the default guard-response tier for crimes here.
	GuardProfile string `yaml:"guard_profile"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Postcondition: Returns nil iff ID and Name are non-empty and at least one
// room is listed.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("region: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("region %q: name must not be empty", d.ID)
	}
	if len(d.Rooms) == 0 {
		return fmt.Errorf("region %q: rooms must not be empty", d.ID)
	}
	return nil
}

// LoadDefs reads all .yaml/.yml files in dir and parses each as a Def.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed defs or a non-nil error on the first
// parse or validate failure.
func LoadDefs(dir string) ([]*Def, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	defs := make([]*Def, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var d Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing region file %s: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		defs = append(defs, &d)
	}
	return defs, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

// Provider resolves rooms to their region flags. It implements the damage
// policy's region collaborator: lookups for rooms outside any known region
// report no signal, leaving the default to the policy. Safe for concurrent use.
type Provider struct {
	mu     sync.RWMutex
	byRoom map[string]*Def
	byID   map[string]*Def
}

// NewProvider indexes defs by room.
//
// Postcondition: Returns an error when two regions claim the same room or
// two defs share an id.
func NewProvider(defs []*Def) (*Provider, error) {
	p := &Provider{
		byRoom: make(map[string]*Def),
		byID:   make(map[string]*Def),
	}
	for _, d := range defs {
		if _, dup := p.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate region id %q", d.ID)
		}
		p.byID[d.ID] = d
		for _, roomID := range d.Rooms {
			if prev, claimed := p.byRoom[roomID]; claimed {
				return nil, fmt.Errorf("room %q claimed by regions %q and %q", roomID, prev.ID, d.ID)
			}
			p.byRoom[roomID] = d
		}
	}
	return p, nil
}

// RegionFor returns the region containing roomID.
func (p *Provider) RegionFor(roomID string) (*Def, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.byRoom[roomID]
	return d, ok
}

// Get returns the region with the given id.
func (p *Provider) Get(id string) (*Def, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.byID[id]
	return d, ok
}

// CombatEnabled reports the combat flag for roomID's region. The second
// return is false when the room is in no known region.
func (p *Provider) CombatEnabled(roomID string) (bool, bool) {
	d, ok := p.RegionFor(roomID)
	if !ok {
		return false, false
	}
	return d.CombatEnabled, true
}

// PvPEnabled reports the open-PvP flag for roomID's region. The second
// return is false when the room is in no known region.
func (p *Provider) PvPEnabled(roomID string) (bool, bool) {
	d, ok := p.RegionFor(roomID)
	if !ok {
		return false, false
	}
	return d.PvPEnabled, true
}

// GuardProfileFor returns the guard-response tier for roomID, or "" when
// the room is in no known region.
func (p *Provider) GuardProfileFor(roomID string) string {
	d, ok := p.RegionFor(roomID)
	if !ok {
		return ""
	}
	return d.GuardProfile
}

// ServiceProtectedRoom reports whether NPCs in roomID are region-immune.
func (p *Provider) ServiceProtectedRoom(roomID string) bool {
	d, ok := p.RegionFor(roomID)
	return ok && d.ServiceProtected
}
