package npc

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SpawnDoc is the YAML shape of one spawn entry in a world file.
type SpawnDoc struct {
	Prototype string `yaml:"prototype"`
	Max       int    `yaml:"max"`
	// RespawnDelay overrides the prototype delay when set, e.g. "45s".
	RespawnDelay string `yaml:"respawn_delay"`
}

// RoomDoc is the YAML shape of one room in a world file.
type RoomDoc struct {
	ID     string     `yaml:"id"`
	Exits  []string   `yaml:"exits"`
	Spawns []SpawnDoc `yaml:"spawns"`
}

// WorldDef is a parsed world file: the room graph plus its spawn tables.
type WorldDef struct {
	Rooms []RoomDoc `yaml:"rooms"`
}

// LoadWorld reads and validates a world YAML file.
//
// Postcondition: every room id is unique and non-empty; every exit names a
// room defined in the same file; every spawn has a prototype and a cap of at
// least 1 and a parseable respawn delay.
func LoadWorld(path string) (*WorldDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file: %w", err)
	}
	var world WorldDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&world); err != nil {
		return nil, fmt.Errorf("parsing world file %q: %w", path, err)
	}

	seen := make(map[string]bool, len(world.Rooms))
	for _, room := range world.Rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("world file %q: room with empty id", path)
		}
		if seen[room.ID] {
			return nil, fmt.Errorf("world file %q: duplicate room %q", path, room.ID)
		}
		seen[room.ID] = true
	}
	for _, room := range world.Rooms {
		for _, exit := range room.Exits {
			if !seen[exit] {
				return nil, fmt.Errorf("world file %q: room %q exit %q is not defined", path, room.ID, exit)
			}
		}
		for _, spawn := range room.Spawns {
			if spawn.Prototype == "" {
				return nil, fmt.Errorf("world file %q: room %q spawn with empty prototype", path, room.ID)
			}
			if spawn.Max < 1 {
				return nil, fmt.Errorf("world file %q: room %q spawn %q max must be >= 1, got %d", path, room.ID, spawn.Prototype, spawn.Max)
			}
			if spawn.RespawnDelay != "" {
				if _, err := time.ParseDuration(spawn.RespawnDelay); err != nil {
					return nil, fmt.Errorf("world file %q: room %q spawn %q respawn_delay: %w", path, room.ID, spawn.Prototype, err)
				}
			}
		}
	}
	return &world, nil
}

// Link registers every room's exits on the manager. LinkRooms is
// bidirectional, so a one-sided exit declaration still connects both ways.
func (w *WorldDef) Link(mgr *Manager) {
	for _, room := range w.Rooms {
		for _, exit := range room.Exits {
			mgr.LinkRooms(room.ID, exit)
		}
	}
}

// SpawnMap converts the world's spawn tables into the respawn manager's
// room-keyed form.
//
// Precondition: LoadWorld validated the delays; Parse errors cannot occur.
func (w *WorldDef) SpawnMap() map[string][]RoomSpawn {
	spawns := make(map[string][]RoomSpawn)
	for _, room := range w.Rooms {
		for _, doc := range room.Spawns {
			var delay time.Duration
			if doc.RespawnDelay != "" {
				delay, _ = time.ParseDuration(doc.RespawnDelay)
			}
			spawns[room.ID] = append(spawns[room.ID], RoomSpawn{
				PrototypeID:  doc.Prototype,
				Max:          doc.Max,
				RespawnDelay: delay,
			})
		}
	}
	return spawns
}
