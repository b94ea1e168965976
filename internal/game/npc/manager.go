package npc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duskhaven/mudcore/internal/game/effect"
	"github.com/duskhaven/mudcore/internal/game/entity"
	"github.com/duskhaven/mudcore/internal/game/threat"
)

// RoomHopDistance is the distance assigned to one room-to-room hop when
// resolving radius queries over the room graph.
const RoomHopDistance = 10.0

// RoomProtection reports whether a room confers service protection on the
// NPCs spawned there. The region provider implements it.
type RoomProtection interface {
	ServiceProtectedRoom(roomID string) bool
}

// Manager tracks all live NPC instances by ID and by room, and resolves
// proximity queries for pack assist and gate-for-help recruitment.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance       // instanceID → Instance
	roomSets  map[string]map[string]bool // roomID → set of instanceIDs
	links     map[string]map[string]bool // roomID → adjacent roomIDs
	counter   atomic.Uint64

	registry   *entity.Registry
	drCfg      effect.DRConfig
	protection RoomProtection
}

// NewManager creates an empty NPC Manager. Spawned combatants are registered
// in registry with effect sets using drCfg.
//
// Precondition: registry must be non-nil.
func NewManager(registry *entity.Registry, drCfg effect.DRConfig) *Manager {
	return &Manager{
		instances: make(map[string]*Instance),
		roomSets:  make(map[string]map[string]bool),
		links:     make(map[string]map[string]bool),
		registry:  registry,
		drCfg:     drCfg,
	}
}

// SetRoomProtection installs the room protection lookup consulted at spawn
// time. Call once during startup, before any Spawn.
func (m *Manager) SetRoomProtection(p RoomProtection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protection = p
}

// LinkRooms records a bidirectional adjacency between two rooms. Radius
// queries treat each hop as RoomHopDistance units.
func (m *Manager) LinkRooms(a, b string) {
	if a == "" || b == "" || a == b {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links[a] == nil {
		m.links[a] = make(map[string]bool)
	}
	if m.links[b] == nil {
		m.links[b] = make(map[string]bool)
	}
	m.links[a][b] = true
	m.links[b][a] = true
}

// Spawn creates a new Instance from proto and places it in roomID.
//
// Precondition: proto must be non-nil and valid; roomID must be non-empty.
// Postcondition: Returns a new Instance with a unique ID registered in
// roomID, its combatant added to the entity registry with full HP and a
// fresh threat table stamped at now. Spawning into a service-protected room
// marks the combatant ServiceProtected.
func (m *Manager) Spawn(proto *Prototype, roomID string, now time.Time) (*Instance, error) {
	if proto == nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: proto must not be nil")
	}
	if roomID == "" {
		return nil, fmt.Errorf("npc.Manager.Spawn: roomID must not be empty")
	}

	n := m.counter.Add(1)
	id := fmt.Sprintf("%s-%s-%d", proto.ID, roomID, n)

	c := entity.NewCombatant(id, entity.KindNPC, proto.Name, proto.Level, proto.MaxHP, m.drCfg)
	c.RoomID = roomID
	c.Role = threat.Role(proto.Role)
	c.WeaponSkillPoints = proto.WeaponSkillPoints
	c.Equipment = append([]string(nil), proto.Equipment...)

	m.mu.RLock()
	protection := m.protection
	m.mu.RUnlock()
	if protection != nil && protection.ServiceProtectedRoom(roomID) {
		c.ServiceProtected = true
	}
	if err := m.registry.Add(c); err != nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: %w", err)
	}

	inst := newInstance(id, proto, c, now)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances[id] = inst
	if m.roomSets[roomID] == nil {
		m.roomSets[roomID] = make(map[string]bool)
	}
	m.roomSets[roomID][id] = true

	return inst, nil
}

// Remove deletes an instance by ID and unregisters its combatant.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("npc instance %q not found", id)
	}

	if rs, ok := m.roomSets[inst.RoomID()]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(m.roomSets, inst.RoomID())
		}
	}
	delete(m.instances, id)
	m.registry.Remove(id)
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (inst, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// InstancesInRoom returns a snapshot of all live instances in roomID, sorted
// by ID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) InstancesInRoom(roomID string) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instancesInRoomLocked(roomID)
}

func (m *Manager) instancesInRoomLocked(roomID string) []*Instance {
	ids, ok := m.roomSets[roomID]
	if !ok {
		return []*Instance{}
	}

	out := make([]*Instance, 0, len(ids))
	for id := range ids {
		if inst, ok := m.instances[id]; ok {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns a snapshot of every live instance, sorted by ID.
func (m *Manager) All() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Move relocates an instance from its current room to newRoomID and keeps
// the entity registry in sync.
//
// Precondition: id must identify an existing instance; newRoomID must be non-empty.
// Postcondition: instance room equals newRoomID; room indexes are updated.
func (m *Manager) Move(id, newRoomID string) error {
	if newRoomID == "" {
		return fmt.Errorf("npc.Manager.Move: newRoomID must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("npc.Manager.Move: instance %q not found", id)
	}

	oldRoomID := inst.RoomID()
	if rs, ok := m.roomSets[oldRoomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(m.roomSets, oldRoomID)
		}
	}

	m.registry.Move(id, newRoomID)
	if m.roomSets[newRoomID] == nil {
		m.roomSets[newRoomID] = make(map[string]bool)
	}
	m.roomSets[newRoomID][id] = true

	return nil
}

// FindInRoom returns the first instance in roomID whose Name has target as a
// case-insensitive prefix. Returns nil if no match is found.
//
// Precondition: roomID and target must be non-empty for meaningful results.
func (m *Manager) FindInRoom(roomID, target string) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(target)
	for _, inst := range m.instancesInRoomLocked(roomID) {
		if strings.HasPrefix(strings.ToLower(inst.Combatant.Name), lower) {
			return inst
		}
	}
	return nil
}

// AlliesNear returns live ally NPC ids within radius of npcID, sorted for
// deterministic iteration. The room graph is walked breadth-first with each
// hop costing RoomHopDistance units, so a radius of 20 reaches the caller's
// room plus two hops. When sameGroupOnly is set, only instances sharing the
// caller's prototype group qualify.
//
// Postcondition: The returned slice never contains npcID or dead instances.
func (m *Manager) AlliesNear(npcID string, radius float64, sameGroupOnly bool) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	self, ok := m.instances[npcID]
	if !ok || radius <= 0 {
		return nil
	}

	var allies []string
	for _, roomID := range m.roomsWithinLocked(self.RoomID(), radius) {
		for _, inst := range m.instancesInRoomLocked(roomID) {
			if inst.ID == npcID || inst.IsDead() {
				continue
			}
			if sameGroupOnly && inst.Proto.Group != self.Proto.Group {
				continue
			}
			allies = append(allies, inst.ID)
		}
	}
	sort.Strings(allies)
	return allies
}

// roomsWithinLocked walks the room graph breadth-first from start, returning
// every room reachable within radius units. Caller must hold m.mu.
func (m *Manager) roomsWithinLocked(start string, radius float64) []string {
	maxHops := int(radius / RoomHopDistance)
	visited := map[string]bool{start: true}
	rooms := []string{start}
	frontier := []string{start}
	for hop := 0; hop < maxHops; hop++ {
		var next []string
		for _, roomID := range frontier {
			for adj := range m.links[roomID] {
				if visited[adj] {
					continue
				}
				visited[adj] = true
				rooms = append(rooms, adj)
				next = append(next, adj)
			}
		}
		frontier = next
	}
	sort.Strings(rooms)
	return rooms
}

// TableFor returns the threat table owned by the given NPC.
//
// Postcondition: Returns (table, true) for a live instance, (nil, false)
// otherwise.
func (m *Manager) TableFor(npcID string) (*threat.Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[npcID]
	if !ok {
		return nil, false
	}
	return inst.Threat, true
}

// RoleFor returns the decay role for an entity id: the instance's prototype
// role for NPCs, or the registered combatant's role otherwise.
func (m *Manager) RoleFor(id string) threat.Role {
	m.mu.RLock()
	inst, ok := m.instances[id]
	m.mu.RUnlock()
	if ok {
		return threat.Role(inst.Proto.Role)
	}
	if c, ok := m.registry.Get(id); ok {
		return c.Role
	}
	return threat.RoleUnknown
}

// ValidateTargetFor builds a threat target validator for the given NPC:
// targets missing from the entity registry, dead, or outside the NPC's room
// are reported invalid with a short reason code.
func (m *Manager) ValidateTargetFor(npcID string) func(targetID string) threat.TargetStatus {
	return func(targetID string) threat.TargetStatus {
		inst, ok := m.Get(npcID)
		if !ok {
			return threat.TargetStatus{Valid: false, Reason: "owner_gone"}
		}
		target, ok := m.registry.Get(targetID)
		if !ok {
			return threat.TargetStatus{Valid: false, Reason: "missing"}
		}
		if target.IsDead() {
			return threat.TargetStatus{Valid: false, Reason: "dead"}
		}
		if target.RoomID != inst.RoomID() {
			return threat.TargetStatus{Valid: false, Reason: "out_of_room"}
		}
		return threat.TargetStatus{Valid: true}
	}
}
