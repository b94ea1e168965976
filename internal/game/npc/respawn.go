package npc

import (
	"sync"
	"time"
)

// RoomSpawn holds the resolved spawn configuration for one NPC prototype in
// one room.
//
// Invariant: Max >= 1; RespawnDelay == 0 means this prototype does not respawn.
type RoomSpawn struct {
	// PrototypeID is the NPC prototype to spawn.
	PrototypeID string
	// Max is the population cap: respawn is suppressed when live count >= Max.
	Max int
	// RespawnDelay overrides the prototype delay when non-zero.
	RespawnDelay time.Duration
}

type respawnEntry struct {
	prototypeID string
	roomID      string
	readyAt     time.Time
}

// RespawnManager schedules and executes NPC respawns.
// It is safe for concurrent use.
//
// Invariant: entries with zero delay are never queued.
//
// Concurrency: Tick and PopulateRoom must not be called concurrently with
// each other or with themselves. Schedule may be called from any goroutine.
type RespawnManager struct {
	mu         sync.RWMutex
	spawns     map[string][]RoomSpawn // roomID → configs
	prototypes map[string]*Prototype  // prototypeID → Prototype
	pending    []respawnEntry
}

// NewRespawnManager creates a RespawnManager from room spawn configs and a
// prototype map.
//
// Precondition: spawns and prototypes may be nil (manager becomes a no-op).
// Postcondition: Returns a non-nil RespawnManager.
func NewRespawnManager(spawns map[string][]RoomSpawn, prototypes map[string]*Prototype) *RespawnManager {
	if spawns == nil {
		spawns = make(map[string][]RoomSpawn)
	}
	if prototypes == nil {
		prototypes = make(map[string]*Prototype)
	}
	return &RespawnManager{
		spawns:     spawns,
		prototypes: prototypes,
	}
}

// PopulateRoom enforces the population cap for each RoomSpawn config in
// roomID. It first removes excess instances when the live count exceeds Max,
// then spawns new instances to fill the room up to exactly Max.
//
// Precondition: roomID must be non-empty; mgr must not be nil.
// Postcondition: for each prototype config in roomID, instances beyond Max
// are removed and new instances are spawned until count == Max (subject to
// Spawn succeeding). Must not be called concurrently with Tick.
func (r *RespawnManager) PopulateRoom(roomID string, mgr *Manager, now time.Time) {
	r.mu.Lock()
	configs := append([]RoomSpawn(nil), r.spawns[roomID]...)
	r.mu.Unlock()

	for _, cfg := range configs {
		// r.prototypes is read-only after construction; no lock required.
		proto, ok := r.prototypes[cfg.PrototypeID]
		if !ok {
			continue
		}

		matching := r.matchingInRoom(roomID, cfg.PrototypeID, mgr)
		for len(matching) > cfg.Max {
			last := matching[len(matching)-1]
			matching = matching[:len(matching)-1]
			_ = mgr.Remove(last.ID)
		}

		for i := len(matching); i < cfg.Max; i++ {
			if _, err := mgr.Spawn(proto, roomID, now); err != nil {
				// Spawn failure is non-fatal; the next call will retry.
				continue
			}
		}
	}
}

// Schedule enqueues a future respawn for prototypeID in roomID to fire at
// now+delay. No-op when delay == 0 (prototype does not respawn).
//
// Precondition: prototypeID and roomID must be non-empty.
// Postcondition: entry is added to pending with readyAt = now+delay iff delay > 0.
func (r *RespawnManager) Schedule(prototypeID, roomID string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{
		prototypeID: prototypeID,
		roomID:      roomID,
		readyAt:     now.Add(delay),
	})
}

// Tick drains all entries whose readyAt <= now, checks the population cap
// for each, and spawns up to the remaining capacity.
//
// Precondition: mgr must not be nil.
// Postcondition: pending entries with readyAt <= now are consumed. Must not
// be called concurrently with PopulateRoom or other Tick calls.
func (r *RespawnManager) Tick(now time.Time, mgr *Manager) {
	r.mu.Lock()
	var ready, future []respawnEntry
	for _, e := range r.pending {
		if !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	r.pending = future
	r.mu.Unlock()

	for _, e := range ready {
		proto, ok := r.prototypes[e.prototypeID]
		if !ok {
			continue
		}
		cfg, ok := r.configFor(e.roomID, e.prototypeID)
		if !ok {
			continue
		}
		if len(r.matchingInRoom(e.roomID, e.prototypeID, mgr)) >= cfg.Max {
			continue
		}
		_, _ = mgr.Spawn(proto, e.roomID, now)
	}
}

// ResolvedDelay returns the effective respawn delay for prototypeID in
// roomID: the room's RespawnDelay if non-zero, otherwise the prototype's
// parsed RespawnDelay. Returns 0 when neither is set or the prototype is
// unknown.
//
// Postcondition: Returns >= 0.
func (r *RespawnManager) ResolvedDelay(prototypeID, roomID string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.spawns[roomID] {
		if cfg.PrototypeID == prototypeID && cfg.RespawnDelay > 0 {
			return cfg.RespawnDelay
		}
	}
	proto, ok := r.prototypes[prototypeID]
	if !ok || proto.RespawnDelay == "" {
		return 0
	}
	d, err := time.ParseDuration(proto.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// configFor finds the RoomSpawn config for prototypeID in roomID.
// Caller must NOT hold r.mu.
func (r *RespawnManager) configFor(roomID, prototypeID string) (RoomSpawn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cfg := range r.spawns[roomID] {
		if cfg.PrototypeID == prototypeID {
			return cfg, true
		}
	}
	return RoomSpawn{}, false
}

// matchingInRoom returns the live instances of prototypeID in roomID.
// Corpses awaiting despawn never count toward the population cap.
func (r *RespawnManager) matchingInRoom(roomID, prototypeID string, mgr *Manager) []*Instance {
	var matching []*Instance
	for _, inst := range mgr.InstancesInRoom(roomID) {
		if inst.PrototypeID == prototypeID && !inst.IsDead() {
			matching = append(matching, inst)
		}
	}
	return matching
}
