package entity

import (
	"fmt"
	"sort"
	"sync"
)

// Registry tracks live combatants and their room membership. All methods
// are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*Combatant
	rooms map[string]map[string]bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[string]*Combatant),
		rooms: make(map[string]map[string]bool),
	}
}

// Add registers a combatant and indexes it under its current room.
//
// Precondition: c must be non-nil with a non-empty ID.
// Postcondition: Returns an error when the id is already registered.
func (r *Registry) Add(c *Combatant) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("combatant must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return fmt.Errorf("combatant %q already registered", c.ID)
	}
	r.byID[c.ID] = c
	r.indexRoom(c.ID, c.RoomID)
	return nil
}

// Remove unregisters a combatant.
//
// Postcondition: Returns true when the id was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return false
	}
	r.unindexRoom(id, c.RoomID)
	delete(r.byID, id)
	return true
}

// Get returns the combatant with the given id.
func (r *Registry) Get(id string) (*Combatant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// Move relocates a combatant to a new room and reindexes it.
//
// Postcondition: Returns false when the id is unknown.
func (r *Registry) Move(id, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return false
	}
	r.unindexRoom(id, c.RoomID)
	c.RoomID = roomID
	r.indexRoom(id, roomID)
	return true
}

// InRoom returns the combatants currently in roomID, sorted by id for
// deterministic iteration.
func (r *Registry) InRoom(roomID string) []*Combatant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.rooms[roomID]
	out := make([]*Combatant, 0, len(ids))
	for id := range ids {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns a snapshot of every registered combatant, sorted by id.
func (r *Registry) All() []*Combatant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Combatant, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered combatants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) indexRoom(id, roomID string) {
	if roomID == "" {
		return
	}
	set, ok := r.rooms[roomID]
	if !ok {
		set = make(map[string]bool)
		r.rooms[roomID] = set
	}
	set[id] = true
}

func (r *Registry) unindexRoom(id, roomID string) {
	if set, ok := r.rooms[roomID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
}
