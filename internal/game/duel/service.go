// Package duel provides the duel handshake state machine and the damage
// policy that arbitrates all combat permission.
package duel

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoRequest is returned when no pending request matches.
	ErrNoRequest = errors.New("no pending duel request")
	// ErrRequestExpired is returned when the matched request's TTL has lapsed.
	ErrRequestExpired = errors.New("duel request expired")
	// ErrWrongRoom is returned when acceptance happens in a different room
	// than the request was issued in.
	ErrWrongRoom = errors.New("duel must be accepted in the room it was issued in")
	// ErrAlreadyDueling is returned when either party already has an active duel.
	ErrAlreadyDueling = errors.New("a participant already has an active duel")
	// ErrSelfDuel is returned when a character challenges itself.
	ErrSelfDuel = errors.New("cannot duel yourself")
)

// Request is a pending duel challenge with a TTL.
type Request struct {
	Challenger string
	Target     string
	RoomID     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the request's TTL has lapsed at now.
func (r *Request) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Duel is an active duel between two characters. It has no natural expiry;
// ExpiresAt is a long safety valve cleaned up by Tick.
type Duel struct {
	A         string
	B         string
	StartedAt time.Time
	ExpiresAt time.Time
}

// Involves reports whether id is one of the duel's participants.
func (d *Duel) Involves(id string) bool {
	return d.A == id || d.B == id
}

// Config tunes the service's TTLs.
type Config struct {
	RequestTTL time.Duration
	// DuelTTL is the safety-valve lifetime of an active duel.
	DuelTTL time.Duration
}

// DefaultConfig returns the standard duel policy.
func DefaultConfig() Config {
	return Config{
		RequestTTL: 60 * time.Second,
		DuelTTL:    15 * time.Minute,
	}
}

type requestKey struct {
	challenger string
	target     string
}

// Service is the in-memory, ephemeral duel state machine. All state is lost
// on restart. Safe for concurrent use.
//
// Invariant: a character holds at most one active duel, but may hold any
// number of pending requests as either party.
type Service struct {
	mu       sync.Mutex
	cfg      Config
	requests map[requestKey]*Request
	active   map[string]*Duel // charID → shared Duel (two entries per duel)
	logger   *zap.Logger
}

// NewService creates a Service. A nil logger is replaced with a no-op.
func NewService(cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		requests: make(map[requestKey]*Request),
		active:   make(map[string]*Duel),
		logger:   logger,
	}
}

// Request records a pending challenge from challenger to target, replacing
// any earlier pending request for the same pair and refreshing its TTL.
//
// Precondition: challenger, target and roomID must be non-empty.
// Postcondition: Returns the stored request, or an error when challenger
// equals target.
func (s *Service) Request(challenger, target, roomID string, now time.Time) (*Request, error) {
	if challenger == target {
		return nil, ErrSelfDuel
	}
	req := &Request{
		Challenger: challenger,
		Target:     target,
		RoomID:     roomID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.RequestTTL),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[requestKey{challenger, target}] = req
	return req, nil
}

// Accept consumes the pending request from challenger to target and starts
// the duel.
//
// Precondition: target must be accepting in the room the request names.
// Postcondition: On success both parties map to the same active Duel and the
// request is consumed. The request is also consumed when it turned out to be
// expired. Fails without state change when either party is already dueling
// or the room differs.
func (s *Service) Accept(target, challenger, roomID string, now time.Time) (*Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := requestKey{challenger, target}
	req, ok := s.requests[key]
	if !ok {
		return nil, ErrNoRequest
	}
	if req.Expired(now) {
		delete(s.requests, key)
		return nil, ErrRequestExpired
	}
	if req.RoomID != roomID {
		return nil, ErrWrongRoom
	}
	if _, busy := s.active[challenger]; busy {
		return nil, ErrAlreadyDueling
	}
	if _, busy := s.active[target]; busy {
		return nil, ErrAlreadyDueling
	}

	delete(s.requests, key)
	d := &Duel{
		A:         challenger,
		B:         target,
		StartedAt: now,
		ExpiresAt: now.Add(s.cfg.DuelTTL),
	}
	s.active[challenger] = d
	s.active[target] = d
	s.logger.Info("duel started",
		zap.String("challenger", challenger),
		zap.String("target", target),
		zap.String("room", roomID),
	)
	return d, nil
}

// AcceptAny accepts the oldest live pending request addressed to target,
// ties broken by challenger id.
//
// Postcondition: Returns ErrNoRequest when no live request addresses target.
func (s *Service) AcceptAny(target, roomID string, now time.Time) (*Duel, error) {
	s.mu.Lock()
	var candidates []*Request
	for _, req := range s.requests {
		if req.Target == target && !req.Expired(now) {
			candidates = append(candidates, req)
		}
	}
	s.mu.Unlock()

	if len(candidates) == 0 {
		return nil, ErrNoRequest
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].Challenger < candidates[j].Challenger
	})
	return s.Accept(target, candidates[0].Challenger, roomID, now)
}

// Decline removes the pending request from challenger to target.
//
// Postcondition: Returns true when a request was removed.
func (s *Service) Decline(target, challenger string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := requestKey{challenger, target}
	if _, ok := s.requests[key]; !ok {
		return false
	}
	delete(s.requests, key)
	return true
}

// ActiveBetween reports whether a and b are currently dueling each other.
func (s *Service) ActiveBetween(a, b string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.active[a]
	return ok && d.Involves(b) && a != b
}

// PartnerOf returns the duel partner of id, if any.
func (s *Service) PartnerOf(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.active[id]
	if !ok {
		return "", false
	}
	if d.A == id {
		return d.B, true
	}
	return d.A, true
}

// EndFor removes the duel involving charID for both participants.
//
// Postcondition: Returns true when a duel was ended.
func (s *Service) EndFor(charID, reason string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked(charID, reason, now)
}

func (s *Service) endLocked(charID, reason string, now time.Time) bool {
	d, ok := s.active[charID]
	if !ok {
		return false
	}
	delete(s.active, d.A)
	delete(s.active, d.B)
	s.logger.Info("duel ended",
		zap.String("a", d.A),
		zap.String("b", d.B),
		zap.String("reason", reason),
		zap.Duration("length", now.Sub(d.StartedAt)),
	)
	return true
}

// Tick drops expired requests and force-ends duels past their safety-valve TTL.
//
// Postcondition: Returns the ids of characters whose duels were force-ended.
func (s *Service) Tick(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, req := range s.requests {
		if req.Expired(now) {
			delete(s.requests, key)
		}
	}

	var ended []string
	for id, d := range s.active {
		if now.Before(d.ExpiresAt) {
			continue
		}
		// Both entries share the Duel; endLocked removes both at once.
		if s.endLocked(id, "safety_ttl", now) {
			ended = append(ended, d.A, d.B)
		}
	}
	sort.Strings(ended)
	return ended
}
