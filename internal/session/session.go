// Package session keeps per-actor conversational mode.
//
// A session is created on first contact and lives for the process
// lifetime. When an idle timeout is configured, a session untouched for
// longer than the timeout is reset to Idle on its next access and the
// OnExpire hook is called, so related per-actor state can be dropped too.
package session

import (
	"sync"
	"time"
)

// Mode is the state of one actor's conversation.
type Mode int

const (
	Idle Mode = iota
	AwaitingAdd
	AwaitingDelete
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case AwaitingAdd:
		return "awaiting_add"
	case AwaitingDelete:
		return "awaiting_delete"
	default:
		return "unknown"
	}
}

type session struct {
	mode     Mode
	lastSeen time.Time
}

// Store maps actors to sessions. It is safe for concurrent use; concurrent
// writes for the same actor are last-write-wins.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*session
	idle     time.Duration
	now      func() time.Time

	// OnExpire, if set, is called (without the lock held) with the actor
	// whose session was reset by the idle timeout.
	OnExpire func(actor int64)
}

// NewStore returns a Store. idle <= 0 disables the timeout.
func NewStore(idle time.Duration) *Store {
	return &Store{
		sessions: make(map[int64]*session),
		idle:     idle,
		now:      time.Now,
	}
}

// touch returns the actor's session, creating or resetting it as needed.
// Must be called with mu held. expired reports an idle reset.
func (s *Store) touch(actor int64) (sess *session, expired bool) {
	now := s.now()
	sess, ok := s.sessions[actor]
	if !ok {
		sess = &session{mode: Idle}
		s.sessions[actor] = sess
	} else if s.idle > 0 && now.Sub(sess.lastSeen) > s.idle {
		sess.mode = Idle
		expired = true
	}
	sess.lastSeen = now
	return sess, expired
}

func (s *Store) expire(actor int64, expired bool) {
	if expired && s.OnExpire != nil {
		s.OnExpire(actor)
	}
}

// Mode returns the actor's current mode.
func (s *Store) Mode(actor int64) Mode {
	s.mu.Lock()
	sess, expired := s.touch(actor)
	mode := sess.mode
	s.mu.Unlock()

	s.expire(actor, expired)
	return mode
}

// Set puts the actor into mode.
func (s *Store) Set(actor int64, mode Mode) {
	s.mu.Lock()
	sess, expired := s.touch(actor)
	sess.mode = mode
	s.mu.Unlock()

	s.expire(actor, expired)
}

// Take returns the actor's mode and resets it to Idle in one step, so an
// awaiting state is consumed by exactly one input.
func (s *Store) Take(actor int64) Mode {
	s.mu.Lock()
	sess, expired := s.touch(actor)
	mode := sess.mode
	sess.mode = Idle
	s.mu.Unlock()

	s.expire(actor, expired)
	return mode
}

// Len reports how many actors have a session.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
