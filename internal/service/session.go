package service

import (
	"sync"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

// roomSession pairs a room with its exclusive section and turn clock.
// Every mutation of the room happens with mu held, so move validation,
// ready transitions and clock expiry are serialized per room.
type roomSession struct {
	mu   sync.Mutex
	room *entity.Room

	// clockGen invalidates a pending clock callback: the callback only
	// acts when its generation still matches. Exactly one of
	// {accepted move, expiry} can take the terminal transition.
	clockGen uint64
	clock    *time.Timer
}

func (that *roomSession) stopClockLocked() {
	that.clockGen++
	if that.clock != nil {
		that.clock.Stop()
		that.clock = nil
	}
}

// Registry is the shared code->session mapping. It only guards
// the map itself; room state is guarded by each session's own lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*roomSession
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*roomSession),
	}
}

func (that *Registry) get(code string) (*roomSession, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[code]
	return session, ok
}

// putIfAbsent - reserves a code; reports false on collision.
func (that *Registry) putIfAbsent(code string, session *roomSession) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.sessions[code]; exists {
		return false
	}

	that.sessions[code] = session
	return true
}

func (that *Registry) delete(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, code)
}

func (that *Registry) all() []*roomSession {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sessions := make([]*roomSession, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}
