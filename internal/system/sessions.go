package system

import "github.com/duskhollow/server/internal/net"

// SessionRegistry tracks every connected session, logged-in or not. The
// input system adds and removes entries; the output system flushes them.
// Game loop only.
type SessionRegistry struct {
	sessions map[uint64]*net.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uint64]*net.Session)}
}

func (r *SessionRegistry) Add(s *net.Session) {
	r.sessions[s.ID] = s
}

func (r *SessionRegistry) Remove(id uint64) {
	delete(r.sessions, id)
}

func (r *SessionRegistry) Len() int {
	return len(r.sessions)
}

func (r *SessionRegistry) ForEach(fn func(*net.Session)) {
	for _, s := range r.sessions {
		fn(s)
	}
}
