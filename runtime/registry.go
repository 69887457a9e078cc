package runtime

import (
	"chat-relay/contract"
	"sync"

	"github.com/google/uuid"
)

var _ contract.ISessionRegistry = (*SessionRegistry)(nil)

// SessionRegistry maps live session IDs to their streams.
// The registry never reads or writes a stream: each stream is owned by its
// session goroutine, the registry only closes it on shutdown.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]contract.Stream
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uuid.UUID]contract.Stream)}
}

func (r *SessionRegistry) Track(sessionID uuid.UUID, stream contract.Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = stream
}

func (r *SessionRegistry) Untrack(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every tracked stream and returns how many were closed.
// Sessions notice the closed stream on their next read and untrack themselves.
func (r *SessionRegistry) CloseAll() int {
	r.mu.RLock()
	streams := make([]contract.Stream, 0, len(r.sessions))
	for _, stream := range r.sessions {
		streams = append(streams, stream)
	}
	r.mu.RUnlock()

	for _, stream := range streams {
		_ = stream.Close()
	}
	return len(streams)
}
