package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MemoryRepository keeps the user directory and the message log in two
// append-only slices guarded by a single RWMutex.
type MemoryRepository struct {
	mu        sync.RWMutex
	users     []domain.User
	userIndex map[uuid.UUID]int // user ID -> position in users
	messages  []domain.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{userIndex: make(map[uuid.UUID]int)}
}

// RegisterUser never fails.
func (r *MemoryRepository) RegisterUser(identity domain.Identity) (domain.User, error) {
	user := domain.User{
		ID:        uuid.New(),
		Identity:  identity.Identity,
		Name:      identity.Name,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userIndex[user.ID] = len(r.users)
	r.users = append(r.users, user)
	return user, nil
}

// PostMessage appends under the write lock, so the log order is the order
// in which calls complete.
func (r *MemoryRepository) PostMessage(sender domain.User, content string) (domain.Message, error) {
	message := domain.Message{
		ID:        uuid.New(),
		SenderID:  sender.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.userIndex[sender.ID]; !ok {
		return domain.Message{}, errors.ErrInvalidSender
	}
	r.messages = append(r.messages, message)
	return message, nil
}

func (r *MemoryRepository) Snapshot() ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.messages, func(m domain.Message, _ int) domain.HistoryEntry {
		return domain.HistoryEntry{
			SenderName: r.users[r.userIndex[m.SenderID]].Name,
			Content:    m.Content,
		}
	}), nil
}

func (r *MemoryRepository) Users() ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.users), nil
}

func (r *MemoryRepository) Counts() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), len(r.messages)
}
