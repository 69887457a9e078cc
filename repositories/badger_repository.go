package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix      = "user:"
	directoryPrefix = "dir:"
	messagePrefix   = "msg:"
)

// BadgerRepository stores users and messages in a badger DB.
//
// Keys:
//   - "user:{uuid}"  -> user record
//   - "dir:{seq}"    -> user uuid, registration order
//   - "msg:{seq}"    -> message record, completion order
//
// Sequence numbers are zero padded to 19 digits so that a prefix scan
// returns them in order. Writers are serialised by mu, which makes the
// sequence order equal to the commit order. Snapshot reads through a single
// read-only transaction and therefore sees every commit that finished before
// it started and nothing else.
//
// The relay opens the DB with WithInMemory(true): nothing outlives the process.
type BadgerRepository struct {
	db  *badger.DB
	log *slog.Logger

	mu         sync.Mutex
	userSeq    uint64
	messageSeq uint64
}

func NewBadgerRepository(db *badger.DB, log *slog.Logger) *BadgerRepository {
	return &BadgerRepository{db: db, log: log}
}

// OpenInMemoryDB opens a badger DB that lives only in memory.
func OpenInMemoryDB() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
}

func (r *BadgerRepository) RegisterUser(identity domain.Identity) (domain.User, error) {
	user := domain.User{
		ID:        uuid.New(),
		Identity:  identity.Identity,
		Name:      identity.Name,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.userSeq + 1
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(userKey(user.ID), encodeUser(user)); err != nil {
			return err
		}
		return txn.Set(sequenceKey(directoryPrefix, seq), user.ID[:])
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("register user: %w: %w", errors.ErrRepositoryUnavailable, err)
	}
	r.userSeq = seq
	r.log.Debug("User stored", "user_id", user.ID.String(), "seq", seq)
	return user, nil
}

func (r *BadgerRepository) PostMessage(sender domain.User, content string) (domain.Message, error) {
	message := domain.Message{
		ID:        uuid.New(),
		SenderID:  sender.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.messageSeq + 1
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(sender.ID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrInvalidSender
			}
			return err
		}
		return txn.Set(sequenceKey(messagePrefix, seq), encodeMessage(message))
	})
	if errors.Is(err, errors.ErrInvalidSender) {
		return domain.Message{}, err
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("post message: %w: %w", errors.ErrRepositoryUnavailable, err)
	}
	r.messageSeq = seq
	return message, nil
}

func (r *BadgerRepository) Snapshot() ([]domain.HistoryEntry, error) {
	entries := make([]domain.HistoryEntry, 0)
	names := make(map[uuid.UUID]string)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			message, err := decodeMessage(value)
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			name, ok := names[message.SenderID]
			if !ok {
				sender, err := getUser(txn, message.SenderID)
				if err != nil {
					return err
				}
				name = sender.Name
				names[message.SenderID] = name
			}
			entries = append(entries, domain.HistoryEntry{SenderName: name, Content: message.Content})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w: %w", errors.ErrRepositoryUnavailable, err)
	}
	return entries, nil
}

func (r *BadgerRepository) Users() ([]domain.User, error) {
	users := make([]domain.User, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(directoryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			id, err := uuid.FromBytes(raw)
			if err != nil {
				return err
			}
			user, err := getUser(txn, id)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w: %w", errors.ErrRepositoryUnavailable, err)
	}
	return users, nil
}

func (r *BadgerRepository) Counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.userSeq), int(r.messageSeq)
}

func getUser(txn *badger.Txn, id uuid.UUID) (domain.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	var user domain.User
	err = item.Value(func(val []byte) error {
		var decodeErr error
		user, decodeErr = decodeUser(val)
		return decodeErr
	})
	return user, err
}

func userKey(id uuid.UUID) []byte {
	return []byte(userPrefix + id.String())
}

func sequenceKey(prefix string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%019d", prefix, seq))
}
