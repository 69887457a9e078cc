//go:generate go run go.uber.org/mock/mockgen -source=relay.go -destination=../mocks/mock_relay_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
)

// IRelayRepository is the shared store every session reads and mutates.
// Implementations must be safe for unbounded concurrent use and must list
// messages in the order their PostMessage calls completed.
type IRelayRepository interface {
	// RegisterUser appends a new user. Identity tokens are not deduplicated.
	RegisterUser(identity domain.Identity) (domain.User, error)
	// PostMessage appends a message. It fails with errors.ErrInvalidSender
	// when sender was not registered in this repository.
	PostMessage(sender domain.User, content string) (domain.Message, error)
	// Snapshot returns the message log as of the call, oldest first.
	Snapshot() ([]domain.HistoryEntry, error)
	// Users returns the user directory in registration order.
	Users() ([]domain.User, error)
	// Counts returns the directory and log sizes.
	Counts() (users int, messages int)
}
