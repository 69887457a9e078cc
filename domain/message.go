// Package domain contains core concepts of the relay.
// This file defines Message records and the history projection sent to clients.
// Messages are immutable once appended to the log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable relayed post.
// SenderID is a non-owning reference to a User held by the repository.
type Message struct {
	ID        uuid.UUID // unique identifier
	SenderID  uuid.UUID
	Content   string
	CreatedAt time.Time
}

// HistoryEntry is one line of a history snapshot, already resolved to the
// sender's display name.
type HistoryEntry struct {
	SenderName string
	Content    string
}
