// Package domain contains core concepts of the relay.
// This file defines User entities and the identity they are registered with.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the logical content of a REGISTER frame once split.
type Identity struct {
	Identity string
	Name     string
}

// User is created once at registration and never mutated.
// Identity tokens are not unique: registering the same token twice
// yields two distinct users.
type User struct {
	ID        uuid.UUID
	Identity  string
	Name      string
	CreatedAt time.Time
}

// IsZero reports whether u is the zero User, i.e. no user is bound.
func (u User) IsZero() bool {
	return u.ID == uuid.Nil
}
