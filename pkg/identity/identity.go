// Package identity is the narrow contract through which the messaging
// core reaches the user subsystem: credential checks, record lookup,
// and online/offline status updates. The core only invokes it and
// never owns its semantics.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("identity not found")
	ErrExists         = errors.New("identity already exists")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Presence status values.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Record is a stored identity.
type Record struct {
	Label     string    `json:"label"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the identity collaborator contract.
type Store interface {
	Create(ctx context.Context, label, password string) (Record, error)
	Verify(ctx context.Context, label, password string) (Record, error)
	FindByLabel(ctx context.Context, label string) (Record, error)
	SetStatus(ctx context.Context, label, status string) error
}
