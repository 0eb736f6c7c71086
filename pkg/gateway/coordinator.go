package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/store"
)

// Coordinator applies read-state transitions to stored messages and
// fans the new state out to every live session. The fan-out is global:
// read receipts are not scoped to the message's participants.
type Coordinator struct {
	hub     *Hub
	store   store.Store
	timeout time.Duration
	log     *slog.Logger
}

func NewCoordinator(hub *Hub, st store.Store, timeout time.Duration, log *slog.Logger) *Coordinator {
	return &Coordinator{hub: hub, store: st, timeout: timeout, log: log}
}

// MarkRead flips a message's read flag and broadcasts the transition.
// An unknown ID is a silent no-op. Re-marking an already-read message
// is an idempotent write that still broadcasts.
func (c *Coordinator) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty message id", ErrInvalidPayload)
	}

	pctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.store.MarkRead(pctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Debug("mark-read on unknown message", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark message %s read: %w", id, err)
	}

	c.hub.Broadcast(model.StatusUpdate(msg.ID, msg.Read))
	return nil
}
