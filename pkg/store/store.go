// Package store is the durable log of chat messages. Three backends
// implement the same interface: ScyllaDB for clustered deployments,
// BadgerDB for single-process deployments, and an in-memory store for
// tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mahaj/chatcore/pkg/config"
	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

// ErrNotFound is returned when no message exists for a given ID.
var ErrNotFound = errors.New("message not found")

// Filter narrows a List query. Empty fields match everything.
type Filter struct {
	Sender   string
	Receiver string
}

func (f Filter) matches(m model.Message) bool {
	if f.Sender != "" && m.Sender != f.Sender {
		return false
	}
	if f.Receiver != "" && m.Receiver != f.Receiver {
		return false
	}
	return true
}

// Store is the message log. Append assigns the ID and timestamp.
// MarkRead is idempotent and returns the post-transition message.
type Store interface {
	Append(ctx context.Context, msg model.Message) (model.Message, error)
	MarkRead(ctx context.Context, id string) (model.Message, error)
	MarkDelivered(ctx context.Context, id string) error
	List(ctx context.Context, f Filter) ([]model.Message, error)
	Close() error
}

// Open builds the store selected by cfg.StoreBackend.
func Open(cfg config.Config, node *snowflake.Node, log *slog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case "scylla":
		session, err := db.NewSession(cfg.ScyllaHostList(), cfg.ScyllaKeyspace)
		if err != nil {
			return nil, fmt.Errorf("connect scylla: %w", err)
		}
		return NewScylla(session, node), nil
	case "badger":
		return OpenBadger(cfg.BadgerPath, node, log)
	case "memory":
		return NewMemory(node), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// sortNewestFirst orders messages by timestamp descending, breaking
// ties on ID so the order is stable.
func sortNewestFirst(msgs []model.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.After(msgs[j].Timestamp)
		}
		return msgs[i].ID > msgs[j].ID
	})
}
