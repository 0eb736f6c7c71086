package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

const msgPrefix = "msg:"

// Badger is a message log backed by an embedded BadgerDB. Keys are
// msg:<snowflake>, so key order matches creation order.
type Badger struct {
	db   *badger.DB
	node *snowflake.Node
	log  *slog.Logger
}

func OpenBadger(path string, node *snowflake.Node, log *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &Badger{db: db, node: node, log: log}, nil
}

func msgKey(id string) []byte { return []byte(msgPrefix + id) }

func (s *Badger) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}

	msg.ID = s.node.GenerateString()
	msg.Timestamp = time.Now().UTC()

	data, err := json.Marshal(msg)
	if err != nil {
		return model.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(msgKey(msg.ID), data)
	})
	if err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// mutate loads a message, applies fn, and writes it back in one
// transaction.
func (s *Badger) mutate(id string, fn func(*model.Message)) (model.Message, error) {
	var msg model.Message

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(msgKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		}); err != nil {
			return err
		}

		fn(&msg)

		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return txn.Set(msgKey(id), data)
	})
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func (s *Badger) MarkRead(ctx context.Context, id string) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}
	msg, err := s.mutate(id, func(m *model.Message) { m.Read = true })
	if errors.Is(err, ErrNotFound) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("mark message %s read: %w", id, err)
	}
	return msg, nil
}

func (s *Badger) MarkDelivered(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.mutate(id, func(m *model.Message) { m.Delivered = true })
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mark message %s delivered: %w", id, err)
	}
	return nil
}

func (s *Badger) List(ctx context.Context, f Filter) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []model.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(msgPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var msg model.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			if f.matches(msg) {
				out = append(out, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	sortNewestFirst(out)
	return out, nil
}

func (s *Badger) Close() error { return s.db.Close() }
