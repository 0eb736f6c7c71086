package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

// Scylla is a message log backed by a ScyllaDB cluster. Sort order is
// applied in memory after the fetch because the filter dimensions
// (sender, receiver) do not align with a single partition.
type Scylla struct {
	session *db.Session
	node    *snowflake.Node
}

func NewScylla(session *db.Session, node *snowflake.Node) *Scylla {
	return &Scylla{session: session, node: node}
}

// EnsureMessagesTable creates the messages table if missing.
func EnsureMessagesTable(session *db.Session) error {
	return session.Query(`CREATE TABLE IF NOT EXISTS messages (
		id bigint,
		sender text,
		receiver text,
		content text,
		timestamp timestamp,
		delivered boolean,
		read boolean,
		PRIMARY KEY (id)
	)`).Exec()
}

func (s *Scylla) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	id := s.node.Generate()
	msg.ID = snowflake.Format(id)
	msg.Timestamp = time.Now().UTC()

	query := `INSERT INTO messages (id, sender, receiver, content, timestamp, delivered, read) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if err := s.session.Query(query, id, msg.Sender, msg.Receiver, msg.Content, msg.Timestamp, msg.Delivered, msg.Read).WithContext(ctx).Exec(); err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

func (s *Scylla) get(ctx context.Context, numericID int64) (model.Message, error) {
	var (
		msg model.Message
		id  int64
	)
	query := `SELECT id, sender, receiver, content, timestamp, delivered, read FROM messages WHERE id = ?`
	err := s.session.Query(query, numericID).WithContext(ctx).
		Scan(&id, &msg.Sender, &msg.Receiver, &msg.Content, &msg.Timestamp, &msg.Delivered, &msg.Read)
	if errors.Is(err, gocql.ErrNotFound) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, err
	}
	msg.ID = snowflake.Format(id)
	return msg, nil
}

func (s *Scylla) MarkRead(ctx context.Context, id string) (model.Message, error) {
	numericID, err := snowflake.Parse(id)
	if err != nil {
		return model.Message{}, ErrNotFound
	}

	msg, err := s.get(ctx, numericID)
	if err != nil {
		return model.Message{}, err
	}

	if err := s.session.Query(`UPDATE messages SET read = true WHERE id = ?`, numericID).WithContext(ctx).Exec(); err != nil {
		return model.Message{}, fmt.Errorf("mark message %s read: %w", id, err)
	}
	msg.Read = true
	return msg, nil
}

func (s *Scylla) MarkDelivered(ctx context.Context, id string) error {
	numericID, err := snowflake.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	if _, err := s.get(ctx, numericID); err != nil {
		return err
	}

	if err := s.session.Query(`UPDATE messages SET delivered = true WHERE id = ?`, numericID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("mark message %s delivered: %w", id, err)
	}
	return nil
}

func (s *Scylla) List(ctx context.Context, f Filter) ([]model.Message, error) {
	query := `SELECT id, sender, receiver, content, timestamp, delivered, read FROM messages`
	args := []interface{}{}

	switch {
	case f.Sender != "" && f.Receiver != "":
		query += ` WHERE sender = ? AND receiver = ? ALLOW FILTERING`
		args = append(args, f.Sender, f.Receiver)
	case f.Sender != "":
		query += ` WHERE sender = ? ALLOW FILTERING`
		args = append(args, f.Sender)
	case f.Receiver != "":
		query += ` WHERE receiver = ? ALLOW FILTERING`
		args = append(args, f.Receiver)
	}

	iter := s.session.Query(query, args...).WithContext(ctx).Iter()

	var (
		out []model.Message
		msg model.Message
		id  int64
	)
	for iter.Scan(&id, &msg.Sender, &msg.Receiver, &msg.Content, &msg.Timestamp, &msg.Delivered, &msg.Read) {
		msg.ID = snowflake.Format(id)
		out = append(out, msg)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	sortNewestFirst(out)
	return out, nil
}

func (s *Scylla) Close() error {
	s.session.Close()
	return nil
}
