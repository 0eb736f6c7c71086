package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/model"
)

// Consumer tails the message feed and maintains the per-user
// conversation summaries (last activity + unread counters) that the
// api serves. The gateway already persisted the message itself;
// everything here is derived state.
type Consumer struct {
	reader *kafka.Reader
	db     *db.Session
	log    *slog.Logger
}

func NewConsumer(brokers []string, topic string, groupID string, session *db.Session, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: r, db: session, log: log}
}

// EnsureConversationTables creates the derived-state tables if
// missing.
func EnsureConversationTables(session *db.Session) error {
	err := session.Query(`CREATE TABLE IF NOT EXISTS user_conversations (
		label text,
		other_label text,
		last_updated timestamp,
		PRIMARY KEY (label, other_label)
	)`).Exec()
	if err != nil {
		return err
	}

	return session.Query(`CREATE TABLE IF NOT EXISTS conversation_counters (
		label text,
		other_label text,
		unread_count counter,
		PRIMARY KEY (label, other_label)
	)`).Exec()
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("error reading from feed, retrying", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		var msg model.Message
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			c.log.Warn("failed to unmarshal feed message", "err", err)
			continue
		}

		// Broadcast messages carry no conversation pair.
		if msg.Broadcast() {
			continue
		}

		c.archive(ctx, msg)
	}
}

// archive updates both directions of the conversation and bumps the
// recipient's unread counter.
func (c *Consumer) archive(ctx context.Context, msg model.Message) {
	upsert := `INSERT INTO user_conversations (label, other_label, last_updated) VALUES (?, ?, ?)`

	if err := c.db.Query(upsert, msg.Sender, msg.Receiver, msg.Timestamp).WithContext(ctx).Exec(); err != nil {
		c.log.Warn("failed to update conversation", "label", msg.Sender, "err", err)
	}
	if err := c.db.Query(upsert, msg.Receiver, msg.Sender, msg.Timestamp).WithContext(ctx).Exec(); err != nil {
		c.log.Warn("failed to update conversation", "label", msg.Receiver, "err", err)
	}

	bump := `UPDATE conversation_counters SET unread_count = unread_count + 1 WHERE label = ? AND other_label = ?`
	if err := c.db.Query(bump, msg.Receiver, msg.Sender).WithContext(ctx).Exec(); err != nil {
		c.log.Warn("failed to increment unread count", "label", msg.Receiver, "err", err)
	}

	c.log.Debug("archived message", "id", msg.ID, "sender", msg.Sender, "receiver", msg.Receiver)
}

// Close releases the feed reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
