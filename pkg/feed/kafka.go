// Package feed publishes persisted chat messages to Kafka for
// downstream consumers (the archiver tails it to maintain per-user
// conversation tables).
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/mahaj/chatcore/pkg/model"
)

// Publisher emits a message that has already been persisted. Feed
// publication is best-effort: the router logs failures and moves on.
type Publisher interface {
	Publish(ctx context.Context, msg model.Message) error
	Close() error
}

// Kafka publishes messages to a single topic.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Kafka) Publish(ctx context.Context, msg model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message %s: %w", msg.ID, err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: data,
		Time:  msg.Timestamp,
	})
}

func (p *Kafka) Close() error { return p.writer.Close() }
