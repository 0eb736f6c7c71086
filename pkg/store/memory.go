package store

import (
	"context"
	"sync"
	"time"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

// Memory is a mutex-guarded in-memory message log.
type Memory struct {
	mu       sync.RWMutex
	messages map[string]model.Message
	node     *snowflake.Node
}

func NewMemory(node *snowflake.Node) *Memory {
	return &Memory{messages: make(map[string]model.Message), node: node}
}

func (s *Memory) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}

	msg.ID = s.node.GenerateString()
	msg.Timestamp = time.Now().UTC()

	s.mu.Lock()
	s.messages[msg.ID] = msg
	s.mu.Unlock()
	return msg, nil
}

func (s *Memory) MarkRead(ctx context.Context, id string) (model.Message, error) {
	if err := ctx.Err(); err != nil {
		return model.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return model.Message{}, ErrNotFound
	}
	msg.Read = true
	s.messages[id] = msg
	return msg, nil
}

func (s *Memory) MarkDelivered(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.Delivered = true
	s.messages[id] = msg
	return nil
}

func (s *Memory) List(ctx context.Context, f Filter) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []model.Message
	for _, msg := range s.messages {
		if f.matches(msg) {
			out = append(out, msg)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (s *Memory) Close() error { return nil }
