package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

func newMemory(t *testing.T) *Memory {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewMemory(node)
}

func TestMemoryAppendAssignsIDAndTimestamp(t *testing.T) {
	s := newMemory(t)

	msg, err := s.Append(context.Background(), model.Message{Sender: "alice", Content: "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.False(t, msg.Timestamp.IsZero())
	require.False(t, msg.Delivered)
	require.False(t, msg.Read)
}

func TestMemoryListFiltersAndSortsNewestFirst(t *testing.T) {
	s := newMemory(t)
	ctx := context.Background()

	first, err := s.Append(ctx, model.Message{Sender: "alice", Receiver: "bob", Content: "one"})
	require.NoError(t, err)
	second, err := s.Append(ctx, model.Message{Sender: "alice", Receiver: "bob", Content: "two"})
	require.NoError(t, err)
	_, err = s.Append(ctx, model.Message{Sender: "carol", Content: "broadcast"})
	require.NoError(t, err)

	msgs, err := s.List(ctx, Filter{Receiver: "bob"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, second.ID, msgs[0].ID)
	require.Equal(t, first.ID, msgs[1].ID)

	msgs, err = s.List(ctx, Filter{Sender: "alice", Receiver: "bob"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	msgs, err = s.List(ctx, Filter{Sender: "nobody"})
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestMemoryMarkRead(t *testing.T) {
	s := newMemory(t)
	ctx := context.Background()

	msg, err := s.Append(ctx, model.Message{Sender: "alice", Content: "hi"})
	require.NoError(t, err)

	read, err := s.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	// Idempotent: the second mark is a no-op write.
	again, err := s.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	require.True(t, again.Read)
	require.Equal(t, read.Content, again.Content)
	require.Equal(t, read.Timestamp, again.Timestamp)

	_, err = s.MarkRead(ctx, "0000000000000000042")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryMarkDelivered(t *testing.T) {
	s := newMemory(t)
	ctx := context.Background()

	msg, err := s.Append(ctx, model.Message{Sender: "alice", Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.MarkDelivered(ctx, msg.ID))
	require.ErrorIs(t, s.MarkDelivered(ctx, "0000000000000000042"), ErrNotFound)

	msgs, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.True(t, msgs[0].Delivered)
	require.False(t, msgs[0].Read)
}
