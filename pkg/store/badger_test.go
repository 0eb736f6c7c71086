package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

func newBadger(t *testing.T) *Badger {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s, err := OpenBadger(t.TempDir(), node, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerAppendAndList(t *testing.T) {
	s := newBadger(t)
	ctx := context.Background()

	first, err := s.Append(ctx, model.Message{Sender: "alice", Receiver: "bob", Content: "one"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := s.Append(ctx, model.Message{Sender: "alice", Receiver: "bob", Content: "two"})
	require.NoError(t, err)

	msgs, err := s.List(ctx, Filter{Receiver: "bob"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, second.ID, msgs[0].ID)
	require.Equal(t, first.ID, msgs[1].ID)

	msgs, err = s.List(ctx, Filter{Sender: "carol"})
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestBadgerReadAndDeliveredTransitions(t *testing.T) {
	s := newBadger(t)
	ctx := context.Background()

	msg, err := s.Append(ctx, model.Message{Sender: "alice", Content: "hi"})
	require.NoError(t, err)

	read, err := s.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	require.NoError(t, s.MarkDelivered(ctx, msg.ID))

	msgs, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].Read)
	require.True(t, msgs[0].Delivered)
	require.Equal(t, "hi", msgs[0].Content)
}

func TestBadgerUnknownID(t *testing.T) {
	s := newBadger(t)
	ctx := context.Background()

	_, err := s.MarkRead(ctx, "0000000000000000042")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.MarkDelivered(ctx, "0000000000000000042"), ErrNotFound)
}
