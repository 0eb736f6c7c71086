package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateVerifyFind(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	rec, err := s.Create(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "alice", rec.Label)
	require.Equal(t, StatusOffline, rec.Status)

	_, err = s.Create(ctx, "alice", "other")
	require.ErrorIs(t, err, ErrExists)

	_, err = s.Verify(ctx, "alice", "s3cret")
	require.NoError(t, err)

	_, err = s.Verify(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = s.Verify(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = s.FindByLabel(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Create(ctx, "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, "alice", StatusOnline))
	rec, err := s.FindByLabel(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusOnline, rec.Status)

	// Unregistered labels may still declare identities; status is
	// tracked for them too.
	require.NoError(t, s.SetStatus(ctx, "ghost", StatusOnline))
	rec, err = s.FindByLabel(ctx, "ghost")
	require.NoError(t, err)
	require.Equal(t, StatusOnline, rec.Status)
}
