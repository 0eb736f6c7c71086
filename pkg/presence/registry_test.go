package presence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimAndRelease(t *testing.T) {
	r := NewRegistry()

	prev, replaced := r.Claim("conn-1", "alice")
	require.False(t, replaced)
	require.Empty(t, prev)

	label, ok := r.Label("conn-1")
	require.True(t, ok)
	require.Equal(t, "alice", label)

	label, ok = r.Release("conn-1")
	require.True(t, ok)
	require.Equal(t, "alice", label)
	require.Zero(t, r.Len())

	_, ok = r.Release("conn-1")
	require.False(t, ok)
}

func TestClaimReplacesPriorLabel(t *testing.T) {
	r := NewRegistry()

	r.Claim("conn-1", "alice")
	prev, replaced := r.Claim("conn-1", "bob")
	require.True(t, replaced)
	require.Equal(t, "alice", prev)

	require.Zero(t, r.LiveCount("alice"))
	require.Equal(t, 1, r.LiveCount("bob"))
	require.Equal(t, 1, r.Len())
}

func TestOnlineLabelsKeepsDuplicates(t *testing.T) {
	r := NewRegistry()

	r.Claim("conn-1", "alice")
	r.Claim("conn-2", "alice")
	r.Claim("conn-3", "bob")

	require.Equal(t, []string{"alice", "alice", "bob"}, r.OnlineLabels())
	require.Equal(t, 2, r.LiveCount("alice"))

	r.Release("conn-2")
	require.Equal(t, []string{"alice", "bob"}, r.OnlineLabels())
	require.Equal(t, 1, r.LiveCount("alice"))
}

func TestUnknownConnection(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Label("conn-404")
	require.False(t, ok)
	require.Empty(t, r.OnlineLabels())
}
