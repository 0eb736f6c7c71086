package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mahaj/chatcore/pkg/identity"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/presence"
	"github.com/mahaj/chatcore/pkg/snowflake"
	"github.com/mahaj/chatcore/pkg/store"
)

type fixture struct {
	hub         *Hub
	registry    *presence.Registry
	store       *store.Memory
	identities  *identity.Memory
	router      *Router
	coordinator *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := presence.NewRegistry()
	hub := NewHub(registry, logger)
	st := store.NewMemory(node)
	ids := identity.NewMemory()

	return &fixture{
		hub:         hub,
		registry:    registry,
		store:       st,
		identities:  ids,
		router:      NewRouter(hub, registry, st, ids, nil, time.Second, logger),
		coordinator: NewCoordinator(hub, st, time.Second, logger),
	}
}

// connect attaches a fresh session and, when label is non-empty,
// declares an identity for it.
func (f *fixture) connect(t *testing.T, label string) *Session {
	t.Helper()

	s := newSession(nil)
	f.hub.Attach(s)
	if label != "" {
		require.NoError(t, f.router.DeclareIdentity(context.Background(), s, label))
	}
	return s
}

// drain decodes every event currently buffered for the session.
func drain(t *testing.T, s *Session) []model.Event {
	t.Helper()

	var out []model.Event
	for {
		select {
		case data := <-s.send:
			var ev model.Event
			require.NoError(t, json.Unmarshal(data, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestAddressedDeliveryReachesOnlyRecipient(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	carol := f.connect(t, "carol")
	drain(t, alice)
	drain(t, bob)
	drain(t, carol)

	msg, err := f.router.SendMessage(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)
	require.True(t, msg.Delivered)

	events := drain(t, bob)
	require.Len(t, events, 1)
	require.Equal(t, model.EventReceiveMessage, events[0].Type)
	require.Equal(t, "hi", events[0].Message.Content)
	require.Equal(t, "alice", events[0].Message.Sender)
	require.True(t, events[0].Message.Delivered)
	require.False(t, events[0].Message.Read)

	require.Empty(t, drain(t, alice))
	require.Empty(t, drain(t, carol))
}

func TestBroadcastReachesEveryoneIncludingSender(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	anon := f.connect(t, "") // unclaimed sessions still receive broadcasts
	drain(t, alice)
	drain(t, bob)
	drain(t, anon)

	msg, err := f.router.SendMessage(context.Background(), "alice", "", "hello all")
	require.NoError(t, err)
	require.True(t, msg.Delivered)

	for _, s := range []*Session{alice, bob, anon} {
		events := drain(t, s)
		require.Len(t, events, 1)
		require.Equal(t, "hello all", events[0].Message.Content)
	}
}

func TestAddressedSendWithNoLiveRecipient(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	drain(t, alice)

	msg, err := f.router.SendMessage(context.Background(), "alice", "ghost", "anyone there?")
	require.NoError(t, err)
	require.False(t, msg.Delivered)
	require.Empty(t, drain(t, alice))

	stored, err := f.store.List(context.Background(), store.Filter{Receiver: "ghost"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "anyone there?", stored[0].Content)
	require.False(t, stored[0].Delivered)
}

func TestSendMessageRejectsMissingFields(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	drain(t, alice)

	_, err := f.router.SendMessage(context.Background(), "", "bob", "hi")
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, err = f.router.SendMessage(context.Background(), "alice", "bob", "")
	require.ErrorIs(t, err, ErrInvalidPayload)

	stored, err := f.store.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Empty(t, stored)
	require.Empty(t, drain(t, alice))
}

func TestMarkReadIsIdempotentAndAlwaysBroadcasts(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	drain(t, alice)
	drain(t, bob)

	msg, err := f.router.SendMessage(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)
	drain(t, alice)
	drain(t, bob)

	for i := 0; i < 2; i++ {
		require.NoError(t, f.coordinator.MarkRead(context.Background(), msg.ID))

		for _, s := range []*Session{alice, bob} {
			events := drain(t, s)
			require.Len(t, events, 1)
			require.Equal(t, model.EventMessageStatus, events[0].Type)
			require.Equal(t, msg.ID, events[0].Status.ID)
			require.True(t, events[0].Status.Read)
		}
	}

	stored, err := f.store.List(context.Background(), store.Filter{Receiver: "bob"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.True(t, stored[0].Read)
	require.Equal(t, msg.Content, stored[0].Content)
	require.Equal(t, msg.Timestamp, stored[0].Timestamp)
}

func TestMarkReadUnknownIDIsSilent(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	drain(t, alice)

	require.NoError(t, f.coordinator.MarkRead(context.Background(), "0000000000000000042"))
	require.Empty(t, drain(t, alice))
}

func TestMarkReadEmptyIDRejected(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.coordinator.MarkRead(context.Background(), ""), ErrInvalidPayload)
}

func TestDuplicateLabelsStayInOnlineSet(t *testing.T) {
	f := newFixture(t)
	first := f.connect(t, "alice")
	drain(t, first)
	second := f.connect(t, "alice")

	events := drain(t, second)
	require.Len(t, events, 1)
	require.Equal(t, model.EventOnlineUsers, events[0].Type)
	require.Equal(t, []string{"alice", "alice"}, events[0].Users)
}

func TestDeclareEmptyLabelRejected(t *testing.T) {
	f := newFixture(t)
	s := f.connect(t, "")

	err := f.router.DeclareIdentity(context.Background(), s, "")
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.Zero(t, f.registry.Len())
}

func TestRedeclareReplacesLabel(t *testing.T) {
	f := newFixture(t)
	s := f.connect(t, "alice")
	drain(t, s)

	require.NoError(t, f.router.DeclareIdentity(context.Background(), s, "bob"))

	label, ok := f.registry.Label(s.ID())
	require.True(t, ok)
	require.Equal(t, "bob", label)

	events := drain(t, s)
	require.Len(t, events, 1)
	require.Equal(t, []string{"bob"}, events[0].Users)

	// alice had no other live session, so she went offline
	rec, err := f.identities.FindByLabel(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, identity.StatusOffline, rec.Status)
}

func TestRedeclareSameLabelStillRebroadcasts(t *testing.T) {
	f := newFixture(t)
	s := f.connect(t, "alice")
	drain(t, s)

	require.NoError(t, f.router.DeclareIdentity(context.Background(), s, "alice"))

	events := drain(t, s)
	require.Len(t, events, 1)
	require.Equal(t, model.EventOnlineUsers, events[0].Type)
	require.Equal(t, []string{"alice"}, events[0].Users)
}

func TestCloseUnclaimedSessionHasNoObservableEffect(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	anon := f.connect(t, "")
	drain(t, alice)

	f.router.CloseSession(context.Background(), anon)

	require.Empty(t, drain(t, alice))
	require.Equal(t, 1, f.registry.Len())
	require.Equal(t, 1, f.hub.Len())
}

func TestCloseLastSessionGoesOffline(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	drain(t, alice)
	drain(t, bob)

	f.router.CloseSession(context.Background(), alice)

	events := drain(t, bob)
	require.Len(t, events, 1)
	require.Equal(t, model.EventOnlineUsers, events[0].Type)
	require.Equal(t, []string{"bob"}, events[0].Users)

	rec, err := f.identities.FindByLabel(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, identity.StatusOffline, rec.Status)
}

func TestCloseOneOfTwoDevicesStaysOnline(t *testing.T) {
	f := newFixture(t)
	phone := f.connect(t, "alice")
	laptop := f.connect(t, "alice")
	drain(t, phone)
	drain(t, laptop)

	f.router.CloseSession(context.Background(), phone)

	events := drain(t, laptop)
	require.Len(t, events, 1)
	require.Equal(t, []string{"alice"}, events[0].Users)

	rec, err := f.identities.FindByLabel(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, identity.StatusOnline, rec.Status)
}

func TestDirectMessageScenario(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	drain(t, alice)
	drain(t, bob)

	sent, err := f.router.SendMessage(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)

	events := drain(t, bob)
	require.Len(t, events, 1)
	require.Equal(t, "hi", events[0].Message.Content)
	require.Empty(t, drain(t, alice))

	// A second message so the descending order is observable.
	_, err = f.router.SendMessage(context.Background(), "bob", "alice", "hey")
	require.NoError(t, err)

	stored, err := f.store.List(context.Background(), store.Filter{Receiver: "bob"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, sent.ID, stored[0].ID)
}

type failingStore struct {
	store.Store
}

func (failingStore) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	return model.Message{}, errors.New("store unreachable")
}

func TestPersistenceFailureStopsBroadcast(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	bob := f.connect(t, "bob")
	drain(t, alice)
	drain(t, bob)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broken := NewRouter(f.hub, f.registry, failingStore{f.store}, f.identities, nil, time.Second, logger)

	_, err := broken.SendMessage(context.Background(), "alice", "", "hello all")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidPayload)

	require.Empty(t, drain(t, alice))
	require.Empty(t, drain(t, bob))
}

type failingIdentity struct {
	identity.Store
}

func (failingIdentity) SetStatus(ctx context.Context, label, status string) error {
	return errors.New("identity store unreachable")
}

func TestDeclarePersistenceFailureStopsBroadcast(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "alice")
	drain(t, alice)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broken := NewRouter(f.hub, f.registry, f.store, failingIdentity{f.identities}, nil, time.Second, logger)

	s := newSession(nil)
	f.hub.Attach(s)
	err := broken.DeclareIdentity(context.Background(), s, "bob")
	require.Error(t, err)

	require.Empty(t, drain(t, alice))
}
