package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mahaj/chatcore/pkg/feed"
	"github.com/mahaj/chatcore/pkg/identity"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/presence"
	"github.com/mahaj/chatcore/pkg/store"
)

// ErrInvalidPayload rejects an inbound event with a missing required
// field. Nothing is persisted and nothing is broadcast.
var ErrInvalidPayload = errors.New("invalid payload")

var validate = validator.New()

type sendPayload struct {
	Sender  string `validate:"required"`
	Content string `validate:"required"`
}

// Router accepts inbound events from live sessions, persists their
// effects, and fans deliveries out through the hub. Ordering rule:
// nothing is broadcast until the persistence call has succeeded.
type Router struct {
	hub      *Hub
	registry *presence.Registry
	store    store.Store
	identity identity.Store
	feed     feed.Publisher
	timeout  time.Duration
	log      *slog.Logger
}

func NewRouter(hub *Hub, registry *presence.Registry, st store.Store, ids identity.Store, pub feed.Publisher, timeout time.Duration, log *slog.Logger) *Router {
	return &Router{
		hub:      hub,
		registry: registry,
		store:    st,
		identity: ids,
		feed:     pub,
		timeout:  timeout,
		log:      log,
	}
}

// persistCtx bounds a persistence call; expiry counts as failure.
func (r *Router) persistCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// DeclareIdentity binds label to the session, marks the identity
// online, and broadcasts the refreshed online-label set. Re-declaring
// the same label is allowed and still re-broadcasts. A replaced label
// that no other session claims goes offline.
func (r *Router) DeclareIdentity(ctx context.Context, sess *Session, label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty identity label", ErrInvalidPayload)
	}

	prev, replaced := r.registry.Claim(sess.ID(), label)

	pctx, cancel := r.persistCtx(ctx)
	defer cancel()

	if replaced && prev != label && r.registry.LiveCount(prev) == 0 {
		if err := r.identity.SetStatus(pctx, prev, identity.StatusOffline); err != nil {
			r.log.Warn("failed to mark replaced identity offline", "label", prev, "err", err)
		}
	}

	if err := r.identity.SetStatus(pctx, label, identity.StatusOnline); err != nil {
		return fmt.Errorf("set status online for %q: %w", label, err)
	}

	r.broadcastOnline()
	r.log.Info("identity declared", "conn_id", sess.ID(), "label", label)
	return nil
}

// SendMessage validates, persists, publishes to the feed, and then
// delivers: to one matching live session when addressed, to every live
// session when not. A missed addressed delivery is not an error; the
// message simply stays in the log with Delivered=false.
func (r *Router) SendMessage(ctx context.Context, sender, receiver, content string) (model.Message, error) {
	if err := validate.Struct(sendPayload{Sender: sender, Content: content}); err != nil {
		return model.Message{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	pctx, cancel := r.persistCtx(ctx)
	defer cancel()

	msg, err := r.store.Append(pctx, model.Message{
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
	})
	if err != nil {
		return model.Message{}, fmt.Errorf("append message: %w", err)
	}

	if r.feed != nil {
		if err := r.feed.Publish(pctx, msg); err != nil {
			r.log.Warn("failed to publish message to feed", "id", msg.ID, "err", err)
		}
	}

	// A received copy is by definition delivered.
	out := msg
	out.Delivered = true

	var delivered bool
	if msg.Broadcast() {
		delivered = r.hub.Broadcast(model.ReceiveMessage(out)) > 0
	} else {
		delivered = r.hub.DeliverTo(msg.Receiver, model.ReceiveMessage(out))
	}

	if delivered {
		dctx, dcancel := r.persistCtx(ctx)
		defer dcancel()
		if err := r.store.MarkDelivered(dctx, msg.ID); err != nil {
			r.log.Warn("failed to record delivery", "id", msg.ID, "err", err)
		} else {
			msg.Delivered = true
		}
	}

	return msg, nil
}

// CloseSession tears a session down: detach from the hub, release the
// presence claim, mark the identity offline when its last connection
// is gone, and broadcast the shrunk online-label set. A session that
// never declared an identity leaves no trace.
func (r *Router) CloseSession(ctx context.Context, sess *Session) {
	r.hub.Detach(sess)

	label, claimed := r.registry.Release(sess.ID())
	if !claimed {
		return
	}

	if r.registry.LiveCount(label) == 0 {
		pctx, cancel := r.persistCtx(ctx)
		defer cancel()
		if err := r.identity.SetStatus(pctx, label, identity.StatusOffline); err != nil {
			// The registry already dropped the claim, so the presence
			// broadcast must still go out; liveness is owned by the
			// registry, not the identity store.
			r.log.Error("failed to mark identity offline", "label", label, "err", err)
		}
	}

	r.broadcastOnline()
	r.log.Info("session closed", "conn_id", sess.ID(), "label", label)
}

func (r *Router) broadcastOnline() {
	r.hub.Broadcast(model.OnlineUsers(r.registry.OnlineLabels()))
}
