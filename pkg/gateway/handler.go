package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Handler upgrades authenticated HTTP requests to live sessions and
// runs each session's read loop.
type Handler struct {
	hub         *Hub
	router      *Router
	coordinator *Coordinator
	auth        *auth.Manager
	log         *slog.Logger
}

func NewHandler(hub *Hub, router *Router, coordinator *Coordinator, authMgr *auth.Manager, log *slog.Logger) *Handler {
	return &Handler{
		hub:         hub,
		router:      router,
		coordinator: coordinator,
		auth:        authMgr,
		log:         log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.Validate(token)
	if err != nil {
		h.log.Warn("rejected websocket upgrade", "err", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "err", err)
		return
	}

	sess := newSession(conn)
	h.hub.Attach(sess)
	h.log.Debug("connection opened", "conn_id", sess.ID(), "authenticated_as", claims.Label)

	// All session work happens in the two pumps.
	go sess.writePump()
	go h.readPump(sess)
}

// readPump pumps inbound events from the connection into the router
// until the transport closes, then tears the session down exactly
// once.
func (h *Handler) readPump(sess *Session) {
	defer func() {
		h.router.CloseSession(context.Background(), sess)
		sess.conn.Close()
	}()

	sess.conn.SetReadLimit(maxMessageSize)
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("read error", "conn_id", sess.ID(), "err", err)
			}
			return
		}

		var in model.Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			h.hub.Send(sess, model.ErrorEvent("malformed event"))
			continue
		}

		if err := h.dispatch(context.Background(), sess, in); err != nil {
			h.log.Warn("event rejected", "conn_id", sess.ID(), "type", in.Type, "err", err)
			if errors.Is(err, ErrInvalidPayload) {
				h.hub.Send(sess, model.ErrorEvent(err.Error()))
			}
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, sess *Session, in model.Inbound) error {
	switch in.Type {
	case model.EventDeclare:
		return h.router.DeclareIdentity(ctx, sess, in.Label)
	case model.EventMessage:
		_, err := h.router.SendMessage(ctx, in.Sender, in.Receiver, in.Content)
		return err
	case model.EventMarkRead:
		return h.coordinator.MarkRead(ctx, in.ID)
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidPayload, in.Type)
	}
}
