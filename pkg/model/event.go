package model

// EventType discriminates the JSON envelopes exchanged over a live
// connection.
type EventType string

// Inbound event types (client -> gateway).
const (
	EventDeclare  EventType = "declare"
	EventMessage  EventType = "message"
	EventMarkRead EventType = "mark_read"
)

// Outbound event types (gateway -> client).
const (
	EventOnlineUsers    EventType = "online-users"
	EventReceiveMessage EventType = "receive-message"
	EventMessageStatus  EventType = "update-message-status"
	EventError          EventType = "error"
)

// Inbound is the envelope a client sends over the live channel. Which
// fields are meaningful depends on Type: declare uses Label, message
// uses Sender/Receiver/Content, mark_read uses ID.
type Inbound struct {
	Type     EventType `json:"type"`
	Label    string    `json:"label,omitempty"`
	Sender   string    `json:"sender,omitempty"`
	Receiver string    `json:"receiver,omitempty"`
	Content  string    `json:"content,omitempty"`
	ID       string    `json:"id,omitempty"`
}

// MessageStatus carries a read-state transition for one message.
type MessageStatus struct {
	ID   string `json:"id"`
	Read bool   `json:"read"`
}

// Event is the envelope the gateway sends to clients.
type Event struct {
	Type    EventType      `json:"type"`
	Users   []string       `json:"users,omitempty"`
	Message *Message       `json:"message,omitempty"`
	Status  *MessageStatus `json:"status,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OnlineUsers builds the presence fan-out event. The label sequence
// may contain duplicates when one identity is claimed by several
// connections.
func OnlineUsers(labels []string) Event {
	return Event{Type: EventOnlineUsers, Users: labels}
}

// ReceiveMessage builds the chat delivery event.
func ReceiveMessage(m Message) Event {
	return Event{Type: EventReceiveMessage, Message: &m}
}

// StatusUpdate builds the read-state fan-out event.
func StatusUpdate(id string, read bool) Event {
	return Event{Type: EventMessageStatus, Status: &MessageStatus{ID: id, Read: read}}
}

// ErrorEvent surfaces a rejected inbound event to its originator.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Error: msg}
}
