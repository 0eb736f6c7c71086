package model

import "time"

// Message is a single chat message in the durable log. An empty
// Receiver means the message was addressed to everyone (broadcast).
//
// Delivered means "handed to at least one live session in real time".
// Messages are stored with Delivered=false and flipped after a
// successful hand-off, so an addressed message whose recipient was
// offline stays Delivered=false in the log.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Delivered bool      `json:"delivered"`
	Read      bool      `json:"read"`
}

// Broadcast reports whether the message is addressed to all sessions.
func (m Message) Broadcast() bool { return m.Receiver == "" }
