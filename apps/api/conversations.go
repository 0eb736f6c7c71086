package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/db"
)

type Conversation struct {
	Label       string    `json:"label"`
	OtherLabel  string    `json:"other_label"`
	LastUpdated time.Time `json:"last_updated"`
	UnreadCount int64     `json:"unread_count"`
}

// ConversationsHandler lists the caller's direct-message conversations
// with unread counts, both maintained by the archiver from the message
// feed.
func ConversationsHandler(session *db.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(auth.UserKey).(*auth.Claims)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		query := `SELECT label, other_label, last_updated FROM user_conversations WHERE label = ?`
		iter := session.Query(query, claims.Label).WithContext(r.Context()).Iter()

		var conversations []Conversation
		var c Conversation
		for iter.Scan(&c.Label, &c.OtherLabel, &c.LastUpdated) {
			var count int64
			if err := session.Query(`SELECT unread_count FROM conversation_counters WHERE label = ? AND other_label = ?`, c.Label, c.OtherLabel).WithContext(r.Context()).Scan(&count); err == nil {
				c.UnreadCount = count
			}
			conversations = append(conversations, c)
		}

		if err := iter.Close(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if conversations == nil {
			conversations = []Conversation{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conversations)
	}
}
