package main

import (
	"encoding/json"
	"net/http"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/db"
)

type ReadRequest struct {
	OtherLabel string `json:"other_label"`
}

// ConversationReadHandler resets the caller's unread counter for one
// conversation. In ScyllaDB counters, deletion is the way to reset.
func ConversationReadHandler(session *db.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		claims, ok := r.Context().Value(auth.UserKey).(*auth.Claims)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req ReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		query := `DELETE FROM conversation_counters WHERE label = ? AND other_label = ?`
		if err := session.Query(query, claims.Label, req.OtherLabel).WithContext(r.Context()).Exec(); err != nil {
			http.Error(w, "Failed to reset unread count", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
