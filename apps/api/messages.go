package main

import (
	"encoding/json"
	"net/http"

	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/store"
)

type CreateMessageRequest struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver"`
	Content  string `json:"content" validate:"required"`
}

// MessagesHandler serves the query interface over the message log.
// GET lists messages filtered by optional sender/receiver, newest
// first. POST composes a message directly into the log without any
// real-time delivery (the offline path), so it stays Delivered=false.
func MessagesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listMessages(st, w, r)
		case http.MethodPost:
			createMessage(st, w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func listMessages(st store.Store, w http.ResponseWriter, r *http.Request) {
	f := store.Filter{
		Sender:   r.URL.Query().Get("sender"),
		Receiver: r.URL.Query().Get("receiver"),
	}

	messages, err := st.List(r.Context(), f)
	if err != nil {
		http.Error(w, "Failed to retrieve messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

func createMessage(st store.Store, w http.ResponseWriter, r *http.Request) {
	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "sender and content are required", http.StatusBadRequest)
		return
	}

	msg, err := st.Append(r.Context(), model.Message{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Content:  req.Content,
	})
	if err != nil {
		http.Error(w, "Failed to store message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}
