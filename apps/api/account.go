package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/identity"
)

var validate = validator.New()

type CredentialsRequest struct {
	Label    string `json:"label" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// SignupHandler creates an identity record and returns a token for it.
func SignupHandler(ids identity.Store, mgr *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "label and password are required", http.StatusBadRequest)
			return
		}

		if _, err := ids.Create(r.Context(), req.Label, req.Password); err != nil {
			if errors.Is(err, identity.ErrExists) {
				http.Error(w, "label already taken", http.StatusConflict)
				return
			}
			http.Error(w, "Failed to create account", http.StatusInternalServerError)
			return
		}

		issueToken(w, mgr, req.Label)
	}
}

// LoginHandler verifies credentials and returns a token.
func LoginHandler(ids identity.Store, mgr *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "label and password are required", http.StatusBadRequest)
			return
		}

		if _, err := ids.Verify(r.Context(), req.Label, req.Password); err != nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		issueToken(w, mgr, req.Label)
	}
}

func issueToken(w http.ResponseWriter, mgr *auth.Manager, label string) {
	token, err := mgr.Generate(label)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{Token: token})
}
