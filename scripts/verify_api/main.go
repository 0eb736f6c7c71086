package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

type TokenResponse struct {
	Token string `json:"token"`
}

func main() {
	apiAddr := "http://localhost:8081"

	// 1. Sign up (idempotent enough for a smoke test: falls back to login)
	creds, _ := json.Marshal(map[string]string{"label": "test_user", "password": "test_pass"})
	resp, err := http.Post(apiAddr+"/signup", "application/json", bytes.NewBuffer(creds))
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode == http.StatusConflict {
		resp.Body.Close()
		resp, err = http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(creds))
		if err != nil {
			log.Fatal(err)
		}
	}
	defer resp.Body.Close()

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Token: %s...\n", tokenResp.Token[:10])

	// 2. Create a message through the offline-composition path
	msg, _ := json.Marshal(map[string]string{"sender": "test_user", "receiver": "other_user", "content": "smoke test"})
	req, _ := http.NewRequest("POST", apiAddr+"/messages", bytes.NewBuffer(msg))
	req.Header.Add("Authorization", "Bearer "+tokenResp.Token)
	req.Header.Add("Content-Type", "application/json")

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("Create message failed:", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	log.Printf("Created: %s", string(body))

	// 3. Query it back, newest first
	req, _ = http.NewRequest("GET", apiAddr+"/messages?receiver=other_user", nil)
	req.Header.Add("Authorization", "Bearer "+tokenResp.Token)

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("Query failed:", err)
	}
	defer resp.Body.Close()

	body, _ = io.ReadAll(resp.Body)
	log.Printf("Messages: %s", string(body))
}
