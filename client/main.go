package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mahaj/chatcore/pkg/model"
)

type TokenResponse struct {
	Token string `json:"token"`
}

func login(apiAddr, label, password string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"label": label, "password": password})
	resp, err := http.Post(apiAddr+"/login", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// First run: the account may not exist yet.
	if resp.StatusCode == http.StatusUnauthorized {
		return signup(apiAddr, label, password)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.Token, nil
}

func signup(apiAddr, label, password string) (string, error) {
	reqBody, _ := json.Marshal(map[string]string{"label": label, "password": password})
	resp, err := http.Post(apiAddr+"/signup", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("signup failed: %s", string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.Token, nil
}

func main() {
	serverAddr := flag.String("addr", "localhost:8080", "gateway service address")
	apiAddr := flag.String("api", "http://localhost:8081", "api service address")
	label := flag.String("user", "user1", "identity label")
	password := flag.String("pass", "password1", "password")
	to := flag.String("to", "", "default recipient (empty = broadcast)")
	flag.Parse()

	// 1. Login (or sign up) to get a token
	log.Printf("Logging in as %s...", *label)
	token, err := login(*apiAddr, *label, *password)
	if err != nil {
		log.Fatal("Login failed:", err)
	}
	log.Printf("Login successful. Token: %s...", token[:10])

	// 2. Connect to the gateway with the token
	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	// 3. Declare our identity so presence sees us
	declare, _ := json.Marshal(model.Inbound{Type: model.EventDeclare, Label: *label})
	if err := c.WriteMessage(websocket.TextMessage, declare); err != nil {
		log.Fatal("declare:", err)
	}

	done := make(chan struct{})

	// 4. Print incoming events
	go func() {
		defer close(done)
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}

			var ev model.Event
			if err := json.Unmarshal(raw, &ev); err != nil {
				log.Printf("Received raw: %s", raw)
				continue
			}

			switch ev.Type {
			case model.EventOnlineUsers:
				fmt.Printf("\r* online: %s\n> ", strings.Join(ev.Users, ", "))
			case model.EventReceiveMessage:
				m := ev.Message
				fmt.Printf("\r[%s] %s: %s\n> ", m.ID, m.Sender, m.Content)
			case model.EventMessageStatus:
				fmt.Printf("\r* message %s read=%v\n> ", ev.Status.ID, ev.Status.Read)
			case model.EventError:
				fmt.Printf("\r! %s\n> ", ev.Error)
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// 5. Read from stdin and send events
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			text := scanner.Text()
			if text == "" {
				fmt.Print("> ")
				continue
			}

			if text == "/quit" {
				close(interrupt)
				break
			}

			var out model.Inbound
			switch {
			case strings.HasPrefix(text, "/read "):
				out = model.Inbound{Type: model.EventMarkRead, ID: strings.TrimSpace(strings.TrimPrefix(text, "/read "))}
			case strings.HasPrefix(text, "/dm "):
				// /dm <label> <content>
				parts := strings.SplitN(strings.TrimPrefix(text, "/dm "), " ", 2)
				if len(parts) != 2 {
					fmt.Print("usage: /dm <label> <content>\n> ")
					continue
				}
				out = model.Inbound{Type: model.EventMessage, Sender: *label, Receiver: parts[0], Content: parts[1]}
			default:
				out = model.Inbound{Type: model.EventMessage, Sender: *label, Receiver: *to, Content: text}
			}

			raw, _ := json.Marshal(out)
			if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
				log.Println("write:", err)
				break
			}
			fmt.Print("> ")
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("interrupt")

			// Cleanly close the connection by sending a close message and then
			// waiting (with timeout) for the server to close the connection.
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("write close:", err)
				return
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}
