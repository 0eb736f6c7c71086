package main

import (
	"log"

	"github.com/mahaj/chatcore/pkg/config"
	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/identity"
	"github.com/mahaj/chatcore/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := db.EnsureKeyspace(cfg.ScyllaHostList(), cfg.ScyllaKeyspace); err != nil {
		log.Fatalf("Failed to create keyspace: %v", err)
	}

	session, err := db.NewSession(cfg.ScyllaHostList(), cfg.ScyllaKeyspace)
	if err != nil {
		log.Fatalf("Failed to connect to ScyllaDB: %v", err)
	}
	defer session.Close()

	if err := store.EnsureMessagesTable(session); err != nil {
		log.Fatalf("Failed to create messages table: %v", err)
	}
	if err := identity.EnsureUsersTable(session); err != nil {
		log.Fatalf("Failed to create users table: %v", err)
	}

	log.Println("Schema created successfully")
}
