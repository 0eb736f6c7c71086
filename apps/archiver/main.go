package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mahaj/chatcore/pkg/config"
	"github.com/mahaj/chatcore/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Schema creation belongs to migration tooling in production; for
	// local runs the archiver bootstraps its own tables.
	if err := db.EnsureKeyspace(cfg.ScyllaHostList(), cfg.ScyllaKeyspace); err != nil {
		logger.Error("failed to ensure keyspace", "err", err)
		os.Exit(1)
	}

	session, err := db.NewSession(cfg.ScyllaHostList(), cfg.ScyllaKeyspace)
	if err != nil {
		logger.Error("failed to connect to scylla", "err", err)
		os.Exit(1)
	}
	defer session.Close()

	if err := EnsureConversationTables(session); err != nil {
		logger.Error("failed to create conversation tables", "err", err)
		os.Exit(1)
	}

	consumer := NewConsumer(cfg.KafkaBrokerList(), cfg.KafkaTopic, "archiver-group", session, logger)
	defer consumer.Close()

	logger.Info("archiver consuming", "topic", cfg.KafkaTopic)
	consumer.Consume(context.Background())
}
