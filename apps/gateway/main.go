package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/config"
	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/feed"
	"github.com/mahaj/chatcore/pkg/gateway"
	"github.com/mahaj/chatcore/pkg/identity"
	"github.com/mahaj/chatcore/pkg/presence"
	"github.com/mahaj/chatcore/pkg/snowflake"
	"github.com/mahaj/chatcore/pkg/store"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		logger.Error("failed to initialize snowflake node", "err", err)
		os.Exit(1)
	}

	messages, err := store.Open(cfg, node, logger)
	if err != nil {
		logger.Error("failed to open message store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer messages.Close()

	var identities identity.Store
	if cfg.StoreBackend == "scylla" {
		session, err := db.NewSession(cfg.ScyllaHostList(), cfg.ScyllaKeyspace)
		if err != nil {
			logger.Error("failed to connect to scylla", "err", err)
			os.Exit(1)
		}
		defer session.Close()

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		identities = identity.NewScylla(session, rdb, logger)
	} else {
		// Badger/memory backends run self-contained; identities live
		// in process too.
		identities = identity.NewMemory()
	}

	publisher := feed.NewKafka(cfg.KafkaBrokerList(), cfg.KafkaTopic)
	defer publisher.Close()

	registry := presence.NewRegistry()
	hub := gateway.NewHub(registry, logger)
	router := gateway.NewRouter(hub, registry, messages, identities, publisher, cfg.PersistTimeout, logger)
	coordinator := gateway.NewCoordinator(hub, messages, cfg.PersistTimeout, logger)
	authMgr := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	http.Handle("/ws", gateway.NewHandler(hub, router, coordinator, authMgr, logger))

	logger.Info("gateway listening", "addr", cfg.GatewayAddr)
	if err := http.ListenAndServe(cfg.GatewayAddr, nil); err != nil {
		logger.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}
