package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/mahaj/chatcore/pkg/auth"
	"github.com/mahaj/chatcore/pkg/blob"
	"github.com/mahaj/chatcore/pkg/config"
	"github.com/mahaj/chatcore/pkg/db"
	"github.com/mahaj/chatcore/pkg/identity"
	"github.com/mahaj/chatcore/pkg/snowflake"
	"github.com/mahaj/chatcore/pkg/store"
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

	blobs, err := blob.NewDisk(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		logger.Error("failed to initialize blob store", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	authMgr := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	var identities identity.Store
	var session *db.Session
	if cfg.StoreBackend == "scylla" {
		session, err = db.NewSession(cfg.ScyllaHostList(), cfg.ScyllaKeyspace)
		if err != nil {
			logger.Error("failed to connect to scylla", "err", err)
			os.Exit(1)
		}
		defer session.Close()
		identities = identity.NewScylla(session, rdb, logger)
	} else {
		identities = identity.NewMemory()
	}

	protect := func(h http.Handler) http.Handler {
		return CORSMiddleware(AuthMiddleware(authMgr, h))
	}

	// Public endpoints
	http.Handle("/signup", CORSMiddleware(SignupHandler(identities, authMgr)))
	http.Handle("/login", CORSMiddleware(LoginHandler(identities, authMgr)))

	// Protected endpoints
	http.Handle("/messages", protect(MessagesHandler(messages)))
	http.Handle("/upload", protect(UploadHandler(blobs)))
	http.Handle("/users/online", protect(OnlineUsersHandler(rdb, logger)))

	// Conversation summaries need the Scylla tables the archiver
	// maintains; skip the routes on self-contained backends.
	if session != nil {
		http.Handle("/conversations", protect(ConversationsHandler(session)))
		http.Handle("/conversations/read", protect(ConversationReadHandler(session)))
	}

	// Uploaded blobs are served straight from disk.
	http.Handle("/files/", http.StripPrefix("/files/", http.FileServer(http.Dir(blobs.Dir()))))

	logger.Info("api listening", "addr", cfg.APIAddr)
	if err := http.ListenAndServe(cfg.APIAddr, nil); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}
