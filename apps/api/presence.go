package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// OnlineUsersHandler serves the set of currently-online labels from
// the Redis mirror maintained by the identity store. Unlike the live
// online-users event this set is deduplicated: Redis keeps one entry
// per label regardless of how many devices claim it.
func OnlineUsersHandler(rdb *redis.Client, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := rdb.SMembers(r.Context(), "users:online").Result()
		if err != nil {
			log.Error("failed to fetch online users", "err", err)
			http.Error(w, "Failed to fetch online users", http.StatusInternalServerError)
			return
		}
		if users == nil {
			users = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(users)
	}
}
