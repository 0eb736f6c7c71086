package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahaj/chatcore/pkg/db"
)

// onlineSetKey is the Redis set holding currently-online labels; the
// api serves it directly.
const onlineSetKey = "users:online"

// Scylla keeps identity records in ScyllaDB and mirrors live status in
// Redis so the api can answer "who is online" without touching the
// gateway.
type Scylla struct {
	session *db.Session
	redis   *redis.Client
	log     *slog.Logger
}

func NewScylla(session *db.Session, rdb *redis.Client, log *slog.Logger) *Scylla {
	return &Scylla{session: session, redis: rdb, log: log}
}

// EnsureUsersTable creates the users table if missing.
func EnsureUsersTable(session *db.Session) error {
	return session.Query(`CREATE TABLE IF NOT EXISTS users (
		label text,
		password_hash text,
		status text,
		created_at timestamp,
		PRIMARY KEY (label)
	)`).Exec()
}

func (s *Scylla) Create(ctx context.Context, label, password string) (Record, error) {
	if _, err := s.FindByLabel(ctx, label); err == nil {
		return Record{}, ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Record{}, fmt.Errorf("hash password: %w", err)
	}

	rec := Record{Label: label, Status: StatusOffline, CreatedAt: time.Now().UTC()}
	query := `INSERT INTO users (label, password_hash, status, created_at) VALUES (?, ?, ?, ?)`
	if err := s.session.Query(query, rec.Label, string(hash), rec.Status, rec.CreatedAt).WithContext(ctx).Exec(); err != nil {
		return Record{}, fmt.Errorf("create identity %q: %w", label, err)
	}
	return rec, nil
}

func (s *Scylla) Verify(ctx context.Context, label, password string) (Record, error) {
	var (
		rec  Record
		hash string
	)
	query := `SELECT label, password_hash, status, created_at FROM users WHERE label = ?`
	err := s.session.Query(query, label).WithContext(ctx).Scan(&rec.Label, &hash, &rec.Status, &rec.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return Record{}, ErrBadCredentials
	}
	if err != nil {
		return Record{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Record{}, ErrBadCredentials
	}
	return rec, nil
}

func (s *Scylla) FindByLabel(ctx context.Context, label string) (Record, error) {
	var rec Record
	query := `SELECT label, status, created_at FROM users WHERE label = ?`
	err := s.session.Query(query, label).WithContext(ctx).Scan(&rec.Label, &rec.Status, &rec.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Scylla) SetStatus(ctx context.Context, label, status string) error {
	if err := s.session.Query(`UPDATE users SET status = ? WHERE label = ?`, status, label).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("set status %q for %q: %w", status, label, err)
	}

	// The Redis mirror is advisory; a failed mirror update is logged
	// but does not fail the status transition.
	var err error
	if status == StatusOnline {
		err = s.redis.SAdd(ctx, onlineSetKey, label).Err()
	} else {
		err = s.redis.SRem(ctx, onlineSetKey, label).Err()
	}
	if err != nil {
		s.log.Warn("failed to mirror status in redis", "label", label, "status", status, "err", err)
	}
	return nil
}
