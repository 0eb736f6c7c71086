package identity

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Memory is a mutex-guarded identity store for tests and single-node
// development runs.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	hashes  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]Record),
		hashes:  make(map[string][]byte),
	}
}

func (s *Memory) Create(ctx context.Context, label, password string) (Record, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[label]; ok {
		return Record{}, ErrExists
	}

	rec := Record{Label: label, Status: StatusOffline, CreatedAt: time.Now().UTC()}
	s.records[label] = rec
	s.hashes[label] = hash
	return rec, nil
}

func (s *Memory) Verify(ctx context.Context, label, password string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.records[label]
	hash := s.hashes[label]
	s.mu.RUnlock()

	if !ok {
		return Record{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return Record{}, ErrBadCredentials
	}
	return rec, nil
}

func (s *Memory) FindByLabel(ctx context.Context, label string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[label]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *Memory) SetStatus(ctx context.Context, label, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[label]
	if !ok {
		// Status updates may arrive for labels that never signed up
		// (the gateway does not require registration to declare an
		// identity); track them anyway.
		rec = Record{Label: label, CreatedAt: time.Now().UTC()}
	}
	rec.Status = status
	s.records[label] = rec
	return nil
}
