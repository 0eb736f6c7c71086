// Package blob is the narrow contract through which uploads reach
// file storage: hand over bytes, get back a retrievable URL.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store accepts an uploaded file and returns a URL it can be fetched
// from later.
type Store interface {
	Store(ctx context.Context, data []byte) (string, error)
}

// Disk writes blobs under a local directory served by the api binary.
// The object name is a fresh UUID with an extension sniffed from the
// content.
type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &Disk{dir: dir, baseURL: baseURL}, nil
}

func (s *Disk) Store(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.New().String() + mimetype.Detect(data).Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}

// Dir exposes the storage directory so the api can mount a file
// server on it.
func (s *Disk) Dir() string { return s.dir }
