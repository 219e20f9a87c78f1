package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned for unknown blob identifiers.
var ErrBlobNotFound = errors.New("storage: blob not found")

// Blob is a binary payload held for the lifetime of the process.
type Blob struct {
	ID        string
	MIME      string
	Data      []byte
	CreatedAt time.Time
}

// BlobStore keeps provider payloads in memory and hands out references that
// the HTTP layer can dereference. Nothing is written to disk.
type BlobStore struct {
	mu      sync.RWMutex
	baseURL string
	blobs   map[string]Blob
}

// NewBlobStore builds a store whose references are baseURL + "/" + id.
func NewBlobStore(baseURL string) *BlobStore {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "/v1/blobs"
	}
	return &BlobStore{baseURL: baseURL, blobs: make(map[string]Blob)}
}

// Put stores a copy of data and returns its reference URL. An empty mime is
// sniffed from the payload.
func (s *BlobStore) Put(ctx context.Context, data []byte, mime string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("storage: empty payload")
	}
	mime = strings.TrimSpace(mime)
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	blob := Blob{
		ID:        uuid.NewString(),
		MIME:      mime,
		Data:      append([]byte(nil), data...),
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.blobs[blob.ID] = blob
	s.mu.Unlock()
	return s.URL(blob.ID), nil
}

// Get returns the blob stored under id.
func (s *BlobStore) Get(ctx context.Context, id string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	s.mu.RLock()
	blob, ok := s.blobs[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok {
		return Blob{}, ErrBlobNotFound
	}
	return blob, nil
}

// Resolve maps a reference previously returned by Put back to its blob.
func (s *BlobStore) Resolve(ctx context.Context, ref string) (Blob, bool) {
	id, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok {
		return Blob{}, false
	}
	blob, err := s.Get(ctx, id)
	return blob, err == nil
}

// URL returns the reference for id.
func (s *BlobStore) URL(id string) string {
	return s.baseURL + "/" + id
}

// Len reports how many blobs are held.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
