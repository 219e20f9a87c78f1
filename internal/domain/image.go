package domain

import (
	"sync"
	"time"
)

// ImageRecord is one generated image. Records are immutable once created.
type ImageRecord struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
	Size   Size   `json:"size"`
	Source string `json:"source"`
}

var (
	idMu   sync.Mutex
	lastID int64
)

// NextRecordID returns a millisecond timestamp that is strictly greater than
// any value it returned before.
func NextRecordID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

// NewImageRecord stamps a record for req with a fresh identifier.
func NewImageRecord(req GenerationRequest, url, source string) ImageRecord {
	return ImageRecord{
		ID:     NextRecordID(),
		URL:    url,
		Prompt: req.Prompt,
		Size:   req.Size,
		Source: source,
	}
}
