package imagegen

import (
	"slices"

	"promptpix/internal/domain"
)

const defaultHistoryLimit = 10

// Session holds the state of one user session. It is not safe for concurrent
// use; Studio serialises access.
type Session struct {
	images       []domain.ImageRecord
	history      []string
	historyLimit int
	retryCount   int
	settings     *domain.GenerationRequest
}

func NewSession(historyLimit int) *Session {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Session{historyLimit: historyLimit}
}

// addImages prepends records so the newest come first.
func (s *Session) addImages(records []domain.ImageRecord) {
	s.images = append(slices.Clone(records), s.images...)
}

// remember inserts prompt at the head of history unless it is already
// present, evicting the oldest entry past the limit.
func (s *Session) remember(prompt string) {
	if slices.Contains(s.history, prompt) {
		return
	}
	s.history = append([]string{prompt}, s.history...)
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
}

func (s *Session) Images() []domain.ImageRecord {
	return append([]domain.ImageRecord{}, s.images...)
}

func (s *Session) History() []string {
	return append([]string{}, s.history...)
}

func (s *Session) RetryCount() int { return s.retryCount }

// Settings returns the last accepted request, if any.
func (s *Session) Settings() (domain.GenerationRequest, bool) {
	if s.settings == nil {
		return domain.GenerationRequest{}, false
	}
	return *s.settings, true
}
