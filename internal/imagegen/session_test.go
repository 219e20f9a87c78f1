package imagegen

import (
	"testing"

	"promptpix/internal/domain"
)

func TestSessionRememberAndImages(t *testing.T) {
	s := NewSession(0)
	for i := 0; i < 12; i++ {
		s.remember(string(rune('a' + i)))
	}
	h := s.History()
	if len(h) != defaultHistoryLimit {
		t.Fatalf("history length = %d, want %d", len(h), defaultHistoryLimit)
	}
	if h[0] != "l" || h[len(h)-1] != "c" {
		t.Fatalf("unexpected order: %v", h)
	}

	s.addImages([]domain.ImageRecord{{ID: 1}})
	s.addImages([]domain.ImageRecord{{ID: 2}, {ID: 3}})
	imgs := s.Images()
	if len(imgs) != 3 || imgs[0].ID != 2 || imgs[2].ID != 1 {
		t.Fatalf("unexpected images: %+v", imgs)
	}
	imgs[0].ID = 99
	if s.Images()[0].ID != 2 {
		t.Fatal("Images must return a copy")
	}
	if _, ok := s.Settings(); ok {
		t.Fatal("fresh session should have no settings")
	}
	if s.RetryCount() != 0 {
		t.Fatalf("fresh retry count = %d", s.RetryCount())
	}
	s.retryCount = 2
	if s.RetryCount() != 2 {
		t.Fatalf("retry count = %d, want 2", s.RetryCount())
	}
}
