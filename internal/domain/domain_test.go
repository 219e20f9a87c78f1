package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantMsg string
		kind    ErrorKind
	}{
		{name: "ok", prompt: "a cat on a sofa"},
		{name: "trimmed ok", prompt: "   cat   "},
		{name: "too short", prompt: "  ab  ", wantMsg: "Prompt is too short", kind: KindInvalidPrompt},
		{name: "empty", prompt: "", wantMsg: "Prompt is too short", kind: KindInvalidPrompt},
		{name: "too long", prompt: strings.Repeat("a", 401), wantMsg: "Prompt exceeds 400 characters", kind: KindInvalidPrompt},
		{name: "exactly max", prompt: strings.Repeat("a", 400)},
		{name: "banned", prompt: "some NSFW scene", wantMsg: "Prompt may violate content policy", kind: KindContentPolicy},
		{name: "banned substring", prompt: "nonviolence march", wantMsg: "Prompt may violate content policy", kind: KindContentPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.prompt, 0)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q", tt.wantMsg)
			}
			if !errors.Is(err, ErrInvalidPrompt) {
				t.Fatalf("error should wrap ErrInvalidPrompt: %v", err)
			}
			ce := AsClassified(err)
			if ce.Message != tt.wantMsg {
				t.Fatalf("message = %q, want %q", ce.Message, tt.wantMsg)
			}
			if ce.Kind != tt.kind {
				t.Fatalf("kind = %q, want %q", ce.Kind, tt.kind)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	size, err := ParseSize("768x512")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if size.Width != 768 || size.Height != 512 {
		t.Fatalf("size = %v", size)
	}
	if size, _ := ParseSize(""); size != DefaultSize {
		t.Fatalf("empty size = %v, want default", size)
	}
	for _, raw := range []string{"512", "ax512", "10x10", "4096x512"} {
		if _, err := ParseSize(raw); !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("ParseSize(%q) err = %v, want ErrInvalidSize", raw, err)
		}
	}
}

func TestNextRecordIDMonotonic(t *testing.T) {
	prev := NextRecordID()
	for i := 0; i < 1000; i++ {
		next := NextRecordID()
		if next <= prev {
			t.Fatalf("id %d not greater than %d", next, prev)
		}
		prev = next
	}
}

func TestUserMessage(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Classify(KindRateLimit, 429, "deepai", "quota", nil))
	if got := UserMessage(err, "en"); got != "Too many requests. Please wait before trying again." {
		t.Fatalf("en message = %q", got)
	}
	if got := UserMessage(err, "id"); !strings.HasPrefix(got, "Terlalu banyak") {
		t.Fatalf("id message = %q", got)
	}
	if got := UserMessage(errors.New("Generation failed"), "en"); got != "Generation failed" {
		t.Fatalf("plain message = %q", got)
	}
	if got := UserMessage(Classify(KindUnknown, 0, "", "", nil), "fr"); got != "Unexpected error. Please try again." {
		t.Fatalf("fallback message = %q", got)
	}
	if got := UserMessage(ErrRetryLimit, "en"); got != MsgRetryLimit {
		t.Fatalf("retry message = %q", got)
	}
}
