package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxPromptLength = 400
	MinPromptLength        = 3

	MinDimension = 64
	MaxDimension = 2048
)

const (
	MsgPromptTooShort  = "Prompt is too short"
	MsgContentPolicy   = "Prompt may violate content policy"
	msgPromptTooLongFm = "Prompt exceeds %d characters"
)

// BannedTerms is the content policy list, matched case-insensitively as
// substrings of the prompt.
var BannedTerms = []string{"nsfw", "explicit", "gore", "violence", "nude", "sexual"}

// Style selects the modifier clause appended to prompts.
type Style string

const (
	StyleRealistic    Style = "realistic"
	StyleArtistic     Style = "artistic"
	StyleCartoon      Style = "cartoon"
	StyleDigitalArt   Style = "digital-art"
	StylePhotographic Style = "photographic"
)

// Size is a requested output resolution in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultSize is used when a request leaves the size empty.
var DefaultSize = Size{Width: 512, Height: 512}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Valid reports whether both dimensions are within the supported range.
func (s Size) Valid() bool {
	return s.Width >= MinDimension && s.Width <= MaxDimension &&
		s.Height >= MinDimension && s.Height <= MaxDimension
}

// ParseSize parses "WxH" tokens such as "512x768".
func ParseSize(raw string) (Size, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultSize, nil
	}
	w, h, ok := strings.Cut(raw, "x")
	if !ok {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	size := Size{Width: width, Height: height}
	if !size.Valid() {
		return Size{}, fmt.Errorf("%w: %q outside %d-%d", ErrInvalidSize, raw, MinDimension, MaxDimension)
	}
	return size, nil
}

// GenerationRequest is built fresh for every generation attempt.
type GenerationRequest struct {
	Prompt         string
	NegativePrompt string
	Size           Size
	Style          Style
}

// ValidatePrompt enforces the length window and the content policy on the
// trimmed prompt. maxLength <= 0 selects DefaultMaxPromptLength.
func ValidatePrompt(prompt string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxPromptLength
	}
	p := strings.TrimSpace(prompt)
	n := utf8.RuneCountInString(p)
	if n < MinPromptLength {
		return &ClassifiedError{Kind: KindInvalidPrompt, Message: MsgPromptTooShort, Err: ErrInvalidPrompt}
	}
	if n > maxLength {
		return &ClassifiedError{Kind: KindInvalidPrompt, Message: fmt.Sprintf(msgPromptTooLongFm, maxLength), Err: ErrInvalidPrompt}
	}
	lower := strings.ToLower(p)
	for _, term := range BannedTerms {
		if strings.Contains(lower, term) {
			return &ClassifiedError{Kind: KindContentPolicy, Message: MsgContentPolicy, Err: ErrInvalidPrompt}
		}
	}
	return nil
}
