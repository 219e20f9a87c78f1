package prompt

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
)

// ErrEmptyPrompt is returned when there is nothing to enhance.
var ErrEmptyPrompt = errors.New("Please enter a prompt first")

// qualityAdditions are the phrases the enhancer samples from.
var qualityAdditions = []string{
	"highly detailed",
	"cinematic lighting",
	"4K resolution",
	"trending on artstation",
	"sharp focus",
	"professional photography",
	"masterpiece",
	"award winning",
}

const additionsPerEnhance = 2

type EnhanceRequest struct {
	Prompt string `json:"prompt"`
}

type EnhanceResponse struct {
	Prompt    string   `json:"prompt"`
	Additions []string `json:"additions"`
}

type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error)
}

// StaticEnhancer appends a random pair of quality phrases to the prompt.
type StaticEnhancer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStaticEnhancer builds an enhancer. A nil rng selects a randomly seeded one.
func NewStaticEnhancer(rng *rand.Rand) *StaticEnhancer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &StaticEnhancer{rng: rng}
}

func (s *StaticEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	s.mu.Lock()
	idx := s.rng.Perm(len(qualityAdditions))[:additionsPerEnhance]
	s.mu.Unlock()

	picked := make([]string, 0, additionsPerEnhance)
	for _, i := range idx {
		picked = append(picked, qualityAdditions[i])
	}
	return &EnhanceResponse{
		Prompt:    req.Prompt + ", " + strings.Join(picked, ", "),
		Additions: picked,
	}, nil
}

var _ Enhancer = (*StaticEnhancer)(nil)
