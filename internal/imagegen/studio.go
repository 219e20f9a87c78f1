// Package imagegen owns the generation session and drives the provider
// fallback chain one request at a time.
package imagegen

import (
	"context"
	"strings"
	"sync"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
	providerimage "promptpix/internal/providers/image"
)

const defaultMaxRetries = 3

// Phase is the orchestrator state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAttempting Phase = "attempting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Phase      Phase      `json:"phase"`
	Attempt    int        `json:"attempt,omitempty"`
	Provider   string     `json:"provider,omitempty"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
	LastPrompt string     `json:"last_prompt,omitempty"`
	LastError  *ErrorView `json:"last_error,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ErrorView is the serialisable form of a classified error.
type ErrorView struct {
	Kind     string `json:"kind"`
	Status   int    `json:"status,omitempty"`
	Provider string `json:"provider,omitempty"`
	Message  string `json:"message"`
}

func NewErrorView(err error) *ErrorView {
	if err == nil {
		return nil
	}
	ce := domain.AsClassified(err)
	return &ErrorView{Kind: string(ce.Kind), Status: ce.Status, Provider: ce.Provider, Message: ce.Message}
}

// Stats aggregates outcomes over the session lifetime.
type Stats struct {
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Retries    int            `json:"retries"`
	ByProvider map[string]int `json:"by_provider"`
	Failures   map[string]int `json:"failures_by_provider"`
	Images     int            `json:"images"`
	History    int            `json:"history"`
}

type Options struct {
	MaxPromptLength int
	MaxRetries      int
	HistoryLimit    int
	Observer        GenerationObserver
	Logger          *infra.Logger
}

// Studio validates requests, enforces the single in-flight generation and
// retry cap, and records successful results in the session.
type Studio struct {
	runner     Runner
	observer   GenerationObserver
	logger     *infra.Logger
	maxPrompt  int
	maxRetries int

	mu        sync.Mutex
	session   *Session
	inFlight  bool
	status    Status
	succeeded int
	failed    int
	retries   int
	winners   map[string]int
	failures  map[string]int
}

func NewStudio(runner Runner, opts Options) *Studio {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Studio{
		runner:     runner,
		observer:   opts.Observer,
		logger:     logger,
		maxPrompt:  opts.MaxPromptLength,
		maxRetries: maxRetries,
		session:    NewSession(opts.HistoryLimit),
		status:     Status{Phase: PhaseIdle, MaxRetries: maxRetries, UpdatedAt: time.Now()},
		winners:    map[string]int{},
		failures:   map[string]int{},
	}
}

// Generate validates req and runs the chain. A new generation resets the
// retry counter. The prompt is kept as typed; only validation trims it, so
// the placeholder hash sees the raw text.
func (s *Studio) Generate(ctx context.Context, req domain.GenerationRequest) (*GenerateResponse, error) {
	req.NegativePrompt = strings.TrimSpace(req.NegativePrompt)
	if req.Size == (domain.Size{}) {
		req.Size = domain.DefaultSize
	}
	if err := domain.ValidatePrompt(req.Prompt, s.maxPrompt); err != nil {
		return nil, err
	}
	if !req.Size.Valid() {
		return nil, domain.Classify(domain.KindInvalidPrompt, 0, "", "unsupported size "+req.Size.String(), domain.ErrInvalidSize)
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, domain.ErrGenerationInProgress
	}
	s.session.retryCount = 0
	s.session.settings = &req
	s.begin(req)
	s.mu.Unlock()

	return s.run(ctx, req)
}

// Retry re-runs the last accepted request from the first provider. Once the
// counter reaches the cap further retries are refused without running.
func (s *Studio) Retry(ctx context.Context) (*GenerateResponse, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, domain.ErrGenerationInProgress
	}
	settings, ok := s.session.Settings()
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrNoSettings
	}
	if s.session.RetryCount() >= s.maxRetries {
		s.mu.Unlock()
		s.logger.Info().Int("retry_count", s.maxRetries).Msg("retry refused: limit reached")
		return nil, domain.Classify(domain.KindUnknown, 0, "", domain.MsgRetryLimit, domain.ErrRetryLimit)
	}
	s.session.retryCount++
	s.retries++
	s.begin(settings)
	s.mu.Unlock()

	return s.run(ctx, settings)
}

// begin must be called with mu held.
func (s *Studio) begin(req domain.GenerationRequest) {
	s.inFlight = true
	s.status = Status{
		Phase:      PhaseAttempting,
		RetryCount: s.session.RetryCount(),
		MaxRetries: s.maxRetries,
		LastPrompt: req.Prompt,
		UpdatedAt:  time.Now(),
	}
}

func (s *Studio) run(ctx context.Context, req domain.GenerationRequest) (*GenerateResponse, error) {
	if s.observer != nil {
		s.observer.GenerationStarted()
	}
	log := s.logger.With().Str("prompt", req.Prompt).Str("size", req.Size.String()).Str("style", string(req.Style)).Logger()
	log.Info().Msg("generation started")

	out := s.runner.Run(ctx, providerimage.NewRequest(req), func(index int, provider string) {
		s.mu.Lock()
		s.status.Attempt = index
		s.status.Provider = provider
		s.status.UpdatedAt = time.Now()
		s.mu.Unlock()
	})

	if s.observer != nil {
		s.observer.GenerationFinished(out.Provider, out.Err)
	}

	attempts := make([]AttemptView, 0, len(out.Attempts))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.status.UpdatedAt = time.Now()
	for _, a := range out.Attempts {
		attempts = append(attempts, newAttemptView(a))
		if a.Failed() {
			s.failures[a.Provider]++
		}
	}

	if out.Err != nil {
		s.failed++
		s.status.Phase = PhaseFailed
		s.status.LastError = NewErrorView(out.Err)
		log.Error().Err(out.Err).Int("attempts", len(out.Attempts)).Msg("generation failed")
		return nil, out.Err
	}

	s.succeeded++
	s.winners[out.Provider]++
	s.status.Phase = PhaseSucceeded
	s.status.Provider = out.Provider
	s.session.addImages(out.Records)
	s.session.remember(req.Prompt)
	log.Info().Str("provider", out.Provider).Int("attempts", len(out.Attempts)).Msg("generation succeeded")

	return &GenerateResponse{
		Images:     append([]domain.ImageRecord(nil), out.Records...),
		Provider:   out.Provider,
		Attempts:   attempts,
		RetryCount: s.session.RetryCount(),
	}, nil
}

func (s *Studio) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.RetryCount = s.session.RetryCount()
	return st
}

func (s *Studio) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Succeeded:  s.succeeded,
		Failed:     s.failed,
		Retries:    s.retries,
		ByProvider: cloneCounts(s.winners),
		Failures:   cloneCounts(s.failures),
		Images:     len(s.session.images),
		History:    len(s.session.history),
	}
}

// Images returns the generated images, newest first.
func (s *Studio) Images() []domain.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Images()
}

// History returns distinct prompts, newest first.
func (s *Studio) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.History()
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
