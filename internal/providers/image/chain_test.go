package image

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpix/internal/domain"
)

type stubAdapter struct {
	name  string
	err   error
	calls int
	empty bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Generate(_ context.Context, req Request) ([]domain.ImageRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.empty {
		return nil, nil
	}
	return single(req, "https://"+s.name+".example/img.png", s.name), nil
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	finished []Attempt
}

func (r *recordingObserver) AttemptStarted(_ int, provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, provider)
}

func (r *recordingObserver) AttemptFinished(a Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, a)
}

func failing(name string, kind domain.ErrorKind) *stubAdapter {
	return &stubAdapter{name: name, err: domain.Classify(kind, 500, name, name+" down", nil)}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := failing("one", domain.KindServerError)
	second := &stubAdapter{name: "two"}
	third := &stubAdapter{name: "three"}
	obs := &recordingObserver{}

	chain := NewChain(nil, obs, first, second, third)
	var indices []int
	out := chain.Run(context.Background(), testRequest("cat"), func(i int, _ string) { indices = append(indices, i) })

	require.NoError(t, out.Err)
	assert.Equal(t, "two", out.Provider)
	require.Len(t, out.Records, 1)
	assert.Equal(t, 0, third.calls)
	assert.Equal(t, []int{1, 2}, indices)
	assert.Equal(t, []string{"one", "two"}, obs.started)
	require.Len(t, obs.finished, 2)
	assert.True(t, obs.finished[0].Failed())
	assert.False(t, obs.finished[1].Failed())
}

func TestChainFallsThroughToLocal(t *testing.T) {
	adapters := []Adapter{
		failing("pollinations", domain.KindNetwork),
		failing("huggingface", domain.KindAuth),
		failing("deepai", domain.KindRateLimit),
		failing("replicate", domain.KindServerError),
		NewLocalAdapter(nil, nil),
	}
	chain := NewChain(nil, nil, adapters...)
	out := chain.Run(context.Background(), NewRequest(domain.GenerationRequest{
		Prompt: "A circle sun over mountains",
		Size:   domain.Size{Width: 256, Height: 256},
	}), nil)

	require.NoError(t, out.Err)
	assert.Equal(t, ProviderLocal, out.Provider)
	assert.Len(t, out.Failures(), 4)
	require.Len(t, out.Records, 1)
	assert.Equal(t, LocalLabel, out.Records[0].Source)
	assert.True(t, strings.HasPrefix(out.Records[0].URL, "data:image/png;base64,"))
}

func TestChainSkipsUnconfiguredAdapters(t *testing.T) {
	skipped := &stubAdapter{name: "hf", err: unconfigured("hf", "no token")}
	ok := &stubAdapter{name: "local"}
	out := NewChain(nil, nil, skipped, ok).Run(context.Background(), testRequest("cat"), nil)

	require.NoError(t, out.Err)
	require.Len(t, out.Attempts, 2)
	assert.True(t, out.Attempts[0].Skipped)
	assert.Empty(t, out.Failures())
}

func TestChainReportsLastFailure(t *testing.T) {
	out := NewChain(nil, nil,
		failing("a", domain.KindNetwork),
		&stubAdapter{name: "b", err: unconfigured("b", "no key")},
		failing("c", domain.KindRateLimit),
	).Run(context.Background(), testRequest("cat"), nil)

	require.Error(t, out.Err)
	assert.Empty(t, out.Records)
	var ce *domain.ClassifiedError
	require.True(t, errors.As(out.Err, &ce))
	assert.Equal(t, domain.KindRateLimit, ce.Kind)
	assert.Equal(t, "c", ce.Provider)
}

func TestChainTreatsEmptyResultAsFailure(t *testing.T) {
	empty := &stubAdapter{name: "empty", empty: true}
	next := &stubAdapter{name: "next"}
	out := NewChain(nil, nil, empty, next).Run(context.Background(), testRequest("cat"), nil)

	require.NoError(t, out.Err)
	assert.Equal(t, "next", out.Provider)
	require.Len(t, out.Failures(), 1)
	assert.Equal(t, "empty", out.Failures()[0].Provider)
}

func TestChainHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &stubAdapter{name: "a"}
	out := NewChain(nil, nil, a).Run(ctx, testRequest("cat"), nil)
	require.Error(t, out.Err)
	assert.Equal(t, 0, a.calls)
}

func TestChainProviders(t *testing.T) {
	chain := NewChain(nil, nil, &stubAdapter{name: "x"}, nil, &stubAdapter{name: "y"})
	assert.Equal(t, []string{"x", "y"}, chain.Providers())
	assert.Equal(t, 2, chain.Len())
}
