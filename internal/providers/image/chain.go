package image

import (
	"context"
	"errors"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

// Observer receives attempt lifecycle events. Implementations must be safe for
// concurrent use.
type Observer interface {
	AttemptStarted(index int, provider string)
	AttemptFinished(attempt Attempt)
}

// Attempt records one adapter invocation inside a chain run.
type Attempt struct {
	Index    int           `json:"index"`
	Provider string        `json:"provider"`
	Err      error         `json:"-"`
	Skipped  bool          `json:"skipped"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Failed reports whether the attempt produced an error other than a skip.
func (a Attempt) Failed() bool { return a.Err != nil && !a.Skipped }

// Outcome is the result of a chain run. Exactly one of Records or Err is set.
type Outcome struct {
	Records  []domain.ImageRecord
	Provider string
	Attempts []Attempt
	Err      error
}

// Failures returns the attempts that failed, in order.
func (o Outcome) Failures() []Attempt {
	out := make([]Attempt, 0, len(o.Attempts))
	for _, a := range o.Attempts {
		if a.Failed() {
			out = append(out, a)
		}
	}
	return out
}

// Chain tries adapters in priority order and returns the first success.
type Chain struct {
	adapters []Adapter
	observer Observer
	logger   *infra.Logger
}

// NewChain wires adapters in the order they should be tried. The last adapter
// is expected to be the local renderer.
func NewChain(logger *infra.Logger, observer Observer, adapters ...Adapter) *Chain {
	filtered := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		if a != nil {
			filtered = append(filtered, a)
		}
	}
	return &Chain{adapters: filtered, observer: observer, logger: loggerOrDiscard(logger)}
}

// Providers lists adapter names in attempt order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.adapters))
	for i, a := range c.adapters {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of adapters.
func (c *Chain) Len() int { return len(c.adapters) }

// Run attempts each adapter once. onAttempt, when non-nil, is called with the
// 1-based index before each adapter runs.
func (c *Chain) Run(ctx context.Context, req Request, onAttempt func(index int, provider string)) Outcome {
	var (
		out     Outcome
		lastErr error
	)
	for i, adapter := range c.adapters {
		if err := ctx.Err(); err != nil {
			lastErr = transportError(adapter.Name(), err)
			break
		}
		index := i + 1
		name := adapter.Name()
		if onAttempt != nil {
			onAttempt(index, name)
		}
		if c.observer != nil {
			c.observer.AttemptStarted(index, name)
		}

		start := time.Now()
		records, err := adapter.Generate(ctx, req)
		if err == nil && len(records) == 0 {
			err = domain.Classify(domain.KindUnknown, 0, name, "No images generated", nil)
		}
		attempt := Attempt{Index: index, Provider: name, Err: err, Elapsed: time.Since(start)}
		if err != nil && errors.Is(err, domain.ErrUnconfigured) {
			attempt.Skipped = true
		}
		out.Attempts = append(out.Attempts, attempt)
		if c.observer != nil {
			c.observer.AttemptFinished(attempt)
		}

		if err == nil {
			c.logger.Info().Int("attempt", index).Str("provider", name).Dur("elapsed", attempt.Elapsed).Msg("image generated")
			out.Records = records
			out.Provider = name
			return out
		}
		if attempt.Skipped {
			c.logger.Debug().Int("attempt", index).Str("provider", name).Msg("provider skipped: not configured")
			continue
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", index).Str("provider", name).Msg("provider failed, trying next")
	}

	if lastErr == nil {
		lastErr = domain.Classify(domain.KindUnknown, 0, "", "All image generation methods failed", nil)
	}
	out.Err = lastErr
	return out
}
