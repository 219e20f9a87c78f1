package imagegen

import (
	"context"
	"time"

	"promptpix/internal/domain"
	providerimage "promptpix/internal/providers/image"
)

// GenerateRequest is the JSON body accepted by the generate endpoint.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Size           string `json:"size"`
	Style          string `json:"style"`
}

// GenerationRequest converts the wire form, parsing the "WxH" size token.
func (r GenerateRequest) GenerationRequest() (domain.GenerationRequest, error) {
	size, err := domain.ParseSize(r.Size)
	if err != nil {
		return domain.GenerationRequest{}, domain.Classify(domain.KindInvalidPrompt, 0, "", err.Error(), err)
	}
	return domain.GenerationRequest{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Size:           size,
		Style:          domain.Style(r.Style),
	}, nil
}

// AttemptView is the serialisable form of one adapter attempt.
type AttemptView struct {
	Index     int     `json:"index"`
	Provider  string  `json:"provider"`
	Skipped   bool    `json:"skipped,omitempty"`
	Kind      string  `json:"kind,omitempty"`
	Status    int     `json:"status,omitempty"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

func newAttemptView(a providerimage.Attempt) AttemptView {
	view := AttemptView{
		Index:     a.Index,
		Provider:  a.Provider,
		Skipped:   a.Skipped,
		ElapsedMS: float64(a.Elapsed) / float64(time.Millisecond),
	}
	if a.Err != nil {
		ce := domain.AsClassified(a.Err)
		view.Kind = string(ce.Kind)
		view.Status = ce.Status
		view.Error = ce.Error()
	}
	return view
}

// GenerateResponse is returned for a successful generation.
type GenerateResponse struct {
	Images     []domain.ImageRecord `json:"images"`
	Provider   string               `json:"provider"`
	Attempts   []AttemptView        `json:"attempts"`
	RetryCount int                  `json:"retry_count"`
}

// Runner executes the ordered adapter chain.
type Runner interface {
	Run(ctx context.Context, req providerimage.Request, onAttempt func(index int, provider string)) providerimage.Outcome
}

// GenerationObserver is notified around every orchestrator run.
type GenerationObserver interface {
	GenerationStarted()
	GenerationFinished(provider string, err error)
}
