package image

import (
	"context"
	"net/http"
	"strings"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
	"promptpix/internal/providers/prompt"
)

const defaultRequestTimeout = 45 * time.Second

// Request is the provider-neutral input every adapter receives. Prompt is the
// user's raw text; EnhancedPrompt is what gets sent to remote services.
type Request struct {
	Prompt         string
	EnhancedPrompt string
	NegativePrompt string
	Size           domain.Size
	Style          domain.Style
}

// NewRequest composes the enhanced prompt for gr.
func NewRequest(gr domain.GenerationRequest) Request {
	return Request{
		Prompt:         gr.Prompt,
		EnhancedPrompt: prompt.BuildEnhancedPrompt(gr.Prompt, gr.Style),
		NegativePrompt: gr.NegativePrompt,
		Size:           gr.Size,
		Style:          gr.Style,
	}
}

func (r Request) generation() domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Size:           r.Size,
		Style:          r.Style,
	}
}

func (r Request) negativeOr(fallback string) string {
	if neg := strings.TrimSpace(r.NegativePrompt); neg != "" {
		return neg
	}
	return fallback
}

// Adapter translates a Request into one external service's protocol and
// returns exactly one image record on success.
type Adapter interface {
	Name() string
	Generate(ctx context.Context, req Request) ([]domain.ImageRecord, error)
}

// BlobSink stores binary payloads and returns a dereferenceable reference.
type BlobSink interface {
	Put(ctx context.Context, data []byte, mime string) (string, error)
}

// credentialsPresent reports whether token is set and is not the known
// placeholder value.
func credentialsPresent(token, placeholder string) bool {
	token = strings.TrimSpace(token)
	return token != "" && token != placeholder
}

func httpClientOrDefault(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &http.Client{Timeout: timeout}
}

func loggerOrDiscard(l *infra.Logger) *infra.Logger {
	if l != nil {
		return l
	}
	return infra.DiscardLogger()
}

func single(req Request, url, source string) []domain.ImageRecord {
	return []domain.ImageRecord{domain.NewImageRecord(req.generation(), url, source)}
}
