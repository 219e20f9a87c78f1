package image

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

const (
	ProviderPollinations = "pollinations"

	DefaultPollinationsEndpoint = "https://image.pollinations.ai/prompt/"
	DefaultPollinationsModel    = "flux"
	pollinationsLabel           = "Pollinations.ai (Free)"
	maxSeed                     = 1000000
)

// PollinationsOptions configures the direct-URL adapter.
type PollinationsOptions struct {
	Endpoint       string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	// Seed returns a value in [0, 1000000). Defaults to math/rand.
	Seed func() int
}

// PollinationsAdapter builds an image URL from the prompt and checks that it
// resolves. The URL itself is the image reference; the body is discarded.
type PollinationsAdapter struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	seed       func() int
}

func NewPollinationsAdapter(opts PollinationsOptions) *PollinationsAdapter {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultPollinationsEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultPollinationsModel
	}
	seed := opts.Seed
	if seed == nil {
		seed = func() int { return rand.IntN(maxSeed) }
	}
	return &PollinationsAdapter{
		endpoint:   endpoint,
		model:      model,
		httpClient: httpClientOrDefault(opts.HTTPClient, opts.RequestTimeout),
		logger:     loggerOrDiscard(opts.Logger),
		seed:       seed,
	}
}

func (a *PollinationsAdapter) Name() string { return ProviderPollinations }

// ImageURL returns the request URL for req with the given seed.
func (a *PollinationsAdapter) ImageURL(req Request, seed int) string {
	return fmt.Sprintf("%s%s?width=%d&height=%d&seed=%d&enhance=true&model=%s",
		a.endpoint, url.PathEscape(req.EnhancedPrompt),
		req.Size.Width, req.Size.Height, seed, url.QueryEscape(a.model))
}

func (a *PollinationsAdapter) Generate(ctx context.Context, req Request) ([]domain.ImageRecord, error) {
	imageURL := a.ImageURL(req, a.seed())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderPollinations, "build request", err)
	}
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ProviderPollinations, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		a.logger.Debug().Int("status", resp.StatusCode).Str("body", drainBody(resp.Body)).Msg("pollinations: non-success status")
		return nil, statusError(ProviderPollinations, "Pollinations API", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	a.logger.Debug().Str("url", imageURL).Msg("pollinations: image url validated")
	return single(req, imageURL, pollinationsLabel), nil
}

var _ Adapter = (*PollinationsAdapter)(nil)
