package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

const (
	ProviderReplicate = "replicate"

	DefaultReplicateEndpoint = "https://api.replicate.com/v1"
	DefaultReplicateVersion  = "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4"
	ReplicatePlaceholder     = "YOUR_FREE_REPLICATE_TOKEN"
	DefaultPollInterval      = 2 * time.Second
	DefaultMaxPolls          = 90

	replicateLabel    = "Replicate (Free credits)"
	replicateNegative = "blurry, bad quality"
)

// ErrPredictionFailed is returned when a job reaches a failed terminal state.
var ErrPredictionFailed = errors.New("Generation failed")

type ReplicateOptions struct {
	Token          string
	Endpoint       string
	Version        string
	PollInterval   time.Duration
	MaxPolls       int
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// ReplicateAdapter creates a prediction job and polls it until it leaves the
// starting/processing states or the poll budget runs out.
type ReplicateAdapter struct {
	token        string
	endpoint     string
	version      string
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
	logger       *infra.Logger
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

const (
	statusStarting   = "starting"
	statusProcessing = "processing"
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
	statusCanceled   = "canceled"
)

func (p *prediction) pending() bool {
	return p.Status == statusStarting || p.Status == statusProcessing
}

// firstOutput accepts either a list of URLs or a single URL.
func (p *prediction) firstOutput() string {
	if len(p.Output) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(p.Output, &list); err == nil {
		for _, u := range list {
			if u = strings.TrimSpace(u); u != "" {
				return u
			}
		}
		return ""
	}
	var one string
	if err := json.Unmarshal(p.Output, &one); err == nil {
		return strings.TrimSpace(one)
	}
	return ""
}

func NewReplicateAdapter(opts ReplicateOptions) *ReplicateAdapter {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultReplicateEndpoint
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = DefaultReplicateVersion
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}
	return &ReplicateAdapter{
		token:        strings.TrimSpace(opts.Token),
		endpoint:     endpoint,
		version:      version,
		pollInterval: interval,
		maxPolls:     maxPolls,
		httpClient:   httpClientOrDefault(opts.HTTPClient, opts.RequestTimeout),
		logger:       loggerOrDiscard(opts.Logger),
	}
}

func (a *ReplicateAdapter) Name() string { return ProviderReplicate }

func (a *ReplicateAdapter) HasCredentials() bool {
	return credentialsPresent(a.token, ReplicatePlaceholder)
}

func (a *ReplicateAdapter) Generate(ctx context.Context, req Request) ([]domain.ImageRecord, error) {
	if !a.HasCredentials() {
		return nil, unconfigured(ProviderReplicate, "Replicate token not configured")
	}

	body, err := json.Marshal(predictionRequest{
		Version: a.version,
		Input: predictionInput{
			Prompt:            req.EnhancedPrompt,
			NegativePrompt:    req.negativeOr(replicateNegative),
			Width:             req.Size.Width,
			Height:            req.Size.Height,
			NumInferenceSteps: inferenceSteps,
			GuidanceScale:     guidanceScale,
		},
	})
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderReplicate, "encode request", err)
	}

	pred, err := a.do(ctx, http.MethodPost, a.endpoint+"/predictions", body)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("prediction", pred.ID).Str("status", pred.Status).Msg("replicate: prediction created")

	polls := 0
	for pred.pending() {
		if polls >= a.maxPolls {
			return nil, domain.Classify(domain.KindTimeout, 0, ProviderReplicate,
				fmt.Sprintf("prediction %s still %s after %d polls", pred.ID, pred.Status, polls), nil)
		}
		if err := sleep(ctx, a.pollInterval); err != nil {
			return nil, transportError(ProviderReplicate, err)
		}
		polls++
		id := pred.ID
		pred, err = a.do(ctx, http.MethodGet, a.endpoint+"/predictions/"+id, nil)
		if err != nil {
			return nil, err
		}
		if pred.ID == "" {
			pred.ID = id
		}
	}

	switch pred.Status {
	case statusFailed, statusCanceled:
		a.logger.Debug().Str("prediction", pred.ID).Interface("error", pred.Error).Msg("replicate: prediction failed")
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderReplicate, ErrPredictionFailed.Error(), ErrPredictionFailed)
	}
	output := pred.firstOutput()
	if output == "" {
		return nil, domain.Classify(domain.KindServerError, 0, ProviderReplicate,
			fmt.Sprintf("prediction %s finished as %q without output", pred.ID, pred.Status), nil)
	}

	a.logger.Debug().Str("prediction", pred.ID).Int("polls", polls).Str("url", output).Msg("replicate: generated image")
	return single(req, output, replicateLabel), nil
}

func (a *ReplicateAdapter) do(ctx context.Context, method, endpoint string, body []byte) (*prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderReplicate, "build request", err)
	}
	httpReq.Header.Set("Authorization", "Token "+a.token)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ProviderReplicate, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		a.logger.Debug().Str("method", method).Int("status", resp.StatusCode).Str("body", drainBody(resp.Body)).Msg("replicate: non-success status")
		return nil, statusError(ProviderReplicate, "Replicate", resp)
	}
	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, domain.Classify(domain.KindServerError, resp.StatusCode, ProviderReplicate, "decode prediction", err)
	}
	return &pred, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Adapter = (*ReplicateAdapter)(nil)
