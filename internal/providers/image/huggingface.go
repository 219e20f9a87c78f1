package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

const (
	ProviderHuggingFace = "huggingface"

	DefaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models/"
	HuggingFacePlaceholder     = "YOUR_FREE_HUGGINGFACE_TOKEN"
	huggingFaceNegative        = "blurry, low quality, bad anatomy"
	modelLoadingMessage        = "Model is loading, please try again in a few minutes"

	inferenceSteps = 20
	guidanceScale  = 7.5
)

// DefaultHuggingFaceModels are the candidates one is drawn from per call.
var DefaultHuggingFaceModels = []string{
	"stabilityai/stable-diffusion-2-1",
	"runwayml/stable-diffusion-v1-5",
	"prompthero/openjourney-v4",
	"wavymulder/Analog-Diffusion",
}

type HuggingFaceOptions struct {
	Token          string
	Endpoint       string
	Models         []string
	Blobs          BlobSink
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	// Pick returns an index in [0, n). Defaults to math/rand.
	Pick func(n int) int
}

// HuggingFaceAdapter posts to the inference API and keeps the returned image
// bytes in the blob sink.
type HuggingFaceAdapter struct {
	token      string
	endpoint   string
	models     []string
	blobs      BlobSink
	httpClient *http.Client
	logger     *infra.Logger
	pick       func(n int) int
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	NegativePrompt    string  `json:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
}

func NewHuggingFaceAdapter(opts HuggingFaceOptions) *HuggingFaceAdapter {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultHuggingFaceEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	models := opts.Models
	if len(models) == 0 {
		models = DefaultHuggingFaceModels
	}
	pick := opts.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return &HuggingFaceAdapter{
		token:      strings.TrimSpace(opts.Token),
		endpoint:   endpoint,
		models:     append([]string(nil), models...),
		blobs:      opts.Blobs,
		httpClient: httpClientOrDefault(opts.HTTPClient, opts.RequestTimeout),
		logger:     loggerOrDiscard(opts.Logger),
		pick:       pick,
	}
}

func (a *HuggingFaceAdapter) Name() string { return ProviderHuggingFace }

// HasCredentials reports whether the adapter can perform remote calls.
func (a *HuggingFaceAdapter) HasCredentials() bool {
	return credentialsPresent(a.token, HuggingFacePlaceholder)
}

func (a *HuggingFaceAdapter) Generate(ctx context.Context, req Request) ([]domain.ImageRecord, error) {
	if !a.HasCredentials() {
		return nil, unconfigured(ProviderHuggingFace, "Hugging Face token not configured")
	}
	if a.blobs == nil {
		return nil, unconfigured(ProviderHuggingFace, "Hugging Face blob store not configured")
	}
	model := a.models[a.pick(len(a.models))]

	body, err := json.Marshal(inferenceRequest{
		Inputs: req.EnhancedPrompt,
		Parameters: inferenceParameters{
			NegativePrompt:    req.negativeOr(huggingFaceNegative),
			NumInferenceSteps: inferenceSteps,
			GuidanceScale:     guidanceScale,
		},
	})
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderHuggingFace, "encode request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+model, bytes.NewReader(body))
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderHuggingFace, "build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ProviderHuggingFace, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		detail := drainBody(resp.Body)
		a.logger.Debug().Str("model", model).Int("status", resp.StatusCode).Str("body", detail).Msg("huggingface: non-success status")
		if resp.StatusCode == http.StatusServiceUnavailable {
			return nil, domain.Classify(domain.KindUnknown, resp.StatusCode, ProviderHuggingFace, modelLoadingMessage, domain.ErrModelLoading)
		}
		return nil, statusError(ProviderHuggingFace, "Hugging Face", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ProviderHuggingFace, fmt.Errorf("read image: %w", err))
	}
	if len(data) == 0 {
		return nil, domain.Classify(domain.KindServerError, resp.StatusCode, ProviderHuggingFace, "empty image payload", nil)
	}
	mime := resp.Header.Get("Content-Type")
	if strings.HasPrefix(mime, "application/json") {
		return nil, domain.Classify(domain.KindServerError, resp.StatusCode, ProviderHuggingFace, "unexpected json payload", errors.New(drainBody(bytes.NewReader(data))))
	}
	ref, err := a.blobs.Put(ctx, data, mime)
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderHuggingFace, "store image", err)
	}

	a.logger.Debug().Str("model", model).Int("bytes", len(data)).Str("ref", ref).Msg("huggingface: generated image")
	return single(req, ref, fmt.Sprintf("Hugging Face (%s)", modelName(model))), nil
}

func modelName(model string) string {
	if _, name, ok := strings.Cut(model, "/"); ok {
		return name
	}
	return model
}

var _ Adapter = (*HuggingFaceAdapter)(nil)
