package image

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
)

const (
	ProviderDeepAI = "deepai"

	DefaultDeepAIEndpoint = "https://api.deepai.org/api/text2img"
	DeepAIPlaceholder     = "YOUR_FREE_DEEPAI_KEY"
	deepAILabel           = "DeepAI (Free - with watermark)"
)

type DeepAIOptions struct {
	APIKey         string
	Endpoint       string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// DeepAIAdapter uploads the prompt as a multipart form and returns the
// output URL from the JSON reply.
type DeepAIAdapter struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *infra.Logger
}

type deepAIResponse struct {
	ID        string `json:"id"`
	OutputURL string `json:"output_url"`
	Err       string `json:"err"`
}

func NewDeepAIAdapter(opts DeepAIOptions) *DeepAIAdapter {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultDeepAIEndpoint
	}
	return &DeepAIAdapter{
		apiKey:     strings.TrimSpace(opts.APIKey),
		endpoint:   endpoint,
		httpClient: httpClientOrDefault(opts.HTTPClient, opts.RequestTimeout),
		logger:     loggerOrDiscard(opts.Logger),
	}
}

func (a *DeepAIAdapter) Name() string { return ProviderDeepAI }

func (a *DeepAIAdapter) HasCredentials() bool {
	return credentialsPresent(a.apiKey, DeepAIPlaceholder)
}

func (a *DeepAIAdapter) Generate(ctx context.Context, req Request) ([]domain.ImageRecord, error) {
	if !a.HasCredentials() {
		return nil, unconfigured(ProviderDeepAI, "DeepAI API key not configured")
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	if err := mw.WriteField("text", req.EnhancedPrompt); err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderDeepAI, "encode form", err)
	}
	if err := mw.Close(); err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderDeepAI, "encode form", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, &form)
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderDeepAI, "build request", err)
	}
	httpReq.Header.Set("api-key", a.apiKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(ProviderDeepAI, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		a.logger.Debug().Int("status", resp.StatusCode).Str("body", drainBody(resp.Body)).Msg("deepai: non-success status")
		return nil, statusError(ProviderDeepAI, "DeepAI", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ProviderDeepAI, err)
	}
	var decoded deepAIResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, domain.Classify(domain.KindServerError, resp.StatusCode, ProviderDeepAI, "decode response", err)
	}
	outputURL := strings.TrimSpace(decoded.OutputURL)
	if outputURL == "" {
		msg := "empty output url"
		if decoded.Err != "" {
			msg = decoded.Err
		}
		return nil, domain.Classify(domain.KindServerError, resp.StatusCode, ProviderDeepAI, msg, nil)
	}

	a.logger.Debug().Str("id", decoded.ID).Str("url", outputURL).Msg("deepai: generated image")
	return single(req, outputURL, deepAILabel), nil
}

var _ Adapter = (*DeepAIAdapter)(nil)
