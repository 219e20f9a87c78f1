package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"promptpix/internal/domain"
	"promptpix/internal/imagegen"
	"promptpix/internal/infra"
	"promptpix/internal/middleware"
	"promptpix/internal/providers/prompt"
	"promptpix/internal/storage"
)

// App carries the collaborators every handler needs.
type App struct {
	Studio    *imagegen.Studio
	Enhancer  prompt.Enhancer
	Blobs     *storage.BlobStore
	Providers []string
	Logger    *infra.Logger
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Kind      string `json:"kind,omitempty"`
	Status    int    `json:"status,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, r *http.Request, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorPayload{
		Code:      errCode,
		Message:   message,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}})
}

// generationError renders err with the status code for its category and a
// message in the request locale.
func (a *App) generationError(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode := http.StatusBadGateway, "generation_failed"
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt), errors.Is(err, domain.ErrInvalidSize):
		code, errCode = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrGenerationInProgress):
		code, errCode = http.StatusConflict, "in_progress"
	case errors.Is(err, domain.ErrRetryLimit):
		code, errCode = http.StatusTooManyRequests, "retry_limit"
	case errors.Is(err, domain.ErrNoSettings):
		code, errCode = http.StatusBadRequest, "nothing_to_retry"
	}

	locale := middleware.LocaleFromContext(r.Context())
	ce := domain.AsClassified(err)
	payload := errorPayload{
		Code:      errCode,
		Kind:      string(ce.Kind),
		Status:    ce.Status,
		Provider:  ce.Provider,
		Message:   domain.UserMessage(err, locale),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}
	if ce.Message != payload.Message {
		payload.Detail = ce.Message
	}
	if a.Logger != nil && code >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", payload.RequestID).Msg("generation request failed")
	}
	a.json(w, code, errorBody{Error: payload})
}
