package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"promptpix/internal/providers/prompt"
)

func (a *App) PromptHistory(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Studio.History()})
}

func (a *App) PromptEnhance(w http.ResponseWriter, r *http.Request) {
	var req prompt.EnhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	res, err := a.Enhancer.Enhance(r.Context(), req)
	if err != nil {
		if errors.Is(err, prompt.ErrEmptyPrompt) {
			a.error(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, r, http.StatusInternalServerError, "internal", "enhancer failed")
		return
	}
	a.json(w, http.StatusOK, res)
}
