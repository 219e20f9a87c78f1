package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"promptpix/internal/imagegen"
)

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req imagegen.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	gen, err := req.GenerationRequest()
	if err != nil {
		a.generationError(w, r, err)
		return
	}
	// Provider calls are not aborted when the client goes away.
	resp, err := a.Studio.Generate(context.WithoutCancel(r.Context()), gen)
	if err != nil {
		a.generationError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) ImagesRetry(w http.ResponseWriter, r *http.Request) {
	resp, err := a.Studio.Retry(context.WithoutCancel(r.Context()))
	if err != nil {
		a.generationError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) ImagesList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Studio.Images()})
}

func (a *App) ImagesArchive(w http.ResponseWriter, r *http.Request) {
	archive, skipped, err := a.Studio.Archive(r.Context(), a.Blobs)
	if err != nil {
		a.error(w, r, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=gallery-%s.zip", time.Now().UTC().Format("20060102-150405")))
	w.Header().Set("X-Skipped-Images", fmt.Sprint(skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
