package handlers

import (
	"net/http"
)

func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.Status())
}

func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.Stats())
}
