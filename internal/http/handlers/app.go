package handlers

import (
	"encoding/json"
	"net/http"

	"clipforge/internal/infra"
	"clipforge/internal/pipeline"
	"clipforge/internal/registry"
	"clipforge/internal/storage"
)

type App struct {
	Runner   *pipeline.Runner
	Registry *registry.Registry
	Store    *storage.FileStore
	Logger   infra.Logger
}

func NewApp(runner *pipeline.Runner, reg *registry.Registry, store *storage.FileStore, logger infra.Logger) *App {
	return &App{Runner: runner, Registry: reg, Store: store, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}
