package handlers

import (
	"net/http"
)

// Health is the liveness probe. It reports the in-memory job count so a
// glance at the endpoint shows whether the registry restored after a restart.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   len(a.Registry.List()),
	})
}
