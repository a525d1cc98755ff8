package api

import (
	"context"
	"net/http"
	"time"
)

// Root serves the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	model := h.info.Model
	if !h.svc.Available() {
		model = ""
	}
	JSON(w, http.StatusOK, map[string]string{
		"message":  "🚀 " + h.info.Name,
		"version":  h.info.Version,
		"status":   "online",
		"ai_model": model,
	})
}

// Health reports database reachability and whether a collaborator is set.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "conectado"
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("database ping failed", "error", err)
		dbStatus = "desconectado"
	}
	aiStatus := "configurado"
	if !h.svc.Available() {
		aiStatus = "no configurado"
	}

	JSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"api":      "online",
			"ai":       aiStatus,
			"database": dbStatus,
		},
	})
}
