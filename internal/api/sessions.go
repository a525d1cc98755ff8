package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prepia/tutor/internal/domain"
)

const (
	defaultSessionLimit = 10
	maxSessionLimit     = 100
)

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var rec domain.SessionRecord
	if err := decode(r, &rec); err != nil {
		badRequest(w, err.Error())
		return
	}
	rec.ID = ""
	if strings.TrimSpace(rec.UserID) == "" || strings.TrimSpace(rec.Subject) == "" {
		badRequest(w, "userId and subject are required")
		return
	}
	for _, field := range []struct{ name, value string }{
		{"startTime", rec.StartTime},
		{"endTime", rec.EndTime},
	} {
		if _, err := domain.ParseTime(field.value, time.Local); err != nil {
			badRequest(w, field.name+" must be an ISO 8601 timestamp")
			return
		}
	}

	if err := h.repo.InsertSession(r.Context(), &rec); err != nil {
		h.storeFail(w, r, "create-session", err)
		return
	}

	JSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"sessionId": rec.ID,
		"message":   "Sesión guardada exitosamente",
	})
}

// ListSessions handles GET /api/sessions/user/{userID}?limit=N.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSessionLimit)
	}

	sessions, err := h.repo.RecentSessions(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		h.storeFail(w, r, "list-sessions", err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"sessions": sessions,
	})
}
