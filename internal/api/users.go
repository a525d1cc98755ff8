package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prepia/tutor/internal/auth"
	"github.com/prepia/tutor/internal/domain"
	"github.com/prepia/tutor/internal/store"
	"github.com/prepia/tutor/internal/tutor"
)

// statsWindow is how many recent sessions the stats route returns.
const statsWindow = 10

var levels = map[string]bool{
	"principiante": true,
	"intermedio":   true,
	"avanzado":     true,
}

// CreateUserRequest registers a learner.
type CreateUserRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Level    string       `json:"level"`
	Goals    domain.Goals `json:"goals"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		badRequest(w, "a valid email is required")
		return
	}
	if req.Level != "" && !levels[req.Level] {
		badRequest(w, "level must be principiante, intermedio or avanzado")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	u := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Level:        req.Level,
		PasswordHash: hash,
		Goals:        req.Goals,
	}
	if err := h.repo.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			badRequest(w, "Email ya registrado")
			return
		}
		h.storeFail(w, r, "create-user", err)
		return
	}

	h.log.Info("user created", "user_id", u.ID)
	JSON(w, http.StatusCreated, u)
}

// Login handles POST /api/users/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	u, err := h.repo.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.storeFail(w, r, "login", err)
		return
	}
	if err != nil || auth.CheckPassword(u.PasswordHash, req.Password) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		Error(w, http.StatusUnauthorized, "unauthorized", "Email o contraseña incorrectos")
		return
	}

	token, expires, err := h.issuer.Issue(u.ID, u.Email)
	if err != nil {
		h.log.Error("failed to issue token", "user_id", u.ID, "error", err)
		Error(w, http.StatusInternalServerError, tutor.KindUnknown.String(), "Error interno del servidor")
		return
	}

	JSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expires,
		UserID:      u.ID,
		UserName:    u.Name,
	})
}

// GetUser handles GET /api/users/{userID}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.storeFail(w, r, "get-user", err)
		return
	}
	JSON(w, http.StatusOK, u)
}

// GetUserStats handles GET /api/users/{userID}/stats.
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	u, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		h.storeFail(w, r, "user-stats", err)
		return
	}
	sessions, err := h.repo.RecentSessions(r.Context(), userID, statsWindow)
	if err != nil {
		h.storeFail(w, r, "user-stats", err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"user":           u.Statistics,
		"recentSessions": sessions,
		"scores":         u.Scores,
	})
}

// storeFail renders a repository error as a tutor error.
func (h *Handler) storeFail(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := tutor.KindCollaboratorUnavailable
	if errors.Is(err, store.ErrNotFound) {
		kind = tutor.KindNotFound
	}
	h.fail(w, r, &tutor.Error{Kind: kind, Op: op, Err: err})
}
