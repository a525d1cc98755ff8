// Package api exposes the tutor over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prepia/tutor/internal/auth"
	"github.com/prepia/tutor/internal/logger"
	"github.com/prepia/tutor/internal/tutor"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Info describes the running service for the banner and health routes.
type Info struct {
	Name    string
	Version string
	Model   string
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	repo   tutor.Repository
	svc    *tutor.Service
	issuer *auth.Issuer
	db     Pinger
	log    *logger.Logger
	info   Info
}

// NewHandler creates a Handler. log may be nil.
func NewHandler(repo tutor.Repository, svc *tutor.Service, issuer *auth.Issuer, db Pinger, log *logger.Logger, info Info) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		repo:   repo,
		svc:    svc,
		issuer: issuer,
		db:     db,
		log:    log,
		info:   info,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"success":false}`, http.StatusInternalServerError)
	}
}

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, errorResponse{Error: ErrorBody{Kind: kind, Message: message}})
}

// fail renders a tutor error. Messages for server-side failures are fixed
// so that database and provider details never reach the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := tutor.KindOf(err)
	switch kind {
	case tutor.KindInvalidInput:
		msg := err.Error()
		var te *tutor.Error
		if errors.As(err, &te) {
			msg = te.Err.Error()
		}
		Error(w, http.StatusBadRequest, kind.String(), msg)
	case tutor.KindNotFound:
		Error(w, http.StatusNotFound, kind.String(), "Usuario no encontrado")
	case tutor.KindValidationFailure:
		h.log.Warn("invalid collaborator output", "path", r.URL.Path, "error", err)
		Error(w, http.StatusBadGateway, kind.String(), "La respuesta del servicio de IA no es válida")
	case tutor.KindCollaboratorUnavailable:
		msg := "Servicio no disponible temporalmente"
		if errors.Is(err, tutor.ErrNoProvider) {
			msg = "Servicio de IA no configurado"
		}
		h.log.Warn("collaborator unavailable", "path", r.URL.Path, "error", err)
		Error(w, http.StatusServiceUnavailable, kind.String(), msg)
	default:
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, kind.String(), "Error interno del servidor")
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// badRequest writes an invalid_input error.
func badRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, tutor.KindInvalidInput.String(), message)
}
