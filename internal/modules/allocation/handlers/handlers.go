// Package handlers provides HTTP handlers for risk-profile presets.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
)

// Handler handles profile HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new profile handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "profiles").Logger(),
	}
}

// RegisterRoutes registers the profile routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", h.HandleListProfiles)
		r.Get("/{name}", h.HandleGetProfile)
	})
}

// HandleListProfiles handles GET /api/profiles
func (h *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, allocation.Profiles())
}

// HandleGetProfile handles GET /api/profiles/{name}
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	profile, err := allocation.Get(name)
	if errors.Is(err, domain.ErrUnknownProfile) {
		h.writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("profile", name).Msg("Failed to load profile")
		h.writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	h.writeData(w, profile)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
