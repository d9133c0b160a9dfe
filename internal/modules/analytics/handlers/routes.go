package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Post("/portfolio", h.HandleAnalyze)
		r.Post("/metrics", h.HandleMetrics)
		r.Post("/simulate", h.HandleSimulate)
		r.Post("/frontier", h.HandleFrontier)
		r.Get("/stream", h.HandleStream)
	})
}
