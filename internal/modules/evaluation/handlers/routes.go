package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all evaluation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/entry", func(r chi.Router) {
		r.Post("/evaluate", h.HandleEvaluate)
		r.Post("/evaluate/batch", h.HandleEvaluateBatch)
	})
	r.Post("/levels", h.HandleLevels)
	r.Get("/scenarios", h.HandleGetScenarios)
}
