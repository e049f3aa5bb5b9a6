package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/ticks", h.HandleProcessTick)

	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleGetPositions)
		r.Get("/{id}", h.HandleGetPosition)
	})

	r.Get("/decisions", h.HandleGetDecisions)
	r.Post("/state/reset", h.HandleReset)
}
