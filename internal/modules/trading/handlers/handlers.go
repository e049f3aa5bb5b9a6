// Package handlers provides HTTP handlers for tick processing and positions.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/journal"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/trading"
)

// TickProcessor is the processor surface the handlers need
type TickProcessor interface {
	ProcessTick(ctx context.Context, snapshot domain.Snapshot) (trading.TickResult, error)
	Positions() []trading.PositionView
	Position(id string) (trading.PositionView, bool)
	Reset(reason string) int
}

// JournalReader reads journaled history
type JournalReader interface {
	RecentDecisions(instrument string, limit int) ([]journal.DecisionRecord, error)
	GetPosition(id string) (*journal.PositionRecord, error)
	ListPositions(openOnly bool, limit int) ([]journal.PositionRecord, error)
	MilestoneEvents(positionID string) ([]journal.MilestoneEvent, error)
}

// TradingHandlers contains HTTP handlers for the trading API
type TradingHandlers struct {
	processor TickProcessor
	journal   JournalReader
	log       zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(processor TickProcessor, journalReader JournalReader, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		processor: processor,
		journal:   journalReader,
		log:       log.With().Str("handler", "trading").Logger(),
	}
}

// PositionDetail combines the live and journaled view of a position
type PositionDetail struct {
	Live    *trading.PositionView    `json:"live,omitempty"`
	Record  *journal.PositionRecord  `json:"record,omitempty"`
	History []journal.MilestoneEvent `json:"history"`
}

// HandleProcessTick handles POST /api/ticks
func (h *TradingHandlers) HandleProcessTick(w http.ResponseWriter, r *http.Request) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.processor.ProcessTick(r.Context(), snapshot)
	if errors.Is(err, trading.ErrMissingInstrument) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("instrument", snapshot.Instrument).Msg("Tick processing failed")
		h.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  err.Error(),
			"result": result,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetPositions handles GET /api/positions
// ?history=true returns journaled positions (open and closed) instead of live ones.
func (h *TradingHandlers) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	if history, _ := strconv.ParseBool(r.URL.Query().Get("history")); history {
		if h.journal == nil {
			h.writeError(w, http.StatusServiceUnavailable, "Journal not configured")
			return
		}
		records, err := h.journal.ListPositions(false, parseLimit(r, 100))
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to list positions")
			h.writeError(w, http.StatusInternalServerError, "Failed to list positions")
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"positions": records})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"positions": h.processor.Positions()})
}

// HandleGetPosition handles GET /api/positions/{id}
func (h *TradingHandlers) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail := PositionDetail{History: []journal.MilestoneEvent{}}

	if view, ok := h.processor.Position(id); ok {
		detail.Live = &view
	}

	if h.journal != nil {
		record, err := h.journal.GetPosition(id)
		switch {
		case errors.Is(err, journal.ErrNotFound):
		case err != nil:
			h.log.Error().Err(err).Str("position_id", id).Msg("Failed to load position")
			h.writeError(w, http.StatusInternalServerError, "Failed to load position")
			return
		default:
			detail.Record = record
			events, err := h.journal.MilestoneEvents(id)
			if err != nil {
				h.log.Error().Err(err).Str("position_id", id).Msg("Failed to load milestone events")
				h.writeError(w, http.StatusInternalServerError, "Failed to load position history")
				return
			}
			if events != nil {
				detail.History = events
			}
		}
	}

	if detail.Live == nil && detail.Record == nil {
		h.writeError(w, http.StatusNotFound, "Position not found")
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// HandleGetDecisions handles GET /api/decisions?instrument=&limit=
func (h *TradingHandlers) HandleGetDecisions(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Journal not configured")
		return
	}

	decisions, err := h.journal.RecentDecisions(r.URL.Query().Get("instrument"), parseLimit(r, 50))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load decisions")
		h.writeError(w, http.StatusInternalServerError, "Failed to load decisions")
		return
	}
	if decisions == nil {
		decisions = []journal.DecisionRecord{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"decisions": decisions})
}

// HandleReset handles POST /api/state/reset
func (h *TradingHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	dropped := h.processor.Reset("manual reset via API")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "reset",
		"dropped_positions": dropped,
	})
}

func parseLimit(r *http.Request, defaultLimit int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			return n
		}
	}
	return defaultLimit
}

func (h *TradingHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *TradingHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
