// Package handlers provides HTTP handlers for entry evaluation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/evaluation"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/levels"
)

// maxBatchSize bounds batch requests to prevent resource exhaustion
const maxBatchSize = 1000

// Engine is the evaluation surface the handlers need
type Engine interface {
	Evaluate(snapshot domain.Snapshot) evaluation.Evaluation
	EvaluateBatch(snapshots []domain.Snapshot, progress evaluation.ProgressCallback) []evaluation.Evaluation
	DetectLevels(snapshot domain.Snapshot) levels.LevelSet
	Scenarios() []domain.Scenario
}

// Handler handles evaluation HTTP requests
type Handler struct {
	engine Engine
	log    zerolog.Logger
}

// NewHandler creates a new evaluation handler
func NewHandler(engine Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log.With().Str("handler", "evaluation").Logger(),
	}
}

// BatchRequest is the body of POST /api/entry/evaluate/batch
type BatchRequest struct {
	Snapshots []domain.Snapshot `json:"snapshots"`
}

// BatchResponse is the result of a batch evaluation
type BatchResponse struct {
	Results   []evaluation.Evaluation `json:"results"`
	Entries   int                     `json:"entries"`
	ElapsedMs int64                   `json:"elapsed_ms"`
}

// HandleEvaluate handles POST /api/entry/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.engine.Evaluate(snapshot))
}

// HandleEvaluateBatch handles POST /api/entry/evaluate/batch
func (h *Handler) HandleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var request BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(request.Snapshots) == 0 {
		h.writeError(w, http.StatusBadRequest, "No snapshots provided")
		return
	}
	if len(request.Snapshots) > maxBatchSize {
		h.writeError(w, http.StatusBadRequest, "Too many snapshots (max 1000)")
		return
	}

	start := time.Now()
	results := h.engine.EvaluateBatch(request.Snapshots, nil)
	elapsed := time.Since(start)

	entries := 0
	for _, res := range results {
		if res.Decision.ShouldEnter {
			entries++
		}
	}

	h.log.Info().
		Int("snapshots", len(request.Snapshots)).
		Int("entries", entries).
		Dur("elapsed", elapsed).
		Msg("Batch evaluation completed")

	h.writeJSON(w, http.StatusOK, BatchResponse{
		Results:   results,
		Entries:   entries,
		ElapsedMs: elapsed.Milliseconds(),
	})
}

// HandleLevels handles POST /api/levels
func (h *Handler) HandleLevels(w http.ResponseWriter, r *http.Request) {
	var snapshot domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.engine.DetectLevels(snapshot))
}

// HandleGetScenarios handles GET /api/scenarios
func (h *Handler) HandleGetScenarios(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": h.engine.Scenarios(),
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
