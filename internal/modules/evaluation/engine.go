// Package evaluation is the entry decision boundary: it runs level detection,
// category and quality scoring, market-condition analysis and scenario matching
// over one snapshot and never lets a failure escape as anything but a no-entry
// decision.
package evaluation

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/market_regime"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/levels"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scenarios"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scoring/scorers"
)

// Filters are optional vetoes applied after a scenario matched
type Filters struct {
	BlockNearLevel   bool `json:"block_near_level"`
	BlockRoundFigure bool `json:"block_round_figure"`
}

// Evaluation is the full report behind one decision
type Evaluation struct {
	Decision          domain.EntryDecision          `json:"decision"`
	Levels            levels.LevelSet               `json:"levels"`
	Condition         market_regime.MarketCondition `json:"market_condition"`
	Categories        scorers.CategoryScore         `json:"categories"`
	Quality           scorers.QualityScore          `json:"quality"`
	Scenarios         []scenarios.ScenarioResult    `json:"scenarios"`
	UnknownConditions []string                      `json:"unknown_conditions,omitempty"`
	Price             float64                       `json:"price"`
}

// Engine evaluates snapshots. It holds no per-evaluation state and is safe for
// concurrent use across instruments.
type Engine struct {
	levels     *levels.Detector
	categories *scorers.CategoryScorer
	quality    *scorers.QualityScorer
	market     *market_regime.Detector
	matcher    *scenarios.Matcher
	filters    Filters
	pool       *WorkerPool

	// condition identifiers already reported as unknown
	warned sync.Map

	log zerolog.Logger
}

// NewEngine creates a new evaluation engine
func NewEngine(
	levelDetector *levels.Detector,
	categoryScorer *scorers.CategoryScorer,
	qualityScorer *scorers.QualityScorer,
	marketDetector *market_regime.Detector,
	matcher *scenarios.Matcher,
	filters Filters,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		levels:     levelDetector,
		categories: categoryScorer,
		quality:    qualityScorer,
		market:     marketDetector,
		matcher:    matcher,
		filters:    filters,
		pool:       NewWorkerPool(0),
		log:        log.With().Str("component", "entry_engine").Logger(),
	}
}

// EvaluateEntry returns the entry decision for a snapshot.
// Deterministic for identical snapshots and configuration.
func (e *Engine) EvaluateEntry(snapshot domain.Snapshot) domain.EntryDecision {
	return e.Evaluate(snapshot).Decision
}

// Evaluate returns the decision together with the intermediate results.
// A panic anywhere in scoring is recovered into a no-entry decision.
func (e *Engine) Evaluate(snapshot domain.Snapshot) (report Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("instrument", snapshot.Instrument).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Entry evaluation failed")
			report = Evaluation{
				Decision: domain.NoEntry(fmt.Sprintf("evaluation error: %v", r), "", 0, nil, snapshot.Timestamp),
				Price:    snapshot.CurrentPrice(),
			}
		}
	}()

	s := &snapshot
	report.UnknownConditions = scorers.UnknownIdentifiers(e.categories.Config(), s)
	e.warnUnknown(report.UnknownConditions)

	report.Price = s.CurrentPrice()
	report.Levels = e.levels.DetectSnapshot(s)
	report.Categories = e.categories.Score(s)
	report.Quality = e.quality.Score(s, report.Categories.Direction)
	report.Condition = e.market.Analyze(s)

	in := scenarios.MatchInput{
		EvaluatedAt: s.Timestamp,
		Categories:  report.Categories,
		Condition:   report.Condition,
		Quality:     report.Quality.Score,
	}
	report.Scenarios = e.matcher.Evaluate(in)
	report.Decision = e.applyFilters(e.matcher.Decide(in, report.Scenarios), report)

	e.log.Debug().
		Str("instrument", s.Instrument).
		Bool("should_enter", report.Decision.ShouldEnter).
		Str("scenario", report.Decision.ScenarioName).
		Str("direction", string(report.Decision.Direction)).
		Float64("quality", report.Quality.Score).
		Bool("flat", report.Condition.IsFlat).
		Msg("Entry evaluated")

	return report
}

func (e *Engine) applyFilters(d domain.EntryDecision, report Evaluation) domain.EntryDecision {
	if !d.ShouldEnter {
		return d
	}

	var veto string
	switch {
	case e.filters.BlockNearLevel && e.levels.IsVeryNearLevel(report.Levels, report.Price):
		veto = fmt.Sprintf("price %.2f is very near a support/resistance level", report.Price)
	case e.filters.BlockRoundFigure && e.levels.IsNearRoundFigure(report.Price):
		veto = fmt.Sprintf("price %.2f is near a round figure", report.Price)
	default:
		return d
	}

	return domain.NoEntry(
		fmt.Sprintf("%s blocked: %s", d.ScenarioName, veto),
		d.Direction, d.QualityScore, d.CategoryScoresUsed, d.EvaluatedAt,
	)
}

// warnUnknown logs each unknown condition identifier once for the engine's lifetime
func (e *Engine) warnUnknown(ids []string) {
	for _, id := range ids {
		if _, seen := e.warned.LoadOrStore(id, struct{}{}); !seen {
			e.log.Warn().Str("condition", id).Msg("Unknown condition identifier, treated as false")
		}
	}
}

// EvaluateBatch evaluates several snapshots concurrently, preserving order
func (e *Engine) EvaluateBatch(snapshots []domain.Snapshot, progress ProgressCallback) []Evaluation {
	return e.pool.EvaluateBatch(e, snapshots, progress)
}

// Scenarios returns the configured scenarios in evaluation order
func (e *Engine) Scenarios() []domain.Scenario {
	return e.matcher.Scenarios()
}

// DetectLevels runs only the level detector over a snapshot
func (e *Engine) DetectLevels(snapshot domain.Snapshot) levels.LevelSet {
	return e.levels.DetectSnapshot(&snapshot)
}
