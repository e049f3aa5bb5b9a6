// Package di provides service initialization functions.
package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/config"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/events"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/market_regime"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/evaluation"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/levels"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/openinterest"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scenarios"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scoring/scorers"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/trading"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/observability"
)

// InitializeObservability creates the metrics registry. It runs before the
// repositories so they can record query timings.
func InitializeObservability(container *Container, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	container.Registry = registry
	container.Metrics = observability.NewMetrics(cfg.MetricsNamespace, registry)
	return nil
}

// LoadScenarioDocument reads the scenario document named by the config, or
// returns the built-in one when no path is set. The environment quality floor
// is applied on top.
func LoadScenarioDocument(cfg *config.Config, log zerolog.Logger) (*scenarios.Document, error) {
	doc := scenarios.DefaultDocument()
	if cfg.ScenarioConfigPath != "" {
		loaded, err := scenarios.NewLoader(log).LoadFromFile(cfg.ScenarioConfigPath)
		if err != nil {
			return nil, err
		}
		doc = loaded
	} else {
		log.Info().Int("scenarios", len(doc.Scenarios)).Msg("Using built-in scenario configuration")
	}

	if cfg.Engine.MinQualityScore > 0 {
		quality := scorers.DefaultQualityConfig()
		if doc.Quality != nil {
			quality = *doc.Quality
		}
		quality.MinQualityScore = cfg.Engine.MinQualityScore
		doc.Quality = &quality
	}

	return doc, nil
}

// InitializeServices builds the decision core and the tick processor
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	doc, err := LoadScenarioDocument(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to load scenario configuration: %w", err)
	}
	container.Scenarios = doc

	quality := scorers.DefaultQualityConfig()
	if doc.Quality != nil {
		quality = *doc.Quality
	}
	market := market_regime.DefaultConfig()
	if doc.MarketCondition != nil {
		market = *doc.MarketCondition
	}

	container.Engine = evaluation.NewEngine(
		levels.NewDetector(levels.DefaultConfig(), log),
		scorers.NewCategoryScorer(doc.Categories),
		scorers.NewQualityScorer(quality),
		market_regime.NewDetector(market, log),
		scenarios.NewMatcher(doc.Scenarios, doc.Categories, market, cfg.Engine.MinConfidence, log),
		evaluation.Filters{
			BlockNearLevel:   cfg.Engine.BlockNearLevel,
			BlockRoundFigure: cfg.Engine.BlockRoundFigure,
		},
		log,
	)

	container.EventManager = events.NewManager(log)
	container.OIStore = openinterest.NewMemoryStore()
	container.OITracker = openinterest.NewTracker(container.OIStore, log)
	container.Executor = trading.NewPaperExecutor(log)

	container.Processor = trading.NewProcessor(
		container.Engine,
		container.OITracker,
		container.Executor,
		container.JournalRepo,
		container.EventManager,
		container.Metrics,
		log,
	)
	container.Processor.SetDefaultRiskManagement(cfg.Engine.DefaultRiskManagement())

	log.Info().
		Int("scenarios", len(doc.Scenarios)).
		Float64("min_confidence", cfg.Engine.MinConfidence).
		Float64("min_quality_score", quality.MinQualityScore).
		Msg("Decision core initialized")

	return nil
}
