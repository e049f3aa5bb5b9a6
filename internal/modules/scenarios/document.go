package scenarios

import (
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/market_regime"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scoring/scorers"
)

// Document is the TOML scenario file: the scenario list, the category-condition
// lists and optional overrides of the scorer and market-condition tuning.
type Document struct {
	Quality         *scorers.QualityConfig `toml:"quality,omitempty"`
	MarketCondition *market_regime.Config  `toml:"market_condition,omitempty"`
	Categories      scorers.CategoryConfig `toml:"categories"`
	Scenarios       []domain.Scenario      `toml:"scenario"`
}

// DefaultDocument returns the built-in configuration used when no file is given
func DefaultDocument() *Document {
	return &Document{
		Categories: scorers.DefaultCategoryConfig(),
		Scenarios:  DefaultScenarios(),
	}
}

func floatPtr(v float64) *float64 { return &v }

// DefaultScenarios returns the stock scenario list
func DefaultScenarios() []domain.Scenario {
	return []domain.Scenario{
		{
			Name:        "SAFE_ENTRY_SIGNAL",
			Description: "Broad agreement across every category",
			Requirements: domain.Requirements{
				Categories: map[string]int{
					"trend":           3,
					"futureAndVolume": 2,
					"candlestick":     2,
					"momentum":        2,
				},
				MinQualityScore:  floatPtr(6),
				FlatMarketFilter: true,
			},
			RiskManagement: domain.RiskManagement{
				MilestonePoints:   5,
				MaxStopLossPoints: 8,
				TotalTargetPoints: 15,
			},
		},
		{
			Name:        "MOMENTUM_BREAKOUT",
			Description: "Trend and momentum aligned with a strong directional bias",
			Requirements: domain.Requirements{
				Categories: map[string]int{
					"trend":    2,
					"momentum": 3,
				},
				MinQualityScore:        floatPtr(5),
				MinDirectionalStrength: floatPtr(0.7),
				FlatMarketFilter:       true,
			},
			RiskManagement: domain.RiskManagement{
				MilestonePoints:   5,
				MaxStopLossPoints: 6,
				TotalTargetPoints: 10,
			},
		},
		{
			Name:        "HIGH_QUALITY_ONLY",
			Description: "Exceptional composite quality on its own",
			Requirements: domain.Requirements{
				MinQualityScore: floatPtr(8.5),
			},
			RiskManagement: domain.RiskManagement{
				MilestonePoints:   5,
				MaxStopLossPoints: 5,
				TotalTargetPoints: 20,
			},
		},
	}
}
