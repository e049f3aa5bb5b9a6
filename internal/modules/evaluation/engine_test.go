package evaluation

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/market_regime"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/levels"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scenarios"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scoring/scorers"
)

func trendScenario() domain.Scenario {
	q := 5.0
	return domain.Scenario{
		Name: "TREND",
		Requirements: domain.Requirements{
			Categories:      map[string]int{"trend": 3, "momentum": 2},
			MinQualityScore: &q,
		},
		RiskManagement: domain.RiskManagement{MilestonePoints: 5, MaxStopLossPoints: 5, TotalTargetPoints: 15},
	}
}

func newTestEngine(filters Filters, log zerolog.Logger) *Engine {
	categories := scorers.DefaultCategoryConfig()
	marketCfg := market_regime.DefaultConfig()
	return NewEngine(
		levels.NewDetector(levels.DefaultConfig(), log),
		scorers.NewCategoryScorer(categories),
		scorers.NewQualityScorer(scorers.DefaultQualityConfig()),
		market_regime.NewDetector(marketCfg, log),
		scenarios.NewMatcher([]domain.Scenario{trendScenario()}, categories, marketCfg, 6, log),
		filters,
		log,
	)
}

// bullishSnapshot publishes every configured identifier: all CALL conditions
// true and all PUT conditions false.
func bullishSnapshot(price float64) domain.Snapshot {
	cfg := scorers.DefaultCategoryConfig()
	b := map[string]bool{}
	for _, ids := range cfg.Put {
		for _, id := range ids {
			b[id] = false
		}
	}
	for _, ids := range cfg.Call {
		for _, id := range ids {
			b[id] = true
		}
	}
	return domain.Snapshot{
		Timestamp:  time.Date(2024, 5, 2, 9, 45, 0, 0, time.UTC),
		Instrument: "NIFTY",
		Price:      price,
		Booleans:   b,
	}
}

func TestEngine_EvaluateEntry_Bullish(t *testing.T) {
	e := newTestEngine(Filters{}, zerolog.Nop())

	d := e.EvaluateEntry(bullishSnapshot(24237))

	require.True(t, d.ShouldEnter, d.Reason)
	assert.Equal(t, "TREND", d.ScenarioName)
	assert.Equal(t, domain.DirectionCall, d.Direction)
	assert.InDelta(t, 7.0, d.QualityScore, 1e-9)
	assert.InDelta(t, 10*(0.7+0.3*5.0/9.0), d.Confidence, 1e-9)
	assert.Equal(t, 5, d.CategoryScoresUsed["trend"])
	assert.Equal(t, time.Date(2024, 5, 2, 9, 45, 0, 0, time.UTC), d.EvaluatedAt)
}

func TestEngine_EvaluateEntry_EmptySnapshot(t *testing.T) {
	e := newTestEngine(Filters{}, zerolog.Nop())

	d := e.EvaluateEntry(domain.Snapshot{})

	assert.False(t, d.ShouldEnter)
	assert.Equal(t, 0.0, d.QualityScore)
	assert.Contains(t, d.Reason, "no scenario matched")
}

func TestEngine_Deterministic(t *testing.T) {
	e := newTestEngine(Filters{}, zerolog.Nop())
	s := bullishSnapshot(24237)

	assert.Equal(t, e.EvaluateEntry(s), e.EvaluateEntry(s))
}

func TestEngine_Evaluate_Report(t *testing.T) {
	e := newTestEngine(Filters{}, zerolog.Nop())
	s := bullishSnapshot(24237)
	s.MovingAverages = []float64{24100, 24400}

	report := e.Evaluate(s)

	assert.Equal(t, 24237.0, report.Price)
	require.Len(t, report.Levels.Supports, 1)
	assert.Equal(t, 24100.0, report.Levels.Supports[0].Value)
	require.Len(t, report.Levels.Resistances, 1)
	assert.Equal(t, domain.DirectionCall, report.Categories.Direction)
	require.Len(t, report.Scenarios, 1)
	assert.True(t, report.Scenarios[0].Passed)
	assert.True(t, report.Condition.IsFlat, "no bars means no volatility evidence")
	assert.Empty(t, report.UnknownConditions)
}

func TestEngine_RecoversFromPanic(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	categories := scorers.DefaultCategoryConfig()
	e := NewEngine(
		levels.NewDetector(levels.DefaultConfig(), log),
		scorers.NewCategoryScorer(categories),
		scorers.NewQualityScorer(scorers.DefaultQualityConfig()),
		market_regime.NewDetector(market_regime.DefaultConfig(), log),
		nil,
		Filters{},
		log,
	)

	var d domain.EntryDecision
	require.NotPanics(t, func() {
		d = e.EvaluateEntry(bullishSnapshot(24237))
	})

	assert.False(t, d.ShouldEnter)
	assert.True(t, strings.HasPrefix(d.Reason, "evaluation error:"), d.Reason)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestEngine_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		price   float64
		mas     []float64
		enter   bool
		reason  string
	}{
		{"filters off", Filters{}, 24203, []float64{24200}, true, ""},
		{"near level blocked", Filters{BlockNearLevel: true}, 24203, []float64{24200}, false, "very near"},
		{"level far enough", Filters{BlockNearLevel: true}, 24237, []float64{24200}, true, ""},
		{"round figure blocked", Filters{BlockRoundFigure: true}, 24495, nil, false, "round figure"},
		{"away from round figure", Filters{BlockRoundFigure: true}, 24237, nil, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(tt.filters, zerolog.Nop())
			s := bullishSnapshot(tt.price)
			s.MovingAverages = tt.mas

			d := e.EvaluateEntry(s)

			assert.Equal(t, tt.enter, d.ShouldEnter, d.Reason)
			if tt.reason != "" {
				assert.Contains(t, d.Reason, "TREND blocked")
				assert.Contains(t, d.Reason, tt.reason)
				assert.Equal(t, domain.DirectionCall, d.Direction)
			}
		})
	}
}

func TestEngine_WarnsOncePerUnknownCondition(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(Filters{}, zerolog.New(&buf))

	s := bullishSnapshot(24237)
	delete(s.Booleans, string(domain.OIBullish))

	report := e.Evaluate(s)
	e.Evaluate(s)

	assert.Equal(t, []string{string(domain.OIBullish)}, report.UnknownConditions)
	assert.Equal(t, 1, strings.Count(buf.String(), `"condition":"oi_bullish"`))
}

func TestEngine_EvaluateBatch(t *testing.T) {
	e := newTestEngine(Filters{}, zerolog.Nop())

	snapshots := make([]domain.Snapshot, 6)
	for i := range snapshots {
		if i%2 == 0 {
			snapshots[i] = bullishSnapshot(24237)
		}
		snapshots[i].Instrument = string(rune('A' + i))
	}

	var mu sync.Mutex
	var calls []int
	results := e.EvaluateBatch(snapshots, func(current, total int, message string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, current)
		assert.Equal(t, 6, total)
		assert.Contains(t, message, "Evaluating")
	})

	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, i%2 == 0, r.Decision.ShouldEnter, "result %d", i)
	}
	assert.Len(t, calls, 6)
}

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name            string
		numWorkers      int
		expectedWorkers int
	}{
		{"positive workers", 5, 5},
		{"zero workers defaults to 10", 0, 10},
		{"negative workers defaults to 10", -1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.numWorkers)
			assert.Equal(t, tt.expectedWorkers, pool.numWorkers)
		})
	}
}

func TestEvaluateBatch_Empty(t *testing.T) {
	e := newTestEngine(Filters{}, zerolog.Nop())
	assert.Empty(t, e.EvaluateBatch(nil, nil))
}
