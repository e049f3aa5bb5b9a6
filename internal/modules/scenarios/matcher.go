// Package scenarios matches configured entry scenarios against scored evidence.
package scenarios

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/market_regime"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scoring/scorers"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/pkg/formulas"
)

const (
	requiredWeight = 0.7
	marginWeight   = 0.3
	maxScore       = 10.0
)

// MatchInput is the evidence one evaluation hands to the matcher
type MatchInput struct {
	EvaluatedAt time.Time
	Categories  scorers.CategoryScore
	Condition   market_regime.MarketCondition
	Quality     float64
}

// CategoryShortfall records a category that did not reach its minimum
type CategoryShortfall struct {
	Category string `json:"category"`
	Actual   int    `json:"actual"`
	Required int    `json:"required"`
}

// ScenarioResult is the outcome of checking one scenario
type ScenarioResult struct {
	Name               string                              `json:"name"`
	Failures           []string                            `json:"failures,omitempty"`
	CategoryShortfalls []CategoryShortfall                 `json:"category_shortfalls,omitempty"`
	Requirements       market_regime.EffectiveRequirements `json:"requirements"`
	Score              float64                             `json:"score"`
	QualityShortfall   float64                             `json:"quality_shortfall,omitempty"`
	Index              int                                 `json:"index"`
	Passed             bool                                `json:"passed"`
	QualityOnly        bool                                `json:"quality_only"`
}

// Matcher selects the best passing scenario
type Matcher struct {
	scenarios     []domain.Scenario
	categories    scorers.CategoryConfig
	market        market_regime.Config
	minConfidence float64
	log           zerolog.Logger
}

// NewMatcher creates a matcher over scenarios in configuration order
func NewMatcher(
	scenarios []domain.Scenario,
	categories scorers.CategoryConfig,
	market market_regime.Config,
	minConfidence float64,
	log zerolog.Logger,
) *Matcher {
	return &Matcher{
		scenarios:     scenarios,
		categories:    categories,
		market:        market,
		minConfidence: minConfidence,
		log:           log.With().Str("component", "scenario_matcher").Logger(),
	}
}

// Scenarios returns the configured scenarios
func (m *Matcher) Scenarios() []domain.Scenario {
	return m.scenarios
}

// Match returns an entry decision for the highest scoring passing scenario.
// Equal scores keep the scenario configured first. When nothing passes the
// reason names the closest miss.
func (m *Matcher) Match(in MatchInput) domain.EntryDecision {
	return m.Decide(in, m.Evaluate(in))
}

// Decide picks the decision from results previously produced by Evaluate for in
func (m *Matcher) Decide(in MatchInput, results []ScenarioResult) domain.EntryDecision {
	direction := in.Categories.Direction
	counts := in.Categories.Selected

	best := -1
	for i, r := range results {
		if r.Passed && (best < 0 || r.Score > results[best].Score) {
			best = i
		}
	}

	if best >= 0 {
		r := results[best]
		scenario := m.scenarios[r.Index]
		reason := fmt.Sprintf("scenario %s matched (score %.2f, quality %.2f)", scenario.Name, r.Score, in.Quality)
		if r.Requirements.Adapted {
			reason += " under flat-market requirements"
		}
		m.log.Debug().
			Str("scenario", scenario.Name).
			Str("direction", string(direction)).
			Float64("score", r.Score).
			Float64("quality", in.Quality).
			Msg("Scenario matched")
		return domain.NewEntryDecision(scenario, direction, r.Score, in.Quality, counts, reason, in.EvaluatedAt)
	}

	return domain.NoEntry(closestMissReason(results), direction, in.Quality, counts, in.EvaluatedAt)
}

// Evaluate checks every scenario and returns one result per scenario in
// configuration order.
func (m *Matcher) Evaluate(in MatchInput) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(m.scenarios))
	for i, s := range m.scenarios {
		r := m.evaluateScenario(s, in)
		r.Index = i
		results = append(results, r)
	}
	return results
}

func (m *Matcher) evaluateScenario(s domain.Scenario, in MatchInput) ScenarioResult {
	result := ScenarioResult{Name: s.Name}

	eff := market_regime.AdaptRequirements(s.Requirements, in.Condition, m.market)
	result.Requirements = eff

	if s.Requirements.QualityOnly() {
		threshold := eff.MinQualityScore
		result.QualityOnly = true
		result.Score = in.Quality
		if in.Quality < threshold {
			result.QualityShortfall = threshold - in.Quality
			result.Failures = append(result.Failures, fmt.Sprintf("quality %.2f < %.2f", in.Quality, threshold))
		}
		m.checkDirectionalStrength(&result, eff, in.Condition)
		m.checkConfidence(&result)
		result.Passed = len(result.Failures) == 0
		return result
	}

	// Confidence is scored against the declared minimums; the adapted ones only gate pass/fail
	result.Score = m.score(s.Requirements.Categories, in.Categories)

	if in.Quality < eff.MinQualityScore {
		result.QualityShortfall = eff.MinQualityScore - in.Quality
		result.Failures = append(result.Failures, fmt.Sprintf("quality %.2f < %.2f", in.Quality, eff.MinQualityScore))
		return result
	}

	for _, name := range sortedNames(eff.Categories) {
		required := eff.Categories[name]
		actual := in.Categories.Selected[name]
		if actual < required {
			result.CategoryShortfalls = append(result.CategoryShortfalls, CategoryShortfall{
				Category: name,
				Actual:   actual,
				Required: required,
			})
			result.Failures = append(result.Failures, fmt.Sprintf("%s %d/%d", name, actual, required))
		}
	}

	m.checkDirectionalStrength(&result, eff, in.Condition)
	m.checkConfidence(&result)
	result.Passed = len(result.Failures) == 0
	return result
}

func (m *Matcher) checkDirectionalStrength(r *ScenarioResult, eff market_regime.EffectiveRequirements, cond market_regime.MarketCondition) {
	if eff.MinDirectionalStrength != nil && cond.DirectionalStrength < *eff.MinDirectionalStrength {
		r.Failures = append(r.Failures, fmt.Sprintf(
			"directional strength %.2f < %.2f", cond.DirectionalStrength, *eff.MinDirectionalStrength))
	}
}

func (m *Matcher) checkConfidence(r *ScenarioResult) {
	if r.Score < m.minConfidence {
		r.Failures = append(r.Failures, fmt.Sprintf("confidence %.2f < %.2f", r.Score, m.minConfidence))
	}
}

// score is 10 * (0.7 * met/required + 0.3 * met/possible) where met sums
// min(actual, required) over the declared categories. A scenario whose minimums
// are all zero has met its requirement in full.
func (m *Matcher) score(required map[string]int, cs scorers.CategoryScore) float64 {
	var met, req, possible int
	for name, r := range required {
		actual := cs.Selected[name]
		if actual < r {
			met += actual
		} else {
			met += r
		}
		req += r
		possible += m.categories.Possible(cs.Direction, name)
	}

	metRatio := 1.0
	if req > 0 {
		metRatio = formulas.SafeRatio(float64(met), float64(req))
	}
	marginRatio := formulas.SafeRatio(float64(met), float64(possible))

	return formulas.Sanitize(maxScore * (requiredWeight*metRatio + marginWeight*marginRatio))
}

func closestMissReason(results []ScenarioResult) string {
	if len(results) == 0 {
		return "no scenarios configured"
	}

	closest := 0
	for i, r := range results {
		if r.Score > results[closest].Score {
			closest = i
		}
	}
	r := results[closest]

	return fmt.Sprintf("no scenario matched; closest %s (score %.2f): %s",
		r.Name, r.Score, strings.Join(r.Failures, ", "))
}

func sortedNames(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
