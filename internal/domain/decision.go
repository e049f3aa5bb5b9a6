package domain

import (
	"sort"
	"time"
)

// CategoryCounts maps a category name to its number of satisfied conditions
type CategoryCounts map[string]int

// Total sums all category counts
func (c CategoryCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Names returns the category names in sorted order
func (c CategoryCounts) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy
func (c CategoryCounts) Clone() CategoryCounts {
	out := make(CategoryCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// RiskManagement carries the exit parameters a scenario hands to the position
type RiskManagement struct {
	MilestonePoints   float64 `json:"milestone_points" toml:"milestone_points"`
	MaxStopLossPoints float64 `json:"max_stop_loss_points" toml:"max_stop_loss_points"`
	TotalTargetPoints float64 `json:"total_target_points" toml:"total_target_points"`
}

// Requirements are the thresholds a scenario must meet. Nil pointers mean the
// threshold is not declared.
type Requirements struct {
	Categories             map[string]int `json:"categories,omitempty" toml:"categories"`
	MinQualityScore        *float64       `json:"min_quality_score,omitempty" toml:"min_quality_score"`
	MinDirectionalStrength *float64       `json:"min_directional_strength,omitempty" toml:"min_directional_strength"`
	FlatMarketFilter       bool           `json:"flat_market_filter" toml:"flat_market_filter"`
}

// QualityOnly reports whether the scenario declares a quality threshold and no
// category minimums. Such a scenario is confident exactly as its quality score;
// directional strength and the flat-market filter still apply to it.
func (r Requirements) QualityOnly() bool {
	return len(r.Categories) == 0 && r.MinQualityScore != nil
}

// Scenario is an externally configured entry rule. Treated as immutable.
type Scenario struct {
	Name           string         `json:"name" toml:"name"`
	Description    string         `json:"description,omitempty" toml:"description"`
	Requirements   Requirements   `json:"requirements" toml:"requirements"`
	RiskManagement RiskManagement `json:"risk_management" toml:"risk_management"`
}

// EntryDecision is the outcome of one entry evaluation. It is created fresh per
// evaluation by NewEntryDecision / NoEntry and never mutated afterwards.
type EntryDecision struct {
	EvaluatedAt        time.Time      `json:"evaluated_at"`
	CategoryScoresUsed CategoryCounts `json:"category_scores_used"`
	ScenarioName       string         `json:"scenario_name,omitempty"`
	Direction          Direction      `json:"direction,omitempty"`
	Reason             string         `json:"reason"`
	RiskManagement     RiskManagement `json:"risk_management"`
	Confidence         float64        `json:"confidence"`
	QualityScore       float64        `json:"quality_score"`
	ShouldEnter        bool           `json:"should_enter"`
}

// NewEntryDecision builds a positive decision for the given scenario
func NewEntryDecision(
	scenario Scenario,
	direction Direction,
	confidence float64,
	quality float64,
	counts CategoryCounts,
	reason string,
	at time.Time,
) EntryDecision {
	return EntryDecision{
		EvaluatedAt:        at,
		CategoryScoresUsed: counts.Clone(),
		ScenarioName:       scenario.Name,
		Direction:          direction,
		Reason:             reason,
		RiskManagement:     scenario.RiskManagement,
		Confidence:         confidence,
		QualityScore:       quality,
		ShouldEnter:        true,
	}
}

// NoEntry builds a negative decision
func NoEntry(reason string, direction Direction, quality float64, counts CategoryCounts, at time.Time) EntryDecision {
	return EntryDecision{
		EvaluatedAt:        at,
		CategoryScoresUsed: counts.Clone(),
		Direction:          direction,
		Reason:             reason,
		QualityScore:       quality,
	}
}
