// Package journal persists entry decisions, positions and milestone events.
package journal

import (
	"time"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// DecisionRecord is one journaled entry evaluation
type DecisionRecord struct {
	EvaluatedAt    time.Time             `json:"evaluated_at"`
	CategoryScores domain.CategoryCounts `json:"category_scores"`
	Instrument     string                `json:"instrument"`
	ScenarioName   string                `json:"scenario_name,omitempty"`
	Direction      domain.Direction      `json:"direction,omitempty"`
	Reason         string                `json:"reason"`
	ID             int64                 `json:"id"`
	Confidence     float64               `json:"confidence"`
	QualityScore   float64               `json:"quality_score"`
	ShouldEnter    bool                  `json:"should_enter"`
}

// PositionRecord is the persisted view of a position
type PositionRecord struct {
	OpenedAt          time.Time         `json:"opened_at"`
	ClosedAt          *time.Time        `json:"closed_at,omitempty"`
	ID                string            `json:"id"`
	Instrument        string            `json:"instrument"`
	ScenarioName      string            `json:"scenario_name"`
	Direction         domain.Direction  `json:"direction"`
	ExitReason        domain.ExitReason `json:"exit_reason,omitempty"`
	EntryPrice        float64           `json:"entry_price"`
	StepPoints        float64           `json:"step_points"`
	TotalTargetPoints float64           `json:"total_target_points"`
	StopLossPrice     float64           `json:"stop_loss_price"`
	ExitPrice         float64           `json:"exit_price,omitempty"`
	Profit            float64           `json:"profit,omitempty"`
}

// IsOpen reports whether the position has no close record
func (p PositionRecord) IsOpen() bool {
	return p.ClosedAt == nil
}

// MilestoneEvent is one non-neutral milestone result of a position
type MilestoneEvent struct {
	RecordedAt          time.Time         `json:"recorded_at"`
	PositionID          string            `json:"position_id"`
	Reason              domain.ExitReason `json:"reason"`
	ID                  int64             `json:"id"`
	Price               float64           `json:"price"`
	Profit              float64           `json:"profit"`
	ReleasedPoints      float64           `json:"released_points"`
	TotalReleasedProfit float64           `json:"total_released_profit"`
	MilestoneIndex      int               `json:"milestone_index"`
	ExitRequired        bool              `json:"exit_required"`
}

// ExitReasonReset marks positions dropped by a destructive state reset
const ExitReasonReset domain.ExitReason = "STATE_RESET"
