package domain

import (
	"fmt"
	"strings"
)

// ExitReason explains why a milestone update produced a terminal or partial event
type ExitReason string

const (
	ExitReasonNone           ExitReason = ""
	ExitReasonStopLossHit    ExitReason = "STOPLOSS_HIT"
	ExitReasonFinalTargetHit ExitReason = "FINAL_TARGET_HIT"
)

// MilestoneHitReason returns the reason emitted when a non-final milestone is hit
func MilestoneHitReason(number int) ExitReason {
	return ExitReason(fmt.Sprintf("MILESTONE_%d_HIT", number))
}

// IsMilestoneHit reports whether the reason is a partial milestone release
func (r ExitReason) IsMilestoneHit() bool {
	return strings.HasPrefix(string(r), "MILESTONE_")
}

// Milestone is one staged profit target
type Milestone struct {
	Number      int     `json:"number"`
	Points      float64 `json:"points"`
	TargetPrice float64 `json:"target_price"`
	ProfitAtHit float64 `json:"profit_at_hit"`
	Hit         bool    `json:"hit"`
}

// MilestoneResult is produced for every price update of an open position
type MilestoneResult struct {
	ExitReason            ExitReason `json:"exit_reason,omitempty"`
	ExitPrice             float64    `json:"exit_price,omitempty"`
	Profit                float64    `json:"profit"`
	ReleasedPoints        float64    `json:"released_points,omitempty"`
	TotalReleasedProfit   float64    `json:"total_released_profit"`
	CurrentMilestoneIndex int        `json:"current_milestone_index"`
	ExitRequired          bool       `json:"exit_required"`
}
