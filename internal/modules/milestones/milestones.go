// Package milestones implements the staged profit-release exit machine of one
// open position.
package milestones

import (
	"math"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// DefaultStepPoints is used when the risk parameters carry no milestone step
const DefaultStepPoints = 5.0

// State of the exit machine
type State string

const (
	StateAwaitingFirstTarget State = "AWAITING_FIRST_TARGET"
	StatePartiallyReleased   State = "PARTIALLY_RELEASED"
	StateClosed              State = "CLOSED"
)

// MilestoneSystem tracks the milestone ladder of a single position.
// It is not safe for concurrent use; callers apply prices in arrival order.
type MilestoneSystem struct {
	direction     domain.Direction
	entryPrice    float64
	stopLossPrice float64
	stepPoints    float64
	totalPoints   float64
	milestones    []domain.Milestone
	history       []domain.MilestoneResult

	currentIndex   int
	totalReleased  float64
	highestProfit  float64
	lowestProfit   float64
	lastPrice      float64
	closed         bool
	terminalResult domain.MilestoneResult
}

// Initialize builds the ladder for a position entered at entryPrice.
//
// Step defaults to DefaultStepPoints, the total target to three steps and the
// stop-loss distance to one step. Milestone k sits at min(k*step, total) points.
// Profit is price - entry for both directions since both legs are long premium.
func Initialize(entryPrice float64, direction domain.Direction, rm domain.RiskManagement) *MilestoneSystem {
	step := rm.MilestonePoints
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = DefaultStepPoints
	}
	total := rm.TotalTargetPoints
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		total = 3 * step
	}
	stop := rm.MaxStopLossPoints
	if stop <= 0 || math.IsNaN(stop) || math.IsInf(stop, 0) {
		stop = step
	}

	count := int(math.Ceil(total / step))
	milestones := make([]domain.Milestone, count)
	for k := 1; k <= count; k++ {
		points := math.Min(float64(k)*step, total)
		milestones[k-1] = domain.Milestone{
			Number:      k,
			Points:      points,
			TargetPrice: entryPrice + points,
		}
	}

	return &MilestoneSystem{
		direction:     direction,
		entryPrice:    entryPrice,
		stopLossPrice: entryPrice - stop,
		stepPoints:    step,
		totalPoints:   total,
		milestones:    milestones,
		lastPrice:     entryPrice,
	}
}

// ProcessPrice applies one price update.
//
// Every not-yet-hit milestone whose target is reached is marked, so a price gap
// can release several at once. Hitting the last one closes the position with
// FINAL_TARGET_HIT. The stop-loss is only armed before the first milestone.
// Once closed, the stored terminal result is returned and nothing changes.
func (m *MilestoneSystem) ProcessPrice(price float64) domain.MilestoneResult {
	if m.closed {
		return m.terminalResult
	}

	profit := price - m.entryPrice
	m.lastPrice = price
	if profit > m.highestProfit {
		m.highestProfit = profit
	}
	if profit < m.lowestProfit {
		m.lowestProfit = profit
	}

	var released float64
	lastHit := -1
	for i := m.currentIndex; i < len(m.milestones); i++ {
		ms := &m.milestones[i]
		if ms.Hit || price < ms.TargetPrice {
			continue
		}
		prevPoints := 0.0
		if i > 0 {
			prevPoints = m.milestones[i-1].Points
		}
		ms.Hit = true
		ms.ProfitAtHit = profit
		released += ms.Points - prevPoints
		lastHit = i
	}

	if lastHit >= 0 {
		m.totalReleased += released
		m.currentIndex = lastHit + 1

		if m.currentIndex == len(m.milestones) {
			return m.close(domain.MilestoneResult{
				ExitReason:     domain.ExitReasonFinalTargetHit,
				ExitPrice:      price,
				Profit:         profit,
				ReleasedPoints: released,
			})
		}

		result := m.status(profit)
		result.ExitReason = domain.MilestoneHitReason(m.milestones[lastHit].Number)
		result.ReleasedPoints = released
		m.history = append(m.history, result)
		return result
	}

	if m.currentIndex == 0 && price <= m.stopLossPrice {
		return m.close(domain.MilestoneResult{
			ExitReason: domain.ExitReasonStopLossHit,
			ExitPrice:  price,
			Profit:     profit,
		})
	}

	return m.status(profit)
}

func (m *MilestoneSystem) status(profit float64) domain.MilestoneResult {
	return domain.MilestoneResult{
		Profit:                profit,
		TotalReleasedProfit:   m.totalReleased,
		CurrentMilestoneIndex: m.currentIndex,
	}
}

func (m *MilestoneSystem) close(result domain.MilestoneResult) domain.MilestoneResult {
	result.TotalReleasedProfit = m.totalReleased
	result.CurrentMilestoneIndex = m.currentIndex
	result.ExitRequired = true

	m.closed = true
	m.terminalResult = result
	m.history = append(m.history, result)
	return result
}

// State returns the lifecycle state
func (m *MilestoneSystem) State() State {
	switch {
	case m.closed:
		return StateClosed
	case m.currentIndex == 0:
		return StateAwaitingFirstTarget
	default:
		return StatePartiallyReleased
	}
}

// History returns a copy of every milestone hit and the terminal exit, in order
func (m *MilestoneSystem) History() []domain.MilestoneResult {
	out := make([]domain.MilestoneResult, len(m.history))
	copy(out, m.history)
	return out
}

// Milestones returns a copy of the ladder
func (m *MilestoneSystem) Milestones() []domain.Milestone {
	out := make([]domain.Milestone, len(m.milestones))
	copy(out, m.milestones)
	return out
}

// Summary is a point-in-time view of the machine for reporting
type Summary struct {
	Milestones          []domain.Milestone `json:"milestones"`
	Direction           domain.Direction   `json:"direction"`
	State               State              `json:"state"`
	EntryPrice          float64            `json:"entry_price"`
	StopLossPrice       float64            `json:"stop_loss_price"`
	StepPoints          float64            `json:"step_points"`
	TotalTargetPoints   float64            `json:"total_target_points"`
	LastPrice           float64            `json:"last_price"`
	HighestProfit       float64            `json:"highest_profit"`
	LowestProfit        float64            `json:"lowest_profit"`
	TotalReleasedProfit float64            `json:"total_released_profit"`
	CurrentIndex        int                `json:"current_milestone_index"`
}

// Summary returns the current view of the machine
func (m *MilestoneSystem) Summary() Summary {
	return Summary{
		Milestones:          m.Milestones(),
		Direction:           m.direction,
		State:               m.State(),
		EntryPrice:          m.entryPrice,
		StopLossPrice:       m.stopLossPrice,
		StepPoints:          m.stepPoints,
		TotalTargetPoints:   m.totalPoints,
		LastPrice:           m.lastPrice,
		HighestProfit:       m.highestProfit,
		LowestProfit:        m.lowestProfit,
		TotalReleasedProfit: m.totalReleased,
		CurrentIndex:        m.currentIndex,
	}
}
