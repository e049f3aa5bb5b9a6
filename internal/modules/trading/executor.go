package trading

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

// PaperExecutor is an OrderExecutor that only logs orders
type PaperExecutor struct {
	log zerolog.Logger
}

// NewPaperExecutor creates a new paper executor
func NewPaperExecutor(log zerolog.Logger) *PaperExecutor {
	return &PaperExecutor{
		log: log.With().Str("component", "paper_executor").Logger(),
	}
}

var _ domain.OrderExecutor = (*PaperExecutor)(nil)

// Enter logs a simulated entry order
func (e *PaperExecutor) Enter(ctx context.Context, instrument, positionID string, decision domain.EntryDecision, price float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.log.Info().
		Str("instrument", instrument).
		Str("position_id", positionID).
		Str("direction", string(decision.Direction)).
		Str("scenario", decision.ScenarioName).
		Float64("price", price).
		Msg("Paper entry order")
	return nil
}

// Exit logs a simulated exit order
func (e *PaperExecutor) Exit(ctx context.Context, instrument, positionID string, result domain.MilestoneResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.log.Info().
		Str("instrument", instrument).
		Str("position_id", positionID).
		Str("reason", string(result.ExitReason)).
		Float64("exit_price", result.ExitPrice).
		Float64("profit", result.Profit).
		Msg("Paper exit order")
	return nil
}
