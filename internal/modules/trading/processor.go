// Package trading drives the per-tick position lifecycle: it enriches snapshots
// with open-interest signals, evaluates entries when flat and feeds prices to the
// milestone exit machine while a position is open.
package trading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/events"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/evaluation"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/journal"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/milestones"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/openinterest"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/observability"
)

// ErrMissingInstrument is returned for snapshots without an instrument
var ErrMissingInstrument = errors.New("snapshot has no instrument")

const moduleName = "trading"

// Evaluator produces the entry evaluation report for a snapshot
type Evaluator interface {
	Evaluate(snapshot domain.Snapshot) evaluation.Evaluation
}

// Journal records decisions and position history
type Journal interface {
	RecordDecision(instrument string, d domain.EntryDecision, snapshot *domain.Snapshot) (int64, error)
	OpenPosition(p journal.PositionRecord) error
	RecordMilestone(positionID string, price float64, res domain.MilestoneResult, at time.Time) error
	CloseOpenPositions(reason domain.ExitReason, at time.Time) (int64, error)
}

var _ Journal = (*journal.Repository)(nil)

// TickResult describes what one tick did
type TickResult struct {
	Decision   *domain.EntryDecision   `json:"decision,omitempty"`
	Milestone  *domain.MilestoneResult `json:"milestone,omitempty"`
	Instrument string                  `json:"instrument"`
	PositionID string                  `json:"position_id,omitempty"`
	Buildup    openinterest.Buildup    `json:"oi_buildup"`
	Price      float64                 `json:"price"`
	Opened     bool                    `json:"opened"`
	Closed     bool                    `json:"closed"`
}

// Processor serializes ticks per instrument and owns all open positions.
//
// Ticks hold the read side of gate; Reset takes the write side so that no tick
// observes a half-reset state.
type Processor struct {
	evaluator Evaluator
	tracker   *openinterest.Tracker
	executor  domain.OrderExecutor
	journal   Journal
	events    *events.Manager
	metrics   *observability.Metrics

	// applied to risk fields a matched scenario leaves at zero
	defaultRisk domain.RiskManagement

	gate      sync.RWMutex
	locks     sync.Map // instrument -> *sync.Mutex
	mu        sync.RWMutex
	positions map[string]*Position // by instrument
	lastTick  atomic.Int64         // unix nanos

	now func() time.Time
	log zerolog.Logger
}

// NewProcessor creates a new tick processor. journal, eventManager and metrics may be nil.
func NewProcessor(
	evaluator Evaluator,
	tracker *openinterest.Tracker,
	executor domain.OrderExecutor,
	journalRepo Journal,
	eventManager *events.Manager,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		evaluator: evaluator,
		tracker:   tracker,
		executor:  executor,
		journal:   journalRepo,
		events:    eventManager,
		metrics:   metrics,
		positions: make(map[string]*Position),
		now:       time.Now,
		log:       log.With().Str("component", "tick_processor").Logger(),
	}
}

// SetDefaultRiskManagement sets the exit parameters used for risk fields a
// scenario does not declare. Call before the first tick.
func (p *Processor) SetDefaultRiskManagement(rm domain.RiskManagement) {
	p.defaultRisk = rm
}

func (p *Processor) riskFor(decision domain.EntryDecision) domain.RiskManagement {
	rm := decision.RiskManagement
	if rm.MilestonePoints <= 0 {
		rm.MilestonePoints = p.defaultRisk.MilestonePoints
	}
	if rm.MaxStopLossPoints <= 0 {
		rm.MaxStopLossPoints = p.defaultRisk.MaxStopLossPoints
	}
	if rm.TotalTargetPoints <= 0 {
		rm.TotalTargetPoints = p.defaultRisk.TotalTargetPoints
	}
	return rm
}

func (p *Processor) instrumentLock(instrument string) *sync.Mutex {
	l, _ := p.locks.LoadOrStore(instrument, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// ProcessTick runs one snapshot through the position lifecycle.
// Ticks of the same instrument are applied strictly in call order.
func (p *Processor) ProcessTick(ctx context.Context, snapshot domain.Snapshot) (TickResult, error) {
	if snapshot.Instrument == "" {
		return TickResult{}, ErrMissingInstrument
	}

	p.gate.RLock()
	defer p.gate.RUnlock()

	lock := p.instrumentLock(snapshot.Instrument)
	lock.Lock()
	defer lock.Unlock()

	start := p.now()
	defer func() {
		p.lastTick.Store(start.UnixNano())
		if p.metrics != nil {
			p.metrics.RecordTick(snapshot.Instrument, start, p.now().Sub(start))
		}
	}()

	enriched, buildup := p.tracker.Enrich(snapshot)
	result := TickResult{
		Instrument: snapshot.Instrument,
		Buildup:    buildup,
		Price:      enriched.CurrentPrice(),
	}

	p.mu.RLock()
	pos := p.positions[snapshot.Instrument]
	p.mu.RUnlock()

	if pos != nil {
		return p.manage(ctx, pos, result)
	}
	return p.evaluate(ctx, enriched, result)
}

func (p *Processor) manage(ctx context.Context, pos *Position, result TickResult) (TickResult, error) {
	result.PositionID = pos.id

	// A snapshot without a usable price says nothing about the premium; feeding
	// it to the machine would read as a full loss and trip the stop.
	if result.Price <= 0 || math.IsNaN(result.Price) || math.IsInf(result.Price, 0) {
		p.log.Warn().
			Str("position_id", pos.id).
			Str("instrument", pos.instrument).
			Float64("price", result.Price).
			Msg("Price missing, position left unchanged")
		return result, nil
	}

	res := pos.system.ProcessPrice(result.Price)
	result.Milestone = &res
	at := p.now()
	defer p.publish(pos)

	if res.ExitReason != domain.ExitReasonNone && !pos.exitJournaled {
		p.journalMilestone(pos, result.Price, res, at)
		if res.ExitRequired {
			pos.exitJournaled = true
		}
	}

	if !res.ExitRequired {
		if res.ExitReason.IsMilestoneHit() {
			if p.metrics != nil {
				p.metrics.MilestonesHit.Inc()
			}
			p.emit(&events.MilestoneHitData{
				PositionID:          pos.id,
				Instrument:          pos.instrument,
				Reason:              string(res.ExitReason),
				Price:               result.Price,
				ReleasedPoints:      res.ReleasedPoints,
				TotalReleasedProfit: res.TotalReleasedProfit,
				MilestoneIndex:      res.CurrentMilestoneIndex,
			})
		}
		return result, nil
	}

	// The machine stays closed on failure, so the next tick retries the exit.
	if err := p.executor.Exit(ctx, pos.instrument, pos.id, res); err != nil {
		p.executorFailed("exit", pos.instrument, pos.id, err)
		return result, fmt.Errorf("failed to exit position %s: %w", pos.id, err)
	}

	p.mu.Lock()
	delete(p.positions, pos.instrument)
	p.mu.Unlock()

	result.Closed = true
	if p.metrics != nil {
		p.metrics.RecordPositionClosed(string(res.ExitReason), res.Profit)
	}
	p.emit(&events.PositionClosedData{
		PositionID:          pos.id,
		Instrument:          pos.instrument,
		Reason:              string(res.ExitReason),
		ExitPrice:           res.ExitPrice,
		Profit:              res.Profit,
		TotalReleasedProfit: res.TotalReleasedProfit,
	})

	p.log.Info().
		Str("position_id", pos.id).
		Str("instrument", pos.instrument).
		Str("reason", string(res.ExitReason)).
		Float64("exit_price", res.ExitPrice).
		Float64("profit", res.Profit).
		Msg("Position closed")

	return result, nil
}

func (p *Processor) evaluate(ctx context.Context, snapshot domain.Snapshot, result TickResult) (TickResult, error) {
	report := p.evaluator.Evaluate(snapshot)
	decision := report.Decision
	result.Decision = &decision

	if p.metrics != nil {
		p.metrics.RecordDecision(string(decision.Direction), decision.ShouldEnter, report.Condition.IsFlat)
	}
	if p.journal != nil {
		if _, err := p.journal.RecordDecision(snapshot.Instrument, decision, &snapshot); err != nil {
			p.journalFailed("record_decision", snapshot.Instrument, err)
		}
	}
	p.emit(&events.EntryDecidedData{
		Instrument:   snapshot.Instrument,
		Scenario:     decision.ScenarioName,
		Direction:    string(decision.Direction),
		Reason:       decision.Reason,
		Confidence:   decision.Confidence,
		QualityScore: decision.QualityScore,
		ShouldEnter:  decision.ShouldEnter,
	})

	if !decision.ShouldEnter {
		return result, nil
	}
	if result.Price <= 0 {
		p.log.Warn().Str("instrument", snapshot.Instrument).Msg("Entry skipped: snapshot has no price")
		return result, nil
	}

	pos := &Position{
		openedAt:   p.now(),
		system:     milestones.Initialize(result.Price, decision.Direction, p.riskFor(decision)),
		id:         uuid.NewString(),
		instrument: snapshot.Instrument,
		scenario:   decision.ScenarioName,
		direction:  decision.Direction,
		entryPrice: result.Price,
	}

	if err := p.executor.Enter(ctx, pos.instrument, pos.id, decision, pos.entryPrice); err != nil {
		p.executorFailed("enter", pos.instrument, pos.id, err)
		return result, fmt.Errorf("failed to enter position: %w", err)
	}

	p.mu.Lock()
	pos.snapshot = pos.view()
	p.positions[pos.instrument] = pos
	p.mu.Unlock()

	result.Opened = true
	result.PositionID = pos.id

	if p.journal != nil {
		summary := pos.system.Summary()
		if err := p.journal.OpenPosition(journal.PositionRecord{
			OpenedAt:          pos.openedAt,
			ID:                pos.id,
			Instrument:        pos.instrument,
			ScenarioName:      pos.scenario,
			Direction:         pos.direction,
			EntryPrice:        pos.entryPrice,
			StepPoints:        summary.StepPoints,
			TotalTargetPoints: summary.TotalTargetPoints,
			StopLossPrice:     summary.StopLossPrice,
		}); err != nil {
			p.journalFailed("open_position", pos.instrument, err)
		}
	}
	if p.metrics != nil {
		p.metrics.RecordPositionOpened()
	}
	p.emit(&events.PositionOpenedData{
		PositionID: pos.id,
		Instrument: pos.instrument,
		Scenario:   pos.scenario,
		Direction:  string(pos.direction),
		EntryPrice: pos.entryPrice,
	})

	p.log.Info().
		Str("position_id", pos.id).
		Str("instrument", pos.instrument).
		Str("scenario", pos.scenario).
		Str("direction", string(pos.direction)).
		Float64("entry_price", pos.entryPrice).
		Msg("Position opened")

	return result, nil
}

// Reset drops every open position and all open-interest history. It waits for
// in-flight ticks to finish and blocks new ones until done. Returns the number
// of dropped positions.
func (p *Processor) Reset(reason string) int {
	p.gate.Lock()
	defer p.gate.Unlock()
	return p.resetLocked(reason)
}

// ResetIfIdleSince resets like Reset, but only when no tick was processed after
// lastTick. The check runs under the same lock as the reset, so a tick racing
// with the caller's staleness check cancels it. Reports whether it reset.
func (p *Processor) ResetIfIdleSince(lastTick time.Time, reason string) (int, bool) {
	p.gate.Lock()
	defer p.gate.Unlock()

	if !p.LastTickAt().Equal(lastTick) {
		p.log.Debug().Str("reason", reason).Msg("Reset skipped: a tick arrived")
		return 0, false
	}
	return p.resetLocked(reason), true
}

func (p *Processor) resetLocked(reason string) int {
	p.mu.Lock()
	dropped := len(p.positions)
	p.positions = make(map[string]*Position)
	p.mu.Unlock()

	p.tracker.Reset()

	if p.journal != nil && dropped > 0 {
		if _, err := p.journal.CloseOpenPositions(journal.ExitReasonReset, p.now()); err != nil {
			p.journalFailed("close_open_positions", "", err)
		}
	}
	if p.metrics != nil {
		p.metrics.OpenPositions.Set(0)
	}
	p.emit(&events.StateResetData{Reason: reason, DroppedPositions: dropped})

	p.log.Warn().Str("reason", reason).Int("dropped_positions", dropped).Msg("Trading state reset")
	return dropped
}

// LastTickAt returns the wall-clock time of the last processed tick, zero if none
func (p *Processor) LastTickAt() time.Time {
	n := p.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Positions returns views of all open positions ordered by instrument
func (p *Processor) Positions() []PositionView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]PositionView, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos.snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}

// Position returns the open position with the given id
func (p *Processor) Position(id string) (PositionView, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, pos := range p.positions {
		if pos.id == id {
			return pos.snapshot, true
		}
	}
	return PositionView{}, false
}

// publish refreshes the view served by Positions. Caller holds the instrument lock.
func (p *Processor) publish(pos *Position) {
	v := pos.view()
	p.mu.Lock()
	pos.snapshot = v
	p.mu.Unlock()
}

func (p *Processor) journalMilestone(pos *Position, price float64, res domain.MilestoneResult, at time.Time) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordMilestone(pos.id, price, res, at); err != nil {
		p.journalFailed("record_milestone", pos.instrument, err)
	}
}

func (p *Processor) journalFailed(operation, instrument string, err error) {
	p.log.Error().Err(err).Str("operation", operation).Str("instrument", instrument).Msg("Journal write failed")
	if p.events != nil {
		p.events.EmitError(moduleName, err, map[string]interface{}{
			"operation":  operation,
			"instrument": instrument,
		})
	}
}

func (p *Processor) executorFailed(operation, instrument, positionID string, err error) {
	p.log.Error().Err(err).Str("operation", operation).Str("position_id", positionID).Msg("Order executor failed")
	if p.metrics != nil {
		p.metrics.ExecutorErrors.WithLabelValues(operation).Inc()
	}
	if p.events != nil {
		p.events.EmitError(moduleName, err, map[string]interface{}{
			"operation":   operation,
			"instrument":  instrument,
			"position_id": positionID,
		})
	}
}

func (p *Processor) emit(data events.EventData) {
	if p.events != nil {
		p.events.Emit(moduleName, data)
	}
}
