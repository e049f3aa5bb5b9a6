package trading

import (
	"time"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/milestones"
)

// Position is an open long-premium position and its exit machine.
// Guarded by the owning instrument's lock, except snapshot which is guarded
// by the processor's position map lock.
type Position struct {
	openedAt   time.Time
	system     *milestones.MilestoneSystem
	id         string
	instrument string
	scenario   string
	direction  domain.Direction
	entryPrice float64

	// terminal result already journaled; only the executor exit is pending
	exitJournaled bool

	// last published view, served to readers that do not hold the instrument lock
	snapshot PositionView
}

// PositionView is a read-only copy of a position for API consumers
type PositionView struct {
	OpenedAt   time.Time          `json:"opened_at"`
	ID         string             `json:"id"`
	Instrument string             `json:"instrument"`
	Scenario   string             `json:"scenario"`
	Direction  domain.Direction   `json:"direction"`
	Milestones milestones.Summary `json:"milestones"`
	EntryPrice float64            `json:"entry_price"`
}

func (p *Position) view() PositionView {
	return PositionView{
		OpenedAt:   p.openedAt,
		ID:         p.id,
		Instrument: p.instrument,
		Scenario:   p.scenario,
		Direction:  p.direction,
		Milestones: p.system.Summary(),
		EntryPrice: p.entryPrice,
	}
}
