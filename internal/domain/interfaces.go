package domain

import "context"

// OrderExecutor is the order-management collaborator. The core never places
// orders itself; it hands decisions and exit results to this interface.
type OrderExecutor interface {
	// Enter opens a long-premium position for the decision's direction
	Enter(ctx context.Context, instrument, positionID string, decision EntryDecision, price float64) error

	// Exit closes the position described by a terminal milestone result
	Exit(ctx context.Context, instrument, positionID string, result MilestoneResult) error
}

// EntryEvaluator turns a snapshot into an entry decision without side effects
type EntryEvaluator interface {
	EvaluateEntry(snapshot Snapshot) EntryDecision
}
