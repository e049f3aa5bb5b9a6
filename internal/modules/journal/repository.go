package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/database"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/observability"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("journal record not found")

// Column order must match scanDecision / scanPosition
const (
	decisionColumns = `id, instrument, evaluated_at, should_enter, scenario_name, direction,
		confidence, quality_score, reason, category_scores`
	positionColumns = `id, instrument, scenario_name, direction, entry_price, step_points,
		total_target_points, stop_loss_price, opened_at, closed_at, exit_reason, exit_price, profit`
)

// Repository handles journal database operations
type Repository struct {
	db      *sql.DB
	metrics *observability.Metrics
	log     zerolog.Logger
}

// NewRepository creates a new journal repository. metrics may be nil.
func NewRepository(db *sql.DB, metrics *observability.Metrics, log zerolog.Logger) *Repository {
	return &Repository{
		db:      db,
		metrics: metrics,
		log:     log.With().Str("repo", "journal").Logger(),
	}
}

func (r *Repository) observe(operation string, start time.Time, err error) {
	if r.metrics != nil {
		r.metrics.RecordDBQuery(operation, time.Since(start).Seconds(), err)
	}
}

// RecordDecision stores an entry decision together with the msgpack-encoded
// snapshot it was evaluated on. snapshot may be nil.
func (r *Repository) RecordDecision(instrument string, d domain.EntryDecision, snapshot *domain.Snapshot) (id int64, err error) {
	start := time.Now()
	defer func() { r.observe("record_decision", start, err) }()

	scores, err := json.Marshal(d.CategoryScoresUsed)
	if err != nil {
		return 0, fmt.Errorf("failed to encode category scores: %w", err)
	}

	var blob []byte
	if snapshot != nil {
		blob, err = msgpack.Marshal(snapshot)
		if err != nil {
			return 0, fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}

	res, err := r.db.Exec(`
		INSERT INTO decisions
		(instrument, evaluated_at, should_enter, scenario_name, direction, confidence,
		 quality_score, reason, category_scores, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		instrument,
		d.EvaluatedAt.UnixMilli(),
		boolToInt(d.ShouldEnter),
		nullString(d.ScenarioName),
		nullString(string(d.Direction)),
		d.Confidence,
		d.QualityScore,
		d.Reason,
		string(scores),
		blob,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert decision: %w", err)
	}

	return res.LastInsertId()
}

// RecentDecisions returns the most recent decisions first. An empty instrument
// matches all instruments.
func (r *Repository) RecentDecisions(instrument string, limit int) (out []DecisionRecord, err error) {
	start := time.Now()
	defer func() { r.observe("recent_decisions", start, err) }()

	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + decisionColumns + " FROM decisions"
	args := []interface{}{}
	if instrument != "" {
		query += " WHERE instrument = ?"
		args = append(args, instrument)
	}
	query += " ORDER BY evaluated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return out, nil
}

// DecisionSnapshot decodes the snapshot stored with a decision
func (r *Repository) DecisionSnapshot(id int64) (*domain.Snapshot, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT snapshot FROM decisions WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var s domain.Snapshot
	if err := msgpack.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// OpenPosition inserts a newly opened position
func (r *Repository) OpenPosition(p PositionRecord) (err error) {
	start := time.Now()
	defer func() { r.observe("open_position", start, err) }()

	if p.ID == "" {
		return fmt.Errorf("position id is required")
	}

	_, err = r.db.Exec(`
		INSERT INTO positions
		(id, instrument, scenario_name, direction, entry_price, step_points,
		 total_target_points, stop_loss_price, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.Instrument,
		p.ScenarioName,
		string(p.Direction),
		p.EntryPrice,
		p.StepPoints,
		p.TotalTargetPoints,
		p.StopLossPrice,
		p.OpenedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert position %s: %w", p.ID, err)
	}

	r.log.Debug().Str("position_id", p.ID).Str("instrument", p.Instrument).Msg("Position journaled")
	return nil
}

// RecordMilestone stores a milestone result. Terminal results also close the
// position row in the same transaction.
func (r *Repository) RecordMilestone(positionID string, price float64, res domain.MilestoneResult, at time.Time) (err error) {
	start := time.Now()
	defer func() { r.observe("record_milestone", start, err) }()

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO milestone_events
			(position_id, reason, price, profit, released_points, total_released_profit,
			 milestone_index, exit_required, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			positionID,
			string(res.ExitReason),
			price,
			res.Profit,
			res.ReleasedPoints,
			res.TotalReleasedProfit,
			res.CurrentMilestoneIndex,
			boolToInt(res.ExitRequired),
			at.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to insert milestone event: %w", err)
		}

		if !res.ExitRequired {
			return nil
		}

		result, err := tx.Exec(`
			UPDATE positions
			SET closed_at = ?, exit_reason = ?, exit_price = ?, profit = ?
			WHERE id = ? AND closed_at IS NULL
		`, at.UnixMilli(), string(res.ExitReason), res.ExitPrice, res.Profit, positionID)
		if err != nil {
			return fmt.Errorf("failed to close position: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("position %s: %w", positionID, ErrNotFound)
		}
		return nil
	})
}

// CloseOpenPositions marks every open position closed with the given reason
// and returns how many rows changed.
func (r *Repository) CloseOpenPositions(reason domain.ExitReason, at time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { r.observe("close_open_positions", start, err) }()

	res, err := r.db.Exec(`
		UPDATE positions SET closed_at = ?, exit_reason = ?
		WHERE closed_at IS NULL
	`, at.UnixMilli(), string(reason))
	if err != nil {
		return 0, fmt.Errorf("failed to close open positions: %w", err)
	}
	return res.RowsAffected()
}

// GetPosition retrieves a position by id
func (r *Repository) GetPosition(id string) (*PositionRecord, error) {
	row := r.db.QueryRow("SELECT "+positionColumns+" FROM positions WHERE id = ?", id)
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &p, nil
}

// ListPositions returns positions, most recently opened first
func (r *Repository) ListPositions(openOnly bool, limit int) ([]PositionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + positionColumns + " FROM positions"
	if openOnly {
		query += " WHERE closed_at IS NULL"
	}
	query += " ORDER BY opened_at DESC LIMIT ?"

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var out []PositionRecord
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return out, nil
}

// MilestoneEvents returns the journaled milestone results of a position in order
func (r *Repository) MilestoneEvents(positionID string) ([]MilestoneEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, position_id, reason, price, profit, released_points,
		       total_released_profit, milestone_index, exit_required, recorded_at
		FROM milestone_events
		WHERE position_id = ?
		ORDER BY id ASC
	`, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestone events: %w", err)
	}
	defer rows.Close()

	var out []MilestoneEvent
	for rows.Next() {
		var (
			ev         MilestoneEvent
			reason     string
			exit       int
			recordedAt int64
		)
		if err := rows.Scan(
			&ev.ID, &ev.PositionID, &reason, &ev.Price, &ev.Profit, &ev.ReleasedPoints,
			&ev.TotalReleasedProfit, &ev.MilestoneIndex, &exit, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan milestone event: %w", err)
		}
		ev.Reason = domain.ExitReason(reason)
		ev.ExitRequired = exit != 0
		ev.RecordedAt = time.UnixMilli(recordedAt).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestone events: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(s scanner) (DecisionRecord, error) {
	var (
		rec         DecisionRecord
		evaluatedAt int64
		shouldEnter int
		scenario    sql.NullString
		direction   sql.NullString
		scores      string
	)

	if err := s.Scan(
		&rec.ID, &rec.Instrument, &evaluatedAt, &shouldEnter, &scenario, &direction,
		&rec.Confidence, &rec.QualityScore, &rec.Reason, &scores,
	); err != nil {
		return rec, err
	}

	rec.EvaluatedAt = time.UnixMilli(evaluatedAt).UTC()
	rec.ShouldEnter = shouldEnter != 0
	rec.ScenarioName = scenario.String
	rec.Direction = domain.Direction(direction.String)
	if err := json.Unmarshal([]byte(scores), &rec.CategoryScores); err != nil {
		return rec, fmt.Errorf("failed to decode category scores: %w", err)
	}
	return rec, nil
}

func scanPosition(s scanner) (PositionRecord, error) {
	var (
		p         PositionRecord
		direction string
		openedAt  int64
		closedAt  sql.NullInt64
		reason    sql.NullString
		exitPrice sql.NullFloat64
		profit    sql.NullFloat64
	)

	if err := s.Scan(
		&p.ID, &p.Instrument, &p.ScenarioName, &direction, &p.EntryPrice, &p.StepPoints,
		&p.TotalTargetPoints, &p.StopLossPrice, &openedAt, &closedAt, &reason, &exitPrice, &profit,
	); err != nil {
		return p, err
	}

	p.Direction = domain.Direction(direction)
	p.OpenedAt = time.UnixMilli(openedAt).UTC()
	if closedAt.Valid {
		t := time.UnixMilli(closedAt.Int64).UTC()
		p.ClosedAt = &t
	}
	p.ExitReason = domain.ExitReason(reason.String)
	p.ExitPrice = exitPrice.Float64
	p.Profit = profit.Float64
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
