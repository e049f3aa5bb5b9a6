package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/database"
)

// largeWALFrames is the WAL size above which a truncating checkpoint is forced
const largeWALFrames = 1000

// JournalCheckpointJob monitors the journal WAL and truncates it when it grows large
type JournalCheckpointJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewJournalCheckpointJob creates a new JournalCheckpointJob
func NewJournalCheckpointJob(db *database.DB, log zerolog.Logger) *JournalCheckpointJob {
	return &JournalCheckpointJob{
		db:  db,
		log: log.With().Str("job", "journal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *JournalCheckpointJob) Name() string {
	return "journal_checkpoint"
}

// Run executes the checkpoint check
func (j *JournalCheckpointJob) Run() error {
	if j.db == nil {
		return nil
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, walFrames, checkpointed int
	if err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &walFrames, &checkpointed); err != nil {
		return fmt.Errorf("failed to check WAL checkpoint for %s: %w", j.db.Name(), err)
	}

	if walFrames <= largeWALFrames {
		j.log.Debug().Int("wal_frames", walFrames).Msg("WAL checkpoint status OK")
		return nil
	}

	j.log.Warn().
		Int("wal_frames", walFrames).
		Int("checkpointed", checkpointed).
		Msg("WAL file is large, truncating")

	return j.db.WALCheckpoint("TRUNCATE")
}
