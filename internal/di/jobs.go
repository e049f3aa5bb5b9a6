// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/config"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers the maintenance jobs.
// Returns JobInstances for manual triggering via API.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		Watchdog: scheduler.NewWatchdogJob(
			container.Processor,
			cfg.Watchdog.StaleAfter,
			container.Metrics,
			log,
		),
		JournalCheckpoint: scheduler.NewJournalCheckpointJob(container.JournalDB, log),
	}

	sched := scheduler.New(log)
	if cfg.Watchdog.Enabled {
		if err := sched.AddJob(cfg.Watchdog.Schedule, instances.Watchdog); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("Tick watchdog disabled, stale state will not be reset")
	}
	if err := sched.AddJob(cfg.Watchdog.CheckpointSchedule, instances.JournalCheckpoint); err != nil {
		return nil, err
	}
	container.Scheduler = sched

	return instances, nil
}
