/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/database"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/events"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/evaluation"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/journal"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/openinterest"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/scenarios"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/modules/trading"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/observability"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Database: a single journal database (decisions, positions, milestone events)
 * - Observability: a private Prometheus registry plus the metric set
 * - Decision core: scenario document, evaluation engine, OI tracker
 * - Trading: tick processor and order executor
 * - Scheduler: cron runner for the watchdog and journal maintenance
 */
type Container struct {
	// Database
	JournalDB *database.DB // Append-mostly trading record, full fsync

	// Repositories
	JournalRepo *journal.Repository

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Decision core
	Scenarios    *scenarios.Document
	Engine       *evaluation.Engine
	OIStore      openinterest.Store
	OITracker    *openinterest.Tracker
	EventManager *events.Manager

	// Trading
	Executor  *trading.PaperExecutor
	Processor *trading.Processor

	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to registered jobs for manual triggering via API
type JobInstances struct {
	Watchdog          *scheduler.WatchdogJob
	JournalCheckpoint *scheduler.JournalCheckpointJob
}

// All returns the registered jobs keyed by name
func (j *JobInstances) All() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job)
	if j == nil {
		return jobs
	}
	if j.Watchdog != nil {
		jobs[j.Watchdog.Name()] = j.Watchdog
	}
	if j.JournalCheckpoint != nil {
		jobs[j.JournalCheckpoint.Name()] = j.JournalCheckpoint
	}
	return jobs
}
