package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/observability"
)

// DefaultStaleAfter is how long the tick stream may be silent before a reset
const DefaultStaleAfter = 5 * time.Minute

// TickStateResetter is the tick processor as seen by the watchdog
type TickStateResetter interface {
	LastTickAt() time.Time
	ResetIfIdleSince(lastTick time.Time, reason string) (int, bool)
}

// WatchdogJob resets all trading state when no tick arrived for staleAfter.
// It fires at most once per silent period: a new tick re-arms it.
type WatchdogJob struct {
	target     TickStateResetter
	metrics    *observability.Metrics
	staleAfter time.Duration
	now        func() time.Time

	mu        sync.Mutex
	resetFor  time.Time // last tick time already reset for
	lastReset time.Time

	log zerolog.Logger
}

// NewWatchdogJob creates a new watchdog job. metrics may be nil.
func NewWatchdogJob(target TickStateResetter, staleAfter time.Duration, metrics *observability.Metrics, log zerolog.Logger) *WatchdogJob {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &WatchdogJob{
		target:     target,
		metrics:    metrics,
		staleAfter: staleAfter,
		now:        time.Now,
		log:        log.With().Str("job", "tick_watchdog").Logger(),
	}
}

// Name returns the job name
func (j *WatchdogJob) Name() string {
	return "tick_watchdog"
}

// Run checks tick freshness and resets state when the stream went stale
func (j *WatchdogJob) Run() error {
	last := j.target.LastTickAt()
	if last.IsZero() {
		j.log.Debug().Msg("No ticks yet")
		return nil
	}

	silence := j.now().Sub(last)
	if silence < j.staleAfter {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if last.Equal(j.resetFor) {
		return nil
	}

	reason := fmt.Sprintf("no ticks for %s", silence.Truncate(time.Second))
	dropped, ok := j.target.ResetIfIdleSince(last, reason)
	if !ok {
		j.log.Debug().Time("last_tick", last).Msg("Tick arrived during staleness check, reset skipped")
		return nil
	}
	j.resetFor = last
	j.lastReset = j.now()

	if j.metrics != nil {
		j.metrics.WatchdogResets.Inc()
	}
	j.log.Warn().
		Time("last_tick", last).
		Dur("silence", silence).
		Int("dropped_positions", dropped).
		Msg("Tick stream stale, state reset")

	return nil
}

// LastReset returns when the watchdog last reset state, zero if never
func (j *WatchdogJob) LastReset() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastReset
}
