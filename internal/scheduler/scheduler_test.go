package scheduler

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/database"
	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/observability"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"seconds field", "*/15 * * * * *", false},
		{"five fields", "*/5 * * * *", false},
		{"descriptor", "@every 30s", false},
		{"invalid", "not a schedule", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddJob(tt.schedule, &countingJob{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("failing job keeps its schedule")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

type fakeProcessor struct {
	mu       sync.Mutex
	lastTick time.Time
	resets   []string

	// a tick lands between the watchdog's staleness check and its reset
	tickDuringCheck bool
}

func (f *fakeProcessor) LastTickAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTick
}

func (f *fakeProcessor) ResetIfIdleSince(lastTick time.Time, reason string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tickDuringCheck {
		f.tickDuringCheck = false
		f.lastTick = f.lastTick.Add(time.Second)
	}
	if !f.lastTick.Equal(lastTick) {
		return 0, false
	}
	f.resets = append(f.resets, reason)
	return 2, true
}

func TestWatchdogJob(t *testing.T) {
	base := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	target := &fakeProcessor{}
	metrics := observability.NewMetrics("watchdog_test", prometheus.NewRegistry())
	job := NewWatchdogJob(target, time.Minute, metrics, zerolog.Nop())
	now := base
	job.now = func() time.Time { return now }

	assert.Equal(t, "tick_watchdog", job.Name())

	// no ticks yet
	require.NoError(t, job.Run())
	assert.Empty(t, target.resets)

	target.lastTick = base
	now = base.Add(30 * time.Second)
	require.NoError(t, job.Run())
	assert.Empty(t, target.resets)

	now = base.Add(90 * time.Second)
	require.NoError(t, job.Run())
	require.Len(t, target.resets, 1)
	assert.Equal(t, "no ticks for 1m30s", target.resets[0])
	assert.Equal(t, now, job.LastReset())

	// still silent: fires once per silent period
	now = base.Add(5 * time.Minute)
	require.NoError(t, job.Run())
	assert.Len(t, target.resets, 1)

	// a new tick re-arms the watchdog
	target.lastTick = now
	now = now.Add(2 * time.Minute)
	require.NoError(t, job.Run())
	assert.Len(t, target.resets, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.WatchdogResets))
}

func TestWatchdogJob_TickDuringCheckCancelsReset(t *testing.T) {
	base := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	target := &fakeProcessor{lastTick: base, tickDuringCheck: true}
	metrics := observability.NewMetrics("watchdog_race_test", prometheus.NewRegistry())
	job := NewWatchdogJob(target, time.Minute, metrics, zerolog.Nop())
	now := base.Add(2 * time.Minute)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run())
	assert.Empty(t, target.resets)
	assert.True(t, job.LastReset().IsZero())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WatchdogResets))

	// the stream goes silent again after that tick
	now = now.Add(2 * time.Minute)
	require.NoError(t, job.Run())
	assert.Len(t, target.resets, 1)
}

func TestNewWatchdogJob_DefaultStaleAfter(t *testing.T) {
	job := NewWatchdogJob(&fakeProcessor{}, 0, nil, zerolog.Nop())
	assert.Equal(t, DefaultStaleAfter, job.staleAfter)
}

func TestJournalCheckpointJob(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "journal.db"),
		Profile: database.ProfileJournal,
		Name:    "journal",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	job := NewJournalCheckpointJob(db, zerolog.Nop())
	assert.Equal(t, "journal_checkpoint", job.Name())
	assert.NoError(t, job.Run())

	assert.NoError(t, NewJournalCheckpointJob(nil, zerolog.Nop()).Run())
}
