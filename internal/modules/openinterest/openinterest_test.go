package openinterest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		prev, curr  float64
		priceChange float64
		want        Buildup
		bullish     bool
		bearish     bool
	}{
		{"long buildup", 100, 120, 5, LongBuildup, true, false},
		{"short buildup", 100, 120, -5, ShortBuildup, false, true},
		{"short covering", 100, 80, 5, ShortCovering, true, false},
		{"long unwinding", 100, 80, -5, LongUnwinding, false, true},
		{"flat oi", 100, 100, 5, NeutralBuildup, false, false},
		{"flat price", 100, 120, 0, NeutralBuildup, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.prev, tt.curr, tt.priceChange)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.bullish, got.Bullish())
			assert.Equal(t, tt.bearish, got.Bearish())
		})
	}
}

func tick(instrument string, price, oi float64) domain.Snapshot {
	return domain.Snapshot{
		Instrument: instrument,
		Price:      price,
		Numbers:    map[string]float64{domain.NumberOpenInterest: oi},
		Booleans:   map[string]bool{"green_candle_5min": true},
	}
}

func TestTracker_Enrich(t *testing.T) {
	store := NewMemoryStore()
	tracker := NewTracker(store, zerolog.Nop())

	first, buildup := tracker.Enrich(tick("NIFTY", 100, 1000))
	assert.Equal(t, NeutralBuildup, buildup)
	assert.True(t, first.HasBool(string(domain.OIBullish)))
	assert.False(t, first.Bool(string(domain.OIBullish)))
	assert.False(t, first.Bool(string(domain.OIBearish)))
	assert.True(t, first.Bool("green_candle_5min"))

	second, buildup := tracker.Enrich(tick("NIFTY", 104, 1200))
	assert.Equal(t, LongBuildup, buildup)
	assert.True(t, second.Bool(string(domain.OIBullish)))
	assert.False(t, second.Bool(string(domain.OIBearish)))

	third, buildup := tracker.Enrich(tick("NIFTY", 101, 1100))
	assert.Equal(t, LongUnwinding, buildup)
	assert.True(t, third.Bool(string(domain.OIBearish)))

	r, ok := store.Get("NIFTY")
	require.True(t, ok)
	assert.Equal(t, Reading{OpenInterest: 1100, Price: 101}, r)
}

func TestTracker_EnrichDoesNotMutateInput(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), zerolog.Nop())
	in := tick("NIFTY", 100, 1000)

	tracker.Enrich(in)

	assert.False(t, in.HasBool(string(domain.OIBullish)))
}

func TestTracker_MissingOpenInterest(t *testing.T) {
	store := NewMemoryStore()
	tracker := NewTracker(store, zerolog.Nop())

	out, buildup := tracker.Enrich(domain.Snapshot{Instrument: "NIFTY", Price: 100})

	assert.Equal(t, NeutralBuildup, buildup)
	assert.True(t, out.HasBool(string(domain.OIBearish)))
	_, ok := store.Get("NIFTY")
	assert.False(t, ok)
}

func TestTracker_InstrumentsAreIndependent(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), zerolog.Nop())

	tracker.Enrich(tick("NIFTY", 100, 1000))
	_, buildup := tracker.Enrich(tick("BANKNIFTY", 90, 2000))

	assert.Equal(t, NeutralBuildup, buildup, "first tick of another instrument has no history")
}

func TestTracker_Reset(t *testing.T) {
	store := NewMemoryStore()
	tracker := NewTracker(store, zerolog.Nop())
	tracker.Enrich(tick("NIFTY", 100, 1000))
	tracker.Enrich(tick("BANKNIFTY", 100, 1000))

	tracker.Reset()

	_, ok := store.Get("NIFTY")
	assert.False(t, ok)
	_, ok = store.Get("BANKNIFTY")
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentInstruments(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instrument := fmt.Sprintf("INST%d", i)
			for n := 1; n <= 100; n++ {
				store.Set(instrument, Reading{OpenInterest: float64(n)})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		r, ok := store.Get(fmt.Sprintf("INST%d", i))
		require.True(t, ok)
		assert.Equal(t, 100.0, r.OpenInterest)
	}
}
