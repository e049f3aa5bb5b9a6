package scorers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

func allTimeframes(prefixes ...domain.ConditionKey) []string {
	var keys []string
	for _, p := range prefixes {
		for _, tf := range domain.ScoringTimeframes {
			keys = append(keys, domain.Key(p, tf))
		}
	}
	return keys
}

func TestQualityScorer_FullyBullishSnapshot(t *testing.T) {
	scorer := NewQualityScorer(DefaultQualityConfig())
	snapshot := snapshotWith(allTimeframes(
		domain.EMAFastAboveSlow, domain.RSIAboveThreshold, domain.VolumeSurge,
		domain.GreenCandle, domain.LongBody, domain.PriceAboveVWAP, domain.PriceAboveResistance,
		domain.FutureBullish, domain.MomentumBullish,
		domain.BullishEngulfing, domain.Hammer, domain.MorningStar, domain.ThreeWhiteSoldiers,
	)...)

	call := scorer.Score(snapshot, domain.DirectionCall)

	assert.InDelta(t, 10.0, call.Score, 1e-9)
	for name, v := range call.Components {
		assert.LessOrEqual(t, v, 10.0, "component %s must be capped", name)
	}
	assert.Equal(t, 10.0, call.Components[ComponentPriceAction], "14 raw points capped to 10")
	assert.Equal(t, 10.0, call.Components[ComponentCandlestick])

	put := scorer.Score(snapshot, domain.DirectionPut)
	assert.Equal(t, 0.0, put.Score, "only the direction-agnostic volume evidence applies to PUT")
	assert.Equal(t, 10.0, put.Components[ComponentVolume])
}

func TestQualityScorer_PartialEvidence(t *testing.T) {
	scorer := NewQualityScorer(DefaultQualityConfig())
	snapshot := snapshotWith(
		domain.Key(domain.EMAFastAboveSlow, domain.Timeframe5Min),
		domain.Key(domain.EMAFastAboveSlow, domain.Timeframe15Min),
		domain.Key(domain.RSIAboveThreshold, domain.Timeframe5Min),
		domain.Key(domain.VolumeSurge, domain.Timeframe5Min),
		domain.Key(domain.GreenCandle, domain.Timeframe5Min),
		domain.Key(domain.FutureBullish, domain.Timeframe1Min),
		domain.Key(domain.MomentumBullish, domain.Timeframe1Min),
		domain.Key(domain.MomentumBullish, domain.Timeframe5Min),
		domain.Key(domain.BullishEngulfing, domain.Timeframe5Min),
	)

	q := scorer.Score(snapshot, domain.DirectionCall)

	assert.Equal(t, 8.0, q.Components[ComponentEMA])
	assert.Equal(t, 4.0, q.Components[ComponentRSI])
	assert.Equal(t, 4.0, q.Components[ComponentVolume])
	assert.Equal(t, 2.0, q.Components[ComponentPriceAction])
	assert.Equal(t, 5.0, q.Components[ComponentCrossInstrument], "subset agreement earns half weight")
	assert.Equal(t, 7.0, q.Components[ComponentMomentum], "2/3 tier")
	assert.Equal(t, 3.0, q.Components[ComponentCandlestick])
	assert.InDelta(t, 33.0/7.0, q.Score, 1e-9)
}

func TestQualityScorer_SumIsOrderStable(t *testing.T) {
	cfg := DefaultQualityConfig()
	cfg.MinQualityScore = 0
	scorer := NewQualityScorer(cfg)

	tests := []struct {
		name string
		keys []string
	}{
		{"single timeframe", []string{
			domain.Key(domain.EMAFastAboveSlow, domain.Timeframe1Min),
			domain.Key(domain.RSIAboveThreshold, domain.Timeframe15Min),
			domain.Key(domain.MomentumBullish, domain.Timeframe5Min),
		}},
		{"mixed evidence", []string{
			domain.Key(domain.EMAFastAboveSlow, domain.Timeframe5Min),
			domain.Key(domain.VolumeSurge, domain.Timeframe1Min),
			domain.Key(domain.GreenCandle, domain.Timeframe15Min),
			domain.Key(domain.FutureBullish, domain.Timeframe5Min),
			domain.Key(domain.Hammer, domain.Timeframe1Min),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := snapshotWith(tt.keys...)
			first := scorer.Score(snapshot, domain.DirectionCall)

			var want float64
			for _, name := range componentOrder {
				want += first.Components[name]
			}
			assert.Equal(t, want/7, first.Raw)

			for i := 0; i < 50; i++ {
				again := scorer.Score(snapshot, domain.DirectionCall)
				assert.Equal(t, first.Raw, again.Raw)
				assert.Equal(t, first.Score, again.Score)
			}
		})
	}
}

func TestQualityScorer_BelowMinimumIsExactlyZero(t *testing.T) {
	scorer := NewQualityScorer(DefaultQualityConfig())
	snapshot := snapshotWith(domain.Key(domain.VolumeSurge, domain.Timeframe5Min))

	q := scorer.Score(snapshot, domain.DirectionCall)

	assert.InDelta(t, 4.0/7.0, q.Raw, 1e-9)
	assert.Equal(t, 0.0, q.Score)
}

func TestQualityScorer_MomentumTiers(t *testing.T) {
	scorer := NewQualityScorer(DefaultQualityConfig())

	tests := []struct {
		name string
		tfs  []domain.Timeframe
		want float64
	}{
		{"none", nil, 0},
		{"one", []domain.Timeframe{domain.Timeframe1Min}, 4},
		{"two", []domain.Timeframe{domain.Timeframe1Min, domain.Timeframe15Min}, 7},
		{"three", domain.ScoringTimeframes, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys []string
			for _, tf := range tt.tfs {
				keys = append(keys, domain.Key(domain.MomentumBearish, tf))
			}
			q := scorer.Score(snapshotWith(keys...), domain.DirectionPut)
			assert.Equal(t, tt.want, q.Components[ComponentMomentum])
		})
	}
}

func TestQualityScorer_CandlestickInnerCap(t *testing.T) {
	cfg := DefaultQualityConfig()
	cfg.CandlestickCap = 6
	scorer := NewQualityScorer(cfg)

	q := scorer.Score(snapshotWith(allTimeframes(domain.BearishEngulfing)...), domain.DirectionPut)

	assert.Equal(t, 6.0, q.Components[ComponentCandlestick])
}

func TestQualityScorer_ScoreBoth(t *testing.T) {
	scorer := NewQualityScorer(DefaultQualityConfig())

	call, put := scorer.ScoreBoth(&domain.Snapshot{})

	assert.Equal(t, domain.DirectionCall, call.Direction)
	assert.Equal(t, domain.DirectionPut, put.Direction)
	assert.Equal(t, 0.0, call.Score)
	assert.Equal(t, 0.0, put.Score)
}
