// Package domain provides core domain models and types.
package domain

import (
	"math"
	"time"
)

// Timeframe identifies the candle width a bar sequence was aggregated at
type Timeframe string

const (
	Timeframe1Min  Timeframe = "1min"
	Timeframe5Min  Timeframe = "5min"
	Timeframe15Min Timeframe = "15min"
)

// ScoringTimeframes are the three timeframes every per-timeframe condition is read on.
var ScoringTimeframes = []Timeframe{Timeframe1Min, Timeframe5Min, Timeframe15Min}

// Direction is the option leg a decision leans towards
type Direction string

const (
	// DirectionCall is the bullish (call-buying) leg
	DirectionCall Direction = "CALL"
	// DirectionPut is the bearish (put-buying) leg
	DirectionPut Direction = "PUT"
)

// Bar is one OHLCV sample for a fixed time window
type Bar struct {
	Timestamp time.Time `json:"timestamp" msgpack:"ts"`
	Open      float64   `json:"open" msgpack:"o"`
	High      float64   `json:"high" msgpack:"h"`
	Low       float64   `json:"low" msgpack:"l"`
	Close     float64   `json:"close" msgpack:"c"`
	Volume    float64   `json:"volume" msgpack:"v"`
}

// Range returns high - low
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Body returns the absolute open/close distance
func (b Bar) Body() float64 {
	return math.Abs(b.Close - b.Open)
}

// Snapshot is the immutable per-tick input of the decision core: raw bars per
// timeframe plus the named booleans and numbers produced by the indicator stage.
//
// Unknown keys read as false / 0 so that a misconfigured condition can never
// satisfy a requirement.
type Snapshot struct {
	Timestamp      time.Time           `json:"timestamp" msgpack:"ts"`
	Booleans       map[string]bool     `json:"booleans" msgpack:"b"`
	Numbers        map[string]float64  `json:"numbers" msgpack:"n"`
	Bars           map[Timeframe][]Bar `json:"bars" msgpack:"bars"`
	Instrument     string              `json:"instrument" msgpack:"i"`
	MovingAverages []float64           `json:"moving_averages" msgpack:"ma"`
	Price          float64             `json:"price" msgpack:"p"`
}

// Bool returns the truth value of a condition identifier; unknown keys are false.
func (s *Snapshot) Bool(key string) bool {
	if s == nil || s.Booleans == nil {
		return false
	}
	return s.Booleans[key]
}

// HasBool reports whether the indicator stage published the identifier at all.
func (s *Snapshot) HasBool(key string) bool {
	if s == nil || s.Booleans == nil {
		return false
	}
	_, ok := s.Booleans[key]
	return ok
}

// Number returns a numeric indicator; unknown keys, NaN and Inf read as 0.
func (s *Snapshot) Number(key string) float64 {
	if s == nil || s.Numbers == nil {
		return 0
	}
	v := s.Numbers[key]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BarsFor returns the bar sequence for a timeframe (nil when absent).
func (s *Snapshot) BarsFor(tf Timeframe) []Bar {
	if s == nil || s.Bars == nil {
		return nil
	}
	return s.Bars[tf]
}

// CurrentPrice returns the explicit price, falling back to the last close of the
// shortest timeframe that has bars.
func (s *Snapshot) CurrentPrice() float64 {
	if s == nil {
		return 0
	}
	if s.Price > 0 {
		return s.Price
	}
	for _, tf := range ScoringTimeframes {
		if bars := s.BarsFor(tf); len(bars) > 0 {
			return bars[len(bars)-1].Close
		}
	}
	return 0
}

// WithBooleans returns a shallow copy whose boolean map also contains extra.
// The receiver is left untouched.
func (s Snapshot) WithBooleans(extra map[string]bool) Snapshot {
	merged := make(map[string]bool, len(s.Booleans)+len(extra))
	for k, v := range s.Booleans {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	s.Booleans = merged
	return s
}
