package domain

// LevelSource records how a price level was derived
type LevelSource string

const (
	LevelSourceSwing         LevelSource = "swing"
	LevelSourceMovingAverage LevelSource = "moving_average"
	LevelSourceTrendLine     LevelSource = "trend_line"
)

// Level is a support or resistance price. Touches counts how many raw candidates
// were merged into it; more than one marks a zone that was tested multiple times.
type Level struct {
	Timeframe                  Timeframe   `json:"timeframe"`
	Source                     LevelSource `json:"source"`
	Value                      float64     `json:"value"`
	Touches                    int         `json:"touches"`
	IsDerivedFromMovingAverage bool        `json:"is_derived_from_moving_average"`
}

// SwingKind distinguishes swing highs from swing lows
type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// SwingPoint is a local extremum relative to a symmetric lookback window
type SwingPoint struct {
	Kind     SwingKind `json:"kind"`
	BarIndex int       `json:"bar_index"`
	Price    float64   `json:"price"`
}

// TrendLineKind distinguishes rising support lines from falling resistance lines
type TrendLineKind string

const (
	TrendLineSupportUp      TrendLineKind = "SUPPORT_UP"
	TrendLineResistanceDown TrendLineKind = "RESISTANCE_DOWN"
)

// TrendLine is a line through two swing points, y = Slope*index + Intercept
type TrendLine struct {
	Kind        TrendLineKind `json:"kind"`
	Slope       float64       `json:"slope"`
	Intercept   float64       `json:"intercept"`
	OriginIndex int           `json:"origin_index"`
	EndIndex    int           `json:"end_index"`
}

// ValueAt projects the line to a bar index
func (l TrendLine) ValueAt(index int) float64 {
	return l.Slope*float64(index) + l.Intercept
}
