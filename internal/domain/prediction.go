package domain

import "time"

// Reversal directions predicted by the ML service.
const (
	ReversalBullish = "bullish"
	ReversalBearish = "bearish"
)

// Timeframes accepted by the ML service.
var Timeframes = []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d", "1w"}

// ValidTimeframe reports whether tf is a supported candle interval.
func ValidTimeframe(tf string) bool {
	for _, known := range Timeframes {
		if tf == known {
			return true
		}
	}
	return false
}

// PredictionRequest describes one prediction call to the ML service.
type PredictionRequest struct {
	Symbol              string   `json:"symbol"`
	Timeframe           string   `json:"timeframe"`
	Lookback            int      `json:"lookback,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
}

// ReversalPoint is a single predicted trend reversal.
type ReversalPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Price       float64   `json:"price"`
	Type        string    `json:"type"`
	Confidence  float64   `json:"confidence"`
	Indicators  []string  `json:"indicators,omitempty"`
	TargetPrice *float64  `json:"targetPrice,omitempty"`
	StopLoss    *float64  `json:"stopLoss,omitempty"`
}

// PredictionResponse is the ML service's answer, passed through unmodified.
type PredictionResponse struct {
	Symbol         string          `json:"symbol"`
	Timeframe      string          `json:"timeframe"`
	PredictedAt    time.Time       `json:"predictedAt"`
	CurrentPrice   float64         `json:"currentPrice"`
	ReversalPoints []ReversalPoint `json:"reversalPoints"`
	OverallTrend   string          `json:"overallTrend"`
	AnalysisNotes  string          `json:"analysisNotes,omitempty"`
}
