package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"log/slog"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
)

// ErrInvalidInput is returned when a prediction request fails validation.
var ErrInvalidInput = errors.New("prediction: invalid input")

const (
	defaultLookback = 100
	maxLookback     = 1000
	maxBatchSymbols = 20
)

// Service answers prediction queries, fronting the ML service with a
// short-lived cache.
type Service struct {
	forecaster Forecaster
	cache      Cache
	logger     *slog.Logger
}

// New constructs a Service. cache may be nil, in which case every request
// goes straight to the forecaster.
func New(forecaster Forecaster, cache Cache, logger *slog.Logger) Service {
	return Service{forecaster: forecaster, cache: cache, logger: logger}
}

// Predict returns reversal points for one symbol, serving from cache when a
// fresh entry exists.
func (s Service) Predict(ctx context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return nil, ErrInvalidInput
	}
	if !domain.ValidTimeframe(req.Timeframe) {
		return nil, ErrInvalidInput
	}
	if req.Lookback <= 0 {
		req.Lookback = defaultLookback
	}
	if req.Lookback > maxLookback {
		req.Lookback = maxLookback
	}

	key := cacheKey(req)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached domain.PredictionResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			s.logger.Warn("discarding corrupt prediction cache entry", "key", key)
		}
	}

	resp, err := s.forecaster.Predict(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			s.cache.Set(ctx, key, raw)
		}
	}
	return resp, nil
}

// BatchResult holds per-symbol reversal points for a batch query. Symbols
// whose prediction failed are reported with an empty point list.
type BatchResult struct {
	Results map[string][]domain.ReversalPoint `json:"results"`
	Failed  []string                          `json:"failed,omitempty"`
}

// BatchReversalPoints fans out one prediction per symbol and collects the
// reversal points. Individual failures do not fail the batch.
func (s Service) BatchReversalPoints(ctx context.Context, symbols []string, timeframe string) (*BatchResult, error) {
	if !domain.ValidTimeframe(timeframe) {
		return nil, ErrInvalidInput
	}
	unique := dedupeSymbols(symbols)
	if len(unique) == 0 || len(unique) > maxBatchSymbols {
		return nil, ErrInvalidInput
	}

	type outcome struct {
		symbol string
		points []domain.ReversalPoint
		err    error
	}
	results := make(chan outcome, len(unique))
	var wg sync.WaitGroup
	for _, symbol := range unique {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			resp, err := s.Predict(ctx, domain.PredictionRequest{Symbol: symbol, Timeframe: timeframe})
			if err != nil {
				results <- outcome{symbol: symbol, err: err}
				return
			}
			results <- outcome{symbol: symbol, points: resp.ReversalPoints}
		}(symbol)
	}
	wg.Wait()
	close(results)

	batch := &BatchResult{Results: make(map[string][]domain.ReversalPoint, len(unique))}
	for out := range results {
		if out.err != nil {
			s.logger.Warn("batch prediction failed for symbol", "symbol", out.symbol, "error", out.err)
			batch.Results[out.symbol] = []domain.ReversalPoint{}
			batch.Failed = append(batch.Failed, out.symbol)
			continue
		}
		batch.Results[out.symbol] = out.points
	}
	return batch, nil
}

// Health reports whether the ML service is reachable.
func (s Service) Health(ctx context.Context) error {
	return s.forecaster.Healthy(ctx)
}

func cacheKey(req domain.PredictionRequest) string {
	threshold := ""
	if req.ConfidenceThreshold != nil {
		threshold = fmt.Sprintf("%g", *req.ConfidenceThreshold)
	}
	return fmt.Sprintf("%s|%s|%d|%s", req.Symbol, req.Timeframe, req.Lookback, threshold)
}

func dedupeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		upper := strings.ToUpper(strings.TrimSpace(symbol))
		if upper == "" {
			continue
		}
		if _, ok := seen[upper]; ok {
			continue
		}
		seen[upper] = struct{}{}
		out = append(out, upper)
	}
	return out
}
