package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/pkg/config"
)

// ErrUpstream is returned when the ML service cannot be reached or answers
// with a non-success status.
var ErrUpstream = errors.New("prediction: ml service unavailable")

// Forecaster is the outbound port to the ML service.
type Forecaster interface {
	Predict(ctx context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error)
	Healthy(ctx context.Context) error
}

// MLClient calls the trend reversal model over HTTP.
type MLClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewMLClient builds a client for the ML service described by cfg.
func NewMLClient(cfg config.APIConfig) *MLClient {
	timeout := cfg.MLAPITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MLClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.MLAPIBaseURL,
		apiKey:  cfg.MLAPIKey,
	}
}

// Predict requests reversal points for one symbol and timeframe.
func (c *MLClient) Predict(ctx context.Context, reqBody domain.PredictionRequest) (*domain.PredictionResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	var out domain.PredictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	return &out, nil
}

// Healthy probes the ML service health endpoint.
func (c *MLClient) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Join(ErrUpstream, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}
