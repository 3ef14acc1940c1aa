package asset

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

// ErrInvalidInput is returned when catalog input fails validation.
var ErrInvalidInput = errors.New("asset: invalid input")

const (
	defaultPageLimit = 20
	defaultTopLimit  = 10
	maxPageLimit     = 100
)

// Service manages the instrument catalog.
type Service struct {
	assets repository.AssetRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(assets repository.AssetRepository, logger *slog.Logger) Service {
	return Service{assets: assets, logger: logger}
}

// CreateInput describes a new catalog entry.
type CreateInput struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

// Create adds an instrument to the catalog.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Asset, error) {
	symbol := NormalizeSymbol(input.Symbol)
	if symbol == "" || strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidInput
	}
	if !domain.ValidAssetType(input.Type) {
		return nil, ErrInvalidInput
	}
	now := time.Now().UTC()
	asset := &domain.Asset{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Name:        strings.TrimSpace(input.Name),
		Type:        input.Type,
		Description: strings.TrimSpace(input.Description),
		Exchange:    strings.TrimSpace(input.Exchange),
		LogoURL:     strings.TrimSpace(input.LogoURL),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.assets.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	s.logger.Info("asset created", "symbol", asset.Symbol, "type", asset.Type)
	return asset, nil
}

// List returns active instruments with optional type filter and symbol/name
// search, paginated.
func (s Service) List(ctx context.Context, query domain.AssetQuery) (*domain.AssetPage, error) {
	if query.Type != "" && !domain.ValidAssetType(query.Type) {
		return nil, ErrInvalidInput
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = defaultPageLimit
	}
	if query.Limit > maxPageLimit {
		query.Limit = maxPageLimit
	}
	query.Search = strings.TrimSpace(query.Search)

	assets, total, err := s.assets.ListAssets(ctx, query)
	if err != nil {
		return nil, err
	}
	return &domain.AssetPage{Data: assets, Total: total, Page: query.Page, Limit: query.Limit}, nil
}

// GetBySymbol fetches one instrument.
func (s Service) GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	return s.assets.GetAssetBySymbol(ctx, NormalizeSymbol(symbol))
}

// ListBySymbols fetches instruments for the given symbols.
func (s Service) ListBySymbols(ctx context.Context, symbols []string) ([]domain.Asset, error) {
	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if upper := NormalizeSymbol(symbol); upper != "" {
			normalized = append(normalized, upper)
		}
	}
	return s.assets.ListAssetsBySymbols(ctx, normalized)
}

// UpdatePrice applies a market data refresh to one instrument.
func (s Service) UpdatePrice(ctx context.Context, symbol string, update domain.PriceUpdate) (*domain.Asset, error) {
	return s.assets.UpdateAssetPrice(ctx, NormalizeSymbol(symbol), update)
}

// Trending returns the instruments with the highest 24h volume.
func (s Service) Trending(ctx context.Context, limit int) ([]domain.Asset, error) {
	return s.assets.ListAssetsOrdered(ctx, "volume_24h", false, clampTopLimit(limit))
}

// TopGainers returns instruments ordered by 24h percent change, best first.
func (s Service) TopGainers(ctx context.Context, limit int) ([]domain.Asset, error) {
	return s.assets.ListAssetsOrdered(ctx, "price_change_percent_24h", false, clampTopLimit(limit))
}

// TopLosers returns instruments ordered by 24h percent change, worst first.
func (s Service) TopLosers(ctx context.Context, limit int) ([]domain.Asset, error) {
	return s.assets.ListAssetsOrdered(ctx, "price_change_percent_24h", true, clampTopLimit(limit))
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func clampTopLimit(limit int) int {
	if limit < 1 {
		return defaultTopLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
