package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talnw1123/TrendReversal-Backend/internal/domain"
	"github.com/talnw1123/TrendReversal-Backend/internal/repository"
)

const assetColumns = `id, symbol, name, type, description, exchange, logo_url,
	current_price, price_change_24h, price_change_percent_24h, market_cap, volume_24h,
	is_active, last_price_update, created_at, updated_at`

// CreateAsset inserts a catalog entry. A duplicate symbol surfaces as
// ErrConflict from the unique constraint.
func (r *Repository) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	const query = `INSERT INTO assets (id, symbol, name, type, description, exchange, logo_url,
			current_price, price_change_24h, price_change_percent_24h, market_cap, volume_24h,
			is_active, last_price_update, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.pool.Exec(ctx, query,
		asset.ID,
		asset.Symbol,
		asset.Name,
		asset.Type,
		nullString(asset.Description),
		nullString(asset.Exchange),
		nullString(asset.LogoURL),
		asset.CurrentPrice,
		asset.PriceChange24h,
		asset.PriceChangePercent24h,
		asset.MarketCap,
		asset.Volume24h,
		asset.IsActive,
		asset.LastPriceUpdate,
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return nil
}

// ListAssets returns active catalog entries matching the query plus the
// total count before pagination.
func (r *Repository) ListAssets(ctx context.Context, query domain.AssetQuery) ([]domain.Asset, int, error) {
	where := []string{"is_active = TRUE"}
	args := []any{}
	if query.Type != "" {
		args = append(args, query.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		where = append(where, fmt.Sprintf("(symbol ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(1) FROM assets WHERE ` + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, query.Limit, (query.Page-1)*query.Limit)
	listQuery := fmt.Sprintf(`SELECT %s FROM assets WHERE %s ORDER BY symbol ASC LIMIT $%d OFFSET $%d`,
		assetColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assets, err := scanAssets(rows)
	if err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// GetAssetBySymbol fetches one catalog entry.
func (r *Repository) GetAssetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	const query = `SELECT ` + assetColumns + ` FROM assets WHERE symbol = $1`
	asset, err := scanAsset(r.pool.QueryRow(ctx, query, symbol))
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ListAssetsBySymbols returns the catalog entries for the given symbols.
func (r *Repository) ListAssetsBySymbols(ctx context.Context, symbols []string) ([]domain.Asset, error) {
	const query = `SELECT ` + assetColumns + ` FROM assets WHERE symbol = ANY($1) ORDER BY symbol ASC`
	rows, err := r.pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

// UpdateAssetPrice applies a market data refresh and stamps last_price_update.
func (r *Repository) UpdateAssetPrice(ctx context.Context, symbol string, update domain.PriceUpdate) (*domain.Asset, error) {
	const query = `UPDATE assets
		SET current_price = $2,
			price_change_24h = COALESCE($3, price_change_24h),
			price_change_percent_24h = COALESCE($4, price_change_percent_24h),
			volume_24h = COALESCE($5, volume_24h),
			last_price_update = $6,
			updated_at = NOW()
		WHERE symbol = $1
		RETURNING ` + assetColumns
	now := time.Now().UTC()
	asset, err := scanAsset(r.pool.QueryRow(ctx, query,
		symbol,
		update.CurrentPrice,
		update.PriceChange24h,
		update.PriceChangePercent24h,
		update.Volume24h,
		now,
	))
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ListAssetsOrdered returns the top active entries ordered by a market
// metric, for trending/gainers/losers views. orderBy is restricted to known
// column names by the service layer.
func (r *Repository) ListAssetsOrdered(ctx context.Context, orderBy string, ascending bool, limit int) ([]domain.Asset, error) {
	switch orderBy {
	case "volume_24h", "price_change_percent_24h":
	default:
		return nil, repository.ErrInvalidArgument
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE is_active = TRUE AND %s IS NOT NULL ORDER BY %s %s LIMIT $1`,
		assetColumns, orderBy, orderBy, direction)
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssets(rows)
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var (
		a           domain.Asset
		description *string
		exchange    *string
		logoURL     *string
	)
	err := row.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &description, &exchange, &logoURL,
		&a.CurrentPrice, &a.PriceChange24h, &a.PriceChangePercent24h, &a.MarketCap, &a.Volume24h,
		&a.IsActive, &a.LastPriceUpdate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if description != nil {
		a.Description = *description
	}
	if exchange != nil {
		a.Exchange = *exchange
	}
	if logoURL != nil {
		a.LogoURL = *logoURL
	}
	return &a, nil
}

func scanAssets(rows pgx.Rows) ([]domain.Asset, error) {
	assets := make([]domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}
