package domain

import "time"

// Asset types tracked by the catalog.
const (
	AssetTypeStock     = "stock"
	AssetTypeCrypto    = "crypto"
	AssetTypeForex     = "forex"
	AssetTypeCommodity = "commodity"
)

// ValidAssetType reports whether t names a known asset class.
func ValidAssetType(t string) bool {
	switch t {
	case AssetTypeStock, AssetTypeCrypto, AssetTypeForex, AssetTypeCommodity:
		return true
	}
	return false
}

// Asset is a tradable instrument in the catalog. Symbol is stored uppercase
// and is unique per asset type.
type Asset struct {
	ID                    string     `json:"id"`
	Symbol                string     `json:"symbol"`
	Name                  string     `json:"name"`
	Type                  string     `json:"type"`
	Description           string     `json:"description,omitempty"`
	Exchange              string     `json:"exchange,omitempty"`
	LogoURL               string     `json:"logoUrl,omitempty"`
	CurrentPrice          *float64   `json:"currentPrice,omitempty"`
	PriceChange24h        *float64   `json:"priceChange24h,omitempty"`
	PriceChangePercent24h *float64   `json:"priceChangePercent24h,omitempty"`
	MarketCap             *float64   `json:"marketCap,omitempty"`
	Volume24h             *float64   `json:"volume24h,omitempty"`
	IsActive              bool       `json:"isActive"`
	LastPriceUpdate       *time.Time `json:"lastPriceUpdate,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// AssetQuery filters and paginates catalog listings.
type AssetQuery struct {
	Type   string
	Search string
	Page   int
	Limit  int
}

// PriceUpdate carries a market data refresh for one symbol.
type PriceUpdate struct {
	CurrentPrice          float64  `json:"currentPrice"`
	PriceChange24h        *float64 `json:"priceChange24h,omitempty"`
	PriceChangePercent24h *float64 `json:"priceChangePercent24h,omitempty"`
	Volume24h             *float64 `json:"volume24h,omitempty"`
}

// AssetPage is a paginated catalog listing.
type AssetPage struct {
	Data  []Asset `json:"data"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
