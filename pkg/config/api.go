package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment             string
	Addr                    string
	DatabaseURL             string
	MigrationsDir           string
	JWTSecret               string
	AccessTokenTTL          time.Duration
	RefreshTokenTTL         time.Duration
	MLAPIBaseURL            string
	MLAPIKey                string
	MLAPITimeout            time.Duration
	PredictionCacheAddr     string
	PredictionCachePassword string
	PredictionCacheDB       int
	PredictionCacheTTL      time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:             GetString("APP_ENV", "development"),
		Addr:                    GetString("API_ADDR", ":4000"),
		DatabaseURL:             GetString("DATABASE_URL", "postgres://trend:trend@db:5432/trend?sslmode=disable"),
		MigrationsDir:           GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:               GetString("JWT_SECRET", "super-secret-key"),
		AccessTokenTTL:          time.Duration(GetInt("ACCESS_TOKEN_TTL_HOURS", 168)) * time.Hour,
		RefreshTokenTTL:         time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 720)) * time.Hour,
		MLAPIBaseURL:            GetString("ML_API_BASE_URL", "http://localhost:5000"),
		MLAPIKey:                GetString("ML_API_KEY", ""),
		MLAPITimeout:            time.Duration(GetInt("ML_API_TIMEOUT_SECONDS", 30)) * time.Second,
		PredictionCacheAddr:     GetString("PREDICTION_CACHE_REDIS_ADDR", ""),
		PredictionCachePassword: GetString("PREDICTION_CACHE_REDIS_PASSWORD", ""),
		PredictionCacheDB:       GetInt("PREDICTION_CACHE_REDIS_DB", 0),
		PredictionCacheTTL:      time.Duration(GetInt("PREDICTION_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}
