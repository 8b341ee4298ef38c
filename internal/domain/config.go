package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Cluster   ClusterConfig   `mapstructure:"cluster"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents PostgreSQL connection configuration, used
// when storage.driver is "postgres".
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// StorageConfig selects and configures the durable store backend.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// CatalogConfig configures the nutrient reference catalog. An empty
// path means the built-in default catalog.
type CatalogConfig struct {
	Path             string `mapstructure:"path"`
	InteractionsPath string `mapstructure:"interactions_path"`
}

// ScoringConfig carries the symptom and lifestyle weight maps as
// configuration data. Defaults mirror the shipped protocol tables.
type ScoringConfig struct {
	SymptomWeights     map[string]map[string]float64 `mapstructure:"symptom_weights"`
	LifestyleModifiers map[string]map[string]float64 `mapstructure:"lifestyle_modifiers"`
	TrendWindow        int                           `mapstructure:"trend_window"`
}

// ClusterConfig configures the clustering engine. Vocabularies are
// configuration data, not code constants.
type ClusterConfig struct {
	NumClusters          int      `mapstructure:"num_clusters"`
	RandomSeed           int64    `mapstructure:"random_seed"`
	MaxIterations        int      `mapstructure:"max_iterations"`
	MinClusterSize       int      `mapstructure:"min_cluster_size"`
	MaxDistanceThreshold float64  `mapstructure:"max_distance_threshold"`
	SymptomVocab         []string `mapstructure:"symptom_vocab"`
	LifestyleVocab       []string `mapstructure:"lifestyle_vocab"`
}

// CacheConfig configures the two-tier recommendation result cache.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisURL      string        `mapstructure:"redis_url"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	MaxMemorySize int           `mapstructure:"max_memory_size"`
}

// RateLimitConfig configures the API token-bucket limiter.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
