package domain

import (
	"context"
)

// UserStore is the durable user store. LoadAll/SaveAll are called only
// by the batch recluster job, never from per-request scoring.
type UserStore interface {
	LoadAll(ctx context.Context) ([]*UserProfile, error)
	SaveAll(ctx context.Context, users []*UserProfile) error
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Save(ctx context.Context, user *UserProfile) error
	Close() error
}

// ProtocolStore persists cluster protocols keyed by cluster id. Read on
// cluster engine construction, written after every fit. Save replaces
// the full set so stale clusters are dropped.
type ProtocolStore interface {
	Load(ctx context.Context) (map[int]*ClusterProtocol, error)
	Save(ctx context.Context, protocols map[int]*ClusterProtocol) error
	Close() error
}

// ConfigManager provides access to application configuration
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Validate() error
}
