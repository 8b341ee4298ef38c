package storage

import (
	"fmt"

	"github.com/supplement-advisor-server/internal/domain"
)

// Open builds the user and protocol stores for the configured driver.
// Both stores share one underlying connection; close only the user
// store.
func Open(cfg domain.StorageConfig, db domain.DatabaseConfig) (domain.UserStore, domain.ProtocolStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "data/advisor.db"
		}
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, NewSQLiteProtocolStore(store), nil

	case "postgres":
		store, err := NewPostgresStore(PostgresDSN(db))
		if err != nil {
			return nil, nil, err
		}
		return store, NewPostgresProtocolStore(store), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// PostgresDSN renders a lib/pq connection string from the database
// configuration.
func PostgresDSN(db domain.DatabaseConfig) string {
	sslMode := db.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, sslMode)
}
