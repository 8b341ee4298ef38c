package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/supplement-advisor-server/internal/domain"
)

// PostgresStore is the PostgreSQL-backed user store for multi-instance
// deployments. Profiles live in a JSONB column; schema creation happens
// through the migration runner, not here.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection, used by tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// LoadAll returns every stored user profile.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]*domain.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT profile FROM user_profiles ORDER BY user_id")
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load all users", Err: err}
	}
	defer rows.Close()

	var users []*domain.UserProfile
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, &domain.PersistenceError{Op: "scan user", Err: err}
		}
		var user domain.UserProfile
		if err := json.Unmarshal(doc, &user); err != nil {
			return nil, &domain.PersistenceError{Op: "decode user", Err: err}
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "load all users", Err: err}
	}
	return users, nil
}

// SaveAll upserts every user in one transaction.
func (s *PostgresStore) SaveAll(ctx context.Context, users []*domain.UserProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin save all", Err: err}
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, user := range users {
		doc, err := json.Marshal(user)
		if err != nil {
			return &domain.PersistenceError{Op: "encode user", Err: err}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_profiles (user_id, profile, cluster_id, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				profile = EXCLUDED.profile,
				cluster_id = EXCLUDED.cluster_id,
				updated_at = EXCLUDED.updated_at`,
			user.UserID, doc, clusterIDValue(user), now); err != nil {
			return &domain.PersistenceError{Op: "save user " + user.UserID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit save all", Err: err}
	}
	return nil
}

// Get returns one profile.
func (s *PostgresStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT profile FROM user_profiles WHERE user_id = $1", userID,
	).Scan(&doc)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get user " + userID, Err: err}
	}
	var user domain.UserProfile
	if err := json.Unmarshal(doc, &user); err != nil {
		return nil, &domain.PersistenceError{Op: "decode user " + userID, Err: err}
	}
	return &user, nil
}

// Save upserts one profile.
func (s *PostgresStore) Save(ctx context.Context, user *domain.UserProfile) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return &domain.PersistenceError{Op: "encode user", Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, profile, cluster_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			cluster_id = EXCLUDED.cluster_id,
			updated_at = EXCLUDED.updated_at`,
		user.UserID, doc, clusterIDValue(user), time.Now().UTC())
	if err != nil {
		return &domain.PersistenceError{Op: "save user " + user.UserID, Err: err}
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// PostgresProtocolStore persists cluster protocols in PostgreSQL.
type PostgresProtocolStore struct {
	db *sql.DB
}

// NewPostgresProtocolStore reuses an open user store's pool.
func NewPostgresProtocolStore(store *PostgresStore) *PostgresProtocolStore {
	return &PostgresProtocolStore{db: store.db}
}

// Load returns the persisted protocol set keyed by cluster id.
func (s *PostgresProtocolStore) Load(ctx context.Context) (map[int]*domain.ClusterProtocol, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT cluster_id, protocol FROM cluster_protocols")
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load protocols", Err: err}
	}
	defer rows.Close()

	protocols := make(map[int]*domain.ClusterProtocol)
	for rows.Next() {
		var clusterID int
		var doc []byte
		if err := rows.Scan(&clusterID, &doc); err != nil {
			return nil, &domain.PersistenceError{Op: "scan protocol", Err: err}
		}
		var protocol domain.ClusterProtocol
		if err := json.Unmarshal(doc, &protocol); err != nil {
			return nil, &domain.PersistenceError{Op: "decode protocol", Err: err}
		}
		protocols[clusterID] = &protocol
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "load protocols", Err: err}
	}
	return protocols, nil
}

// Save replaces the full protocol set in one transaction.
func (s *PostgresProtocolStore) Save(ctx context.Context, protocols map[int]*domain.ClusterProtocol) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin protocol save", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cluster_protocols"); err != nil {
		return &domain.PersistenceError{Op: "clear protocols", Err: err}
	}

	for clusterID, protocol := range protocols {
		doc, err := json.Marshal(protocol)
		if err != nil {
			return &domain.PersistenceError{Op: "encode protocol", Err: err}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cluster_protocols (cluster_id, protocol, generated_at) VALUES ($1, $2, $3)",
			clusterID, doc, protocol.GeneratedAt); err != nil {
			return &domain.PersistenceError{Op: fmt.Sprintf("save protocol %d", clusterID), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit protocol save", Err: err}
	}
	return nil
}

// Close is a no-op; the user store owns the pool.
func (s *PostgresProtocolStore) Close() error {
	return nil
}
