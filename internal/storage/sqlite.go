package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/supplement-advisor-server/internal/domain"
)

// SQLiteStore persists user profiles and cluster protocols in a local
// SQLite file. Profiles are stored as JSON documents keyed by user id;
// the nested history series do not warrant a relational layout.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the database file and schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		profile TEXT NOT NULL,
		cluster_id INTEGER,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cluster_protocols (
		cluster_id INTEGER PRIMARY KEY,
		protocol TEXT NOT NULL,
		generated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_cluster ON user_profiles(cluster_id);
	`
	_, err := db.Exec(schema)
	return err
}

// LoadAll returns every stored user profile.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]*domain.UserProfile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT profile FROM user_profiles ORDER BY user_id")
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load all users", Err: err}
	}
	defer rows.Close()

	var users []*domain.UserProfile
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, &domain.PersistenceError{Op: "scan user", Err: err}
		}
		var user domain.UserProfile
		if err := json.Unmarshal([]byte(doc), &user); err != nil {
			return nil, &domain.PersistenceError{Op: "decode user", Err: err}
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "load all users", Err: err}
	}
	return users, nil
}

// SaveAll upserts every user in one transaction so a failed recluster
// leaves the persisted assignments untouched.
func (s *SQLiteStore) SaveAll(ctx context.Context, users []*domain.UserProfile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin save all", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_profiles (user_id, profile, cluster_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			cluster_id = excluded.cluster_id,
			updated_at = excluded.updated_at`)
	if err != nil {
		return &domain.PersistenceError{Op: "prepare save all", Err: err}
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, user := range users {
		doc, err := json.Marshal(user)
		if err != nil {
			return &domain.PersistenceError{Op: "encode user", Err: err}
		}
		if _, err := stmt.ExecContext(ctx, user.UserID, string(doc), clusterIDValue(user), now); err != nil {
			return &domain.PersistenceError{Op: "save user " + user.UserID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit save all", Err: err}
	}
	return nil
}

// Get returns one profile, sql.ErrNoRows wrapped when absent.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT profile FROM user_profiles WHERE user_id = ?", userID,
	).Scan(&doc)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get user " + userID, Err: err}
	}
	var user domain.UserProfile
	if err := json.Unmarshal([]byte(doc), &user); err != nil {
		return nil, &domain.PersistenceError{Op: "decode user " + userID, Err: err}
	}
	return &user, nil
}

// Save upserts one profile.
func (s *SQLiteStore) Save(ctx context.Context, user *domain.UserProfile) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return &domain.PersistenceError{Op: "encode user", Err: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, profile, cluster_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			cluster_id = excluded.cluster_id,
			updated_at = excluded.updated_at`,
		user.UserID, string(doc), clusterIDValue(user), time.Now().UTC())
	if err != nil {
		return &domain.PersistenceError{Op: "save user " + user.UserID, Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func clusterIDValue(user *domain.UserProfile) interface{} {
	if user.ClusterID == nil {
		return nil
	}
	return *user.ClusterID
}

// SQLiteProtocolStore persists cluster protocols in the same database
// file as the user store.
type SQLiteProtocolStore struct {
	db *sql.DB
}

// NewSQLiteProtocolStore reuses an open user store's connection.
func NewSQLiteProtocolStore(store *SQLiteStore) *SQLiteProtocolStore {
	return &SQLiteProtocolStore{db: store.db}
}

// Load returns the persisted protocol set keyed by cluster id.
func (s *SQLiteProtocolStore) Load(ctx context.Context) (map[int]*domain.ClusterProtocol, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT cluster_id, protocol FROM cluster_protocols")
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load protocols", Err: err}
	}
	defer rows.Close()

	protocols := make(map[int]*domain.ClusterProtocol)
	for rows.Next() {
		var clusterID int
		var doc string
		if err := rows.Scan(&clusterID, &doc); err != nil {
			return nil, &domain.PersistenceError{Op: "scan protocol", Err: err}
		}
		var protocol domain.ClusterProtocol
		if err := json.Unmarshal([]byte(doc), &protocol); err != nil {
			return nil, &domain.PersistenceError{Op: "decode protocol", Err: err}
		}
		protocols[clusterID] = &protocol
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "load protocols", Err: err}
	}
	return protocols, nil
}

// Save replaces the full protocol set in one transaction; stale entries
// for now-empty clusters are dropped.
func (s *SQLiteProtocolStore) Save(ctx context.Context, protocols map[int]*domain.ClusterProtocol) error {
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
			"INSERT INTO cluster_protocols (cluster_id, protocol, generated_at) VALUES (?, ?, ?)",
			clusterID, string(doc), protocol.GeneratedAt); err != nil {
			return &domain.PersistenceError{Op: fmt.Sprintf("save protocol %d", clusterID), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit protocol save", Err: err}
	}
	return nil
}

// Close is a no-op; the user store owns the connection.
func (s *SQLiteProtocolStore) Close() error {
	return nil
}
