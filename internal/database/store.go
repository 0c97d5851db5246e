package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. It is the durable
// key-value collaborator consumed by the responder: one opaque string value
// per key, last write wins.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetValue returns the value stored under key. The boolean reports
	// whether the key exists; a missing key is not an error.
	GetValue(ctx context.Context, key string) (string, bool, error)

	// SetValue inserts or replaces the value stored under key.
	SetValue(ctx context.Context, key, value string) error

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetValue returns the value stored under key, if any.
func (s *sqlxStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key must not be empty")
	}

	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv_store WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		s.logger.ErrorContext(ctx, "Failed to read value", "key", key, "error", err)
		return "", false, fmt.Errorf("failed to read value for key %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue inserts or replaces the value stored under key.
func (s *sqlxStore) SetValue(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to write value", "key", key, "error", err)
		return fmt.Errorf("failed to write value for key %q: %w", key, err)
	}
	return nil
}

// RunMaintenance performs database maintenance tasks.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	start := time.Now()
	s.logger.InfoContext(ctx, "Running database maintenance")

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("failed to analyze database: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance finished", "duration", time.Since(start))
	return nil
}
