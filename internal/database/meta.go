package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MetaRepo is the key/value analytics_meta table kept by older releases.
type MetaRepo struct {
	db *sql.DB
}

func NewMetaRepo(db *sql.DB) *MetaRepo {
	return &MetaRepo{db: db}
}

// Get returns the value stored under key.
func (r *MetaRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM analytics_meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("analytics meta %q: %w", key, ErrNotFound)
	}
	return v, err
}

// Set stores value under key.
func (r *MetaRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO analytics_meta(key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value;
	`, key, value)
	return err
}
