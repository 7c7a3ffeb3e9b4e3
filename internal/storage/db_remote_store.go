package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBRemoteStore implements RemoteStore on the user_data table of MySQL or Postgres.
type DBRemoteStore struct {
	db *sqlx.DB
}

// NewDBRemoteStore creates a new DBRemoteStore.
func NewDBRemoteStore(db *sqlx.DB) *DBRemoteStore {
	return &DBRemoteStore{db: db}
}

type userDataRow struct {
	DataKey   string `db:"data_key"`
	DataValue string `db:"data_value"`
}

// Upsert inserts or replaces the value of one field.
func (r *DBRemoteStore) Upsert(ctx context.Context, userID, key string, value []byte) error {
	query := `INSERT INTO user_data (user_id, data_key, data_value) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE data_value = VALUES(data_value), updated_at = CURRENT_TIMESTAMP`
	if r.db.DriverName() == "postgres" {
		query = `INSERT INTO user_data (user_id, data_key, data_value) VALUES (?, ?, ?)
		ON CONFLICT (user_id, data_key) DO UPDATE SET data_value = EXCLUDED.data_value, updated_at = CURRENT_TIMESTAMP`
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), userID, key, string(value)); err != nil {
		return fmt.Errorf("upsert user data: %w", err)
	}
	return nil
}

// Find returns the value of one field, or nil when it does not exist.
func (r *DBRemoteStore) Find(ctx context.Context, userID, key string) ([]byte, error) {
	var value string
	err := r.db.GetContext(ctx, &value,
		r.db.Rebind("SELECT data_value FROM user_data WHERE user_id = ? AND data_key = ?"),
		userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user data: %w", err)
	}
	return []byte(value), nil
}

// FindAll returns every field of the user.
func (r *DBRemoteStore) FindAll(ctx context.Context, userID string) (map[string][]byte, error) {
	var rows []userDataRow
	if err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind("SELECT data_key, data_value FROM user_data WHERE user_id = ?"),
		userID); err != nil {
		return nil, fmt.Errorf("load all user data: %w", err)
	}

	result := make(map[string][]byte, len(rows))
	for _, row := range rows {
		result[row.DataKey] = []byte(row.DataValue)
	}
	return result, nil
}
