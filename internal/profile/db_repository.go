package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBRepository implements Repository on the profiles table.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

func (r *DBRepository) FindByID(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	err := r.db.GetContext(ctx, &profile,
		r.db.Rebind("SELECT id, full_name, email, updated_at FROM profiles WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile %s: %w", id, err)
	}
	return &profile, nil
}

func (r *DBRepository) CreateIfAbsent(ctx context.Context, profile *Profile) error {
	query := "INSERT IGNORE INTO profiles (id, full_name, email, updated_at) VALUES (?, ?, ?, ?)"
	if r.db.DriverName() == "postgres" {
		query = "INSERT INTO profiles (id, full_name, email, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING"
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		profile.ID, profile.FullName, profile.Email, profile.UpdatedAt); err != nil {
		return fmt.Errorf("insert profile %s: %w", profile.ID, err)
	}
	return nil
}

func (r *DBRepository) Update(ctx context.Context, id, fullName string) error {
	result, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE profiles SET full_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"),
		fullName, id)
	if err != nil {
		return fmt.Errorf("update profile %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update profile %s: %w", id, ErrProfileNotFound)
	}
	return nil
}
