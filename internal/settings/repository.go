package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrSettingNotFound = errors.New("setting not found")

type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, setting *Setting) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.db.GetContext(ctx, &s, `SELECT key, value, updated_at FROM settings WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("repository: failed to select setting %q: %w", key, err)
	}

	return &s, nil
}

func (r *postgresRepository) Set(ctx context.Context, setting *Setting) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (:key, :value, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, setting)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert setting %q: %w", setting.Key, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&setting.UpdatedAt); err != nil {
			return fmt.Errorf("repository: failed to scan setting %q: %w", setting.Key, err)
		}
	}

	return rows.Err()
}
