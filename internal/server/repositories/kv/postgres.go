// Package kv provides the PostgreSQL-backed repository for the user_kv table.
package kv

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hashkeeper/internal/dbx"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
)

// PostgresRepository implements KV storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.KV) (*models.KV, error) {
	query := `
		INSERT INTO user_kv (user_id, k, v_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, item.UserID, item.Key, item.ValueHash).
		Scan(&item.ID, &item.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.KV, error) {
	query := `
		SELECT id, user_id, k, v_hash, created_at FROM user_kv
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.KV
	for rows.Next() {
		var item models.KV
		if err := rows.Scan(&item.ID, &item.UserID, &item.Key, &item.ValueHash, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
