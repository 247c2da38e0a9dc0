// Package kv declares the persistence contract for hashed key/value records.
package kv

import (
	"context"

	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the record and fills in its ID and CreatedAt.
	Create(ctx context.Context, item *models.KV) (*models.KV, error)

	// ListByUser returns the user's records in insertion order.
	ListByUser(ctx context.Context, userID string) ([]*models.KV, error)
}
