// Package users declares the persistence contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a user with a caller-assigned ID. A unique violation on
	// username or email yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByUsernameOrEmail returns any user whose username equals username or
	// whose email equals email case-insensitively.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)

	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
