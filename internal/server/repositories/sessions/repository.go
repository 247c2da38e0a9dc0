// Package sessions declares the server-side session store contract and its
// PostgreSQL implementation. Redis and in-memory stores live in sessionstore.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
)

// Repository stores server-side sessions keyed by an opaque session id.
type Repository interface {
	// Create stores a session for userID that expires after ttl.
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error

	// Find returns a live session. Missing and expired sessions both yield
	// common.ErrNotFound.
	Find(ctx context.Context, sessionID string) (*models.Session, error)

	// Delete removes a session. Deleting a non-existent session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// PurgeExpired drops expired sessions and reports how many were removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
