package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/sessions"
)

// sessionIDBytes is the entropy of a session id; it is hex encoded.
const sessionIDBytes = 32

// UserLookup is the part of UserService the session manager needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// SessionService issues, checks and revokes login sessions. The client gets
// a signed token naming a server-side session; revoking the session in the
// store invalidates the token immediately.
type SessionService struct {
	store  sessions.Repository
	users  UserLookup
	secret []byte
	ttl    time.Duration
	logger logging.Logger
}

func NewSessionService(store sessions.Repository, users UserLookup, secret string, ttl time.Duration, logger logging.Logger) *SessionService {
	return &SessionService{
		store:  store,
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
	}
}

// TTL is the lifetime of newly created sessions.
func (s *SessionService) TTL() time.Duration { return s.ttl }

// Create starts a session for userID and returns the signed token.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	sid, err := cryptox.MakeRandHexString(sessionIDBytes)
	if err != nil {
		return "", common.ErrInternal
	}

	if err := s.store.Create(ctx, sid, userID, s.ttl); err != nil {
		s.logger.Error(ctx, "session create failed", "user_id", userID, "error", fmt.Sprintf("%v", err))
		return "", common.ErrInternal
	}

	token, err := auth.GenerateToken(sid, s.secret, s.ttl)
	if err != nil {
		_ = s.store.Delete(ctx, sid)
		return "", common.ErrInternal
	}

	return token, nil
}

// Authorize returns the user id bound to token. Bad signatures, expired
// tokens and sessions missing from the store all yield
// common.ErrUnauthenticated.
func (s *SessionService) Authorize(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrUnauthenticated
	}

	sid, err := auth.GetSessionIDFromToken(token, s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	session, err := s.store.Find(ctx, sid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthenticated
		}
		s.logger.Error(ctx, "session lookup failed", "error", fmt.Sprintf("%v", err))
		return "", common.ErrInternal
	}

	return session.UserID, nil
}

// ResolveOrInvalidate loads the user behind an authorized session. When the
// user no longer exists the session is destroyed and the error wraps both
// common.ErrSessionInvalidated and common.ErrNotFound.
func (s *SessionService) ResolveOrInvalidate(ctx context.Context, token, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, common.ErrNotFound) {
		if derr := s.Destroy(ctx, token); derr != nil {
			s.logger.Warn(ctx, "destroying orphaned session failed", "user_id", userID, "error", derr.Error())
		}
		s.logger.Info(ctx, "session invalidated, user gone", "user_id", userID)
		return nil, fmt.Errorf("%w: %w", common.ErrSessionInvalidated, common.ErrNotFound)
	}

	return nil, err
}

// Destroy removes the session named by token. Empty, malformed and expired
// tokens are ignored.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	sid, err := auth.GetSessionIDFromToken(token, s.secret)
	if err != nil {
		return nil
	}

	if err := s.store.Delete(ctx, sid); err != nil {
		s.logger.Error(ctx, "session delete failed", "error", fmt.Sprintf("%v", err))
		return common.ErrInternal
	}
	return nil
}

// PurgeExpired drops expired sessions from the store.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *SessionService) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.logger.Warn(ctx, "session purge failed", "error", err.Error())
				continue
			}
			if n > 0 {
				s.logger.Debug(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}
