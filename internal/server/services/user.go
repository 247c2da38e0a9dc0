// Package services contains server-side business logic. This file implements
// UserService, the credential store: registration, login verification and
// account lookup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/hashkeeper/internal/dbx"
	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MaxEmailLength    = 255
	MinPasswordLength = 8
)

// UserService registers and authenticates users.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	params      cryptox.Params

	// dummyHash is verified against when the username is unknown so a failed
	// lookup costs as much as a wrong password.
	dummyHash string
}

// HashOption overrides the Argon2id cost used by a service.
type HashOption func(*cryptox.Params)

// WithHashParams sets explicit Argon2id parameters.
func WithHashParams(p cryptox.Params) HashOption {
	return func(dst *cryptox.Params) { *dst = p }
}

// NewUserService constructs a UserService and precomputes its dummy hash.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, opts ...HashOption) (*UserService, error) {
	params := cryptox.DefaultParams
	for _, o := range opts {
		o(&params)
	}

	dummy, err := cryptox.HashSecretWithParams("hashkeeper-dummy-password", params)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger,
		params:      params,
		dummyHash:   dummy,
	}, nil
}

// Register validates the input, checks username and email availability and
// inserts the user with an Argon2id password hash, all in one transaction.
// Duplicates yield common.ErrAlreadyExists; bad input yields
// common.ErrValidation and nothing is written.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	email, err := validateRegistration(username, email, password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.FindByUsernameOrEmail(ctx, username, email)
		if err == nil {
			return common.ErrAlreadyExists
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		hash, err := cryptox.HashSecretWithParams(password, s.params)
		if err != nil {
			return err
		}

		created, err = repo.Create(ctx, &models.User{
			ID:           uuid.NewString(),
			UserName:     username,
			Email:        email,
			PasswordHash: hash,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.logger.Error(ctx, "register failed", "username", username, "error", fmt.Sprintf("%v", err))
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID, "username", created.UserName)
	return created, nil
}

// Verify checks a username/password pair. The username is trimmed as in
// Register. Every authentication failure,
// unknown user included, is reported as common.ErrInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_, _ = cryptox.VerifySecret(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "error", fmt.Sprintf("%v", err))
		return nil, common.ErrInternal
	}

	ok, err := cryptox.VerifySecret(password, user.PasswordHash)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err.Error())
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID returns the user or common.ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "user_id", id, "error", fmt.Sprintf("%v", err))
		return nil, common.ErrInternal
	}
	return user, nil
}

// Delete removes a user together with its KV records and stored sessions.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.repomanager.Users(s.db).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		s.logger.Error(ctx, "user delete failed", "user_id", id, "error", fmt.Sprintf("%v", err))
		return common.ErrInternal
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// validateRegistration returns the normalized (lower-cased) email.
func validateRegistration(username, email, password string) (string, error) {
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return "", fmt.Errorf("%w: username must be %d-%d characters", common.ErrValidation, MinUsernameLength, MaxUsernameLength)
	}

	email = strings.TrimSpace(email)
	if email == "" || len(email) > MaxEmailLength {
		return "", fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	return strings.ToLower(email), nil
}
