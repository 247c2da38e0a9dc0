package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/repomanager"
)

// MaxKeyLength bounds a KV key, counted in characters after trimming.
const MaxKeyLength = 128

// KVService stores per-user key/value records. Values are hashed with
// Argon2id before they reach storage and cannot be recovered.
type KVService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	params      cryptox.Params
}

func NewKVService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, opts ...HashOption) *KVService {
	params := cryptox.DefaultParams
	for _, o := range opts {
		o(&params)
	}
	return &KVService{db: db, repomanager: m, logger: logger, params: params}
}

// Put trims key and value, hashes the value and appends a new record. Keys
// are not unique: putting the same key twice yields two records.
func (s *KVService) Put(ctx context.Context, userID, key, value string) (*models.KV, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if key == "" || value == "" {
		return nil, fmt.Errorf("%w: both key and value are required", common.ErrValidation)
	}
	if utf8.RuneCountInString(key) > MaxKeyLength {
		return nil, fmt.Errorf("%w: key longer than %d characters", common.ErrValidation, MaxKeyLength)
	}

	hash, err := cryptox.HashSecretWithParams(value, s.params)
	if err != nil {
		return nil, common.ErrInternal
	}

	item, err := s.repomanager.KV(s.db).Create(ctx, &models.KV{UserID: userID, Key: key, ValueHash: hash})
	if err != nil {
		s.logger.Error(ctx, "kv insert failed", "user_id", userID, "error", fmt.Sprintf("%v", err))
		return nil, common.ErrInternal
	}

	s.logger.Debug(ctx, "kv stored", "user_id", userID, "kv_id", item.ID)
	return item, nil
}

// List returns the user's records in insertion order.
func (s *KVService) List(ctx context.Context, userID string) ([]*models.KV, error) {
	items, err := s.repomanager.KV(s.db).ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "kv list failed", "user_id", userID, "error", fmt.Sprintf("%v", err))
		return nil, common.ErrInternal
	}
	return items, nil
}
