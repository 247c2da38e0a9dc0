package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/objectstore"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/dmitrijs2005/hashkeeper/internal/server/notify"
)

type ExportStatus string

const (
	StatusNothingToExport ExportStatus = "nothing_to_export"
	StatusUnchanged       ExportStatus = "unchanged"
	StatusPublished       ExportStatus = "published"
)

// ContentHashMetadataKey is the object metadata entry holding the SHA-256 of
// a published export.
const ContentHashMetadataKey = "content-sha256"

// ObjectStore is the object storage the exporter publishes to.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error
}

// KVLister lists a user's records in insertion order.
type KVLister interface {
	List(ctx context.Context, userID string) ([]*models.KV, error)
}

type ExportResult struct {
	Status      ExportStatus
	Key         string
	ContentHash string
	Content     string
}

// ExportService publishes a user's KV records (keys and value hashes) as a
// text artifact, skipping the write when the content did not change.
type ExportService struct {
	kv       KVLister
	store    ObjectStore
	notifier notify.Notifier
	timeout  time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewExportService(kv KVLister, store ObjectStore, notifier notify.Notifier, timeout time.Duration, logger logging.Logger) *ExportService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &ExportService{
		kv:       kv,
		store:    store,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// ExportKey is the object key of a user's export artifact.
func ExportKey(username string) string {
	return "exports/" + username + ".txt"
}

// SerializeKV renders one "<index>\t<key>\t<v_hash>" line per record, joined
// by "\n" with no trailing newline.
func SerializeKV(items []*models.KV) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, strconv.Itoa(i)+"\t"+item.Key+"\t"+item.ValueHash)
	}
	return strings.Join(lines, "\n")
}

// Export publishes the user's records unless the stored artifact already has
// the same content. A failed read of the previous artifact counts as "no
// previous artifact"; a failed write returns common.ErrExternalIO.
func (s *ExportService) Export(ctx context.Context, user *models.User) (*ExportResult, error) {
	items, err := s.kv.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &ExportResult{Status: StatusNothingToExport}, nil
	}

	content := SerializeKV(items)
	hash := cryptox.ContentHash([]byte(content))
	key := ExportKey(user.UserName)
	result := &ExportResult{Key: key, ContentHash: hash, Content: content}

	if prev, ok := s.previousHash(ctx, key); ok && prev == hash {
		result.Status = StatusUnchanged
		return result, nil
	}

	putCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.store.PutObject(putCtx, key, []byte(content), common.ExportContentType,
		map[string]string{ContentHashMetadataKey: hash})
	if err != nil {
		s.logger.Error(ctx, "export publish failed", "key", key, "error", fmt.Sprintf("%v", err))
		return nil, fmt.Errorf("%w: %v", common.ErrExternalIO, err)
	}

	result.Status = StatusPublished
	s.logger.Info(ctx, "export published", "key", key, "content_hash", hash, "records", len(items))

	ev := notify.ExportEvent{
		Type:        notify.EventExportPublished,
		Username:    user.UserName,
		Key:         key,
		ContentHash: hash,
		PublishedAt: s.now().UTC(),
	}
	if err := s.notifier.ExportPublished(ctx, ev); err != nil {
		s.logger.Warn(ctx, "export notification failed", "key", key, "error", err.Error())
	}

	return result, nil
}

func (s *ExportService) previousHash(ctx context.Context, key string) (string, bool) {
	getCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prev, err := s.store.GetObject(getCtx, key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			s.logger.Debug(ctx, "no previous export", "key", key)
		} else {
			s.logger.Warn(ctx, "reading previous export failed", "key", key, "error", err.Error())
		}
		return "", false
	}
	return cryptox.ContentHash(prev), true
}
