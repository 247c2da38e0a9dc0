// Package notify announces completed exports to other systems.
package notify

import (
	"context"
	"time"
)

// EventExportPublished is the type of the event sent after an export was
// written to the object store.
const EventExportPublished = "export.published"

type ExportEvent struct {
	Type        string    `json:"type"`
	Username    string    `json:"username"`
	Key         string    `json:"key"`
	ContentHash string    `json:"content_hash"`
	PublishedAt time.Time `json:"published_at"`
}

type Notifier interface {
	ExportPublished(ctx context.Context, ev ExportEvent) error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) ExportPublished(context.Context, ExportEvent) error { return nil }
