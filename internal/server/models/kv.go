package models

import "time"

// KV is a single key/value record owned by a user. Only the hash of the
// value is ever stored.
type KV struct {
	ID        int64
	UserID    string
	Key       string
	ValueHash string
	CreatedAt time.Time
}
