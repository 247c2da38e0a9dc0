// Package models holds the server-side domain records persisted by the
// repositories.
package models

import "time"

// User is a registered account. PasswordHash is an Argon2id PHC string.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
