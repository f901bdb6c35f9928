package models

import "time"

// AdminIdentity is an administrator allowed to sign in to the dashboard.
type AdminIdentity struct {
	Username     string    `json:"username" db:"username" yaml:"username"`
	PasswordHash string    `json:"-" db:"password_hash" yaml:"passwordHash"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt" db:"created_at" yaml:"-"`
}
