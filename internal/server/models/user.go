// Package models defines the persistent record types shared by repositories
// and services.
package models

import "time"

// User is a registered identity. PasswordHash holds the bcrypt hash of the
// password; the plaintext is never stored and the hash is never serialized
// to clients.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
