package models

import "strings"

// User represents a registered ledger participant.
//
// Users are created by AddUser and are immutable afterwards. Email is unique
// across the ledger, compared case-insensitively.
type User struct {
	// ID is the positive integer identifier assigned by the store (max existing + 1).
	ID int64 `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address, unique ignoring case.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the password given at registration.
	// Empty when no password was supplied. Never exposed through the API.
	PasswordHash string `json:"password_hash,omitempty"`
}

// SameEmail reports whether the user's email matches email ignoring case.
func (u User) SameEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(email))
}
