// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"unicode/utf8"
)

const (
	UserIDLen      = 36
	MaxUsernameLen = 255
)

var ErrInvalidUserID = errors.New("user id must be 36 bytes")

// UserID is the client supplied identifier, normally a UUID in text form.
// The server never checks it for uniqueness.
type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser builds a User from a JOIN_REQUEST. Usernames longer than
// MaxUsernameLen bytes are truncated on a rune boundary.
func NewUser(id UserID, username string) (*User, error) {
	if len(id) != UserIDLen {
		return nil, ErrInvalidUserID
	}
	return &User{ID: id, Username: TruncateUsername(username)}, nil
}

// TruncateUsername cuts name to at most MaxUsernameLen bytes without
// splitting a multi-byte rune.
func TruncateUsername(name string) string {
	if len(name) <= MaxUsernameLen {
		return name
	}
	cut := MaxUsernameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
