package core

import "github.com/google/uuid"

// SessionID identifies one open connection. Unlike domain.UserID it is
// generated by the server and unique per connection.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}
