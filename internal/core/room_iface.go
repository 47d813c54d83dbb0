package core

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
)

// RoomInfo is a read-only view for APIs (no transport fields).
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
	UserCount   int             `json:"user_count"`
	Sharer      domain.UserID   `json:"sharer,omitempty"`
}

// RoomService is the core-facing API of a room.
// Every call is turned into an event for the room loop; none of them touch
// room state directly.
type RoomService interface {
	Room() *domain.Room

	// Connect runs admission and registers the session on success.
	Connect(ctx context.Context, sid SessionID, conn SignalConnection, key string) error
	// Deliver hands an inbound frame from sid to the room.
	Deliver(ctx context.Context, sid SessionID, data Frame) error
	// Disconnect removes sid; it is safe to call for unknown sessions.
	Disconnect(sid SessionID)
	Info(ctx context.Context) (RoomInfo, error)
	// Done is closed once the room loop has exited.
	Done() <-chan struct{}
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	List(ctx context.Context) []RoomInfo
	StopRoom(name domain.RoomName)
}
