package domain

type RoomName string

// Room is the immutable identity of a relay room.
type Room struct {
	Name RoomName
}
