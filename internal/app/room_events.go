package app

import "github.com/dkeye/Huddle/internal/core"

type roomEventKind uint8

const (
	evUnknown roomEventKind = iota
	evConnect
	evFrame
	evDisconnect
	evInfo
)

type roomEvent struct {
	kind roomEventKind
	sid  core.SessionID

	// evConnect
	conn  core.SignalConnection
	key   string
	reply chan error

	// evFrame
	data core.Frame

	// evInfo
	info chan core.RoomInfo
}
