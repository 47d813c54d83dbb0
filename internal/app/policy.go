package app

import (
	"fmt"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose send queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, sid core.SessionID) BackpressureAction
}

// DropPolicy loses the frame for that member only.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomName, core.SessionID) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects the member so the client reconnects and resyncs.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomName, core.SessionID) BackpressureAction {
	return KickMember
}

// PolicyByName maps the backpressure config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
