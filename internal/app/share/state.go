// Package share tracks the single active screen sharer of a room.
//
// State is a value: every transition returns a new State and never mutates
// the receiver, so a room can keep exactly one current value and tests can
// replay event lists against it.
package share

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

type State struct {
	active  bool
	sharer  domain.UserID
	mime    string
	hasMime bool
	init    []byte
	hasInit bool
}

// Idle is the zero State.
func Idle() State { return State{} }

func (s State) Active() bool { return s.active }

func (s State) Sharer() (domain.UserID, bool) { return s.sharer, s.active }

func (s State) MimeType() (string, bool) { return s.mime, s.hasMime }

func (s State) InitSegment() ([]byte, bool) { return s.init, s.hasInit }

// IsSharer reports whether uid is the active sharer.
func (s State) IsSharer(uid domain.UserID) bool { return s.active && s.sharer == uid }

// Start replaces whatever was active; last writer wins.
func (s State) Start(uid domain.UserID, mime string) State {
	return State{active: true, sharer: uid, mime: mime, hasMime: true}
}

// Chunk records a media chunk from uid. A chunk from someone who is not the
// sharer starts an undeclared share. The first chunk after a start is kept
// as the init segment; later chunks leave the state untouched.
func (s State) Chunk(uid domain.UserID, chunk []byte) State {
	next := s
	if !s.IsSharer(uid) {
		next = State{active: true, sharer: uid}
	}
	if next.hasInit {
		return next
	}
	next.init = append([]byte(nil), chunk...)
	next.hasInit = true
	return next
}

// Stop goes Idle when uid is the sharer and is a no-op otherwise.
func (s State) Stop(uid domain.UserID) State {
	if !s.IsSharer(uid) {
		return s
	}
	return Idle()
}

// Leave handles the sharer's session going away without a stop. The bool
// reports whether a share was ended and peers need a synthesized stop.
func (s State) Leave(uid domain.UserID) (State, bool) {
	if !s.IsSharer(uid) {
		return s, false
	}
	return Idle(), true
}

// Apply feeds one decoded frame through the machine. Messages that are not
// screen-share control leave the state as is.
func (s State) Apply(m protocol.Message) State {
	switch v := m.(type) {
	case protocol.ScreenShareStart:
		return s.Start(v.From, v.MimeType)
	case protocol.ScreenShare:
		return s.Chunk(v.From, v.Chunk)
	case protocol.ScreenShareStop:
		return s.Stop(v.From)
	case protocol.JoinRequest, protocol.Audio, protocol.Video, protocol.Chat,
		protocol.UserListUpdate, protocol.Unknown:
		return s
	default:
		return s
	}
}

// CatchUp returns the frames a late joiner needs, in order: the start with
// the mime type (if known), then the cached init segment (if any). Both are
// addressed from the sharer.
func (s State) CatchUp() ([][]byte, error) {
	if !s.active {
		return nil, nil
	}
	var out [][]byte
	if s.hasMime {
		f, err := protocol.Marshal(protocol.ScreenShareStart{From: s.sharer, MimeType: s.mime})
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if s.hasInit {
		f, err := protocol.Marshal(protocol.ScreenShare{From: s.sharer, Chunk: s.init})
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// StopFrame is the synthesized stop broadcast when a sharer disappears.
func StopFrame(uid domain.UserID) ([]byte, error) {
	return protocol.Marshal(protocol.ScreenShareStop{From: uid})
}
