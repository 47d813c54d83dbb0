package orch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// joinAttempts bounds how often Join re-resolves a room that retired
// between lookup and admission.
const joinAttempts = 3

// Orchestrator routes transport events to room actors.
type Orchestrator struct {
	Rooms     core.RoomManager
	Directory *Directory
}

func New(rooms core.RoomManager) *Orchestrator {
	return &Orchestrator{Rooms: rooms, Directory: NewDirectory()}
}

// Join admits sid into roomName. It returns app.ErrRoomNotFound when the
// room is empty and no key was given.
func (o *Orchestrator) Join(ctx context.Context, sid core.SessionID, roomName domain.RoomName, key string, conn core.SignalConnection) error {
	var err error
	for range joinAttempts {
		room := o.Rooms.GetOrCreate(roomName)
		err = room.Connect(ctx, sid, conn, key)
		if errors.Is(err, app.ErrRoomClosed) {
			log.Debug().Str("module", "app.orch").Str("room", string(roomName)).Msg("room retired during join, retrying")
			continue
		}
		if err != nil {
			return err
		}
		o.Directory.Bind(sid, room)
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("joined room")
		return nil
	}
	return err
}

func (o *Orchestrator) OnFrame(ctx context.Context, sid core.SessionID, data core.Frame) error {
	room, ok := o.Directory.RoomOf(sid)
	if !ok {
		return nil
	}
	return room.Deliver(ctx, sid, data)
}

func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	room, ok := o.Directory.Unbind(sid)
	if !ok {
		return
	}
	room.Disconnect(sid)
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(room.Room().Name)).Msg("left room")
}

// EvictRoom stops the room; its sessions are closed by the room loop and
// unbound here.
func (o *Orchestrator) EvictRoom(name domain.RoomName) {
	for _, sid := range o.Directory.SessionsOf(name) {
		o.Directory.Unbind(sid)
	}
	o.Rooms.StopRoom(name)
}
