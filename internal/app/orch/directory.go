package orch

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type route struct {
	room core.RoomService
}

// Directory maps live session ids to the room they were admitted into.
type Directory struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]route
}

func NewDirectory() *Directory {
	return &Directory{sessions: make(map[core.SessionID]route)}
}

func (d *Directory) Bind(sid core.SessionID, room core.RoomService) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[sid] = route{room: room}
	log.Debug().Str("module", "app.directory").Str("sid", string(sid)).Str("room", string(room.Room().Name)).Msg("bound session")
}

func (d *Directory) RoomOf(sid core.SessionID) (core.RoomService, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.sessions[sid]
	return r.room, ok
}

func (d *Directory) Unbind(sid core.SessionID) (core.RoomService, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.sessions[sid]
	if ok {
		delete(d.sessions, sid)
	}
	return r.room, ok
}

// SessionsOf returns every session currently routed to name.
func (d *Directory) SessionsOf(name domain.RoomName) []core.SessionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []core.SessionID
	for sid, r := range d.sessions {
		if r.room.Room().Name == name {
			out = append(out, sid)
		}
	}
	return out
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
