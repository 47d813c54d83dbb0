package app

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
)

// RoomManagerImpl owns the name -> room actor map. Every room it starts
// runs on its own goroutine until stopped or retired for idleness.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*Room

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
	opts   RoomOptions
}

func NewRoomManager(opts RoomOptions) *RoomManagerImpl {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(prometheus.NewRegistry())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RoomManagerImpl{
		rooms:  make(map[domain.RoomName]*Room),
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}
}

func (f *RoomManagerImpl) GetOrCreate(name domain.RoomName) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[name]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[name]; ok {
		return room
	}
	room = newRoom(f.ctx, name, f.opts, f.retire)
	f.rooms[name] = room
	f.opts.Metrics.Rooms.Inc()
	f.wg.Go(room.run)
	return room
}

func (f *RoomManagerImpl) Get(name domain.RoomName) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	if !ok {
		return nil, false
	}
	return room, true
}

// List asks every live room for its info. Rooms that exit while being
// asked are left out.
func (f *RoomManagerImpl) List(ctx context.Context) []core.RoomInfo {
	f.mu.RLock()
	rooms := make([]*Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Info(ctx)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return out
}

// StopRoom removes the room from the map and stops its loop. Connected
// sessions are closed with 1001.
func (f *RoomManagerImpl) StopRoom(name domain.RoomName) {
	f.mu.Lock()
	room, ok := f.rooms[name]
	if ok {
		delete(f.rooms, name)
		f.opts.Metrics.Rooms.Dec()
	}
	f.mu.Unlock()
	if ok {
		room.stop()
		log.Info().Str("module", "app.room_manager").Str("room", string(name)).Msg("room stopped")
	}
}

// retire is called from a room's own loop once it has been idle long
// enough. It only unmaps the room if the mapping still points at it.
func (f *RoomManagerImpl) retire(r *Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.rooms[r.room.Name]; ok && cur == r {
		delete(f.rooms, r.room.Name)
		f.opts.Metrics.Rooms.Dec()
	}
}

// Shutdown stops every room and waits for all loops to exit.
func (f *RoomManagerImpl) Shutdown() {
	f.mu.Lock()
	n := len(f.rooms)
	f.rooms = make(map[domain.RoomName]*Room)
	f.opts.Metrics.Rooms.Sub(float64(n))
	f.mu.Unlock()

	f.cancel()
	f.wg.Wait()
	log.Info().Str("module", "app.room_manager").Int("rooms", n).Msg("all rooms stopped")
}
