package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/app/share"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/metrics"
	"github.com/dkeye/Huddle/internal/protocol"
)

// ErrRoomClosed is returned when the room loop has already exited. Callers
// resolve the room again; a retired room is never reused.
var ErrRoomClosed = errors.New("room closed")

type RoomOptions struct {
	Mailbox int
	// IdleTTL is how long a room may stay empty before it retires.
	// Zero keeps empty rooms forever.
	IdleTTL time.Duration
	Policy  Policy
	Metrics *metrics.Metrics
}

// Room is the actor behind one room name. All state below is touched only
// by the run loop.
type Room struct {
	room   *domain.Room
	inbox  chan roomEvent
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	sessions *SessionRegistry
	gate     Gate
	share    share.State

	policy  Policy
	metrics *metrics.Metrics
	idleTTL time.Duration
	retire  func(*Room)
	logger  zerolog.Logger

	// refused is set when a managed room turned away a connect while empty.
	refused bool
}

func newRoom(parent context.Context, name domain.RoomName, opts RoomOptions, retire func(*Room)) *Room {
	ctx, cancel := context.WithCancel(parent)
	if opts.Mailbox <= 0 {
		opts.Mailbox = 256
	}
	if opts.Policy == nil {
		opts.Policy = DropPolicy{}
	}
	return &Room{
		room:     &domain.Room{Name: name},
		inbox:    make(chan roomEvent, opts.Mailbox),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		sessions: NewSessionRegistry(),
		share:    share.Idle(),
		policy:   opts.Policy,
		metrics:  opts.Metrics,
		idleTTL:  opts.IdleTTL,
		retire:   retire,
		logger:   log.With().Str("module", "app.room").Str("room", string(name)).Logger(),
	}
}

func (r *Room) Room() *domain.Room { return r.room }

func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) stop() { r.cancel() }

func (r *Room) Connect(ctx context.Context, sid core.SessionID, conn core.SignalConnection, key string) error {
	reply := make(chan error, 1)
	if err := r.submit(ctx, roomEvent{kind: evConnect, sid: sid, conn: conn, key: key, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		select {
		case err := <-reply:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		r.Disconnect(sid)
		return ctx.Err()
	}
}

func (r *Room) Deliver(ctx context.Context, sid core.SessionID, data core.Frame) error {
	return r.submit(ctx, roomEvent{kind: evFrame, sid: sid, data: data})
}

func (r *Room) Disconnect(sid core.SessionID) {
	_ = r.submit(context.Background(), roomEvent{kind: evDisconnect, sid: sid})
}

func (r *Room) Info(ctx context.Context) (core.RoomInfo, error) {
	reply := make(chan core.RoomInfo, 1)
	if err := r.submit(ctx, roomEvent{kind: evInfo, info: reply}); err != nil {
		return core.RoomInfo{}, err
	}
	select {
	case info := <-reply:
		return info, nil
	case <-r.done:
		return core.RoomInfo{}, ErrRoomClosed
	case <-ctx.Done():
		return core.RoomInfo{}, ctx.Err()
	}
}

func (r *Room) submit(ctx context.Context, ev roomEvent) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.inbox <- ev:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the room loop. It is the only goroutine that reads or writes room
// state, so nothing in here takes a lock.
func (r *Room) run() {
	defer close(r.done)
	r.logger.Info().Msg("room started")

	var idle *time.Timer
	var idleC <-chan time.Time
	armIdle := func() {
		if r.idleTTL <= 0 {
			return
		}
		if r.sessions.Len() == 0 && idle == nil {
			idle = time.NewTimer(r.idleTTL)
			idleC = idle.C
		} else if r.sessions.Len() > 0 && idle != nil {
			idle.Stop()
			idle, idleC = nil, nil
		}
	}
	armIdle()

	for {
		select {
		case <-r.ctx.Done():
			r.closeAll(core.CloseGoingAway, "room stopped")
			r.logger.Info().Msg("room stopped")
			return
		case ev := <-r.inbox:
			r.handle(ev)
			if r.refused && r.sessions.Len() == 0 && len(r.inbox) == 0 {
				r.retireNow("refused connect into empty room")
				return
			}
			r.refused = false
			armIdle()
		case <-idleC:
			idle, idleC = nil, nil
			if r.sessions.Len() > 0 || len(r.inbox) > 0 {
				continue
			}
			r.retireNow("idle")
			return
		}
	}
}

func (r *Room) retireNow(why string) {
	if r.retire != nil {
		r.retire(r)
	}
	r.cancel()
	r.logger.Info().Str("reason", why).Dur("idle_ttl", r.idleTTL).Msg("room retired")
}

func (r *Room) handle(ev roomEvent) {
	switch ev.kind {
	case evConnect:
		ev.reply <- r.onConnect(ev.sid, ev.conn, ev.key)
	case evFrame:
		r.onFrame(ev.sid, ev.data)
	case evDisconnect:
		r.onLeave(ev.sid)
	case evInfo:
		ev.info <- r.info()
	case evUnknown:
		r.logger.Warn().Msg("unknown room event")
	}
}

func (r *Room) onConnect(sid core.SessionID, conn core.SignalConnection, key string) error {
	if err := r.gate.Admit(r.sessions.Len() == 0, key); err != nil {
		r.metrics.Rejected.Inc()
		r.logger.Info().Str("sid", string(sid)).Msg("admission rejected")
		r.refused = r.retire != nil
		return err
	}
	r.sessions.Add(sid, conn)
	r.metrics.Sessions.Inc()
	r.logger.Info().Str("sid", string(sid)).Int("sessions", r.sessions.Len()).Msg("session admitted")
	return nil
}

func (r *Room) onFrame(sid core.SessionID, data core.Frame) {
	s, ok := r.sessions.Get(sid)
	if !ok {
		return
	}
	f, err := protocol.Decode(data)
	if err != nil {
		r.metrics.Dropped.WithLabelValues(metrics.DropMalformed).Inc()
		r.logger.Debug().Str("sid", string(sid)).Int("len", len(data)).Msg("malformed frame dropped")
		return
	}
	r.metrics.Frames.WithLabelValues(typeLabel(f.Type)).Inc()

	// Presence is server-authored; a client list is never relayed, parsable or not.
	if f.Type == protocol.StreamUserListUpdate {
		r.metrics.Dropped.WithLabelValues(metrics.DropClientList).Inc()
		r.logger.Debug().Str("sid", string(sid)).Msg("client sent user list, dropped")
		return
	}

	msg, err := f.Message()
	if err != nil {
		// Still relayed: peers may understand what the server cannot.
		r.logger.Debug().Err(err).Str("sid", string(sid)).Stringer("type", f.Type).Msg("uninterpreted payload")
		r.broadcast(sid, data)
		return
	}

	switch m := msg.(type) {
	case protocol.JoinRequest:
		r.onJoin(s, m)
		return
	case protocol.ScreenShareStart, protocol.ScreenShare, protocol.ScreenShareStop:
		before := r.share.Active()
		r.share = r.share.Apply(m)
		if before != r.share.Active() {
			uid, _ := r.share.Sharer()
			r.logger.Info().Str("sharer", string(uid)).Bool("active", r.share.Active()).Msg("screen share changed")
		}
	case protocol.Audio, protocol.Video, protocol.Chat, protocol.Unknown:
	}
	r.broadcast(sid, data)
}

func (r *Room) onJoin(s *session, m protocol.JoinRequest) {
	user, err := domain.NewUser(m.From, m.Username)
	if err != nil {
		r.logger.Warn().Err(err).Str("sid", string(s.id)).Msg("join rejected")
		return
	}
	if s.member != nil && s.member.User.ID != user.ID {
		r.endShare(s.member.User.ID, "sharer rebound, screen share stopped")
	}
	evicted, _ := r.sessions.Bind(s.id, user)
	ev := r.logger.Info().Str("sid", string(s.id)).Str("user", string(user.ID)).Str("username", user.Username)
	if evicted != "" {
		ev = ev.Str("evicted_sid", string(evicted))
	}
	ev.Msg("user bound")

	r.syncPresence()
	r.catchUp(s)
}

func (r *Room) onLeave(sid core.SessionID) {
	s, ok := r.sessions.Remove(sid)
	if !ok {
		return
	}
	r.metrics.Sessions.Dec()
	r.logger.Info().Str("sid", string(sid)).Int("sessions", r.sessions.Len()).Msg("session left")

	if s.member != nil {
		r.endShare(s.member.User.ID, "sharer left, screen share stopped")
	}
	r.syncPresence()
}

// endShare ends uid's share, if it is the sharer, and tells every peer with
// a synthesized stop.
func (r *Room) endShare(uid domain.UserID, msg string) {
	next, ended := r.share.Leave(uid)
	r.share = next
	if !ended {
		return
	}
	frame, err := share.StopFrame(uid)
	if err != nil {
		r.logger.Error().Err(err).Msg("encode synthesized stop")
		return
	}
	r.logger.Info().Str("sharer", string(uid)).Msg(msg)
	r.broadcast("", frame)
}

func (r *Room) info() core.RoomInfo {
	info := core.RoomInfo{
		Name:        r.room.Name,
		MemberCount: r.sessions.Len(),
		UserCount:   r.sessions.BoundCount(),
	}
	if uid, ok := r.share.Sharer(); ok {
		info.Sharer = uid
	}
	return info
}

func (r *Room) closeAll(code int, reason string) {
	r.sessions.Each(func(s *session) {
		s.conn.Close(code, reason)
	})
	r.metrics.Sessions.Sub(float64(r.sessions.Len()))
}

func typeLabel(t protocol.StreamType) string {
	if !t.Known() {
		return "unknown"
	}
	return t.String()
}
