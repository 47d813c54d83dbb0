package app

import (
	"github.com/dkeye/Huddle/internal/protocol"
)

// syncPresence sends the full user list to every open session, including
// the one whose join or leave triggered it.
func (r *Room) syncPresence() {
	users := r.sessions.Users()
	frame, err := protocol.Marshal(protocol.UserListUpdate{Users: users})
	if err != nil {
		r.logger.Error().Err(err).Msg("encode user list")
		return
	}
	r.logger.Debug().Int("users", len(users)).Msg("presence sync")
	r.broadcast("", frame)
}

// catchUp replays the active screen share to a freshly bound session.
func (r *Room) catchUp(s *session) {
	frames, err := r.share.CatchUp()
	if err != nil {
		r.logger.Error().Err(err).Msg("encode screen share catch-up")
		return
	}
	if len(frames) == 0 {
		return
	}
	for _, f := range frames {
		r.deliver(s, f)
	}
	r.metrics.CatchUps.Inc()
	r.logger.Info().Str("sid", string(s.id)).Int("frames", len(frames)).Msg("screen share catch-up sent")
}
