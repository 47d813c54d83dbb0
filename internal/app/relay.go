package app

import (
	"errors"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/metrics"
)

// PublishResult reports delivery stats for one fan-out.
type PublishResult struct {
	SendTo  int
	Dropped int
}

// broadcast hands data to every session except from. An empty from reaches
// everybody. Sends never block; failures only affect the receiving session.
func (r *Room) broadcast(from core.SessionID, data core.Frame) PublishResult {
	res := PublishResult{}
	r.sessions.Each(func(s *session) {
		if s.id == from {
			return
		}
		if r.deliver(s, data) {
			res.SendTo++
		} else {
			res.Dropped++
		}
	})
	r.logger.Debug().Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", res.Dropped).Msg("broadcast result")
	return res
}

func (r *Room) deliver(s *session, data core.Frame) bool {
	err := s.conn.TrySend(data)
	if err == nil {
		return true
	}
	if !errors.Is(err, core.ErrBackpressure) {
		r.metrics.Dropped.WithLabelValues(metrics.DropClosed).Inc()
		return false
	}
	r.metrics.Dropped.WithLabelValues(metrics.DropBackpressure).Inc()
	switch r.policy.OnBackPressure(r.room.Name, s.id) {
	case KickMember:
		if s.kicked {
			return false
		}
		s.kicked = true
		r.metrics.Kicked.Inc()
		r.logger.Warn().Str("sid", string(s.id)).Msg("send queue full, kicking member")
		s.conn.Close(core.ClosePolicyViolation, "send queue full")
	case DropFrame:
	}
	return false
}
