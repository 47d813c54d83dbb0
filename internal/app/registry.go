package app

import (
	"slices"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type session struct {
	id     core.SessionID
	conn   core.SignalConnection
	member *domain.Member // nil until a JOIN_REQUEST binds a user
	kicked bool
}

// SessionRegistry tracks the open connections of one room and the user bound
// to each. It is owned by the room loop and has no locking of its own.
type SessionRegistry struct {
	order    []core.SessionID
	sessions map[core.SessionID]*session
	byUser   map[domain.UserID]core.SessionID
	seq      uint64
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[core.SessionID]*session),
		byUser:   make(map[domain.UserID]core.SessionID),
	}
}

func (r *SessionRegistry) Len() int { return len(r.sessions) }

func (r *SessionRegistry) Add(sid core.SessionID, conn core.SignalConnection) *session {
	s := &session{id: sid, conn: conn}
	if _, ok := r.sessions[sid]; !ok {
		r.order = append(r.order, sid)
	}
	r.sessions[sid] = s
	return s
}

func (r *SessionRegistry) Get(sid core.SessionID) (*session, bool) {
	s, ok := r.sessions[sid]
	return s, ok
}

// Remove drops sid and returns the removed session, including its binding.
func (r *SessionRegistry) Remove(sid core.SessionID) (*session, bool) {
	s, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	if i := slices.Index(r.order, sid); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	if s.member != nil && r.byUser[s.member.User.ID] == sid {
		delete(r.byUser, s.member.User.ID)
	}
	return s, true
}

// Bind attaches user to sid. Last bind wins: a session that previously
// claimed the same user id is unbound and returned as evicted.
func (r *SessionRegistry) Bind(sid core.SessionID, user *domain.User) (evicted core.SessionID, ok bool) {
	s, found := r.sessions[sid]
	if !found {
		return "", false
	}
	if s.member != nil && r.byUser[s.member.User.ID] == sid {
		delete(r.byUser, s.member.User.ID)
	}
	if prev, taken := r.byUser[user.ID]; taken && prev != sid {
		if ps, ok := r.sessions[prev]; ok {
			ps.member = nil
		}
		evicted = prev
	}
	r.seq++
	s.member = domain.NewMember(user, r.seq)
	r.byUser[user.ID] = sid
	return evicted, true
}

func (r *SessionRegistry) BoundCount() int { return len(r.byUser) }

// Users lists bound users in bind order.
func (r *SessionRegistry) Users() []domain.User {
	members := make([]*domain.Member, 0, len(r.byUser))
	for _, sid := range r.byUser {
		members = append(members, r.sessions[sid].member)
	}
	slices.SortFunc(members, func(a, b *domain.Member) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	out := make([]domain.User, 0, len(members))
	for _, m := range members {
		out = append(out, *m.User)
	}
	return out
}

// Each visits sessions in connection order.
func (r *SessionRegistry) Each(fn func(s *session)) {
	for _, sid := range r.order {
		fn(r.sessions[sid])
	}
}
