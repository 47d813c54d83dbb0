package domain

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User *User
	// Seq is the bind order inside the room; presence lists are sorted by it.
	Seq uint64
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User, seq uint64) *Member {
	return &Member{User: user, Seq: seq}
}
