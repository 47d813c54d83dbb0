package protocol

import (
	"fmt"

	"github.com/dkeye/Huddle/internal/domain"
)

// MaxListedUsers is the ceiling imposed by the 1-byte count field.
const MaxListedUsers = 255

// encodeUserList writes count | {id | nameLen | name}. Lists longer than
// MaxListedUsers keep their first entries; names are cut to 255 bytes.
func encodeUserList(users []domain.User) ([]byte, error) {
	if len(users) > MaxListedUsers {
		users = users[:MaxListedUsers]
	}
	size := 1
	for _, u := range users {
		size += SenderIDLen + 1 + len(domain.TruncateUsername(u.Username))
	}
	buf := make([]byte, 0, size)
	buf = append(buf, byte(len(users)))
	for _, u := range users {
		if len(u.ID) != SenderIDLen {
			return nil, fmt.Errorf("user %q: %w", u.ID, ErrInvalidSenderID)
		}
		name := domain.TruncateUsername(u.Username)
		buf = append(buf, u.ID...)
		buf = append(buf, byte(len(name)))
		buf = append(buf, name...)
	}
	return buf, nil
}

func decodeUserList(p []byte) ([]domain.User, error) {
	if len(p) < 1 {
		return nil, ErrTruncatedPayload
	}
	count := int(p[0])
	off := 1
	users := make([]domain.User, 0, count)
	for i := 0; i < count; i++ {
		if off+SenderIDLen+1 > len(p) {
			return nil, ErrTruncatedPayload
		}
		id := domain.UserID(p[off : off+SenderIDLen])
		off += SenderIDLen
		n := int(p[off])
		off++
		if off+n > len(p) {
			return nil, ErrTruncatedPayload
		}
		users = append(users, domain.User{ID: id, Username: string(p[off : off+n])})
		off += n
	}
	return users, nil
}
