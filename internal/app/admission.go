package app

import "errors"

var ErrRoomNotFound = errors.New("room not found")

// Gate is the admission rule of a room. Only the first connection into an
// empty room is checked: it must carry a key, which becomes the host key.
//
// Later joiners are admitted without comparing their key to the host key.
type Gate struct {
	hostKey string
}

// Admit decides whether a connection may enter. empty reports whether the
// room currently has no sessions.
func (g *Gate) Admit(empty bool, key string) error {
	if !empty {
		return nil
	}
	if key == "" {
		return ErrRoomNotFound
	}
	g.hostKey = key
	return nil
}

func (g *Gate) HostKey() string { return g.hostKey }
