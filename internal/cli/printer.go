package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

// printer turns inbound frames into one line per event. Media chunks are
// counted, not printed.
type printer struct {
	w     io.Writer
	self  domain.UserID
	names map[domain.UserID]string
	chunk int
}

func newPrinter(w io.Writer, self domain.UserID) *printer {
	return &printer{w: w, self: self, names: make(map[domain.UserID]string)}
}

func (p *printer) name(id domain.UserID) string {
	if n, ok := p.names[id]; ok && n != "" {
		return n
	}
	return string(id)
}

func (p *printer) frame(data []byte) {
	msg, err := protocol.Parse(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "cli").Int("len", len(data)).Msg("unparsable frame")
		return
	}
	if line := p.describe(msg); line != "" {
		fmt.Fprintln(p.w, line)
	}
}

func (p *printer) describe(msg protocol.Message) string {
	switch m := msg.(type) {
	case protocol.UserListUpdate:
		names := make([]string, 0, len(m.Users))
		p.names = make(map[domain.UserID]string, len(m.Users))
		for _, u := range m.Users {
			p.names[u.ID] = u.Username
			label := u.Username
			if u.ID == p.self {
				label += " (you)"
			}
			names = append(names, label)
		}
		return fmt.Sprintf("* %d online: %s", len(m.Users), strings.Join(names, ", "))
	case protocol.Chat:
		ts := time.UnixMilli(int64(m.Timestamp)).Format("15:04:05")
		if m.SubType == protocol.ChatImage {
			return fmt.Sprintf("[%s] %s sent an image (%d bytes)", ts, p.name(m.From), len(m.Image))
		}
		return fmt.Sprintf("[%s] %s: %s", ts, p.name(m.From), m.Text)
	case protocol.ScreenShareStart:
		p.chunk = 0
		return fmt.Sprintf("* %s started sharing (%s)", p.name(m.From), m.MimeType)
	case protocol.ScreenShareStop:
		return fmt.Sprintf("* %s stopped sharing after %d chunks", p.name(m.From), p.chunk)
	case protocol.ScreenShare:
		p.chunk++
	case protocol.Audio, protocol.Video, protocol.JoinRequest, protocol.Unknown:
	}
	return ""
}
