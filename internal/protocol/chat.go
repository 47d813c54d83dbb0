package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/dkeye/Huddle/internal/domain"
)

type ChatSubType uint8

const (
	ChatText  ChatSubType = 0
	ChatImage ChatSubType = 1
)

const chatHeaderSize = 1 + 8

// Chat is a text or image message. Timestamp is epoch milliseconds as sent by
// the client. Exactly one of Text and Image is meaningful, selected by SubType.
type Chat struct {
	From      domain.UserID
	SubType   ChatSubType
	Timestamp float64
	Text      string
	Image     []byte
}

func encodeChat(m Chat) ([]byte, error) {
	var content []byte
	switch m.SubType {
	case ChatText:
		content = []byte(m.Text)
	case ChatImage:
		content = m.Image
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownChatSubtype, m.SubType)
	}
	buf := make([]byte, chatHeaderSize+len(content))
	buf[0] = byte(m.SubType)
	binary.LittleEndian.PutUint64(buf[1:chatHeaderSize], math.Float64bits(m.Timestamp))
	copy(buf[chatHeaderSize:], content)
	return buf, nil
}

func decodeChat(from domain.UserID, p []byte) (Message, error) {
	if len(p) < chatHeaderSize {
		return nil, fmt.Errorf("chat: %w", ErrTruncatedPayload)
	}
	m := Chat{
		From:      from,
		SubType:   ChatSubType(p[0]),
		Timestamp: math.Float64frombits(binary.LittleEndian.Uint64(p[1:chatHeaderSize])),
	}
	content := p[chatHeaderSize:]
	switch m.SubType {
	case ChatText:
		m.Text = string(content)
	case ChatImage:
		m.Image = content
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownChatSubtype, p[0])
	}
	return m, nil
}
