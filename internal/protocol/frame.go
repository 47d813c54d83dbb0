// Package protocol implements the binary frame format spoken on /room/{name}.
//
// Every frame is senderID(36) | streamType(1) | payload. The sender id is the
// client supplied user id in text form; server generated frames use SystemSender.
package protocol

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dkeye/Huddle/internal/domain"
)

const (
	SenderIDLen   = domain.UserIDLen
	StreamTypeLen = 1
	HeaderSize    = SenderIDLen + StreamTypeLen
)

var (
	ErrMalformedFrame     = errors.New("protocol: frame shorter than header")
	ErrInvalidSenderID    = errors.New("protocol: sender id must be 36 bytes")
	ErrUnknownChatSubtype = errors.New("protocol: unknown chat subtype")
	ErrTruncatedPayload   = errors.New("protocol: payload truncated")
)

// SystemSender addresses frames that originate from the server itself.
var SystemSender = domain.UserID(strings.Repeat("\x00", SenderIDLen))

type StreamType uint8

const (
	StreamAudio            StreamType = 1
	StreamVideo            StreamType = 2
	StreamUserListUpdate   StreamType = 3
	StreamJoinRequest      StreamType = 4
	StreamScreenShare      StreamType = 5
	StreamScreenShareStop  StreamType = 6
	StreamScreenShareStart StreamType = 7
	StreamChat             StreamType = 8
)

// Known reports whether t is part of the protocol enum.
func (t StreamType) Known() bool {
	return t >= StreamAudio && t <= StreamChat
}

func (t StreamType) String() string {
	switch t {
	case StreamAudio:
		return "audio"
	case StreamVideo:
		return "video"
	case StreamUserListUpdate:
		return "user_list_update"
	case StreamJoinRequest:
		return "join_request"
	case StreamScreenShare:
		return "screen_share"
	case StreamScreenShareStop:
		return "screen_share_stop"
	case StreamScreenShareStart:
		return "screen_share_start"
	case StreamChat:
		return "chat"
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// Frame is a decoded header plus its untouched payload.
type Frame struct {
	Sender  domain.UserID
	Type    StreamType
	Payload []byte
}

// Encode lays out sender | type | payload.
func Encode(sender domain.UserID, t StreamType, payload []byte) ([]byte, error) {
	if len(sender) != SenderIDLen {
		return nil, ErrInvalidSenderID
	}
	buf := make([]byte, HeaderSize+len(payload))
	copy(buf, sender)
	buf[SenderIDLen] = byte(t)
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

func (f Frame) Encode() ([]byte, error) {
	return Encode(f.Sender, f.Type, f.Payload)
}

// Decode splits data into a Frame. The payload aliases data.
func Decode(data []byte) (Frame, error) {
	if len(data) < HeaderSize {
		return Frame{}, ErrMalformedFrame
	}
	return Frame{
		Sender:  domain.UserID(data[:SenderIDLen]),
		Type:    StreamType(data[SenderIDLen]),
		Payload: data[HeaderSize:],
	}, nil
}
