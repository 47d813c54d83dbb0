package protocol

import (
	"fmt"

	"github.com/dkeye/Huddle/internal/domain"
)

// Message is the closed set of decoded frames. Stream types outside the enum
// come back as Unknown so callers can still relay them.
type Message interface {
	Sender() domain.UserID
	Type() StreamType
	payload() ([]byte, error)
}

type JoinRequest struct {
	From     domain.UserID
	Username string
}

type Audio struct {
	From  domain.UserID
	Chunk []byte
}

// Video is reserved by the protocol; nothing in the relay interprets it.
type Video struct {
	From  domain.UserID
	Chunk []byte
}

type UserListUpdate struct {
	Users []domain.User
}

type ScreenShare struct {
	From  domain.UserID
	Chunk []byte
}

type ScreenShareStart struct {
	From     domain.UserID
	MimeType string
}

type ScreenShareStop struct {
	From domain.UserID
}

type Unknown struct {
	From domain.UserID
	Raw  StreamType
}

func (m JoinRequest) Sender() domain.UserID      { return m.From }
func (m Audio) Sender() domain.UserID            { return m.From }
func (m Video) Sender() domain.UserID            { return m.From }
func (m UserListUpdate) Sender() domain.UserID   { return SystemSender }
func (m ScreenShare) Sender() domain.UserID      { return m.From }
func (m ScreenShareStart) Sender() domain.UserID { return m.From }
func (m ScreenShareStop) Sender() domain.UserID  { return m.From }
func (m Chat) Sender() domain.UserID             { return m.From }
func (m Unknown) Sender() domain.UserID          { return m.From }

func (JoinRequest) Type() StreamType      { return StreamJoinRequest }
func (Audio) Type() StreamType            { return StreamAudio }
func (Video) Type() StreamType            { return StreamVideo }
func (UserListUpdate) Type() StreamType   { return StreamUserListUpdate }
func (ScreenShare) Type() StreamType      { return StreamScreenShare }
func (ScreenShareStart) Type() StreamType { return StreamScreenShareStart }
func (ScreenShareStop) Type() StreamType  { return StreamScreenShareStop }
func (Chat) Type() StreamType             { return StreamChat }
func (m Unknown) Type() StreamType        { return m.Raw }

func (m JoinRequest) payload() ([]byte, error)      { return []byte(m.Username), nil }
func (m Audio) payload() ([]byte, error)            { return m.Chunk, nil }
func (m Video) payload() ([]byte, error)            { return m.Chunk, nil }
func (m UserListUpdate) payload() ([]byte, error)   { return encodeUserList(m.Users) }
func (m ScreenShare) payload() ([]byte, error)      { return m.Chunk, nil }
func (m ScreenShareStart) payload() ([]byte, error) { return []byte(m.MimeType), nil }
func (m ScreenShareStop) payload() ([]byte, error)  { return nil, nil }
func (m Chat) payload() ([]byte, error)             { return encodeChat(m) }
func (m Unknown) payload() ([]byte, error)          { return nil, nil }

// Marshal encodes m into a wire frame.
func Marshal(m Message) ([]byte, error) {
	p, err := m.payload()
	if err != nil {
		return nil, err
	}
	return Encode(m.Sender(), m.Type(), p)
}

// Parse decodes data into a Message. Byte slices in the result alias data.
func Parse(data []byte) (Message, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Message()
}

// Message interprets the frame payload according to its stream type.
func (f Frame) Message() (Message, error) {
	switch f.Type {
	case StreamJoinRequest:
		return JoinRequest{From: f.Sender, Username: string(f.Payload)}, nil
	case StreamAudio:
		return Audio{From: f.Sender, Chunk: f.Payload}, nil
	case StreamVideo:
		return Video{From: f.Sender, Chunk: f.Payload}, nil
	case StreamUserListUpdate:
		users, err := decodeUserList(f.Payload)
		if err != nil {
			return nil, fmt.Errorf("user list: %w", err)
		}
		return UserListUpdate{Users: users}, nil
	case StreamScreenShare:
		return ScreenShare{From: f.Sender, Chunk: f.Payload}, nil
	case StreamScreenShareStart:
		return ScreenShareStart{From: f.Sender, MimeType: string(f.Payload)}, nil
	case StreamScreenShareStop:
		return ScreenShareStop{From: f.Sender}, nil
	case StreamChat:
		return decodeChat(f.Sender, f.Payload)
	default:
		return Unknown{From: f.Sender, Raw: f.Type}, nil
	}
}
