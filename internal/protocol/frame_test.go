package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dkeye/Huddle/internal/domain"
)

const alice = domain.UserID("3f1e2d4c-5b6a-4789-8abc-def012345678")

func realisticChunk(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

func TestEncodeDecode_RoundTripAllTypes(t *testing.T) {
	types := []StreamType{
		StreamAudio, StreamVideo, StreamUserListUpdate, StreamJoinRequest,
		StreamScreenShare, StreamScreenShareStop, StreamScreenShareStart, StreamChat,
		StreamType(0), StreamType(200),
	}
	payloads := [][]byte{nil, realisticChunk(4096)}

	for _, st := range types {
		for _, p := range payloads {
			data, err := Encode(alice, st, p)
			if err != nil {
				t.Fatalf("Encode(%v) failed: %v", st, err)
			}
			if len(data) != HeaderSize+len(p) {
				t.Errorf("encoded size = %d, want %d", len(data), HeaderSize+len(p))
			}
			f, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode(%v) failed: %v", st, err)
			}
			if f.Sender != alice || f.Type != st || !bytes.Equal(f.Payload, p) {
				t.Errorf("round trip mismatch for %v/%d bytes: %+v", st, len(p), f.Type)
			}
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, n := range []int{0, 1, 36} {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("Decode(%d bytes) err = %v, want ErrMalformedFrame", n, err)
		}
	}
	if _, err := Decode(make([]byte, HeaderSize)); err != nil {
		t.Errorf("Decode(header only) failed: %v", err)
	}
}

func TestEncode_InvalidSender(t *testing.T) {
	_, err := Encode("too-short", StreamAudio, nil)
	if !errors.Is(err, ErrInvalidSenderID) {
		t.Errorf("expected ErrInvalidSenderID, got %v", err)
	}
}

func TestSystemSender(t *testing.T) {
	if len(SystemSender) != SenderIDLen {
		t.Fatalf("SystemSender len = %d", len(SystemSender))
	}
	for i := 0; i < len(SystemSender); i++ {
		if SystemSender[i] != 0 {
			t.Fatalf("SystemSender[%d] = %d, want 0", i, SystemSender[i])
		}
	}
}

func TestStreamType_Known(t *testing.T) {
	if StreamType(0).Known() || StreamType(9).Known() {
		t.Error("out of range types reported as known")
	}
	for st := StreamAudio; st <= StreamChat; st++ {
		if !st.Known() {
			t.Errorf("%v not known", st)
		}
	}
}
