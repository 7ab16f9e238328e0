package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Validation outcomes. These are reported, never fatal; the receiver
// discards the frame and resynchronizes regardless.
var (
	ErrMessageTooShort  = errors.New("message shorter than header")
	ErrLengthMismatch   = errors.New("payload length does not match header")
	ErrChecksumMismatch = errors.New("payload checksum mismatch")
)

// EncodeMessage builds the header-plus-payload byte sequence for a
// frame. msgType must be exactly TypeSize bytes. An empty payload is
// legal and encodes as a header with length 0.
func EncodeMessage(msgType string, payload []byte) ([]byte, error) {
	if len(msgType) != TypeSize {
		return nil, fmt.Errorf("type tag must be %d bytes, got %q", TypeSize, msgType)
	}

	buf := make([]byte, HeaderSize+len(payload))
	copy(buf[0:TypeSize], msgType)
	binary.BigEndian.PutUint32(buf[TypeSize:], uint32(len(payload)))
	binary.BigEndian.PutUint16(buf[TypeSize+LengthSize:], Checksum(payload))
	copy(buf[HeaderSize:], payload)

	return buf, nil
}

// ParseMessage parses and verifies an accumulated byte sequence.
// Verification requires both the declared length to equal the number of
// payload bytes actually present and the payload CRC to match.
func ParseMessage(raw []byte) (*Message, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrMessageTooShort, len(raw))
	}

	var h Header
	copy(h.Type[:], raw[0:TypeSize])
	h.Length = binary.BigEndian.Uint32(raw[TypeSize:])
	h.Checksum = binary.BigEndian.Uint16(raw[TypeSize+LengthSize:])

	payload := raw[HeaderSize:]
	if uint32(len(payload)) != h.Length {
		return nil, fmt.Errorf("%w: declared %d, received %d",
			ErrLengthMismatch, h.Length, len(payload))
	}
	if crc := Checksum(payload); crc != h.Checksum {
		return nil, fmt.Errorf("%w: declared 0x%04X, computed 0x%04X",
			ErrChecksumMismatch, h.Checksum, crc)
	}

	msg := &Message{Header: h, Payload: make([]byte, len(payload))}
	copy(msg.Payload, payload)
	return msg, nil
}
