// Package protocol implements the wire format of the optical link:
// the frame header, the payload checksum and the fixed delimiter
// patterns. It is pure byte manipulation; everything timing-related
// (symbols, sampling, calibration) lives in the core package.
package protocol

// Field sizes of the fixed frame header.
const (
	TypeSize     = 3
	LengthSize   = 4 // unsigned 32-bit, big-endian
	ChecksumSize = 2 // CRC16 over the payload, big-endian
	HeaderSize   = TypeSize + LengthSize + ChecksumSize
)

// Frame delimiters. Both are transmitted as raw levels, one full bit
// period per bit, MSB first - they are NOT Manchester encoded, which is
// what lets the receiver tell them apart from payload symbols.
const (
	StartFramePattern = 0xF0 // 11110000
	EndFramePattern   = 0x0F // 00001111
)

// PreambleSymbols is the nominal number of alternating half-bit levels
// sent ahead of the start delimiter. The receiver never decodes the
// preamble; it only counts level transitions to lock on.
const PreambleSymbols = 16

// Header is the fixed 9-byte frame header. Checksum covers the payload
// only, not the header itself.
type Header struct {
	Type     [TypeSize]byte
	Length   uint32
	Checksum uint16
}

// Message is a fully parsed and verified frame.
type Message struct {
	Header  Header
	Payload []byte
}

// TypeString returns the 3-byte type tag as a string.
func (m *Message) TypeString() string {
	return string(m.Header.Type[:])
}
