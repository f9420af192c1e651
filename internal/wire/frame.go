// Package wire implements the two black-box wire codecs the broker speaks:
// the length-prefixed JSON frames used upstream to the presence endpoint,
// and the length-delimited map encoding used downstream to editor plugins.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Upstream frame opcodes (see spec §4.1, §6).
const (
	OpHandshake uint32 = 0
	OpFrame     uint32 = 1
	OpClose     uint32 = 2
	OpPing      uint32 = 3
	OpPong      uint32 = 4
)

const frameHeaderSize = 8

// EncodeFrame lays out a frame exactly as the upstream peer expects it:
// opcode (u32 LE) || length (u32 LE) || body.
func EncodeFrame(opcode uint32, body []byte) []byte {
	buf := make([]byte, frameHeaderSize+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], opcode)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[frameHeaderSize:], body)
	return buf
}

// DecodeFrame reads one frame header + body from r, allocating a buffer of
// the exact size declared in the header.
func DecodeFrame(r io.Reader) (opcode uint32, body []byte, err error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	opcode = binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])

	if length > maxFrameBody {
		return 0, nil, fmt.Errorf("wire: frame body too large: %d bytes", length)
	}

	body = make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return opcode, body, nil
}

// maxFrameBody guards against a corrupt or hostile length field forcing an
// unbounded allocation; well above any real presence payload (buttons,
// assets and strings are all individually capped well under this).
const maxFrameBody = 16 << 20
