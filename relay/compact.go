// Package relay implements the cross-shard relay pipeline: decoding an
// origin extrinsic embedded in a relay transaction's wire bytes and
// classifying it by destination shard (spec.md §4.8).
package relay

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// errShortInput is returned whenever a decode step runs out of bytes; it is
// wrapped with the field name at each call site.
var errShortInput = errors.New("relay: input too short")

// cursor is a forward-only byte reader, mirroring the original source's
// "&mut input" slice-advancing idiom (Input::read_byte / Decode::decode).
type cursor struct {
	b []byte
}

func (c *cursor) readByte() (byte, error) {
	if len(c.b) < 1 {
		return 0, errShortInput
	}
	v := c.b[0]
	c.b = c.b[1:]
	return v, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 || len(c.b) < n {
		return nil, errShortInput
	}
	v := c.b[:n]
	c.b = c.b[n:]
	return v, nil
}

// readCompactU64 decodes a parity-scale-codec-style Compact<u64>: the low
// two bits of the first byte select the encoding width (1/2/4/8+ bytes),
// the same variable-length integer scheme the original source's
// `Compact<u64>` fields use.
func (c *cursor) readCompactU64() (uint64, error) {
	b0, err := c.readByte()
	if err != nil {
		return 0, errors.Wrap(err, "relay: compact mode byte")
	}
	switch b0 & 0b11 {
	case 0b00:
		return uint64(b0 >> 2), nil
	case 0b01:
		b1, err := c.readByte()
		if err != nil {
			return 0, errors.Wrap(err, "relay: compact 2-byte mode")
		}
		v := binary.LittleEndian.Uint16([]byte{b0, b1})
		return uint64(v >> 2), nil
	case 0b10:
		rest, err := c.readN(3)
		if err != nil {
			return 0, errors.Wrap(err, "relay: compact 4-byte mode")
		}
		buf := append([]byte{b0}, rest...)
		v := binary.LittleEndian.Uint32(buf)
		return uint64(v >> 2), nil
	default: // 0b11: big-integer mode
		n := int(b0>>2) + 4
		rest, err := c.readN(n)
		if err != nil {
			return 0, errors.Wrap(err, "relay: compact big-integer mode")
		}
		var v uint64
		for i := len(rest) - 1; i >= 0; i-- {
			v = v<<8 | uint64(rest[i])
		}
		return v, nil
	}
}

// readCompactBytes decodes a length-prefixed byte vector: a Compact<u64>
// length followed by that many raw bytes (the `Vec<u8>` codec shape the
// original source's `origin: Vec<u8>` field uses).
func (c *cursor) readCompactBytes() ([]byte, error) {
	n, err := c.readCompactU64()
	if err != nil {
		return nil, errors.Wrap(err, "relay: byte-vector length")
	}
	return c.readN(int(n))
}
