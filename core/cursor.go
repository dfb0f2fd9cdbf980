package core

import (
	"encoding/binary"

	"golang.org/x/text/encoding"
)

// Cursor is a bounded, seekable reader over an in-memory byte source.
// It is the only state a driver mutates while walking a stream: reads and
// skips advance the position, Mark/Reset rewind it, and nothing else moves.
// A failed read leaves the position where it was.
//
// A Cursor is scoped to a single parse and is not safe for concurrent use.
type Cursor struct {
	data []byte
	pos  int
	mark int
}

// NewCursor returns a cursor positioned at the start of data. The cursor
// does not copy data; callers must not mutate it during the parse.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the total length of the underlying source.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Mark records the current position for a later Reset.
func (c *Cursor) Mark() { c.mark = c.pos }

// Reset rewinds the cursor to the last Mark (the start, if Mark was
// never called).
func (c *Cursor) Reset() { c.pos = c.mark }

// Seek moves the cursor to an absolute position, clamped to the bounds
// of the source.
func (c *Cursor) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(c.data) {
		pos = len(c.data)
	}
	c.pos = pos
}

// Skip advances the cursor n bytes. It fails with a TruncatedError,
// without moving, when fewer than n bytes remain.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.Remaining() < n {
		return &TruncatedError{Op: "skip", Wanted: n, Have: c.Remaining()}
	}
	c.pos += n
	return nil
}

// PeekSignature returns up to n leading bytes from the current position
// without advancing. Unlike the read methods it does not fail short: a
// sniffer wants whatever prefix exists.
func (c *Cursor) PeekSignature(n int) []byte {
	if n > c.Remaining() {
		n = c.Remaining()
	}
	return c.data[c.pos : c.pos+n]
}

// ReadBytes reads exactly n bytes and advances the cursor. The returned
// slice aliases the underlying source and must be treated as read-only.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, &TruncatedError{Op: "read bytes", Wanted: n, Have: c.Remaining()}
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (byte, error) {
	if c.Remaining() < 1 {
		return 0, &TruncatedError{Op: "read u8", Wanted: 1, Have: 0}
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// ReadU16LE reads a little-endian 16-bit unsigned integer.
func (c *Cursor) ReadU16LE() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, &TruncatedError{Op: "read u16", Wanted: 2, Have: c.Remaining()}
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian 32-bit unsigned integer.
func (c *Cursor) ReadU32LE() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, &TruncatedError{Op: "read u32", Wanted: 4, Have: c.Remaining()}
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadU64LE reads a little-endian 64-bit unsigned integer.
func (c *Cursor) ReadU64LE() (uint64, error) {
	if c.Remaining() < 8 {
		return 0, &TruncatedError{Op: "read u64", Wanted: 8, Have: c.Remaining()}
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadU16BE reads a big-endian 16-bit unsigned integer.
func (c *Cursor) ReadU16BE() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, &TruncatedError{Op: "read u16be", Wanted: 2, Have: c.Remaining()}
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32BE reads a big-endian 32-bit unsigned integer.
func (c *Cursor) ReadU32BE() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, &TruncatedError{Op: "read u32be", Wanted: 4, Have: c.Remaining()}
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadFixedString reads n raw bytes and decodes them with enc. A nil
// encoding treats the bytes as already being UTF-8. Trailing NUL bytes
// are stripped after decoding; several of the legacy formats write
// null-terminated fixed fields.
func (c *Cursor) ReadFixedString(n int, enc encoding.Encoding) (string, error) {
	raw, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return DecodeString(raw, enc)
}

// DecodeString decodes raw with enc (nil means UTF-8 passthrough) and
// strips any trailing NULs.
func DecodeString(raw []byte, enc encoding.Encoding) (string, error) {
	var s string
	if enc == nil {
		s = string(raw)
	} else {
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		s = string(decoded)
	}
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s, nil
}
