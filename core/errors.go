package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core read primitives. Typed errors below wrap
// these so callers can branch with errors.Is and still recover details
// with errors.As.
var (
	// ErrTruncated indicates fewer bytes were available than a read
	// required. Callers usually treat this as recoverable: abandon the
	// current record or section and continue with what was read so far.
	ErrTruncated = errors.New("core: truncated input")

	// ErrMalformedRecord indicates a record header declared a length or
	// tag inconsistent with the stream bounds.
	ErrMalformedRecord = errors.New("core: malformed record")
)

// TruncatedError reports a read that ran past the end of the source.
type TruncatedError struct {
	Op     string // operation that failed, e.g. "read u32"
	Wanted int    // bytes requested
	Have   int    // bytes remaining
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("core: %s: need %d bytes, have %d", e.Op, e.Wanted, e.Have)
}

// Unwrap makes errors.Is(err, ErrTruncated) hold.
func (e *TruncatedError) Unwrap() error { return ErrTruncated }

// MalformedRecordError reports a record whose declared geometry is
// inconsistent with the stream.
type MalformedRecordError struct {
	Tag    uint32
	Offset int
	Detail string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("core: malformed record tag %#x at offset %d: %s", e.Tag, e.Offset, e.Detail)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }
