package core

// SectionKind identifies which part of a delimited message a section is.
type SectionKind int

const (
	SectionResidual SectionKind = iota
	SectionHeader
	SectionBody
	SectionFooter
)

// String returns the string representation of the section kind.
func (k SectionKind) String() string {
	switch k {
	case SectionHeader:
		return "header"
	case SectionBody:
		return "body"
	case SectionFooter:
		return "footer"
	default:
		return "residual"
	}
}

// Section is a run of bytes between two control-byte markers.
type Section struct {
	Kind SectionKind
	// Bytes holds the content between (not including) the markers.
	Bytes []byte
	// Partial is set when the end marker never appeared and the bytes run
	// to the end of the stream (or the size cap).
	Partial bool
}

// ExtractSection scans forward from the cursor for the start marker, then
// accumulates bytes until the end marker or until max bytes have been
// gathered. On success the cursor is repositioned to sit exactly ON the
// end marker, not past it, so extractions chain: in wire formats one
// byte both ends a section and starts the next.
//
// If the end marker never appears, the accumulated bytes are returned as
// a partial section when ifIncomplete is true; otherwise the section is
// treated as absent and the cursor is restored to where it started.
// The boolean result reports whether a usable section was found.
func ExtractSection(cur *Cursor, kind SectionKind, start, end byte, max int, ifIncomplete bool) (Section, bool) {
	origin := cur.Pos()
	sec := Section{Kind: kind}

	// Find the start marker.
	started := false
	for cur.Remaining() > 0 {
		b, err := cur.ReadU8()
		if err != nil {
			break
		}
		if b == start {
			started = true
			break
		}
	}
	if !started {
		cur.Seek(origin)
		return sec, false
	}

	contentStart := cur.Pos()
	finished := false
	for cur.Remaining() > 0 && cur.Pos()-contentStart < max {
		b, err := cur.ReadU8()
		if err != nil {
			break
		}
		if b == end {
			finished = true
			// Leave the cursor on the marker byte.
			cur.Seek(cur.Pos() - 1)
			break
		}
	}

	sec.Bytes = cur.PeekSignatureAt(contentStart, cur.Pos()-contentStart)
	if finished {
		return sec, true
	}

	sec.Partial = true
	if ifIncomplete {
		return sec, true
	}
	cur.Seek(origin)
	return Section{Kind: kind}, false
}

// PeekSignatureAt returns up to n bytes starting at an absolute position,
// without moving the cursor. Out-of-range requests are clamped.
func (c *Cursor) PeekSignatureAt(pos, n int) []byte {
	if pos < 0 || pos >= len(c.data) || n <= 0 {
		return nil
	}
	if pos+n > len(c.data) {
		n = len(c.data) - pos
	}
	return c.data[pos : pos+n]
}
