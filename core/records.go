package core

// Record is one tag/length/payload chunk produced by a Scanner. Records
// are transient: Payload aliases the scanner's source and is only valid
// until the caller moves on to the next record.
type Record struct {
	Tag    uint32
	Level  uint16
	Length uint64 // resolved payload length, after the escape-value lookup
	Offset int    // position of the record header in the stream
	// Truncated is set when the declared length ran past the end of the
	// stream; Payload then holds whatever bytes were available.
	Truncated bool
	Payload   []byte
}

// Packed record header geometry: tag in the low 10 bits, level in the
// next 10, length in the top 12. A length field of all ones is an escape
// meaning the real length follows as an extended 32-bit field.
const (
	recTagMask    = 0x3FF
	recLevelShift = 10
	recLevelMask  = 0x3FF
	recLenShift   = 20
	recLenMask    = 0xFFF
	recLenEscape  = 0xFFF
)

// Diagnostic records a non-fatal problem found while scanning. Scanners
// collect diagnostics instead of failing so a damaged stream still yields
// every decodable record.
type Diagnostic struct {
	Code    string // e.g. "RecordTruncated"
	Offset  int
	Message string
}

// Scanner iterates the tagged records of a chunk-oriented stream. It is
// lazy (records are decoded on demand), finite (iteration ends at the end
// of the stream or at a terminator tag), and restartable: Mark/Reset on
// the underlying cursor rewinds the iteration.
type Scanner struct {
	cur *Cursor
	// terminator stops iteration when this tag is seen; zero means none.
	terminator    uint32
	hasTerminator bool
	diags         []Diagnostic
	done          bool
}

// NewScanner returns a scanner reading records from cur's current
// position.
func NewScanner(cur *Cursor) *Scanner {
	return &Scanner{cur: cur}
}

// StopAt makes the scanner end iteration when a record with tag t is
// read. The terminator record itself is not produced.
func (s *Scanner) StopAt(t uint32) *Scanner {
	s.terminator = t
	s.hasTerminator = true
	return s
}

// Diagnostics returns the problems collected so far, in stream order.
func (s *Scanner) Diagnostics() []Diagnostic { return s.diags }

// Next decodes the next record. It returns false when the stream is
// exhausted, the terminator tag is reached, or too little remains for a
// record header. A record whose declared length overruns the stream is
// returned with Truncated set and a RecordTruncated diagnostic recorded;
// iteration then stops, since the stream bound has been reached.
func (s *Scanner) Next() (Record, bool) {
	if s.done || s.cur.Remaining() < 4 {
		s.done = true
		return Record{}, false
	}

	offset := s.cur.Pos()
	header, err := s.cur.ReadU32LE()
	if err != nil {
		s.done = true
		return Record{}, false
	}

	rec := Record{
		Tag:    header & recTagMask,
		Level:  uint16((header >> recLevelShift) & recLevelMask),
		Length: uint64((header >> recLenShift) & recLenMask),
		Offset: offset,
	}

	if rec.Length == recLenEscape {
		ext, err := s.cur.ReadU32LE()
		if err != nil {
			// Header promised an extended length that is not there.
			s.diags = append(s.diags, Diagnostic{
				Code:    "RecordTruncated",
				Offset:  offset,
				Message: "extended length field missing",
			})
			s.done = true
			return Record{}, false
		}
		rec.Length = uint64(ext)
	}

	if s.hasTerminator && rec.Tag == s.terminator {
		s.done = true
		return Record{}, false
	}

	want := int(rec.Length)
	if uint64(want) != rec.Length || want > s.cur.Remaining() {
		// Declared length runs past the known safe bound: truncate to
		// the available bytes and flag it rather than failing, so the
		// rest of the document can still attempt a parse.
		rec.Truncated = true
		want = s.cur.Remaining()
		s.diags = append(s.diags, Diagnostic{
			Code:    "RecordTruncated",
			Offset:  offset,
			Message: "declared length exceeds remaining stream",
		})
	}

	rec.Payload, _ = s.cur.ReadBytes(want)
	if rec.Truncated {
		s.done = true
	}
	return rec, true
}
