package core

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// packRecord builds a record header (and extended length field when the
// payload is too large for the 12-bit field) followed by the payload.
func packRecord(tag uint32, level uint16, payload []byte) []byte {
	var buf bytes.Buffer
	length := uint32(len(payload))
	header := (tag & recTagMask) | (uint32(level)&recLevelMask)<<recLevelShift
	if length >= recLenEscape {
		header |= recLenEscape << recLenShift
		binary.Write(&buf, binary.LittleEndian, header)
		binary.Write(&buf, binary.LittleEndian, length)
	} else {
		header |= length << recLenShift
		binary.Write(&buf, binary.LittleEndian, header)
	}
	buf.Write(payload)
	return buf.Bytes()
}

func TestScanner_Next(t *testing.T) {
	var stream []byte
	stream = append(stream, packRecord(0x42, 0, []byte("alpha"))...)
	stream = append(stream, packRecord(0x43, 1, []byte("beta"))...)
	stream = append(stream, packRecord(0x44, 2, nil)...)

	s := NewScanner(NewCursor(stream))

	want := []struct {
		tag     uint32
		level   uint16
		payload string
	}{
		{0x42, 0, "alpha"},
		{0x43, 1, "beta"},
		{0x44, 2, ""},
	}

	for i, w := range want {
		rec, ok := s.Next()
		if !ok {
			t.Fatalf("record %d: Next() = false", i)
		}
		if rec.Tag != w.tag || rec.Level != w.level || string(rec.Payload) != w.payload {
			t.Errorf("record %d = {tag %#x level %d payload %q}, want {%#x %d %q}",
				i, rec.Tag, rec.Level, rec.Payload, w.tag, w.level, w.payload)
		}
		if rec.Truncated {
			t.Errorf("record %d unexpectedly truncated", i)
		}
	}

	if _, ok := s.Next(); ok {
		t.Error("Next() = true after end of stream")
	}
	if len(s.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() = %v on a clean stream", s.Diagnostics())
	}
}

func TestScanner_ExtendedLength(t *testing.T) {
	big := bytes.Repeat([]byte{0xAB}, recLenEscape+10)
	stream := packRecord(0x51, 0, big)

	s := NewScanner(NewCursor(stream))
	rec, ok := s.Next()
	if !ok {
		t.Fatal("Next() = false")
	}
	if rec.Length != uint64(len(big)) || len(rec.Payload) != len(big) {
		t.Errorf("rec.Length = %d, len(Payload) = %d, want %d", rec.Length, len(rec.Payload), len(big))
	}
}

func TestScanner_StopAt(t *testing.T) {
	var stream []byte
	stream = append(stream, packRecord(0x10, 0, []byte("keep"))...)
	stream = append(stream, packRecord(0x99, 0, []byte("terminator"))...)
	stream = append(stream, packRecord(0x11, 0, []byte("never seen"))...)

	s := NewScanner(NewCursor(stream)).StopAt(0x99)

	rec, ok := s.Next()
	if !ok || rec.Tag != 0x10 {
		t.Fatalf("first record = %+v, %v", rec, ok)
	}
	if _, ok := s.Next(); ok {
		t.Error("Next() = true past terminator tag")
	}
}

// A byte-truncated stream must yield a strict prefix of the full stream's
// records, with the last one flagged, and never panic.
func TestScanner_TruncatedStreamYieldsPrefix(t *testing.T) {
	var full []byte
	full = append(full, packRecord(0x20, 0, []byte("first"))...)
	full = append(full, packRecord(0x21, 0, []byte("second"))...)
	full = append(full, packRecord(0x22, 0, []byte("third"))...)

	fullCount := 0
	for s := NewScanner(NewCursor(full)); ; fullCount++ {
		if _, ok := s.Next(); !ok {
			break
		}
	}

	for cut := 0; cut < len(full); cut++ {
		s := NewScanner(NewCursor(full[:cut]))
		count := 0
		sawTruncated := false
		for {
			rec, ok := s.Next()
			if !ok {
				break
			}
			count++
			if rec.Truncated {
				sawTruncated = true
			}
		}
		if count > fullCount {
			t.Fatalf("cut %d: %d records, more than the full stream's %d", cut, count, fullCount)
		}
		if sawTruncated && len(s.Diagnostics()) == 0 {
			t.Errorf("cut %d: truncated record without diagnostic", cut)
		}
	}
}

func TestScanner_OverdeclaredLength(t *testing.T) {
	// Header declares 100 payload bytes but only 6 follow.
	header := uint32(0x30) | uint32(100)<<recLenShift
	stream := make([]byte, 4, 10)
	binary.LittleEndian.PutUint32(stream, header)
	stream = append(stream, []byte("sixbyt")...)

	s := NewScanner(NewCursor(stream))
	rec, ok := s.Next()
	if !ok {
		t.Fatal("Next() = false, want flagged record")
	}
	if !rec.Truncated {
		t.Error("record not flagged Truncated")
	}
	if string(rec.Payload) != "sixbyt" {
		t.Errorf("Payload = %q, want the available bytes", rec.Payload)
	}

	diags := s.Diagnostics()
	if len(diags) != 1 || diags[0].Code != "RecordTruncated" {
		t.Errorf("Diagnostics() = %v, want one RecordTruncated", diags)
	}
}
