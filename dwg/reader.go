// Package dwg parses the property sections of AutoCAD drawing files.
//
// This is a header parser, not a geometry engine: it locates the drawing
// property tables, decodes the standard and custom properties, and emits
// each value as a paragraph. The section location, the table layout, and
// the string encoding all vary by drawing version, so the 6-byte version
// signature drives everything.
package dwg

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// UnsupportedVersionError reports a drawing version this driver has no
// layout for.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("dwg: unsupported drawing version %q", e.Version)
}

const (
	headerSize = 128
	// The 2004+ header stores the property section offset at 0x20. A
	// section more than 10 MB in is a different format revision we do
	// not understand; treat the offset as absent.
	sectionOffsetPos = 0x20
	maxSectionOffset = 0xA00000

	// Bytes between the custom-property padding probe and the count.
	customPropertiesSkip = 20

	// Property record markers in the 2000 indexed layout.
	prop2000ForcedLenIdx = 0x28 // this index lies about its length
	prop2000ForcedLen    = 0x19
	prop2000EndIdx       = 90
	prop2000CustomIdx    = 0x012C
	prop2000StringType   = 0x1E
)

// props2000Marker locates the property table in 2000-format drawings,
// which place it at no fixed offset.
var props2000Marker = []byte("DWGPROPS COOKIE")

var (
	latin1  = charmap.ISO8859_1
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// Parse walks the drawing's property section and reports each value as a
// paragraph plus a canonical metadata field. Everything recovered before
// a truncation point is kept.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome {
	cur := core.NewCursor(data)

	header, err := cur.ReadBytes(headerSize)
	if err != nil {
		return model.AbortedOutcome(err, nil)
	}
	version := string(header[:6])

	desc := format.Descriptor{Family: format.DWG, Version: version}
	var enc encoding.Encoding
	var widechar bool
	switch version {
	case "AC1015":
		// handled separately below; indexed records, latin-1 strings
	case "AC1018":
		enc, widechar = latin1, false
	case "AC1021", "AC1024", "AC1027":
		enc, widechar = utf16le, true
	default:
		return model.AbortedOutcome(&UnsupportedVersionError{Version: version}, nil)
	}
	md.Set(model.FieldContentType, format.DWG.MediaType())

	if err := sink.Accept(model.Event{Kind: model.DocumentStart}); err != nil {
		return model.AbortedOutcome(err, nil)
	}

	w := &walker{cur: cur, sink: sink, md: md, mapper: fieldmap.ForDescriptor(desc)}

	var walkErr error
	if version == "AC1015" {
		if w.seekMarker(props2000Marker) {
			walkErr = w.indexedProps()
		} else {
			w.diag("PropertySectionMissing", "DWGPROPS marker not found")
		}
	} else {
		if w.seekSectionOffset(header) {
			walkErr = w.sequentialProps(enc, widechar)
		} else {
			w.diag("PropertySectionMissing", "no property section offset in header")
		}
	}

	if err := sink.Accept(model.Event{Kind: model.DocumentEnd}); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}

	switch {
	case walkErr != nil:
		return model.PartialOutcome(walkErr, w.diags)
	case len(w.diags) > 0:
		return model.PartialOutcome(nil, w.diags)
	default:
		return model.Succeeded()
	}
}

type walker struct {
	cur    *core.Cursor
	sink   model.EventSink
	md     *model.Metadata
	mapper *fieldmap.Mapper
	diags  []core.Diagnostic
}

func (w *walker) diag(code, msg string) {
	w.diags = append(w.diags, core.Diagnostic{Code: code, Offset: w.cur.Pos(), Message: msg})
}

// paragraph emits a property value as a one-run paragraph, the way the
// drawing's own property dialog would show it.
func (w *walker) paragraph(text string) error {
	if text == "" {
		return nil
	}
	for _, e := range []model.Event{
		{Kind: model.ParagraphStart},
		{Kind: model.TextRun, Text: text},
		{Kind: model.ParagraphEnd},
	} {
		if err := w.sink.Accept(e); err != nil {
			return err
		}
	}
	return nil
}

// seekMarker scans forward for marker and leaves the cursor just past it.
func (w *walker) seekMarker(marker []byte) bool {
	rest := w.cur.PeekSignature(w.cur.Remaining())
	idx := bytes.Index(rest, marker)
	if idx < 0 {
		return false
	}
	w.cur.Seek(w.cur.Pos() + idx + len(marker))
	return true
}

// seekSectionOffset reads the absolute property section offset stored in
// the 2004+ header and positions the cursor there. A zero or implausibly
// large offset means the section is absent.
func (w *walker) seekSectionOffset(header []byte) bool {
	hc := core.NewCursor(header)
	hc.Seek(sectionOffsetPos)
	offset, err := hc.ReadU64LE()
	if err != nil {
		return false
	}
	if offset == 0 || offset > maxSectionOffset {
		return false
	}
	if int(offset) >= w.cur.Len() {
		return false
	}
	w.cur.Seek(int(offset))
	return true
}

// indexedProps decodes the 2000-format property table: records of
// (index u16, length u16, value-type u8, value) terminated by index 90.
func (w *walker) indexedProps() error {
	for count := 0; count < 30; count++ {
		idx, err := w.cur.ReadU16LE()
		if err != nil {
			return err
		}
		length, err := w.cur.ReadU16LE()
		if err != nil {
			return err
		}
		valueType, err := w.cur.ReadU8()
		if err != nil {
			return err
		}

		if idx == prop2000ForcedLenIdx {
			length = prop2000ForcedLen
		} else if idx == prop2000EndIdx {
			break
		}

		raw, err := w.cur.ReadBytes(int(length))
		if err != nil {
			return err
		}
		if valueType != prop2000StringType {
			// Not a string property; value consumed, nothing to map.
			continue
		}

		val, err := core.DecodeString(raw, latin1)
		if err != nil || val == "" {
			continue
		}

		switch {
		case int(idx) <= 8:
			w.mapper.Apply(w.md, int(idx), val)
			if err := w.paragraph(val); err != nil {
				return err
			}
		case idx == prop2000CustomIdx:
			// Custom properties arrive as a single "name=value" string.
			if at := bytes.IndexByte([]byte(val), '='); at > -1 {
				w.md.Add(val[:at], val[at+1:])
			}
			if err := w.paragraph(val); err != nil {
				return err
			}
		default:
			w.diag("UnknownProperty", fmt.Sprintf("index %#x skipped", idx))
		}
	}
	return nil
}

// sequentialProps decodes the 2004+ property section: eight
// length-prefixed strings whose position selects the field, then the
// counted custom name/value pairs.
func (w *walker) sequentialProps(enc encoding.Encoding, widechar bool) error {
	for i := 0; i < 8; i++ {
		val, err := w.readString(enc, widechar)
		if err != nil {
			return err
		}
		if val == "" {
			continue
		}
		w.mapper.Apply(w.md, i, val)
		if err := w.paragraph(val); err != nil {
			return err
		}
	}

	count, err := w.customCount()
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		name, err := w.readString(enc, widechar)
		if err != nil {
			return err
		}
		value, err := w.readString(enc, widechar)
		if err != nil {
			return err
		}
		if name == "" || value == "" {
			continue
		}
		w.md.Add(name, value)
		if err := w.paragraph(value); err != nil {
			return err
		}
	}
	return nil
}

// readString reads one length-prefixed string. The prefix counts
// characters; wide-character versions store two bytes per character.
func (w *walker) readString(enc encoding.Encoding, widechar bool) (string, error) {
	n, err := w.cur.ReadU16LE()
	if err != nil {
		return "", err
	}
	byteLen := int(n)
	if widechar {
		byteLen *= 2
	}
	return w.cur.ReadFixedString(byteLen, enc)
}

// customCount probes for the padding run that precedes the custom
// property table and returns the property count, or zero when the
// padding or the count fail their sanity checks (which usually just
// means the drawing has no custom properties).
func (w *walker) customCount() (int, error) {
	padding, err := w.cur.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	if padding[0] > 5 || padding[1] != 0 || padding[2] != 0 || padding[3] != 0 {
		return 0, nil
	}
	if err := w.cur.Skip(customPropertiesSkip); err != nil {
		return 0, err
	}
	count, err := w.cur.ReadU16LE()
	if err != nil {
		return 0, err
	}
	if count == 0 || count >= 0x7F {
		// Count is implausible; trusting it would mean reading garbage.
		return 0, nil
	}
	return int(count), nil
}
