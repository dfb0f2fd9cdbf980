package hwp

import (
	"strconv"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/model"
)

// OLE property value types that appear in HwpSummaryInformation.
const (
	vtI2       = 2
	vtI4       = 3
	vtLPSTR    = 30
	vtLPWSTR   = 31
	vtFiletime = 64
)

// Windows FILETIME counts 100ns ticks from 1601-01-01.
var filetimeEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	summaryLatin1 = charmap.ISO8859_1
	summaryUTF16  = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// parseSummary walks the \005HwpSummaryInformation property-set stream
// and applies each property to the metadata through the numeric-id
// layout table. The stream is a standard OLE property set: a byte-order
// header, one format section, and an id/offset table into typed values.
// Failures are reported as diagnostics; a damaged summary never stops
// the text walk.
func parseSummary(data []byte, md *model.Metadata, mapper *fieldmap.Mapper) []core.Diagnostic {
	var diags []core.Diagnostic
	bad := func(cur *core.Cursor, msg string) []core.Diagnostic {
		return append(diags, core.Diagnostic{Code: "SummaryMalformed", Offset: cur.Pos(), Message: msg})
	}

	cur := core.NewCursor(data)
	order, err := cur.ReadU16LE()
	if err != nil || order != 0xFFFE {
		return bad(cur, "property set byte-order mark missing")
	}
	// Format version, OS version, CLSID, section count.
	if err := cur.Skip(2 + 4 + 16 + 4); err != nil {
		return bad(cur, "property set header cut short")
	}
	// First section: format id, then the section offset.
	if err := cur.Skip(16); err != nil {
		return bad(cur, "property set format id cut short")
	}
	sectionOffset, err := cur.ReadU32LE()
	if err != nil || int(sectionOffset) >= len(data) {
		return bad(cur, "property section offset out of range")
	}

	cur.Seek(int(sectionOffset))
	if err := cur.Skip(4); err != nil { // section byte size
		return bad(cur, "property section header cut short")
	}
	count, err := cur.ReadU32LE()
	if err != nil {
		return bad(cur, "property count cut short")
	}

	type propEntry struct {
		id     uint32
		offset uint32
	}
	entries := make([]propEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err1 := cur.ReadU32LE()
		off, err2 := cur.ReadU32LE()
		if err1 != nil || err2 != nil {
			return bad(cur, "property id table cut short")
		}
		entries = append(entries, propEntry{id: id, offset: off})
	}

	for _, e := range entries {
		at := int(sectionOffset) + int(e.offset)
		if at < 0 || at >= len(data) {
			diags = bad(cur, "property value offset out of range")
			continue
		}
		cur.Seek(at)
		value, err := readPropertyValue(cur)
		if err != nil {
			diags = bad(cur, "property value unreadable")
			continue
		}
		if value != "" {
			mapper.Apply(md, int(e.id), value)
		}
	}
	return diags
}

// readPropertyValue decodes one typed value at the cursor. Unhandled
// types yield an empty string rather than an error; the summary stream
// routinely carries housekeeping properties the document model has no
// use for.
func readPropertyValue(cur *core.Cursor) (string, error) {
	vt, err := cur.ReadU32LE()
	if err != nil {
		return "", err
	}
	switch vt {
	case vtLPSTR:
		n, err := cur.ReadU32LE()
		if err != nil {
			return "", err
		}
		return cur.ReadFixedString(int(n), summaryLatin1)
	case vtLPWSTR:
		n, err := cur.ReadU32LE()
		if err != nil {
			return "", err
		}
		return cur.ReadFixedString(int(n)*2, summaryUTF16)
	case vtFiletime:
		ticks, err := cur.ReadU64LE()
		if err != nil {
			return "", err
		}
		if ticks == 0 {
			return "", nil
		}
		ts := filetimeEpoch.Add(time.Duration(ticks/10) * time.Microsecond)
		return ts.UTC().Format("2006-01-02T15:04:05Z"), nil
	case vtI2:
		v, err := cur.ReadU16LE()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(int16(v)), 10), nil
	case vtI4:
		v, err := cur.ReadU32LE()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(int32(v)), 10), nil
	default:
		return "", nil
	}
}
