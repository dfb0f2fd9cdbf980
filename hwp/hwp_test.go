package hwp

import (
	"bytes"
	"compress/flate"
	"crypto/aes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

func summaryMapper() *fieldmap.Mapper {
	return fieldmap.ForDescriptor(format.Descriptor{Family: format.HWP, Version: "5"})
}

func validHeader(flags uint32) []byte {
	h := make([]byte, fileHeaderSize)
	copy(h, headerSignature)
	binary.LittleEndian.PutUint32(h[32:], 0x05000300) // 5.0.3.0
	binary.LittleEndian.PutUint32(h[36:], flags)
	return h
}

func TestParseFileHeader(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		want  fileHeader
		fails bool
	}{
		{
			name: "plain",
			data: validHeader(0),
			want: fileHeader{Version: 0x05000300},
		},
		{
			name: "compressed",
			data: validHeader(flagCompressed),
			want: fileHeader{Version: 0x05000300, Compressed: true},
		},
		{
			name: "encrypted distribution",
			data: validHeader(flagCompressed | flagEncrypted | flagViewText),
			want: fileHeader{Version: 0x05000300, Compressed: true, Encrypted: true, ViewText: true},
		},
		{
			name:  "bad signature",
			data:  bytes.Repeat([]byte{'x'}, fileHeaderSize),
			fails: true,
		},
		{
			name:  "short",
			data:  validHeader(0)[:40],
			fails: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFileHeader(tt.data)
			if tt.fails {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFileHeader: %v", err)
			}
			if got != tt.want {
				t.Errorf("header = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	h := fileHeader{Version: 0x05000300}
	if got := h.versionString(); got != "5.0.3.0" {
		t.Errorf("versionString = %q", got)
	}
}

func TestSRandMatchesMsvcrt(t *testing.T) {
	// The first values of the msvcrt rand() sequence for srand(1).
	want := []int32{41, 18467, 6334, 26500, 19169}
	r := srand{seed: 1}
	for i, w := range want {
		if got := r.next(); got != w {
			t.Fatalf("next()[%d] = %d, want %d", i, got, w)
		}
	}
}

// maskDistBlock applies the XOR mask the way a writer would, for the
// round trip below.
func maskDistBlock(block []byte) {
	seed := int32(binary.LittleEndian.Uint32(block[:4]))
	rnd := srand{seed: seed}
	var key byte
	n := 0
	for i := 0; i < distBlockSize; i++ {
		if n == 0 {
			key = byte(rnd.next() & 0xFF)
			n = int(rnd.next()&0xF) + 1
		}
		if i >= 4 {
			block[i] ^= key
		}
		n--
	}
}

func TestUnmaskDistBlock(t *testing.T) {
	block := make([]byte, distBlockSize)
	block[0] = 0x02 // key at offset 4+2
	wantKey := []byte("0123456789abcdef")
	copy(block[6:], wantKey)
	maskDistBlock(block)

	key, err := unmaskDistBlock(block)
	if err != nil {
		t.Fatalf("unmaskDistBlock: %v", err)
	}
	if !bytes.Equal(key, wantKey) {
		t.Errorf("key = %x, want %x", key, wantKey)
	}
}

func TestUnmaskDistBlockShort(t *testing.T) {
	_, err := unmaskDistBlock(make([]byte, 100))
	if !errors.Is(err, core.ErrTruncated) {
		t.Errorf("err = %v, want a truncation error", err)
	}
}

func TestDecryptECB(t *testing.T) {
	key := []byte("0123456789abcdef")
	plain := []byte("exactly sixteen bytes of text!!!"[:32])
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	enc := make([]byte, len(plain))
	for i := 0; i < len(plain); i += aes.BlockSize {
		block.Encrypt(enc[i:i+aes.BlockSize], plain[i:i+aes.BlockSize])
	}

	got, err := decryptECB(key, enc)
	if err != nil {
		t.Fatalf("decryptECB: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("plaintext = %q, want %q", got, plain)
	}

	if _, err := decryptECB(key, enc[:20]); !errors.Is(err, core.ErrTruncated) {
		t.Errorf("partial block err = %v, want a truncation error", err)
	}
}

func utf16le(s string) []byte {
	var out []byte
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out, byte(hi), byte(hi>>8), byte(lo), byte(lo>>8))
			continue
		}
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestDecodeParaText(t *testing.T) {
	ctl := func(code uint16, payload int) []byte {
		out := []byte{byte(code), byte(code >> 8)}
		for i := 0; i < payload; i++ {
			out = append(out, 0xAA, 0x00)
		}
		return out
	}
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"plain", utf16le("바탕글 text"), "바탕글 text"},
		{"surrogate pair", utf16le("a\U0001F600b"), "a\U0001F600b"},
		{
			"tab control keeps the tab and drops its parameters",
			append(append(utf16le("a"), ctl(9, controlPayload)...), utf16le("b")...),
			"a\tb",
		},
		{
			"inline control is stripped with its parameters",
			append(append(utf16le("a"), ctl(4, controlPayload)...), utf16le("b")...),
			"ab",
		},
		{
			"extended control is stripped with its parameters",
			append(append(utf16le("a"), ctl(11, controlPayload)...), utf16le("b")...),
			"ab",
		},
		{
			"bare control reads as a space",
			append(append(utf16le("a"), ctl(13, 0)...), utf16le("b")...),
			"a b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeParaText(tt.payload); got != tt.want {
				t.Errorf("decodeParaText = %q, want %q", got, tt.want)
			}
		})
	}
}

// buildSummary assembles a minimal OLE property set with the given
// properties appended in id order.
func buildSummary(props map[uint32][]byte) []byte {
	var ids []uint32
	for id := range props {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}

	header := make([]byte, 48)
	binary.LittleEndian.PutUint16(header[0:], 0xFFFE)
	binary.LittleEndian.PutUint32(header[24:], 1)  // section count
	binary.LittleEndian.PutUint32(header[44:], 48) // section offset

	table := 8 + 8*len(ids)
	var values []byte
	section := make([]byte, table)
	binary.LittleEndian.PutUint32(section[4:], uint32(len(ids)))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(section[8+8*i:], id)
		binary.LittleEndian.PutUint32(section[12+8*i:], uint32(table+len(values)))
		values = append(values, props[id]...)
	}
	binary.LittleEndian.PutUint32(section[0:], uint32(table+len(values)))
	return append(header, append(section, values...)...)
}

func lpwstr(s string) []byte {
	raw := utf16le(s + "\x00")
	out := make([]byte, 8, 8+len(raw))
	binary.LittleEndian.PutUint32(out[0:], vtLPWSTR)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(raw)/2))
	return append(out, raw...)
}

func filetime(t time.Time) []byte {
	out := make([]byte, 12)
	binary.LittleEndian.PutUint32(out[0:], vtFiletime)
	ticks := uint64(t.Sub(filetimeEpoch) / 100)
	binary.LittleEndian.PutUint64(out[4:], ticks)
	return out
}

func TestParseSummary(t *testing.T) {
	created := time.Date(2011, time.September, 12, 6, 55, 0, 0, time.UTC)
	data := buildSummary(map[uint32][]byte{
		2:  lpwstr("연차 보고서"),
		4:  lpwstr("Kim Minsu"),
		12: filetime(created),
		17: lpwstr("custom"),
	})

	md := model.NewMetadata()
	mapper := summaryMapper()
	diags := parseSummary(data, md, mapper)
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if got := md.Get(model.FieldTitle); got != "연차 보고서" {
		t.Errorf("title = %q", got)
	}
	if got := md.Get(model.FieldCreator); got != "Kim Minsu" {
		t.Errorf("creator = %q", got)
	}
	if got := md.Get(model.FieldCreated); got != "2011-09-12T06:55:00Z" {
		t.Errorf("created = %q", got)
	}
	if got := md.Get("pid-17"); got != "custom" {
		t.Errorf("pid-17 = %q", got)
	}
}

func TestParseSummaryMalformed(t *testing.T) {
	md := model.NewMetadata()
	diags := parseSummary([]byte{0x00, 0x01, 0x02}, md, summaryMapper())
	if len(diags) == 0 {
		t.Fatal("expected diagnostics for a malformed property set")
	}
	if md.Len() != 0 {
		t.Errorf("metadata has %d fields, want 0", md.Len())
	}
}

// packRecord builds one tagged record.
func packRecord(tag uint32, level uint16, payload []byte) []byte {
	out := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(out, tag|uint32(level)<<10|uint32(len(payload))<<20)
	return append(out, payload...)
}

func deflateRaw(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestWalkSection(t *testing.T) {
	var records []byte
	records = append(records, packRecord(tagParaHead, 0, make([]byte, 8))...)
	records = append(records, packRecord(tagParaText, 1, utf16le("첫 문단"))...)
	records = append(records, packRecord(tagParaText, 1, utf16le("second paragraph"))...)

	var sink model.Collector
	diags, err := walkSection(records, &sink)
	if err != nil {
		t.Fatalf("walkSection: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics: %v", diags)
	}
	if got := sink.Text(); got != "첫 문단\nsecond paragraph\n" {
		t.Errorf("text = %q", got)
	}
}

func TestPrepareSectionCompressed(t *testing.T) {
	records := packRecord(tagParaText, 1, utf16le("hello"))
	sec := sectionStream{data: deflateRaw(t, records)}

	payload, err := prepareSection(sec, true)
	if err != nil {
		t.Fatalf("prepareSection: %v", err)
	}
	if !bytes.Equal(payload, records) {
		t.Errorf("payload mismatch")
	}
}

func TestPrepareSectionDistribution(t *testing.T) {
	records := packRecord(tagParaText, 1, utf16le("배포용 문서"))
	// ECB needs whole blocks; the zero padding scans as empty records
	// the walk ignores.
	padded := append(records, make([]byte, (16-len(records)%16)%16)...)

	key := []byte("fedcba9876543210")
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	enc := make([]byte, len(padded))
	for i := 0; i < len(padded); i += 16 {
		block.Encrypt(enc[i:i+16], padded[i:i+16])
	}

	dist := make([]byte, distBlockSize)
	dist[0] = 0x00 // key at offset 4
	copy(dist[4:], key)
	maskDistBlock(dist)

	stream := packRecord(tagBase, 0, nil) // distribution data record header
	stream = append(stream, dist...)
	stream = append(stream, enc...)

	payload, err := prepareSection(sectionStream{viewtext: true, data: stream}, false)
	if err != nil {
		t.Fatalf("prepareSection: %v", err)
	}

	var sink model.Collector
	if _, err := walkSection(payload, &sink); err != nil {
		t.Fatal(err)
	}
	if got := sink.Text(); got != "배포용 문서\n" {
		t.Errorf("text = %q", got)
	}
}

func TestParseEmptyInput(t *testing.T) {
	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(nil, &sink, md)
	if out.Status != model.Aborted {
		t.Fatalf("status = %v, want aborted", out.Status)
	}
	if !errors.Is(out.Reason, core.ErrTruncated) {
		t.Errorf("reason = %v, want a truncation error", out.Reason)
	}
	if len(sink.Events) != 0 || md.Len() != 0 {
		t.Error("aborted parse must not emit events or metadata")
	}
}

func TestParseNotACompoundFile(t *testing.T) {
	var sink model.Collector
	md := model.NewMetadata()
	out := Parse([]byte("this is not a compound file at all, not even close"), &sink, md)
	if out.Status != model.Aborted {
		t.Fatalf("status = %v, want aborted", out.Status)
	}
	if out.Reason == nil {
		t.Error("aborted parse must carry a reason")
	}
}
