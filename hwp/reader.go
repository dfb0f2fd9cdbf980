// Package hwp extracts text and metadata from Hangul word processor v5
// documents. A v5 file is a compound (CFB) container: a FileHeader
// stream with the signature and property flags, an OLE summary stream
// with the document metadata, and per-section BodyText streams of tagged
// records holding the paragraph text. Distribution documents move the
// sections to ViewText and wrap each one in a masked AES layer.
package hwp

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/format"
	"github.com/structext/structext/internal/filters"
	"github.com/structext/structext/model"
)

const summaryStreamName = "\005HwpSummaryInformation"

// sectionStream is one BodyText/ViewText section, kept with its index so
// the walk can restore document order regardless of directory order.
type sectionStream struct {
	index    int
	viewtext bool
	data     []byte
}

// binDataStream is one BinData storage entry.
type binDataStream struct {
	name string
	data []byte
}

// Parse walks one v5 document. Encrypted documents abort; a damaged
// section or summary degrades the outcome to Partial with the readable
// remainder delivered.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome {
	if len(data) == 0 {
		return model.AbortedOutcome(&core.TruncatedError{Op: "read container", Wanted: 1, Have: 0}, nil)
	}

	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return model.AbortedOutcome(fmt.Errorf("hwp: open container: %w", err), nil)
	}

	var (
		headerData  []byte
		summaryData []byte
		sections    []sectionStream
		binData     []binDataStream
		diags       []core.Diagnostic
	)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Size == 0 {
			continue
		}
		parent := ""
		if len(entry.Path) > 0 {
			parent = entry.Path[len(entry.Path)-1]
		}
		switch {
		case len(entry.Path) == 0 && entry.Name == "FileHeader":
			headerData = readStream(entry)
		case len(entry.Path) == 0 && entry.Name == summaryStreamName:
			summaryData = readStream(entry)
		case (parent == "BodyText" || parent == "ViewText") && strings.HasPrefix(entry.Name, "Section"):
			idx, err := strconv.Atoi(strings.TrimPrefix(entry.Name, "Section"))
			if err != nil {
				diags = append(diags, core.Diagnostic{
					Code:    "SectionNameMalformed",
					Message: "unnumbered section stream " + entry.Name,
				})
				continue
			}
			sections = append(sections, sectionStream{
				index:    idx,
				viewtext: parent == "ViewText",
				data:     readStream(entry),
			})
		case parent == "BinData":
			binData = append(binData, binDataStream{name: entry.Name, data: readStream(entry)})
		}
	}

	header, err := parseFileHeader(headerData)
	if err != nil {
		return model.AbortedOutcome(fmt.Errorf("hwp: %w", err), diags)
	}
	if header.Encrypted {
		return model.AbortedOutcome(ErrEncrypted, diags)
	}

	md.Set(model.FieldContentType, format.HWP.MediaType())
	md.Set("format-version", header.versionString())

	mapper := fieldmap.ForDescriptor(format.Descriptor{Family: format.HWP, Version: "5"})
	if summaryData != nil {
		diags = append(diags, parseSummary(summaryData, md, mapper)...)
	}

	if err := sink.Accept(model.Event{Kind: model.DocumentStart}); err != nil {
		return model.AbortedOutcome(err, diags)
	}

	sort.Slice(sections, func(i, j int) bool { return sections[i].index < sections[j].index })
	for _, sec := range sections {
		payload, err := prepareSection(sec, header.Compressed)
		if err != nil {
			diags = append(diags, core.Diagnostic{
				Code:    "SectionUnreadable",
				Message: fmt.Sprintf("section %d: %v", sec.index, err),
			})
			if len(payload) == 0 {
				continue
			}
		}
		sdiags, err := walkSection(payload, sink)
		diags = append(diags, sdiags...)
		if err != nil {
			return model.AbortedOutcome(err, diags)
		}
	}

	for i, bin := range binData {
		obj := &model.EmbeddedObject{
			ID:            fmt.Sprintf("bindata-%d", i),
			NameHint:      bin.name,
			MediaTypeHint: mime.TypeByExtension(path.Ext(bin.name)),
			Length:        len(bin.data),
			Data:          bin.data,
		}
		if err := sink.Accept(model.Event{Kind: model.EmbeddedObjectRef, Object: obj}); err != nil {
			return model.AbortedOutcome(err, diags)
		}
	}

	if err := sink.Accept(model.Event{Kind: model.DocumentEnd}); err != nil {
		return model.AbortedOutcome(err, diags)
	}
	if len(diags) > 0 {
		return model.PartialOutcome(nil, diags)
	}
	return model.Succeeded()
}

// readStream drains one directory entry. mscfb bounds reads by the
// declared stream size, so a plain ReadAll is safe.
func readStream(entry *mscfb.File) []byte {
	buf, err := io.ReadAll(entry)
	if err != nil && len(buf) == 0 {
		return nil
	}
	return buf
}

// prepareSection peels the storage layers off a section stream:
// distribution sections first drop the masked AES wrapper, compressed
// documents then inflate. A truncated deflate stream still yields its
// readable prefix alongside the error.
func prepareSection(sec sectionStream, compressed bool) ([]byte, error) {
	payload := sec.data
	if sec.viewtext {
		cur := core.NewCursor(payload)
		// Distribution data record header, then the masked block.
		if err := cur.Skip(4); err != nil {
			return nil, err
		}
		block, err := cur.ReadBytes(distBlockSize)
		if err != nil {
			return nil, err
		}
		key, err := unmaskDistBlock(block)
		if err != nil {
			return nil, err
		}
		rest, _ := cur.ReadBytes(cur.Remaining())
		payload, err = decryptECB(key, rest)
		if err != nil {
			return nil, err
		}
	}
	if compressed {
		out, err := filters.RawDeflateDecode(payload)
		if err != nil && len(out) == 0 {
			// Some writers store the section zlib-wrapped instead.
			if z, zerr := filters.ZlibDecode(payload); zerr == nil {
				return z, nil
			}
		}
		return out, err
	}
	return payload, nil
}

// walkSection scans a prepared section's tagged records and emits one
// paragraph per text record. Scanner diagnostics are passed through; a
// sink error aborts.
func walkSection(payload []byte, sink model.EventSink) ([]core.Diagnostic, error) {
	sc := core.NewScanner(core.NewCursor(payload))
	for {
		rec, ok := sc.Next()
		if !ok {
			break
		}
		if rec.Tag != tagParaText {
			continue
		}
		text := decodeParaText(rec.Payload)
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, e := range []model.Event{
			{Kind: model.ParagraphStart},
			{Kind: model.TextRun, Text: text},
			{Kind: model.ParagraphEnd},
		} {
			if err := sink.Accept(e); err != nil {
				return sc.Diagnostics(), err
			}
		}
	}
	return sc.Diagnostics(), nil
}
