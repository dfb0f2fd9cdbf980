// Package wordml extracts text, tables and metadata from Word 2003 XML
// documents. WordML is a single XML stream: document properties under
// o:DocumentProperties, paragraphs as w:p with w:t text runs, tables as
// w:tbl/w:tr/w:tc, and embedded payloads as base64 inside w:binData.
package wordml

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// Structural element names, namespace-local.
var elementKinds = map[string]struct{ start, end model.EventKind }{
	"p":   {model.ParagraphStart, model.ParagraphEnd},
	"tbl": {model.TableStart, model.TableEnd},
	"tr":  {model.TableRowStart, model.TableRowEnd},
	"tc":  {model.TableCellStart, model.TableCellEnd},
}

// Parse walks one WordML document.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome {
	if len(data) == 0 {
		return model.AbortedOutcome(&core.TruncatedError{Op: "read document", Wanted: 1, Have: 0}, nil)
	}

	md.Set(model.FieldContentType, format.WordML.MediaType())

	w := &walker{
		dec:    xml.NewDecoder(bytes.NewReader(data)),
		sink:   sink,
		md:     md,
		mapper: fieldmap.ForDescriptor(format.Descriptor{Family: format.WordML}),
	}
	return w.run()
}

type walker struct {
	dec    *xml.Decoder
	sink   model.EventSink
	md     *model.Metadata
	mapper *fieldmap.Mapper
	diags  []core.Diagnostic

	rootSeen bool
	inText   bool
	text     strings.Builder
	property string // open o:DocumentProperties child, if any
	inProps  bool
	binName  string
	inBin    bool
	binData  strings.Builder
	binCount int
}

func (w *walker) run() model.Outcome {
	if err := w.sink.Accept(model.Event{Kind: model.DocumentStart}); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}

	for {
		tok, err := w.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed markup past this point; keep what was walked.
			w.diags = append(w.diags, core.Diagnostic{
				Code:    "MarkupMalformed",
				Offset:  int(w.dec.InputOffset()),
				Message: err.Error(),
			})
			if serr := w.sink.Accept(model.Event{Kind: model.DocumentEnd}); serr != nil {
				return model.AbortedOutcome(serr, w.diags)
			}
			return model.PartialOutcome(fmt.Errorf("wordml: decode markup: %w", err), w.diags)
		}
		if serr := w.token(tok); serr != nil {
			return model.AbortedOutcome(serr, w.diags)
		}
	}

	if !w.rootSeen {
		return model.AbortedOutcome(&core.MalformedRecordError{Offset: 0, Detail: "no w:wordDocument root element"}, w.diags)
	}
	if err := w.sink.Accept(model.Event{Kind: model.DocumentEnd}); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}
	if len(w.diags) > 0 {
		return model.PartialOutcome(nil, w.diags)
	}
	return model.Succeeded()
}

func (w *walker) token(tok xml.Token) error {
	switch t := tok.(type) {
	case xml.StartElement:
		return w.start(t)
	case xml.EndElement:
		return w.end(t)
	case xml.CharData:
		switch {
		case w.inText:
			w.text.Write(t)
		case w.property != "":
			w.text.Write(t)
		case w.inBin:
			w.binData.Write(t)
		}
	}
	return nil
}

func (w *walker) start(t xml.StartElement) error {
	name := t.Name.Local
	switch name {
	case "wordDocument":
		w.rootSeen = true
	case "DocumentProperties":
		w.inProps = true
	case "t":
		w.inText = true
	case "binData":
		w.inBin = true
		w.binData.Reset()
		w.binName = ""
		for _, a := range t.Attr {
			if a.Name.Local == "name" {
				w.binName = a.Value
			}
		}
	default:
		if w.inProps {
			w.property = name
			w.text.Reset()
			return nil
		}
		if k, ok := elementKinds[name]; ok {
			return w.sink.Accept(model.Event{Kind: k.start})
		}
	}
	return nil
}

func (w *walker) end(t xml.EndElement) error {
	name := t.Name.Local
	switch name {
	case "DocumentProperties":
		w.inProps = false
	case "t":
		w.inText = false
		text := w.text.String()
		w.text.Reset()
		if text != "" {
			return w.sink.Accept(model.Event{Kind: model.TextRun, Text: text})
		}
	case "binData":
		w.inBin = false
		return w.emitBinData()
	default:
		if w.inProps && name == w.property {
			value := strings.TrimSpace(w.text.String())
			w.text.Reset()
			w.property = ""
			if value != "" {
				field, _ := w.mapper.ByName(name)
				w.md.Add(field, value)
			}
			return nil
		}
		if k, ok := elementKinds[name]; ok {
			return w.sink.Accept(model.Event{Kind: k.end})
		}
	}
	return nil
}

// emitBinData decodes the collected base64 payload and hands it over as
// an embedded object reference. Undecodable payloads are reported and
// dropped.
func (w *walker) emitBinData() error {
	enc := strings.Map(dropSpace, w.binData.String())
	w.binData.Reset()
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		w.diags = append(w.diags, core.Diagnostic{
			Code:    "BinDataUndecodable",
			Offset:  int(w.dec.InputOffset()),
			Message: "binData payload is not valid base64",
		})
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	w.binCount++
	obj := &model.EmbeddedObject{
		ID:            fmt.Sprintf("bindata-%d", w.binCount),
		NameHint:      w.binName,
		MediaTypeHint: mime.TypeByExtension(path.Ext(w.binName)),
		Length:        len(raw),
		Data:          raw,
	}
	return w.sink.Accept(model.Event{Kind: model.EmbeddedObjectRef, Object: obj})
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\r', '\n':
		return -1
	}
	return r
}
