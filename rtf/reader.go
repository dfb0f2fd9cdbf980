// Package rtf extracts text, metadata and embedded pictures from rich
// text format documents. RTF interleaves formatting control words with
// text inside nested brace groups; formatting state is group-scoped, so
// the walk keeps a stack of group states and lets closes restore the
// enclosing one.
package rtf

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// destination says where the text of the current group goes.
type destination int

const (
	destBody destination = iota
	destInfo             // inside \info, waiting for a field group
	destInfoField
	destTime
	destPict
	destSkip
)

// mediaTypes for the picture blip control words.
var blipTypes = map[string]string{
	"jpegblip":   "image/jpeg",
	"pngblip":    "image/png",
	"emfblip":    "image/emf",
	"wmetafile":  "image/wmf",
	"dibitmap":   "image/bmp",
	"wbitmap":    "image/bmp",
	"macpict":    "image/x-pict",
	"pmmetafile": "image/x-wmf",
}

var rtfMagic = []byte("{\\rtf")

// Parse walks one RTF document.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome {
	if len(data) == 0 {
		return model.AbortedOutcome(&core.TruncatedError{Op: "read document", Wanted: 1, Have: 0}, nil)
	}
	if !bytes.HasPrefix(data, rtfMagic) {
		return model.AbortedOutcome(&core.MalformedRecordError{Offset: 0, Detail: "missing {\\rtf group"}, nil)
	}

	md.Set(model.FieldContentType, format.RTF.MediaType())

	w := &walker{
		lex:    &lexer{data: data},
		sink:   sink,
		md:     md,
		mapper: fieldmap.ForDescriptor(format.Descriptor{Family: format.RTF}),
		stack:  []groupState{{ucSkip: 1}},
	}
	if err := w.emit(model.Event{Kind: model.DocumentStart}); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}
	if err := w.run(); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}
	if err := w.flushParagraph(); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}
	if err := w.emit(model.Event{Kind: model.DocumentEnd}); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}
	if len(w.diags) > 0 {
		return model.PartialOutcome(nil, w.diags)
	}
	return model.Succeeded()
}

// groupState is the group-scoped walk state; opening a group copies it,
// closing a group discards the copy.
type groupState struct {
	dest      destination
	infoField string // canonical field for destInfoField, or created/modified for destTime
	ucSkip    int    // fallback characters to drop after \uN
	starred   bool   // saw \* and the next unknown control skips the group
}

type walker struct {
	lex    *lexer
	sink   model.EventSink
	md     *model.Metadata
	mapper *fieldmap.Mapper
	diags  []core.Diagnostic

	stack []groupState

	para      strings.Builder
	paraDirty bool
	field     strings.Builder
	pictHex   strings.Builder
	pictType  string
	pictCount int
	time      struct{ yr, mo, dy, hr, min, sec int }
	pending   int // fallback characters still to drop after \uN
}

func (w *walker) emit(e model.Event) error { return w.sink.Accept(e) }

func (w *walker) top() *groupState { return &w.stack[len(w.stack)-1] }

func (w *walker) run() error {
	for {
		tok := w.lex.next()
		switch tok.kind {
		case tokenEOF:
			if len(w.stack) > 1 {
				w.diags = append(w.diags, core.Diagnostic{
					Code:    "GroupUnclosed",
					Offset:  w.lex.pos,
					Message: fmt.Sprintf("%d unclosed groups at end of input", len(w.stack)-1),
				})
			}
			return nil
		case tokenGroupOpen:
			top := *w.top()
			top.starred = false
			w.stack = append(w.stack, top)
		case tokenGroupClose:
			if len(w.stack) == 1 {
				w.diags = append(w.diags, core.Diagnostic{
					Code:    "GroupUnbalanced",
					Offset:  w.lex.pos,
					Message: "group close without a matching open",
				})
				continue
			}
			closed := *w.top()
			w.stack = w.stack[:len(w.stack)-1]
			if err := w.closeGroup(closed); err != nil {
				return err
			}
		case tokenControl:
			if err := w.control(tok); err != nil {
				return err
			}
		case tokenSymbol:
			w.symbol(tok.symbol)
		case tokenText:
			w.text(tok.text)
		}
	}
}

// closeGroup commits whatever the closed group was collecting.
func (w *walker) closeGroup(closed groupState) error {
	if inDest(w.stack, closed.dest) {
		// An inner group of the same destination closed; the collection
		// belongs to the outermost one.
		return nil
	}
	switch closed.dest {
	case destInfoField:
		value := strings.TrimSpace(w.field.String())
		w.field.Reset()
		if value != "" {
			w.md.Add(closed.infoField, value)
		}
	case destTime:
		t := w.time
		w.time = struct{ yr, mo, dy, hr, min, sec int }{}
		if t.yr != 0 {
			w.md.Set(closed.infoField, fmt.Sprintf(
				"%04d-%02d-%02dT%02d:%02d:%02dZ", t.yr, t.mo, t.dy, t.hr, t.min, t.sec))
		}
	case destPict:
		return w.emitPicture()
	}
	return nil
}

// inDest reports whether any group still on the stack has destination d.
func inDest(stack []groupState, d destination) bool {
	if d == destBody || d == destSkip {
		return true
	}
	for _, g := range stack {
		if g.dest == d {
			return true
		}
	}
	return false
}

func (w *walker) control(tok token) error {
	top := w.top()
	if top.starred {
		// {\*\word ...}: an optional destination; none of them carry
		// document content, so the group is skipped wholesale.
		top.starred = false
		top.dest = destSkip
		return nil
	}

	switch top.dest {
	case destInfo:
		if name, ok := w.mapper.ByName(tok.word); ok {
			top.dest = destInfoField
			top.infoField = name
			return nil
		}
		switch tok.word {
		case "creatim":
			top.dest = destTime
			top.infoField = model.FieldCreated
		case "revtim":
			top.dest = destTime
			top.infoField = model.FieldModified
		}
		return nil
	case destTime:
		switch tok.word {
		case "yr":
			w.time.yr = tok.param
		case "mo":
			w.time.mo = tok.param
		case "dy":
			w.time.dy = tok.param
		case "hr":
			w.time.hr = tok.param
		case "min":
			w.time.min = tok.param
		case "sec":
			w.time.sec = tok.param
		}
		return nil
	case destPict:
		if mt, ok := blipTypes[tok.word]; ok {
			w.pictType = mt
		}
		if tok.word == "bin" && tok.hasNum {
			w.lex.skipBytes(tok.param)
		}
		return nil
	case destSkip:
		if tok.word == "bin" && tok.hasNum {
			w.lex.skipBytes(tok.param)
		}
		return nil
	}

	switch tok.word {
	case "par", "line", "row":
		return w.flushParagraph()
	case "cell", "tab":
		w.append("\t")
	case "info":
		top.dest = destInfo
	case "pict":
		top.dest = destPict
		w.pictHex.Reset()
		w.pictType = ""
	case "fonttbl", "colortbl", "stylesheet", "pnseclvl", "filetbl", "listtable":
		top.dest = destSkip
	case "uc":
		top.ucSkip = tok.param
	case "u":
		r := rune(tok.param)
		if tok.param < 0 {
			r = rune(tok.param + 0x10000)
		}
		w.append(string(r))
		w.pending = top.ucSkip
	case "bin":
		if tok.hasNum {
			w.lex.skipBytes(tok.param)
		}
	case "emdash":
		w.append("--")
	case "endash":
		w.append("-")
	case "lquote", "rquote":
		w.append("'")
	case "ldblquote", "rdblquote":
		w.append(`"`)
	}
	return nil
}

func (w *walker) symbol(b byte) {
	switch b {
	case '\'':
		if v, ok := w.lex.hexPair(); ok {
			if w.pending > 0 {
				w.pending--
				return
			}
			s, err := core.DecodeString([]byte{v}, charmap.ISO8859_1)
			if err == nil {
				w.append(s)
			}
		}
	case '\\', '{', '}':
		w.append(string(b))
	case '~':
		w.append(" ")
	case '*':
		w.top().starred = true
	}
}

// text routes a plain character run to the active destination, honoring
// any pending \uN fallback skip.
func (w *walker) text(s string) {
	if w.pending > 0 {
		if w.pending >= len(s) {
			w.pending -= len(s)
			return
		}
		s = s[w.pending:]
		w.pending = 0
	}
	w.append(s)
}

func (w *walker) append(s string) {
	switch w.top().dest {
	case destBody:
		w.para.WriteString(s)
		w.paraDirty = true
	case destInfoField:
		w.field.WriteString(s)
	case destPict:
		w.pictHex.WriteString(s)
	}
}

func (w *walker) flushParagraph() error {
	if !w.paraDirty {
		return nil
	}
	text := strings.TrimSpace(w.para.String())
	w.para.Reset()
	w.paraDirty = false
	if text == "" {
		return nil
	}
	for _, e := range []model.Event{
		{Kind: model.ParagraphStart},
		{Kind: model.TextRun, Text: text},
		{Kind: model.ParagraphEnd},
	} {
		if err := w.emit(e); err != nil {
			return err
		}
	}
	return nil
}

// emitPicture decodes the collected \pict hex payload and hands it over
// as an embedded object reference.
func (w *walker) emitPicture() error {
	raw := decodeHexLoose(w.pictHex.String())
	w.pictHex.Reset()
	if len(raw) == 0 {
		return nil
	}
	w.pictCount++
	obj := &model.EmbeddedObject{
		ID:            fmt.Sprintf("pict-%d", w.pictCount),
		MediaTypeHint: w.pictType,
		Length:        len(raw),
		Data:          raw,
	}
	return w.emit(model.Event{Kind: model.EmbeddedObjectRef, Object: obj})
}

// decodeHexLoose decodes hex digits, ignoring the whitespace writers
// fold picture data with. An odd trailing digit is dropped.
func decodeHexLoose(s string) []byte {
	var out []byte
	var hi byte
	have := false
	for i := 0; i < len(s); i++ {
		v, ok := hexVal(s[i])
		if !ok {
			continue
		}
		if !have {
			hi = v
			have = true
			continue
		}
		out = append(out, hi<<4|v)
		have = false
	}
	return out
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
