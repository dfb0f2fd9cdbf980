// Package mif extracts text, tables and metadata from FrameMaker
// interchange format documents. MIF is a textual s-expression markup:
// every construct is an angle-bracketed statement, paragraph text lives
// in String literals under Para statements, and tables nest
// Tbl/Row/Cell the same way.
package mif

import (
	"strings"

	"github.com/structext/structext/core"
	"github.com/structext/structext/fieldmap"
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// Char statement names with a text rendering. Everything else (symbol
// glyphs, discretionary hyphens) contributes nothing.
var charNames = map[string]string{
	"Tab":         "\t",
	"HardSpace":   " ",
	"NumberSpace": " ",
	"ThinSpace":   " ",
	"EnDash":      "-",
	"HardReturn":  "\n",
}

// Parse walks one MIF document. Statement nesting drives the event
// stream directly: Para opens a paragraph, Tbl/Row/Cell open table
// scopes, String literals inside them become text runs.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome {
	if len(data) == 0 {
		return model.AbortedOutcome(&core.TruncatedError{Op: "read document", Wanted: 1, Have: 0}, nil)
	}

	md.Set(model.FieldContentType, format.MIF.MediaType())

	w := &walker{
		lex:    &lexer{data: data},
		sink:   sink,
		md:     md,
		mapper: fieldmap.ForDescriptor(format.Descriptor{Family: format.MIF}),
	}
	if err := w.emit(model.Event{Kind: model.DocumentStart}); err != nil {
		return model.AbortedOutcome(err, w.diags)
	}
	if err := w.walk(""); err != nil {
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

type walker struct {
	lex    *lexer
	sink   model.EventSink
	md     *model.Metadata
	mapper *fieldmap.Mapper
	diags  []core.Diagnostic

	inParagraph bool
	text        strings.Builder
}

func (w *walker) emit(e model.Event) error { return w.sink.Accept(e) }

// walk consumes statements until the enclosing statement closes.
// enclosing is the statement name the walk is inside, empty at top
// level.
func (w *walker) walk(enclosing string) error {
	for {
		tok := w.lex.next()
		switch tok.kind {
		case tokenEOF:
			if enclosing != "" {
				w.diags = append(w.diags, core.Diagnostic{
					Code:    "StatementUnclosed",
					Offset:  w.lex.pos,
					Message: "unclosed " + enclosing + " statement",
				})
			}
			return nil
		case tokenClose:
			return nil
		case tokenOpen:
			if err := w.statement(tok.text); err != nil {
				return err
			}
		case tokenString:
			if w.inParagraph {
				w.text.WriteString(tok.text)
			}
		case tokenWord:
			// Bare arguments of the enclosing statement; Char names are
			// the only ones that render as text.
			if enclosing == "Char" && w.inParagraph {
				w.text.WriteString(charNames[tok.text])
			}
			if enclosing == "MIFFile" && w.md.Get("format-version") == "" {
				w.md.Set("format-version", tok.text)
			}
		}
	}
}

// statement dispatches one opened statement by name.
func (w *walker) statement(name string) error {
	switch name {
	case "Para":
		if err := w.flushParagraph(); err != nil {
			return err
		}
		if err := w.emit(model.Event{Kind: model.ParagraphStart}); err != nil {
			return err
		}
		w.inParagraph = true
		if err := w.walk(name); err != nil {
			return err
		}
		return w.flushParagraph()
	case "Tbl":
		return w.tableScope(name, model.TableStart, model.TableEnd)
	case "Row":
		return w.tableScope(name, model.TableRowStart, model.TableRowEnd)
	case "Cell":
		return w.tableScope(name, model.TableCellStart, model.TableCellEnd)
	case "PDFDocInfo":
		return w.docInfo()
	default:
		return w.walk(name)
	}
}

// tableScope brackets a nested statement with start/end events.
func (w *walker) tableScope(name string, start, end model.EventKind) error {
	if err := w.flushParagraph(); err != nil {
		return err
	}
	if err := w.emit(model.Event{Kind: start}); err != nil {
		return err
	}
	if err := w.walk(name); err != nil {
		return err
	}
	if err := w.flushParagraph(); err != nil {
		return err
	}
	return w.emit(model.Event{Kind: end})
}

// docInfo reads the PDFDocInfo statement: alternating Key and Value
// sub-statements carrying string literals. Keys map through the field
// layout; unmapped keys pass through as custom fields.
func (w *walker) docInfo() error {
	key := ""
	for {
		tok := w.lex.next()
		switch tok.kind {
		case tokenEOF, tokenClose:
			return nil
		case tokenOpen:
			inner := w.collectStrings(tok.text)
			switch tok.text {
			case "Key":
				key = inner
			case "Value":
				if key != "" && inner != "" {
					name, _ := w.mapper.ByName(key)
					w.md.Add(name, inner)
				}
				key = ""
			}
		}
	}
}

// collectStrings consumes one statement and returns its concatenated
// string literals.
func (w *walker) collectStrings(name string) string {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok := w.lex.next()
		switch tok.kind {
		case tokenEOF:
			w.diags = append(w.diags, core.Diagnostic{
				Code:    "StatementUnclosed",
				Offset:  w.lex.pos,
				Message: "unclosed " + name + " statement",
			})
			return sb.String()
		case tokenOpen:
			depth++
		case tokenClose:
			depth--
		case tokenString:
			sb.WriteString(tok.text)
		}
	}
	return sb.String()
}

// flushParagraph closes the open paragraph, if any, emitting its
// buffered text.
func (w *walker) flushParagraph() error {
	if !w.inParagraph {
		return nil
	}
	w.inParagraph = false
	text := w.text.String()
	w.text.Reset()
	if text != "" {
		if err := w.emit(model.Event{Kind: model.TextRun, Text: text}); err != nil {
			return err
		}
	}
	return w.emit(model.Event{Kind: model.ParagraphEnd})
}
