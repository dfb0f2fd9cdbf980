// Package anpa parses IPTC ANPA-1312 news wire feeds.
//
// A wire message is a byte stream delimited by teletype control bytes:
// SYN idle padding, then SOH, the envelope header, STX, the story text,
// ETX, the transmission footer, and EOT. The agency variant (AP,
// Reuters, New York Times, Bloomberg) is not recorded structurally and
// has to be inferred from content substrings; the variant decides a few
// byte-level quirks of the story markup and the footer date layout.
package anpa

import (
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/structext/structext/core"
	"github.com/structext/structext/format"
	"github.com/structext/structext/model"
)

// Teletype control bytes.
const (
	ctlSOH = 0x01 // start of header
	ctlSTX = 0x02 // start of text
	ctlETX = 0x03 // end of text
	ctlEOT = 0x04 // end of transmission
	ctlBS  = 0x08
	ctlTB  = 0x09
	ctlLF  = 0x0A
	ctlCR  = 0x0D
	ctlXQ  = 0x11 // device control, trails the category field
	ctlXS  = 0x13 // device control, ends the category field
	ctlSYN = 0x16 // synchronous idle
	ctlFS  = 0x1F // field separator
	ctlHY  = '-'
	ctlSP  = ' '
	ctlLT  = '<'
	ctlCT  = '^' // caret, starts a story markup line
)

// Section size caps: the envelope and footer run a few hundred bytes at
// most, the story text can be long.
const (
	maxEnvelope = 8192
	maxBody     = 524288
)

// Footer timestamps are re-serialized to this layout.
const timeLayoutOut = "2006-01-02T15:04:05Z"

// Per-publisher footer date layouts. Only publishers listed here get
// their dates parsed; an unknown publisher keeps the raw value.
var footerTimeLayouts = map[Publisher]string{
	AssociatedPress: "01-02-06 1504MST",
	NewYorkTimes:    "01-02-06 1504MST",
	Bloomberg:       "01-02-06 1504MST",
	Reuters:         "15:04 01-02-06",
}

// Offsets for the zone abbreviations seen on US wire feeds. time.Parse
// records an abbreviation it cannot resolve with a zero offset, so the
// real offset is applied afterward.
var wireZoneOffsets = map[string]time.Duration{
	"GMT": 0,
	"EST": -5 * time.Hour,
	"EDT": -4 * time.Hour,
	"CST": -6 * time.Hour,
	"CDT": -5 * time.Hour,
	"MST": -7 * time.Hour,
	"MDT": -6 * time.Hour,
	"PST": -8 * time.Hour,
	"PDT": -7 * time.Hour,
}

// Parse walks one wire message: locates the delimited sections, parses
// the envelope, story and footer, and emits the story text as
// paragraphs. Missing sections degrade the outcome to Partial; only an
// input with no readable framing at all aborts.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome {
	if len(data) == 0 {
		return model.AbortedOutcome(&core.TruncatedError{Op: "read wire message", Wanted: 1, Have: 0}, nil)
	}

	pub := DetectPublisher(data)
	cur := core.NewCursor(data)
	var diags []core.Diagnostic
	diag := func(code, msg string) {
		diags = append(diags, core.Diagnostic{Code: code, Offset: cur.Pos(), Message: msg})
	}

	md.Set(model.FieldContentType, format.ANPA.MediaType())
	if pub != PublisherUnknown {
		md.Set(model.FieldPublisher, pub.String())
	}

	// Leftover idle residue from a preceding message, if any; extracted
	// only to position the cursor on the SOH.
	core.ExtractSection(cur, core.SectionResidual, ctlSYN, ctlSOH, maxEnvelope, true)

	if sec, ok := core.ExtractSection(cur, core.SectionHeader, ctlSOH, ctlSTX, maxEnvelope, true); ok {
		parseEnvelope(sec.Bytes, md)
	} else {
		diag("SectionMissing", "no envelope header section")
	}

	var story storyFields
	bodyFound := false
	if sec, ok := core.ExtractSection(cur, core.SectionBody, ctlSTX, ctlETX, maxBody, true); ok {
		bodyFound = true
		story = parseStory(sec.Bytes, pub)
		if sec.Partial {
			diag("SectionTruncated", "story section has no terminator")
		}
	} else {
		diag("SectionMissing", "no story section")
	}

	if sec, ok := core.ExtractSection(cur, core.SectionFooter, ctlETX, ctlEOT, maxEnvelope, true); ok {
		parseFooter(sec.Bytes, pub, md, &diags)
	} else {
		diag("SectionMissing", "no footer section")
	}

	md.Set(model.FieldTitle, clean(story.title))
	md.Set(model.FieldKeywords, clean(story.heading))
	md.Set(model.FieldCreator, clean(story.author))
	md.Set(model.FieldSource, clean(story.source))
	body := clean(story.body)
	md.Set("body", body)

	if err := sink.Accept(model.Event{Kind: model.DocumentStart}); err != nil {
		return model.AbortedOutcome(err, diags)
	}
	if body != "" {
		for _, e := range []model.Event{
			{Kind: model.ParagraphStart},
			{Kind: model.TextRun, Text: body},
			{Kind: model.ParagraphEnd},
		} {
			if err := sink.Accept(e); err != nil {
				return model.AbortedOutcome(err, diags)
			}
		}
	}
	if err := sink.Accept(model.Event{Kind: model.DocumentEnd}); err != nil {
		return model.AbortedOutcome(err, diags)
	}

	if !bodyFound {
		return model.AbortedOutcome(&core.TruncatedError{Op: "locate story section", Wanted: 1, Have: 0}, diags)
	}
	if len(diags) > 0 {
		return model.PartialOutcome(nil, diags)
	}
	return model.Succeeded()
}

// parseEnvelope decodes the header envelope: service id to the field
// separator, category to the XS control, the subject word, then the wire
// date and time. The values are format bookkeeping rather than document
// metadata, so they land in custom fields.
func parseEnvelope(value []byte, md *model.Metadata) {
	p := &byteScanner{data: value}

	serviceID := p.until(ctlFS)
	category := p.until(ctlXS)
	if p.peek() == ctlXQ {
		p.pos++
	}
	p.skipByte(ctlSP)
	subject := p.untilRun(ctlSP)
	p.skipByte(ctlSP)
	date := p.digitRun()
	p.skipByte(ctlSP)
	tm := p.digitRun()

	md.Add("wire-service", clean(serviceID))
	md.Add("wire-category", clean(category))
	md.Add("wire-subject", clean(subject))
	md.Add("wire-date", clean(date))
	md.Add("wire-time", clean(tm))
}

// storyFields is what the caret-markup walk of the story section yields.
type storyFields struct {
	heading string
	title   string
	author  string
	source  string
	body    string
}

// parseStory walks the story markup: a heading line, a title line, a
// variable run of caret-started metadata lines (authors, source notes),
// then the story text. AP and New York Times end markup lines with '<',
// Reuters with a bare newline and no leading caret, and Bloomberg starts
// its title line with a tab and splits the author over a multi-line
// copyright block; the publisher-specific fixups below paper over those
// differences the same way the wire desks did.
func parseStory(value []byte, pub Publisher) storyFields {
	p := &storyParser{byteScanner: byteScanner{data: value}, pub: pub}
	var f storyFields

	f.heading = p.markupLine(false)
	f.title = p.markupLine(true)

	metaStarted := false
	continuation := ""
	for !p.done() {
		b := p.peek()

		// Eat inter-line whitespace. A tab is only markup for Bloomberg.
		if b == ctlSP || b == ctlCR || b == ctlLF || (b == ctlTB && pub != Bloomberg) {
			p.pos++
			continue
		}

		if b != ctlCT && !(pub == Bloomberg && b == ctlTB) {
			// Story text begins here and runs to the end.
			f.body = latin1(p.data[p.pos:])
			break
		}
		p.pos++
		if b == ctlTB && p.peek() == ctlCT {
			p.pos++
		}
		line := p.segment(true)

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "by") || continuation == "author":
			cont := continuation == "author"
			if cont {
				line = " " + line
			}
			f.author += sliceAfterSpace(line, 0)
			metaStarted = true
			if strings.Contains(line, "=") && !cont {
				continuation = "author"
			} else {
				continuation = ""
			}
		case pub == Bloomberg && strings.Contains(lower, "   by "):
			at := strings.Index(lower, "   by ") + len("   by ")
			f.author += sliceToTerm(line[at:]) + " "
			metaStarted = true
		case pub == Bloomberg && (strings.HasPrefix(lower, "c.") ||
			(strings.HasPrefix(strings.TrimSpace(lower), "(") && strings.HasSuffix(strings.TrimSpace(lower), ")"))):
			// Copyright statement or aside between it and the byline;
			// the byline follows on a later tab-indented line.
		case strings.HasPrefix(lower, "eds") || continuation == "source":
			cont := continuation == "source"
			if cont {
				line = " " + line
			}
			f.source += sliceAfterSpace(line, 1) + " "
			metaStarted = true
			if !cont {
				continuation = "source"
			} else {
				continuation = ""
			}
		default:
			// Unrecognized markup line; keep the content rather than
			// losing it.
			if !metaStarted {
				f.title += " , " + line
			} else {
				f.body += " " + line + " , "
			}
		}
	}
	return f
}

// sliceAfterSpace returns the text after the first space, cut at the
// first '<' or '=' terminator; extra advances past the space itself.
func sliceAfterSpace(line string, extra int) string {
	at := strings.IndexByte(line, ' ')
	if at < 0 {
		at = 0
	} else {
		at += extra
	}
	return sliceToTerm(line[at:])
}

// sliceToTerm cuts a markup value at the first '<', '=' or newline.
func sliceToTerm(s string) string {
	term := len(s)
	for _, stop := range []string{"<", "=", "\n"} {
		if at := strings.Index(s, stop); at > -1 && at < term {
			term = at
		}
	}
	return s[:term]
}

// parseFooter decodes the transmission footer: a source run, then the
// timestamp. The timestamp layout depends on the publisher; when the
// publisher is unknown, or the value does not parse, the raw text is
// kept under wire-datetime with a diagnostic instead of fabricating a
// time.
func parseFooter(value []byte, pub Publisher, md *model.Metadata, diags *[]core.Diagnostic) {
	p := &byteScanner{data: value}

	var src []byte
	for !p.done() {
		b := p.peek()
		if b >= '0' && b <= '9' {
			break
		}
		src = append(src, b)
		p.pos++
	}

	var raw []byte
	for !p.done() {
		b := p.peek()
		if b == ctlLT || b == ctlCR || b == ctlLF || b == 0 {
			break
		}
		raw = append(raw, b)
		p.pos++
	}

	md.Set("wire-source", clean(latin1(src)))

	datetime := strings.TrimSpace(latin1(raw))
	if datetime == "" {
		return
	}

	layout, known := footerTimeLayouts[pub]
	if known {
		if ts, err := time.Parse(layout, datetime); err == nil {
			if name, off := ts.Zone(); off == 0 && name != "UTC" {
				if real, ok := wireZoneOffsets[name]; ok {
					ts = ts.Add(-real)
				}
			}
			iso := ts.UTC().Format(timeLayoutOut)
			md.Set(model.FieldCreated, iso)
			md.Set(model.FieldModified, iso)
			return
		}
		*diags = append(*diags, core.Diagnostic{
			Code:    "DateUnparsed",
			Message: "footer timestamp does not match the " + pub.String() + " layout",
		})
	} else {
		*diags = append(*diags, core.Diagnostic{
			Code:    "DateUnparsed",
			Message: "publisher unknown, footer timestamp left raw",
		})
	}
	// Never substitute the current time for an unparseable one.
	md.Set("wire-datetime", clean(datetime))
}

// latin1 decodes wire bytes one byte per rune. The control-range quote
// bytes survive as U+0091..U+0094 for clean to normalize.
func latin1(raw []byte) string {
	s, _ := core.DecodeString(raw, charmap.ISO8859_1)
	return s
}

// byteScanner is a minimal forward-only reader over a section's bytes.
type byteScanner struct {
	data []byte
	pos  int
}

func (p *byteScanner) done() bool { return p.pos >= len(p.data) }

func (p *byteScanner) peek() byte {
	if p.done() {
		return 0
	}
	return p.data[p.pos]
}

// until consumes up to and including stop and returns the bytes before
// it.
func (p *byteScanner) until(stop byte) string {
	start := p.pos
	for !p.done() {
		if p.data[p.pos] == stop {
			s := latin1(p.data[start:p.pos])
			p.pos++
			return s
		}
		p.pos++
	}
	return latin1(p.data[start:])
}

// untilRun consumes up to the first run of sep and returns the bytes
// before it; the run itself is consumed.
func (p *byteScanner) untilRun(sep byte) string {
	start := p.pos
	for !p.done() && p.data[p.pos] != sep && p.data[p.pos] != 0 {
		p.pos++
	}
	s := latin1(p.data[start:p.pos])
	p.skipByte(sep)
	return s
}

func (p *byteScanner) skipByte(b byte) {
	for !p.done() && p.data[p.pos] == b {
		p.pos++
	}
}

// digitRun consumes a run of digits and hyphens.
func (p *byteScanner) digitRun() string {
	start := p.pos
	for !p.done() {
		b := p.data[p.pos]
		if (b < '0' || b > '9') && b != ctlHY {
			break
		}
		p.pos++
	}
	return latin1(p.data[start:p.pos])
}

type storyParser struct {
	byteScanner
	pub Publisher
}

// markupLine reads one caret-started markup line. Reuters omits the
// caret entirely; Bloomberg starts its title line with a tab. isTitle
// enables the Bloomberg tab fixup and stops the line at a following
// caret, since the byline frequently runs on without a newline.
func (p *storyParser) markupLine(isTitle bool) string {
	for !p.done() {
		b := p.peek()
		if b == ctlCR || b == ctlLF {
			p.pos++
			continue
		}
		switch {
		case b == ctlCT:
			p.pos++
		case isTitle && p.pub == Bloomberg && b == ctlTB:
			p.pos++
		case p.pub == Reuters:
			// No caret on the wire; parse from here as if one existed.
		default:
			return ""
		}
		return p.segment(isTitle)
	}
	return ""
}

// segment reads to the end of a markup line: a '<' delimiter, a newline,
// a NUL, or (when stopAtCaret) the caret that starts the next line. A
// terminating '<' is consumed; a terminating caret is left for the next
// read; trailing newlines are consumed.
func (p *storyParser) segment(stopAtCaret bool) string {
	start := p.pos
	for !p.done() {
		b := p.data[p.pos]
		if b == ctlLT || b == ctlCR || b == ctlLF || b == 0 || (stopAtCaret && b == ctlCT) {
			break
		}
		p.pos++
	}
	s := latin1(p.data[start:p.pos])
	if !p.done() && p.data[p.pos] == ctlLT {
		p.pos++
	}
	for !p.done() && (p.data[p.pos] == ctlCR || p.data[p.pos] == ctlLF) {
		p.pos++
	}
	return s
}
