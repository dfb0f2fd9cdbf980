package model

// EventKind identifies a structural event.
type EventKind int

const (
	DocumentStart EventKind = iota
	DocumentEnd
	ParagraphStart
	ParagraphEnd
	TableStart
	TableRowStart
	TableCellStart
	TableCellEnd
	TableRowEnd
	TableEnd
	TextRun
	EmbeddedObjectRef
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case DocumentStart:
		return "document-start"
	case DocumentEnd:
		return "document-end"
	case ParagraphStart:
		return "paragraph-start"
	case ParagraphEnd:
		return "paragraph-end"
	case TableStart:
		return "table-start"
	case TableRowStart:
		return "table-row-start"
	case TableCellStart:
		return "table-cell-start"
	case TableCellEnd:
		return "table-cell-end"
	case TableRowEnd:
		return "table-row-end"
	case TableEnd:
		return "table-end"
	case TextRun:
		return "text-run"
	case EmbeddedObjectRef:
		return "embedded-object-ref"
	default:
		return "unknown"
	}
}

// Event is one unit of document structure, emitted strictly in document
// order. Text is set for TextRun events; Object is set for
// EmbeddedObjectRef events. Consumers should handle unbalanced nesting
// defensively: a damaged document may end mid-paragraph or mid-table.
type Event struct {
	Kind   EventKind
	Text   string
	Object *EmbeddedObject
}

// EmbeddedObject delimits an embedded document discovered during the
// structural walk. The core only recognizes and delimits it; recursive
// parsing belongs to the caller.
type EmbeddedObject struct {
	ID            string
	NameHint      string // declared name, when the format records one
	MediaTypeHint string // declared or inferred media type, may be empty
	Offset        int    // byte offset of the object within its stream
	Length        int
	Data          []byte
}

// EventSink receives structural events as a driver walks a document. A
// non-nil error from Accept aborts the walk cooperatively: drivers check
// it between discrete scan steps, never mid-record.
type EventSink interface {
	Accept(Event) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event) error

// Accept calls f(e).
func (f SinkFunc) Accept(e Event) error { return f(e) }

// Collector is an EventSink that records every event in order. It is the
// simplest useful sink and the one tests use.
type Collector struct {
	Events []Event
}

// Accept appends e and never fails.
func (c *Collector) Accept(e Event) error {
	c.Events = append(c.Events, e)
	return nil
}

// Text concatenates the content of every TextRun event, separating
// paragraphs with newlines.
func (c *Collector) Text() string {
	var out []byte
	for _, e := range c.Events {
		switch e.Kind {
		case TextRun:
			out = append(out, e.Text...)
		case ParagraphEnd:
			out = append(out, '\n')
		}
	}
	return string(out)
}

// Kinds returns the event kinds in emission order.
func (c *Collector) Kinds() []EventKind {
	kinds := make([]EventKind, len(c.Events))
	for i, e := range c.Events {
		kinds[i] = e.Kind
	}
	return kinds
}
