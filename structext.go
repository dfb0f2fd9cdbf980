// Package structext detects the format of a document held in memory and
// extracts its structural content: an ordered event stream (paragraphs,
// tables, text runs, embedded object references) plus a metadata record.
//
// Basic usage:
//
//	text, warnings, err := structext.From(data).Text()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", structext.FormatWarnings(warnings))
//	}
//
// With an embedded-object router:
//
//	result, _, err := structext.From(data).
//	    Router(structext.RouterFunc(saveAttachment)).
//	    Extract()
//
// For advanced use cases, the per-format driver packages (dwg, anpa,
// hwp, mif, rtf, wordml) and the lower-level core package are also
// available.
package structext

import (
	"errors"

	"github.com/structext/structext/anpa"
	"github.com/structext/structext/dwg"
	"github.com/structext/structext/format"
	"github.com/structext/structext/hwp"
	"github.com/structext/structext/mif"
	"github.com/structext/structext/model"
	"github.com/structext/structext/rtf"
	"github.com/structext/structext/wordml"
)

// ErrUnknownFormat is returned when no signature matches the input.
var ErrUnknownFormat = errors.New("structext: unrecognized format")

// driverFunc is the contract every format driver satisfies.
type driverFunc func(data []byte, sink model.EventSink, md *model.Metadata) model.Outcome

// drivers dispatches a detected family to its driver. New formats plug
// in here; detection itself lives in the format package's signature
// table.
var drivers = map[format.Family]driverFunc{
	format.DWG:    dwg.Parse,
	format.ANPA:   anpa.Parse,
	format.HWP:    hwp.Parse,
	format.MIF:    mif.Parse,
	format.RTF:    rtf.Parse,
	format.WordML: wordml.Parse,
}

// Detect identifies the format of data from its leading bytes without
// parsing it. The returned descriptor is Unknown when no signature
// matches.
func Detect(data []byte) format.Descriptor {
	return format.Identify(data)
}

// Parse detects the format of data and runs the matching driver,
// delivering events to sink and metadata into md. It is the lower-level
// entry point; From provides the fluent one.
func Parse(data []byte, sink model.EventSink, md *model.Metadata) (format.Descriptor, model.Outcome) {
	desc := Detect(data)
	driver, ok := drivers[desc.Family]
	if !ok {
		return desc, model.AbortedOutcome(ErrUnknownFormat, nil)
	}
	return desc, driver(data, sink, md)
}

// Result is what a full extraction yields: the resolved format, the
// metadata record, the recorded event stream, and the driver's outcome.
type Result struct {
	Descriptor format.Descriptor
	Metadata   *model.Metadata
	Events     []model.Event
	Outcome    model.Outcome
}

// Text concatenates the text runs of the recorded events, one line per
// paragraph.
func (r *Result) Text() string {
	c := model.Collector{Events: r.Events}
	return c.Text()
}

// Extractor provides a fluent interface over Parse. Each configuration
// method returns a new Extractor instance, making chains safe to fork
// and reuse.
type Extractor struct {
	data    []byte
	options ParseOptions
}

// From wraps an in-memory document for fluent configuration.
//
// Example:
//
//	text, warnings, err := structext.From(data).Text()
func From(data []byte) *Extractor {
	return &Extractor{
		data:    data,
		options: defaultOptions(),
	}
}

// clone creates a copy of the Extractor with copied options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		data:    e.data,
		options: e.options.clone(),
	}
}

// Router directs embedded object payloads to r during extraction.
// Without a router the payload bytes are dropped and only the reference
// event survives.
//
// Example:
//
//	result, _, err := structext.From(data).
//	    Router(structext.RouterFunc(saveAttachment)).
//	    Extract()
func (e *Extractor) Router(r Router) *Extractor {
	newExt := e.clone()
	newExt.options.router = r
	return newExt
}

// MaxEmbeddedSize caps the embedded object payloads handed to the
// router; larger objects are still reported as reference events but not
// routed. Zero, the default, means no cap.
func (e *Extractor) MaxEmbeddedSize(n int) *Extractor {
	newExt := e.clone()
	newExt.options.maxEmbeddedSize = n
	return newExt
}

// Sink delivers events to s during extraction instead of only recording
// them. A non-nil error from s.Accept aborts the parse.
func (e *Extractor) Sink(s model.EventSink) *Extractor {
	newExt := e.clone()
	newExt.options.sink = s
	return newExt
}

// Detect identifies the document's format without parsing it.
func (e *Extractor) Detect() format.Descriptor {
	return Detect(e.data)
}

// Extract runs the full parse and returns everything it produced. The
// error reports an aborted parse; a partial one returns normally with
// warnings and whatever was recovered.
//
// Example:
//
//	result, warnings, err := structext.From(data).Extract()
func (e *Extractor) Extract() (*Result, []Warning, error) {
	collector := &model.Collector{}
	var inner model.EventSink = collector
	if e.options.sink != nil {
		s := e.options.sink
		inner = model.SinkFunc(func(ev model.Event) error {
			if err := s.Accept(ev); err != nil {
				return err
			}
			return collector.Accept(ev)
		})
	}
	sink := &routingSink{
		inner:   inner,
		router:  e.options.router,
		maxSize: e.options.maxEmbeddedSize,
	}

	md := model.NewMetadata()
	desc, outcome := Parse(e.data, sink, md)

	result := &Result{
		Descriptor: desc,
		Metadata:   md,
		Events:     collector.Events,
		Outcome:    outcome,
	}
	warnings := warningsFromDiagnostics(outcome.Diagnostics)
	if outcome.Status == model.Aborted {
		return result, warnings, outcome.Reason
	}
	return result, warnings, nil
}

// Text extracts the document's plain text, one line per paragraph.
//
// Example:
//
//	text, warnings, err := structext.From(data).Text()
func (e *Extractor) Text() (string, []Warning, error) {
	result, warnings, err := e.Extract()
	if err != nil {
		return "", warnings, err
	}
	return result.Text(), warnings, nil
}

// Metadata extracts only the document's metadata record.
//
// Example:
//
//	md, _, err := structext.From(data).Metadata()
//	title := md.Get(model.FieldTitle)
func (e *Extractor) Metadata() (*model.Metadata, []Warning, error) {
	result, warnings, err := e.Extract()
	if err != nil {
		return nil, warnings, err
	}
	return result.Metadata, warnings, nil
}
