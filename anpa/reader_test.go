package anpa

import (
	"errors"
	"reflect"
	"testing"

	"github.com/structext/structext/core"
	"github.com/structext/structext/model"
)

// buildWire frames the given sections with the teletype control bytes.
func buildWire(header, body, footer string) []byte {
	var out []byte
	out = append(out, ctlSYN, ctlSYN)
	out = append(out, ctlSOH)
	out = append(out, header...)
	out = append(out, ctlSTX)
	out = append(out, body...)
	out = append(out, ctlETX)
	out = append(out, footer...)
	out = append(out, ctlEOT)
	return out
}

func apWire() []byte {
	header := "bc-wire\x1ff\x13\x11 topstory 09-12 0105"
	body := "^Storm Warning<\n" +
		"^Coast braces for landfall<\n" +
		"^By JANE SMITH<\n" +
		"^Eds: updates wind speeds<\n" +
		"The storm strengthened overnight.\n"
	footer := "AP-WF-NY 09-12-11 0655EST"
	return buildWire(header, body, footer)
}

func TestParseAssociatedPress(t *testing.T) {
	var sink model.Collector
	md := model.NewMetadata()

	out := Parse(apWire(), &sink, md)
	if out.Status != model.Success {
		t.Fatalf("status = %v (reason %v), want success", out.Status, out.Reason)
	}

	want := map[string]string{
		model.FieldTitle:     "Coast braces for landfall",
		model.FieldKeywords:  "Storm Warning",
		model.FieldCreator:   "JANE SMITH",
		model.FieldSource:    "updates wind speeds",
		model.FieldPublisher: "Associated Press",
		model.FieldCreated:   "2011-09-12T11:55:00Z",
		model.FieldModified:  "2011-09-12T11:55:00Z",
		"wire-service":      "bc-wire",
		"wire-category":     "f",
		"wire-subject":      "topstory",
		"wire-date":         "09-12",
		"wire-time":         "0105",
		"wire-source":       "AP-WF-NY",
	}
	for field, val := range want {
		if got := md.Get(field); got != val {
			t.Errorf("%s = %q, want %q", field, got, val)
		}
	}
	if got := sink.Text(); got != "The storm strengthened overnight.\n" {
		t.Errorf("story text = %q", got)
	}
	kinds := sink.Kinds()
	wantKinds := []model.EventKind{
		model.DocumentStart,
		model.ParagraphStart, model.TextRun, model.ParagraphEnd,
		model.DocumentEnd,
	}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Errorf("event kinds = %v, want %v", kinds, wantKinds)
	}
}

func TestParseNormalizesCurlyQuotes(t *testing.T) {
	// Wire desks mix typewriter doubles, windows-1252 smart quotes and
	// the Unicode forms; all of them come out straight.
	body := "^Heading<\n" +
		"^\x93Quoted\x94 title<\n" +
		"The official said \x91\x92it``s done''.\n"
	data := buildWire("svc\x1fc\x13 subj 01-02 0304", body, "AP-WF 01-02-11 0900EST")

	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(data, &sink, md)
	if out.Status != model.Success {
		t.Fatalf("status = %v, want success", out.Status)
	}
	if got := md.Get(model.FieldTitle); got != `"Quoted" title` {
		t.Errorf("title = %q", got)
	}
	if got := md.Get("body"); got != "The official said ''it`s done'." {
		t.Errorf("body = %q", got)
	}
}

func TestParseReutersLayout(t *testing.T) {
	// Reuters omits the caret on markup lines and swaps the footer date
	// layout around.
	body := "Markets rally<\n" +
		"Shares close higher<\n" +
		"^By JOHN DOE<\n" +
		"Stocks rose on Monday.\n"
	data := buildWire("rtr\x1ff\x13 markets 03-04 0500", body,
		"reuters ny 16:40 03-04-11")

	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(data, &sink, md)
	if out.Status != model.Success {
		t.Fatalf("status = %v (reason %v), want success", out.Status, out.Reason)
	}
	if got := md.Get(model.FieldPublisher); got != "Reuters" {
		t.Errorf("publisher = %q", got)
	}
	if got := md.Get(model.FieldKeywords); got != "Markets rally" {
		t.Errorf("keywords = %q", got)
	}
	if got := md.Get(model.FieldTitle); got != "Shares close higher" {
		t.Errorf("title = %q", got)
	}
	if got := md.Get(model.FieldCreated); got != "2011-03-04T16:40:00Z" {
		t.Errorf("created = %q", got)
	}
}

func TestParseBloombergByline(t *testing.T) {
	body := "^Tech earnings<\n" +
		"\tChipmaker beats estimates<\n" +
		"^c.2011 Bloomberg News<\n" +
		"\t^   By Ann Lee<\n" +
		"Revenue climbed in the quarter.\n"
	data := buildWire("blm\x1ff\x13 tech 05-06 0700", body,
		"bloomberg news 05-06-11 1200EST")

	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(data, &sink, md)
	if out.Status != model.Success {
		t.Fatalf("status = %v (reason %v), want success", out.Status, out.Reason)
	}
	if got := md.Get(model.FieldTitle); got != "Chipmaker beats estimates" {
		t.Errorf("title = %q", got)
	}
	if got := md.Get(model.FieldCreator); got != "Ann Lee" {
		t.Errorf("creator = %q", got)
	}
}

func TestParseUnknownPublisherKeepsRawDate(t *testing.T) {
	body := "^Local news<\n^Town hall reopens<\nDoors open Monday.\n"
	data := buildWire("loc\x1fl\x13 town 07-08 0900", body,
		"wireco 07-08-11 0930EST")

	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(data, &sink, md)
	if out.Status != model.Partial {
		t.Fatalf("status = %v, want partial", out.Status)
	}
	if got := md.Get(model.FieldPublisher); got != "" {
		t.Errorf("publisher = %q, want unset", got)
	}
	if got := md.Get(model.FieldCreated); got != "" {
		t.Errorf("created = %q, want unset", got)
	}
	if got := md.Get("wire-datetime"); got != "07-08-11 0930EST" {
		t.Errorf("wire-datetime = %q", got)
	}
	found := false
	for _, d := range out.Diagnostics {
		if d.Code == "DateUnparsed" {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want a DateUnparsed entry", out.Diagnostics)
	}
}

func TestParseUnparseableDateNotReplaced(t *testing.T) {
	data := buildWire("svc\x1fc\x13 s 01-02 0304",
		"^H<\n^T<\nBody.\n", "AP-WF 99-99-99 9999XYZ")

	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(data, &sink, md)
	if out.Status != model.Partial {
		t.Fatalf("status = %v, want partial", out.Status)
	}
	if got := md.Get(model.FieldCreated); got != "" {
		t.Errorf("created = %q, want unset", got)
	}
	if got := md.Get("wire-datetime"); got != "99-99-99 9999XYZ" {
		t.Errorf("wire-datetime = %q", got)
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
	if md.Len() != 0 {
		t.Errorf("metadata has %d fields, want 0", md.Len())
	}
	if len(sink.Events) != 0 {
		t.Errorf("got %d events, want 0", len(sink.Events))
	}
}

func TestParseMissingStorySection(t *testing.T) {
	data := []byte{ctlSOH, 'h', 'd', 'r'}
	var sink model.Collector
	md := model.NewMetadata()
	out := Parse(data, &sink, md)
	if out.Status != model.Aborted {
		t.Fatalf("status = %v, want aborted", out.Status)
	}
}

func TestParseDeterministic(t *testing.T) {
	data := apWire()

	run := func() ([]model.Event, map[string][]string) {
		var sink model.Collector
		md := model.NewMetadata()
		Parse(data, &sink, md)
		fields := make(map[string][]string)
		for _, f := range md.Fields() {
			fields[f] = md.Values(f)
		}
		return sink.Events, fields
	}
	e1, m1 := run()
	e2, m2 := run()
	if !reflect.DeepEqual(e1, e2) || !reflect.DeepEqual(m1, m2) {
		t.Error("two runs over the same bytes disagree")
	}
}
