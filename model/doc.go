// Package model defines the normalized output of a parse: the structural
// event stream, the ordered multi-valued metadata record, the event sink
// capability, and the parse outcome drivers report.
//
// Everything here is created at parse start and discarded at parse end;
// nothing outlives a single parse invocation.
package model
