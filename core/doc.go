// Package core provides the low-level byte-walking primitives shared by
// every format driver: a bounded seekable cursor, a tagged-record scanner
// for chunk-oriented binary containers, and a control-byte section
// extractor for delimited wire formats.
//
// All primitives follow the same recovery policy: a short or inconsistent
// read is reported through the error taxonomy in errors.go (or flagged on
// the produced record) and never panics, so drivers can keep walking a
// damaged stream and deliver whatever was recoverable.
package core
