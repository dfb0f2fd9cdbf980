package model

import "github.com/structext/structext/core"

// Status reports how far a parse got.
type Status int

const (
	// Success: the whole document was walked.
	Success Status = iota
	// Partial: the walk finished but some records or sections were
	// skipped or truncated; see Diagnostics.
	Partial
	// Aborted: the walk stopped early (unreadable header, unsupported
	// version, unsupported encryption). Events and metadata recovered
	// before the failure point are still delivered.
	Aborted
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Partial:
		return "partial"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is what every driver returns. Parse never throws for
// malformed-but-partially-readable input: problems are carried here.
type Outcome struct {
	Status Status
	// Reason explains a Partial or Aborted status; nil on Success.
	Reason error
	// Diagnostics lists the non-fatal problems recovered from, in
	// document order.
	Diagnostics []core.Diagnostic
}

// Succeeded returns an Outcome with Success status.
func Succeeded() Outcome { return Outcome{Status: Success} }

// PartialOutcome returns a Partial outcome with the given reason and
// diagnostics.
func PartialOutcome(reason error, diags []core.Diagnostic) Outcome {
	return Outcome{Status: Partial, Reason: reason, Diagnostics: diags}
}

// AbortedOutcome returns an Aborted outcome with the given reason.
func AbortedOutcome(reason error, diags []core.Diagnostic) Outcome {
	return Outcome{Status: Aborted, Reason: reason, Diagnostics: diags}
}
