package structext

import (
	"fmt"
	"strings"

	"github.com/structext/structext/core"
)

// Warning describes a non-fatal issue found during parsing: a truncated
// record, a missing section, a date that would not parse. The result is
// still usable but may be incomplete.
type Warning struct {
	Message string
}

// FormatWarnings renders warnings as a single semicolon-separated line,
// convenient for logging.
//
// Example:
//
//	text, warnings, err := structext.From(data).Text()
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", structext.FormatWarnings(warnings))
//	}
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.Message
	}
	return strings.Join(parts, "; ")
}

// warningsFromDiagnostics converts driver diagnostics into API warnings.
func warningsFromDiagnostics(diags []core.Diagnostic) []Warning {
	if len(diags) == 0 {
		return nil
	}
	warnings := make([]Warning, len(diags))
	for i, d := range diags {
		warnings[i] = Warning{
			Message: fmt.Sprintf("%s at offset %d: %s", d.Code, d.Offset, d.Message),
		}
	}
	return warnings
}
