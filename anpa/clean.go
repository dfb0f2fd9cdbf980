package anpa

import "strings"

// quoteCleaner normalizes the typographic quote variants wire feeds use
// to their ASCII equivalents. Teletype doubling (`` and '') and both the
// latin-1 control-range quotes and their Unicode punctuation forms are
// covered: the raw bytes 0x91..0x94 decode to U+0091..U+0094 under
// latin-1 and to U+2018..U+201D under Windows code pages.
var quoteCleaner = strings.NewReplacer(
	"``", "`",
	"''", "'",
	"", "'",
	"", "'",
	"‘", "'",
	"’", "'",
	"", `"`,
	"", `"`,
	"“", `"`,
	"”", `"`,
)

// clean applies quote normalization and trims surrounding whitespace.
// Every extracted field passes through here before it reaches metadata
// or the event stream.
func clean(s string) string {
	return strings.TrimSpace(quoteCleaner.Replace(s))
}
