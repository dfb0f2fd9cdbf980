package hwp

import (
	"strings"
	"unicode/utf16"
)

// Record tags of the body-text stream. Tags count up from a fixed base;
// only the paragraph text records carry content the walk cares about.
const (
	tagBase      = 0x10
	tagParaHead  = tagBase + 50
	tagParaText  = tagBase + 51
	tagCtrlData  = tagBase + 55
	tagShapePict = tagBase + 76
)

// Control code points below 0x20 in paragraph text. Inline and extended
// controls are followed by seven code units of payload that must be
// skipped; bare controls stand alone and read as whitespace.
const controlPayload = 7

var (
	inlineControls = map[uint16]bool{
		4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 19: true, 20: true,
	}
	extendedControls = map[uint16]bool{
		1: true, 2: true, 3: true, 11: true, 12: true, 14: true, 15: true,
		16: true, 17: true, 18: true, 21: true, 22: true, 23: true,
	}
)

// decodeParaText converts one paragraph-text payload to a string. The
// payload is UTF-16LE; code units below 0x20 are layout controls, not
// characters, and the inline/extended ones bury seven units of binary
// parameters in the text that must not leak into the output.
func decodeParaText(payload []byte) string {
	units := make([]uint16, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		units = append(units, uint16(payload[i])|uint16(payload[i+1])<<8)
	}

	var sb strings.Builder
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0x20 {
			sb.WriteString(string(utf16.Decode(collectRun(units, &i))))
			continue
		}
		switch {
		case inlineControls[u]:
			if u == 9 {
				sb.WriteByte('\t')
			}
			i += controlPayload
		case extendedControls[u]:
			i += controlPayload
		default:
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// collectRun gathers the maximal run of printable code units starting at
// *i and leaves *i on the last unit of the run, so surrogate pairs are
// decoded together instead of unit by unit.
func collectRun(units []uint16, i *int) []uint16 {
	start := *i
	end := start
	for end < len(units) && units[end] >= 0x20 {
		end++
	}
	*i = end - 1
	return units[start:end]
}
