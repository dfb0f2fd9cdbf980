// Package format provides file format identification from a leading byte
// signature, without full parsing.
package format

import "bytes"

// Family represents a supported format family. Each family has exactly
// one structural driver.
type Family int

const (
	// Unknown indicates an unrecognized format.
	Unknown Family = iota
	// DWG indicates an AutoCAD drawing.
	DWG
	// ANPA indicates an IPTC ANPA-1312 news wire feed.
	ANPA
	// HWP indicates a Hangul Word Processor v5 compound document.
	HWP
	// MIF indicates a FrameMaker Maker Interchange Format document.
	MIF
	// RTF indicates a Rich Text Format document.
	RTF
	// WordML indicates a Word 2003 XML document.
	WordML
)

// String returns the string representation of the family.
func (f Family) String() string {
	switch f {
	case DWG:
		return "DWG"
	case ANPA:
		return "ANPA"
	case HWP:
		return "HWP"
	case MIF:
		return "MIF"
	case RTF:
		return "RTF"
	case WordML:
		return "WordML"
	default:
		return "Unknown"
	}
}

// MediaType returns the canonical media type for the family.
func (f Family) MediaType() string {
	switch f {
	case DWG:
		return "image/vnd.dwg"
	case ANPA:
		return "text/vnd.iptc.anpa"
	case HWP:
		return "application/x-hwp-v5"
	case MIF:
		return "application/vnd.mif"
	case RTF:
		return "application/rtf"
	case WordML:
		return "application/vnd.ms-wordml"
	default:
		return ""
	}
}

// Descriptor identifies a format family plus the version resolved from
// its signature. It is immutable; the per-version field layouts hang off
// it through the fieldmap package.
type Descriptor struct {
	Family    Family
	Version   string // version tag, e.g. "AC1015"; empty when the family has none
	Signature []byte // the matched signature bytes
}

// Known returns true for any descriptor other than Unknown.
func (d Descriptor) Known() bool { return d.Family != Unknown }

// SignatureWindow is the number of leading bytes Identify may inspect.
// Callers need to supply no more than this.
const SignatureWindow = 512

// signature is one entry of the static detection table, loaded once and
// read-only thereafter.
type signature struct {
	prefix   []byte
	family   Family
	version  string
	priority int // tie-break after longest-match
}

var signatures = []signature{
	{[]byte("AC1015"), DWG, "AC1015", 0},
	{[]byte("AC1018"), DWG, "AC1018", 0},
	{[]byte("AC1021"), DWG, "AC1021", 0},
	{[]byte("AC1024"), DWG, "AC1024", 0},
	{[]byte("AC1027"), DWG, "AC1027", 0},
	{[]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, HWP, "", 0},
	{[]byte("<MIFFile"), MIF, "", 0},
	{[]byte(`{\rtf`), RTF, "", 0},
	// Wire feeds open with SYN SYN SOH, or SOH directly when the idle
	// residue was stripped upstream.
	{[]byte{0x16, 0x16, 0x01}, ANPA, "", 1},
	{[]byte{0x01}, ANPA, "", 2},
}

// Identify inspects the leading signature window and returns the matching
// descriptor, or a zero Unknown descriptor. It is a pure function of the
// prefix: deterministic, no mutation, and it never consumes more than the
// window. Collisions between formats sharing a signature prefix resolve
// longest-match-wins, then by declared priority order (lower wins).
func Identify(prefix []byte) Descriptor {
	if len(prefix) > SignatureWindow {
		prefix = prefix[:SignatureWindow]
	}

	best := Descriptor{}
	bestLen, bestPriority := 0, 0
	for _, sig := range signatures {
		if !bytes.HasPrefix(prefix, sig.prefix) {
			continue
		}
		if len(sig.prefix) > bestLen ||
			(len(sig.prefix) == bestLen && best.Known() && sig.priority < bestPriority) {
			best = Descriptor{Family: sig.family, Version: sig.version, Signature: sig.prefix}
			bestLen = len(sig.prefix)
			bestPriority = sig.priority
		}
	}
	if best.Known() {
		return best
	}

	// WordML carries an XML declaration before its signature element, so
	// a plain prefix match cannot find it inside the window.
	if bytes.HasPrefix(bytes.TrimLeft(prefix, " \t\r\n"), []byte("<?xml")) &&
		bytes.Contains(prefix, []byte("<w:wordDocument")) {
		return Descriptor{Family: WordML, Signature: []byte("<w:wordDocument")}
	}

	return Descriptor{}
}
