package format

import (
	"bytes"
	"testing"
)

func TestFamily_String(t *testing.T) {
	tests := []struct {
		family Family
		want   string
	}{
		{DWG, "DWG"},
		{ANPA, "ANPA"},
		{HWP, "HWP"},
		{MIF, "MIF"},
		{RTF, "RTF"},
		{WordML, "WordML"},
		{Unknown, "Unknown"},
		{Family(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.family.String(); got != tt.want {
			t.Errorf("Family(%d).String() = %q, want %q", tt.family, got, tt.want)
		}
	}
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name        string
		prefix      []byte
		wantFamily  Family
		wantVersion string
	}{
		{"dwg 2000", []byte("AC1015" + "rest of header"), DWG, "AC1015"},
		{"dwg 2004", []byte("AC1018xxxx"), DWG, "AC1018"},
		{"dwg 2007", []byte("AC1021xxxx"), DWG, "AC1021"},
		{"dwg 2010", []byte("AC1024xxxx"), DWG, "AC1024"},
		{"dwg 2013", []byte("AC1027xxxx"), DWG, "AC1027"},
		{"cfb container", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0}, HWP, ""},
		{"mif", []byte("<MIFFile 7.00>"), MIF, ""},
		{"rtf", []byte(`{\rtf1\ansi hello}`), RTF, ""},
		{"wire with syn", []byte{0x16, 0x16, 0x01, 'h', 'd', 'r'}, ANPA, ""},
		{"wire bare soh", []byte{0x01, 'h', 'd', 'r', 0x02}, ANPA, ""},
		{"wordml", []byte(`<?xml version="1.0"?><w:wordDocument xmlns:w="...">`), WordML, ""},
		{"empty", nil, Unknown, ""},
		{"plain text", []byte("just some text"), Unknown, ""},
		{"unknown dwg version", []byte("AC1032xxxx"), Unknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identify(tt.prefix)
			if got.Family != tt.wantFamily {
				t.Errorf("Identify() family = %v, want %v", got.Family, tt.wantFamily)
			}
			if got.Version != tt.wantVersion {
				t.Errorf("Identify() version = %q, want %q", got.Version, tt.wantVersion)
			}
		})
	}
}

func TestIdentify_Deterministic(t *testing.T) {
	prefix := []byte{0x16, 0x16, 0x01, 'a', 'b'}
	first := Identify(prefix)
	for i := 0; i < 10; i++ {
		if got := Identify(prefix); got.Family != first.Family {
			t.Fatalf("Identify() not deterministic: %v then %v", first.Family, got.Family)
		}
	}
}

func TestIdentify_DoesNotMutate(t *testing.T) {
	prefix := []byte("AC1015 drawing header")
	saved := append([]byte(nil), prefix...)
	Identify(prefix)
	if !bytes.Equal(prefix, saved) {
		t.Error("Identify mutated its input")
	}
}

func TestIdentify_LongestMatchWins(t *testing.T) {
	// SYN SYN SOH matches both the 3-byte wire signature and, without the
	// longest-match rule, nothing shorter; the bare-SOH entry must not
	// shadow it and both must agree anyway.
	got := Identify([]byte{0x16, 0x16, 0x01})
	if got.Family != ANPA {
		t.Fatalf("family = %v", got.Family)
	}
	if len(got.Signature) != 3 {
		t.Errorf("matched signature %v, want the 3-byte form", got.Signature)
	}
}
