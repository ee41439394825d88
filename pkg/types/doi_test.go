// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare DOI", "10.1109/ABC", "10.1109/ABC"},
		{"doi prefix", "doi:10.1109/ABC?x=1", "10.1109/ABC"},
		{"DOI prefix", "DOI:10.1109/ABC", "10.1109/ABC"},
		{"https resolver", "https://doi.org/10.1109/ABC", "10.1109/ABC"},
		{"http resolver", "http://doi.org/10.1109/ABC", "10.1109/ABC"},
		{"bare resolver", "doi.org/10.1109/ABC", "10.1109/ABC"},
		{"trailing whitespace", "10.1109/ABC ", "10.1109/ABC"},
		{"leading whitespace", "  10.1109/ABC", "10.1109/ABC"},
		{"fragment trimmed", "10.1109/ABC#section", "10.1109/ABC"},
		{"query trimmed", "10.1145/3292500.3330701?download=true", "10.1145/3292500.3330701"},
		{"case preserved", "10.1002/JoB.123", "10.1002/JoB.123"},
		{"not a DOI", "arXiv:2301.07041", ""},
		{"missing suffix", "10.", ""},
		{"empty", "", ""},
		{"only prefix", "doi:", ""},
		{"internal whitespace rejected", "10.1109/AB C", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.input); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDOIIdempotent(t *testing.T) {
	inputs := []string{
		"doi:10.1109/ABC?x=1",
		"https://doi.org/10.1109/TEST",
		"10.1145/1234567.1234568 ",
	}
	for _, in := range inputs {
		once := NormalizeDOI(in)
		if once == "" {
			t.Fatalf("NormalizeDOI(%q) unexpectedly empty", in)
		}
		if twice := NormalizeDOI(once); twice != once {
			t.Errorf("NormalizeDOI not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestSanitizeDOI(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.1109/TEST", "10.1109_TEST"},
		{"10.1145/3292500.3330701", "10.1145_3292500.3330701"},
		{"10.1002/(sici)1097", "10.1002__sici_1097"},
		{"10.1/x", "10.1_x"},
		{"10.1007/978-3-030-58452-8_1", "10.1007_978-3-030-58452-8_1"},
	}
	for _, tt := range tests {
		if got := SanitizeDOI(tt.input); got != tt.want {
			t.Errorf("SanitizeDOI(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestModeTopN(t *testing.T) {
	if got := ModeQuick.TopN(); got != 15 {
		t.Errorf("quick TopN = %d, want 15", got)
	}
	if got := ModeStandard.TopN(); got != 25 {
		t.Errorf("standard TopN = %d, want 25", got)
	}
	if got := ModeDeep.TopN(); got != 50 {
		t.Errorf("deep TopN = %d, want 50", got)
	}
}
