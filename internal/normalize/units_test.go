package normalize

import "testing"

func TestStripUnitTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"box and kilogram", "3CX DE ARROZ 5KG", "DE ARROZ"},
		{"package", "BISCOITO PCT 400G", "BISCOITO"},
		{"plain description untouched", "FEIJAO CARIOCA", "FEIJAO CARIOCA"},
		{"tray variant", "OVOS BDJ 30", ""},
		{"misspelled tray", "BANDJA DE OVOS", "DE"},
		{"unit word inside other word kept", "UNIFORME ESCOLAR", "UNIFORME ESCOLAR"},
		{"dozen", "DZ BANANA PRATA", "BANANA PRATA"},
		{"digits and symbols stripped", "ACUCAR 1,5 KG - CRISTAL", "ACUCAR CRISTAL"},
		{"only units", "2 CX 10 KG", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripUnitTokens(tt.input); got != tt.want {
				t.Errorf("StripUnitTokens(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
