package normalize

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"uppercase and trim", "  arroz branco ", "ARROZ BRANCO"},
		{"strip asterisks", "*FEIJAO* PRETO", "FEIJAO PRETO"},
		{"strip periods", "S.A. Comercio", "SA COMERCIO"},
		{"collapse whitespace", "ACUCAR   CRISTAL\t1KG", "ACUCAR CRISTAL 1KG"},
		{"strip accents", "açúcar São João", "ACUCAR SAO JOAO"},
		{"cedilla and tilde", "FEIJÃO MAÇÃ", "FEIJAO MACA"},
		{"already clean", "DE ARROZ", "DE ARROZ"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	inputs := []string{"açúcar *cristal* 1.5kg", "FORNECEDOR LTDA.", "  x  y  "}
	for _, in := range inputs {
		once := CleanText(in)
		if twice := CleanText(once); twice != once {
			t.Errorf("CleanText not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"float passes through", 12.5, 12.5},
		{"numeric string", "42.5", 42.5},
		{"padded numeric string", " 7 ", 7},
		{"unparseable text becomes zero", "N/A", 0},
		{"comma decimal fails to zero", "1,5", 0},
		{"nil becomes zero", nil, 0},
		{"empty string becomes zero", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceFloat(tt.input); got != tt.want {
				t.Errorf("CoerceFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
