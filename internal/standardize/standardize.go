package standardize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pnae-dados/merenda-pipeline/internal/extract"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

// canonical maps every unit synonym and abbreviation the extractor may emit to
// its canonical code. Keys are the cleaned uppercase spellings seen in the
// dumps, values the codes that downstream aggregation groups by.
var canonical = map[string]string{
	// kilogram
	"KG": "KG", "KGS": "KG", "KILO": "KG", "KILOS": "KG", "QUILO": "KG",
	"QUILOS": "KG", "KILOGRAMA": "KG", "KILOGRAMAS": "KG", "QUILOGRAMA": "KG",
	"QUILOGRAMAS": "KG", "KGM": "KG", "KGR": "KG",
	// gram
	"G": "G", "GR": "G", "GM": "G", "GRAMA": "G", "GRAMAS": "G",
	// ton
	"TON": "TON", "TN": "TON", "TONELADA": "TON", "TONELADAS": "TON",
	// liter
	"L": "L", "LT": "L", "LTS": "L", "LTR": "L", "LITRO": "L", "LITROS": "L",
	// milliliter
	"ML": "ML", "MILILITRO": "ML", "MILILITROS": "ML",
	// box
	"CX": "CX", "CXS": "CX", "CXA": "CX", "CAIXA": "CX", "CAIXAS": "CX",
	// unit
	"UN": "UN", "UND": "UN", "UNI": "UN", "UNID": "UN", "UNIDADE": "UN",
	"UNIDADES": "UN", "UNIT": "UN", "UNS": "UN", "U": "UN",
	// dozen
	"DZ": "DZ", "DUZIA": "DZ", "DUZIAS": "DZ", "DOZ": "DZ", "DZN": "DZ",
	// tray
	"BDJ": "BDJ", "BANDEJA": "BDJ", "BANDEJAS": "BDJ", "BAND": "BDJ",
	// package
	"PCT": "PCT", "PC": "PCT", "PACOTE": "PCT", "PACOTES": "PCT", "PKG": "PCT",
	// card
	"CART": "CART", "CARTELA": "CART", "CARTELAS": "CART", "CRT": "CART",
	// bundle
	"FD": "FD", "FARDO": "FD", "FARDOS": "FD",
	// can
	"LATA": "LATA", "LATAS": "LATA",
	// bunch
	"MACO": "MACO", "MACOS": "MACO",
	// set
	"KIT": "KIT", "JOGO": "KIT", "CONJUNTO": "KIT", "CJ": "KIT",
	// comb (eggs)
	"PENTE": "PENTE", "PENTES": "PENTE", "PNT": "PENTE",
	// roll
	"RL": "RL", "ROLO": "RL", "ROLOS": "RL",
	// pot
	"PT": "PT", "POTE": "PT", "POTES": "PT",
	// sack
	"SC": "SC", "SACO": "SC", "SACOS": "SC",
}

// CanonicalUnit maps a raw unit spelling to its canonical code. Unknown
// spellings pass through trimmed and uppercased, so unmapped values stay
// visible in the output instead of collapsing into a default.
func CanonicalUnit(unit string) string {
	u := strings.ToUpper(strings.TrimSpace(unit))
	if u == "" || strings.EqualFold(u, extract.UnknownUnit) {
		return extract.UnknownUnit
	}
	if c, ok := canonical[u]; ok {
		return c
	}
	return u
}

// Apply adds the unidade_padrao column derived from unidade_item. The
// sentinel for unresolved extractions passes through untouched.
func Apply(ctx context.Context, t *table.Table) error {
	if !t.HasColumn("unidade_item") {
		return fmt.Errorf("table has no unidade_item column")
	}

	t.AddColumn("unidade_padrao")
	mapped := 0
	for i := 0; i < t.NumRows(); i++ {
		raw := t.GetString(i, "unidade_item")
		std := CanonicalUnit(raw)
		if std != raw {
			mapped++
		}
		t.Set(i, "unidade_padrao", std)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", t.NumRows()).
		Int("remapped", mapped).
		Msg("standardized unit codes")
	return nil
}
