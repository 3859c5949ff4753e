package normalize

import (
	"regexp"
	"strings"
)

// unitVariants is the curated vocabulary of unit-of-measure abbreviations and
// misspellings found in the nota fiscal dumps, stripped from item descriptions
// to produce the deduplication token. Grouped by the unit they denote.
var unitVariants = []string{
	// kilogram
	"KG", "KGS", "KGI", "KILOGRAMA", "KILOGRAMAS", "KILO", "KILOS", "KGM",
	"KF", "KU", "KGR", "KGB", "KG2", "KG25", "KGL", "QUILO", "QUILOS",
	"QUILOGRAMA", "QUILOGRAMAS",
	// gram
	"GRAMA", "GRAMAS", "G", "GM", "GMS", "500G", "400G", "125G",
	// ton
	"TON", "TONELADA", "TONELADAS", "TN", "TNS", "TONS",
	// liter
	"LITRO", "LITROS", "LTR", "LT", "LTS", "L", "LT84G", "LT420G", "LT125",
	// milliliter
	"ML", "MILILITRO", "MILILITROS",
	// box
	"CX", "CAIXA", "CAIXAS", "CXS", "CXA", "CX12", "CX18", "CX20", "CX30",
	"CX50", "CX60", "CX6UND", "CX60UND", "CXA1", "CXA3", "CTE", "CXKG",
	// unit
	"UN", "UND", "UNIT", "UNID", "UNIDADE", "UNIDADES", "UNS", "UNI", "UID",
	"UND1", "UND12", "UNITAR", "UN0030", "UN1", "U", "30UND", "6UND",
	"1000UN", "30UN",
	// dozen
	"DZ", "DUZIA", "DUZIAS", "DOZ", "DZS", "DZN", "DZ12", "DZA", "DUZ",
	// tray
	"BDJ", "BJD", "BANDEJ", "BANDEJA", "BANDEJAS", "BAN", "BAND", "BNDJ",
	"BJ", "BD30", "BJA", "BAD", "BADJ", "BANDJA", "BNDJA", "BDJAS", "BJ1",
	"BANJ", "BANDE", "BANEJ", "BD30U", "BANDEI",
	// package
	"PACOTE", "PACOTES", "PCT", "PCTS", "PKG", "PACTE", "PCT5", "PCT50",
	"PCT100", "PC0001", "PKT", "PC",
	// card
	"CART", "CAR", "CARTEL", "CARTELA", "CARTELAS", "CA", "CARTS", "CT",
	"CARTONADO", "CRT", "CARTON", "CT30", "CTLA", "TL", "CRTELA", "CATELA",
	"CLT",
	// bundle
	"FD", "FARDO", "FARDOS", "FD20",
	// plate
	"PL", "PLACA", "PLACAS",
	// meal allowance
	"ALIM", "ALIMENTACAO", "ALIMENTACOES",
	// catch-all
	"OUTROS", "OUT", "OTHER",
	// can
	"LATA", "LATAS", "LAT125", "LATA1", "LT0001",
	// mold
	"FRD", "FORMA", "FORMAS", "FRM",
	// bunch
	"MACO", "MACOS", "MAC",
	// set
	"KIT", "JOGO", "CONJUNTO", "CJ",
	// comb (eggs)
	"PENTE", "PENTES", "PN", "PNT", "PEN", "PET", "PENT",
	// honeycomb
	"FAVO", "FAVOS",
	// board
	"TABELA", "TBL", "TB",
	// roll
	"RL", "ROL", "ROLO", "ROLOS",
	// tub
	"CUBA", "CUBAS",
	// packaging
	"EMBAL", "EMB", "EMBL",
	// carat / quantity shorthand
	"QT", "QUILATE", "QUILATES", "QL", "QUILAT",
	// egg
	"OVO", "OVOS",
	// device
	"DISP", "DISPOSITIVO",
	// control
	"CRTL", "CONTROLE", "CR",
	// pot
	"PT", "POTE",
	// sack
	"SC", "SACO", "SACOS",
	// dispenser
	"DP", "DISPENSADOR",
	// kilometer
	"KM", "KILOMETRO", "KILOMETROS", "QUILOMETRO", "QUILOMETROS",
}

var (
	reNonUpper  = regexp.MustCompile(`[^A-Z\s]`)
	reDigits    = regexp.MustCompile(`\d+`)
	reUnitToken = regexp.MustCompile(`(?i)\b(` + strings.Join(unitVariants, "|") + `)\b`)
)

// StripUnitTokens derives the unit-free canonical description token: drop
// everything that is not an uppercase letter or whitespace, drop unit
// vocabulary tokens, drop digits, collapse and trim.
func StripUnitTokens(item string) string {
	s := reNonUpper.ReplaceAllString(item, "")
	s = reUnitToken.ReplaceAllString(s, "")
	s = reDigits.ReplaceAllString(s, "")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
