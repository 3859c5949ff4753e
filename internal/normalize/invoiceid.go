package normalize

import (
	"strconv"
	"strings"

	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

// HeaderColumns is the full invoice-header tuple that identifies one nota
// fiscal, even when its rows arrive split across source files.
var HeaderColumns = []string{
	"ano", "uf", "municipio", "fornecedor", "tipo", "n_doc", "emissao", "valor_nota_fiscal",
}

// AssignSurrogates maps every row to a zero-based surrogate integer, one per
// distinct header tuple, in first-seen row order. The ordering is only stable
// within a single run.
func AssignSurrogates(t *table.Table) []int {
	ids := make([]int, t.NumRows())
	index := make(map[string]int)
	for i := 0; i < t.NumRows(); i++ {
		key := headerKey(t, i)
		id, ok := index[key]
		if !ok {
			id = len(index)
			index[key] = id
		}
		ids[i] = id
	}
	return ids
}

// CompositeID builds the human-readable invoice identifier: document number,
// issue date with slashes removed, invoice total truncated to integer and the
// surrogate, joined with underscores.
func CompositeID(t *table.Table, i int, surrogate int) string {
	parts := []string{
		cellText(t.Get(i, "n_doc")),
		strings.ReplaceAll(cellText(t.Get(i, "emissao")), "/", ""),
		strconv.Itoa(int(t.GetFloat(i, "valor_nota_fiscal"))),
		strconv.Itoa(surrogate),
	}
	return strings.Join(parts, "_")
}

func headerKey(t *table.Table, i int) string {
	var b strings.Builder
	for _, col := range HeaderColumns {
		b.WriteString(cellKey(t.Get(i, col)))
		b.WriteByte('\x1f')
	}
	return b.String()
}

// cellKey renders a cell for tuple comparison; nil is distinct from "".
func cellKey(v table.Value) string {
	if v == nil {
		return "\x00"
	}
	return cellText(v)
}

func cellText(v table.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
