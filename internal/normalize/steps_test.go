package normalize

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/pnae-dados/merenda-pipeline/internal/extract"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

type fakeExtractor struct {
	answers map[string]extract.UnitExtraction
	failOn  map[string]bool
	calls   int
}

func (f *fakeExtractor) ExtractUnit(ctx context.Context, description string) (extract.UnitExtraction, error) {
	f.calls++
	if f.failOn[description] {
		return extract.UnitExtraction{}, errors.New("client-side error")
	}
	if e, ok := f.answers[description]; ok {
		return e, nil
	}
	return extract.Placeholder(), nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard))
}

// makeFlatTable builds a fresh copy of the flattened fixture: two items of one
// invoice plus one item of another, with raw uncleaned text and a broken total.
func makeFlatTable() *table.Table {
	tbl := table.New("ano", "uf", "municipio", "fornecedor", "tipo", "n_doc", "emissao",
		"valor_nota_fiscal", "item", "un", "qt", "valor_unidade", "valor_unidade_total")
	tbl.Append(map[string]table.Value{
		"ano": "2023", "uf": "sp", "municipio": "são paulo", "fornecedor": "fornecedor a.",
		"tipo": "nfe", "n_doc": "123", "emissao": "01/02/2023", "valor_nota_fiscal": 150.5,
		"item": "3cx de arroz 5kg", "un": "cx", "qt": "3", "valor_unidade": 10.0, "valor_unidade_total": 30.0,
	})
	tbl.Append(map[string]table.Value{
		"ano": "2023", "uf": "sp", "municipio": "são paulo", "fornecedor": "fornecedor a.",
		"tipo": "nfe", "n_doc": "123", "emissao": "01/02/2023", "valor_nota_fiscal": 150.5,
		"item": "produto falho", "un": "un", "qt": 1.0, "valor_unidade": 5.0, "valor_unidade_total": 5.0,
	})
	tbl.Append(map[string]table.Value{
		"ano": "2023", "uf": "mg", "municipio": "belo horizonte", "fornecedor": "fornecedor b",
		"tipo": "nfe", "n_doc": "456", "emissao": "03/04/2023", "valor_nota_fiscal": "N/A",
		"item": "feijão carioca", "un": "kg", "qt": 2.0, "valor_unidade": 8.0, "valor_unidade_total": 16.0,
	})
	return tbl
}

func runPipeline(t *testing.T, tbl *table.Table, cache *extract.Cache, ex extract.Extractor) *State {
	t.Helper()
	state := &State{Table: tbl, Cache: cache, Extractor: ex, Workers: 2, DailyLimit: 100}
	if err := NewCleaningPipeline().Execute(quietCtx(), state); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return state
}

func TestCleaningPipeline(t *testing.T) {
	cache := extract.NewMemoryCache()
	cache.Put("3CX DE ARROZ 5KG", extract.UnitExtraction{Unit: strPtr("KG"), Quantity: floatPtr(15.0), Confidence: 0.9})

	ex := &fakeExtractor{
		answers: map[string]extract.UnitExtraction{
			"FEIJAO CARIOCA": {Unit: strPtr("KG"), Quantity: floatPtr(2.0), Confidence: 0.8},
		},
		failOn: map[string]bool{"PRODUTO FALHO": true},
	}

	tbl := makeFlatTable()
	runPipeline(t, tbl, cache, ex)

	if tbl.NumRows() != 3 {
		t.Fatalf("no row may be dropped during normalization, NumRows() = %d", tbl.NumRows())
	}

	// Text cleanup applies to all text columns.
	if got := tbl.GetString(0, "municipio"); got != "SAO PAULO" {
		t.Errorf("municipio = %q", got)
	}
	if got := tbl.GetString(0, "fornecedor"); got != "FORNECEDOR A" {
		t.Errorf("fornecedor = %q", got)
	}

	// Numeric coercion: "N/A" becomes 0.0, numeric strings parse, floats stay.
	if got := tbl.GetFloat(2, "valor_nota_fiscal"); got != 0.0 {
		t.Errorf("coerced valor_nota_fiscal = %v, want 0.0", got)
	}
	if got := tbl.GetFloat(0, "qt"); got != 3.0 {
		t.Errorf("coerced qt = %v, want 3.0", got)
	}

	// Unit stripping.
	if got := tbl.GetString(0, "item_deduplicado"); got != "DE ARROZ" {
		t.Errorf("item_deduplicado = %q, want %q", got, "DE ARROZ")
	}

	// Cached entry short-circuits the extractor and fans out to the row.
	if got := tbl.GetString(0, "unidade_item"); got != "KG" {
		t.Errorf("unidade_item = %q, want KG", got)
	}
	if got := tbl.GetFloat(0, "quantidade_item"); got != 15.0 {
		t.Errorf("quantidade_item = %v, want 15.0", got)
	}
	if got := tbl.GetFloat(0, "confident"); got != 0.9 {
		t.Errorf("confident = %v, want 0.9", got)
	}

	// Failed extraction degrades to the unknown placeholder.
	if got := tbl.GetString(1, "unidade_item"); got != extract.UnknownUnit {
		t.Errorf("failed row unidade_item = %q, want %q", got, extract.UnknownUnit)
	}
	if tbl.Get(1, "quantidade_item") != nil {
		t.Errorf("failed row quantidade_item = %v, want nil", tbl.Get(1, "quantidade_item"))
	}
	if got := tbl.GetFloat(1, "confident"); got != 0.0 {
		t.Errorf("failed row confident = %v, want 0.0", got)
	}

	// Composite IDs: same invoice shares one, other invoice differs.
	id0 := tbl.GetString(0, "id_nota_fiscal")
	id1 := tbl.GetString(1, "id_nota_fiscal")
	id2 := tbl.GetString(2, "id_nota_fiscal")
	if id0 != id1 {
		t.Errorf("rows of one invoice got different IDs: %q vs %q", id0, id1)
	}
	if id0 == id2 {
		t.Errorf("distinct invoices share an ID: %q", id0)
	}
	if id0 != "123_01022023_150_0" {
		t.Errorf("id_nota_fiscal = %q, want 123_01022023_150_0", id0)
	}

	// The cached description was never re-sent to the extractor.
	if ex.calls != 2 {
		t.Errorf("extractor calls = %d, want 2 (one per uncached description)", ex.calls)
	}
}

func TestCleaningPipelineIdempotent(t *testing.T) {
	cache := extract.NewMemoryCache()
	ex := &fakeExtractor{
		answers: map[string]extract.UnitExtraction{
			"3CX DE ARROZ 5KG": {Unit: strPtr("KG"), Quantity: floatPtr(15.0), Confidence: 0.9},
			"FEIJAO CARIOCA":   {Unit: strPtr("KG"), Quantity: floatPtr(2.0), Confidence: 0.8},
		},
		failOn: map[string]bool{"PRODUTO FALHO": true},
	}

	first := makeFlatTable()
	runPipeline(t, first, cache, ex)
	callsAfterFirst := ex.calls

	// Same input, now-warm cache: output must be identical and the external
	// collaborator must not be called again.
	second := makeFlatTable()
	runPipeline(t, second, cache, ex)

	if ex.calls != callsAfterFirst {
		t.Errorf("warm-cache run dispatched %d extra calls", ex.calls-callsAfterFirst)
	}

	if len(first.Columns()) != len(second.Columns()) {
		t.Fatalf("column sets differ: %v vs %v", first.Columns(), second.Columns())
	}
	for _, col := range first.Columns() {
		for i := 0; i < first.NumRows(); i++ {
			if first.Get(i, col) != second.Get(i, col) {
				t.Errorf("row %d col %s differs: %v vs %v", i, col, first.Get(i, col), second.Get(i, col))
			}
		}
	}
}

func TestCleaningPipelineDeferredBeyondCeiling(t *testing.T) {
	cache := extract.NewMemoryCache()
	ex := &fakeExtractor{answers: map[string]extract.UnitExtraction{
		"3CX DE ARROZ 5KG": {Unit: strPtr("KG"), Quantity: floatPtr(15.0), Confidence: 0.9},
	}}

	tbl := makeFlatTable()
	state := &State{Table: tbl, Cache: cache, Extractor: ex, Workers: 2, DailyLimit: 1}
	if err := NewCleaningPipeline().Execute(quietCtx(), state); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if ex.calls != 1 {
		t.Errorf("extractor calls = %d, want 1 (daily ceiling)", ex.calls)
	}

	// Deferred descriptions read as unresolved, not dropped.
	if got := tbl.GetString(2, "unidade_item"); got != extract.UnknownUnit {
		t.Errorf("deferred row unidade_item = %q, want %q", got, extract.UnknownUnit)
	}
	if cache.Has("FEIJAO CARIOCA") {
		t.Error("deferred description must stay out of the cache")
	}
}
