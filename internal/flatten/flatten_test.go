package flatten

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pnae-dados/merenda-pipeline/internal/logger"
)

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

const validDump = `{
  "dados": [
    {
      "ano": "2023",
      "uf": "SP",
      "municipio": "Campinas",
      "fornecedor": "Fornecedor A",
      "tipo": "NFe",
      "n_doc": "123",
      "emissao": "01/02/2023",
      "valor": 150.5,
      "itens": [
        {"item": "ARROZ 5KG", "un": "CX", "qt": 3, "valor_un": 10.0, "valor": 30.0},
        {"item": "FEIJAO 1KG", "un": "PCT", "qt": 2, "valor_un": 5.0, "valor": 10.0}
      ]
    },
    {
      "ano": "2023",
      "uf": "SP",
      "municipio": "Campinas",
      "fornecedor": "Fornecedor B",
      "tipo": "NFe",
      "n_doc": "456",
      "emissao": "03/04/2023",
      "valor": 99.0
    }
  ]
}`

func TestFileFlattensItems(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dump.json", validDump)

	tbl, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	// Two items from the first invoice plus one row for the item-less invoice.
	if tbl.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", tbl.NumRows())
	}

	if got := tbl.GetString(0, "item"); got != "ARROZ 5KG" {
		t.Errorf("row 0 item = %q", got)
	}
	if got := tbl.GetFloat(0, "valor_nota_fiscal"); got != 150.5 {
		t.Errorf("invoice-level valor not renamed, got %v", got)
	}
	if got := tbl.GetFloat(0, "valor_unidade"); got != 10.0 {
		t.Errorf("valor_un not renamed, got %v", got)
	}
	if got := tbl.GetFloat(1, "valor_unidade_total"); got != 10.0 {
		t.Errorf("item-level valor not renamed, got %v", got)
	}
}

func TestFileKeepsInvoiceWithoutItems(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dump.json", validDump)

	tbl, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if got := tbl.GetString(2, "n_doc"); got != "456" {
		t.Fatalf("row 2 n_doc = %q, want 456", got)
	}
	if tbl.Get(2, "item") != nil {
		t.Errorf("item-less invoice should carry null item fields, got %v", tbl.Get(2, "item"))
	}
	if tbl.Get(2, "qt") != nil {
		t.Errorf("item-less invoice should carry null qt, got %v", tbl.Get(2, "qt"))
	}
}

func TestFileRejectsBadShapes(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"dados": [`},
		{"missing dados", `{"outra_coluna": []}`},
		{"dados not a list", `{"dados": "texto"}`},
		{"dados element not a struct", `{"dados": ["texto"]}`},
		{"itens not a list", `{"dados": [{"n_doc": "1", "itens": 5}]}`},
		{"itens element not a struct", `{"dados": [{"n_doc": "1", "itens": [1, 2]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "bad.json", tt.content)
			if _, err := File(path); err == nil {
				t.Error("expected whole-file rejection, got nil error")
			}
		})
	}
}

func TestDirectorySkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2023")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "ok.json", validDump)
	writeFile(t, dir, "broken.json", `not json at all`)
	writeFile(t, dir, "wrong_shape.json", `{"dados": 42}`)
	writeFile(t, dir, "ignored.txt", `ignored`)

	tbl, err := Directory(quietCtx(), dir, 4)
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("NumRows() = %d, want 3 (invalid files must contribute zero rows)", tbl.NumRows())
	}
}

func TestDirectoryFailsWhenNothingValid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{`)

	if _, err := Directory(quietCtx(), dir, 2); err == nil {
		t.Error("expected fatal error when no file yields rows")
	}
}

func TestDirectoryFailsOnEmptyDir(t *testing.T) {
	if _, err := Directory(quietCtx(), t.TempDir(), 2); err == nil {
		t.Error("expected error when directory has no json files")
	}
}
