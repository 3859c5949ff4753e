// Package flatten turns directories of raw nota fiscal JSON dumps into one
// line-item table: one row per (invoice, item) pair.
package flatten

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

// Canonical columns registered on every per-file table so the stacked result
// carries them even when a dump omits some, null-filled.
var (
	headerColumns = []string{"ano", "uf", "municipio", "fornecedor", "tipo", "n_doc", "emissao", "valor_nota_fiscal"}
	itemColumns   = []string{"item", "un", "qt", "valor_unidade", "valor_unidade_total"}
)

// Directory recursively discovers every .json file under dir, flattens each one
// independently and concatenates the results with a relaxed schema union.
// A file that fails to parse or lacks the expected nested shape is logged and
// excluded wholesale; the run only fails when no file contributed any rows.
func Directory(ctx context.Context, dir string, workers int) (*table.Table, error) {
	log := logger.FromContext(ctx)

	paths, err := discover(dir)
	if err != nil {
		return nil, fmt.Errorf("flatten: discovering files in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("flatten: no .json files found under %s", dir)
	}

	if workers <= 0 {
		workers = 1
	}

	// Parse concurrently but merge in path order so output is deterministic.
	results := make([]*table.Table, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			tbl, err := File(path)
			if err != nil {
				log.Warn().Str("file", path).Err(err).Msg("skipping invalid source file")
				return nil
			}
			results[i] = tbl
			return nil
		})
	}
	_ = g.Wait()

	out := table.New()
	parsed := 0
	for _, tbl := range results {
		if tbl == nil {
			continue
		}
		parsed++
		out.Stack(tbl)
	}

	log.Info().
		Int("files", len(paths)).
		Int("parsed", parsed).
		Int("skipped", len(paths)-parsed).
		Int("rows", out.NumRows()).
		Msg("flattened source files")

	if out.NumRows() == 0 {
		return nil, fmt.Errorf("flatten: no valid invoice records found under %s", dir)
	}
	return out, nil
}

// File flattens a single JSON dump. The file must hold an object whose "dados"
// key is a list of invoice structs; anything else rejects the whole file.
func File(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	raw, ok := record["dados"]
	if !ok {
		return nil, fmt.Errorf("missing 'dados' column")
	}
	invoices, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'dados' is %T, want list of structs", raw)
	}

	tbl := table.New(headerColumns...)
	for _, c := range itemColumns {
		tbl.AddColumn(c)
	}

	for i, entry := range invoices {
		invoice, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("'dados' element %d is %T, want struct", i, entry)
		}

		header := headerRow(invoice)

		items, err := itemList(invoice)
		if err != nil {
			return nil, fmt.Errorf("invoice %d: %w", i, err)
		}

		// An invoice with no items still produces one row, item fields null.
		if len(items) == 0 {
			tbl.Append(copyRow(header), orderedKeys(header)...)
			continue
		}
		for _, item := range items {
			row := copyRow(header)
			for k, v := range item {
				row[renameItemField(k)] = cellValue(v)
			}
			tbl.Append(row, orderedKeys(row)...)
		}
	}

	return tbl, nil
}

func discover(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func headerRow(invoice map[string]any) map[string]table.Value {
	row := make(map[string]table.Value, len(invoice))
	for k, v := range invoice {
		if k == "itens" {
			continue
		}
		if k == "valor" {
			k = "valor_nota_fiscal"
		}
		row[k] = cellValue(v)
	}
	return row
}

func itemList(invoice map[string]any) ([]map[string]any, error) {
	raw, ok := invoice["itens"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'itens' is %T, want list of structs", raw)
	}
	items := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("'itens' element %d is %T, want struct", i, entry)
		}
		items = append(items, item)
	}
	return items, nil
}

func renameItemField(name string) string {
	switch name {
	case "valor_un":
		return "valor_unidade"
	case "valor":
		return "valor_unidade_total"
	}
	return name
}

func cellValue(v any) table.Value {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case float64:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

func copyRow(row map[string]table.Value) map[string]table.Value {
	out := make(map[string]table.Value, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// orderedKeys lists the row's keys with the canonical columns first, then any
// extras sorted, so column registration order never depends on map iteration.
func orderedKeys(row map[string]table.Value) []string {
	known := make(map[string]bool, len(headerColumns)+len(itemColumns))
	var keys []string
	for _, c := range append(append([]string{}, headerColumns...), itemColumns...) {
		known[c] = true
		if _, ok := row[c]; ok {
			keys = append(keys, c)
		}
	}
	var extras []string
	for k := range row {
		if !known[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(keys, extras...)
}
