package bq

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

// NotaRow is one standardized line item as it lands in BigQuery.
type NotaRow struct {
	IDNotaFiscal string `bigquery:"id_nota_fiscal"` // REQUIRED

	Ano        string `bigquery:"ano"`        // NULLABLE
	UF         string `bigquery:"uf"`         // NULLABLE
	Municipio  string `bigquery:"municipio"`  // NULLABLE
	Fornecedor string `bigquery:"fornecedor"` // NULLABLE
	Tipo       string `bigquery:"tipo"`       // NULLABLE
	NDoc       string `bigquery:"n_doc"`      // NULLABLE
	Emissao    string `bigquery:"emissao"`    // NULLABLE

	ValorNotaFiscal   float64 `bigquery:"valor_nota_fiscal"`
	Item              string  `bigquery:"item"`
	ItemDeduplicado   string  `bigquery:"item_deduplicado"`
	Un                string  `bigquery:"un"`
	Qt                float64 `bigquery:"qt"`
	ValorUnidade      float64 `bigquery:"valor_unidade"`
	ValorUnidadeTotal float64 `bigquery:"valor_unidade_total"`

	UnidadeItem    string               `bigquery:"unidade_item"`
	QuantidadeItem bigquery.NullFloat64 `bigquery:"quantidade_item"` // FLOAT, NULLABLE
	Confident      float64              `bigquery:"confident"`
	UnidadePadrao  string               `bigquery:"unidade_padrao"`

	ExportID string    `bigquery:"export_id"` // one UUID per export run
	ExportTS time.Time `bigquery:"export_ts"` // TIMESTAMP
}

// ExportTable streams the standardized table into projectID.datasetID.tableID.
func ExportTable(ctx context.Context, projectID, datasetID, tableID string, t *table.Table) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("ExportTable: creating client: %w", err)
	}
	defer client.Close()

	return ExportTableWithClient(ctx, client, datasetID, tableID, t)
}

// ExportTableWithClient streams the standardized table using the provided
// BigQuery client.
func ExportTableWithClient(ctx context.Context, client *bigquery.Client, datasetID, tableID string, t *table.Table) error {
	rows, err := BuildRows(t)
	if err != nil {
		return fmt.Errorf("ExportTableWithClient: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	inserter := client.Dataset(datasetID).Table(tableID).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("ExportTableWithClient: inserting rows: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(rows)).
		Str("export_id", rows[0].ExportID).
		Msg("exported standardized table")
	return nil
}

// BuildRows converts the standardized table into insertable rows. All rows of
// one call share a single export_id and timestamp.
func BuildRows(t *table.Table) ([]*NotaRow, error) {
	for _, col := range []string{"id_nota_fiscal", "unidade_padrao"} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("table is missing column %q", col)
		}
	}

	exportID := uuid.New().String()
	now := time.Now().UTC()

	rows := make([]*NotaRow, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := &NotaRow{
			IDNotaFiscal:      t.GetString(i, "id_nota_fiscal"),
			Ano:               t.GetString(i, "ano"),
			UF:                t.GetString(i, "uf"),
			Municipio:         t.GetString(i, "municipio"),
			Fornecedor:        t.GetString(i, "fornecedor"),
			Tipo:              t.GetString(i, "tipo"),
			NDoc:              t.GetString(i, "n_doc"),
			Emissao:           t.GetString(i, "emissao"),
			ValorNotaFiscal:   t.GetFloat(i, "valor_nota_fiscal"),
			Item:              t.GetString(i, "item"),
			ItemDeduplicado:   t.GetString(i, "item_deduplicado"),
			Un:                t.GetString(i, "un"),
			Qt:                t.GetFloat(i, "qt"),
			ValorUnidade:      t.GetFloat(i, "valor_unidade"),
			ValorUnidadeTotal: t.GetFloat(i, "valor_unidade_total"),
			UnidadeItem:       t.GetString(i, "unidade_item"),
			Confident:         t.GetFloat(i, "confident"),
			UnidadePadrao:     t.GetString(i, "unidade_padrao"),
			ExportID:          exportID,
			ExportTS:          now,
		}
		if q, ok := t.Get(i, "quantidade_item").(float64); ok {
			row.QuantidadeItem = bigquery.NullFloat64{Float64: q, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
