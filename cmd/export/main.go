package main

import (
	"context"
	"flag"
	"time"

	"github.com/pnae-dados/merenda-pipeline/internal/bq"
	"github.com/pnae-dados/merenda-pipeline/internal/config"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	dbPath := flag.String("db", cfg.DBPath, "sqlite file holding the stage snapshots")
	project := flag.String("project", cfg.BQProject, "BigQuery project ID")
	dataset := flag.String("dataset", cfg.BQDataset, "BigQuery dataset ID")
	tableID := flag.String("table", cfg.BQTable, "BigQuery table ID")
	flag.Parse()

	if *project == "" {
		log.Fatal().Msg("Error: --project (or BQ_PROJECT) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := table.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening snapshot store failed")
	}
	defer store.Close()

	tbl, err := store.ReadSnapshot(ctx, config.TableStandardized)
	if err != nil {
		log.Fatal().Err(err).Msg("reading standardized snapshot failed")
	}

	log.Info().
		Int("rows", tbl.NumRows()).
		Str("destination", *project+"."+*dataset+"."+*tableID).
		Msg("exporting standardized table")

	if err := bq.ExportTable(ctx, *project, *dataset, *tableID, tbl); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}

	log.Info().Msg("export completed")
}
