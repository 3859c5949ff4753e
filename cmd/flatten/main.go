package main

import (
	"context"
	"flag"
	"time"

	"github.com/pnae-dados/merenda-pipeline/internal/config"
	"github.com/pnae-dados/merenda-pipeline/internal/flatten"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	inputDir := flag.String("input", cfg.InputDir, "directory of raw nota fiscal JSON dumps")
	dbPath := flag.String("db", cfg.DBPath, "sqlite file holding the stage snapshots")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("input_dir", *inputDir).Msg("flattening nota fiscal dumps")

	tbl, err := flatten.Directory(ctx, *inputDir, cfg.FlattenWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("flattening failed")
	}

	store, err := table.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening snapshot store failed")
	}
	defer store.Close()

	if err := store.WriteSnapshot(ctx, config.TableFlat, tbl); err != nil {
		log.Fatal().Err(err).Msg("writing snapshot failed")
	}

	log.Info().Int("rows", tbl.NumRows()).Str("table", config.TableFlat).Msg("flattening completed")
}
