package main

import (
	"context"
	"flag"
	"time"

	"github.com/pnae-dados/merenda-pipeline/internal/config"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/standardize"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	dbPath := flag.String("db", cfg.DBPath, "sqlite file holding the stage snapshots")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := table.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening snapshot store failed")
	}
	defer store.Close()

	tbl, err := store.ReadSnapshot(ctx, config.TableClean)
	if err != nil {
		log.Fatal().Err(err).Msg("reading cleaned snapshot failed")
	}

	if err := standardize.Apply(ctx, tbl); err != nil {
		log.Fatal().Err(err).Msg("standardization failed")
	}

	if err := store.WriteSnapshot(ctx, config.TableStandardized, tbl); err != nil {
		log.Fatal().Err(err).Msg("writing snapshot failed")
	}

	log.Info().Int("rows", tbl.NumRows()).Str("table", config.TableStandardized).Msg("standardization completed")
}
