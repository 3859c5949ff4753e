package main

import (
	"context"
	"flag"
	"time"

	"github.com/pnae-dados/merenda-pipeline/internal/config"
	"github.com/pnae-dados/merenda-pipeline/internal/extract"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/normalize"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	dbPath := flag.String("db", cfg.DBPath, "sqlite file holding the stage snapshots")
	cachePath := flag.String("cache", cfg.CachePath, "JSON cache of item description extractions")
	dailyLimit := flag.Int("daily-limit", cfg.DailyLimit, "max uncached descriptions sent to the model this run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := table.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening snapshot store failed")
	}
	defer store.Close()

	tbl, err := store.ReadSnapshot(ctx, config.TableFlat)
	if err != nil {
		log.Fatal().Err(err).Msg("reading flattened snapshot failed")
	}

	cache, err := extract.OpenFileCache(*cachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening extraction cache failed")
	}

	extractor, err := extract.NewGeminiExtractor(ctx, cfg.ModelName)
	if err != nil {
		log.Fatal().Err(err).Msg("creating extractor failed")
	}

	log.Info().
		Int("rows", tbl.NumRows()).
		Int("cached_items", cache.Len()).
		Msg("normalizing flattened table")

	state := &normalize.State{
		Table:      tbl,
		Cache:      cache,
		Extractor:  extractor,
		Workers:    cfg.ExtractionWorkers,
		DailyLimit: *dailyLimit,
	}
	if err := normalize.NewCleaningPipeline().Execute(ctx, state); err != nil {
		log.Fatal().Err(err).Msg("normalization failed")
	}

	if err := store.WriteSnapshot(ctx, config.TableClean, tbl); err != nil {
		log.Fatal().Err(err).Msg("writing snapshot failed")
	}

	log.Info().Int("rows", tbl.NumRows()).Str("table", config.TableClean).Msg("normalization completed")
}
