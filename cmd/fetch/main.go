package main

import (
	"context"
	"flag"
	"time"

	"github.com/pnae-dados/merenda-pipeline/internal/config"
	"github.com/pnae-dados/merenda-pipeline/internal/gcs"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config failed")
	}

	bucket := flag.String("bucket", cfg.GCSBucket, "GCS bucket holding the raw dumps")
	prefix := flag.String("prefix", cfg.GCSPrefix, "object prefix of the raw dumps")
	dest := flag.String("dest", cfg.InputDir, "local directory to download into")
	flag.Parse()

	if *bucket == "" {
		log.Fatal().Msg("Error: --bucket (or GCS_BUCKET) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("bucket", *bucket).Str("prefix", *prefix).Msg("fetching nota fiscal dumps")

	paths, err := gcs.DownloadPrefix(ctx, *bucket, *prefix, *dest)
	if err != nil {
		log.Fatal().Err(err).Msg("fetching dumps failed")
	}

	log.Info().Int("files", len(paths)).Str("dest", *dest).Msg("fetch completed")
}
