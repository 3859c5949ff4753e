package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Snapshot table names, one per pipeline stage.
const (
	TableFlat         = "notas_flat"
	TableClean        = "notas_limpo"
	TableStandardized = "notas_padronizado"
)

type Config struct {
	// InputDir holds the raw nota fiscal JSON dumps.
	InputDir string
	// DBPath is the sqlite file holding the stage snapshots.
	DBPath string
	// CachePath is the JSON file mapping item descriptions to extractions.
	CachePath string

	// DailyLimit caps how many uncached descriptions go to the model per run.
	DailyLimit int
	// ExtractionWorkers bounds concurrent in-flight model calls.
	ExtractionWorkers int
	// FlattenWorkers bounds concurrent source file parsing.
	FlattenWorkers int
	// ModelName is the Gemini model used for unit extraction.
	ModelName string

	GCSBucket string
	GCSPrefix string

	BQProject string
	BQDataset string
	BQTable   string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		InputDir:  getEnv("INPUT_DIR", filepath.Join(cwd, "data", "SPENDING")),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "notas.db")),
		CachePath: getEnv("CACHE_PATH", filepath.Join(cwd, "data", "item_cache.json")),

		DailyLimit:        getEnvInt("DAILY_LIMIT", 100000),
		ExtractionWorkers: getEnvInt("EXTRACTION_WORKERS", 10),
		FlattenWorkers:    getEnvInt("FLATTEN_WORKERS", 8),
		ModelName:         getEnv("MODEL_NAME", "gemini-2.5-flash-lite"),

		GCSBucket: getEnv("GCS_BUCKET", ""),
		GCSPrefix: getEnv("GCS_PREFIX", "school_meal_pnae/SPENDING/"),

		BQProject: getEnv("BQ_PROJECT", ""),
		BQDataset: getEnv("BQ_DATASET", "merenda"),
		BQTable:   getEnv("BQ_TABLE", "notas_fiscais"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
