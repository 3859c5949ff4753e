package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/pnae-dados/merenda-pipeline/internal/logger"
)

// DownloadPrefix downloads every JSON object under bucket/prefix into destDir
// and returns the local paths. It assumes Application Default Credentials are
// configured (gcloud auth application-default login).
func DownloadPrefix(ctx context.Context, bucketName, prefix, destDir string) ([]string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	return downloadPrefixWithClient(ctx, client, bucketName, prefix, destDir)
}

func downloadPrefixWithClient(ctx context.Context, client *storage.Client, bucketName, prefix, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination dir %q: %w", destDir, err)
	}

	log := logger.FromContext(ctx)
	bkt := client.Bucket(bucketName)
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})

	var paths []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects in gs://%s/%s: %w", bucketName, prefix, err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}

		dest := filepath.Join(destDir, path.Base(attrs.Name))
		if err := downloadObject(ctx, bkt, attrs.Name, dest); err != nil {
			return nil, err
		}
		log.Debug().Str("object", attrs.Name).Str("dest", dest).Msg("downloaded dump")
		paths = append(paths, dest)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSON objects under gs://%s/%s", bucketName, prefix)
	}
	return paths, nil
}

func downloadObject(ctx context.Context, bkt *storage.BucketHandle, objectName, dest string) error {
	r, err := bkt.Object(objectName).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open GCS object reader for %q: %w", objectName, err)
	}
	defer r.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create local file %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("copy GCS object %q: %w", objectName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("finalize download %q: %w", dest, err)
	}
	return nil
}
