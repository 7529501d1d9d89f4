package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xenking/storefront-backoffice/internal/catalog"
	"github.com/xenking/storefront-backoffice/internal/repository"
)

func main() {
	var (
		dataDir       string
		pattern       string
		databaseURL   string
		batchSize     int
		expected      uint
		fpr           float64
		progressEvery int
	)

	pflag.StringVar(&dataDir, "data-dir", "data", "directory containing gzip NDJSON product exports")
	pflag.StringVar(&pattern, "pattern", "*.ndjson.gz", "glob of export files inside --data-dir")
	pflag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	pflag.IntVar(&batchSize, "batch-size", 500, "products per upsert batch")
	pflag.UintVar(&expected, "expected-per-file", 1_000_000, "expected products per file, sizes the title filters")
	pflag.Float64Var(&fpr, "false-positive-rate", 0.001, "title filter false positive rate")
	pflag.IntVar(&progressEvery, "progress-every", 100_000, "log progress every N records (0 disables)")
	pflag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files, err := exportFiles(dataDir, pattern)
	if err != nil {
		slog.Error("list export files", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	stats, err := run(ctx, databaseURL, files, func(im *catalog.Importer) {
		im.BatchSize = batchSize
		im.ExpectedPerFile = expected
		im.FalsePositiveRate = fpr
		im.ProgressEvery = progressEvery
	})
	if err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("import completed",
		slog.Int("records", stats.Records),
		slog.Int("written", stats.Written),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid", stats.Invalid),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// exportFiles returns the files in dir matching pattern in name order.
func exportFiles(dir, pattern string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrap(err, "glob")
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no files match %s in %s", pattern, dir)
	}
	sort.Strings(files)
	return files, nil
}

func run(ctx context.Context, databaseURL string, files []string, configure func(*catalog.Importer)) (catalog.Stats, error) {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return catalog.Stats{}, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(databaseURL, zap.NewNop()); err != nil {
		return catalog.Stats{}, errors.Wrap(err, "run migrations")
	}

	im := catalog.NewImporter(repository.NewProductRepository(pool), slog.Default())
	configure(im)

	slog.Info("importing", slog.Int("files", len(files)))
	return im.Import(ctx, files)
}
