package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-backoffice/internal/domain/product"
)

// Sink stores imported products. Existing products with the same title are
// updated.
type Sink interface {
	UpsertBatch(ctx context.Context, products []product.Product) error
}

// Stats summarises an import run.
type Stats struct {
	Records    int
	Invalid    int
	Duplicates int
	Written    int
}

// Importer streams gzip NDJSON files into a Sink.
//
// The first pass builds one bloom filter of titles per file, concurrently.
// The second pass streams the files in order and writes every record whose
// title no filter has seen elsewhere. Titles flagged by a filter are checked
// against an exact set, so a false positive never drops a unique title and
// only the first occurrence of a duplicate is written.
type Importer struct {
	sink Sink
	log  *slog.Logger
	now  func() time.Time

	// BatchSize is the number of products per UpsertBatch call.
	BatchSize int
	// ExpectedPerFile sizes the bloom filters.
	ExpectedPerFile uint
	// FalsePositiveRate of each bloom filter.
	FalsePositiveRate float64
	// ProgressEvery logs progress after this many records. Zero disables it.
	ProgressEvery int
}

// NewImporter returns an Importer writing to sink.
func NewImporter(sink Sink, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		sink:              sink,
		log:               log,
		now:               time.Now,
		BatchSize:         500,
		ExpectedPerFile:   1_000_000,
		FalsePositiveRate: 0.001,
		ProgressEvery:     100_000,
	}
}

// fileFilter holds the titles of one file. Repeats inside the file are
// already known exactly after the first pass.
type fileFilter struct {
	titles  *bloom.BloomFilter
	repeats map[string]struct{}
}

// Import loads files and returns what was read and written.
func (im *Importer) Import(ctx context.Context, files []string) (Stats, error) {
	im.log.Info("pass 1: building title filters", slog.Int("files", len(files)))
	filters, err := im.buildFilters(ctx, files)
	if err != nil {
		return Stats{}, errors.Wrap(err, "build filters")
	}

	im.log.Info("pass 2: writing products")
	var (
		stats   Stats
		batch   = make([]product.Product, 0, im.BatchSize)
		written = make(map[string]struct{})
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.sink.UpsertBatch(ctx, batch); err != nil {
			return errors.Wrap(err, "upsert batch")
		}
		stats.Written += len(batch)
		batch = batch[:0]
		return nil
	}

	for idx, path := range files {
		err := streamRecords(ctx, path, func(line int, rec *Record, perr error) error {
			stats.Records++
			if im.ProgressEvery > 0 && stats.Records%im.ProgressEvery == 0 {
				im.log.Info("pass 2 progress", slog.Int("records", stats.Records), slog.Int("written", stats.Written))
			}
			if perr == nil {
				perr = rec.Check()
			}
			if perr != nil {
				stats.Invalid++
				im.log.Warn("skip invalid record",
					slog.String("file", path),
					slog.Int("line", line),
					slog.String("error", perr.Error()),
				)
				return nil
			}

			key := rec.Key()
			if candidate(filters, idx, key) {
				if _, dup := written[key]; dup {
					stats.Duplicates++
					return nil
				}
				written[key] = struct{}{}
			}

			batch = append(batch, rec.Product(im.now().UTC()))
			if len(batch) >= im.BatchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return stats, errors.Wrapf(err, "import %s", path)
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// candidate reports whether key may occur more than once across files.
func candidate(filters []fileFilter, idx int, key string) bool {
	if _, ok := filters[idx].repeats[key]; ok {
		return true
	}
	for j, f := range filters {
		if j != idx && f.titles.TestString(key) {
			return true
		}
	}
	return false
}

// buildFilters creates one title filter per file, concurrently.
func (im *Importer) buildFilters(ctx context.Context, files []string) ([]fileFilter, error) {
	filters := make([]fileFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			f := fileFilter{
				titles:  bloom.NewWithEstimates(im.ExpectedPerFile, im.FalsePositiveRate),
				repeats: make(map[string]struct{}),
			}
			// Exact titles of this file that its own filter flagged.
			seen := make(map[string]struct{})
			count := 0
			err := streamRecords(ctx, path, func(_ int, rec *Record, perr error) error {
				if perr != nil {
					return nil
				}
				key := rec.Key()
				if key == "" {
					return nil
				}
				count++
				if f.titles.TestOrAddString(key) {
					seen[key] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			// Flagged titles are resolved exactly with a second look at the file.
			if len(seen) > 0 {
				if err := exactRepeats(ctx, path, seen, f.repeats); err != nil {
					return err
				}
			}

			im.log.Info("pass 1 complete",
				slog.String("file", path),
				slog.Int("titles", count),
				slog.Int("repeats", len(f.repeats)),
			)
			filters[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// exactRepeats adds to repeats every title of flagged that occurs more than
// once in path.
func exactRepeats(ctx context.Context, path string, flagged, repeats map[string]struct{}) error {
	counts := make(map[string]int, len(flagged))
	err := streamRecords(ctx, path, func(_ int, rec *Record, perr error) error {
		if perr != nil {
			return nil
		}
		if _, ok := flagged[rec.Key()]; ok {
			counts[rec.Key()]++
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "recheck %s", path)
	}
	for key, n := range counts {
		if n > 1 {
			repeats[key] = struct{}{}
		}
	}
	return nil
}

// maxLineBytes bounds one NDJSON line.
const maxLineBytes = 1 << 20

// streamRecords opens a gzip-compressed NDJSON file and calls fn for each
// non-blank line with the decoded record or the decode error.
func streamRecords(ctx context.Context, path string, fn func(line int, rec *Record, err error) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			err = errors.Wrap(err, "decode record")
			if ferr := fn(line, nil, err); ferr != nil {
				return ferr
			}
			continue
		}
		if err := fn(line, &rec, nil); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
