// Command review-report builds a product sentiment report from gzipped
// review exports. Each export line is a JSON review; exports overlap, so
// review IDs are de-duplicated with a bloom filter while files are scanned
// concurrently. The result is a static JSON artifact for the marketing team.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

var positiveWords = []string{
	"love", "loves", "great", "excellent", "happy", "perfect", "healthy", "recommend",
}

var negativeWords = []string{
	"bad", "awful", "refused", "sick", "broke", "broken", "smell", "returned", "disappointed",
}

// review is one line of an export file.
type review struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
}

// productStats accumulates per-product numbers across all files.
type productStats struct {
	Reviews      int     `json:"reviews"`
	RatingSum    int     `json:"-"`
	AvgRating    float64 `json:"avg_rating"`
	PositiveHits int     `json:"positive_hits"`
	NegativeHits int     `json:"negative_hits"`
}

// report is the JSON artifact written at the end of a run.
type report struct {
	GeneratedAt       time.Time                `json:"generated_at"`
	Files             []string                 `json:"files"`
	TotalReviews      int                      `json:"total_reviews"`
	DuplicatesSkipped int                      `json:"duplicates_skipped"`
	MalformedLines    int                      `json:"malformed_lines"`
	Products          map[string]*productStats `json:"products"`
}

func main() {
	var (
		dataDir string
		outFile string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing reviews-*.gz export files")
	flag.StringVar(&outFile, "out", "review-report.json", "path for the JSON report artifact")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, outFile); err != nil {
		slog.Error("review report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("review report completed successfully", slog.String("out", outFile))
}

func run(ctx context.Context, dataDir, outFile string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "reviews-*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no reviews-*.gz files in %s", dataDir)
	}
	sort.Strings(files)

	slog.Info("scanning exports", slog.Int("files", len(files)))

	rep, err := buildReport(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build report")
	}

	return writeReport(outFile, rep)
}

// buildReport fans one goroutine out per export file, all feeding a single
// aggregator that owns the bloom filter and the per-product counters.
func buildReport(ctx context.Context, files []string) (*report, error) {
	rep := &report{
		GeneratedAt: time.Now().UTC(),
		Files:       files,
		Products:    make(map[string]*productStats),
	}

	reviews := make(chan review, 1024)
	var malformed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)

	// Aggregator: sole owner of the filter and counters.
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		for r := range reviews {
			if seen.TestAndAddString(r.ID) {
				rep.DuplicatesSkipped++
				continue
			}
			rep.TotalReviews++

			stats := rep.Products[r.ProductID]
			if stats == nil {
				stats = &productStats{}
				rep.Products[r.ProductID] = stats
			}
			stats.Reviews++
			stats.RatingSum += r.Rating

			pos, neg := sentimentHits(r.Text)
			stats.PositiveHits += pos
			stats.NegativeHits += neg
		}
	}()

	for _, f := range files {
		g.Go(scanExportFile(ctx, f, reviews, &malformed))
	}

	err := g.Wait()
	close(reviews)
	<-done
	if err != nil {
		return nil, err
	}
	rep.MalformedLines = int(malformed.Load())

	for _, stats := range rep.Products {
		if stats.Reviews > 0 {
			stats.AvgRating = float64(stats.RatingSum) / float64(stats.Reviews)
		}
	}

	return rep, nil
}

func scanExportFile(ctx context.Context, path string, out chan<- review, malformed *atomic.Int64) func() error {
	return func() error {
		var count, bad int

		err := streamGzFile(ctx, path, func(line string) {
			count++
			if count%progressEvery == 0 {
				slog.Info("scan progress", slog.String("file", path), slog.Int("lines", count))
			}

			var r review
			if err := json.Unmarshal([]byte(line), &r); err != nil || r.ID == "" || r.ProductID == "" {
				bad++
				return
			}
			select {
			case out <- r:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("scan complete", slog.String("file", path),
			slog.Int("lines", count), slog.Int("malformed", bad))

		malformed.Add(int64(bad))
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
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
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// sentimentHits counts positive and negative keyword occurrences in a review.
func sentimentHits(text string) (pos, neg int) {
	lowered := strings.ToLower(text)
	for _, w := range positiveWords {
		pos += strings.Count(lowered, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lowered, w)
	}
	return pos, neg
}

func writeReport(path string, rep *report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return errors.Wrap(err, "encode report")
	}
	return nil
}
