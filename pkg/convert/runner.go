// Package convert drives batch conversions: it discovers schema sources
// under an input directory, converts them on a bounded worker pool and
// mirrors the results into an output directory with typed extensions.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"fortio.org/safecast"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/schemaconv/internal/observability"
	"github.com/Sumatoshi-tech/schemaconv/pkg/transform"
)

// ErrNoOutput is returned when a run that writes files has no output directory.
var ErrNoOutput = errors.New("output directory is required")

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStatus is the outcome of one file in a batch.
type FileStatus string

// File statuses.
const (
	FileConverted FileStatus = "converted"
	FileUnchanged FileStatus = "unchanged"
	FileSkipped   FileStatus = "skipped"
	FileFailed    FileStatus = "failed"
)

// Options configures a [Runner].
type Options struct {
	Input  string
	Output string

	Include []string
	Ignore  []string

	// Workers bounds concurrent conversions; 0 means GOMAXPROCS.
	Workers int
	// MaxFileSize skips larger sources; 0 disables the limit.
	MaxFileSize uint64
	// CacheSize is the number of conversion results kept by content hash;
	// 0 disables the cache.
	CacheSize int
	// DryRun converts without writing and records a diff per changed file.
	DryRun bool

	Logger  *slog.Logger
	Metrics *observability.ConversionMetrics
}

// FileResult describes one processed file.
type FileResult struct {
	Source     string          `json:"source"           yaml:"source"`
	Output     string          `json:"output"           yaml:"output"`
	Status     FileStatus      `json:"status"           yaml:"status"`
	Schema     string          `json:"schema,omitempty" yaml:"schema,omitempty"`
	BytesIn    int             `json:"bytes_in"         yaml:"bytes_in"`
	BytesOut   int             `json:"bytes_out"        yaml:"bytes_out"`
	Stats      transform.Stats `json:"stats"            yaml:"stats"`
	DurationMS float64         `json:"duration_ms"      yaml:"duration_ms"`
	Cached     bool            `json:"cached,omitempty" yaml:"cached,omitempty"`
	Error      string          `json:"error,omitempty"  yaml:"error,omitempty"`
	Diff       string          `json:"diff,omitempty"   yaml:"diff,omitempty"`
}

// Totals aggregates a batch.
type Totals struct {
	Files     int             `json:"files"     yaml:"files"`
	Converted int             `json:"converted" yaml:"converted"`
	Unchanged int             `json:"unchanged" yaml:"unchanged"`
	Skipped   int             `json:"skipped"   yaml:"skipped"`
	Failed    int             `json:"failed"    yaml:"failed"`
	BytesIn   int64           `json:"bytes_in"  yaml:"bytes_in"`
	BytesOut  int64           `json:"bytes_out" yaml:"bytes_out"`
	Stats     transform.Stats `json:"stats"     yaml:"stats"`
}

// Summary is the outcome of a batch, in discovery order.
type Summary struct {
	Input  string       `json:"input"   yaml:"input"`
	Output string       `json:"output"  yaml:"output"`
	DryRun bool         `json:"dry_run" yaml:"dry_run"`
	Files  []FileResult `json:"files"   yaml:"files"`
	Totals Totals       `json:"totals"  yaml:"totals"`
}

// Runner converts a directory of schema sources.
type Runner struct {
	transformer *transform.Transformer
	opts        Options
	logger      *slog.Logger
	cache       *lru.Cache[string, transform.Result]
}

// NewRunner creates a runner around transformer.
func NewRunner(transformer *transform.Transformer, opts Options) (*Runner, error) {
	if opts.Output == "" && !opts.DryRun {
		return nil, ErrNoOutput
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	runner := &Runner{transformer: transformer, opts: opts, logger: logger}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, transform.Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}

		runner.cache = cache
	}

	return runner, nil
}

// Run discovers and converts every matching file. A file that fails to
// read, parse or write is recorded as failed and the batch goes on; only
// discovery errors and context cancellation end the run early.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	files, err := Discover(r.opts.Input, r.opts.Include, r.opts.Ignore)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "discovered schema sources",
		"input", r.opts.Input, "files", len(files), "dry_run", r.opts.DryRun)

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(files))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, min(workers, len(files))))

	for idx, rel := range files {
		group.Go(func() error {
			ctxErr := gctx.Err()
			if ctxErr != nil {
				return ctxErr
			}

			results[idx] = r.convertFile(gctx, rel)

			return nil
		})
	}

	waitErr := group.Wait()

	// Files never dispatched after cancellation have no status.
	results = slices.DeleteFunc(results, func(file FileResult) bool { return file.Status == "" })

	summary := &Summary{
		Input:  r.opts.Input,
		Output: r.opts.Output,
		DryRun: r.opts.DryRun,
		Files:  results,
	}
	summary.Totals = totalsOf(results)

	if waitErr != nil {
		return summary, fmt.Errorf("conversion interrupted: %w", waitErr)
	}

	return summary, nil
}

func (r *Runner) convertFile(ctx context.Context, rel string) FileResult {
	ctx = observability.WithFile(ctx, rel)
	start := time.Now()
	result := FileResult{Source: rel, Output: OutputName(rel)}

	r.process(ctx, &result)

	elapsed := time.Since(start)
	result.DurationMS = float64(elapsed) / float64(time.Millisecond)

	r.opts.Metrics.RecordFile(ctx, observability.FileStats{
		Status:           string(result.Status),
		Duration:         elapsed,
		FieldsWrapped:    result.Stats.FieldsWrapped,
		FieldsPruned:     result.Stats.FieldsPruned,
		FieldsetsPruned:  result.Stats.FieldsetsPruned,
		ImportsRewritten: result.Stats.ImportsRewritten,
	})

	return result
}

func (r *Runner) process(ctx context.Context, result *FileResult) {
	srcPath := filepath.Join(r.opts.Input, filepath.FromSlash(result.Source))

	info, err := os.Stat(srcPath)
	if err != nil {
		r.fail(ctx, result, err)

		return
	}

	size, err := safecast.Conv[uint64](info.Size())
	if err != nil {
		r.fail(ctx, result, err)

		return
	}

	if r.opts.MaxFileSize > 0 && size > r.opts.MaxFileSize {
		result.Status = FileSkipped
		r.logger.WarnContext(ctx, "skipping oversized file", "size", size, "limit", r.opts.MaxFileSize)

		return
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		r.fail(ctx, result, err)

		return
	}

	result.BytesIn = len(src)

	converted, cached, err := r.convert(ctx, result.Source, src)
	if err != nil {
		r.fail(ctx, result, err)

		return
	}

	result.Cached = cached
	result.Schema = converted.Schema
	result.Stats = converted.Stats
	result.BytesOut = len(converted.Output)
	result.Status = FileUnchanged

	if converted.Status == transform.StatusConverted {
		result.Status = FileConverted
	}

	if r.opts.DryRun {
		result.Diff = Diff(result.Source, result.Output, src, converted.Output)

		return
	}

	err = writeOutput(filepath.Join(r.opts.Output, filepath.FromSlash(result.Output)), converted.Output)
	if err != nil {
		r.fail(ctx, result, err)

		return
	}

	r.logger.DebugContext(ctx, "converted file",
		"output", result.Output, "status", string(result.Status),
		"fields_wrapped", result.Stats.FieldsWrapped, "fields_pruned", result.Stats.FieldsPruned)
}

// convert runs the transformer, sharing results between identical sources.
// The key includes the extension because it selects the grammar.
func (r *Runner) convert(ctx context.Context, rel string, src []byte) (transform.Result, bool, error) {
	if r.cache == nil {
		result, err := r.transformer.Convert(ctx, rel, src)

		return result, false, err
	}

	sum := sha256.Sum256(src)
	key := path.Ext(rel) + ":" + hex.EncodeToString(sum[:])

	if cached, ok := r.cache.Get(key); ok {
		r.opts.Metrics.RecordCacheLookup(ctx, true)

		return cached, true, nil
	}

	r.opts.Metrics.RecordCacheLookup(ctx, false)

	result, err := r.transformer.Convert(ctx, rel, src)
	if err != nil {
		return transform.Result{}, false, err
	}

	r.cache.Add(key, result)

	return result, false, nil
}

func (r *Runner) fail(ctx context.Context, result *FileResult, err error) {
	result.Status = FileFailed
	result.Error = err.Error()

	r.logger.ErrorContext(ctx, "conversion failed", "error", err)
}

func writeOutput(name string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(name), dirPerm)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	err = os.WriteFile(name, data, filePerm)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

func totalsOf(results []FileResult) Totals {
	var totals Totals

	for idx := range results {
		file := &results[idx]

		totals.Files++
		totals.BytesIn += int64(file.BytesIn)
		totals.BytesOut += int64(file.BytesOut)
		totals.Stats.Add(file.Stats)

		switch file.Status {
		case FileConverted:
			totals.Converted++
		case FileUnchanged:
			totals.Unchanged++
		case FileSkipped:
			totals.Skipped++
		case FileFailed:
			totals.Failed++
		}
	}

	return totals
}
