package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/tableio"
)

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	Path   string
	Output string
	Result *Result
	Err    error
}

// FileReport is the printable part of a FileResult.
type FileReport struct {
	Path     string `json:"path" yaml:"path"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
	Method   string `json:"method,omitempty" yaml:"method,omitempty"`
	Rows     int    `json:"rows" yaml:"rows"`
	Failures int    `json:"coercion_failures" yaml:"coercion_failures"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes r.
func (r FileResult) Report() FileReport {
	rep := FileReport{Path: r.Path, Output: r.Output}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	if r.Result != nil {
		d := r.Result.Diagnostics
		rep.Format = d.FormatID
		rep.Method = string(d.Method)
		rep.Rows = d.Rows
		rep.Failures = d.NumericFailures + d.DateFailures
	}
	return rep
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	InputDir     string        `json:"input_dir" yaml:"input_dir"`
	OutputDir    string        `json:"output_dir" yaml:"output_dir"`
	Total        int           `json:"total" yaml:"total"`
	Succeeded    int           `json:"succeeded" yaml:"succeeded"`
	Failed       int           `json:"failed" yaml:"failed"`
	Unrecognized int           `json:"unrecognized" yaml:"unrecognized"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Files        []FileReport  `json:"files" yaml:"files"`
}

// Summarize folds results into a BatchSummary.
func Summarize(results []FileResult) BatchSummary {
	s := BatchSummary{Total: len(results), Files: make([]FileReport, 0, len(results))}
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
		} else {
			s.Succeeded++
			if r.Result != nil && r.Result.Diagnostics.Route == RouteFallback {
				s.Unrecognized++
			}
		}
		s.Files = append(s.Files, r.Report())
	}
	return s
}

// BatchProcessor converts many files with a bounded pool of workers.
type BatchProcessor struct {
	converter   *Converter
	logger      logging.Logger
	workerCount int
}

// NewBatchProcessor creates a batch processor. A non-positive worker count
// uses one worker per CPU.
func NewBatchProcessor(converter *Converter, workers int, logger logging.Logger) *BatchProcessor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchProcessor{
		converter:   converter,
		logger:      logging.OrDiscard(logger),
		workerCount: workers,
	}
}

// Workers returns the size of the pool.
func (bp *BatchProcessor) Workers() int {
	return bp.workerCount
}

// WithWorkers returns a copy of bp with a different pool size.
func (bp *BatchProcessor) WithWorkers(workers int) *BatchProcessor {
	return NewBatchProcessor(bp.converter, workers, bp.logger)
}

// SupportedFiles lists the statement files directly inside dir, sorted by
// name.
func SupportedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !tableio.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ProcessDirectory converts every supported file of inputDir and writes
// one ledger per file into outputDir. Failing files are reported in the
// summary; only an unreadable input directory is an error.
func (bp *BatchProcessor) ProcessDirectory(ctx context.Context, inputDir, outputDir string, o OutputOptions) (*BatchSummary, error) {
	start := time.Now()
	files, err := SupportedFiles(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		bp.logger.Warn("No statement files found", logging.F(logging.FieldFile, inputDir))
	}

	results := bp.ProcessFiles(ctx, files, func(ctx context.Context, path string) FileResult {
		res, err := bp.converter.ConvertFile(ctx, path)
		if err != nil {
			return FileResult{Path: path, Err: err}
		}
		out := LedgerPath(outputDir, path, o)
		if err := SaveResult(out, res, o); err != nil {
			return FileResult{Path: path, Result: res, Err: err}
		}
		if err := bp.converter.RecordExport(ctx, res.StatementID, o.Format, map[string]string{"output": out}); err != nil {
			bp.logger.WithError(err).Warn("Failed to record export", logging.F(logging.FieldFile, path))
		}
		return FileResult{Path: path, Output: out, Result: res}
	})

	summary := Summarize(results)
	summary.InputDir = inputDir
	summary.OutputDir = outputDir
	summary.Duration = time.Since(start)

	bp.logger.Info("Batch conversion completed",
		logging.F(logging.FieldCount, summary.Total),
		logging.F("succeeded", summary.Succeeded),
		logging.F("failed", summary.Failed),
		logging.F(logging.FieldDuration, summary.Duration.Milliseconds()))

	return &summary, ctx.Err()
}

// indexedResult preserves the input order of results
type indexedResult struct {
	index  int
	result FileResult
}

// ProcessFiles applies process to every path with the worker pool and
// returns the results in input order. Paths not reached before ctx is
// cancelled carry ctx.Err().
func (bp *BatchProcessor) ProcessFiles(ctx context.Context, paths []string, process func(context.Context, string) FileResult) []FileResult {
	results := make([]FileResult, len(paths))
	for i, p := range paths {
		results[i] = FileResult{Path: p, Err: context.Canceled}
	}
	if len(paths) == 0 {
		return results
	}

	workers := bp.workerCount
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan int, workers)
	resultChan := make(chan indexedResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bp.worker(ctx, &wg, paths, jobs, resultChan, process)
	}

	go func() {
		defer close(jobs)
		for i := range paths {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		results[r.index] = r.result
	}
	if err := ctx.Err(); err != nil {
		for i := range results {
			if errors.Is(results[i].Err, context.Canceled) {
				results[i].Err = err
			}
		}
	}

	bp.logger.Debug("Concurrent processing completed",
		logging.F(logging.FieldCount, len(paths)),
		logging.F(logging.FieldWorkers, workers))

	return results
}

// worker converts the files whose indexes arrive on jobs
func (bp *BatchProcessor) worker(ctx context.Context, wg *sync.WaitGroup, paths []string, jobs <-chan int, resultChan chan<- indexedResult, process func(context.Context, string) FileResult) {
	defer wg.Done()

	for {
		select {
		case i, ok := <-jobs:
			if !ok {
				return
			}
			r := process(ctx, paths[i])
			if r.Err != nil {
				bp.logger.WithError(r.Err).Warn("Failed to convert file", logging.F(logging.FieldFile, paths[i]))
			}
			resultChan <- indexedResult{index: i, result: r}
		case <-ctx.Done():
			return
		}
	}
}
