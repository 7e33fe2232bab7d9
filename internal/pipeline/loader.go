package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/finphase/internal/plan"
	"github.com/theirongolddev/finphase/internal/signals"
	"github.com/theirongolddev/finphase/internal/source"
)

// LoadedPlan is one parsed plan with its source file and exposure context.
type LoadedPlan struct {
	Plan     plan.Plan
	Path     string
	Warnings []source.Warning
	Exposure *signals.ExternalContext
}

// FileError records a plan file that could not be loaded.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// LoadResult holds the output of the full plan loading pipeline.
type LoadResult struct {
	Plans        []LoadedPlan
	TotalFiles   int
	ParsedFiles  int
	WarningCount int
	FileErrors   []FileError
}

// Find returns the loaded plan with the given ID.
func (r *LoadResult) Find(planID string) (LoadedPlan, bool) {
	for _, lp := range r.Plans {
		if lp.Plan.ID == planID {
			return lp, true
		}
	}
	return LoadedPlan{}, false
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all plan files under plansDir.
// It uses a bounded worker pool for parallel parsing.
func Load(plansDir string, opts source.Options, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(plansDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", plansDir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	results := parseAll(files, opts, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})
	for i, pr := range results {
		result.collect(files[i], pr)
	}
	result.finish()
	return result, nil
}

// parseAll parses files with one worker per CPU. done is called with the
// running count after each file.
func parseAll(files []source.DiscoveredFile, opts source.Options, done func(n int)) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx], opts)
				done(int(processed.Add(1)))
			}
		}()
	}

	wg.Wait()
	return results
}

// collect folds one parse result into the load result.
func (r *LoadResult) collect(df source.DiscoveredFile, pr source.ParseResult) {
	if pr.Err != nil {
		log.Warn().Err(pr.Err).Str("file", df.Path).Msg("skipping plan file")
		r.FileErrors = append(r.FileErrors, FileError{Path: df.Path, Err: pr.Err})
		return
	}
	lp := LoadedPlan{Plan: pr.Plan, Path: df.Path, Warnings: pr.Warnings}
	if pr.Exposure != nil {
		ext, warnings := source.ExposureContext(pr.Exposure)
		lp.Exposure = ext
		lp.Warnings = append(lp.Warnings, warnings...)
	}
	for _, w := range lp.Warnings {
		log.Debug().Str("file", df.Path).Str("where", w.Where).Msg(w.Message)
	}
	r.ParsedFiles++
	r.WarningCount += len(lp.Warnings)
	r.Plans = append(r.Plans, lp)
}

// finish orders plans by ID and drops later files that reuse an ID.
func (r *LoadResult) finish() {
	sort.SliceStable(r.Plans, func(i, j int) bool {
		if r.Plans[i].Plan.ID != r.Plans[j].Plan.ID {
			return r.Plans[i].Plan.ID < r.Plans[j].Plan.ID
		}
		return r.Plans[i].Path < r.Plans[j].Path
	})
	out := r.Plans[:0]
	for _, lp := range r.Plans {
		if n := len(out); n > 0 && out[n-1].Plan.ID == lp.Plan.ID {
			err := fmt.Errorf("plan %q already loaded from %s", lp.Plan.ID, out[n-1].Path)
			log.Warn().Err(err).Str("file", lp.Path).Msg("skipping plan file")
			r.FileErrors = append(r.FileErrors, FileError{Path: lp.Path, Err: err})
			r.ParsedFiles--
			continue
		}
		out = append(out, lp)
	}
	r.Plans = out
}
