package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/finphase/internal/source"
	"github.com/theirongolddev/finphase/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Removed   int
}

// LoadWithCache discovers plan files, diffs them against the store's file
// tracker, parses only changed files and returns the combined result set.
// Warnings are only reported for files parsed in this run.
func LoadWithCache(plansDir string, opts source.Options, st *store.Store, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(plansDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", plansDir, err)
	}

	tracked, err := st.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &CachedLoadResult{LoadResult: LoadResult{TotalFiles: len(files)}}

	// Forget plans whose files have gone away. The snapshot is only dropped
	// when it still belongs to the missing file.
	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[f.Path] = struct{}{}
	}
	for path, fi := range tracked {
		if _, ok := onDisk[path]; ok {
			continue
		}
		if owner, err := st.SourcePath(fi.PlanID); err == nil && owner == path {
			if err := st.DeletePlan(fi.PlanID); err != nil {
				return nil, fmt.Errorf("dropping cached plan %s: %w", fi.PlanID, err)
			}
		}
		if err := st.DeleteFileTracker(path); err != nil {
			return nil, fmt.Errorf("dropping tracker for %s: %w", path, err)
		}
		result.Removed++
	}

	var toReparse []source.DiscoveredFile
	stats := make(map[string]os.FileInfo, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		cached, ok := tracked[f.Path]
		if !ok || cached.MtimeNs != info.ModTime().UnixNano() || cached.SizeBytes != info.Size() {
			stats[f.Path] = info
			toReparse = append(toReparse, f)
			continue
		}
		// Another file with the same plan ID may own the snapshot.
		if owner, err := st.SourcePath(cached.PlanID); err != nil || owner != f.Path {
			log.Debug().Str("file", f.Path).Str("owner", owner).Msg("cache miss")
			stats[f.Path] = info
			toReparse = append(toReparse, f)
			continue
		}
		p, err := st.LoadPlan(cached.PlanID)
		if err != nil {
			log.Debug().Err(err).Str("file", f.Path).Msg("cache miss")
			stats[f.Path] = info
			toReparse = append(toReparse, f)
			continue
		}
		// Exposure files are not tracked; re-read them every time.
		pr := source.ParseResult{Plan: p}
		if f.ExposurePath != "" {
			exp, err := source.ReadExposure(f.ExposurePath)
			if err != nil {
				pr.Warnings = append(pr.Warnings, source.Warning{Where: f.ExposurePath, Message: err.Error()})
			} else {
				pr.Exposure = exp
			}
		}
		result.collect(f, pr)
		result.CacheHits++
	}
	result.Reparsed = len(toReparse)

	if len(toReparse) > 0 {
		results := parseAll(toReparse, opts, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, result.TotalFiles)
			}
		})
		for i, pr := range results {
			result.collect(toReparse[i], pr)
		}
	}

	result.finish()

	// Only plans that survived duplicate detection are cached, so a
	// rejected file never replaces the snapshot of the file that owns the ID.
	for _, lp := range result.Plans {
		info, ok := stats[lp.Path]
		if !ok {
			continue
		}
		if err := st.SavePlan(lp.Plan, lp.Path, info.ModTime().UnixNano(), info.Size()); err != nil {
			log.Warn().Err(err).Str("plan", lp.Plan.ID).Msg("caching plan")
		}
	}
	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "finphase")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "finphase")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "plans.db")
}
