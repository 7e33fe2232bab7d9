package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const exposureInfix = ".exposure"

// FormatOf returns the document format for a path, or "" for other files.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// ScanDir walks the plans directory and discovers plan documents.
// Exposure files are attached to the plan with the same stem rather than
// returned as plans. Hidden files and files starting with "_" are skipped.
func ScanDir(plansDir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(plansDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	plans := make(map[string]*DiscoveredFile)
	exposures := make(map[string]string)

	err = filepath.WalkDir(plansDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() {
			if path != plansDir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return nil
		}
		format := FormatOf(path)
		if format == "" {
			return nil
		}

		stem := strings.TrimSuffix(path, filepath.Ext(path))
		if base, ok := strings.CutSuffix(stem, exposureInfix); ok {
			exposures[base] = path
			return nil
		}
		plans[stem] = &DiscoveredFile{
			Path:   path,
			Format: format,
			PlanID: filepath.Base(stem),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := make([]DiscoveredFile, 0, len(plans))
	for stem, df := range plans {
		df.ExposurePath = exposures[stem]
		files = append(files, *df)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Discover describes a single plan path the way ScanDir would.
func Discover(path string) DiscoveredFile {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	df := DiscoveredFile{
		Path:   path,
		Format: FormatOf(path),
		PlanID: filepath.Base(stem),
	}
	for _, ext := range []string{filepath.Ext(path), ".toml", ".json", ".yaml", ".yml"} {
		candidate := stem + exposureInfix + ext
		if _, err := os.Stat(candidate); err == nil {
			df.ExposurePath = candidate
			break
		}
	}
	return df
}
