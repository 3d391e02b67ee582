// Package shard moves downloaded archives from the root of the local
// directory into per-year and per-month subdirectories:
//
//	RW-20200115.tar.gz -> <root>/2020/RW-202001/RW-20200115.tar.gz
//	RW-202001.tar      -> <root>/2020/RW-202001.tar
package shard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/raddo/internal/archive"
)

// Dir returns the subdirectory, relative to the root, an archive is sorted
// into. ok is false for names that are not archives.
func Dir(name string) (string, bool) {
	n, ok := archive.Parse(name)
	if !ok {
		return "", false
	}
	year := n.Date.Format("2006")
	if n.Scheme == archive.SchemeLegacy {
		return year, true
	}
	return filepath.Join(year, archive.Prefix+"-"+n.Date.Format("200601")), true
}

// Locate returns the path of name under root if it exists either directly
// in root or in its sorted subdirectory.
func Locate(root, name string) (string, bool) {
	candidates := []string{filepath.Join(root, name)}
	if dir, ok := Dir(name); ok {
		candidates = append(candidates, filepath.Join(root, dir, name))
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// Sort moves each named archive from root into its subdirectory and returns
// the new paths. Names that are not archives are ignored. A name that is no
// longer in root but already sits in its subdirectory is reported with that
// path; any other missing file is an error.
func Sort(root string, names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		dir, ok := Dir(name)
		if !ok {
			continue
		}
		src := filepath.Join(root, name)
		dst := filepath.Join(root, dir, name)

		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			if _, err := os.Stat(dst); err == nil {
				paths = append(paths, dst)
				continue
			}
			return paths, fmt.Errorf("sort %s: %w", name, err)
		}

		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return paths, fmt.Errorf("sort %s: %w", name, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return paths, fmt.Errorf("sort %s: %w", name, err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// MonthDirs lists the sorted month directories that can hold data for days
// in rng, for both naming schemes. Missing directories are not filtered.
func MonthDirs(root string, rng archive.Range) []string {
	var dirs []string
	seen := map[string]bool{}
	for d := time.Date(rng.Start.Year(), rng.Start.Month(), 1, 0, 0, 0, 0, time.UTC); !d.After(rng.End); d = d.AddDate(0, 1, 0) {
		for _, name := range []string{archive.DayName(d), archive.MonthName(d)} {
			dir, _ := Dir(name)
			p := filepath.Join(root, dir)
			if !seen[p] {
				seen[p] = true
				dirs = append(dirs, p)
			}
		}
	}
	return dirs
}
