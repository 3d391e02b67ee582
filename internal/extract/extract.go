// Package extract unpacks downloaded archives in place and lists the hourly
// rasters they contain.
//
// Every archive is extracted into a sibling directory named after the part
// of its file name before the first dot, so RW-20200115.tar.gz becomes
// RW-20200115/. Month archives get a ".d" suffix, RW-202001.tar becomes
// RW-202001.d/, because RW-202001/ is the sorted folder of that month's day
// archives. An archive whose directory already exists is skipped. Month
// archives hold day archives, which are extracted in turn.
package extract

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/dmitrijs2005/raddo/internal/archive"
)

// ErrUnsafePath is returned for archive entries that would land outside the
// extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes target directory")

// Result lists what Archives did.
type Result struct {
	// Dirs are the extraction directories of the given archives, whether
	// created now or found already present.
	Dirs      []string
	Extracted int
	Skipped   int
}

// Archives extracts every .tar and .tar.gz in paths. Other paths are
// ignored.
func Archives(ctx context.Context, paths []string) (Result, error) {
	var res Result
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !isArchive(p) {
			continue
		}

		dir, created, err := extractOne(p)
		if err != nil {
			return res, err
		}
		res.Dirs = append(res.Dirs, dir)
		if !created {
			res.Skipped++
			continue
		}
		res.Extracted++

		if isMonthArchive(p) {
			n, err := extractNested(ctx, dir)
			if err != nil {
				return res, err
			}
			res.Extracted += n
		}
	}
	return res, nil
}

// MonthDirSuffix is appended to the extraction directory of month archives.
const MonthDirSuffix = ".d"

// TargetDir returns the directory an archive is extracted into.
func TargetDir(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if isMonthArchive(path) {
		base += MonthDirSuffix
	}
	return filepath.Join(filepath.Dir(path), base)
}

func isMonthArchive(p string) bool {
	return strings.HasSuffix(p, ".tar") && !strings.HasSuffix(p, ".tar.gz")
}

func isArchive(p string) bool {
	return strings.HasSuffix(p, ".tar") || strings.HasSuffix(p, ".tar.gz")
}

// extractNested extracts the day archives found below dir.
func extractNested(ctx context.Context, dir string) (int, error) {
	var inner []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".tar.gz") {
			inner = append(inner, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}

	n := 0
	for _, p := range inner {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, created, err := extractOne(p)
		if err != nil {
			return n, err
		}
		if created {
			n++
		}
	}
	return n, nil
}

func extractOne(path string) (dir string, created bool, err error) {
	dir = TargetDir(path)
	if _, err := os.Stat(dir); err == nil {
		return dir, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return dir, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return dir, false, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return dir, false, fmt.Errorf("open %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	// Extract into a temporary sibling so an interrupted run does not leave
	// a directory that would be mistaken for a finished extraction.
	tmp, err := os.MkdirTemp(filepath.Dir(dir), "."+filepath.Base(dir)+".tmp-*")
	if err != nil {
		return dir, false, err
	}
	defer os.RemoveAll(tmp)

	if err := untar(tar.NewReader(r), tmp); err != nil {
		return dir, false, fmt.Errorf("extract %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		return dir, false, err
	}
	if err := os.Rename(tmp, dir); err != nil {
		return dir, false, err
	}
	return dir, true, nil
}

func untar(tr *tar.Reader, dst string) error {
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.FromSlash(strings.TrimPrefix(hdr.Name, "./"))
		if name == "" || name == "." {
			continue
		}
		if !filepath.IsLocal(name) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}
		target := filepath.Join(dst, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeFile(target, tr); err != nil {
				return err
			}
		}
	}
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ListASC returns the hourly raster files below dirs whose timestamps fall
// into rng, sorted and without duplicates.
func ListASC(dirs []string, rng archive.Range, noTimeCorrection bool) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, d := range dirs {
		err := filepath.WalkDir(d, func(path string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if e.IsDir() || !strings.HasSuffix(path, ".asc") || seen[path] {
				return nil
			}
			ts, err := archive.ASCTimestamp(path, noTimeCorrection)
			if err != nil {
				return nil
			}
			if rng.Contains(ts) {
				seen[path] = true
				out = append(out, path)
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("list asc in %s: %w", d, err)
		}
	}
	sort.Strings(out)
	return out, nil
}
