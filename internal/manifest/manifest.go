// Package manifest keeps the durable ledger of archive names known to exist
// locally: a hidden text file in the target root, one name per line,
// append-only, no header.
//
// The ledger is never pruned. Repeated rescans may write the same name more
// than once; Read collapses duplicates so callers always see a set.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/raddo/internal/archive"
)

// FileName is the manifest's name inside the target root.
const FileName = ".raddo_local_files.txt"

// Store is the manifest of one target root. It holds no state besides its
// path; every call goes to the filesystem.
type Store struct {
	path string
}

// New returns the store for the manifest inside root.
func New(root string) *Store {
	return &Store{path: filepath.Join(root, FileName)}
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the manifest file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read parses the manifest. A missing manifest yields an empty set.
func (s *Store) Read() (archive.Set, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return archive.Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	out := archive.Set{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out.Add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return out, nil
}

// Create writes a new manifest holding names in sorted order. It never
// touches an existing manifest; the first result tells whether a file was
// written. An empty names list still creates an (empty) manifest.
func (s *Store) Create(names []string) (bool, error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create manifest: %w", err)
	}

	if err := writeLines(f, names); err != nil {
		f.Close()
		return true, fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("close manifest: %w", err)
	}
	return true, nil
}

// Append adds names, sorted, to the end of the manifest, or creates it when
// none exists. Names already recorded are written again.
func (s *Store) Append(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if !s.Exists() {
		_, err := s.Create(names)
		return err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open manifest for append: %w", err)
	}
	if err := writeLines(f, names); err != nil {
		f.Close()
		return fmt.Errorf("append manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	return nil
}

func writeLines(f *os.File, names []string) error {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	w := bufio.NewWriter(f)
	for _, n := range sorted {
		if _, err := w.WriteString(n + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
