// Package inventory walks a local directory tree and classifies the RW
// archives it finds. Walking is O(files under root); the manifest exists so
// that repeated runs can skip it.
package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmitrijs2005/raddo/internal/archive"
)

// Inventory is the result of one scan.
type Inventory struct {
	Current archive.Set
	Legacy  archive.Set

	// CurrentDays and LegacyMonths are the dates encoded in the names,
	// sorted and without duplicates.
	CurrentDays  []time.Time
	LegacyMonths []time.Time

	// Dirs is the number of directories visited.
	Dirs int

	// Skipped holds the entries below root that could not be read. They
	// are left out of the scan instead of failing it.
	Skipped []SkippedEntry
}

// SkippedEntry is an unreadable path and the reason.
type SkippedEntry struct {
	Path string
	Err  error
}

// Known returns the union of both schemes.
func (inv *Inventory) Known() archive.Set {
	out := archive.Set{}
	for n := range inv.Current {
		out.Add(n)
	}
	for n := range inv.Legacy {
		out.Add(n)
	}
	return out
}

// Scan walks root recursively. The same archive name found in several
// directories is counted once. Only an unreadable root is an error.
func Scan(ctx context.Context, root string) (*Inventory, error) {
	inv := &Inventory{Current: archive.Set{}, Legacy: archive.Set{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			inv.Skipped = append(inv.Skipped, SkippedEntry{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			inv.Dirs++
			return ctx.Err()
		}

		name, ok := archive.Parse(d.Name())
		if !ok {
			return nil
		}
		switch name.Scheme {
		case archive.SchemeCurrent:
			inv.Current.Add(d.Name())
		case archive.SchemeLegacy:
			inv.Legacy.Add(d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	inv.CurrentDays = dates(inv.Current)
	inv.LegacyMonths = dates(inv.Legacy)
	return inv, nil
}

func dates(s archive.Set) []time.Time {
	out := make([]time.Time, 0, len(s))
	for n := range s {
		if parsed, ok := archive.Parse(n); ok {
			out = append(out, parsed.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
