package archive

import "sort"

// Set is a set of archive file names.
type Set map[string]struct{}

// NewSet builds a set from names; duplicates collapse.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order, which for RW names is also
// chronological order within a scheme.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Split separates the members by scheme. Names matching neither scheme are
// dropped.
func (s Set) Split() (current, legacy Set) {
	current, legacy = Set{}, Set{}
	for n := range s {
		parsed, ok := Parse(n)
		if !ok {
			continue
		}
		switch parsed.Scheme {
		case SchemeCurrent:
			current.Add(n)
		case SchemeLegacy:
			legacy.Add(n)
		}
	}
	return current, legacy
}
