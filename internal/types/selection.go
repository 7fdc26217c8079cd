package types

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Selection is the deduplicated set of absolute directories that must be
// bundled as production dependencies. A successful selection always contains
// the project root. Selections are created fresh per enumeration call and
// never shared across calls.
type Selection struct {
	paths mapset.Set[string]
}

// NewSelection creates a selection seeded with the given paths.
func NewSelection(paths ...string) Selection {
	s := Selection{paths: mapset.NewSet[string]()}
	for _, path := range paths {
		s.paths.Add(path)
	}
	return s
}

// Add records an absolute directory in the selection.
func (s Selection) Add(path string) {
	s.paths.Add(path)
}

// Contains reports whether the directory is part of the selection.
func (s Selection) Contains(path string) bool {
	return s.paths.Contains(path)
}

// Len returns the number of distinct directories.
func (s Selection) Len() int {
	return s.paths.Cardinality()
}

// Sorted returns the selection as a lexicographically ordered slice.
func (s Selection) Sorted() []string {
	out := s.paths.ToSlice()
	sort.Strings(out)
	return out
}
