package core

import (
	"slices"
	"strings"
)

// DefaultCategories is the closed set used when no category file is configured.
var DefaultCategories = []string{
	"food", "rent", "utilities", "entertainment", "transport",
	"health", "misc", "salary", "bonus", "other",
}

// CategorySet is the closed set of category identifiers accepted by the ledger.
type CategorySet map[string]struct{}

func NewCategorySet(names []string) CategorySet {
	set := make(CategorySet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name is acceptable. An empty set accepts any
// non-blank name.
func (s CategorySet) Contains(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if len(s) == 0 {
		return true
	}
	_, ok := s[name]
	return ok
}

// Names returns the identifiers in lexical order.
func (s CategorySet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
