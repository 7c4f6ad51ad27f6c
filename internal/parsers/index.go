package parsers

import (
	"sort"
	"strings"
)

type indexEntry struct {
	name  string   // as given by the caller
	words []string // normalized tokens
}

// Index resolves free phrases to known component names. Resolution depends
// only on the set of names, never on the order they were supplied in.
type Index struct {
	entries []indexEntry // sorted by name
	exact   map[string]string
}

// NewIndex builds an index over components, dropping blanks and duplicates
func NewIndex(components []string) *Index {
	ix := &Index{exact: make(map[string]string)}

	names := make([]string, 0, len(components))
	for _, c := range components {
		if strings.TrimSpace(c) != "" {
			names = append(names, c)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		key := normalizePhrase(name)
		if _, dup := ix.exact[key]; dup {
			continue
		}
		ix.exact[key] = name
		ix.entries = append(ix.entries, indexEntry{
			name:  name,
			words: strings.Fields(key),
		})
	}

	return ix
}

// Names returns the indexed component names in sorted order
func (ix *Index) Names() []string {
	names := make([]string, len(ix.entries))
	for i, e := range ix.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of indexed components
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Resolve maps phrase to a component. Matches are tried in order: exact,
// exact without leading determiners, phrase contained in a component (the
// shortest component wins), component contained in the phrase (the longest
// wins). Ties go to the lexicographically smaller name.
func (ix *Index) Resolve(phrase string) (string, bool) {
	key := normalizePhrase(phrase)
	if key == "" {
		return "", false
	}
	if name, ok := ix.exact[key]; ok {
		return name, true
	}

	words := stripDeterminers(strings.Fields(key))
	if len(words) == 0 {
		return "", false
	}
	if name, ok := ix.exact[strings.Join(words, " ")]; ok {
		return name, true
	}

	best := -1
	for i, e := range ix.entries {
		if containsRun(e.words, words) && (best < 0 || len(e.words) < len(ix.entries[best].words)) {
			best = i
		}
	}
	if best >= 0 {
		return ix.entries[best].name, true
	}

	for i, e := range ix.entries {
		if containsRun(words, e.words) && (best < 0 || len(e.words) > len(ix.entries[best].words)) {
			best = i
		}
	}
	if best >= 0 {
		return ix.entries[best].name, true
	}

	return "", false
}

// containsRun reports whether needle occurs as a contiguous run in haystack
func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, w := range needle {
			if haystack[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
