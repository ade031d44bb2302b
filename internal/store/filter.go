package store

import "strings"

// Filter returns the notes whose title or content contains term as a
// case-folded substring, preserving the collection's order. An empty term
// returns the full collection. The input is never mutated and the result is
// always a fresh slice, so the view cannot go stale across distinct terms.
func Filter(notes []Note, term string) []Note {
	if term == "" {
		return Clone(notes)
	}
	needle := strings.ToLower(term)
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle) {
			out = append(out, n)
		}
	}
	return out
}
